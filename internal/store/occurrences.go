package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/rostrum/internal/debate"
)

// UpsertOccurrence inserts an occurrence, ignoring the write when a row with
// the same dedup key already exists. Returns whether a new row was inserted.
// Occurrences are immutable, so conflict means duplicate delivery and the
// existing row is authoritative.
func (s *Store) UpsertOccurrence(ctx context.Context, o debate.TechniqueOccurrence) (bool, error) {
	tag, err := s.pool.Exec(ctx, `
		INSERT INTO technique_occurrences
			(id, session_id, utterance_id, technique, speaker, effectiveness, snippet, context_note, sequence_number, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now())
		ON CONFLICT (session_id, utterance_id, technique) DO NOTHING`,
		uuid.New(), o.SessionID, o.UtteranceID, o.Technique, o.Speaker,
		o.Effectiveness, o.Snippet, o.ContextNote, o.SequenceNumber,
	)
	if err != nil {
		return false, fmt.Errorf("upsert occurrence: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// ListOccurrences returns a session's occurrences in canonical order.
func (s *Store) ListOccurrences(ctx context.Context, sessionID uuid.UUID) ([]debate.TechniqueOccurrence, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT session_id, utterance_id, technique, speaker, effectiveness, snippet, context_note, sequence_number
		FROM technique_occurrences
		WHERE session_id = $1
		ORDER BY sequence_number, speaker, technique`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("query occurrences: %w", err)
	}
	defer rows.Close()

	var out []debate.TechniqueOccurrence
	for rows.Next() {
		var o debate.TechniqueOccurrence
		if err := rows.Scan(&o.SessionID, &o.UtteranceID, &o.Technique, &o.Speaker,
			&o.Effectiveness, &o.Snippet, &o.ContextNote, &o.SequenceNumber); err != nil {
			return nil, fmt.Errorf("scan occurrence: %w", err)
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate occurrences: %w", err)
	}
	return out, nil
}
