package store

import (
	"context"
	"fmt"
)

const ddlOccurrences = `
CREATE TABLE IF NOT EXISTS technique_occurrences (
    id              UUID         PRIMARY KEY,
    session_id      UUID         NOT NULL,
    utterance_id    UUID         NOT NULL,
    technique       TEXT         NOT NULL,
    speaker         TEXT         NOT NULL,
    effectiveness   INT          NOT NULL CHECK (effectiveness BETWEEN 1 AND 10),
    snippet         TEXT         NOT NULL DEFAULT '',
    context_note    TEXT         NOT NULL DEFAULT '',
    sequence_number BIGINT       NOT NULL DEFAULT 0,
    created_at      TIMESTAMPTZ  NOT NULL DEFAULT now(),
    UNIQUE (session_id, utterance_id, technique)
);

CREATE INDEX IF NOT EXISTS idx_technique_occurrences_session
    ON technique_occurrences (session_id, sequence_number);
`

const ddlReports = `
CREATE TABLE IF NOT EXISTS analysis_reports (
    session_id  UUID         PRIMARY KEY,
    qualitative JSONB,
    winner      TEXT         NOT NULL DEFAULT '',
    status      TEXT         NOT NULL,
    created_at  TIMESTAMPTZ  NOT NULL DEFAULT now(),
    enriched_at TIMESTAMPTZ
);
`

// EnsureSchema creates the tables Rostrum needs if they do not exist yet.
// Called once at startup; safe to call repeatedly.
func (s *Store) EnsureSchema(ctx context.Context) error {
	for _, ddl := range []string{ddlOccurrences, ddlReports} {
		if _, err := s.pool.Exec(ctx, ddl); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
