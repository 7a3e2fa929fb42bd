package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/MikeSquared-Agency/rostrum/internal/debate"
)

// InsertAnalysisReport writes a report row for a session the first time
// only: a conflicting session_id leaves the existing row untouched. Returns
// whether the row was inserted. The occurrence set itself lives in
// technique_occurrences; the report row carries the qualitative half, the
// winner, and the completion status.
func (s *Store) InsertAnalysisReport(ctx context.Context, rep debate.AnalysisReport) (bool, error) {
	qual, err := marshalQualitative(rep.Qualitative)
	if err != nil {
		return false, err
	}
	tag, err := s.pool.Exec(ctx, `
		INSERT INTO analysis_reports (session_id, qualitative, winner, status, created_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (session_id) DO NOTHING`,
		rep.SessionID, qual, rep.Winner, rep.Status,
	)
	if err != nil {
		return false, fmt.Errorf("insert analysis report: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// UpgradeAnalysisReport backfills the qualitative half of a degraded report.
// The guard on status makes the upgrade one-shot and ensures a complete
// report can never regress: rows already complete are never matched.
// Returns whether an upgrade happened.
func (s *Store) UpgradeAnalysisReport(ctx context.Context, sessionID uuid.UUID, qualitative *debate.QualitativeReport) (bool, error) {
	qual, err := marshalQualitative(qualitative)
	if err != nil {
		return false, err
	}
	tag, err := s.pool.Exec(ctx, `
		UPDATE analysis_reports
		SET qualitative = $2, status = $3, enriched_at = now()
		WHERE session_id = $1 AND status = $4`,
		sessionID, qual, debate.ReportComplete, debate.ReportPendingEnrichment,
	)
	if err != nil {
		return false, fmt.Errorf("upgrade analysis report: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// GetAnalysisReport loads a session's report, including its occurrence set.
// Returns ErrReportNotFound when the session has no report (i.e. it has not
// ended, or was aborted).
func (s *Store) GetAnalysisReport(ctx context.Context, sessionID uuid.UUID) (*debate.AnalysisReport, error) {
	var rep debate.AnalysisReport
	var qual []byte
	err := s.pool.QueryRow(ctx, `
		SELECT session_id, qualitative, winner, status, created_at
		FROM analysis_reports
		WHERE session_id = $1`,
		sessionID,
	).Scan(&rep.SessionID, &qual, &rep.Winner, &rep.Status, &rep.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrReportNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query analysis report: %w", err)
	}

	if len(qual) > 0 {
		var q debate.QualitativeReport
		if err := json.Unmarshal(qual, &q); err != nil {
			return nil, fmt.Errorf("decode qualitative report: %w", err)
		}
		rep.Qualitative = &q
	}

	occ, err := s.ListOccurrences(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	rep.Occurrences = occ
	return &rep, nil
}

// ReportStatus returns the stored status for a session's report, or
// ErrReportNotFound.
func (s *Store) ReportStatus(ctx context.Context, sessionID uuid.UUID) (debate.ReportStatus, error) {
	var status debate.ReportStatus
	err := s.pool.QueryRow(ctx,
		`SELECT status FROM analysis_reports WHERE session_id = $1`, sessionID,
	).Scan(&status)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrReportNotFound
	}
	if err != nil {
		return "", fmt.Errorf("query report status: %w", err)
	}
	return status, nil
}

func marshalQualitative(q *debate.QualitativeReport) ([]byte, error) {
	if q == nil {
		return nil, nil
	}
	b, err := json.Marshal(q)
	if err != nil {
		return nil, fmt.Errorf("encode qualitative report: %w", err)
	}
	return b, nil
}
