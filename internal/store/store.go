// Package store persists technique occurrences and analysis reports in
// Postgres. The occurrence upsert is the idempotency anchor for the whole
// pipeline: the (session_id, utterance_id, technique) unique key makes
// retried delivery of the same utterance a no-op at the database level.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrReportNotFound is returned when no analysis report exists for a session.
var ErrReportNotFound = errors.New("analysis report not found")

type Store struct {
	pool *pgxpool.Pool
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	s.pool.Close()
}
