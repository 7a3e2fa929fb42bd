// Package reconcile merges a finished session's rule-based occurrence set
// with the qualitative report from the reasoning collaborator into one
// immutable analysis report. Reconciliation is idempotent per session and
// degrades rather than blocks: when the collaborator stays unreachable the
// occurrence half is persisted alone, flagged for later enrichment.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/rostrum/internal/coach"
	"github.com/MikeSquared-Agency/rostrum/internal/debate"
	"github.com/MikeSquared-Agency/rostrum/internal/observe"
	"github.com/MikeSquared-Agency/rostrum/internal/session"
	"github.com/MikeSquared-Agency/rostrum/internal/store"
	"github.com/MikeSquared-Agency/rostrum/internal/transport"
)

// ReportStore is the slice of the persistence layer the reconciler needs.
type ReportStore interface {
	ReportStatus(ctx context.Context, sessionID uuid.UUID) (debate.ReportStatus, error)
	InsertAnalysisReport(ctx context.Context, rep debate.AnalysisReport) (bool, error)
	UpgradeAnalysisReport(ctx context.Context, sessionID uuid.UUID, qualitative *debate.QualitativeReport) (bool, error)
}

// Analyzer is the reasoning-collaborator surface.
type Analyzer interface {
	Analyze(ctx context.Context, req coach.AnalysisRequest) (*debate.QualitativeReport, error)
	Quick(ctx context.Context, req coach.AnalysisRequest) (*coach.QuickSummary, error)
}

// Publisher announces finished reports on the bus.
type Publisher interface {
	Publish(subject string, data any) error
}

// Config bounds the collaborator retry loop. The per-call timeout lives in
// the coach client itself.
type Config struct {
	// Attempts is the total number of coach calls before degrading.
	Attempts int

	// Backoff is the initial wait between attempts; it doubles each retry.
	Backoff time.Duration
}

// DefaultConfig matches the documented operational defaults: three attempts
// with exponential backoff starting at two seconds.
func DefaultConfig() Config {
	return Config{Attempts: 3, Backoff: 2 * time.Second}
}

type Reconciler struct {
	store     ReportStore
	coach     Analyzer
	publisher Publisher
	cfg       Config
	metrics   *observe.Metrics
	logger    *slog.Logger
}

// New creates a reconciler. publisher and metrics may be nil.
func New(s ReportStore, c Analyzer, publisher Publisher, cfg Config, metrics *observe.Metrics, logger *slog.Logger) *Reconciler {
	if cfg.Attempts < 1 {
		cfg.Attempts = 1
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = 2 * time.Second
	}
	return &Reconciler{store: s, coach: c, publisher: publisher, cfg: cfg, metrics: metrics, logger: logger}
}

// Reconcile runs the one-time merge for an ended session. Calling it again
// is safe: a complete report is a no-op, a degraded report gets one upgrade
// attempt, and a complete report is never regressed.
func (r *Reconciler) Reconcile(ctx context.Context, agg *session.Aggregator) error {
	sessionID := agg.SessionID()
	start := time.Now()
	defer func() {
		if r.metrics != nil {
			r.metrics.ReconcileDuration.Record(ctx, time.Since(start).Seconds())
		}
	}()

	status, err := r.store.ReportStatus(ctx, sessionID)
	switch {
	case err == nil && status == debate.ReportComplete:
		r.record(ctx, "noop")
		return nil
	case err == nil && status == debate.ReportPendingEnrichment:
		return r.enrich(ctx, agg)
	case errors.Is(err, store.ErrReportNotFound):
		// First reconciliation for this session.
	default:
		if err != nil {
			return fmt.Errorf("check report status: %w", err)
		}
	}

	occurrences := agg.Occurrences()
	rep := debate.AnalysisReport{
		SessionID:   sessionID,
		Occurrences: occurrences,
		Winner:      r.winner(agg),
	}

	qual, coachErr := r.analyzeWithRetry(ctx, agg)
	if coachErr != nil {
		// Degrade rather than block: the occurrence set is valuable on its
		// own and the user should not wait on a dead collaborator.
		r.logger.Error("coach unavailable, persisting degraded report",
			"session_id", sessionID, "error", coachErr)
		rep.Status = debate.ReportPendingEnrichment
	} else {
		rep.Qualitative = qual
		rep.Status = debate.ReportComplete
	}

	inserted, err := r.store.InsertAnalysisReport(ctx, rep)
	if err != nil {
		return fmt.Errorf("persist analysis report: %w", err)
	}
	if !inserted {
		// A concurrent reconciliation won the insert race.
		r.record(ctx, "noop")
		return nil
	}

	if rep.Status == debate.ReportComplete {
		r.record(ctx, "complete")
	} else {
		r.record(ctx, "degraded")
	}
	r.announce(sessionID, rep.Status)
	r.logger.Info("session reconciled",
		"session_id", sessionID,
		"occurrences", len(occurrences),
		"status", rep.Status,
		"winner", rep.Winner,
	)
	return coachErr
}

// enrich backfills the qualitative half of a degraded report without
// re-deriving the already-persisted occurrence set.
func (r *Reconciler) enrich(ctx context.Context, agg *session.Aggregator) error {
	sessionID := agg.SessionID()

	qual, err := r.analyzeWithRetry(ctx, agg)
	if err != nil {
		return fmt.Errorf("enrich session %s: %w", sessionID, err)
	}

	upgraded, err := r.store.UpgradeAnalysisReport(ctx, sessionID, qual)
	if err != nil {
		return fmt.Errorf("upgrade analysis report: %w", err)
	}
	if !upgraded {
		// Already complete; never regress.
		r.record(ctx, "noop")
		return nil
	}
	r.record(ctx, "upgraded")
	r.announce(sessionID, debate.ReportComplete)
	r.logger.Info("degraded report enriched", "session_id", sessionID)
	return nil
}

// QuickCoach fetches a short provisional summary for a session in progress
// or just finished. Advisory only: never retried, never persisted.
func (r *Reconciler) QuickCoach(ctx context.Context, agg *session.Aggregator) (*coach.QuickSummary, error) {
	return r.coach.Quick(ctx, r.request(agg))
}

func (r *Reconciler) analyzeWithRetry(ctx context.Context, agg *session.Aggregator) (*debate.QualitativeReport, error) {
	req := r.request(agg)

	var lastErr error
	wait := r.cfg.Backoff
	for attempt := 1; attempt <= r.cfg.Attempts; attempt++ {
		qual, err := r.coach.Analyze(ctx, req)
		if err == nil {
			return qual, nil
		}
		lastErr = err
		r.logger.Warn("coach analyze failed",
			"session_id", agg.SessionID(), "attempt", attempt, "error", err)
		if attempt == r.cfg.Attempts {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
		wait *= 2
	}
	return nil, fmt.Errorf("coach failed after %d attempts: %w", r.cfg.Attempts, lastErr)
}

func (r *Reconciler) request(agg *session.Aggregator) coach.AnalysisRequest {
	return coach.AnalysisRequest{
		Transcript: agg.Transcript(),
		Topic:      agg.Topic(),
		Position:   agg.Position(),
	}
}

// winner derives the session winner from per-speaker effectiveness sums.
// The qualitative report carries no winner of its own, so the derivation is
// stable whether or not the coach responded.
func (r *Reconciler) winner(agg *session.Aggregator) string {
	user := agg.SpeakerScore(debate.SpeakerUser)
	counterpart := agg.SpeakerScore(debate.SpeakerCounterpart)
	switch {
	case user > counterpart:
		return debate.WinnerUser
	case counterpart > user:
		return debate.WinnerCounterpart
	default:
		return debate.WinnerDraw
	}
}

func (r *Reconciler) announce(sessionID uuid.UUID, status debate.ReportStatus) {
	if r.publisher == nil {
		return
	}
	if err := r.publisher.Publish(transport.SubjectReportReady, map[string]any{
		"session_id": sessionID,
		"status":     status,
	}); err != nil {
		r.logger.Warn("failed to announce report", "session_id", sessionID, "error", err)
	}
}

func (r *Reconciler) record(ctx context.Context, status string) {
	if r.metrics != nil {
		r.metrics.RecordReconcile(ctx, status)
	}
}
