// Package ingest is the realtime ingestion pipeline: it consumes utterance
// and session-lifecycle events from the transport, runs the detection
// dispatcher, persists occurrences idempotently, republishes them to live
// viewers, and hands ended sessions to the reconciler.
package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/MikeSquared-Agency/rostrum/internal/debate"
	"github.com/MikeSquared-Agency/rostrum/internal/detect"
	"github.com/MikeSquared-Agency/rostrum/internal/observe"
	"github.com/MikeSquared-Agency/rostrum/internal/session"
	"github.com/MikeSquared-Agency/rostrum/internal/transport"
)

// OccurrenceStore is the slice of the persistence layer the pipeline needs.
type OccurrenceStore interface {
	UpsertOccurrence(ctx context.Context, o debate.TechniqueOccurrence) (bool, error)
}

// Publisher republishes occurrences to live viewers and escalates
// persistence failures to operators.
type Publisher interface {
	Publish(subject string, data any) error
}

// SessionReconciler runs the one-time merge after a session ends.
type SessionReconciler interface {
	Reconcile(ctx context.Context, agg *session.Aggregator) error
}

// RetryConfig bounds the occurrence-persistence retry loop.
type RetryConfig struct {
	Attempts int
	Backoff  time.Duration
}

// DefaultRetryConfig is three attempts starting at 250ms, doubling.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{Attempts: 3, Backoff: 250 * time.Millisecond}
}

// SessionStartedEvent is the transport's explicit session-start signal.
type SessionStartedEvent struct {
	SessionID uuid.UUID `json:"session_id"`
	Topic     string    `json:"topic"`
	Position  string    `json:"position"`
	StartedAt time.Time `json:"started_at"`
}

// SessionEndedEvent is the transport's explicit session-end signal. Sessions
// never end on inferred silence; silence is normal mid-debate.
type SessionEndedEvent struct {
	SessionID uuid.UUID `json:"session_id"`
	EndedAt   time.Time `json:"ended_at"`
}

// SessionAbortedEvent discards a session without reconciliation.
type SessionAbortedEvent struct {
	SessionID uuid.UUID `json:"session_id"`
}

// Pipeline is the per-utterance hot path. Detection is CPU-bound and pure;
// only the persistence upsert blocks. Sessions are independent failure
// domains: an error in one never affects another.
type Pipeline struct {
	registry   *session.Registry
	dispatcher *detect.Dispatcher
	store      OccurrenceStore
	publisher  Publisher
	reconciler SessionReconciler
	retry      RetryConfig
	metrics    *observe.Metrics
	logger     *slog.Logger

	ctx context.Context // base context for handler work and async reconciles
}

// New creates the pipeline. publisher, reconciler, and metrics may be nil
// (tests typically fake the store and leave metrics off).
func New(ctx context.Context, registry *session.Registry, dispatcher *detect.Dispatcher,
	store OccurrenceStore, publisher Publisher, reconciler SessionReconciler,
	retry RetryConfig, metrics *observe.Metrics, logger *slog.Logger) *Pipeline {
	if retry.Attempts < 1 {
		retry.Attempts = 1
	}
	if retry.Backoff <= 0 {
		retry.Backoff = 250 * time.Millisecond
	}
	return &Pipeline{
		registry:   registry,
		dispatcher: dispatcher,
		store:      store,
		publisher:  publisher,
		reconciler: reconciler,
		retry:      retry,
		metrics:    metrics,
		logger:     logger,
		ctx:        ctx,
	}
}

// HandleSessionStarted is the NATS handler for debate.session.started.
func (p *Pipeline) HandleSessionStarted(subject string, data []byte) {
	var evt SessionStartedEvent
	if err := json.Unmarshal(data, &evt); err != nil {
		p.logger.Error("failed to parse session started event", "error", err)
		return
	}
	if evt.SessionID == uuid.Nil {
		p.logger.Error("session started event missing session_id")
		return
	}

	_, created, err := p.registry.Activate(evt.SessionID, evt.Topic, evt.Position)
	if err != nil {
		p.logger.Warn("start signal for terminal session", "session_id", evt.SessionID)
		return
	}
	if created {
		p.addActive(1)
		p.logger.Info("session active", "session_id", evt.SessionID, "topic", evt.Topic)
	}
}

// HandleUtterance is the NATS handler for debate.utterance. Delivery is
// at-least-once and only almost-ordered; the dedup key and the purity of the
// detectors make both duplicates and reordering harmless.
func (p *Pipeline) HandleUtterance(subject string, data []byte) {
	var u debate.Utterance
	if err := json.Unmarshal(data, &u); err != nil {
		p.logger.Error("failed to parse utterance event", "error", err)
		return
	}
	if u.SessionID == uuid.Nil || u.UtteranceID == uuid.Nil {
		p.logger.Error("utterance event missing ids", "session_id", u.SessionID, "utterance_id", u.UtteranceID)
		return
	}

	agg, created, err := p.registry.ForUtterance(u.SessionID)
	if errors.Is(err, session.ErrSessionEnded) {
		// Terminal-state error: logged, not retried. A finalized accumulator
		// must never be mutated retroactively.
		p.logger.Warn("utterance after session end dropped",
			"session_id", u.SessionID, "utterance_id", u.UtteranceID)
		if p.metrics != nil {
			p.metrics.TerminalRejections.Add(p.ctx, 1)
		}
		return
	}
	if created {
		p.addActive(1)
		p.logger.Info("session active on first utterance", "session_id", u.SessionID)
	}

	if !agg.AddUtterance(u) {
		if p.metrics != nil {
			p.metrics.RecordDuplicate(p.ctx, "utterance")
		}
		// Redelivery: fall through anyway so a partially persisted first
		// attempt can finish via the occurrence upserts below.
	} else if p.metrics != nil {
		p.metrics.UtterancesIngested.Add(p.ctx, 1,
			metric.WithAttributes(attribute.String("speaker", string(u.Speaker))))
	}

	start := time.Now()
	occurrences := p.dispatcher.Dispatch(u)
	if p.metrics != nil {
		p.metrics.DetectDuration.Record(p.ctx, time.Since(start).Seconds())
	}

	for _, occ := range occurrences {
		if !agg.Add(occ) {
			if p.metrics != nil {
				p.metrics.RecordDuplicate(p.ctx, "occurrence")
			}
			continue
		}
		if p.metrics != nil {
			p.metrics.RecordOccurrence(p.ctx, string(occ.Technique))
		}
		p.persistOccurrence(occ)
		if p.publisher != nil {
			if err := p.publisher.Publish(transport.SubjectTechniqueDetected, occ); err != nil {
				p.logger.Warn("failed to publish occurrence",
					"session_id", occ.SessionID, "technique", occ.Technique, "error", err)
			}
		}
	}
}

// HandleSessionEnded is the NATS handler for debate.session.ended.
// Reconciliation runs asynchronously so a slow coach call never blocks the
// transport subscription.
func (p *Pipeline) HandleSessionEnded(subject string, data []byte) {
	var evt SessionEndedEvent
	if err := json.Unmarshal(data, &evt); err != nil {
		p.logger.Error("failed to parse session ended event", "error", err)
		return
	}

	agg, err := p.registry.End(evt.SessionID)
	if errors.Is(err, session.ErrSessionEnded) {
		p.logger.Info("duplicate session end ignored", "session_id", evt.SessionID)
		return
	}
	if errors.Is(err, session.ErrSessionNotFound) {
		p.logger.Warn("end signal for unknown session", "session_id", evt.SessionID)
		return
	}
	p.addActive(-1)
	p.logger.Info("session ended", "session_id", evt.SessionID)

	if p.reconciler == nil {
		return
	}
	go func() {
		if err := p.reconciler.Reconcile(p.ctx, agg); err != nil {
			p.logger.Error("reconciliation incomplete", "session_id", evt.SessionID, "error", err)
		}
	}()
}

// HandleSessionAborted is the NATS handler for debate.session.aborted. The
// accumulator is torn down and no analysis report is ever created.
func (p *Pipeline) HandleSessionAborted(subject string, data []byte) {
	var evt SessionAbortedEvent
	if err := json.Unmarshal(data, &evt); err != nil {
		p.logger.Error("failed to parse session aborted event", "error", err)
		return
	}
	if p.registry.Abort(evt.SessionID) {
		p.addActive(-1)
		p.logger.Info("session aborted", "session_id", evt.SessionID)
	}
}

// persistOccurrence upserts with bounded backoff. An occurrence must
// eventually land or be surfaced to an operator: silently dropping it would
// understate the debater's performance in the final reconciliation.
func (p *Pipeline) persistOccurrence(occ debate.TechniqueOccurrence) {
	var lastErr error
	wait := p.retry.Backoff
	for attempt := 1; attempt <= p.retry.Attempts; attempt++ {
		inserted, err := p.store.UpsertOccurrence(p.ctx, occ)
		if err == nil {
			if !inserted && p.metrics != nil {
				p.metrics.RecordDuplicate(p.ctx, "occurrence")
			}
			return
		}
		lastErr = err
		p.logger.Warn("occurrence upsert failed",
			"session_id", occ.SessionID, "technique", occ.Technique,
			"attempt", attempt, "error", err)
		if attempt == p.retry.Attempts {
			break
		}
		select {
		case <-p.ctx.Done():
			return
		case <-time.After(wait):
		}
		wait *= 2
	}

	p.logger.Error("occurrence persistence exhausted retries",
		"session_id", occ.SessionID, "utterance_id", occ.UtteranceID,
		"technique", occ.Technique, "error", lastErr)
	if p.publisher != nil {
		if err := p.publisher.Publish(transport.SubjectOccurrenceFailed, map[string]any{
			"session_id":   occ.SessionID,
			"utterance_id": occ.UtteranceID,
			"technique":    occ.Technique,
			"error":        fmt.Sprintf("%v", lastErr),
		}); err != nil {
			p.logger.Error("failed to escalate persistence failure", "error", err)
		}
	}
}

func (p *Pipeline) addActive(delta int64) {
	if p.metrics != nil {
		p.metrics.ActiveSessions.Add(p.ctx, delta)
	}
}
