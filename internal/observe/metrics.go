// Package observe provides Rostrum's OpenTelemetry metrics and the
// Prometheus exporter bridge behind the /metrics endpoint.
package observe

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope for all Rostrum metrics.
const meterName = "github.com/MikeSquared-Agency/rostrum"

// Metrics holds the metric instruments the pipeline records into. The
// underlying OTel types handle their own synchronisation.
type Metrics struct {
	// UtterancesIngested counts accepted utterances. Attribute: speaker.
	UtterancesIngested metric.Int64Counter

	// OccurrencesDetected counts materialized occurrences. Attribute: technique.
	OccurrencesDetected metric.Int64Counter

	// DuplicatesDropped counts utterances and occurrences absorbed by the
	// dedup key. Attribute: kind ("utterance" or "occurrence").
	DuplicatesDropped metric.Int64Counter

	// TerminalRejections counts utterances that arrived after session end.
	TerminalRejections metric.Int64Counter

	// ReconcileAttempts counts reconciliation outcomes. Attribute: status
	// ("complete", "degraded", "noop", "upgraded").
	ReconcileAttempts metric.Int64Counter

	// DetectDuration tracks per-utterance dispatch latency.
	DetectDuration metric.Float64Histogram

	// ReconcileDuration tracks end-to-end reconciliation latency including
	// coach retries.
	ReconcileDuration metric.Float64Histogram

	// ActiveSessions tracks the number of sessions currently Active.
	ActiveSessions metric.Int64UpDownCounter
}

// latencyBuckets are histogram boundaries in seconds. Dispatch is
// sub-millisecond CPU work; reconciliation spans seconds of external calls.
var latencyBuckets = []float64{
	0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 15, 30, 60,
}

// NewMetrics creates all instruments from the given provider. Tests should
// pass a private provider to avoid cross-test pollution.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	met := &Metrics{}
	var err error

	if met.UtterancesIngested, err = m.Int64Counter("rostrum.utterances.ingested",
		metric.WithDescription("Accepted utterances by speaker."),
	); err != nil {
		return nil, err
	}
	if met.OccurrencesDetected, err = m.Int64Counter("rostrum.occurrences.detected",
		metric.WithDescription("Materialized technique occurrences by technique."),
	); err != nil {
		return nil, err
	}
	if met.DuplicatesDropped, err = m.Int64Counter("rostrum.duplicates.dropped",
		metric.WithDescription("Deliveries absorbed by the dedup key, by kind."),
	); err != nil {
		return nil, err
	}
	if met.TerminalRejections, err = m.Int64Counter("rostrum.terminal.rejections",
		metric.WithDescription("Utterances rejected because their session already ended."),
	); err != nil {
		return nil, err
	}
	if met.ReconcileAttempts, err = m.Int64Counter("rostrum.reconcile.attempts",
		metric.WithDescription("Reconciliation outcomes by status."),
	); err != nil {
		return nil, err
	}
	if met.DetectDuration, err = m.Float64Histogram("rostrum.detect.duration",
		metric.WithDescription("Per-utterance dispatch latency."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.ReconcileDuration, err = m.Float64Histogram("rostrum.reconcile.duration",
		metric.WithDescription("End-to-end reconciliation latency."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.ActiveSessions, err = m.Int64UpDownCounter("rostrum.active_sessions",
		metric.WithDescription("Sessions currently in the Active state."),
	); err != nil {
		return nil, err
	}
	return met, nil
}

// RecordOccurrence increments the detection counter for one technique.
func (m *Metrics) RecordOccurrence(ctx context.Context, technique string) {
	m.OccurrencesDetected.Add(ctx, 1,
		metric.WithAttributes(attribute.String("technique", technique)))
}

// RecordDuplicate increments the duplicate counter for one kind.
func (m *Metrics) RecordDuplicate(ctx context.Context, kind string) {
	m.DuplicatesDropped.Add(ctx, 1,
		metric.WithAttributes(attribute.String("kind", kind)))
}

// RecordReconcile increments the reconcile counter for one outcome.
func (m *Metrics) RecordReconcile(ctx context.Context, status string) {
	m.ReconcileAttempts.Add(ctx, 1,
		metric.WithAttributes(attribute.String("status", status)))
}
