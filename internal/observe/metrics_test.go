package observe

import (
	"context"
	"testing"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

func TestNewMetrics(t *testing.T) {
	mp := sdkmetric.NewMeterProvider()
	defer mp.Shutdown(context.Background())

	m, err := NewMetrics(mp)
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}

	// Instruments must be usable immediately.
	ctx := context.Background()
	m.UtterancesIngested.Add(ctx, 1)
	m.RecordOccurrence(ctx, "zinger")
	m.RecordDuplicate(ctx, "utterance")
	m.RecordReconcile(ctx, "complete")
	m.TerminalRejections.Add(ctx, 1)
	m.DetectDuration.Record(ctx, 0.002)
	m.ReconcileDuration.Record(ctx, 3.5)
	m.ActiveSessions.Add(ctx, 1)
	m.ActiveSessions.Add(ctx, -1)
}
