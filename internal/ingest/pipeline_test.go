package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/rostrum/internal/debate"
	"github.com/MikeSquared-Agency/rostrum/internal/detect"
	"github.com/MikeSquared-Agency/rostrum/internal/pattern"
	"github.com/MikeSquared-Agency/rostrum/internal/session"
	"github.com/MikeSquared-Agency/rostrum/internal/transport"
)

type fakeStore struct {
	mu       sync.Mutex
	rows     map[debate.OccurrenceKey]debate.TechniqueOccurrence
	failures int // fail this many upserts before succeeding
	calls    int
}

func newFakeStore() *fakeStore {
	return &fakeStore{rows: make(map[debate.OccurrenceKey]debate.TechniqueOccurrence)}
}

func (s *fakeStore) UpsertOccurrence(ctx context.Context, o debate.TechniqueOccurrence) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.failures > 0 {
		s.failures--
		return false, errors.New("connection refused")
	}
	key := o.Key()
	if _, ok := s.rows[key]; ok {
		return false, nil
	}
	s.rows[key] = o
	return true, nil
}

func (s *fakeStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rows)
}

type fakePublisher struct {
	mu       sync.Mutex
	messages []publishedMessage
}

type publishedMessage struct {
	subject string
	data    any
}

func (p *fakePublisher) Publish(subject string, data any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = append(p.messages, publishedMessage{subject, data})
	return nil
}

func (p *fakePublisher) bySubject(subject string) []publishedMessage {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []publishedMessage
	for _, m := range p.messages {
		if m.subject == subject {
			out = append(out, m)
		}
	}
	return out
}

type fakeReconciler struct {
	done chan *session.Aggregator
}

func (r *fakeReconciler) Reconcile(ctx context.Context, agg *session.Aggregator) error {
	r.done <- agg
	return nil
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestPipeline(t *testing.T, store OccurrenceStore, pub Publisher, rec SessionReconciler, retry RetryConfig) (*Pipeline, *session.Registry) {
	t.Helper()
	reg := session.NewRegistry()
	p := New(context.Background(), reg, detect.NewDispatcher(pattern.Default()),
		store, pub, rec, retry, nil, discard())
	return p, reg
}

func marshal(t *testing.T, v any) []byte {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return b
}

func utteranceEvent(t *testing.T, sid, uid uuid.UUID, seq int64, text string) []byte {
	t.Helper()
	return marshal(t, debate.Utterance{
		SessionID:      sid,
		UtteranceID:    uid,
		Speaker:        debate.SpeakerUser,
		Text:           text,
		SequenceNumber: seq,
		OccurredAt:     time.Now(),
	})
}

func TestHandleUtterance_PersistsAndRepublishes(t *testing.T) {
	store := newFakeStore()
	pub := &fakePublisher{}
	p, _ := newTestPipeline(t, store, pub, nil, DefaultRetryConfig())

	sid, uid := uuid.New(), uuid.New()
	p.HandleUtterance(transport.SubjectUtterance,
		utteranceEvent(t, sid, uid, 1, "You're right, but the real issue here is different."))

	if store.count() == 0 {
		t.Fatal("no occurrences persisted")
	}
	detected := pub.bySubject(transport.SubjectTechniqueDetected)
	if len(detected) != store.count() {
		t.Errorf("published %d occurrences, persisted %d", len(detected), store.count())
	}
}

func TestHandleUtterance_DuplicateDeliveryIsIdempotent(t *testing.T) {
	store := newFakeStore()
	pub := &fakePublisher{}
	p, _ := newTestPipeline(t, store, pub, nil, DefaultRetryConfig())

	sid, uid := uuid.New(), uuid.New()
	evt := utteranceEvent(t, sid, uid, 1, "According to a 2022 CBO study, costs rose 14%.")
	p.HandleUtterance(transport.SubjectUtterance, evt)
	first := store.count()
	published := len(pub.bySubject(transport.SubjectTechniqueDetected))

	p.HandleUtterance(transport.SubjectUtterance, evt)
	if store.count() != first {
		t.Errorf("redelivery changed persisted rows: %d -> %d", first, store.count())
	}
	if got := len(pub.bySubject(transport.SubjectTechniqueDetected)); got != published {
		t.Errorf("redelivery republished occurrences: %d -> %d", published, got)
	}
}

func TestHandleUtterance_AfterSessionEndIsDropped(t *testing.T) {
	store := newFakeStore()
	p, reg := newTestPipeline(t, store, nil, nil, DefaultRetryConfig())

	sid := uuid.New()
	reg.Activate(sid, "", "")
	p.HandleSessionEnded(transport.SubjectSessionEnded,
		marshal(t, SessionEndedEvent{SessionID: sid, EndedAt: time.Now()}))

	p.HandleUtterance(transport.SubjectUtterance,
		utteranceEvent(t, sid, uuid.New(), 5, "Case closed."))
	if store.count() != 0 {
		t.Errorf("late utterance persisted %d occurrences, want 0", store.count())
	}
}

func TestHandleUtterance_ImplicitSessionStart(t *testing.T) {
	store := newFakeStore()
	p, reg := newTestPipeline(t, store, nil, nil, DefaultRetryConfig())

	sid := uuid.New()
	p.HandleUtterance(transport.SubjectUtterance,
		utteranceEvent(t, sid, uuid.New(), 1, "Case closed."))

	if st, ok := reg.StateOf(sid); !ok || st != session.StateActive {
		t.Errorf("session state = (%v, %v), want (Active, true)", st, ok)
	}
}

func TestHandleUtterance_MissingIDsRejected(t *testing.T) {
	store := newFakeStore()
	p, reg := newTestPipeline(t, store, nil, nil, DefaultRetryConfig())

	p.HandleUtterance(transport.SubjectUtterance,
		utteranceEvent(t, uuid.Nil, uuid.New(), 1, "Case closed."))
	p.HandleUtterance(transport.SubjectUtterance,
		utteranceEvent(t, uuid.New(), uuid.Nil, 1, "Case closed."))

	if store.count() != 0 {
		t.Errorf("persisted %d occurrences for invalid events, want 0", store.count())
	}
	if reg.ActiveCount() != 0 {
		t.Errorf("invalid events created %d sessions, want 0", reg.ActiveCount())
	}
}

func TestPersistOccurrence_RetriesThenSucceeds(t *testing.T) {
	store := newFakeStore()
	store.failures = 2
	pub := &fakePublisher{}
	p, _ := newTestPipeline(t, store, pub, nil, RetryConfig{Attempts: 3, Backoff: time.Millisecond})

	p.HandleUtterance(transport.SubjectUtterance,
		utteranceEvent(t, uuid.New(), uuid.New(), 1, "Case closed."))

	if store.count() == 0 {
		t.Error("occurrence not persisted after transient failures")
	}
	if failed := pub.bySubject(transport.SubjectOccurrenceFailed); len(failed) != 0 {
		t.Errorf("escalation published despite eventual success: %d", len(failed))
	}
}

func TestPersistOccurrence_ExhaustionEscalates(t *testing.T) {
	store := newFakeStore()
	store.failures = 100
	pub := &fakePublisher{}
	p, _ := newTestPipeline(t, store, pub, nil, RetryConfig{Attempts: 2, Backoff: time.Millisecond})

	p.HandleUtterance(transport.SubjectUtterance,
		utteranceEvent(t, uuid.New(), uuid.New(), 1, "Case closed."))

	if failed := pub.bySubject(transport.SubjectOccurrenceFailed); len(failed) == 0 {
		t.Error("no operator escalation after retry exhaustion")
	}
}

func TestHandleSessionEnded_TriggersReconcileOnce(t *testing.T) {
	store := newFakeStore()
	rec := &fakeReconciler{done: make(chan *session.Aggregator, 2)}
	p, reg := newTestPipeline(t, store, nil, rec, DefaultRetryConfig())

	sid := uuid.New()
	reg.Activate(sid, "topic", "for")

	end := marshal(t, SessionEndedEvent{SessionID: sid, EndedAt: time.Now()})
	p.HandleSessionEnded(transport.SubjectSessionEnded, end)

	select {
	case agg := <-rec.done:
		if agg.SessionID() != sid {
			t.Errorf("reconciled session %s, want %s", agg.SessionID(), sid)
		}
	case <-time.After(time.Second):
		t.Fatal("reconcile not triggered")
	}

	// Duplicate end must not reconcile again.
	p.HandleSessionEnded(transport.SubjectSessionEnded, end)
	select {
	case <-rec.done:
		t.Error("duplicate end triggered a second reconcile")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHandleSessionAborted_NoReconcile(t *testing.T) {
	store := newFakeStore()
	rec := &fakeReconciler{done: make(chan *session.Aggregator, 1)}
	p, reg := newTestPipeline(t, store, nil, rec, DefaultRetryConfig())

	sid := uuid.New()
	reg.Activate(sid, "", "")
	p.HandleSessionAborted(transport.SubjectSessionAborted,
		marshal(t, SessionAbortedEvent{SessionID: sid}))

	select {
	case <-rec.done:
		t.Error("abort triggered reconciliation")
	case <-time.After(50 * time.Millisecond):
	}
	if reg.ActiveCount() != 0 {
		t.Errorf("aborted session still active")
	}
}

func TestHandleSessionStarted(t *testing.T) {
	store := newFakeStore()
	p, reg := newTestPipeline(t, store, nil, nil, DefaultRetryConfig())

	sid := uuid.New()
	evt := marshal(t, SessionStartedEvent{SessionID: sid, Topic: "carbon tax", Position: "for", StartedAt: time.Now()})
	p.HandleSessionStarted(transport.SubjectSessionStarted, evt)
	p.HandleSessionStarted(transport.SubjectSessionStarted, evt) // duplicate start

	if reg.ActiveCount() != 1 {
		t.Errorf("active sessions = %d, want 1", reg.ActiveCount())
	}
	agg, ok := reg.Get(sid)
	if !ok {
		t.Fatal("session not registered")
	}
	if agg.Topic() != "carbon tax" || agg.Position() != "for" {
		t.Errorf("topic/position = %q/%q", agg.Topic(), agg.Position())
	}
}
