package session

import (
	"errors"
	"sync"

	"github.com/google/uuid"
)

// State is the lifecycle state of a session in the registry. Sessions the
// registry has never seen are implicitly Idle.
type State int

const (
	StateActive State = iota + 1
	StateEnded
	StateAborted
)

var (
	// ErrSessionEnded is returned when an utterance or transition targets a
	// session already in a terminal state. Session semantics forbid
	// retroactive mutation of a finalized accumulator.
	ErrSessionEnded = errors.New("session already ended")

	// ErrSessionNotFound is returned when ending a session the registry has
	// never activated.
	ErrSessionNotFound = errors.New("session not found")
)

type entry struct {
	agg   *Aggregator
	state State
}

// Registry tracks live sessions. Sessions are fully independent of each
// other; the registry lock is held only for map access, never during
// detection or persistence.
type Registry struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*entry
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[uuid.UUID]*entry)}
}

// Activate transitions a session to Active on an explicit start signal.
// Activating an already-active session is a no-op returning the existing
// aggregator, which absorbs duplicate start events from at-least-once
// delivery.
func (r *Registry) Activate(sessionID uuid.UUID, topic, position string) (agg *Aggregator, created bool, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if e, ok := r.sessions[sessionID]; ok {
		if e.state != StateActive {
			return nil, false, ErrSessionEnded
		}
		return e.agg, false, nil
	}
	agg = NewAggregator(sessionID, topic, position)
	r.sessions[sessionID] = &entry{agg: agg, state: StateActive}
	return agg, true, nil
}

// ForUtterance returns the aggregator an utterance should land in, creating
// an Active session if the first utterance arrives before the explicit start
// signal. Returns ErrSessionEnded for sessions in a terminal state.
func (r *Registry) ForUtterance(sessionID uuid.UUID) (agg *Aggregator, created bool, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if e, ok := r.sessions[sessionID]; ok {
		if e.state != StateActive {
			return nil, false, ErrSessionEnded
		}
		return e.agg, false, nil
	}
	agg = NewAggregator(sessionID, "", "")
	r.sessions[sessionID] = &entry{agg: agg, state: StateActive}
	return agg, true, nil
}

// End transitions Active → Ended and returns the finalized aggregator for
// reconciliation. Ending twice returns ErrSessionEnded; ending an unknown
// session returns ErrSessionNotFound.
func (r *Registry) End(sessionID uuid.UUID) (*Aggregator, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	if e.state != StateActive {
		return nil, ErrSessionEnded
	}
	e.state = StateEnded
	return e.agg, nil
}

// Abort tears down a session that is discarded before ending. No analysis
// report is ever created for aborted sessions; the state is kept so late
// utterances are rejected rather than resurrecting the session.
func (r *Registry) Abort(sessionID uuid.UUID) (wasActive bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.sessions[sessionID]
	if !ok {
		r.sessions[sessionID] = &entry{state: StateAborted}
		return false
	}
	if e.state == StateActive {
		e.state = StateAborted
		e.agg = nil
		return true
	}
	return false
}

// Get returns the aggregator for a session if it is known and still has one.
func (r *Registry) Get(sessionID uuid.UUID) (*Aggregator, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sessions[sessionID]
	if !ok || e.agg == nil {
		return nil, false
	}
	return e.agg, true
}

// StateOf reports a session's state. Unknown sessions report Idle via ok=false.
func (r *Registry) StateOf(sessionID uuid.UUID) (State, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sessions[sessionID]
	if !ok {
		return 0, false
	}
	return e.state, true
}

// ActiveCount returns the number of sessions currently Active.
func (r *Registry) ActiveCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.sessions {
		if e.state == StateActive {
			n++
		}
	}
	return n
}
