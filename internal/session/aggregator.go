// Package session owns per-session accumulation of technique occurrences and
// the live-session registry with its Idle → Active → Ended state machine.
package session

import (
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/rostrum/internal/debate"
)

// Tally is a running count and score sum for one technique or speaker.
type Tally struct {
	Count    int `json:"count"`
	ScoreSum int `json:"score_sum"`
}

// Summary is a point-in-time read of the aggregator's counters.
type Summary struct {
	SessionID   uuid.UUID                  `json:"session_id"`
	Occurrences int                        `json:"occurrences"`
	ByTechnique map[debate.Technique]Tally `json:"by_technique"`
	BySpeaker   map[debate.Speaker]Tally   `json:"by_speaker"`
}

// Aggregator accumulates one session's occurrences. The ingestion pipeline
// is the only writer; readers (live view, reconciler) only ever observe a
// monotonically growing set — occurrences are never deleted or edited, so an
// append-only log with derived counters is safe for concurrent reads.
type Aggregator struct {
	mu sync.RWMutex

	sessionID uuid.UUID
	topic     string
	position  string

	occurrences []debate.TechniqueOccurrence
	seen        map[debate.OccurrenceKey]struct{}
	byTechnique map[debate.Technique]Tally
	bySpeaker   map[debate.Speaker]Tally

	transcript []debate.Utterance
	seenUtt    map[uuid.UUID]struct{}
}

// NewAggregator creates an empty aggregator for one session.
func NewAggregator(sessionID uuid.UUID, topic, position string) *Aggregator {
	return &Aggregator{
		sessionID:   sessionID,
		topic:       topic,
		position:    position,
		seen:        make(map[debate.OccurrenceKey]struct{}),
		byTechnique: make(map[debate.Technique]Tally),
		bySpeaker:   make(map[debate.Speaker]Tally),
		seenUtt:     make(map[uuid.UUID]struct{}),
	}
}

// SessionID returns the session this aggregator belongs to.
func (a *Aggregator) SessionID() uuid.UUID { return a.sessionID }

// Topic returns the debate topic given at session start, if any.
func (a *Aggregator) Topic() string { return a.topic }

// Position returns the user's side of the motion, if any.
func (a *Aggregator) Position() string { return a.position }

// AddUtterance retains an utterance for the final transcript. Returns false
// if this utterance ID was already recorded (duplicate delivery).
func (a *Aggregator) AddUtterance(u debate.Utterance) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, dup := a.seenUtt[u.UtteranceID]; dup {
		return false
	}
	a.seenUtt[u.UtteranceID] = struct{}{}
	a.transcript = append(a.transcript, u)
	return true
}

// Add appends an occurrence unless its dedup key is already present.
// Returns whether the occurrence was new.
func (a *Aggregator) Add(o debate.TechniqueOccurrence) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	key := o.Key()
	if _, dup := a.seen[key]; dup {
		return false
	}
	a.seen[key] = struct{}{}
	a.occurrences = append(a.occurrences, o)

	t := a.byTechnique[o.Technique]
	t.Count++
	t.ScoreSum += o.Effectiveness
	a.byTechnique[o.Technique] = t

	s := a.bySpeaker[o.Speaker]
	s.Count++
	s.ScoreSum += o.Effectiveness
	a.bySpeaker[o.Speaker] = s
	return true
}

// Occurrences returns a copy of the occurrence set in canonical order:
// sequence number first, technique as tie-break. Sequence numbers, not
// arrival order, define canonical order so that out-of-order delivery yields
// an identical final set.
func (a *Aggregator) Occurrences() []debate.TechniqueOccurrence {
	a.mu.RLock()
	out := make([]debate.TechniqueOccurrence, len(a.occurrences))
	copy(out, a.occurrences)
	a.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].SequenceNumber != out[j].SequenceNumber {
			return out[i].SequenceNumber < out[j].SequenceNumber
		}
		if out[i].Speaker != out[j].Speaker {
			return out[i].Speaker < out[j].Speaker
		}
		return out[i].Technique < out[j].Technique
	})
	return out
}

// Transcript returns a copy of the retained utterances in canonical order.
func (a *Aggregator) Transcript() []debate.Utterance {
	a.mu.RLock()
	out := make([]debate.Utterance, len(a.transcript))
	copy(out, a.transcript)
	a.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].SequenceNumber != out[j].SequenceNumber {
			return out[i].SequenceNumber < out[j].SequenceNumber
		}
		if !out[i].OccurredAt.Equal(out[j].OccurredAt) {
			return out[i].OccurredAt.Before(out[j].OccurredAt)
		}
		return out[i].Speaker < out[j].Speaker
	})
	return out
}

// Summarize returns the current per-technique and per-speaker tallies.
func (a *Aggregator) Summarize() Summary {
	a.mu.RLock()
	defer a.mu.RUnlock()

	sum := Summary{
		SessionID:   a.sessionID,
		Occurrences: len(a.occurrences),
		ByTechnique: make(map[debate.Technique]Tally, len(a.byTechnique)),
		BySpeaker:   make(map[debate.Speaker]Tally, len(a.bySpeaker)),
	}
	for k, v := range a.byTechnique {
		sum.ByTechnique[k] = v
	}
	for k, v := range a.bySpeaker {
		sum.BySpeaker[k] = v
	}
	return sum
}

// SpeakerScore returns the effectiveness sum for one speaker.
func (a *Aggregator) SpeakerScore(sp debate.Speaker) int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.bySpeaker[sp].ScoreSum
}
