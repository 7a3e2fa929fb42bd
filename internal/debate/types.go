// Package debate defines the core domain types shared across the Rostrum
// pipeline: utterances, the technique catalog, detected occurrences, and the
// final reconciled analysis report.
package debate

import (
	"time"

	"github.com/google/uuid"
)

// Speaker identifies which side of the debate produced an utterance.
type Speaker string

const (
	SpeakerUser        Speaker = "user"
	SpeakerCounterpart Speaker = "counterpart"
)

// Technique is one of the fixed catalog of rhetorical moves Rostrum scores.
// The catalog is versioned as a whole; individual values never change meaning.
type Technique string

const (
	TechniqueConcessionPivot       Technique = "concession-pivot"
	TechniqueReceipts              Technique = "receipts"
	TechniqueZinger                Technique = "zinger"
	TechniqueReframing             Technique = "reframing"
	TechniquePreemption            Technique = "preemption"
	TechniqueProvocativeQuestion   Technique = "provocative-question"
	TechniquePersonalStory         Technique = "personal-story"
	TechniqueRuleOfThree           Technique = "rule-of-three"
	TechniquePeroration            Technique = "peroration"
	TechniqueGishGallop            Technique = "gish-gallop"
	TechniqueStrategicInterruption Technique = "strategic-interruption"
	TechniqueAudienceAdaptation    Technique = "audience-adaptation" // reserved
)

// Catalog returns the full technique catalog in canonical order.
func Catalog() []Technique {
	return []Technique{
		TechniqueConcessionPivot,
		TechniqueReceipts,
		TechniqueZinger,
		TechniqueReframing,
		TechniquePreemption,
		TechniqueProvocativeQuestion,
		TechniquePersonalStory,
		TechniqueRuleOfThree,
		TechniquePeroration,
		TechniqueGishGallop,
		TechniqueStrategicInterruption,
		TechniqueAudienceAdaptation,
	}
}

// Utterance is one timestamped, speaker-attributed unit of spoken debate
// text as delivered by the realtime transport. Immutable. SequenceNumber is
// monotonic per speaker channel but may arrive out of strict time order.
type Utterance struct {
	SessionID      uuid.UUID `json:"session_id"`
	UtteranceID    uuid.UUID `json:"utterance_id"`
	Speaker        Speaker   `json:"speaker"`
	Text           string    `json:"text"`
	SequenceNumber int64     `json:"sequence"`
	OccurredAt     time.Time `json:"occurred_at"`
}

// OccurrenceKey is the dedup key for a technique occurrence. At most one
// occurrence may exist per key, which is what makes at-least-once delivery
// of the same utterance safe.
type OccurrenceKey struct {
	SessionID   uuid.UUID
	UtteranceID uuid.UUID
	Technique   Technique
}

// TechniqueOccurrence records a detected instance of a technique in a
// specific utterance. Immutable once created; never updated.
type TechniqueOccurrence struct {
	SessionID      uuid.UUID `json:"session_id"`
	UtteranceID    uuid.UUID `json:"utterance_id"`
	Technique      Technique `json:"technique"`
	Speaker        Speaker   `json:"speaker"`
	Effectiveness  int       `json:"effectiveness"` // always in [1,10]
	Snippet        string    `json:"snippet"`
	ContextNote    string    `json:"context_note,omitempty"`
	SequenceNumber int64     `json:"sequence"`
}

// Key returns the occurrence's dedup key.
func (o TechniqueOccurrence) Key() OccurrenceKey {
	return OccurrenceKey{SessionID: o.SessionID, UtteranceID: o.UtteranceID, Technique: o.Technique}
}

// ReportStatus distinguishes a fully reconciled report from one persisted
// without its qualitative half after exhausting coach retries.
type ReportStatus string

const (
	ReportComplete          ReportStatus = "complete"
	ReportPendingEnrichment ReportStatus = "pending_enrichment"
)

// Winner values for an analysis report.
const (
	WinnerUser        = "user"
	WinnerCounterpart = "counterpart"
	WinnerDraw        = "draw"
)
