package session

import (
	"reflect"
	"testing"

	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/rostrum/internal/debate"
)

func occ(sessionID, uttID uuid.UUID, tech debate.Technique, sp debate.Speaker, seq int64, score int) debate.TechniqueOccurrence {
	return debate.TechniqueOccurrence{
		SessionID:      sessionID,
		UtteranceID:    uttID,
		Technique:      tech,
		Speaker:        sp,
		Effectiveness:  score,
		SequenceNumber: seq,
	}
}

func TestAggregator_AddDeduplicates(t *testing.T) {
	sid, uid := uuid.New(), uuid.New()
	a := NewAggregator(sid, "carbon tax", "for")

	o := occ(sid, uid, debate.TechniqueReceipts, debate.SpeakerUser, 1, 8)
	if !a.Add(o) {
		t.Fatal("first Add returned false")
	}
	if a.Add(o) {
		t.Error("duplicate Add returned true")
	}
	// Same utterance, different technique is a distinct occurrence.
	if !a.Add(occ(sid, uid, debate.TechniqueZinger, debate.SpeakerUser, 1, 5)) {
		t.Error("distinct technique on same utterance rejected")
	}

	sum := a.Summarize()
	if sum.Occurrences != 2 {
		t.Errorf("occurrences = %d, want 2", sum.Occurrences)
	}
	if got := sum.ByTechnique[debate.TechniqueReceipts]; got.Count != 1 || got.ScoreSum != 8 {
		t.Errorf("receipts tally = %+v, want {1 8}", got)
	}
	if got := sum.BySpeaker[debate.SpeakerUser]; got.Count != 2 || got.ScoreSum != 13 {
		t.Errorf("user tally = %+v, want {2 13}", got)
	}
}

func TestAggregator_OutOfOrderDeliveryConverges(t *testing.T) {
	sid := uuid.New()
	ids := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}
	occs := []debate.TechniqueOccurrence{
		occ(sid, ids[0], debate.TechniqueZinger, debate.SpeakerUser, 1, 6),
		occ(sid, ids[1], debate.TechniqueReceipts, debate.SpeakerCounterpart, 2, 9),
		occ(sid, ids[2], debate.TechniqueReframing, debate.SpeakerUser, 3, 5),
	}

	inOrder := NewAggregator(sid, "", "")
	for _, o := range occs {
		inOrder.Add(o)
	}

	scrambled := NewAggregator(sid, "", "")
	scrambled.Add(occs[2])
	scrambled.Add(occs[0])
	scrambled.Add(occs[1])
	scrambled.Add(occs[0]) // redelivery

	if !reflect.DeepEqual(inOrder.Occurrences(), scrambled.Occurrences()) {
		t.Errorf("occurrence sets diverge:\n in-order: %+v\nscrambled: %+v",
			inOrder.Occurrences(), scrambled.Occurrences())
	}
}

func TestAggregator_AddUtteranceDeduplicates(t *testing.T) {
	sid := uuid.New()
	a := NewAggregator(sid, "", "")
	u := debate.Utterance{
		SessionID:      sid,
		UtteranceID:    uuid.New(),
		Speaker:        debate.SpeakerUser,
		Text:           "Case closed.",
		SequenceNumber: 1,
	}
	if !a.AddUtterance(u) {
		t.Fatal("first AddUtterance returned false")
	}
	if a.AddUtterance(u) {
		t.Error("duplicate AddUtterance returned true")
	}
	if got := len(a.Transcript()); got != 1 {
		t.Errorf("transcript length = %d, want 1", got)
	}
}

func TestAggregator_TranscriptOrderedBySequence(t *testing.T) {
	sid := uuid.New()
	a := NewAggregator(sid, "", "")
	for _, seq := range []int64{3, 1, 2} {
		a.AddUtterance(debate.Utterance{
			SessionID:      sid,
			UtteranceID:    uuid.New(),
			Speaker:        debate.SpeakerUser,
			Text:           "line",
			SequenceNumber: seq,
		})
	}
	tr := a.Transcript()
	for i, want := range []int64{1, 2, 3} {
		if tr[i].SequenceNumber != want {
			t.Errorf("transcript[%d].SequenceNumber = %d, want %d", i, tr[i].SequenceNumber, want)
		}
	}
}

func TestAggregator_SpeakerScore(t *testing.T) {
	sid := uuid.New()
	a := NewAggregator(sid, "", "")
	a.Add(occ(sid, uuid.New(), debate.TechniqueZinger, debate.SpeakerUser, 1, 6))
	a.Add(occ(sid, uuid.New(), debate.TechniqueReceipts, debate.SpeakerUser, 2, 9))
	a.Add(occ(sid, uuid.New(), debate.TechniqueReframing, debate.SpeakerCounterpart, 3, 4))

	if got := a.SpeakerScore(debate.SpeakerUser); got != 15 {
		t.Errorf("user score = %d, want 15", got)
	}
	if got := a.SpeakerScore(debate.SpeakerCounterpart); got != 4 {
		t.Errorf("counterpart score = %d, want 4", got)
	}
}
