package pattern

import (
	"strings"
	"testing"
)

func TestLoadReader_MergesOverDefaults(t *testing.T) {
	in := `
zinger_punchlines:
  - "boom"
  - "mic drop"
`
	lib, err := LoadReader(strings.NewReader(in))
	if err != nil {
		t.Fatalf("LoadReader: %v", err)
	}
	if len(lib.ZingerPunchlines) != 2 || lib.ZingerPunchlines[0] != "boom" {
		t.Errorf("override not applied: %v", lib.ZingerPunchlines)
	}
	// Absent groups keep defaults.
	def := Default()
	if len(lib.CitationPhrases) != len(def.CitationPhrases) {
		t.Errorf("citation phrases lost on merge: got %d, want %d",
			len(lib.CitationPhrases), len(def.CitationPhrases))
	}
	if len(lib.OrdinalTriad) != 3 {
		t.Errorf("ordinal triad lost on merge: %v", lib.OrdinalTriad)
	}
}

func TestLoadReader_RejectsUnknownKeys(t *testing.T) {
	in := `
zinger_punchines:
  - "typo in the key"
`
	if _, err := LoadReader(strings.NewReader(in)); err == nil {
		t.Fatal("expected error for unknown key, got nil")
	}
}

func TestDefault_AllGroupsPopulated(t *testing.T) {
	lib := Default()
	groups := map[string][]string{
		"concession_acknowledgments": lib.ConcessionAcknowledgments,
		"concession_pivots":          lib.ConcessionPivots,
		"citation_phrases":           lib.CitationPhrases,
		"authorities":                lib.Authorities,
		"zinger_punchlines":          lib.ZingerPunchlines,
		"zinger_contrasts":           lib.ZingerContrasts,
		"reframe_phrases":            lib.ReframePhrases,
		"reframe_contrasts":          lib.ReframeContrasts,
		"preemption_phrases":         lib.PreemptionPhrases,
		"preemption_rebuttals":       lib.PreemptionRebuttals,
		"question_challenges":        lib.QuestionChallenges,
		"question_intensifiers":      lib.QuestionIntensifiers,
		"story_openers":              lib.StoryOpeners,
		"story_time_markers":         lib.StoryTimeMarkers,
		"ordinal_triad":              lib.OrdinalTriad,
		"peroration_climaxes":        lib.PerorationClimaxes,
		"peroration_appeals":         lib.PerorationAppeals,
		"peroration_calls":           lib.PerorationCalls,
		"gallop_connectives":         lib.GallopConnectives,
		"interruption_markers":       lib.InterruptionMarkers,
	}
	for name, phrases := range groups {
		if len(phrases) == 0 {
			t.Errorf("default group %s is empty", name)
		}
	}
}
