package detect

import (
	"strings"
	"unicode/utf8"

	"github.com/MikeSquared-Agency/rostrum/internal/debate"
	"github.com/MikeSquared-Agency/rostrum/internal/pattern"
)

// snippetLimit caps the stored excerpt of the source utterance.
const snippetLimit = 160

// Dispatcher routes an utterance through the full detector set and
// materializes occurrences for every technique whose score crossed the
// threshold. Detectors are pure functions of utterance content alone, so the
// dispatcher is stateless and safe to share across sessions.
type Dispatcher struct {
	lib       *pattern.Library
	detectors []Detector
}

// NewDispatcher builds a dispatcher over the given pattern library.
func NewDispatcher(lib *pattern.Library) *Dispatcher {
	return &Dispatcher{lib: lib, detectors: All()}
}

// Dispatch runs all detectors on one utterance. A detector result becomes an
// occurrence only when at least one signal fired (score above baseline);
// baseline results are non-events, not stored. The returned slice is in
// catalog order and may be empty.
func (d *Dispatcher) Dispatch(u debate.Utterance) []debate.TechniqueOccurrence {
	var out []debate.TechniqueOccurrence
	snippet := truncate(u.Text, snippetLimit)
	for _, det := range d.detectors {
		score := det.Score(d.lib, u.Text)
		if score <= Baseline {
			continue
		}
		out = append(out, debate.TechniqueOccurrence{
			SessionID:      u.SessionID,
			UtteranceID:    u.UtteranceID,
			Technique:      det.Technique,
			Speaker:        u.Speaker,
			Effectiveness:  score,
			Snippet:        snippet,
			SequenceNumber: u.SequenceNumber,
		})
	}
	return out
}

func truncate(s string, limit int) string {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit-1]) + "…"
}
