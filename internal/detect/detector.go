// Package detect implements the technique detectors and the dispatcher that
// runs them per utterance. Every detector is a pure function of the pattern
// library and the utterance text, returns an integer score in [1,10], and
// never fails: absence of signals is simply the baseline score, not an error.
package detect

import (
	"regexp"
	"strings"

	"github.com/MikeSquared-Agency/rostrum/internal/debate"
	"github.com/MikeSquared-Agency/rostrum/internal/pattern"
)

const (
	// Baseline is the score every detector starts from. A detector that
	// finds no signals returns exactly Baseline.
	Baseline = 1

	// MaxScore caps the running total after all bonuses.
	MaxScore = 10
)

// ScoreFunc scores one utterance text against one technique's signals.
type ScoreFunc func(lib *pattern.Library, text string) int

// Detector pairs a catalog technique with its scoring function.
type Detector struct {
	Technique debate.Technique
	Score     ScoreFunc
}

// All returns the full detector set in catalog order. Techniques are not
// mutually exclusive, so the dispatcher runs every detector on every
// utterance.
func All() []Detector {
	return []Detector{
		{debate.TechniqueConcessionPivot, ConcessionPivot},
		{debate.TechniqueReceipts, Receipts},
		{debate.TechniqueZinger, Zinger},
		{debate.TechniqueReframing, Reframing},
		{debate.TechniquePreemption, Preemption},
		{debate.TechniqueProvocativeQuestion, ProvocativeQuestion},
		{debate.TechniquePersonalStory, PersonalStory},
		{debate.TechniqueRuleOfThree, RuleOfThree},
		{debate.TechniquePeroration, Peroration},
		{debate.TechniqueGishGallop, GishGallop},
		{debate.TechniqueStrategicInterruption, StrategicInterruption},
		{debate.TechniqueAudienceAdaptation, AudienceAdaptation},
	}
}

// ConcessionPivot scores acknowledgment-then-redirect moves. The full move
// (both halves present) earns a combination bonus beyond the individual
// groups; execution degrades when the utterance runs long.
func ConcessionPivot(lib *pattern.Library, text string) int {
	lower, ok := normalize(text)
	if !ok {
		return Baseline
	}
	score := Baseline

	ack := containsAny(lower, lib.ConcessionAcknowledgments)
	pivot := containsAny(lower, lib.ConcessionPivots)
	if ack {
		score += 3
	}
	if pivot {
		score += 3
	}
	if ack && pivot {
		score += 2 // the full move is stronger than either half
	}
	if len(text) > 200 {
		score -= 2
	}
	return clamp(score)
}

var (
	yearRe    = regexp.MustCompile(`\b(19|20)\d{2}\b`)
	digitRe   = regexp.MustCompile(`\d`)
	percentRe = regexp.MustCompile(`\d+(\.\d+)?\s*(%|percent)`)
)

// Receipts scores evidence-backed claims: citation phrasing, numeric and
// statistical content, and a specificity bonus for named authority sources.
func Receipts(lib *pattern.Library, text string) int {
	lower, ok := normalize(text)
	if !ok {
		return Baseline
	}
	score := Baseline

	if containsAny(lower, lib.CitationPhrases) {
		score += 3
	}
	if digitRe.MatchString(lower) {
		score += 2
	}
	if yearRe.MatchString(lower) {
		score += 1
	}
	if percentRe.MatchString(lower) {
		score += 1
	}
	if containsWordAny(lower, lib.Authorities) {
		score += 2
	}
	return clamp(score)
}

// Zinger rewards brevity hard: a punchline landed in under ten words is the
// strong form, and anything past thirty words is penalized. Brevity alone is
// not a signal; the length modifier only applies once a punchline or contrast
// group fired.
func Zinger(lib *pattern.Library, text string) int {
	lower, ok := normalize(text)
	if !ok {
		return Baseline
	}
	score := Baseline

	punchline := containsAny(lower, lib.ZingerPunchlines)
	contrast := containsAny(lower, lib.ZingerContrasts)
	if punchline {
		score += 3
	}
	if contrast {
		score += 2
	}
	if punchline || contrast {
		if words := wordCount(text); words < 10 {
			score += 3
		} else if words > 30 {
			score -= 2
		}
	}
	return clamp(score)
}

// Reframing scores shifting the terms of the exchange.
func Reframing(lib *pattern.Library, text string) int {
	lower, ok := normalize(text)
	if !ok {
		return Baseline
	}
	score := Baseline

	if containsAny(lower, lib.ReframePhrases) {
		score += 4
	}
	if containsAny(lower, lib.ReframeContrasts) {
		score += 2
	}
	return clamp(score)
}

// Preemption scores naming the opponent's objection before they can raise
// it, with a small combination bonus when the rebuttal follows in the same
// breath.
func Preemption(lib *pattern.Library, text string) int {
	lower, ok := normalize(text)
	if !ok {
		return Baseline
	}
	score := Baseline

	named := containsAny(lower, lib.PreemptionPhrases)
	rebutted := containsAny(lower, lib.PreemptionRebuttals)
	if named {
		score += 4
	}
	if named && rebutted {
		score += 2
		score += 1 // objection raised and answered in one move
	}
	return clamp(score)
}

// ProvocativeQuestion has a hard floor: no "?" anywhere means score 1
// regardless of any other signal. The "?" itself is a precondition, not a
// signal; an ordinary question with no challenge framing stays at baseline.
func ProvocativeQuestion(lib *pattern.Library, text string) int {
	lower, ok := normalize(text)
	if !ok {
		return Baseline
	}
	if !strings.Contains(lower, "?") {
		return Baseline
	}
	score := Baseline

	if containsAny(lower, lib.QuestionChallenges) {
		score += 4
		if strings.Count(lower, "?") >= 2 {
			score += 2
		}
		if containsAny(lower, lib.QuestionIntensifiers) {
			score += 1
		}
	}
	return clamp(score)
}

// PersonalStory rewards first-person narrative with room to breathe:
// roughly 40-200 words is the window where a story can establish itself. The
// window is a modifier on a signaled story, not a signal of its own.
func PersonalStory(lib *pattern.Library, text string) int {
	lower, ok := normalize(text)
	if !ok {
		return Baseline
	}
	score := Baseline

	opener := containsAny(lower, lib.StoryOpeners)
	marker := containsAny(lower, lib.StoryTimeMarkers)
	if opener {
		score += 4
	}
	if marker {
		score += 1
	}
	if opener || marker {
		if words := wordCount(text); words >= 40 && words <= 200 {
			score += 2
		}
	}
	return clamp(score)
}

// triadRe matches a literal three-item list joined by comma+"and".
var triadRe = regexp.MustCompile(`([^,.;!?]+),\s*([^,.;!?]+),\s*and\s+([^,.;!?]+)`)

// RuleOfThree detects literal comma+"and" triads and ordinal-word triads
// independently. A parallel-structure bonus fires when the three list items
// are within two words of each other in length — stylistic parallelism, not
// just the presence of three items.
func RuleOfThree(lib *pattern.Library, text string) int {
	lower, ok := normalize(text)
	if !ok {
		return Baseline
	}
	score := Baseline

	if m := triadRe.FindStringSubmatch(lower); m != nil {
		score += 4
		a, b, c := wordCount(m[1]), wordCount(m[2]), wordCount(m[3])
		if spread(a, b, c) <= 2 {
			score += 2
		}
	}

	ordinal := len(lib.OrdinalTriad) > 0
	for _, w := range lib.OrdinalTriad {
		if !containsWord(lower, w) {
			ordinal = false
			break
		}
	}
	if ordinal {
		score += 4
	}
	return clamp(score)
}

// Peroration scores closing-appeal language: climax phrasing, a call to
// action, and at least two distinct elevated-appeal words.
func Peroration(lib *pattern.Library, text string) int {
	lower, ok := normalize(text)
	if !ok {
		return Baseline
	}
	score := Baseline

	if containsAny(lower, lib.PerorationClimaxes) {
		score += 3
	}
	if containsAny(lower, lib.PerorationCalls) {
		score += 2
	}
	appeals := 0
	for _, w := range lib.PerorationAppeals {
		if strings.Contains(lower, w) {
			appeals++
		}
	}
	if appeals >= 2 {
		score += 2
	}
	return clamp(score)
}

// GishGallop is the inverse of most techniques: it rewards sheer volume.
// Addition connectives are counted cumulatively across the whole utterance,
// and high sentence and word counts add on top.
func GishGallop(lib *pattern.Library, text string) int {
	lower, ok := normalize(text)
	if !ok {
		return Baseline
	}
	score := Baseline

	connectives := 0
	for _, c := range lib.GallopConnectives {
		connectives += strings.Count(lower, c)
	}
	if connectives > 5 {
		connectives = 5
	}
	score += connectives

	if sentenceCount(text) >= 4 {
		score += 2
	}
	words := wordCount(text)
	if words >= 80 {
		score += 2
	}
	if words >= 150 {
		score += 1
	}
	return clamp(score)
}

// StrategicInterruption scores floor-taking moves, which land harder when
// they are short.
func StrategicInterruption(lib *pattern.Library, text string) int {
	lower, ok := normalize(text)
	if !ok {
		return Baseline
	}
	score := Baseline

	if containsAny(lower, lib.InterruptionMarkers) {
		score += 4
		if wordCount(text) < 12 {
			score += 2
		}
	}
	return clamp(score)
}

// AudienceAdaptation is reserved in the catalog: text alone carries no
// audience signal, so the detector defines no groups and always returns the
// baseline. It exists so the full catalog runs uniformly.
func AudienceAdaptation(_ *pattern.Library, _ string) int {
	return Baseline
}

// --- shared helpers ---

// normalize lowercases the text and reports whether there is anything to
// score. Empty or whitespace-only text yields the baseline everywhere.
func normalize(text string) (string, bool) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return "", false
	}
	return strings.ToLower(trimmed), true
}

func containsAny(lower string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

// containsWordAny matches phrases on word boundaries. Needed for short
// authority acronyms ("who", "bls") that would otherwise match inside
// ordinary words.
func containsWordAny(lower string, phrases []string) bool {
	for _, p := range phrases {
		if containsWord(lower, p) {
			return true
		}
	}
	return false
}

func containsWord(lower, phrase string) bool {
	idx := 0
	for {
		i := strings.Index(lower[idx:], phrase)
		if i < 0 {
			return false
		}
		start := idx + i
		end := start + len(phrase)
		if (start == 0 || !isWordByte(lower[start-1])) &&
			(end == len(lower) || !isWordByte(lower[end])) {
			return true
		}
		idx = start + 1
	}
}

func isWordByte(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= '0' && b <= '9'
}

func wordCount(s string) int {
	return len(strings.Fields(s))
}

func sentenceCount(s string) int {
	n := 0
	for _, r := range s {
		if r == '.' || r == '!' || r == '?' {
			n++
		}
	}
	if n == 0 {
		return 1
	}
	return n
}

func spread(a, b, c int) int {
	min, max := a, a
	for _, v := range []int{b, c} {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	return max - min
}

func clamp(score int) int {
	if score < Baseline {
		return Baseline
	}
	if score > MaxScore {
		return MaxScore
	}
	return score
}
