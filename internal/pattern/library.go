// Package pattern holds the declarative signal tables the technique
// detectors match against. The library is pure data: phrase lists grouped by
// the signal they indicate, loaded once at startup and injected into the
// detectors as an immutable value.
package pattern

// Library is the full signal table. Each field is one signal group's
// alternative matchers; a group fires when any of its phrases appears in the
// utterance (case-insensitive substring match).
type Library struct {
	// Concession-pivot: acknowledgment followed by redirection.
	ConcessionAcknowledgments []string `yaml:"concession_acknowledgments"`
	ConcessionPivots          []string `yaml:"concession_pivots"`

	// Receipts: citation phrasing plus a closed allow-list of recognizable
	// institutional sources.
	CitationPhrases []string `yaml:"citation_phrases"`
	Authorities     []string `yaml:"authorities"`

	// Zinger: short punchline closers and contrast frames.
	ZingerPunchlines []string `yaml:"zinger_punchlines"`
	ZingerContrasts  []string `yaml:"zinger_contrasts"`

	// Reframing: shifting what the exchange is "really" about.
	ReframePhrases   []string `yaml:"reframe_phrases"`
	ReframeContrasts []string `yaml:"reframe_contrasts"`

	// Preemption: naming the objection before the opponent can.
	PreemptionPhrases   []string `yaml:"preemption_phrases"`
	PreemptionRebuttals []string `yaml:"preemption_rebuttals"`

	// Provocative question: challenge frames and intensifiers. The "?"
	// requirement itself lives in the detector, not the data.
	QuestionChallenges   []string `yaml:"question_challenges"`
	QuestionIntensifiers []string `yaml:"question_intensifiers"`

	// Personal story: first-person narrative openers and time anchors.
	StoryOpeners     []string `yaml:"story_openers"`
	StoryTimeMarkers []string `yaml:"story_time_markers"`

	// Rule of three: ordinal words that must all appear to form a triad.
	OrdinalTriad []string `yaml:"ordinal_triad"`

	// Peroration: closing-appeal language.
	PerorationClimaxes []string `yaml:"peroration_climaxes"`
	PerorationAppeals  []string `yaml:"peroration_appeals"`
	PerorationCalls    []string `yaml:"peroration_calls"`

	// Gish gallop: addition connectives counted cumulatively.
	GallopConnectives []string `yaml:"gallop_connectives"`

	// Strategic interruption: floor-taking markers.
	InterruptionMarkers []string `yaml:"interruption_markers"`
}

// Default returns the built-in signal table. Callers treat the result as
// read-only; mutating it after injection is a bug.
func Default() *Library {
	return &Library{
		ConcessionAcknowledgments: []string{
			"you're right", "you are right", "that's fair", "that's a fair point",
			"fair point", "good point", "i agree", "i'll grant", "granted",
			"i concede", "you make a good point", "that's true", "true enough",
		},
		ConcessionPivots: []string{
			"but ", "however", "that said", "the real issue", "the real question",
			"what really matters", "here's the thing", "and yet", "even so",
			"the bigger problem",
		},
		CitationPhrases: []string{
			"according to", "studies show", "a study", "the study", "research shows",
			"research found", "data shows", "the data", "statistics show",
			"a report", "the report found", "a survey", "polling shows",
			"the evidence shows",
		},
		Authorities: []string{
			"cbo", "congressional budget office", "who", "world health organization",
			"cdc", "fbi", "imf", "world bank", "census bureau", "federal reserve",
			"bureau of labor statistics", "bls", "oecd", "united nations",
			"harvard", "stanford", "mit", "oxford", "pew", "gallup", "reuters",
			"the lancet", "nature", "new england journal",
		},
		ZingerPunchlines: []string{
			"case closed", "enough said", "end of story", "full stop", "period.",
			"that's the difference", "and that says it all", "simple as that",
			"that's all you need to know", "i rest my case",
		},
		ZingerContrasts: []string{
			"the difference between", "that's the gap between", "one of us",
		},
		ReframePhrases: []string{
			"the real question", "the real issue", "what this is really about",
			"let's step back", "look at it another way", "the bigger picture",
			"that's the wrong question", "this isn't about", "reframe",
			"let's zoom out", "what's actually at stake",
		},
		ReframeContrasts: []string{
			"not about", "isn't about", "less about",
		},
		PreemptionPhrases: []string{
			"you might say", "you'll say", "some will argue", "some would argue",
			"critics claim", "critics will say", "i know what you're thinking",
			"before you say", "the obvious objection", "you'll probably respond",
			"people will object", "the usual response",
		},
		PreemptionRebuttals: []string{
			"but ", "however", "and yet", "except", "the problem with that",
		},
		QuestionChallenges: []string{
			"how can you", "how do you", "why should we", "why would anyone",
			"what would happen if", "do you really", "are you seriously",
			"isn't it true", "are we supposed to", "who benefits", "at what cost",
			"can you honestly",
		},
		QuestionIntensifiers: []string{
			"really", "honestly", "seriously", "actually",
		},
		StoryOpeners: []string{
			"i remember", "when i was", "i once", "i grew up", "i met",
			"i saw firsthand", "my mother", "my father", "my family",
			"my grandmother", "my grandfather", "a friend of mine", "i'll never forget",
			"let me tell you about",
		},
		StoryTimeMarkers: []string{
			"years ago", "last year", "last month", "back in", "one day",
			"at the time", "growing up",
		},
		OrdinalTriad: []string{"first", "second", "third"},
		PerorationClimaxes: []string{
			"in the end", "at the end of the day", "when all is said and done",
			"let us", "i ask you", "the choice is clear", "the choice before us",
			"history will judge", "future generations", "this is our moment",
			"stand together",
		},
		PerorationAppeals: []string{
			"justice", "freedom", "dignity", "our children", "the future",
			"together", "believe", "hope", "courage", "conscience",
		},
		PerorationCalls: []string{
			"we must", "we have to", "it's time to", "join", "choose", "act now",
		},
		GallopConnectives: []string{
			"also", "furthermore", "moreover", "in addition", "not to mention",
			"on top of that", "what's more", "additionally", "and another thing",
			"plus,", "beyond that", "let alone",
		},
		InterruptionMarkers: []string{
			"hold on", "wait a minute", "wait,", "let me stop you", "no, no",
			"excuse me", "if i can jump in", "let me finish", "that's not true",
			"i have to push back", "stop right there",
		},
	}
}
