package debate

import (
	"time"

	"github.com/google/uuid"
)

// QualitativeReport is the structured payload returned by the external
// reasoning collaborator. Rostrum treats the narrative fields as opaque and
// only enforces the numeric bounds at the boundary.
type QualitativeReport struct {
	ExecutiveSummary    string              `json:"executive_summary"`
	Scorecard           []CategoryScorecard `json:"scorecard"`
	Moments             []MomentAnalysis    `json:"moments"`
	OpponentAnalysis    string              `json:"opponent_analysis"`
	MissedOpportunities []string            `json:"missed_opportunities"`
	Rewrites            []Rewrite           `json:"rewrites"`
	Scores              CategoryScores      `json:"scores"`
}

// CategoryScorecard grades one technique category of the debate.
type CategoryScorecard struct {
	Category   string   `json:"category"`
	Techniques []string `json:"techniques_identified"`
	Execution  int      `json:"execution_score"` // 1-5
	Notes      string   `json:"notes"`
}

// MomentAnalysis highlights a single notable exchange.
type MomentAnalysis struct {
	Quote     string `json:"quote"`
	Technique string `json:"technique"`
	Impact    string `json:"impact"`
}

// Rewrite suggests a stronger phrasing for a weak moment.
type Rewrite struct {
	Original string `json:"original"`
	Improved string `json:"improved"`
	Why      string `json:"why"`
}

// CategoryScores holds the four numeric category scores (each 0-10) and
// their sum (0-40).
type CategoryScores struct {
	Fundamentals    int `json:"fundamentals"`
	TricksOfTrade   int `json:"tricks_of_trade"`
	BehindTheScenes int `json:"behind_the_scenes"`
	GrandFinale     int `json:"grand_finale"`
	Total           int `json:"total"`
}

// Normalize clamps each category score into [0,10], clamps each scorecard
// execution score into [1,5], and recomputes the total from the clamped
// categories. The collaborator is external, so out-of-range values are
// corrected rather than trusted.
func (r *QualitativeReport) Normalize() {
	r.Scores.Fundamentals = clampInt(r.Scores.Fundamentals, 0, 10)
	r.Scores.TricksOfTrade = clampInt(r.Scores.TricksOfTrade, 0, 10)
	r.Scores.BehindTheScenes = clampInt(r.Scores.BehindTheScenes, 0, 10)
	r.Scores.GrandFinale = clampInt(r.Scores.GrandFinale, 0, 10)
	r.Scores.Total = r.Scores.Fundamentals + r.Scores.TricksOfTrade +
		r.Scores.BehindTheScenes + r.Scores.GrandFinale
	for i := range r.Scorecard {
		r.Scorecard[i].Execution = clampInt(r.Scorecard[i].Execution, 1, 5)
	}
}

// AnalysisReport is the reconciled, final, immutable record for one session.
// Created exactly once per session; a pending_enrichment report may be
// upgraded once to a complete one, never the reverse.
type AnalysisReport struct {
	SessionID   uuid.UUID             `json:"session_id"`
	Occurrences []TechniqueOccurrence `json:"occurrences"`
	Qualitative *QualitativeReport    `json:"qualitative,omitempty"` // nil while pending enrichment
	Winner      string                `json:"winner"`
	Status      ReportStatus          `json:"status"`
	CreatedAt   time.Time             `json:"created_at"`
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
