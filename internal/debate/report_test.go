package debate

import "testing"

func TestQualitativeReport_Normalize(t *testing.T) {
	tests := []struct {
		name string
		in   CategoryScores
		want CategoryScores
	}{
		{
			name: "in range untouched",
			in:   CategoryScores{Fundamentals: 7, TricksOfTrade: 5, BehindTheScenes: 3, GrandFinale: 9},
			want: CategoryScores{Fundamentals: 7, TricksOfTrade: 5, BehindTheScenes: 3, GrandFinale: 9, Total: 24},
		},
		{
			name: "overshoot clamped to ten",
			in:   CategoryScores{Fundamentals: 15, TricksOfTrade: 10, BehindTheScenes: 11, GrandFinale: 8, Total: 99},
			want: CategoryScores{Fundamentals: 10, TricksOfTrade: 10, BehindTheScenes: 10, GrandFinale: 8, Total: 38},
		},
		{
			name: "negative clamped to zero",
			in:   CategoryScores{Fundamentals: -3, TricksOfTrade: 4, BehindTheScenes: 0, GrandFinale: -1},
			want: CategoryScores{Fundamentals: 0, TricksOfTrade: 4, BehindTheScenes: 0, GrandFinale: 0, Total: 4},
		},
		{
			name: "stale total recomputed",
			in:   CategoryScores{Fundamentals: 5, TricksOfTrade: 5, BehindTheScenes: 5, GrandFinale: 5, Total: 0},
			want: CategoryScores{Fundamentals: 5, TricksOfTrade: 5, BehindTheScenes: 5, GrandFinale: 5, Total: 20},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rep := QualitativeReport{Scores: tt.in}
			rep.Normalize()
			if rep.Scores != tt.want {
				t.Errorf("Normalize scores = %+v, want %+v", rep.Scores, tt.want)
			}
		})
	}
}

func TestQualitativeReport_NormalizeExecutionScores(t *testing.T) {
	rep := QualitativeReport{
		Scorecard: []CategoryScorecard{
			{Category: "fundamentals", Execution: 0},
			{Category: "tricks", Execution: 3},
			{Category: "finale", Execution: 9},
		},
	}
	rep.Normalize()
	for i, want := range []int{1, 3, 5} {
		if got := rep.Scorecard[i].Execution; got != want {
			t.Errorf("scorecard[%d].Execution = %d, want %d", i, got, want)
		}
	}
}
