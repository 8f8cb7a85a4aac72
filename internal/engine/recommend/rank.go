package recommend

import (
	"math"
	"sort"

	"github.com/rendis/locallink/internal/model"
)

// MaxResults bounds every ranked list.
const MaxResults = 6

// Basis describes which rule set produced a ranked list.
type Basis string

const (
	BasisNoData      Basis = "no-data"
	BasisTopRated    Basis = "fallback-top-rated"
	BasisReviews     Basis = "review-based"
	BasisColdStart   Basis = "cold-start"
	BasisPreferences Basis = "preference-based"
)

// Recommendation is one scored business.
type Recommendation struct {
	Business   model.Business `json:"business"`
	Score      int            `json:"score"`
	Reason     string         `json:"reason"`
	Snippet    string         `json:"snippet,omitempty"`
	MostRecent string         `json:"most_recent,omitempty"` // YYYY-MM-DD
}

// RankedList is the scorer output: at most MaxResults entries, best first.
type RankedList struct {
	Strategy Strategy         `json:"strategy"`
	Basis    Basis            `json:"basis"`
	Items    []Recommendation `json:"items"`
}

// roundHalfUp rounds .5 upward (72.5 -> 73, 73.5 -> 74).
func roundHalfUp(x float64) float64 {
	return math.Floor(x + 0.5)
}

// clampScore rounds a raw score and clamps it to [0, 100].
func clampScore(raw float64) int {
	r := roundHalfUp(raw)
	switch {
	case math.IsNaN(r), r < 0:
		return 0
	case r > 100:
		return 100
	}
	return int(r)
}

// rankTop stable-sorts by score descending and keeps the first MaxResults.
func rankTop(items []Recommendation) []Recommendation {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Score > items[j].Score
	})
	if len(items) > MaxResults {
		items = items[:MaxResults]
	}
	return items
}

// topRated ranks businesses by their own star rating. When fixedScore is
// negative the score is derived from the rating, otherwise every entry gets
// fixedScore.
func topRated(businesses []model.Business, fixedScore int) []Recommendation {
	sorted := make([]model.Business, len(businesses))
	copy(sorted, businesses)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].RatingValue() > sorted[j].RatingValue()
	})
	if len(sorted) > MaxResults {
		sorted = sorted[:MaxResults]
	}

	out := make([]Recommendation, 0, len(sorted))
	for _, b := range sorted {
		score := fixedScore
		if score < 0 {
			score = clampScore(b.RatingValue() / 5 * 100)
		}
		out = append(out, Recommendation{
			Business: b,
			Score:    score,
			Reason:   "Top-rated (" + b.RatingLabel() + "★)",
		})
	}
	return out
}
