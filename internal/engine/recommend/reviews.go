package recommend

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/rendis/locallink/internal/model"
)

const (
	positiveRating  = 4.0
	snippetMaxRunes = 160
	reasonSeparator = " · "
)

// reviewStats summarizes one business's reviews.
type reviewStats struct {
	total      int
	avg        float64
	positive   int
	mostRecent time.Time
	hasRecent  bool
}

func summarizeReviews(reviews []model.Review) reviewStats {
	st := reviewStats{total: len(reviews)}
	if st.total == 0 {
		return st
	}

	var sum float64
	for _, r := range reviews {
		rating := r.RatingValue()
		sum += rating
		if rating >= positiveRating {
			st.positive++
		}
		if d, ok := r.ParsedDate(); ok {
			if !st.hasRecent || d.After(st.mostRecent) {
				st.mostRecent = d
				st.hasRecent = true
			}
		}
	}
	st.avg = sum / float64(st.total)
	return st
}

// recencyBonus grades the age of the most recent review in whole days.
func recencyBonus(st reviewStats, now time.Time) float64 {
	if !st.hasRecent {
		return 0
	}
	days := math.Floor(float64(now.Sub(st.mostRecent)) / float64(24*time.Hour))
	switch {
	case days <= 30:
		return 10
	case days <= 90:
		return 6
	case days <= 365:
		return 3
	}
	return 0
}

// scoreReviews computes the review-based recommendation for one business
// that has at least one review.
func scoreReviews(b model.Business, now time.Time) Recommendation {
	st := summarizeReviews(b.Reviews)
	bonus := recencyBonus(st, now)

	avgScore := st.avg / 5 * 60
	posShareScore := float64(st.positive) / float64(st.total) * 25
	countBoost := math.Min(5, math.Log10(float64(st.total+1))*5)

	parts := []string{
		"Avg " + formatTenths(st.avg) + "★ (" + strconv.Itoa(st.total) + " reviews)",
	}
	if st.positive > 0 {
		parts = append(parts, strconv.Itoa(st.positive)+"/"+strconv.Itoa(st.total)+" positive")
	}
	if bonus > 0 {
		parts = append(parts, "Recent review")
	}

	rec := Recommendation{
		Business: b,
		Score:    clampScore(avgScore + posShareScore + countBoost + bonus),
		Reason:   strings.Join(parts, reasonSeparator),
		Snippet:  reviewSnippet(b.Reviews),
	}
	if st.hasRecent {
		rec.MostRecent = st.mostRecent.UTC().Format(time.DateOnly)
	}
	return rec
}

// reviewSnippet picks the first positive review, else the first review.
func reviewSnippet(reviews []model.Review) string {
	if len(reviews) == 0 {
		return ""
	}
	pick := reviews[0]
	for _, r := range reviews {
		if r.RatingValue() >= positiveRating {
			pick = r
			break
		}
	}
	return truncateRunes(pick.Text, snippetMaxRunes)
}

func truncateRunes(s string, n int) string {
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}

// formatTenths renders v with one decimal using the same half-up rounding
// as scores.
func formatTenths(v float64) string {
	return strconv.FormatFloat(roundHalfUp(v*10)/10, 'f', 1, 64)
}
