package recommend

import (
	"math"
	"strings"

	"github.com/rendis/locallink/internal/model"
)

const (
	coldStartScore     = 95
	preferenceMinScore = 20
	highlyRated        = 4.5
	defaultReason      = "Good match for you"
)

// profile aggregates what the user's bookmarks have in common.
type profile struct {
	categories map[string]int
	tags       map[string]int
	prices     map[int]bool
	avgRating  float64
}

func buildProfile(catalog []model.Business, bookmarked map[string]bool) profile {
	p := profile{
		categories: make(map[string]int),
		tags:       make(map[string]int),
		prices:     make(map[int]bool),
	}

	var ratingSum float64
	var n int
	for _, b := range catalog {
		if !bookmarked[b.ID] {
			continue
		}
		n++
		ratingSum += b.RatingValue()
		if b.Category != "" {
			p.categories[b.Category]++
		}
		for _, t := range b.Tags {
			p.tags[t]++
		}
		if b.HasPriceRange() {
			p.prices[b.PriceRange] = true
		}
	}
	if n > 0 {
		p.avgRating = ratingSum / float64(n)
	}
	return p
}

// scorePreference sums the individually capped signal terms for one
// non-bookmarked business.
func scorePreference(b model.Business, p profile, views int) Recommendation {
	var score float64
	var reasons []string

	if b.Category != "" {
		if n := p.categories[b.Category]; n > 0 {
			score += math.Min(40, float64(n)*20)
			reasons = append(reasons, "Similar category ("+b.Category+")")
		}
	}

	tagMatches := 0
	for _, t := range b.Tags {
		tagMatches += p.tags[t]
	}
	if tagMatches > 0 {
		score += math.Min(30, float64(tagMatches)*10)
		reasons = append(reasons, "Matches your interests")
	}

	if b.HasPriceRange() && p.prices[b.PriceRange] {
		score += 10
		reasons = append(reasons, "In your price range")
	}

	rating := b.RatingValue()
	if rating >= p.avgRating {
		score += math.Min(20, (rating-p.avgRating)*10)
		if rating >= highlyRated {
			reasons = append(reasons, "Highly rated")
		}
	}

	if views > 0 {
		score += math.Min(10, float64(views)*5)
		reasons = append(reasons, "You viewed this before")
	}

	if b.HasDeal() {
		score += 5
		reasons = append(reasons, "Has an active deal")
	}

	reason := defaultReason
	if len(reasons) > 0 {
		reason = strings.Join(reasons, ", ")
	}
	return Recommendation{
		Business: b,
		Score:    clampScore(score),
		Reason:   reason,
	}
}

// hasHistory reports whether the user has any bookmark or any recorded view
// of a catalog business.
func hasHistory(catalog []model.Business, signals SignalSource, bookmarked map[string]bool) bool {
	if len(bookmarked) > 0 {
		return true
	}
	for _, b := range catalog {
		if signals.ViewCount(b.ID) > 0 {
			return true
		}
	}
	return false
}

func withoutBookmarked(catalog []model.Business, bookmarked map[string]bool) []model.Business {
	if len(bookmarked) == 0 {
		return catalog
	}
	out := make([]model.Business, 0, len(catalog))
	for _, b := range catalog {
		if !bookmarked[b.ID] {
			out = append(out, b)
		}
	}
	return out
}
