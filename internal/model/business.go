package model

import (
	"strconv"
	"time"
)

// Business represents a directory listing.
//
// Rating, review ratings and Deal are optional: nil means absent and scores as
// zero. PriceRange uses 0 for "unknown"; valid tiers are 1..4.
type Business struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Address     string   `json:"address,omitempty"`
	Phone       string   `json:"phone,omitempty"`
	Website     string   `json:"website,omitempty"`
	Category    string   `json:"category,omitempty"`
	Rating      *float64 `json:"rating,omitempty"`
	ReviewCount int      `json:"reviewCount,omitempty"`
	PriceRange  int      `json:"priceRange,omitempty"`
	OpenedDate  string   `json:"openedDate,omitempty"`
	Description string   `json:"shortDescription,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Reviews     []Review `json:"reviews,omitempty"`
	Deal        *Deal    `json:"deal,omitempty"`

	// Bookmarked mirrors the user's bookmark set for display. It is not
	// catalog data and is never read when scoring.
	Bookmarked bool `json:"bookmarked,omitempty"`
}

// RatingValue returns the star rating, or 0 when absent.
func (b Business) RatingValue() float64 {
	if b.Rating == nil {
		return 0
	}
	return *b.Rating
}

// RatingLabel formats the rating in its shortest form ("4.6", "5"). An
// absent or zero rating reads as "—".
func (b Business) RatingLabel() string {
	if b.Rating == nil || *b.Rating == 0 {
		return "—"
	}
	return strconv.FormatFloat(*b.Rating, 'f', -1, 64)
}

// HasPriceRange reports whether PriceRange holds a valid tier.
func (b Business) HasPriceRange() bool {
	return b.PriceRange >= 1 && b.PriceRange <= 4
}

// HasDeal reports whether an active promotional offer is attached.
func (b Business) HasDeal() bool {
	return b.Deal != nil
}

// Review is a single customer review.
type Review struct {
	ID       string   `json:"id,omitempty"`
	UserName string   `json:"userName,omitempty"`
	Rating   *float64 `json:"rating,omitempty"`
	Text     string   `json:"text,omitempty"`
	Date     string   `json:"date,omitempty"`
}

// RatingValue returns the review rating, or 0 when absent.
func (r Review) RatingValue() float64 {
	if r.Rating == nil {
		return 0
	}
	return *r.Rating
}

// ParsedDate returns the review date and whether it could be parsed.
// Dates are accepted as YYYY-MM-DD (UTC midnight) or RFC 3339.
func (r Review) ParsedDate() (time.Time, bool) {
	if r.Date == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.DateOnly, r.Date); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339, r.Date); err == nil {
		return t, true
	}
	return time.Time{}, false
}

// Deal is a promotional offer. Only its presence matters for ranking.
type Deal struct {
	Description string `json:"description,omitempty"`
	Expires     string `json:"expires,omitempty"`
}

// Interaction is one entry of the user's interaction log.
type Interaction struct {
	ID         string    `json:"id"`
	BusinessID string    `json:"business_id"`
	Kind       string    `json:"kind"`
	Timestamp  time.Time `json:"timestamp"`
}

// Interaction kinds recorded by the presentation layer.
const (
	KindView               = "view"
	KindBookmark           = "bookmark"
	KindRecommendationView = "recommendation-view"
)

// Float returns a pointer to v, for building optional ratings.
func Float(v float64) *float64 {
	return &v
}
