package recommend

import (
	"github.com/rs/zerolog"

	"github.com/rendis/locallink/internal/model"
)

// SignalSource exposes the user's behavioral signals to the scorer.
// Implementations return defaults (nil, 0, empty) for unknown ids and must
// not be mutated while a scoring call is reading them.
type SignalSource interface {
	BookmarkedIDs() map[string]bool
	ViewCount(businessID string) int
	InteractionLog() []model.Interaction
}

// Signals is an in-memory snapshot of user signals.
type Signals struct {
	Bookmarks    map[string]bool
	Views        map[string]int
	Interactions []model.Interaction
}

var _ SignalSource = Signals{}

func (s Signals) BookmarkedIDs() map[string]bool { return s.Bookmarks }

func (s Signals) ViewCount(businessID string) int {
	if n := s.Views[businessID]; n > 0 {
		return n
	}
	return 0
}

func (s Signals) InteractionLog() []model.Interaction { return s.Interactions }

// guardedSource shields the scorer from a misbehaving signal source: a nil
// source or a panicking accessor reads as "no data".
type guardedSource struct {
	src    SignalSource
	logger zerolog.Logger
}

func (g guardedSource) recovered(accessor string) {
	if r := recover(); r != nil {
		g.logger.Warn().Str("accessor", accessor).Interface("panic", r).Msg("signal source failed, using defaults")
	}
}

func (g guardedSource) BookmarkedIDs() (ids map[string]bool) {
	if g.src == nil {
		return nil
	}
	defer g.recovered("bookmarked_ids")
	return g.src.BookmarkedIDs()
}

func (g guardedSource) ViewCount(businessID string) (n int) {
	if g.src == nil {
		return 0
	}
	defer g.recovered("view_count")
	n = g.src.ViewCount(businessID)
	if n < 0 {
		n = 0
	}
	return n
}

func (g guardedSource) InteractionLog() (log []model.Interaction) {
	if g.src == nil {
		return nil
	}
	defer g.recovered("interaction_log")
	return g.src.InteractionLog()
}
