// Package recommend ranks catalog businesses with two rule-based strategies:
// aggregate review signal, or similarity to the user's bookmarks.
package recommend

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/rendis/locallink/internal/model"
)

// Strategy names a scoring mode.
type Strategy string

const (
	StrategyReviews     Strategy = "reviews"
	StrategyPreferences Strategy = "preferences"
)

var ErrUnknownStrategy = errors.New("unknown strategy")

// ParseStrategy accepts "reviews" or "preferences" (case-insensitive).
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(strings.ToLower(strings.TrimSpace(s))) {
	case StrategyReviews:
		return StrategyReviews, nil
	case StrategyPreferences:
		return StrategyPreferences, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownStrategy, s)
}

// Recorder receives interactions with recommended businesses.
type Recorder func(businessID, kind string)

// Scorer computes ranked recommendations. It holds no mutable state and may
// be shared between goroutines.
type Scorer struct {
	now               func() time.Time
	excludeBookmarked bool
	recorder          Recorder
	logger            zerolog.Logger
}

// Option configures a Scorer.
type Option func(*Scorer)

// WithClock sets the wall clock used for review recency.
func WithClock(now func() time.Time) Option {
	return func(s *Scorer) {
		if now != nil {
			s.now = now
		}
	}
}

// WithExcludeBookmarked makes the review strategy skip bookmarked businesses,
// as the preference strategy always does.
func WithExcludeBookmarked(exclude bool) Option {
	return func(s *Scorer) { s.excludeBookmarked = exclude }
}

// WithRecorder installs the interaction write-back callback.
func WithRecorder(r Recorder) Option {
	return func(s *Scorer) { s.recorder = r }
}

func WithLogger(l zerolog.Logger) Option {
	return func(s *Scorer) { s.logger = l }
}

func New(opts ...Option) *Scorer {
	s := &Scorer{
		now:    time.Now,
		logger: zerolog.Nop(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Recommend dispatches to the named strategy. Unknown strategies yield an
// empty list.
func (s *Scorer) Recommend(strategy Strategy, catalog []model.Business, signals SignalSource) RankedList {
	switch strategy {
	case StrategyReviews:
		return s.ScoreByReviews(catalog, signals)
	case StrategyPreferences:
		return s.ScoreByPreferences(catalog, signals)
	}
	s.logger.Warn().Str("strategy", string(strategy)).Msg("unknown strategy")
	return RankedList{Strategy: strategy, Basis: BasisNoData, Items: []Recommendation{}}
}

// ScoreByReviews ranks businesses by what reviewers said. Signals are only
// consulted when bookmarked businesses are excluded and may be nil.
func (s *Scorer) ScoreByReviews(catalog []model.Business, signals SignalSource) RankedList {
	out := RankedList{Strategy: StrategyReviews, Basis: BasisNoData, Items: []Recommendation{}}
	if s.excludeBookmarked {
		catalog = withoutBookmarked(catalog, s.bookmarks(signals))
	}
	if len(catalog) == 0 {
		return s.done(out)
	}

	now := s.now()
	var scored []Recommendation
	for _, b := range catalog {
		if len(b.Reviews) == 0 {
			continue
		}
		scored = append(scored, scoreReviews(b, now))
	}

	if len(scored) == 0 {
		out.Basis = BasisTopRated
		out.Items = topRated(catalog, -1)
		return s.done(out)
	}

	out.Basis = BasisReviews
	out.Items = rankTop(scored)
	return s.done(out)
}

// ScoreByPreferences ranks non-bookmarked businesses by similarity to the
// user's bookmarks.
func (s *Scorer) ScoreByPreferences(catalog []model.Business, signals SignalSource) RankedList {
	out := RankedList{Strategy: StrategyPreferences, Basis: BasisNoData, Items: []Recommendation{}}
	if len(catalog) == 0 {
		return s.done(out)
	}

	src := guardedSource{src: signals, logger: s.logger}
	bookmarked := s.bookmarks(signals)
	candidates := withoutBookmarked(catalog, bookmarked)

	if !hasHistory(catalog, src, bookmarked) {
		out.Basis = BasisColdStart
		out.Items = topRated(candidates, coldStartScore)
		return s.done(out)
	}

	p := buildProfile(catalog, bookmarked)
	var scored []Recommendation
	for _, b := range candidates {
		rec := scorePreference(b, p, src.ViewCount(b.ID))
		if rec.Score <= preferenceMinScore {
			continue
		}
		scored = append(scored, rec)
	}

	out.Basis = BasisPreferences
	if len(scored) > 0 {
		out.Items = rankTop(scored)
	}
	return s.done(out)
}

// RecordInteraction forwards to the installed Recorder, if any.
func (s *Scorer) RecordInteraction(businessID, kind string) {
	if s.recorder == nil || businessID == "" {
		return
	}
	s.recorder(businessID, kind)
}

// bookmarks returns the set of ids whose bookmark flag is set.
func (s *Scorer) bookmarks(signals SignalSource) map[string]bool {
	raw := guardedSource{src: signals, logger: s.logger}.BookmarkedIDs()
	set := make(map[string]bool, len(raw))
	for id, on := range raw {
		if on {
			set[id] = true
		}
	}
	return set
}

func (s *Scorer) done(out RankedList) RankedList {
	s.logger.Debug().
		Str("strategy", string(out.Strategy)).
		Str("basis", string(out.Basis)).
		Int("results", len(out.Items)).
		Msg("recommendations ranked")
	return out
}
