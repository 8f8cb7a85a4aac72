package storage

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rendis/locallink/internal/engine/catalog"
	"github.com/rendis/locallink/internal/engine/recommend"
	"github.com/rendis/locallink/internal/model"
)

var _ recommend.SignalSource = (*SignalReader)(nil)

func newTestStore(t *testing.T, opts ...Option) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "test.db"), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func seed(t *testing.T, s *Store) []model.Business {
	t.Helper()
	sample, err := catalog.Sample()
	require.NoError(t, err)
	n, err := s.InsertBatch(sample)
	require.NoError(t, err)
	require.Equal(t, len(sample), n)
	return sample
}

func TestNewStore_PragmasOnEveryConnection(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first, err := s.db.Conn(ctx)
	require.NoError(t, err)
	defer first.Close()
	second, err := s.db.Conn(ctx)
	require.NoError(t, err)
	defer second.Close()

	for i, conn := range []*sql.Conn{first, second} {
		var timeout, fk int
		require.NoError(t, conn.QueryRowContext(ctx, "PRAGMA busy_timeout").Scan(&timeout))
		require.NoError(t, conn.QueryRowContext(ctx, "PRAGMA foreign_keys").Scan(&fk))
		assert.Equal(t, 5000, timeout, "connection %d", i)
		assert.Equal(t, 1, fk, "connection %d", i)
	}
}

func TestInsertBatch_RoundTrip(t *testing.T) {
	s := newTestStore(t)
	sample := seed(t, s)

	count, err := s.Count()
	require.NoError(t, err)
	assert.Equal(t, len(sample), count)

	got, err := s.LoadCatalog()
	require.NoError(t, err)
	require.Len(t, got, len(sample))

	for _, want := range sample {
		b, ok := catalog.Find(got, want.ID)
		require.True(t, ok, want.ID)
		assert.Equal(t, want.Name, b.Name)
		assert.Equal(t, want.Category, b.Category)
		assert.Equal(t, want.Rating, b.Rating)
		assert.Equal(t, want.PriceRange, b.PriceRange)
		assert.ElementsMatch(t, want.Tags, b.Tags)
		assert.Equal(t, want.Deal, b.Deal)
		assert.Equal(t, want.Reviews, b.Reviews)
		assert.False(t, b.Bookmarked)
	}
}

func TestInsertBatch_UpsertReplacesReviews(t *testing.T) {
	s := newTestStore(t)
	first := model.Business{
		ID: "x1", Name: "Old", Rating: model.Float(3),
		Reviews: []model.Review{{ID: "r1", Rating: model.Float(2), Text: "meh"}, {ID: "r2", Text: "no rating"}},
	}
	_, err := s.InsertBatch([]model.Business{first})
	require.NoError(t, err)

	second := model.Business{
		ID: "x1", Name: "New",
		Reviews: []model.Review{{ID: "r3", Rating: model.Float(5), Text: "great", Date: "2026-01-02"}},
	}
	n, err := s.InsertBatch([]model.Business{second, {Name: "no id"}})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := s.LoadCatalog()
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "New", got[0].Name)
	assert.Nil(t, got[0].Rating)
	assert.Nil(t, got[0].Deal)
	assert.Empty(t, got[0].Tags)
	require.Len(t, got[0].Reviews, 1)
	assert.Equal(t, "r3", got[0].Reviews[0].ID)
	assert.Equal(t, 5.0, got[0].Reviews[0].RatingValue())
}

func TestLoadCatalog_Empty(t *testing.T) {
	s := newTestStore(t)
	got, err := s.LoadCatalog()
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestBookmarks(t *testing.T) {
	s := newTestStore(t)
	seed(t, s)

	require.NoError(t, s.SetBookmark("b1", true))
	require.NoError(t, s.SetBookmark("b1", true))
	require.NoError(t, s.SetBookmark("b3", true))
	require.NoError(t, s.SetBookmark("b3", false))
	require.NoError(t, s.SetBookmark("b4", false))

	ids, err := s.BookmarkedIDs()
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"b1": true}, ids)

	got, err := s.LoadCatalog()
	require.NoError(t, err)
	b1, _ := catalog.Find(got, "b1")
	b3, _ := catalog.Find(got, "b3")
	assert.True(t, b1.Bookmarked)
	assert.False(t, b3.Bookmarked)

	err = s.SetBookmark("missing", true)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestViews(t *testing.T) {
	s := newTestStore(t)
	seed(t, s)

	n, err := s.ViewCount("b2")
	require.NoError(t, err)
	assert.Zero(t, n)

	require.NoError(t, s.RecordView("b2"))
	require.NoError(t, s.RecordView("b2"))

	n, err = s.ViewCount("b2")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	assert.ErrorIs(t, s.RecordView("nope"), ErrNotFound)

	log, err := s.Interactions()
	require.NoError(t, err)
	require.Len(t, log, 2)
	assert.Equal(t, model.KindView, log[0].Kind)
	assert.Equal(t, "b2", log[1].BusinessID)
}

func TestInteractions_EvictsOldest(t *testing.T) {
	clock := time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)
	s := newTestStore(t,
		WithInteractionCap(3),
		WithClock(func() time.Time {
			clock = clock.Add(time.Minute)
			return clock
		}),
	)

	for _, id := range []string{"a", "b", "c", "d", "e"} {
		require.NoError(t, s.RecordInteraction(id, model.KindRecommendationView))
	}

	log, err := s.Interactions()
	require.NoError(t, err)
	require.Len(t, log, 3)

	var ids []string
	seen := map[string]bool{}
	for _, in := range log {
		ids = append(ids, in.BusinessID)
		assert.NotEmpty(t, in.ID)
		assert.False(t, seen[in.ID], "duplicate interaction id")
		seen[in.ID] = true
	}
	assert.Equal(t, []string{"c", "d", "e"}, ids)
	assert.True(t, log[0].Timestamp.Before(log[2].Timestamp))
	assert.Equal(t, time.Date(2026, 10, 15, 9, 5, 0, 0, time.UTC), log[2].Timestamp)
}

func TestSignalReader_FeedsScorer(t *testing.T) {
	s := newTestStore(t)
	seed(t, s)
	require.NoError(t, s.SetBookmark("b1", true))
	require.NoError(t, s.RecordView("b5"))

	reader := s.Signals()
	assert.Equal(t, map[string]bool{"b1": true}, reader.BookmarkedIDs())
	assert.Equal(t, 1, reader.ViewCount("b5"))
	assert.Zero(t, reader.ViewCount("unknown"))
	assert.Len(t, reader.InteractionLog(), 2)

	businesses, err := s.LoadCatalog()
	require.NoError(t, err)

	scorer := recommend.New(recommend.WithRecorder(reader.Record))
	list := scorer.ScoreByPreferences(businesses, reader)
	assert.Equal(t, recommend.BasisPreferences, list.Basis)
	for _, rec := range list.Items {
		assert.NotEqual(t, "b1", rec.Business.ID)
	}

	scorer.RecordInteraction("b2", model.KindRecommendationView)
	log := reader.InteractionLog()
	require.Len(t, log, 3)
	assert.Equal(t, model.KindRecommendationView, log[2].Kind)
}

func TestSignalReader_ClosedStoreReturnsDefaults(t *testing.T) {
	s, err := NewStore(filepath.Join(t.TempDir(), "closed.db"))
	require.NoError(t, err)
	reader := s.Signals()
	require.NoError(t, s.Close())

	assert.Empty(t, reader.BookmarkedIDs())
	assert.Zero(t, reader.ViewCount("b1"))
	assert.Empty(t, reader.InteractionLog())
	reader.Record("b1", model.KindView)
}
