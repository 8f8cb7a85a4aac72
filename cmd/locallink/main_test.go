package main

import (
	"bytes"
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rendis/locallink/internal/engine/recommend"
	"github.com/rendis/locallink/internal/model"
)

type harness struct {
	t        *testing.T
	db       string
	logLevel string
	stderr   string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())
	return &harness{t: t, db: filepath.Join(t.TempDir(), "data", "locallink.db"), logLevel: "error"}
}

func (h *harness) run(args ...string) (string, error) {
	h.t.Helper()
	root := newRootCmd("test")
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(append(args, "--db", h.db, "--log-level", h.logLevel, "--log-format", "json"))
	err := root.ExecuteContext(context.Background())
	h.stderr = errOut.String()
	return out.String(), err
}

func (h *harness) mustRun(args ...string) string {
	h.t.Helper()
	out, err := h.run(args...)
	require.NoError(h.t, err, "locallink %s", strings.Join(args, " "))
	return out
}

func (h *harness) recommend(args ...string) recommend.RankedList {
	h.t.Helper()
	out := h.mustRun(append([]string{"recommend", "--json"}, args...)...)
	var list recommend.RankedList
	require.NoError(h.t, json.Unmarshal([]byte(out), &list))
	return list
}

func TestVersion(t *testing.T) {
	h := newHarness(t)
	assert.Equal(t, "locallink test\n", h.mustRun("version"))
}

func TestSearch_SeedsSampleCatalog(t *testing.T) {
	h := newHarness(t)

	out := h.mustRun("search", "coffee")
	assert.Contains(t, out, "Blue Bird Cafe")
	assert.Contains(t, out, "CATEGORY")

	out = h.mustRun("search", "no-such-thing")
	assert.Equal(t, "No businesses found.\n", out)
}

func TestBookmarkLifecycle(t *testing.T) {
	h := newHarness(t)

	assert.Equal(t, "No bookmarks yet.\n", h.mustRun("bookmark", "list"))
	assert.Equal(t, "Bookmarked 2 business(es)\n", h.mustRun("bookmark", "add", "b1", "b3"))

	out := h.mustRun("bookmark", "list")
	assert.Contains(t, out, "b1")
	assert.Contains(t, out, "b3")

	h.mustRun("bookmark", "remove", "b3")
	out = h.mustRun("bookmark", "list")
	assert.Contains(t, out, "b1")
	assert.NotContains(t, out, "b3")

	_, err := h.run("bookmark", "add", "zzz")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `no business with id "zzz"`)
}

func TestView_CountsViews(t *testing.T) {
	h := newHarness(t)

	h.mustRun("view", "b2")
	out := h.mustRun("view", "b2")
	assert.Contains(t, out, "(b2)")
	assert.Contains(t, out, "Views:    2")

	_, err := h.run("view", "missing")
	assert.Error(t, err)
}

func TestRecommend_Reviews(t *testing.T) {
	h := newHarness(t)

	list := h.recommend()
	assert.Equal(t, recommend.StrategyReviews, list.Strategy)
	assert.Equal(t, recommend.BasisReviews, list.Basis)
	require.NotEmpty(t, list.Items)
	assert.LessOrEqual(t, len(list.Items), recommend.MaxResults)
	for i := 1; i < len(list.Items); i++ {
		assert.GreaterOrEqual(t, list.Items[i-1].Score, list.Items[i].Score)
	}

	out := h.mustRun("recommend")
	assert.Contains(t, out, "Ranked by review quality and recency. (reviews)")
	assert.Contains(t, out, "1. ")
}

func TestRecommend_PreferencesFollowSignals(t *testing.T) {
	h := newHarness(t)

	assert.Equal(t, recommend.BasisColdStart, h.recommend("--strategy", "preferences").Basis)

	h.mustRun("bookmark", "add", "b1")
	list := h.recommend("--strategy", "preferences")
	assert.Equal(t, recommend.BasisPreferences, list.Basis)
	for _, rec := range list.Items {
		assert.NotEqual(t, "b1", rec.Business.ID)
		assert.Greater(t, rec.Score, 20)
	}
}

func TestRecommend_StrategyFromEnv(t *testing.T) {
	h := newHarness(t)
	t.Setenv("LOCALLINK_RECOMMEND_STRATEGY", "preferences")

	assert.Equal(t, recommend.StrategyPreferences, h.recommend().Strategy)
}

func TestRecommend_LogsRankingOnce(t *testing.T) {
	h := newHarness(t)
	h.logLevel = "debug"

	h.mustRun("recommend")
	assert.Equal(t, 1, strings.Count(h.stderr, `"message":"recommendations ranked"`), h.stderr)
}

func TestRecommend_UnknownStrategy(t *testing.T) {
	h := newHarness(t)
	_, err := h.run("recommend", "--strategy", "astrology")
	assert.ErrorIs(t, err, recommend.ErrUnknownStrategy)
}

func TestRecommend_OpenRecordsInteraction(t *testing.T) {
	h := newHarness(t)

	list := h.recommend("--open", "1")
	require.NotEmpty(t, list.Items)

	var log []model.Interaction
	require.NoError(t, json.Unmarshal([]byte(h.mustRun("interactions", "--json")), &log))
	require.Len(t, log, 1)
	assert.Equal(t, model.KindRecommendationView, log[0].Kind)
	assert.Equal(t, list.Items[0].Business.ID, log[0].BusinessID)

	_, err := h.run("recommend", "--open", "99")
	assert.Error(t, err)
}

func TestInteractions_NewestFirst(t *testing.T) {
	h := newHarness(t)
	assert.Equal(t, "No interactions recorded.\n", h.mustRun("interactions"))

	h.mustRun("view", "b4")
	h.mustRun("bookmark", "add", "b5")

	var log []model.Interaction
	require.NoError(t, json.Unmarshal([]byte(h.mustRun("interactions", "--json")), &log))
	require.Len(t, log, 2)
	assert.Equal(t, "b5", log[0].BusinessID)
	assert.Equal(t, model.KindBookmark, log[0].Kind)

	out := h.mustRun("interactions", "-n", "1")
	assert.Contains(t, out, "bookmark")
	assert.NotContains(t, out, "b4")
}

func TestExport(t *testing.T) {
	h := newHarness(t)
	path := filepath.Join(t.TempDir(), "out.csv")

	h.mustRun("export", "--output", path)
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	assert.Len(t, records, 7)

	_, err = h.run("export", "--bookmarks", "--output", path)
	assert.Error(t, err)

	h.mustRun("bookmark", "add", "b6")
	out := h.mustRun("export", "--bookmarks", "--output", "-")
	assert.Contains(t, out, "b6")
	assert.Equal(t, 2, strings.Count(out, "\n"))
}

func TestImport(t *testing.T) {
	h := newHarness(t)
	path := filepath.Join(t.TempDir(), "listings.json")
	listings := `[{"id": "n1", "name": "Night Owl Bakery", "category": "Bakery", "tags": ["bread"]}]`
	require.NoError(t, os.WriteFile(path, []byte(listings), 0644))

	assert.Equal(t, "Imported 1 businesses (7 in catalog)\n", h.mustRun("import", path))
	assert.Contains(t, h.mustRun("search", "bread"), "Night Owl Bakery")

	_, err := h.run("import", filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestImport_KeepsGoodListingsBesideMalformedOnes(t *testing.T) {
	h := newHarness(t)
	path := filepath.Join(t.TempDir(), "listings.json")
	listings := `[{"id": "n1", "name": "Night Owl Bakery", "rating": 4.5},
		{"id": "n2", "name": "Odd Diner", "rating": "high"}, 42]`
	require.NoError(t, os.WriteFile(path, []byte(listings), 0644))

	out := h.mustRun("import", path)
	assert.Contains(t, out, "Imported 2 businesses (8 in catalog)")
	assert.Contains(t, out, "2 malformed entries or fields were skipped")
	assert.Contains(t, h.mustRun("search", "odd diner"), "n2")
}
