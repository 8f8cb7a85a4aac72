package views

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rendis/locallink/internal/engine/catalog"
	"github.com/rendis/locallink/internal/engine/recommend"
	"github.com/rendis/locallink/internal/model"
)

type fakeLibrary struct {
	businesses   []model.Business
	interactions []model.Interaction
	views        map[string]int
	inserted     int
}

func newFakeLibrary(t *testing.T) *fakeLibrary {
	t.Helper()
	sample, err := catalog.Sample()
	require.NoError(t, err)
	return &fakeLibrary{businesses: sample, views: map[string]int{}}
}

func (f *fakeLibrary) LoadCatalog() ([]model.Business, error) {
	return append([]model.Business(nil), f.businesses...), nil
}

func (f *fakeLibrary) InsertBatch(businesses []model.Business) (int, error) {
	f.inserted += len(businesses)
	f.businesses = append(f.businesses, businesses...)
	return len(businesses), nil
}

func (f *fakeLibrary) SetBookmark(id string, on bool) error {
	for i := range f.businesses {
		if f.businesses[i].ID == id {
			f.businesses[i].Bookmarked = on
		}
	}
	if on {
		f.record(id, model.KindBookmark)
	}
	return nil
}

func (f *fakeLibrary) RecordView(id string) error {
	f.views[id]++
	f.record(id, model.KindView)
	return nil
}

func (f *fakeLibrary) Interactions() ([]model.Interaction, error) {
	return f.interactions, nil
}

func (f *fakeLibrary) record(id, kind string) {
	f.interactions = append(f.interactions, model.Interaction{
		ID: id + "-" + kind, BusinessID: id, Kind: kind,
		Timestamp: time.Date(2026, 10, 15, 9, len(f.interactions), 0, 0, time.UTC),
	})
}

func (f *fakeLibrary) signals() recommend.Signals {
	ids := map[string]bool{}
	for _, b := range f.businesses {
		if b.Bookmarked {
			ids[b.ID] = true
		}
	}
	return recommend.Signals{Bookmarks: ids, Views: f.views, Interactions: f.interactions}
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

var (
	keyEnter = tea.KeyMsg{Type: tea.KeyEnter}
	keySpace = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	keyTab   = tea.KeyMsg{Type: tea.KeyTab}
	keyDown  = tea.KeyMsg{Type: tea.KeyDown}
)

func run(t *testing.T, cmd tea.Cmd) tea.Msg {
	t.Helper()
	require.NotNil(t, cmd)
	return cmd()
}

func TestHome_Shortcuts(t *testing.T) {
	tests := map[string]tea.Msg{
		"b": NavigateToBrowse{},
		"r": NavigateToRecommend{},
		"m": NavigateToBrowse{BookmarksOnly: true},
		"i": NavigateToImport{},
		"a": NavigateToActivity{},
	}
	for key, want := range tests {
		m := NewHomeModel("dev")
		_, cmd := m.Update(runes(key))
		assert.Equal(t, want, run(t, cmd), "key %q", key)
	}

	_, cmd := NewHomeModel("dev").Update(runes("q"))
	assert.Equal(t, tea.QuitMsg{}, run(t, cmd))
}

func TestHome_EnterSelectsCursor(t *testing.T) {
	m := NewHomeModel("dev")
	next, _ := m.Update(keyDown)
	_, cmd := next.(HomeModel).Update(keyEnter)
	assert.Equal(t, NavigateToRecommend{}, run(t, cmd))
	assert.Contains(t, m.View(), "locallink")
}

func loadedBrowse(t *testing.T, lib *fakeLibrary, nav NavigateToBrowse) BrowseModel {
	t.Helper()
	m := NewBrowseModel(lib, t.TempDir(), nav)
	next, _ := m.Update(run(t, m.Init()))
	return next.(BrowseModel)
}

func TestBrowse_LoadsAndFilters(t *testing.T) {
	lib := newFakeLibrary(t)
	m := loadedBrowse(t, lib, NavigateToBrowse{})

	assert.Len(t, m.filtered, 6)
	assert.Equal(t, 0, m.selected)
	assert.NotEmpty(t, m.cardLines)
	assert.Contains(t, m.jsonRaw, `"id": "b1"`)

	m.filter.SetValue("eco")
	m.applyFilter()
	var ids []string
	for _, b := range m.filtered {
		ids = append(ids, b.ID)
	}
	assert.Equal(t, []string{"b5", "b6"}, ids)
	assert.Contains(t, m.View(), "showing 2")
}

func TestBrowse_FocusSelectsBusiness(t *testing.T) {
	m := loadedBrowse(t, newFakeLibrary(t), NavigateToBrowse{Focus: "b4", Status: "hello"})

	biz, ok := m.current()
	require.True(t, ok)
	assert.Equal(t, "b4", biz.ID)
	assert.Equal(t, 3, m.table.Cursor())
	assert.Contains(t, m.View(), "hello")
}

func TestBrowse_ToggleBookmark(t *testing.T) {
	lib := newFakeLibrary(t)
	m := loadedBrowse(t, lib, NavigateToBrowse{})

	_, cmd := m.Update(keySpace)
	msg := run(t, cmd)
	assert.Equal(t, bookmarkToggledMsg{ID: "b1", On: true}, msg)

	next, _ := m.Update(msg)
	m = next.(BrowseModel)
	biz, _ := m.current()
	assert.True(t, biz.Bookmarked)
	assert.Equal(t, "Bookmarked Blue Bird Cafe", m.status)
	assert.True(t, lib.businesses[0].Bookmarked)

	_, cmd = m.Update(keySpace)
	next, _ = m.Update(run(t, cmd))
	m = next.(BrowseModel)
	biz, _ = m.current()
	assert.False(t, biz.Bookmarked)
}

func TestBrowse_BookmarksOnly(t *testing.T) {
	lib := newFakeLibrary(t)
	require.NoError(t, lib.SetBookmark("b3", true))

	m := loadedBrowse(t, lib, NavigateToBrowse{BookmarksOnly: true})
	require.Len(t, m.filtered, 1)
	assert.Equal(t, "b3", m.filtered[0].ID)

	_, cmd := m.Update(keySpace)
	next, _ := m.Update(run(t, cmd))
	m = next.(BrowseModel)
	assert.Empty(t, m.filtered)
	assert.Contains(t, m.View(), "No bookmarks yet")
}

func TestBrowse_EnterRecordsView(t *testing.T) {
	lib := newFakeLibrary(t)
	m := loadedBrowse(t, lib, NavigateToBrowse{Focus: "b2"})

	next, cmd := m.Update(keyEnter)
	m = next.(BrowseModel)
	assert.Equal(t, focusCard, m.focus)
	assert.Equal(t, viewRecordedMsg{ID: "b2"}, run(t, cmd))
	assert.Equal(t, 1, lib.views["b2"])
}

func TestBrowse_ExportCSV(t *testing.T) {
	lib := newFakeLibrary(t)
	m := loadedBrowse(t, lib, NavigateToBrowse{})

	next, _ := m.Update(runes("e"))
	m = next.(BrowseModel)

	data, err := os.ReadFile(filepath.Join(m.exportDir, "locallink.csv"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "Blue Bird Cafe")
	assert.Contains(t, m.status, "Exported 6 rows")
}

func TestRecommend_ReviewsThenPreferences(t *testing.T) {
	lib := newFakeLibrary(t)
	var recorded []string
	scorer := recommend.New(
		recommend.WithClock(func() time.Time { return time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC) }),
		recommend.WithRecorder(func(id, kind string) { recorded = append(recorded, id+":"+kind) }),
	)

	m := NewRecommendModel(lib, lib.signals(), scorer, "")
	assert.Equal(t, recommend.StrategyReviews, m.Strategy())

	next, _ := m.Update(run(t, m.Init()))
	m = next.(RecommendModel)
	require.True(t, m.loaded)
	assert.Equal(t, recommend.BasisReviews, m.list.Basis)
	require.NotEmpty(t, m.list.Items)
	assert.Contains(t, m.View(), "Ranked by review quality")

	first := m.list.Items[0].Business.ID
	_, cmd := m.Update(keyEnter)
	assert.Equal(t, NavigateToBrowse{Focus: first}, run(t, cmd))
	assert.Equal(t, []string{first + ":" + model.KindRecommendationView}, recorded)

	next, cmd = m.Update(keyTab)
	m = next.(RecommendModel)
	assert.Equal(t, recommend.StrategyPreferences, m.Strategy())
	next, _ = m.Update(run(t, cmd))
	m = next.(RecommendModel)
	assert.Equal(t, recommend.BasisColdStart, m.list.Basis)
}

func TestActivity_NewestFirst(t *testing.T) {
	lib := newFakeLibrary(t)
	require.NoError(t, lib.RecordView("b2"))
	require.NoError(t, lib.SetBookmark("b5", true))
	lib.record("gone", model.KindRecommendationView)

	m := NewActivityModel(lib)
	next, _ := m.Update(run(t, m.Init()))
	m = next.(ActivityModel)

	require.Len(t, m.entries, 3)
	assert.Equal(t, "gone", m.entries[0].Name)
	assert.Equal(t, model.KindBookmark, m.entries[1].Kind)
	assert.Contains(t, m.View(), "bookmarked")

	next, _ = m.Update(keyDown)
	_, cmd := next.(ActivityModel).Update(keyEnter)
	assert.Equal(t, NavigateToBrowse{Focus: "b5"}, run(t, cmd))
}

func TestActivity_Empty(t *testing.T) {
	lib := &fakeLibrary{views: map[string]int{}}
	m := NewActivityModel(lib)
	next, _ := m.Update(run(t, m.Init()))
	assert.Contains(t, next.(ActivityModel).View(), "No activity yet")
}

func TestFilePicker_ImportsJSON(t *testing.T) {
	dir := t.TempDir()
	listings := `[{"id": "n1", "name": "New Place", "category": "Bakery"}]`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "listings.json"), []byte(listings), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("skip"), 0644))

	lib := &fakeLibrary{views: map[string]int{}}
	m := NewFilePickerModel(lib, dir)
	require.Len(t, m.files, 1)

	next, cmd := m.Update(keyEnter)
	assert.True(t, next.(FilePickerModel).importing)
	assert.Equal(t, NavigateToBrowse{Status: "Imported 1 listings from listings.json"}, run(t, cmd))
	assert.Equal(t, 1, lib.inserted)
}

func TestFilePicker_ReportsMalformedListings(t *testing.T) {
	dir := t.TempDir()
	listings := `[{"id": "n1", "name": "New Place"}, {"id": "n2", "name": "Odd", "priceRange": "$$"}]`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "mixed.json"), []byte(listings), 0644))

	lib := &fakeLibrary{views: map[string]int{}}
	_, cmd := NewFilePickerModel(lib, dir).Update(keyEnter)

	want := NavigateToBrowse{Status: "Imported 2 listings from mixed.json (1 malformed entries or fields skipped)"}
	assert.Equal(t, want, run(t, cmd))
	assert.Equal(t, 2, lib.inserted)
}

func TestFilePicker_BadFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.json"), []byte("{"), 0644))

	m := NewFilePickerModel(&fakeLibrary{}, dir)
	next, cmd := m.Update(keyEnter)
	next, _ = next.(FilePickerModel).Update(run(t, cmd))

	fp := next.(FilePickerModel)
	assert.False(t, fp.importing)
	assert.Error(t, fp.err)
}

func TestTruncateAndWindow(t *testing.T) {
	assert.Equal(t, "Café", truncate("Café", 4))
	assert.Equal(t, "Ca…", truncate("Café", 3))
	assert.Equal(t, "", truncate("x", 0))

	start, end := window(10, 8, 4)
	assert.Equal(t, 6, start)
	assert.Equal(t, 10, end)
	start, end = window(3, 2, 6)
	assert.Equal(t, 0, start)
	assert.Equal(t, 3, end)
}
