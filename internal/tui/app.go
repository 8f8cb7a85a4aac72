// Package tui is the interactive bubbletea front end.
package tui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"

	"github.com/rendis/locallink/internal/engine/recommend"
	"github.com/rendis/locallink/internal/tui/views"
)

type viewID int

const (
	viewHome viewID = iota
	viewBrowse
	viewRecommend
	viewImport
	viewActivity
)

// Options wires the TUI to storage and the scorer.
type Options struct {
	Library   views.Library
	Signals   recommend.SignalSource
	Scorer    *recommend.Scorer
	Strategy  recommend.Strategy
	ExportDir string
	Version   string
	Logger    zerolog.Logger
}

// App is the root bubbletea model.
type App struct {
	opts        Options
	currentView viewID
	width       int
	height      int
	home        views.HomeModel
	browse      views.BrowseModel
	recommend   views.RecommendModel
	filePicker  views.FilePickerModel
	activity    views.ActivityModel
}

func NewApp(opts Options) App {
	if opts.Scorer == nil {
		opts.Scorer = recommend.New()
	}
	return App{
		opts:        opts,
		currentView: viewHome,
		home:        views.NewHomeModel(opts.Version),
	}
}

func (a App) Init() tea.Cmd {
	return a.home.Init()
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
	case views.NavigateToHome:
		a.leave()
		a.currentView = viewHome
		return a, nil
	case views.NavigateToBrowse:
		a.leave()
		a.opts.Logger.Debug().Bool("bookmarks_only", msg.BookmarksOnly).Str("focus", msg.Focus).Msg("open browse")
		a.currentView = viewBrowse
		a.browse = views.NewBrowseModel(a.opts.Library, a.opts.ExportDir, msg)
		return a, tea.Batch(a.browse.Init(), a.sizeCmd())
	case views.NavigateToRecommend:
		a.leave()
		a.opts.Logger.Debug().Str("strategy", string(a.opts.Strategy)).Msg("open recommendations")
		a.currentView = viewRecommend
		a.recommend = views.NewRecommendModel(a.opts.Library, a.opts.Signals, a.opts.Scorer, a.opts.Strategy)
		return a, tea.Batch(a.recommend.Init(), a.sizeCmd())
	case views.NavigateToImport:
		a.leave()
		a.currentView = viewImport
		a.filePicker = views.NewFilePickerModel(a.opts.Library, "")
		return a, a.filePicker.Init()
	case views.NavigateToActivity:
		a.leave()
		a.currentView = viewActivity
		a.activity = views.NewActivityModel(a.opts.Library)
		return a, a.activity.Init()
	}

	var cmd tea.Cmd
	switch a.currentView {
	case viewHome:
		var m tea.Model
		m, cmd = a.home.Update(msg)
		a.home = m.(views.HomeModel)
	case viewBrowse:
		var m tea.Model
		m, cmd = a.browse.Update(msg)
		a.browse = m.(views.BrowseModel)
	case viewRecommend:
		var m tea.Model
		m, cmd = a.recommend.Update(msg)
		a.recommend = m.(views.RecommendModel)
	case viewImport:
		var m tea.Model
		m, cmd = a.filePicker.Update(msg)
		a.filePicker = m.(views.FilePickerModel)
	case viewActivity:
		var m tea.Model
		m, cmd = a.activity.Update(msg)
		a.activity = m.(views.ActivityModel)
	}

	return a, cmd
}

// leave keeps state that outlives the current view.
func (a *App) leave() {
	if a.currentView == viewRecommend {
		a.opts.Strategy = a.recommend.Strategy()
	}
}

func (a App) View() string {
	var content string
	switch a.currentView {
	case viewHome:
		content = a.home.View()
	case viewBrowse:
		content = a.browse.View()
	case viewRecommend:
		content = a.recommend.View()
	case viewImport:
		content = a.filePicker.View()
	case viewActivity:
		content = a.activity.View()
	}

	return lipgloss.Place(
		a.width, a.height,
		lipgloss.Center, lipgloss.Top,
		content,
	)
}

// sizeCmd sends a WindowSizeMsg so newly created views get the current terminal size.
func (a App) sizeCmd() tea.Cmd {
	w, h := a.width, a.height
	return func() tea.Msg {
		return tea.WindowSizeMsg{Width: w, Height: h}
	}
}

// Run starts the TUI.
func Run(opts Options) error {
	p := tea.NewProgram(NewApp(opts), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
