package views

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/rendis/locallink/internal/model"
)

// Library is the persistent catalog and signal store behind the views.
type Library interface {
	LoadCatalog() ([]model.Business, error)
	InsertBatch(businesses []model.Business) (int, error)
	SetBookmark(id string, on bool) error
	RecordView(id string) error
	Interactions() ([]model.Interaction, error)
}

// Navigation messages
type NavigateToHome struct{}
type NavigateToRecommend struct{}
type NavigateToImport struct{}
type NavigateToActivity struct{}

// NavigateToBrowse opens the browse view. Focus selects a business by id;
// Status is shown once in the status line.
type NavigateToBrowse struct {
	BookmarksOnly bool
	Focus         string
	Status        string
}

func navigate(msg tea.Msg) tea.Cmd {
	return func() tea.Msg { return msg }
}
