package views

import (
	"fmt"
	"slices"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/rendis/locallink/internal/engine/catalog"
	"github.com/rendis/locallink/internal/model"
	"github.com/rendis/locallink/internal/tui/styles"
)

const activityPageSize = 15

var kindLabels = map[string]string{
	model.KindView:               "viewed",
	model.KindBookmark:           "bookmarked",
	model.KindRecommendationView: "opened from picks",
}

// ActivityEntry is one interaction resolved against the catalog.
type ActivityEntry struct {
	BusinessID string
	Name       string
	Kind       string
	At         time.Time
}

// ActivityModel lists the interaction log, newest first.
type ActivityModel struct {
	lib     Library
	now     func() time.Time
	entries []ActivityEntry
	cursor  int
	loaded  bool
	err     error
}

type activityLoadedMsg struct {
	Entries []ActivityEntry
	Err     error
}

func NewActivityModel(lib Library) ActivityModel {
	return ActivityModel{lib: lib, now: time.Now}
}

func (m ActivityModel) Init() tea.Cmd {
	lib := m.lib
	return func() tea.Msg {
		entries, err := loadActivity(lib)
		return activityLoadedMsg{Entries: entries, Err: err}
	}
}

func loadActivity(lib Library) ([]ActivityEntry, error) {
	log, err := lib.Interactions()
	if err != nil {
		return nil, err
	}
	businesses, err := lib.LoadCatalog()
	if err != nil {
		return nil, err
	}

	entries := make([]ActivityEntry, 0, len(log))
	for _, in := range slices.Backward(log) {
		name := in.BusinessID
		if b, ok := catalog.Find(businesses, in.BusinessID); ok {
			name = b.Name
		}
		entries = append(entries, ActivityEntry{
			BusinessID: in.BusinessID,
			Name:       name,
			Kind:       in.Kind,
			At:         in.Timestamp,
		})
	}
	return entries, nil
}

func (m ActivityModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case activityLoadedMsg:
		m.loaded = true
		m.entries = msg.Entries
		m.err = msg.Err
		m.cursor = 0
	case tea.KeyMsg:
		switch msg.String() {
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.entries)-1 {
				m.cursor++
			}
		case "enter":
			if m.cursor < len(m.entries) {
				return m, navigate(NavigateToBrowse{Focus: m.entries[m.cursor].BusinessID})
			}
		case "esc", "q":
			return m, navigate(NavigateToHome{})
		}
	}
	return m, nil
}

func (m ActivityModel) View() string {
	var b strings.Builder

	b.WriteString(styles.Title.Render("Activity"))
	b.WriteString("\n\n")

	if m.err != nil {
		b.WriteString(styles.ErrorText.Render(fmt.Sprintf("Error: %v", m.err)))
		b.WriteString("\n\n")
		b.WriteString(styles.StatusBar.Render("esc back"))
		return styles.Border.Render(b.String())
	}

	if m.loaded && len(m.entries) == 0 {
		b.WriteString(lipgloss.NewStyle().Foreground(styles.Muted).Italic(true).
			Render("No activity yet"))
		b.WriteString("\n\n")
		b.WriteString(styles.StatusBar.Render("esc back"))
		return styles.Border.Render(b.String())
	}

	start := 0
	if m.cursor > activityPageSize-3 {
		start = m.cursor - (activityPageSize - 3)
	}
	end := min(start+activityPageSize, len(m.entries))

	for i := start; i < end; i++ {
		entry := m.entries[i]
		cursor := "  "
		style := styles.InactiveItem
		if i == m.cursor {
			cursor = "> "
			style = styles.ActiveItem
		}

		kind := kindLabels[entry.Kind]
		if kind == "" {
			kind = entry.Kind
		}
		detail := lipgloss.NewStyle().Foreground(styles.Muted).Render(
			fmt.Sprintf("  %s  %s", kind, humanize.RelTime(entry.At, m.now(), "ago", "from now")))

		b.WriteString(fmt.Sprintf("%s%s\n%s\n", cursor, style.Render(entry.Name), detail))
	}

	b.WriteString("\n")
	b.WriteString(styles.StatusBar.Render("enter open • esc back"))

	return styles.Border.Render(b.String())
}
