package views

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/rendis/locallink/internal/engine/catalog"
	"github.com/rendis/locallink/internal/tui/styles"
)

// FilePickerModel browses the filesystem for a listings .json file and
// imports it into the library.
type FilePickerModel struct {
	lib       Library
	dir       string
	files     []os.DirEntry
	cursor    int
	importing bool
	err       error
}

type importFailedMsg struct {
	Err error
}

func NewFilePickerModel(lib Library, dir string) FilePickerModel {
	if dir == "" {
		dir, _ = os.Getwd()
	}
	m := FilePickerModel{lib: lib, dir: dir}
	m.loadDir()
	return m
}

func (m *FilePickerModel) loadDir() {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		m.err = err
		return
	}

	m.err = nil
	m.files = nil
	for _, e := range entries {
		name := e.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}
		if e.IsDir() || strings.EqualFold(filepath.Ext(name), ".json") {
			m.files = append(m.files, e)
		}
	}
	m.cursor = 0
}

func (m FilePickerModel) Init() tea.Cmd {
	return nil
}

func (m FilePickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case importFailedMsg:
		m.importing = false
		m.err = msg.Err
	case tea.KeyMsg:
		if m.importing {
			return m, nil
		}
		switch msg.String() {
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.files)-1 {
				m.cursor++
			}
		case "enter":
			if m.cursor < len(m.files) {
				entry := m.files[m.cursor]
				fullPath := filepath.Join(m.dir, entry.Name())
				if entry.IsDir() {
					m.dir = fullPath
					m.loadDir()
					return m, nil
				}
				m.importing = true
				return m, importFile(m.lib, fullPath)
			}
		case "backspace":
			parent := filepath.Dir(m.dir)
			if parent != m.dir {
				m.dir = parent
				m.loadDir()
			}
		case "esc":
			return m, navigate(NavigateToHome{})
		}
	}
	return m, nil
}

func importFile(lib Library, path string) tea.Cmd {
	return func() tea.Msg {
		businesses, issues, err := catalog.LoadFile(path)
		if err != nil {
			return importFailedMsg{Err: err}
		}
		n, err := lib.InsertBatch(businesses)
		if err != nil {
			return importFailedMsg{Err: err}
		}
		status := fmt.Sprintf("Imported %d listings from %s", n, filepath.Base(path))
		if len(issues) > 0 {
			status += fmt.Sprintf(" (%d malformed entries or fields skipped)", len(issues))
		}
		return NavigateToBrowse{Status: status}
	}
}

func (m FilePickerModel) View() string {
	var b strings.Builder

	b.WriteString(styles.Title.Render("Import Listings"))
	b.WriteString("\n")
	b.WriteString(lipgloss.NewStyle().Foreground(styles.Muted).Render(m.dir))
	b.WriteString("\n\n")

	if m.err != nil {
		b.WriteString(styles.ErrorText.Render(fmt.Sprintf("Error: %v", m.err)))
		b.WriteString("\n\n")
	}

	if m.importing {
		b.WriteString(lipgloss.NewStyle().Foreground(styles.Secondary).Render("Importing..."))
		return styles.Border.Render(b.String())
	}

	if len(m.files) == 0 {
		b.WriteString(lipgloss.NewStyle().Foreground(styles.Muted).Italic(true).
			Render("No .json files or directories found"))
	}

	// Show max 15 items
	start := 0
	if m.cursor > 12 {
		start = m.cursor - 12
	}
	end := min(start+15, len(m.files))

	for i := start; i < end; i++ {
		entry := m.files[i]
		cursor := "  "
		style := styles.InactiveItem
		if i == m.cursor {
			cursor = "> "
			style = styles.ActiveItem
		}

		icon := "📄 "
		if entry.IsDir() {
			icon = "📁 "
		}

		b.WriteString(fmt.Sprintf("%s%s%s\n", cursor, icon, style.Render(entry.Name())))
	}

	b.WriteString("\n")
	b.WriteString(styles.StatusBar.Render("enter open/import • backspace parent dir • esc back"))

	return styles.Border.Render(b.String())
}
