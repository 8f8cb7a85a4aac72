package views

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	json "github.com/goccy/go-json"

	"github.com/rendis/locallink/internal/engine/catalog"
	"github.com/rendis/locallink/internal/model"
	"github.com/rendis/locallink/internal/tui/styles"
)

type focusArea int

const (
	focusTable focusArea = iota
	focusFilter
	focusCard
	focusJSON
)

// BrowseModel displays the catalog with table + detail panels.
type BrowseModel struct {
	lib           Library
	exportDir     string
	bookmarksOnly bool
	focusID       string

	businesses []model.Business
	filtered   []model.Business
	table      table.Model
	filter     textinput.Model
	focus      focusArea
	selected   int
	width      int
	height     int
	err        error
	status     string

	// Scroll state for detail panels
	cardScrollY int
	cardLines   []string // cached rendered card lines
	jsonScrollY int
	jsonScrollX int
	jsonLines   []string // cached raw JSON lines
	jsonRaw     string   // full JSON for clipboard copy
}

type catalogLoadedMsg struct {
	Businesses []model.Business
	Err        error
}

type bookmarkToggledMsg struct {
	ID  string
	On  bool
	Err error
}

type viewRecordedMsg struct {
	ID  string
	Err error
}

func NewBrowseModel(lib Library, exportDir string, nav NavigateToBrowse) BrowseModel {
	filter := textinput.New()
	filter.Placeholder = "Type to filter..."
	filter.CharLimit = 50

	return BrowseModel{
		lib:           lib,
		exportDir:     exportDir,
		bookmarksOnly: nav.BookmarksOnly,
		focusID:       nav.Focus,
		status:        nav.Status,
		filter:        filter,
		selected:      -1,
	}
}

func (m BrowseModel) Init() tea.Cmd {
	lib := m.lib
	return func() tea.Msg {
		businesses, err := lib.LoadCatalog()
		return catalogLoadedMsg{Businesses: businesses, Err: err}
	}
}

func (m BrowseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateLayout()
	case tea.KeyMsg:
		key := msg.String()

		// Global keys
		if key == "ctrl+c" {
			return m, tea.Quit
		}

		switch m.focus {
		case focusTable:
			switch key {
			case "esc", "q":
				return m, navigate(NavigateToHome{})
			case "/", "tab":
				m.focus = focusFilter
				m.filter.Focus()
				return m, textinput.Blink
			case "1":
				m.focus = focusCard
				m.table.SetStyles(m.unfocusedTableStyles())
				return m, nil
			case "2":
				m.focus = focusJSON
				m.table.SetStyles(m.unfocusedTableStyles())
				return m, nil
			case " ", "space":
				return m, m.toggleBookmark()
			case "enter":
				m.focus = focusCard
				m.table.SetStyles(m.unfocusedTableStyles())
				return m, m.recordView()
			case "r":
				return m, navigate(NavigateToRecommend{})
			case "e":
				m.exportCSV()
				return m, nil
			}

		case focusFilter:
			switch key {
			case "esc", "enter", "tab":
				m.focus = focusTable
				m.filter.Blur()
				return m, nil
			}

		case focusCard:
			maxScroll := max(len(m.cardLines)-m.panelHeight(), 0)
			switch key {
			case "esc":
				m.focus = focusTable
				m.table.SetStyles(m.focusedTableStyles())
				return m, nil
			case "up", "k":
				if m.cardScrollY > 0 {
					m.cardScrollY--
				}
				return m, nil
			case "down", "j":
				if m.cardScrollY < maxScroll {
					m.cardScrollY++
				}
				return m, nil
			case " ", "space":
				return m, m.toggleBookmark()
			}

		case focusJSON:
			maxScroll := max(len(m.jsonLines)-m.panelHeight(), 0)
			switch key {
			case "esc":
				m.focus = focusTable
				m.table.SetStyles(m.focusedTableStyles())
				return m, nil
			case "up", "k":
				if m.jsonScrollY > 0 {
					m.jsonScrollY--
				}
				return m, nil
			case "down", "j":
				if m.jsonScrollY < maxScroll {
					m.jsonScrollY++
				}
				return m, nil
			case "left", "h":
				m.jsonScrollX = max(m.jsonScrollX-4, 0)
				return m, nil
			case "right", "l":
				m.jsonScrollX += 4
				return m, nil
			case "c":
				m.copyToClipboard()
				return m, nil
			}
		}

	case catalogLoadedMsg:
		if msg.Err != nil {
			m.err = msg.Err
			return m, nil
		}
		m.businesses = msg.Businesses
		m.applyFilter()
		if i := m.indexOf(m.focusID); i >= 0 {
			m.selectRow(i)
		}
		m.focusID = ""
		return m, nil

	case bookmarkToggledMsg:
		if msg.Err != nil {
			m.status = fmt.Sprintf("Bookmark failed: %v", msg.Err)
			return m, nil
		}
		m.setBookmarked(msg.ID, msg.On)
		if msg.On {
			m.status = "Bookmarked " + m.nameOf(msg.ID)
		} else {
			m.status = "Removed bookmark from " + m.nameOf(msg.ID)
		}
		return m, nil

	case viewRecordedMsg:
		if msg.Err != nil {
			m.status = fmt.Sprintf("Could not record view: %v", msg.Err)
		}
		return m, nil
	}

	// Route input to focused area
	var cmd tea.Cmd
	switch m.focus {
	case focusTable:
		m.table, cmd = m.table.Update(msg)
		cursor := m.table.Cursor()
		if cursor != m.selected && cursor < len(m.filtered) {
			m.selected = cursor
			m.resetScroll()
			m.cacheDetailContent()
		}
	case focusFilter:
		m.filter, cmd = m.filter.Update(msg)
		m.applyFilter()
	}

	return m, cmd
}

func (m BrowseModel) current() (model.Business, bool) {
	if m.selected < 0 || m.selected >= len(m.filtered) {
		return model.Business{}, false
	}
	return m.filtered[m.selected], true
}

func (m BrowseModel) toggleBookmark() tea.Cmd {
	biz, ok := m.current()
	if !ok {
		return nil
	}
	lib, id, on := m.lib, biz.ID, !biz.Bookmarked
	return func() tea.Msg {
		return bookmarkToggledMsg{ID: id, On: on, Err: lib.SetBookmark(id, on)}
	}
}

func (m BrowseModel) recordView() tea.Cmd {
	biz, ok := m.current()
	if !ok {
		return nil
	}
	lib, id := m.lib, biz.ID
	return func() tea.Msg {
		return viewRecordedMsg{ID: id, Err: lib.RecordView(id)}
	}
}

func (m *BrowseModel) setBookmarked(id string, on bool) {
	for i := range m.businesses {
		if m.businesses[i].ID == id {
			m.businesses[i].Bookmarked = on
		}
	}
	selectedID := ""
	if biz, ok := m.current(); ok {
		selectedID = biz.ID
	}
	m.applyFilter()
	if i := m.indexOf(selectedID); i >= 0 {
		m.selectRow(i)
	}
}

func (m BrowseModel) nameOf(id string) string {
	if b, ok := catalog.Find(m.businesses, id); ok {
		return b.Name
	}
	return id
}

func (m BrowseModel) indexOf(id string) int {
	if id == "" {
		return -1
	}
	for i, b := range m.filtered {
		if b.ID == id {
			return i
		}
	}
	return -1
}

func (m *BrowseModel) selectRow(i int) {
	m.selected = i
	m.table.SetCursor(i)
	m.resetScroll()
	m.cacheDetailContent()
}

func (m *BrowseModel) resetScroll() {
	m.cardScrollY = 0
	m.jsonScrollY = 0
	m.jsonScrollX = 0
}

func (m *BrowseModel) cacheDetailContent() {
	biz, ok := m.current()
	if !ok {
		m.cardLines = nil
		m.jsonLines = nil
		m.jsonRaw = ""
		return
	}

	m.cardLines = buildCardLines(biz)

	data, err := json.MarshalIndent(biz, "", "  ")
	if err != nil {
		m.jsonLines = []string{"JSON error"}
		m.jsonRaw = ""
		return
	}
	m.jsonRaw = string(data)
	m.jsonLines = strings.Split(m.jsonRaw, "\n")
}

func buildCardLines(biz model.Business) []string {
	var lines []string

	name := biz.Name
	if biz.Bookmarked {
		name = "★ " + name
	}
	lines = append(lines, name)

	r := biz.RatingLabel() + "★"
	if biz.ReviewCount > 0 {
		r += fmt.Sprintf(" (%s reviews)", humanize.Comma(int64(biz.ReviewCount)))
	}
	lines = append(lines, r)

	if biz.Category != "" {
		lines = append(lines, biz.Category)
	}

	lines = append(lines, "")

	addRow := func(label, value string) {
		if value != "" {
			lines = append(lines, fmt.Sprintf("%-10s %s", label, value))
		}
	}

	addRow("Address:", biz.Address)
	addRow("Phone:", biz.Phone)
	addRow("Website:", biz.Website)
	addRow("Price:", strings.Repeat("$", biz.PriceRange))
	addRow("Opened:", biz.OpenedDate)
	addRow("Tags:", strings.Join(biz.Tags, ", "))
	if biz.Deal != nil {
		deal := biz.Deal.Description
		if biz.Deal.Expires != "" {
			deal += " (until " + biz.Deal.Expires + ")"
		}
		addRow("Deal:", deal)
	}

	if biz.Description != "" {
		lines = append(lines, "")
		lines = append(lines, biz.Description)
	}

	if len(biz.Reviews) > 0 {
		lines = append(lines, "", "Reviews")
		for _, rv := range biz.Reviews {
			head := rv.UserName
			if head == "" {
				head = "Anonymous"
			}
			if rv.Rating != nil {
				head += fmt.Sprintf(" %g★", *rv.Rating)
			}
			if t, ok := rv.ParsedDate(); ok {
				head += " · " + humanize.Time(t)
			}
			lines = append(lines, head, "  "+rv.Text)
		}
	}

	return lines
}

func (m *BrowseModel) buildTable(businesses []model.Business) {
	markW := 2
	nameW := 28
	catW := 18
	ratingW := 6
	priceW := 6
	dealW := 5
	if m.width > 100 {
		extra := m.width - 100
		nameW += extra * 6 / 10
		catW += extra * 4 / 10
	}

	columns := []table.Column{
		{Title: "", Width: markW},
		{Title: "Name", Width: nameW},
		{Title: "Category", Width: catW},
		{Title: "Rating", Width: ratingW},
		{Title: "Price", Width: priceW},
		{Title: "Deal", Width: dealW},
	}

	rows := make([]table.Row, len(businesses))
	for i, b := range businesses {
		mark := ""
		if b.Bookmarked {
			mark = "★"
		}
		deal := ""
		if b.HasDeal() {
			deal = "yes"
		}
		rows[i] = table.Row{
			mark,
			truncate(b.Name, nameW),
			truncate(b.Category, catW),
			b.RatingLabel(),
			strings.Repeat("$", b.PriceRange),
			deal,
		}
	}

	height := 10
	if m.height > 0 {
		height = max(m.height/2-4, 5)
	}
	t := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithFocused(true),
		table.WithHeight(height),
	)
	if m.focus == focusCard || m.focus == focusJSON {
		t.SetStyles(m.unfocusedTableStyles())
	} else {
		t.SetStyles(m.focusedTableStyles())
	}
	if m.selected >= 0 && m.selected < len(rows) {
		t.SetCursor(m.selected)
	}
	m.table = t
}

func (m BrowseModel) focusedTableStyles() table.Styles {
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(styles.Muted).
		BorderBottom(true).
		Bold(true).
		Foreground(styles.Secondary)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("#FFFFFF")).
		Background(styles.Primary).
		Bold(true)
	return s
}

func (m BrowseModel) unfocusedTableStyles() table.Styles {
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(styles.Muted).
		BorderBottom(true).
		Bold(true).
		Foreground(styles.Muted)
	s.Selected = s.Selected.
		Foreground(styles.Text).
		Background(lipgloss.Color("#333333")).
		Bold(false)
	return s
}

func (m BrowseModel) panelHeight() int {
	return max(m.height/2-6, 6)
}

func (m *BrowseModel) updateLayout() {
	if m.width <= 0 {
		return
	}
	m.buildTable(m.filtered)
}

// base is the slice the filter searches: the whole catalog or bookmarks only.
func (m BrowseModel) base() []model.Business {
	if m.bookmarksOnly {
		return catalog.Bookmarked(m.businesses)
	}
	return m.businesses
}

func (m *BrowseModel) applyFilter() {
	raw := strings.TrimSpace(m.filter.Value())
	if raw == "" {
		m.filtered = m.base()
	} else {
		m.filtered = catalog.Search(m.base(), raw)
	}

	if len(m.filtered) > 0 {
		m.selected = 0
	} else {
		m.selected = -1
	}
	m.buildTable(m.filtered)
	m.resetScroll()
	m.cacheDetailContent()
}

func (m BrowseModel) title() string {
	if m.bookmarksOnly {
		return fmt.Sprintf("Bookmarks: %d", len(m.base()))
	}
	return fmt.Sprintf("Browse: %d businesses", len(m.businesses))
}

func (m BrowseModel) View() string {
	if m.err != nil {
		return styles.ErrorText.Render(fmt.Sprintf("Error loading catalog: %v", m.err))
	}

	var b strings.Builder

	b.WriteString(styles.Title.Render(m.title()))
	if len(m.filtered) != len(m.base()) {
		b.WriteString(lipgloss.NewStyle().Foreground(styles.Muted).
			Render(fmt.Sprintf(" (showing %d)", len(m.filtered))))
	}
	b.WriteString("\n\n")

	// Filter
	filterStyle := lipgloss.NewStyle().Foreground(styles.Muted)
	if m.focus == focusFilter {
		filterStyle = lipgloss.NewStyle().Foreground(styles.Primary)
	}
	b.WriteString(filterStyle.Render("Filter: "))
	b.WriteString(m.filter.View())
	b.WriteString("\n")

	if len(m.filtered) == 0 && m.bookmarksOnly && m.filter.Value() == "" {
		b.WriteString(lipgloss.NewStyle().Foreground(styles.Muted).Italic(true).
			Render("No bookmarks yet. Press space on a business in Browse to save it."))
		b.WriteString("\n\n")
	} else {
		b.WriteString(m.table.View())
		b.WriteString("\n\n")
	}

	// Detail panels
	detailW := max(m.width-2, 40)
	panelH := m.panelHeight()

	cardOuterW := detailW * 2 / 5
	jsonOuterW := detailW - cardOuterW - 1

	cardBorderColor := styles.Muted
	if m.focus == focusCard {
		cardBorderColor = styles.Primary
	}
	cardContent := m.viewCardPanel(max(cardOuterW-4, 20), panelH)
	cardBox := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(cardBorderColor).
		Padding(0, 1).
		Width(cardOuterW - 2).
		Height(panelH).
		Render(cardContent)
	cardLabel := lipgloss.NewStyle().Bold(true).Foreground(cardBorderColor).Render("[1] Details")
	cardBox = cardLabel + "\n" + cardBox

	jsonBorderColor := styles.Muted
	if m.focus == focusJSON {
		jsonBorderColor = styles.Primary
	}
	jsonContent := m.viewJSONPanel(max(jsonOuterW-4, 20), panelH)
	jsonBox := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(jsonBorderColor).
		Padding(0, 1).
		Width(jsonOuterW - 2).
		Height(panelH).
		Render(jsonContent)
	jsonLabel := lipgloss.NewStyle().Bold(true).Foreground(jsonBorderColor).Render("[2] JSON")
	jsonBox = jsonLabel + "\n" + jsonBox

	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, cardBox, " ", jsonBox))
	b.WriteString("\n\n")

	if m.status != "" {
		b.WriteString(lipgloss.NewStyle().Foreground(styles.Success).Render(m.status))
		b.WriteString("\n")
	}

	var statusText string
	switch m.focus {
	case focusTable:
		statusText = "↑↓ navigate • enter open • space bookmark • / filter • r recommend • e export • esc back"
	case focusFilter:
		statusText = "type to filter • esc back"
	case focusCard:
		statusText = "↑↓ scroll • space bookmark • esc back to table"
	case focusJSON:
		statusText = "↑↓ scroll • ←→ pan • c copy json • esc back to table"
	}
	b.WriteString(styles.StatusBar.Render(statusText))

	return b.String()
}

func (m BrowseModel) viewCardPanel(w, h int) string {
	if _, ok := m.current(); !ok || len(m.cardLines) == 0 {
		return lipgloss.NewStyle().Foreground(styles.Muted).Italic(true).
			Render("Select a business\nto view details")
	}

	lines := m.cardLines
	scrollY, end := window(len(lines), m.cardScrollY, h)
	visible := lines[scrollY:end]

	var sb strings.Builder
	label := lipgloss.NewStyle().Foreground(styles.Muted)
	valStyle := lipgloss.NewStyle().Foreground(styles.Text)

	for i, line := range visible {
		switch {
		case scrollY+i == 0:
			sb.WriteString(lipgloss.NewStyle().Bold(true).Foreground(styles.Text).
				Render(truncate(line, w)))
		case scrollY+i == 1:
			sb.WriteString(lipgloss.NewStyle().Foreground(styles.Warning).
				Render(truncate(line, w)))
		case strings.HasPrefix(line, "Website:"), strings.HasPrefix(line, "Deal:"):
			lbl, val, _ := strings.Cut(line, " ")
			sb.WriteString(label.Render(fmt.Sprintf("%-10s ", lbl)))
			sb.WriteString(lipgloss.NewStyle().Foreground(styles.Primary).
				Render(truncate(strings.TrimSpace(val), w-11)))
		default:
			sb.WriteString(valStyle.Render(truncate(line, w)))
		}
		if i < len(visible)-1 {
			sb.WriteString("\n")
		}
	}

	if scrollY > 0 {
		sb.WriteString("\n")
		sb.WriteString(label.Render("  ▲ more above"))
	}
	if end < len(lines) {
		sb.WriteString("\n")
		sb.WriteString(label.Render("  ▼ more below"))
	}

	return sb.String()
}

func (m BrowseModel) viewJSONPanel(w, h int) string {
	if _, ok := m.current(); !ok || len(m.jsonLines) == 0 {
		return lipgloss.NewStyle().Foreground(styles.Muted).Italic(true).
			Render("Select a business\nto view JSON")
	}

	lines := m.jsonLines
	jsonStyle := lipgloss.NewStyle().Foreground(styles.Muted)
	keyStyle := lipgloss.NewStyle().Foreground(styles.Secondary)
	strStyle := lipgloss.NewStyle().Foreground(styles.Success)

	scrollY, end := window(len(lines), m.jsonScrollY, h)
	visible := lines[scrollY:end]

	var sb strings.Builder
	for i, line := range visible {
		display := []rune(line)
		if m.jsonScrollX > 0 {
			if m.jsonScrollX < len(display) {
				display = display[m.jsonScrollX:]
			} else {
				display = nil
			}
		}
		text := truncate(string(display), w)

		trimmed := strings.TrimSpace(text)
		colonIdx := strings.Index(text, "\":")
		if strings.HasPrefix(trimmed, "\"") && colonIdx > 0 {
			sb.WriteString(keyStyle.Render(text[:colonIdx+1]))
			sb.WriteString(strStyle.Render(text[colonIdx+1:]))
		} else {
			sb.WriteString(jsonStyle.Render(text))
		}

		if i < len(visible)-1 {
			sb.WriteString("\n")
		}
	}

	if scrollY > 0 || end < len(lines) {
		sb.WriteString("\n")
		indicator := fmt.Sprintf("  [%d/%d]", scrollY+1, len(lines))
		if m.jsonScrollX > 0 {
			indicator += fmt.Sprintf(" ←%d", m.jsonScrollX)
		}
		sb.WriteString(lipgloss.NewStyle().Foreground(styles.Muted).Render(indicator))
	}

	return sb.String()
}

// window clamps a scroll offset and returns the visible [start, end) range.
func window(total, offset, height int) (int, int) {
	start := min(offset, total-height)
	start = max(start, 0)
	return start, min(start+height, total)
}

func (m *BrowseModel) copyToClipboard() {
	if m.jsonRaw == "" {
		return
	}
	cmd := exec.Command("pbcopy")
	cmd.Stdin = strings.NewReader(m.jsonRaw)
	if err := cmd.Run(); err != nil {
		m.status = fmt.Sprintf("Copy failed: %v", err)
		return
	}
	m.status = "JSON copied to clipboard"
}

func truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-1]) + "…"
}

func (m *BrowseModel) exportCSV() {
	name := "locallink.csv"
	if m.bookmarksOnly {
		name = "locallink-bookmarks.csv"
	}
	csvPath := filepath.Join(m.exportDir, name)

	data := m.filtered
	if len(data) == 0 {
		data = m.base()
	}

	f, err := os.Create(csvPath)
	if err != nil {
		m.status = fmt.Sprintf("Export error: %v", err)
		return
	}
	defer f.Close()

	if err := catalog.WriteCSV(f, data); err != nil {
		m.status = fmt.Sprintf("Export error: %v", err)
		return
	}
	m.status = fmt.Sprintf("Exported %d rows to %s", len(data), csvPath)
}
