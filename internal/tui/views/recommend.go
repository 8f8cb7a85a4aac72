package views

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/rendis/locallink/internal/engine/recommend"
	"github.com/rendis/locallink/internal/model"
	"github.com/rendis/locallink/internal/tui/styles"
)

var basisLabels = map[recommend.Basis]string{
	recommend.BasisNoData:      "No businesses to recommend yet",
	recommend.BasisTopRated:    "No reviews yet, showing top-rated businesses",
	recommend.BasisReviews:     "Ranked by review quality and recency",
	recommend.BasisColdStart:   "Bookmark or view a few places to personalize",
	recommend.BasisPreferences: "Based on your bookmarks and views",
}

// RecommendModel lists ranked picks for the active strategy.
type RecommendModel struct {
	lib      Library
	signals  recommend.SignalSource
	scorer   *recommend.Scorer
	strategy recommend.Strategy
	now      func() time.Time

	list   recommend.RankedList
	loaded bool
	table  table.Model
	cursor int
	width  int
	height int
	err    error
}

type recommendationsMsg struct {
	List recommend.RankedList
	Err  error
}

func NewRecommendModel(lib Library, signals recommend.SignalSource, scorer *recommend.Scorer, strategy recommend.Strategy) RecommendModel {
	if strategy == "" {
		strategy = recommend.StrategyReviews
	}
	return RecommendModel{
		lib:      lib,
		signals:  signals,
		scorer:   scorer,
		strategy: strategy,
		now:      time.Now,
	}
}

// Strategy reports the active strategy so it survives navigation.
func (m RecommendModel) Strategy() recommend.Strategy {
	return m.strategy
}

func (m RecommendModel) Init() tea.Cmd {
	return m.compute()
}

func (m RecommendModel) compute() tea.Cmd {
	lib, signals, scorer, strategy := m.lib, m.signals, m.scorer, m.strategy
	return func() tea.Msg {
		businesses, err := lib.LoadCatalog()
		if err != nil {
			return recommendationsMsg{Err: err}
		}
		return recommendationsMsg{List: scorer.Recommend(strategy, businesses, signals)}
	}
}

func (m RecommendModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.buildTable()
	case recommendationsMsg:
		m.loaded = true
		m.err = msg.Err
		m.list = msg.List
		m.cursor = 0
		m.buildTable()
		return m, nil
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "esc", "q":
			return m, navigate(NavigateToHome{})
		case "tab":
			m.strategy = nextStrategy(m.strategy)
			m.loaded = false
			return m, m.compute()
		case "enter":
			rec, ok := m.current()
			if !ok {
				return m, nil
			}
			m.scorer.RecordInteraction(rec.Business.ID, model.KindRecommendationView)
			return m, navigate(NavigateToBrowse{Focus: rec.Business.ID})
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	m.cursor = m.table.Cursor()
	return m, cmd
}

func nextStrategy(s recommend.Strategy) recommend.Strategy {
	if s == recommend.StrategyReviews {
		return recommend.StrategyPreferences
	}
	return recommend.StrategyReviews
}

func (m RecommendModel) current() (recommend.Recommendation, bool) {
	if m.cursor < 0 || m.cursor >= len(m.list.Items) {
		return recommend.Recommendation{}, false
	}
	return m.list.Items[m.cursor], true
}

func (m *RecommendModel) buildTable() {
	nameW := 26
	reasonW := 44
	if m.width > 100 {
		extra := m.width - 100
		nameW += extra * 3 / 10
		reasonW += extra * 7 / 10
	}

	columns := []table.Column{
		{Title: "#", Width: 2},
		{Title: "Name", Width: nameW},
		{Title: "Score", Width: 5},
		{Title: "Deal", Width: 4},
		{Title: "Why", Width: reasonW},
	}

	rows := make([]table.Row, len(m.list.Items))
	for i, rec := range m.list.Items {
		deal := ""
		if rec.Business.HasDeal() {
			deal = "yes"
		}
		rows[i] = table.Row{
			strconv.Itoa(i + 1),
			truncate(rec.Business.Name, nameW),
			strconv.Itoa(rec.Score),
			deal,
			truncate(rec.Reason, reasonW),
		}
	}

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

	t := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithFocused(true),
		table.WithHeight(recommend.MaxResults+1),
		table.WithStyles(s),
	)
	if m.cursor < len(rows) {
		t.SetCursor(m.cursor)
	}
	m.table = t
}

func (m RecommendModel) View() string {
	var b strings.Builder

	tabs := []string{}
	for _, s := range []recommend.Strategy{recommend.StrategyReviews, recommend.StrategyPreferences} {
		label := strings.ToUpper(string(s[:1])) + string(s[1:])
		if s == m.strategy {
			tabs = append(tabs, styles.ActiveItem.Render("["+label+"]"))
		} else {
			tabs = append(tabs, styles.InactiveItem.Render(" "+label+" "))
		}
	}
	b.WriteString(styles.Title.Render("Recommended for you"))
	b.WriteString("\n")
	b.WriteString(strings.Join(tabs, " "))
	b.WriteString("\n\n")

	switch {
	case m.err != nil:
		b.WriteString(styles.ErrorText.Render(fmt.Sprintf("Error: %v", m.err)))
		b.WriteString("\n")
	case !m.loaded:
		b.WriteString(lipgloss.NewStyle().Foreground(styles.Muted).Render("Scoring..."))
		b.WriteString("\n")
	default:
		b.WriteString(styles.Subtitle.Render(basisLabels[m.list.Basis]))
		b.WriteString("\n\n")
		if len(m.list.Items) > 0 {
			b.WriteString(m.table.View())
			b.WriteString("\n\n")
			b.WriteString(m.viewDetail())
		} else {
			b.WriteString(lipgloss.NewStyle().Foreground(styles.Muted).Italic(true).
				Render("Nothing scores high enough yet."))
			b.WriteString("\n")
		}
	}

	b.WriteString(styles.StatusBar.Render("↑↓ navigate • tab switch strategy • enter open • esc back"))
	return styles.Border.Render(b.String())
}

func (m RecommendModel) viewDetail() string {
	rec, ok := m.current()
	if !ok {
		return ""
	}

	label := lipgloss.NewStyle().Foreground(styles.Muted)
	var lines []string
	lines = append(lines, lipgloss.NewStyle().Bold(true).Foreground(styles.Text).Render(rec.Business.Name))
	lines = append(lines, lipgloss.NewStyle().Foreground(styles.Warning).Render(rec.Reason))
	if rec.Snippet != "" {
		lines = append(lines, lipgloss.NewStyle().Italic(true).Foreground(styles.Text).Render("“"+rec.Snippet+"”"))
	}
	if rec.MostRecent != "" {
		when := rec.MostRecent
		if t, err := time.Parse(time.DateOnly, rec.MostRecent); err == nil {
			when = humanize.RelTime(t, m.now(), "ago", "from now")
		}
		lines = append(lines, label.Render("Latest review: "+when))
	}
	if d := rec.Business.Deal; d != nil {
		lines = append(lines, lipgloss.NewStyle().Foreground(styles.Success).Render("Deal: "+d.Description))
	}
	return strings.Join(lines, "\n") + "\n"
}
