// Package model holds the bubbletea models for the dashboard TUI.
package model

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/bnema/streakwatch/internal/cli/styles"
	"github.com/bnema/streakwatch/internal/rules"
	"github.com/bnema/streakwatch/internal/storage"
	"github.com/bnema/streakwatch/internal/streak"
)

// DashboardModel displays the streak summary, the detection calendar and
// the custom blocked site list.
type DashboardModel struct {
	state   *storage.PersistedState
	summary streak.Summary
	today   string
	visited map[string]bool

	month   time.Time
	table   table.Model
	loading bool
	err     error
	width   int
	height  int

	store storage.Store
	theme *styles.Theme
}

// NewDashboardModel creates the dashboard model.
func NewDashboardModel(theme *styles.Theme, store storage.Store) DashboardModel {
	now := time.Now().UTC()
	return DashboardModel{
		store:   store,
		theme:   theme,
		loading: true,
		month:   time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC),
		width:   80,
		height:  24,
	}
}

// stateLoadedMsg is sent when the persisted state is loaded.
type stateLoadedMsg struct {
	state storage.PersistedState
	err   error
}

// Init implements tea.Model.
func (m DashboardModel) Init() tea.Cmd {
	return m.loadState
}

func (m DashboardModel) loadState() tea.Msg {
	st, err := m.store.Load(context.Background())
	return stateLoadedMsg{state: st, err: err}
}

// Update implements tea.Model.
func (m DashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateTable()

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "left", "h":
			m.month = m.month.AddDate(0, -1, 0)
		case "right", "l":
			m.month = m.month.AddDate(0, 1, 0)
		case "r":
			m.loading = true
			return m, m.loadState
		default:
			var cmd tea.Cmd
			m.table, cmd = m.table.Update(msg)
			return m, cmd
		}

	case stateLoadedMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			break
		}
		st := msg.state
		m.state = &st
		m.today = streak.Today(time.Now())
		m.summary = streak.ComputeStreak(st, m.today)
		m.visited = make(map[string]bool, len(st.VisitHistory))
		for _, d := range st.VisitHistory {
			m.visited[d] = true
		}
		m.updateTable()
	}

	return m, nil
}

func (m *DashboardModel) updateTable() {
	if m.state == nil {
		return
	}

	rows := make([]table.Row, len(m.state.CustomSites))
	for i, site := range m.state.CustomSites {
		rows[i] = styles.SiteRow(rules.CustomIDBase+i, site)
	}

	tableHeight := len(rows)
	if tableHeight > m.height-16 {
		tableHeight = m.height - 16
	}
	if tableHeight < 3 {
		tableHeight = 3
	}

	m.table = styles.NewStyledTable(m.theme, styles.SitesTableColumns(), rows, m.width-4, tableHeight)
}

// View implements tea.Model.
func (m DashboardModel) View() string {
	t := m.theme

	if m.loading {
		spinner := styles.NewLoading(t, "Loading streak data...")
		return t.Box.Render(spinner.View())
	}

	if m.err != nil {
		return t.Box.Render(t.ErrorStyle.Render("Error: " + m.err.Error()))
	}

	if m.state == nil {
		return t.Box.Render(t.Subtle.Render("No data available"))
	}

	header := lipgloss.JoinVertical(
		lipgloss.Left,
		t.Title.Render("Clean Streak"),
		"",
		lipgloss.JoinHorizontal(
			lipgloss.Top,
			m.streakBadge(),
			" ",
			t.BadgeMuted.Render(fmt.Sprintf("%d detection day(s)", len(m.state.VisitHistory))),
			" ",
			t.BadgeMuted.Render(fmt.Sprintf("%d custom site(s)", len(m.state.CustomSites))),
		),
	)

	calendarView := styles.RenderCalendar(t, m.month, m.visited, m.today)

	content := lipgloss.JoinVertical(
		lipgloss.Left,
		header,
		"",
		t.Subtitle.Render("Detections"),
		calendarView,
	)

	if len(m.state.CustomSites) > 0 {
		content = lipgloss.JoinVertical(
			lipgloss.Left,
			content,
			t.Subtitle.Render("Blocked Sites"),
			m.table.View(),
		)
	}

	help := lipgloss.JoinHorizontal(
		lipgloss.Top,
		t.HelpKey.Render("←/→"), t.HelpDesc.Render(" month  "),
		t.HelpKey.Render("r"), t.HelpDesc.Render(" reload  "),
		t.HelpKey.Render("q"), t.HelpDesc.Render(" quit"),
	)

	return lipgloss.JoinVertical(lipgloss.Left, content, "", help)
}

func (m DashboardModel) streakBadge() string {
	t := m.theme
	if m.summary.StreakDays == nil {
		return t.BadgeMuted.Render("no detections yet")
	}
	days := *m.summary.StreakDays
	if days == 0 {
		return t.BadgeAlert.Render("streak broken today")
	}
	return t.Badge.Render(fmt.Sprintf("%d day(s) clean", days))
}

// Ensure interface compliance.
var _ tea.Model = (*DashboardModel)(nil)
