// Package tui is the interactive lead browser. It renders the
// leadlist.Controller's snapshots in a table and translates keystrokes
// into controller events; all fetch timing (debounce, cancellation)
// stays in the controller.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"leadctl/internal/leadapi"
	"leadctl/internal/leadlist"
	"leadctl/internal/query"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	filterStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	footStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

// snapshotMsg carries fresh controller state into the event loop.
type snapshotMsg leadlist.Snapshot

type mode int

const (
	modeBrowse mode = iota
	modeSearch
	modeConfirmDelete
)

type Model struct {
	ctrl    *leadlist.Controller
	snap    leadlist.Snapshot
	filters query.Filters

	table   table.Model
	search  textinput.Model
	spinner spinner.Model

	mode      mode
	statusIdx int // 0 = any, 1.. indexes query.Statuses
	sourceIdx int // 0 = any, 1.. indexes query.Sources
	deleteID  string
	width     int

	quitting bool
	Redirect bool // session was lost; caller should suggest logging in
}

func NewModel(ctrl *leadlist.Controller) *Model {
	cols := []table.Column{
		{Title: "Name", Width: 22},
		{Title: "Email", Width: 26},
		{Title: "Company", Width: 16},
		{Title: "Status", Width: 10},
		{Title: "Source", Width: 12},
		{Title: "Score", Width: 5},
		{Title: "Value", Width: 10},
	}
	t := table.New(table.WithColumns(cols), table.WithFocused(true), table.WithHeight(15))
	st := table.DefaultStyles()
	st.Header = st.Header.Bold(true).BorderStyle(lipgloss.NormalBorder()).BorderBottom(true)
	st.Selected = st.Selected.Foreground(lipgloss.Color("229")).Background(lipgloss.Color("57"))
	t.SetStyles(st)

	search := textinput.New()
	search.Placeholder = "search name, email or company"
	search.CharLimit = 100

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return &Model{ctrl: ctrl, table: t, search: search, spinner: sp}
}

func (m *Model) Init() tea.Cmd {
	m.ctrl.Dispatch(leadlist.Mounted{})
	return m.spinner.Tick
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case snapshotMsg:
		m.snap = leadlist.Snapshot(msg)
		if m.snap.RedirectToLogin {
			m.Redirect = true
			m.quitting = true
			return m, tea.Quit
		}
		m.table.SetRows(leadRows(m.snap.Rows))
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.table.SetHeight(max(5, msg.Height-8))
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		switch m.mode {
		case modeSearch:
			return m.updateSearch(msg)
		case modeConfirmDelete:
			return m.updateConfirmDelete(msg)
		default:
			return m.updateBrowse(msg)
		}
	}
	return m, nil
}

func (m *Model) updateBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "esc", "ctrl+c":
		m.quitting = true
		return m, tea.Quit
	case "/":
		m.mode = modeSearch
		m.search.Focus()
		return m, textinput.Blink
	case "left", "h", "[":
		m.ctrl.Dispatch(leadlist.PageChanged{Page: m.snap.Page - 1})
		return m, nil
	case "right", "l", "]":
		m.ctrl.Dispatch(leadlist.PageChanged{Page: m.snap.Page + 1})
		return m, nil
	case "s":
		m.statusIdx = (m.statusIdx + 1) % (len(query.Statuses) + 1)
		m.filters.Status = pick(query.Statuses, m.statusIdx)
		m.ctrl.Dispatch(leadlist.FilterChanged{Filters: m.filters})
		return m, nil
	case "o":
		m.sourceIdx = (m.sourceIdx + 1) % (len(query.Sources) + 1)
		m.filters.Source = pick(query.Sources, m.sourceIdx)
		m.ctrl.Dispatch(leadlist.FilterChanged{Filters: m.filters})
		return m, nil
	case "r":
		m.ctrl.Dispatch(leadlist.RefreshRequested{})
		return m, nil
	case "d":
		if row := m.selectedLead(); row != nil {
			m.deleteID = row.ID
			m.mode = modeConfirmDelete
		}
		return m, nil
	}
	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m *Model) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter", "esc":
		m.mode = modeBrowse
		m.search.Blur()
		return m, nil
	case "ctrl+c":
		m.quitting = true
		return m, tea.Quit
	}
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	if m.filters.Search != m.search.Value() {
		m.filters.Search = m.search.Value()
		m.ctrl.Dispatch(leadlist.FilterChanged{Filters: m.filters})
	}
	return m, cmd
}

func (m *Model) updateConfirmDelete(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		id := m.deleteID
		m.deleteID = ""
		m.mode = modeBrowse
		return m, func() tea.Msg {
			m.ctrl.Delete(context.Background(), id)
			return nil
		}
	default:
		m.deleteID = ""
		m.mode = modeBrowse
		return m, nil
	}
}

func (m *Model) selectedLead() *leadapi.Lead {
	i := m.table.Cursor()
	if i < 0 || i >= len(m.snap.Rows) {
		return nil
	}
	return &m.snap.Rows[i]
}

func (m *Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Leads"))
	if m.snap.Loading {
		b.WriteString(" " + m.spinner.View())
	}
	b.WriteString("\n")
	b.WriteString(filterStyle.Render(m.filterLine()) + "\n\n")
	b.WriteString(m.table.View() + "\n")

	switch m.mode {
	case modeSearch:
		b.WriteString(m.search.View() + "\n")
	case modeConfirmDelete:
		if row := m.selectedLead(); row != nil {
			b.WriteString(errStyle.Render(fmt.Sprintf("Delete %s %s? (y/N)", row.FirstName, row.LastName)) + "\n")
		}
	default:
		b.WriteString(footStyle.Render(fmt.Sprintf("page %d/%d · %d leads", m.snap.Page, m.snap.TotalPages, m.snap.Total)) + "\n")
	}

	if m.snap.Err != "" {
		b.WriteString(errStyle.Render(m.snap.Err) + "\n")
	}
	b.WriteString(helpStyle.Render("/ search · s status · o source · ←/→ page · r refresh · d delete · q quit"))
	return b.String()
}

func (m *Model) filterLine() string {
	parts := []string{}
	if m.filters.Search != "" {
		parts = append(parts, "search="+m.filters.Search)
	}
	if m.filters.Status != "" {
		parts = append(parts, "status="+m.filters.Status)
	}
	if m.filters.Source != "" {
		parts = append(parts, "source="+m.filters.Source)
	}
	if len(parts) == 0 {
		return "no filters"
	}
	return strings.Join(parts, "  ")
}

func leadRows(leads []leadapi.Lead) []table.Row {
	rows := make([]table.Row, len(leads))
	for i, l := range leads {
		rows[i] = table.Row{
			strings.TrimSpace(l.FirstName + " " + l.LastName),
			l.Email,
			l.Company,
			l.Status,
			l.Source,
			fmt.Sprintf("%.0f", l.Score),
			fmt.Sprintf("%.0f", l.LeadValue),
		}
	}
	return rows
}

func pick(values []string, idx int) string {
	if idx == 0 {
		return ""
	}
	return values[idx-1]
}

// Run drives the browser until the user quits or the session is lost.
// It wires the controller's change notifications into the program's
// message loop and guarantees the controller is unmounted on exit.
func Run(api leadlist.API, gate leadlist.SessionGate, pageSize int) (redirected bool, err error) {
	ctrl := leadlist.New(api, gate, leadlist.Options{PageSize: pageSize})
	m := NewModel(ctrl)
	p := tea.NewProgram(m, tea.WithAltScreen())
	ctrl.SetOnChange(func() {
		p.Send(snapshotMsg(ctrl.Snapshot()))
	})
	defer ctrl.Dispatch(leadlist.Unmounted{})

	final, err := p.Run()
	if err != nil {
		return false, fmt.Errorf("running lead browser: %w", err)
	}
	if fm, ok := final.(*Model); ok {
		return fm.Redirect, nil
	}
	return m.Redirect, nil
}
