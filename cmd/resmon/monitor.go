package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/openglass/resourced/registry"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#87CEEB"))

	releasedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	failedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	collectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFD700"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

const historyPanelSize = 8

type tickMsg time.Time

type monitorModel struct {
	reg      *registry.Registry
	keep     *demoSet
	interval time.Duration
	table    table.Model
	width    int
	shutdown bool
}

func newMonitorModel(reg *registry.Registry, keep *demoSet, interval time.Duration) *monitorModel {
	columns := []table.Column{
		{Title: "ID", Width: 24},
		{Title: "Type", Width: 14},
		{Title: "Group", Width: 12},
		{Title: "Refs", Width: 4},
		{Title: "Age", Width: 8},
		{Title: "Description", Width: 28},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(12),
	)
	styles := table.DefaultStyles()
	styles.Header = styles.Header.Bold(true).Foreground(lipgloss.Color("#87CEEB"))
	styles.Selected = styles.Selected.
		Foreground(lipgloss.Color("#FAFAFA")).
		Background(lipgloss.Color("#7D56F4"))
	t.SetStyles(styles)

	m := &monitorModel{
		reg:      reg,
		keep:     keep,
		interval: interval,
		table:    t,
	}
	m.refresh()
	return m
}

func (m *monitorModel) Init() tea.Cmd {
	return m.tick()
}

func (m *monitorModel) tick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m *monitorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		if h := msg.Height - historyPanelSize - 8; h > 3 {
			m.table.SetHeight(h)
		}

	case tickMsg:
		m.refresh()
		return m, m.tick()

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit

		case "q":
			// First q tears everything down so the history panel shows the
			// ordered releases; second q leaves.
			if m.shutdown {
				return m, tea.Quit
			}
			m.reg.Shutdown()
			m.shutdown = true
			m.refresh()

		case "c":
			m.reg.CleanupAll()
			m.refresh()

		case "p":
			m.reg.PurgeCollected()
			m.refresh()

		case "d":
			if row := m.table.SelectedRow(); row != nil {
				m.reg.Unregister(row[0], true)
				m.refresh()
			}
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

// refresh rebuilds the table from the last published snapshot. Reads never
// block on mutations, so this stays cheap even mid-cleanup.
func (m *monitorModel) refresh() {
	snap := m.reg.Snapshot()
	rows := make([]table.Row, 0, snap.Len())
	for _, rec := range snap.Records {
		rows = append(rows, table.Row{
			rec.ID,
			rec.Type.String(),
			rec.Group.String(),
			fmt.Sprintf("%d", rec.Refs),
			time.Since(rec.CreatedAt).Truncate(time.Second).String(),
			rec.Description,
		})
	}
	m.table.SetRows(rows)
}

func (m *monitorModel) View() string {
	var b strings.Builder

	snap := m.reg.Snapshot()
	b.WriteString(titleStyle.Render("resmon"))
	b.WriteString(fmt.Sprintf("  %d live resources, generation %d", snap.Len(), snap.Gen))
	if m.shutdown {
		b.WriteString(failedStyle.Render("  [shut down]"))
	}
	b.WriteString("\n\n")

	b.WriteString(m.table.View())
	b.WriteString("\n\n")

	b.WriteString(headerStyle.Render("Cleanup history"))
	b.WriteString("\n")
	hist := m.reg.History()
	if len(hist) == 0 {
		b.WriteString(helpStyle.Render("  (nothing released yet)"))
		b.WriteString("\n")
	}
	start := 0
	if len(hist) > historyPanelSize {
		start = len(hist) - historyPanelSize
	}
	for _, info := range hist[start:] {
		b.WriteString("  ")
		b.WriteString(formatRelease(info))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(helpStyle.Render("↑/↓ select • d release • c cleanup all • p purge • q shutdown/quit"))
	return b.String()
}

func formatRelease(info registry.ReleaseInfo) string {
	line := fmt.Sprintf("%-10s %-12s %s", info.Outcome, info.Group.String(), info.ID)
	switch info.Outcome {
	case registry.OutcomeFailed:
		return failedStyle.Render(line + "  " + info.Err)
	case registry.OutcomeCollected:
		return collectedStyle.Render(line)
	default:
		return releasedStyle.Render(line)
	}
}

func runMonitor(reg *registry.Registry, keep *demoSet, interval time.Duration) error {
	p := tea.NewProgram(newMonitorModel(reg, keep, interval), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
