package tui

import (
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/pithecene-io/battlelog/metrics"
	"github.com/pithecene-io/battlelog/stats"
)

// maxBreakdownRows caps the per-event table.
const maxBreakdownRows = 10

// StatsModel is a Bubble Tea model for stats views.
type StatsModel struct {
	viewType string
	data     any
	width    int
	height   int
	quitting bool
}

// NewStatsModel creates a new stats model.
func NewStatsModel(viewType string, data any) StatsModel {
	return StatsModel{
		viewType: viewType,
		data:     data,
	}
}

// Init implements tea.Model.
func (m StatsModel) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m StatsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, keys.Quit) {
			m.quitting = true
			return m, tea.Quit
		}
	}

	return m, nil
}

// View implements tea.Model.
func (m StatsModel) View() string {
	if m.quitting {
		return ""
	}

	var content string
	switch m.viewType {
	case ViewStatsBattle, ViewStatsLive:
		content = m.renderSummary()
	case ViewStatsSession:
		content = m.renderSession()
	default:
		content = fmt.Sprintf("Unknown view type: %s", m.viewType)
	}

	help := HelpStyle.Render("Press q or Ctrl+C to quit")
	return content + "\n" + help
}

func (m StatsModel) renderSummary() string {
	data, ok := m.data.(*stats.Summary)
	if !ok {
		return "Invalid data type for " + m.viewType
	}

	var b strings.Builder
	title := "Live Battle Statistics"
	if m.viewType == ViewStatsBattle {
		title = fmt.Sprintf("Battle #%d Statistics", data.ID)
	}
	b.WriteString(TitleStyle.Render(title))
	b.WriteString("\n")

	if data.BattleType != "" {
		fmt.Fprintf(&b, "%s %s\n", LabelStyle.Render("Battle Type:"),
			ValueStyle.Render(fmt.Sprintf("%s (round %d / %d)", data.BattleType, data.LastRound, data.MaxRound)))
	}
	fmt.Fprintf(&b, "%s %s\n\n", LabelStyle.Render("Duration:"), ValueStyle.Render(data.Duration))

	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		m.renderStatBox("Entries", fmt.Sprintf("%d", data.Entries), highlightColor),
		m.renderStatBox("Kills", fmt.Sprintf("%d", data.Kills), successColor),
		m.renderStatBox("Failures", fmt.Sprintf("%d", data.ParseFailures), errorColor),
	))
	b.WriteString("\n")
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		m.renderStatBox("Dealt", formatAmount(data.DamageDealt), primaryColor),
		m.renderStatBox("Taken", formatAmount(data.DamageTaken), warningColor),
		m.renderStatBox("Healed", formatAmount(data.Healed), successColor),
	))
	b.WriteString("\n\n")

	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		BoxStyle.Render(renderRounds(data)),
		BoxStyle.Render(renderBreakdown(data)),
	))

	if len(data.Drops) > 0 {
		b.WriteString("\n")
		b.WriteString(LabelStyle.Render("Drops:"))
		b.WriteString("\n")
		for _, d := range data.Drops {
			fmt.Fprintf(&b, "  • %s\n", ValueStyle.Render(d))
		}
	}

	return b.String()
}

// renderRounds merges the heal and damage series into one table.
func renderRounds(data *stats.Summary) string {
	type row struct{ dealt, taken, healed float64 }
	rows := make(map[int]*row)
	var order []int
	get := func(round int) *row {
		r, ok := rows[round]
		if !ok {
			r = &row{}
			rows[round] = r
			order = append(order, round)
		}
		return r
	}
	for _, d := range data.Damage {
		r := get(d.Round)
		r.dealt, r.taken = d.Dealt, d.Taken
	}
	for _, h := range data.Heal {
		get(h.Round).healed = h.Value
	}

	var b strings.Builder
	b.WriteString(TitleStyle.Render("Per Round"))
	b.WriteString("\n")
	if len(order) == 0 {
		b.WriteString(HelpStyle.Render("(no rounds)"))
		return b.String()
	}
	fmt.Fprintf(&b, "%-6s %10s %10s %10s\n", "round", "dealt", "taken", "healed")
	slices.Sort(order)
	for _, round := range order {
		r := rows[round]
		fmt.Fprintf(&b, "%-6d %10s %10s %10s\n", round,
			formatAmount(r.dealt), formatAmount(r.taken), formatAmount(r.healed))
	}
	return strings.TrimRight(b.String(), "\n")
}

func renderBreakdown(data *stats.Summary) string {
	var b strings.Builder
	b.WriteString(TitleStyle.Render("Events"))
	b.WriteString("\n")

	breakdown := data.Breakdown()
	if len(breakdown) == 0 {
		b.WriteString(HelpStyle.Render("(no events)"))
		return b.String()
	}
	for i, ec := range breakdown {
		if i == maxBreakdownRows {
			b.WriteString(HelpStyle.Render(fmt.Sprintf("… %d more", len(breakdown)-i)))
			break
		}
		fmt.Fprintf(&b, "%s %6d\n", EventNameStyle.Render(ec.Event), ec.Count)
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m StatsModel) renderSession() string {
	data, ok := m.data.(*metrics.Snapshot)
	if !ok {
		return "Invalid data type for " + m.viewType
	}

	var b strings.Builder
	b.WriteString(TitleStyle.Render("Session Statistics"))
	b.WriteString("\n")
	fmt.Fprintf(&b, "%s %s\n", LabelStyle.Render("Session:"), ValueStyle.Render(data.SessionID))
	fmt.Fprintf(&b, "%s %s\n\n", LabelStyle.Render("Source:"), ValueStyle.Render(data.Source))

	count := func(n int64) string { return fmt.Sprintf("%d", n) }
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		m.renderStatBox("Lines", count(data.LinesReceived), highlightColor),
		m.renderStatBox("Events", count(data.EventsParsed), successColor),
		m.renderStatBox("Failures", count(data.ParseFailures), errorColor),
	))
	b.WriteString("\n")
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		m.renderStatBox("Battles", count(data.ArchivesWritten), primaryColor),
		m.renderStatBox("Duplicates", count(data.DuplicateBatches), warningColor),
		m.renderStatBox("Reloads", count(data.Reloads), warningColor),
	))
	b.WriteString("\n")
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		m.renderStatBox("Exported", count(data.LodeWriteSuccess), successColor),
		m.renderStatBox("Published", count(data.PublishSuccess), successColor),
		m.renderStatBox("Hook Errors", count(data.LodeWriteFailure+data.PublishFailure), errorColor),
	))

	return b.String()
}

func (m StatsModel) renderStatBox(label, value string, color lipgloss.Color) string {
	boxStyle := StatBoxStyle.BorderForeground(color)

	valueStr := StatValueStyle.Foreground(color).Render(value)
	labelStr := StatLabelStyle.Render(label)

	content := lipgloss.JoinVertical(lipgloss.Center, valueStr, labelStr)

	return boxStyle.Render(content)
}

// formatAmount prints whole numbers without a fraction.
func formatAmount(v float64) string {
	if v == float64(int64(v)) {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%.1f", v)
}

// RunStatsTUI runs the stats TUI.
func RunStatsTUI(viewType string, data any) error {
	model := NewStatsModel(viewType, data)
	p := tea.NewProgram(model, tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// RenderStatsStatic renders stats data without full TUI (for fallback).
func RenderStatsStatic(viewType string, data any) string {
	model := NewStatsModel(viewType, data)
	model.width = 80
	model.height = 24
	return lipgloss.NewStyle().Padding(1, 2).Render(model.View())
}
