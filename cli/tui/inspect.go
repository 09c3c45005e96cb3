package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/pithecene-io/battlelog/cli/reader"
)

// headerLines is the height reserved for the battle header and help line.
const headerLines = 14

// InspectModel is a Bubble Tea model for inspect views. The entry list
// scrolls; everything else is static.
type InspectModel struct {
	viewType string
	data     any
	width    int
	height   int
	offset   int
	quitting bool
}

// NewInspectModel creates a new inspect model.
func NewInspectModel(viewType string, data any) InspectModel {
	return InspectModel{
		viewType: viewType,
		data:     data,
	}
}

// Init implements tea.Model.
func (m InspectModel) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m InspectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.offset = m.clamp(m.offset)
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, keys.Down):
			m.offset = m.clamp(m.offset + 1)
		case key.Matches(msg, keys.Up):
			m.offset = m.clamp(m.offset - 1)
		case key.Matches(msg, keys.PageDown):
			m.offset = m.clamp(m.offset + m.pageSize())
		case key.Matches(msg, keys.PageUp):
			m.offset = m.clamp(m.offset - m.pageSize())
		case key.Matches(msg, keys.Top):
			m.offset = 0
		case key.Matches(msg, keys.Bottom):
			m.offset = m.clamp(m.entryCount())
		}
	}

	return m, nil
}

// View implements tea.Model.
func (m InspectModel) View() string {
	if m.quitting {
		return ""
	}

	var content string
	switch m.viewType {
	case ViewInspectBattle, ViewInspectLive:
		content = m.renderBattle()
	default:
		content = fmt.Sprintf("Unknown view type: %s", m.viewType)
	}

	help := HelpStyle.Render("↑/↓ scroll • pgup/pgdn page • g/G top/bottom • q quit")
	return content + "\n" + help
}

func (m InspectModel) renderBattle() string {
	data, ok := m.data.(*reader.InspectBattleResponse)
	if !ok {
		return "Invalid data type for " + m.viewType
	}

	var b strings.Builder
	title := fmt.Sprintf("Battle #%d", data.ID)
	if data.Live {
		title = "Live Battle"
	}
	b.WriteString(TitleStyle.Render(title))
	b.WriteString("\n")

	battleType := data.BattleType
	if battleType == "" {
		battleType = "(unknown)"
	}
	status := "archived"
	if data.Live {
		status = "live"
	}

	rows := [][2]string{
		{"Battle Type", battleType},
		{"Start", data.Start.Local().Format("2006-01-02 15:04:05")},
		{"Last Update", data.LastUpdate.Local().Format("2006-01-02 15:04:05")},
		{"Duration", data.Duration},
		{"Entries", fmt.Sprintf("%d", data.EntryCount)},
	}
	if data.Hash != nil && !data.Hash.IsSentinel() {
		rows = append(rows, [2]string{"Round", fmt.Sprintf("%d / %d", data.Hash.CurrentRound, data.Hash.MaxRound)})
	}

	fmt.Fprintf(&b, "%s %s\n", LabelStyle.Render("Status:"), LiveStyle(data.Live).Render(status))
	for _, row := range rows {
		fmt.Fprintf(&b, "%s %s\n", LabelStyle.Render(row[0]+":"), ValueStyle.Render(row[1]))
	}
	header := BoxStyle.Render(b.String())

	return lipgloss.JoinVertical(lipgloss.Left, header, m.renderEntries(data.Entries))
}

func (m InspectModel) renderEntries(entries []reader.EntryView) string {
	if len(entries) == 0 {
		return HelpStyle.Render("(no entries)")
	}

	end := min(m.offset+m.pageSize(), len(entries))
	var b strings.Builder
	for _, e := range entries[m.offset:end] {
		name := e.Event
		if name == "" {
			name = "-"
		}
		text := e.Text
		if r := []rune(text); m.width > 40 && len(r) > m.width-32 {
			text = string(r[:m.width-35]) + "..."
		}
		fmt.Fprintf(&b, "%s  %s %s\n",
			SeqStyle.Render(fmt.Sprintf("%d", e.Seq)),
			EventNameStyle.Render(name),
			EntryStyle(e.Type).Render(text))
	}
	fmt.Fprintf(&b, "%s", HelpStyle.Render(fmt.Sprintf("%d-%d of %d", m.offset+1, end, len(entries))))
	return b.String()
}

func (m InspectModel) entryCount() int {
	if data, ok := m.data.(*reader.InspectBattleResponse); ok {
		return len(data.Entries)
	}
	return 0
}

func (m InspectModel) pageSize() int {
	if m.height <= headerLines {
		return 10
	}
	return m.height - headerLines
}

// clamp keeps the scroll offset inside the entry list.
func (m InspectModel) clamp(offset int) int {
	last := max(m.entryCount()-m.pageSize(), 0)
	return max(0, min(offset, last))
}

type keyMap struct {
	Quit     key.Binding
	Up       key.Binding
	Down     key.Binding
	PageUp   key.Binding
	PageDown key.Binding
	Top      key.Binding
	Bottom   key.Binding
}

var keys = keyMap{
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c", "esc"),
		key.WithHelp("q", "quit"),
	),
	Up: key.NewBinding(
		key.WithKeys("up", "k"),
		key.WithHelp("↑/k", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "j"),
		key.WithHelp("↓/j", "down"),
	),
	PageUp: key.NewBinding(
		key.WithKeys("pgup", "b"),
		key.WithHelp("pgup", "page up"),
	),
	PageDown: key.NewBinding(
		key.WithKeys("pgdown", "f", " "),
		key.WithHelp("pgdn", "page down"),
	),
	Top: key.NewBinding(
		key.WithKeys("home", "g"),
		key.WithHelp("g", "top"),
	),
	Bottom: key.NewBinding(
		key.WithKeys("end", "G"),
		key.WithHelp("G", "bottom"),
	),
}

// RunInspectTUI runs the inspect TUI.
func RunInspectTUI(viewType string, data any) error {
	model := NewInspectModel(viewType, data)
	p := tea.NewProgram(model, tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// RenderInspectStatic renders inspect data without full TUI (for fallback).
func RenderInspectStatic(viewType string, data any) string {
	model := NewInspectModel(viewType, data)
	model.width = 80
	model.height = 24
	return lipgloss.NewStyle().Padding(1, 2).Render(model.View())
}
