// Package tui provides Bubble Tea views for the battlelog CLI.
//
// TUI rules:
//   - TUI is opt-in only (--tui flag)
//   - TUI is read-only (inspect and stats commands)
//   - TUI shows the same payloads as json/table/yaml output
package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/pithecene-io/battlelog/types"
)

// Color palette.
var (
	primaryColor   = lipgloss.Color("#B91C1C") // Crimson
	successColor   = lipgloss.Color("#10B981") // Green
	warningColor   = lipgloss.Color("#F59E0B") // Amber
	errorColor     = lipgloss.Color("#EF4444") // Red
	mutedColor     = lipgloss.Color("#6B7280") // Gray
	highlightColor = lipgloss.Color("#3B82F6") // Blue
)

// Styles for TUI components.
var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor).
			MarginBottom(1)

	LabelStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			Width(16)

	ValueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF"))

	SuccessStyle = lipgloss.NewStyle().
			Foreground(successColor)

	WarningStyle = lipgloss.NewStyle().
			Foreground(warningColor)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(errorColor)

	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(mutedColor).
			Padding(1, 2)

	HelpStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			MarginTop(1)

	// SeqStyle right-aligns entry sequence numbers.
	SeqStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			Width(6).
			Align(lipgloss.Right)

	// EventNameStyle pads event names into a column.
	EventNameStyle = lipgloss.NewStyle().
			Foreground(highlightColor).
			Width(22)

	StatBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(highlightColor).
			Padding(0, 2).
			Width(18).
			Align(lipgloss.Center)

	StatLabelStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			Align(lipgloss.Center)

	StatValueStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF")).
			Align(lipgloss.Center)
)

// EntryStyle returns the style for an entry of the given kind.
func EntryStyle(kind string) lipgloss.Style {
	switch types.EntryKind(kind) {
	case types.EntryEvent:
		return ValueStyle
	case types.EntryFailure:
		return ErrorStyle
	default:
		return WarningStyle
	}
}

// LiveStyle marks the live log apart from archived battles.
func LiveStyle(live bool) lipgloss.Style {
	if live {
		return WarningStyle
	}
	return SuccessStyle
}
