package ui

import (
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// Palette. Adaptive colors keep tables readable on light terminals.
var (
	PrimaryColor = lipgloss.AdaptiveColor{Light: "#0B6E99", Dark: "#3FB4E6"}
	SuccessColor = lipgloss.AdaptiveColor{Light: "#1A7F37", Dark: "#43BF6D"}
	ErrorColor   = lipgloss.AdaptiveColor{Light: "#C62828", Dark: "#FF5555"}
	WarningColor = lipgloss.AdaptiveColor{Light: "#B36B00", Dark: "#FFA500"}
	MutedColor   = lipgloss.AdaptiveColor{Light: "#6E6E6E", Dark: "#8A8A8A"}
	TextColor    = lipgloss.AdaptiveColor{Light: "#1F1F1F", Dark: "#F2F2F2"}
)

// Width bounds for boxes and the watch view.
const (
	MinTerminalWidth = 60
	MaxContentWidth  = 120
)

const (
	SuccessMarker = "✓"
	FailureMarker = "✗"
)

var (
	bold   = lipgloss.NewStyle().Bold(true)
	indent = lipgloss.NewStyle().PaddingLeft(2)

	HeaderTitleStyle = indent.Foreground(TextColor).Bold(true)
	MutedStyle       = lipgloss.NewStyle().Foreground(MutedColor)
	labelStyle       = indent.Foreground(MutedColor)
	valueStyle       = lipgloss.NewStyle().Foreground(TextColor)
	detailKeyStyle   = MutedStyle.Width(18)

	SuccessTitleStyle = bold.Foreground(SuccessColor)
	ErrorTitleStyle   = bold.Foreground(ErrorColor)
	ErrorMessageStyle = lipgloss.NewStyle().Foreground(ErrorColor)

	TroubleshootingTitleStyle = bold.Foreground(MutedColor)
	TroubleshootingItemStyle  = MutedStyle

	tableHeaderStyle = bold.Foreground(PrimaryColor).Padding(0, 1)
	tableCellStyle   = lipgloss.NewStyle().Padding(0, 1)

	// State cells and event types.
	OnStyle        = bold.Foreground(SuccessColor)
	OffStyle       = MutedStyle
	EventTypeStyle = bold.Foreground(WarningColor)
)

// box is a bordered block sized to width.
func box(border lipgloss.Border, color lipgloss.TerminalColor, width, padX int) lipgloss.Style {
	return lipgloss.NewStyle().
		Border(border).
		BorderForeground(color).
		Width(width-2).
		Padding(0, padX)
}

func headerBox(width int) lipgloss.Style {
	return box(lipgloss.RoundedBorder(), PrimaryColor, width, 0)
}

func successBox(width int) lipgloss.Style {
	return box(lipgloss.DoubleBorder(), SuccessColor, width, 2)
}

func errorBox(width int) lipgloss.Style {
	return box(lipgloss.DoubleBorder(), ErrorColor, width, 2)
}

func tipsBox(width int) lipgloss.Style {
	return box(lipgloss.RoundedBorder(), MutedColor, max(width-10, 42), 1).MarginLeft(1)
}

// GetTerminalWidth returns the width of stdout clamped to
// [MinTerminalWidth, MaxContentWidth].
func GetTerminalWidth() int {
	w, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil {
		return MinTerminalWidth
	}
	return min(max(w, MinTerminalWidth), MaxContentWidth)
}

// divider draws a horizontal rule in the primary color.
func divider(width int) string {
	return lipgloss.NewStyle().Foreground(PrimaryColor).Render(strings.Repeat("─", max(width, 1)))
}
