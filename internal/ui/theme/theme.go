// Package theme holds the terminal palette and shared lipgloss styles.
package theme

import (
	"charm.land/lipgloss/v2"
)

// Palette. Muted enough for long timed sittings.
var (
	Primary = lipgloss.Color("#6366F1") // Indigo
	Accent  = lipgloss.Color("#F59E0B") // Amber
	Success = lipgloss.Color("#10B981") // Emerald
	Error   = lipgloss.Color("#EF4444") // Red
	Text    = lipgloss.Color("#F1F5F9")
	TextDim = lipgloss.Color("#94A3B8")
	BgCard  = lipgloss.Color("#1E293B")
	Border  = lipgloss.Color("#334155")
)

var (
	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(Primary)

	Body = lipgloss.NewStyle().Foreground(Text)

	Dim = lipgloss.NewStyle().Foreground(TextDim)

	Card = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(Border).
		Padding(1, 2)
)

// Answer states.
var (
	Selected = lipgloss.NewStyle().
			Foreground(Primary).
			Bold(true)

	Correct = lipgloss.NewStyle().
		Foreground(Success).
		Bold(true)

	Incorrect = lipgloss.NewStyle().
			Foreground(Error).
			Bold(true)

	Unanswered = lipgloss.NewStyle().
			Foreground(TextDim).
			Italic(true)
)

// Timer styles; Urgent kicks in for the last minute.
var (
	Clock = lipgloss.NewStyle().
		Foreground(Accent).
		Bold(true)

	Urgent = lipgloss.NewStyle().
		Foreground(Error).
		Bold(true)

	BarFilled = lipgloss.NewStyle().Background(Primary)
	BarEmpty  = lipgloss.NewStyle().Background(Border)
)
