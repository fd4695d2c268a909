// Package components holds small render helpers shared by the terminal
// runner and the CLI report.
package components

import (
	"strings"

	"github.com/abhisek/momentum/internal/ui/theme"
)

// Bar renders a horizontal bar width cells wide, filled to fraction.
func Bar(fraction float64, width int) string {
	width = max(width, 4)
	filled := int(float64(width) * fraction)
	filled = min(max(filled, 0), width)
	return theme.BarFilled.Render(strings.Repeat(" ", filled)) +
		theme.BarEmpty.Render(strings.Repeat(" ", width-filled))
}
