// Package layout composes full-screen frames for the terminal runner.
package layout

import (
	"fmt"
	"strings"
	"time"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/momentum/internal/ui/theme"
)

const (
	MinWidth  = 60
	MinHeight = 16
)

// KeyHint is one entry in the footer.
type KeyHint struct {
	Key         string
	Description string
}

// IsTooSmall reports whether the terminal cannot fit a question.
func IsTooSmall(width, height int) bool {
	return width < MinWidth || height < MinHeight
}

// TooSmall is shown instead of the frame on tiny terminals.
func TooSmall(width, height int) string {
	return lipgloss.NewStyle().
		Width(width).
		Height(height).
		Align(lipgloss.Center).
		Foreground(theme.Text).
		Render(fmt.Sprintf("Terminal too small.\nNeed at least %d x %d, have %d x %d.", MinWidth, MinHeight, width, height))
}

// Clock formats a remaining duration as mm:ss. Zero or less is 00:00.
func Clock(d time.Duration) string {
	d = max(d, 0).Round(time.Second)
	return fmt.Sprintf("%02d:%02d", int(d.Minutes()), int(d.Seconds())%60)
}

// Header puts title on the left and right on the right.
func Header(title, right string, width int) string {
	left := theme.Title.Render("Momentum") + theme.Dim.Render("  "+title)
	gap := max(width-lipgloss.Width(left)-lipgloss.Width(right)-2, 1)
	return " " + left + strings.Repeat(" ", gap) + right
}

// Footer renders key hints on one line.
func Footer(hints []KeyHint) string {
	parts := make([]string, 0, len(hints))
	for _, h := range hints {
		parts = append(parts, theme.Body.Bold(true).Render(h.Key)+" "+theme.Dim.Render(h.Description))
	}
	return " " + strings.Join(parts, "   ")
}

// Frame stacks header, content and footer, padding content to fill height.
func Frame(header, content, footer string, width, height int) string {
	h := max(height-lipgloss.Height(header)-lipgloss.Height(footer)-2, 0)
	body := lipgloss.NewStyle().Width(width).Height(h).Render(content)
	return header + "\n\n" + body + "\n" + footer
}
