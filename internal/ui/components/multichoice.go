package components

import (
	"fmt"
	"strings"

	"github.com/abhisek/momentum/internal/ui/theme"
)

// OptionLabels are the on-screen labels, also the keys that pick them.
var OptionLabels = []string{"1", "2", "3", "4"}

// Options renders a numbered option list. selected is the chosen index or
// -1. When reveal is true the correct option is green and a wrong choice
// red.
func Options(options []string, selected, correct int, reveal bool) string {
	var b strings.Builder
	for i, opt := range options {
		label := fmt.Sprint(i + 1)
		if i < len(OptionLabels) {
			label = OptionLabels[i]
		}
		marker := "  "
		if i == selected {
			marker = "> "
		}
		line := fmt.Sprintf("%s%s) %s", marker, label, opt)

		switch {
		case reveal && i == correct:
			line = theme.Correct.Render(line)
		case reveal && i == selected:
			line = theme.Incorrect.Render(line)
		case i == selected:
			line = theme.Selected.Render(line)
		default:
			line = theme.Body.Render(line)
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return b.String()
}
