package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/abhisek/momentum/internal/question"
	"github.com/abhisek/momentum/internal/ui/components"
	"github.com/abhisek/momentum/internal/ui/layout"
	"github.com/abhisek/momentum/internal/ui/theme"
)

const barWidth = 30

// Render writes a styled text report. questions may be nil, in which case
// only ids are shown.
func Render(w io.Writer, s *Summary, questions []*question.Question) error {
	var b strings.Builder

	b.WriteString(theme.Title.Render("Test report") + theme.Dim.Render("  "+s.SessionID) + "\n\n")

	frac := 0.0
	if s.Total > 0 {
		frac = float64(s.Score) / float64(s.Total)
	}
	fmt.Fprintf(&b, "Score      %s  %s\n", theme.Body.Bold(true).Render(fmt.Sprintf("%d / %d", s.Score, s.Total)), components.Bar(frac, barWidth))

	spent := secs(s.Time.Total)
	if s.AllottedSeconds > 0 {
		fmt.Fprintf(&b, "Time       %s of %s\n", layout.Clock(spent), layout.Clock(secs(s.AllottedSeconds)))
	} else {
		fmt.Fprintf(&b, "Time       %s\n", layout.Clock(spent))
	}
	fmt.Fprintf(&b, "           %s correct  %s wrong  %s unanswered\n",
		theme.Correct.Render(layout.Clock(secs(s.Time.Correct))),
		theme.Incorrect.Render(layout.Clock(secs(s.Time.Incorrect))),
		theme.Unanswered.Render(layout.Clock(secs(s.Time.Unanswered))))
	if s.AutoSubmitted {
		b.WriteString(theme.Dim.Render("Submitted automatically when time ran out.") + "\n")
	}
	b.WriteString("\n")

	for i, slot := range s.PerSlot {
		var q *question.Question
		if i < len(questions) {
			q = questions[i]
		}
		b.WriteString(renderSlot(i, slot, q))
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func renderSlot(i int, slot Slot, q *question.Question) string {
	mark := theme.Correct.Render("✓")
	switch {
	case slot.SelectedOption == nil:
		mark = theme.Unanswered.Render("-")
	case !slot.Correct:
		mark = theme.Incorrect.Render("✗")
	}
	head := fmt.Sprintf("%s %2d. ", mark, i+1)
	took := theme.Dim.Render(fmt.Sprintf("  (%s)", layout.Clock(secs(slot.TimeTakenSeconds))))

	if q == nil {
		return head + theme.Dim.Render(slot.QuestionID+" (removed)") + took + "\n"
	}
	out := head + theme.Body.Render(q.Prompt) + took + "\n"
	switch {
	case slot.SelectedOption == nil:
		out += "      " + theme.Unanswered.Render("not answered") + "; answer: " + theme.Correct.Render(q.CorrectOption()) + "\n"
	case !slot.Correct:
		out += "      you: " + theme.Incorrect.Render(option(q, *slot.SelectedOption)) + "; answer: " + theme.Correct.Render(q.CorrectOption()) + "\n"
	}
	return out
}

func option(q *question.Question, i int) string {
	if i < 0 || i >= len(q.Options) {
		return fmt.Sprintf("option %d", i)
	}
	return q.Options[i]
}

func secs(f float64) time.Duration { return time.Duration(f * float64(time.Second)) }
