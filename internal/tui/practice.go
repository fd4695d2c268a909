package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/momentum/internal/practice"
	"github.com/abhisek/momentum/internal/question"
	"github.com/abhisek/momentum/internal/ui/components"
	"github.com/abhisek/momentum/internal/ui/layout"
	"github.com/abhisek/momentum/internal/ui/theme"
)

// Practice is the part of the practice service the loop drives.
type Practice interface {
	Present(ctx context.Context, userID string, f question.Filter, excludeSolved bool) (*practice.Attempt, error)
	Complete(ctx context.Context, a *practice.Attempt) (*practice.Grade, error)
}

type presentedMsg struct {
	a   *practice.Attempt
	err error
}

type gradedMsg struct {
	g   *practice.Grade
	err error
}

// PracticeModel shows one question at a time until the pool runs dry or
// the user quits.
type PracticeModel struct {
	ctx           context.Context
	svc           Practice
	userID        string
	filter        question.Filter
	excludeSolved bool
	now           func() time.Time
	keys          keyMap

	attempt  *practice.Attempt
	grade    *practice.Grade
	empty    bool
	answered int
	correct  int
	errMsg   string

	width, height int
}

// NewPractice creates a practice loop. now defaults to time.Now.
func NewPractice(ctx context.Context, svc Practice, userID string, f question.Filter, excludeSolved bool, now func() time.Time) *PracticeModel {
	if now == nil {
		now = time.Now
	}
	return &PracticeModel{
		ctx:           ctx,
		svc:           svc,
		userID:        userID,
		filter:        f,
		excludeSolved: excludeSolved,
		now:           now,
		keys:          defaultKeys(),
	}
}

// Tally returns how many questions were answered and how many correctly.
func (m *PracticeModel) Tally() (answered, correct int) { return m.answered, m.correct }

func (m *PracticeModel) Init() tea.Cmd { return m.present() }

func (m *PracticeModel) present() tea.Cmd {
	return func() tea.Msg {
		a, err := m.svc.Present(m.ctx, m.userID, m.filter, m.excludeSolved)
		return presentedMsg{a: a, err: err}
	}
}

func (m *PracticeModel) complete(a *practice.Attempt) tea.Cmd {
	return func() tea.Msg {
		g, err := m.svc.Complete(m.ctx, a)
		return gradedMsg{g: g, err: err}
	}
}

func (m *PracticeModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height

	case presentedMsg:
		m.grade = nil
		if msg.err != nil {
			m.errMsg = msg.err.Error()
			return m, nil
		}
		m.attempt = msg.a
		m.empty = msg.a == nil

	case gradedMsg:
		if msg.err != nil {
			m.errMsg = msg.err.Error()
			return m, nil
		}
		if msg.g == nil {
			// Skipped.
			return m, m.present()
		}
		m.grade = msg.g
		m.answered++
		if msg.g.Correct {
			m.correct++
		}

	case tea.KeyPressMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *PracticeModel) handleKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	k := m.keys
	if pressed(msg, k.Quit) {
		return m, tea.Quit
	}
	switch {
	case m.empty || m.attempt == nil:
		return m, nil
	case m.grade != nil:
		return m, m.present()
	case k.option(msg) >= 0:
		if err := m.attempt.Answer(k.option(msg), m.now()); err != nil {
			m.errMsg = err.Error()
			return m, nil
		}
		m.errMsg = ""
		return m, m.complete(m.attempt)
	case pressed(msg, k.Skip):
		if err := m.attempt.Skip(m.now()); err != nil {
			m.errMsg = err.Error()
			return m, nil
		}
		return m, m.complete(m.attempt)
	}
	return m, nil
}

func (m *PracticeModel) View() tea.View {
	v := tea.NewView("")
	v.AltScreen = true
	if m.width == 0 || m.height == 0 {
		return v
	}
	if layout.IsTooSmall(m.width, m.height) {
		v.SetContent(layout.TooSmall(m.width, m.height))
		return v
	}

	right := theme.Body.Render(fmt.Sprintf("%d/%d correct", m.correct, m.answered))
	footer := hints(m.keys.Options[0], m.keys.Skip, m.keys.Quit)

	var b strings.Builder
	switch {
	case m.empty:
		b.WriteString(theme.Dim.Render("No more questions available for the selected filters."))
		footer = hints(m.keys.Quit)
	case m.attempt == nil:
		b.WriteString(theme.Dim.Render("Loading..."))
	default:
		q := m.attempt.Question
		b.WriteString(theme.Dim.Render(q.Chapter + " · " + string(q.Difficulty)))
		b.WriteString("\n\n")
		b.WriteString(theme.Body.Width(max(m.width-8, 20)).Render(q.Prompt))
		b.WriteString("\n\n")
		sel := -1
		if m.grade != nil {
			sel = m.attempt.Selected
		}
		b.WriteString(components.Options(q.Options, sel, q.Answer, m.grade != nil))
		if m.grade != nil {
			b.WriteString("\n\n")
			if m.grade.Correct {
				b.WriteString(theme.Correct.Render("Correct!"))
			} else {
				b.WriteString(theme.Incorrect.Render("Not quite. The answer is " + m.grade.CorrectText + "."))
			}
			b.WriteString(theme.Dim.Render("  press any key for the next question"))
			footer = hints(m.keys.Quit)
		}
	}
	if m.errMsg != "" {
		b.WriteString("\n\n" + theme.Incorrect.Render(m.errMsg))
	}
	content := lipgloss.NewStyle().Padding(0, 2).Render(b.String())
	header := layout.Header("Practice", right, m.width)
	v.SetContent(layout.Frame(header, content, layout.Footer(footer), m.width, m.height))
	return v
}
