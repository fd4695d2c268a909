// Package tui is the terminal front end: a timed test runner and a
// single-question practice loop, both driving the same engines as the API.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/momentum/internal/question"
	"github.com/abhisek/momentum/internal/report"
	"github.com/abhisek/momentum/internal/scoring"
	"github.com/abhisek/momentum/internal/session"
	"github.com/abhisek/momentum/internal/ui/components"
	"github.com/abhisek/momentum/internal/ui/layout"
	"github.com/abhisek/momentum/internal/ui/theme"
)

// Engine is the part of the session engine the runner drives.
type Engine interface {
	SelectAnswer(ctx context.Context, id string, slot, option int) (*session.Session, error)
	NavigateTo(ctx context.Context, id string, slot int) (*session.Session, error)
	Submit(ctx context.Context, id string, finalAnswers []*int) (*session.SubmitResult, error)
	Tick(ctx context.Context, id string) (*session.SubmitResult, bool, error)
	Get(ctx context.Context, id string) (*session.Session, []*question.Question, error)
	Remaining(s *session.Session) time.Duration
}

type tickMsg time.Time

type tickedMsg struct {
	res   *session.SubmitResult
	fired bool
	err   error
}

type updatedMsg struct {
	s   *session.Session
	err error
}

type submittedMsg struct {
	res *session.SubmitResult
	err error
}

// TestModel runs one started test to submission.
type TestModel struct {
	ctx       context.Context
	engine    Engine
	sess      *session.Session
	questions []*question.Question
	keys      keyMap
	interval  time.Duration

	confirming bool
	result     *session.SubmitResult
	summary    string
	errMsg     string

	width, height int
}

// NewTest creates a runner for a session returned by Engine.Start.
func NewTest(ctx context.Context, engine Engine, started *session.StartResult) *TestModel {
	return &TestModel{
		ctx:       ctx,
		engine:    engine,
		sess:      started.Session,
		questions: started.Questions,
		keys:      defaultKeys(),
		interval:  time.Second,
	}
}

// Result is the graded outcome, nil if the user quit before submitting.
func (m *TestModel) Result() *session.SubmitResult { return m.result }

func (m *TestModel) tick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m *TestModel) Init() tea.Cmd { return m.tick() }

func (m *TestModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil

	case tickMsg:
		if m.result != nil {
			return m, nil
		}
		id := m.sess.ID
		return m, func() tea.Msg {
			res, fired, err := m.engine.Tick(m.ctx, id)
			return tickedMsg{res: res, fired: fired, err: err}
		}

	case tickedMsg:
		if msg.err != nil {
			m.errMsg = msg.err.Error()
		}
		if msg.fired {
			m.finish(msg.res)
			return m, nil
		}
		return m, m.tick()

	case updatedMsg:
		if errors.Is(msg.err, session.ErrAlreadySubmitted) {
			return m, m.reload()
		}
		if msg.err != nil {
			m.errMsg = msg.err.Error()
			return m, nil
		}
		m.errMsg = ""
		m.sess = msg.s
		return m, nil

	case submittedMsg:
		if errors.Is(msg.err, session.ErrAlreadySubmitted) {
			return m, m.reload()
		}
		if msg.err != nil {
			m.errMsg = msg.err.Error()
			return m, nil
		}
		m.finish(msg.res)
		return m, nil

	case tea.KeyPressMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

// reload shows the stored result of a session closed by the engine, such
// as one auto-submitted when its time ran out just before a key press.
func (m *TestModel) reload() tea.Cmd {
	id := m.sess.ID
	return func() tea.Msg {
		s, qs, err := m.engine.Get(m.ctx, id)
		if err != nil {
			return submittedMsg{err: err}
		}
		if s.Status != session.StatusSubmitted {
			return submittedMsg{err: fmt.Errorf("session %s was rejected but is still open", id)}
		}
		sc := scoring.Score(qs, s.Selected())
		return submittedMsg{res: &session.SubmitResult{
			Session: s,
			Score:   sc.Correct,
			Total:   sc.Total,
			PerSlot: sc.PerSlot,
			Auto:    s.AutoSubmitted,
		}}
	}
}

func (m *TestModel) finish(res *session.SubmitResult) {
	m.result = res
	m.sess = res.Session
	m.confirming = false
	sum, err := report.Build(res.Session, m.questions)
	if err != nil {
		m.errMsg = err.Error()
		return
	}
	var b strings.Builder
	if err := report.Render(&b, sum, m.questions); err != nil {
		m.errMsg = err.Error()
	}
	m.summary = b.String()
}

func (m *TestModel) handleKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	k := m.keys
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}
	if m.result != nil {
		if pressed(msg, k.Quit) {
			return m, tea.Quit
		}
		return m, nil
	}
	if m.confirming {
		switch {
		case pressed(msg, k.Yes):
			m.confirming = false
			id := m.sess.ID
			return m, func() tea.Msg {
				res, err := m.engine.Submit(m.ctx, id, nil)
				return submittedMsg{res: res, err: err}
			}
		case pressed(msg, k.No):
			m.confirming = false
		}
		return m, nil
	}

	id, slot := m.sess.ID, m.sess.ActiveSlot
	switch {
	case k.option(msg) >= 0:
		opt := k.option(msg)
		return m, func() tea.Msg {
			s, err := m.engine.SelectAnswer(m.ctx, id, slot, opt)
			return updatedMsg{s: s, err: err}
		}
	case pressed(msg, k.Prev) && slot > 0:
		return m, m.navigate(slot - 1)
	case pressed(msg, k.Next) && slot < m.sess.Len()-1:
		return m, m.navigate(slot + 1)
	case pressed(msg, k.Submit), pressed(msg, k.Quit):
		m.confirming = true
	}
	return m, nil
}

func (m *TestModel) navigate(slot int) tea.Cmd {
	id := m.sess.ID
	return func() tea.Msg {
		s, err := m.engine.NavigateTo(m.ctx, id, slot)
		return updatedMsg{s: s, err: err}
	}
}

func (m *TestModel) View() tea.View {
	v := tea.NewView("")
	v.AltScreen = true
	if m.width == 0 || m.height == 0 {
		return v
	}
	if layout.IsTooSmall(m.width, m.height) {
		v.SetContent(layout.TooSmall(m.width, m.height))
		return v
	}

	var right, content string
	var footer []layout.KeyHint
	switch {
	case m.result != nil:
		right = theme.Body.Render(fmt.Sprintf("%d/%d", m.result.Score, m.result.Total))
		content = m.summary
		footer = hints(m.keys.Quit)
	default:
		right = m.clock()
		content = m.questionView()
		footer = hints(m.keys.Options[0], m.keys.Prev, m.keys.Next, m.keys.Submit)
		if m.confirming {
			footer = hints(m.keys.Yes, m.keys.No)
		}
	}
	if m.errMsg != "" {
		content += "\n\n" + theme.Incorrect.Render(m.errMsg)
	}
	header := layout.Header(m.title(), right, m.width)
	v.SetContent(layout.Frame(header, content, layout.Footer(footer), m.width, m.height))
	return v
}

func (m *TestModel) title() string {
	if m.sess.Subject == "" {
		return "Test"
	}
	return m.sess.Subject
}

func (m *TestModel) clock() string {
	left := m.engine.Remaining(m.sess)
	style := theme.Clock
	if left < time.Minute {
		style = theme.Urgent
	}
	return style.Render(layout.Clock(left))
}

func (m *TestModel) questionView() string {
	slot := m.sess.ActiveSlot
	q := m.questions[slot]
	answered := 0
	for _, a := range m.sess.Answers {
		if a.Selected != nil {
			answered++
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s  %s\n\n",
		theme.Dim.Render(fmt.Sprintf("Question %d of %d", slot+1, m.sess.Len())),
		components.Bar(float64(answered)/float64(max(m.sess.Len(), 1)), 20))
	if q == nil {
		b.WriteString(theme.Dim.Render("This question is no longer in the bank."))
		return b.String()
	}
	b.WriteString(theme.Body.Width(max(m.width-8, 20)).Render(q.Prompt))
	b.WriteString("\n\n")
	sel := -1
	if p := m.sess.Answers[slot].Selected; p != nil {
		sel = *p
	}
	b.WriteString(components.Options(q.Options, sel, -1, false))
	if m.confirming {
		b.WriteString("\n\n")
		b.WriteString(theme.Card.Render(fmt.Sprintf("Submit with %d of %d answered?", answered, m.sess.Len())))
	}
	return lipgloss.NewStyle().Padding(0, 2).Render(b.String())
}
