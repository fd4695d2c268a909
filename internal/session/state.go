package session

import (
	"fmt"
	"time"

	"github.com/abhisek/momentum/internal/question"
	"github.com/abhisek/momentum/internal/timer"
)

// Status is the lifecycle state of a session.
type Status int

const (
	StatusCreated    Status = iota // Built, timer not started
	StatusInProgress               // Accepting answers and navigation
	StatusSubmitted                // Scored and frozen
)

func (s Status) String() string {
	switch s {
	case StatusCreated:
		return "created"
	case StatusInProgress:
		return "in_progress"
	case StatusSubmitted:
		return "submitted"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// ParseStatus is the inverse of Status.String.
func ParseStatus(s string) (Status, error) {
	switch s {
	case "created":
		return StatusCreated, nil
	case "in_progress":
		return StatusInProgress, nil
	case "submitted":
		return StatusSubmitted, nil
	}
	return 0, fmt.Errorf("unknown session status %q", s)
}

// Kind distinguishes timed tests from untimed multi-question practice.
type Kind string

const (
	KindTest     Kind = "test"
	KindPractice Kind = "practice"
)

// AnswerState is what the user has done on one slot.
type AnswerState struct {
	// Selected is the chosen option index; nil means unanswered.
	Selected *int

	// TimeTaken is the cumulative time the slot has been active.
	TimeTaken time.Duration

	// AnsweredAt is the session elapsed time of the latest selection.
	AnsweredAt *time.Duration
}

// Session is one test or practice run over a fixed list of questions.
type Session struct {
	ID         string
	UserID     string
	Kind       Kind
	Subject    string
	Chapters   []string
	Difficulty question.Difficulty

	// QuestionIDs and Answers always have the same length.
	QuestionIDs []string
	Answers     []AnswerState

	Status Status
	Score  *int

	// Budget is the total time allowed. Zero means untimed.
	Budget time.Duration

	ActiveSlot int
	Timer      timer.Timer

	CreatedAt     time.Time
	StartedAt     time.Time
	SubmittedAt   time.Time
	AutoSubmitted bool
}

// New builds a session in the Created state with one empty answer per
// question.
func New(id, userID string, kind Kind, f question.Filter, questionIDs []string, budget time.Duration, now time.Time) *Session {
	return &Session{
		ID:          id,
		UserID:      userID,
		Kind:        kind,
		Subject:     f.Subject,
		Chapters:    append([]string(nil), f.Chapters...),
		Difficulty:  f.Difficulty,
		QuestionIDs: append([]string(nil), questionIDs...),
		Answers:     make([]AnswerState, len(questionIDs)),
		Status:      StatusCreated,
		Budget:      budget,
		CreatedAt:   now,
	}
}

// Len returns the number of slots.
func (s *Session) Len() int { return len(s.QuestionIDs) }

// Elapsed returns the time since the session started. It is zero before
// the session is started.
func (s *Session) Elapsed(now time.Time) time.Duration {
	if s.StartedAt.IsZero() || now.Before(s.StartedAt) {
		return 0
	}
	return now.Sub(s.StartedAt)
}

// Selected returns the selection of every slot.
func (s *Session) Selected() []*int {
	out := make([]*int, len(s.Answers))
	for i, a := range s.Answers {
		out[i] = a.Selected
	}
	return out
}

// Times returns the cumulative time of every slot.
func (s *Session) Times() []time.Duration {
	out := make([]time.Duration, len(s.Answers))
	for i, a := range s.Answers {
		out[i] = a.TimeTaken
	}
	return out
}

// Clone returns a deep copy.
func (s *Session) Clone() *Session {
	c := *s
	c.Chapters = append([]string(nil), s.Chapters...)
	c.QuestionIDs = append([]string(nil), s.QuestionIDs...)
	c.Answers = make([]AnswerState, len(s.Answers))
	for i, a := range s.Answers {
		c.Answers[i] = AnswerState{TimeTaken: a.TimeTaken}
		if a.Selected != nil {
			v := *a.Selected
			c.Answers[i].Selected = &v
		}
		if a.AnsweredAt != nil {
			v := *a.AnsweredAt
			c.Answers[i].AnsweredAt = &v
		}
	}
	if s.Score != nil {
		v := *s.Score
		c.Score = &v
	}
	return &c
}
