package practice

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/abhisek/momentum/internal/apperr"
	"github.com/abhisek/momentum/internal/question"
)

// ErrAttemptClosed is returned when answering or skipping an attempt that
// already ended.
var ErrAttemptClosed = errors.New("practice attempt already closed")

// State is where a single-question attempt stands.
type State int

const (
	StatePresented State = iota
	StateAnswered
	StateSkipped
)

func (s State) String() string {
	switch s {
	case StatePresented:
		return "presented"
	case StateAnswered:
		return "answered"
	case StateSkipped:
		return "skipped"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Attempt is one question shown to a user in practice mode.
type Attempt struct {
	UserID      string
	Question    *question.Question
	State       State
	PresentedAt time.Time
	Selected    int
	TimeTaken   time.Duration
}

// Answer closes the attempt with option, timing it from presentation.
func (a *Attempt) Answer(option int, now time.Time) error {
	if a.State != StatePresented {
		return ErrAttemptClosed
	}
	if option < 0 || option >= len(a.Question.Options) {
		return apperr.Invalid("option", "%d out of range [0,%d)", option, len(a.Question.Options))
	}
	a.State = StateAnswered
	a.Selected = option
	a.TimeTaken = max(now.Sub(a.PresentedAt), 0)
	return nil
}

// Skip closes the attempt without an answer. Skipped attempts produce no
// record.
func (a *Attempt) Skip(now time.Time) error {
	if a.State != StatePresented {
		return ErrAttemptClosed
	}
	a.State = StateSkipped
	a.TimeTaken = max(now.Sub(a.PresentedAt), 0)
	return nil
}

// Sampler picks the next practice question.
type Sampler interface {
	NextQuestion(ctx context.Context, userID string, f question.Filter, excludeSolved bool) (*question.Question, error)
}

// Store persists practice outcomes. FindByID returns (nil, nil) for an
// unknown id. AddToSolvedSet must be idempotent.
type Store interface {
	FindByID(ctx context.Context, id string) (*question.Question, error)
	InsertRecords(ctx context.Context, records []Record) error
	AddToSolvedSet(ctx context.Context, userID, questionID string) error
}

// Grade is the grading of one practice answer.
type Grade struct {
	Record        Record
	Correct       bool
	CorrectOption int
	CorrectText   string
}

// Service runs single-question practice.
type Service struct {
	sampler Sampler
	store   Store
	now     func() time.Time
	newID   func() string
}

// NewService creates a practice service. now defaults to time.Now.
func NewService(sampler Sampler, store Store, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{sampler: sampler, store: store, now: now, newID: uuid.NewString}
}

// Present draws the next question and opens an attempt on it. It returns
// (nil, nil) when no question matches.
func (s *Service) Present(ctx context.Context, userID string, f question.Filter, excludeSolved bool) (*Attempt, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, apperr.Invalid("user", "must not be empty")
	}
	q, err := s.sampler.NextQuestion(ctx, userID, f, excludeSolved)
	if err != nil {
		return nil, err
	}
	if q == nil {
		return nil, nil
	}
	return &Attempt{UserID: userID, Question: q, State: StatePresented, PresentedAt: s.now()}, nil
}

// Complete records a closed attempt. Skipped attempts record nothing and
// return a nil grade.
func (s *Service) Complete(ctx context.Context, a *Attempt) (*Grade, error) {
	switch a.State {
	case StateSkipped:
		return nil, nil
	case StateAnswered:
		return s.Record(ctx, a.UserID, a.Question.ID, a.Selected, a.TimeTaken)
	default:
		return nil, apperr.Invalid("attempt", "still presented")
	}
}

// Record grades option against the question, stores one record and, when
// correct, adds the question to the user's solved set.
func (s *Service) Record(ctx context.Context, userID, questionID string, option int, timeTaken time.Duration) (*Grade, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, apperr.Invalid("user", "must not be empty")
	}
	if timeTaken < 0 {
		return nil, apperr.Invalid("time_taken", "must not be negative")
	}
	q, err := s.store.FindByID(ctx, questionID)
	if err != nil {
		return nil, fmt.Errorf("load question: %w", err)
	}
	if q == nil {
		return nil, apperr.NotFound("question", questionID)
	}
	if option < 0 || option >= len(q.Options) {
		return nil, apperr.Invalid("option", "%d out of range [0,%d)", option, len(q.Options))
	}

	correct := q.IsCorrect(option)
	rec := Record{
		ID:         s.newID(),
		UserID:     userID,
		QuestionID: q.ID,
		Correct:    correct,
		TimeTaken:  timeTaken,
		Origin:     OriginPractice,
		CreatedAt:  s.now(),
	}
	if err := s.store.InsertRecords(ctx, []Record{rec}); err != nil {
		return nil, fmt.Errorf("save practice record: %w", err)
	}
	if correct {
		if err := s.store.AddToSolvedSet(ctx, userID, q.ID); err != nil {
			return nil, fmt.Errorf("update solved set: %w", err)
		}
	}

	return &Grade{
		Record:        rec,
		Correct:       correct,
		CorrectOption: q.Answer,
		CorrectText:   q.CorrectOption(),
	}, nil
}
