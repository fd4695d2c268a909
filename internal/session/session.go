// Package session runs timed tests and untimed multi-question practice:
// drawing questions, attributing time to slots, capturing answers and
// scoring exactly once on submit.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/abhisek/momentum/internal/apperr"
	"github.com/abhisek/momentum/internal/practice"
	"github.com/abhisek/momentum/internal/question"
	"github.com/abhisek/momentum/internal/scoring"
	"github.com/abhisek/momentum/internal/timer"
)

// Default test parameters.
const (
	DefaultTestSize     = 10
	DefaultTestBudget   = 20 * time.Minute
	DefaultTickInterval = time.Second
)

// Store persists sessions. GetSession returns (nil, nil) for an unknown id.
// CommitSubmission must write the submitted session and its records
// atomically, and must return ErrAlreadySubmitted if the stored session is
// already submitted.
type Store interface {
	CreateSession(ctx context.Context, s *Session) error
	GetSession(ctx context.Context, id string) (*Session, error)
	UpdateSession(ctx context.Context, s *Session) error
	CommitSubmission(ctx context.Context, s *Session, records []practice.Record) error
}

// Questions loads questions by id, preserving order, with nil entries for
// ids that no longer exist.
type Questions interface {
	FindByIDs(ctx context.Context, ids []string) ([]*question.Question, error)
}

// Drawer picks up to n distinct questions matching a filter.
type Drawer interface {
	Draw(ctx context.Context, f question.Filter, n int) ([]*question.Question, error)
}

// Config holds the engine's tunables.
type Config struct {
	TestSize     int
	TestBudget   time.Duration
	TickInterval time.Duration
}

// DefaultConfig returns the standard 10-question, 20-minute test setup.
func DefaultConfig() Config {
	return Config{
		TestSize:     DefaultTestSize,
		TestBudget:   DefaultTestBudget,
		TickInterval: DefaultTickInterval,
	}
}

// StartRequest describes the session a user asked for.
type StartRequest struct {
	UserID     string
	Kind       Kind
	Subject    string
	Chapters   []string
	Difficulty question.Difficulty
}

// StartResult is the started session plus how many questions were asked
// for and how many the bank could supply.
type StartResult struct {
	Session   *Session
	Questions []*question.Question
	Requested int
	Drawn     int
}

// ShortDraw reports whether fewer questions were drawn than requested.
func (r StartResult) ShortDraw() bool { return r.Drawn < r.Requested }

// SubmitResult is the graded outcome of a session.
type SubmitResult struct {
	Session *Session
	Score   int
	Total   int
	PerSlot []bool
	Records []practice.Record
	Auto    bool
}

// live is the in-memory, lock-guarded copy of an in-progress session. Every
// user event and timer tick for one session runs under mu.
type live struct {
	mu        sync.Mutex
	s         *Session
	questions []*question.Question
	stop      context.CancelFunc
	used      time.Time
	evicted   bool
}

// Engine coordinates sessions. It is safe for concurrent use.
type Engine struct {
	store     Store
	questions Questions
	drawer    Drawer
	clock     timer.Clock
	cfg       Config
	logger    *slog.Logger
	newID     func() string

	mu   sync.Mutex
	live map[string]*live
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock sets the engine's time source.
func WithClock(c timer.Clock) Option {
	return func(e *Engine) { e.clock = c }
}

// WithLogger sets the engine's logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithConfig overrides the default test parameters. Zero fields keep their
// defaults.
func WithConfig(cfg Config) Option {
	return func(e *Engine) {
		if cfg.TestSize > 0 {
			e.cfg.TestSize = cfg.TestSize
		}
		if cfg.TestBudget > 0 {
			e.cfg.TestBudget = cfg.TestBudget
		}
		if cfg.TickInterval > 0 {
			e.cfg.TickInterval = cfg.TickInterval
		}
	}
}

// NewEngine creates an Engine.
func NewEngine(store Store, questions Questions, drawer Drawer, opts ...Option) *Engine {
	e := &Engine{
		store:     store,
		questions: questions,
		drawer:    drawer,
		clock:     timer.System{},
		cfg:       DefaultConfig(),
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		newID:     uuid.NewString,
		live:      make(map[string]*live),
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Config returns the engine's effective configuration.
func (e *Engine) Config() Config { return e.cfg }

// Start draws questions, creates the session and starts its clock. A pool
// with no matching questions returns ErrNoQuestionsAvailable; a smaller
// pool than requested proceeds and is reported via StartResult.
func (e *Engine) Start(ctx context.Context, req StartRequest) (*StartResult, error) {
	if strings.TrimSpace(req.UserID) == "" {
		return nil, apperr.Invalid("user", "must not be empty")
	}
	if req.Kind == "" {
		req.Kind = KindTest
	}
	if req.Kind != KindTest && req.Kind != KindPractice {
		return nil, apperr.Invalid("kind", "unknown value %q", req.Kind)
	}
	f := question.Filter{Subject: req.Subject, Chapters: req.Chapters, Difficulty: req.Difficulty}
	if err := f.Validate(); err != nil {
		return nil, err
	}

	qs, err := e.drawer.Draw(ctx, f, e.cfg.TestSize)
	if err != nil {
		return nil, fmt.Errorf("draw questions: %w", err)
	}
	if len(qs) == 0 {
		return nil, ErrNoQuestionsAvailable
	}

	qs = slices.DeleteFunc(qs, func(q *question.Question) bool { return q == nil })
	if len(qs) == 0 {
		return nil, ErrNoQuestionsAvailable
	}
	ids := make([]string, len(qs))
	for i, q := range qs {
		ids[i] = q.ID
	}
	var budget time.Duration
	if req.Kind == KindTest {
		budget = e.cfg.TestBudget
	}

	now := e.clock.Now()
	s := New(e.newID(), req.UserID, req.Kind, f, ids, budget, now)
	if err := s.begin(now); err != nil {
		return nil, err
	}
	if err := e.store.CreateSession(ctx, s); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	e.mu.Lock()
	e.live[s.ID] = &live{s: s, questions: qs, used: now}
	e.mu.Unlock()

	e.logger.Info("session started", "session", s.ID, "user", s.UserID,
		"kind", s.Kind, "requested", e.cfg.TestSize, "drawn", len(qs))

	return &StartResult{
		Session:   s.Clone(),
		Questions: qs,
		Requested: e.cfg.TestSize,
		Drawn:     len(qs),
	}, nil
}

// acquire returns the live session for id, loading it from the store on
// first access. The returned entry is locked; callers must unlock it.
func (e *Engine) acquire(ctx context.Context, id string) (*live, error) {
	for {
		e.mu.Lock()
		l, ok := e.live[id]
		e.mu.Unlock()
		if !ok {
			var err error
			l, err = e.hydrate(ctx, id)
			if err != nil {
				return nil, err
			}
		}
		l.mu.Lock()
		if l.evicted {
			// Dropped by Evict between lookup and lock; reload.
			l.mu.Unlock()
			continue
		}
		l.used = e.clock.Now()
		return l, nil
	}
}

// expireLocked auto-submits a timed session whose budget ran out while no
// countdown was driving it, e.g. after a restart. It returns
// ErrAlreadySubmitted when the session is (now) closed to user events.
func (e *Engine) expireLocked(ctx context.Context, l *live) error {
	if l.s.Status != StatusInProgress {
		return nil
	}
	if !timer.Expired(l.s.Budget, l.s.Elapsed(e.clock.Now())) {
		return nil
	}
	if _, _, err := e.autoSubmitOnTimeout(ctx, l); err != nil {
		return err
	}
	return ErrAlreadySubmitted
}

func (e *Engine) hydrate(ctx context.Context, id string) (*live, error) {
	s, err := e.store.GetSession(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if s == nil {
		return nil, apperr.NotFound("session", id)
	}
	qs, err := e.questions.FindByIDs(ctx, s.QuestionIDs)
	if err != nil {
		return nil, fmt.Errorf("load session questions: %w", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	// Another goroutine may have hydrated the same session meanwhile.
	if l, ok := e.live[id]; ok {
		return l, nil
	}
	l := &live{s: s, questions: qs}
	if s.Status != StatusSubmitted {
		e.live[id] = l
	}
	return l, nil
}

func (e *Engine) forget(id string) {
	e.mu.Lock()
	delete(e.live, id)
	e.mu.Unlock()
}

// mutate applies fn to a copy of the session and persists it; the live
// copy is only replaced once the store accepted the change.
func (e *Engine) mutate(ctx context.Context, id string, fn func(s *Session, qs []*question.Question, elapsed time.Duration) error) (*Session, error) {
	l, err := e.acquire(ctx, id)
	if err != nil {
		return nil, err
	}
	defer l.mu.Unlock()

	if err := e.expireLocked(ctx, l); err != nil {
		return nil, err
	}
	next := l.s.Clone()
	if err := fn(next, l.questions, next.Elapsed(e.clock.Now())); err != nil {
		return nil, err
	}
	if err := e.store.UpdateSession(ctx, next); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	l.s = next
	return next.Clone(), nil
}

// SelectAnswer records option for slot. The most recent selection wins.
func (e *Engine) SelectAnswer(ctx context.Context, id string, slot, option int) (*Session, error) {
	return e.mutate(ctx, id, func(s *Session, qs []*question.Question, elapsed time.Duration) error {
		return s.selectAnswer(e.capped(s, elapsed), slot, option, optionCount(qs, slot))
	})
}

// NavigateTo moves the active slot, attributing the time spent so far to
// the slot being left.
func (e *Engine) NavigateTo(ctx context.Context, id string, slot int) (*Session, error) {
	return e.mutate(ctx, id, func(s *Session, _ []*question.Question, elapsed time.Duration) error {
		return s.navigate(e.capped(s, elapsed), slot)
	})
}

// Submit scores the session and freezes it. finalAnswers, when non-nil,
// replaces the recorded selections. Only the first call succeeds; later
// calls return ErrAlreadySubmitted. A timed session whose budget has run
// out is auto-submitted with its recorded answers instead, and the call
// returns ErrAlreadySubmitted.
func (e *Engine) Submit(ctx context.Context, id string, finalAnswers []*int) (*SubmitResult, error) {
	l, err := e.acquire(ctx, id)
	if err != nil {
		return nil, err
	}
	defer l.mu.Unlock()
	if err := e.expireLocked(ctx, l); err != nil {
		return nil, err
	}
	return e.submitLocked(ctx, l, finalAnswers, false)
}

// Tick applies one timer event. When a timed session's budget has run out
// it is submitted automatically; the result is returned with fired set.
// Ticks on sessions that are already submitted are absorbed.
func (e *Engine) Tick(ctx context.Context, id string) (res *SubmitResult, fired bool, err error) {
	l, err := e.acquire(ctx, id)
	if err != nil {
		return nil, false, err
	}
	defer l.mu.Unlock()

	if l.s.Status != StatusInProgress {
		return nil, false, nil
	}
	if !timer.Expired(l.s.Budget, l.s.Elapsed(e.clock.Now())) {
		return nil, false, nil
	}
	return e.autoSubmitOnTimeout(ctx, l)
}

// autoSubmitOnTimeout submits with the recorded answers, without any
// confirmation step.
func (e *Engine) autoSubmitOnTimeout(ctx context.Context, l *live) (*SubmitResult, bool, error) {
	res, err := e.submitLocked(ctx, l, nil, true)
	if errors.Is(err, ErrAlreadySubmitted) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	e.logger.Info("session auto-submitted", "session", l.s.ID, "score", res.Score, "total", res.Total)
	return res, true, nil
}

func (e *Engine) submitLocked(ctx context.Context, l *live, finalAnswers []*int, auto bool) (*SubmitResult, error) {
	if err := l.s.requireInProgress(); err != nil {
		return nil, err
	}

	now := e.clock.Now()
	next := l.s.Clone()
	elapsed := e.capped(next, next.Elapsed(now))

	counts := make([]int, next.Len())
	for i := range counts {
		counts[i] = optionCount(l.questions, i)
	}
	if err := next.overwriteAnswers(elapsed, finalAnswers, counts); err != nil {
		return nil, err
	}
	next.flush(elapsed)

	res := scoring.Score(l.questions, next.Selected())
	score := res.Correct
	next.Status = StatusSubmitted
	next.Score = &score
	next.SubmittedAt = now
	next.AutoSubmitted = auto

	origin := practice.OriginTest
	if next.Kind == KindPractice {
		origin = practice.OriginPractice
	}
	var records []practice.Record
	for i, a := range next.Answers {
		if a.Selected == nil {
			continue
		}
		records = append(records, practice.Record{
			ID:         e.newID(),
			UserID:     next.UserID,
			QuestionID: next.QuestionIDs[i],
			Correct:    res.PerSlot[i],
			TimeTaken:  a.TimeTaken,
			Origin:     origin,
			SessionID:  next.ID,
			CreatedAt:  now,
		})
	}

	if err := e.store.CommitSubmission(ctx, next, records); err != nil {
		if errors.Is(err, ErrAlreadySubmitted) {
			// Another process won; adopt the stored state.
			if stored, gerr := e.store.GetSession(ctx, next.ID); gerr == nil && stored != nil {
				l.s = stored
			}
			e.forget(next.ID)
			return nil, ErrAlreadySubmitted
		}
		return nil, fmt.Errorf("commit submission: %w", err)
	}

	l.s = next
	if l.stop != nil {
		l.stop()
		l.stop = nil
	}
	e.forget(next.ID)

	return &SubmitResult{
		Session: next.Clone(),
		Score:   res.Correct,
		Total:   res.Total,
		PerSlot: res.PerSlot,
		Records: records,
		Auto:    auto,
	}, nil
}

// Watch starts the countdown for a timed session in the background. The
// countdown ends when the session is submitted or when ctx is done, so ctx
// should outlive the request that started the session. Untimed sessions
// are not watched.
func (e *Engine) Watch(ctx context.Context, id string) error {
	l, err := e.acquire(ctx, id)
	if err != nil {
		return err
	}
	defer l.mu.Unlock()

	if l.s.Status != StatusInProgress || l.s.Budget <= 0 || l.stop != nil {
		return nil
	}
	wctx, cancel := context.WithCancel(ctx)
	l.stop = cancel
	go func() {
		defer cancel()
		timer.Countdown(wctx, e.cfg.TickInterval, func(tctx context.Context) bool {
			_, fired, err := e.Tick(tctx, id)
			if err != nil {
				e.logger.Error("countdown tick failed", "session", id, "error", err)
				return !apperr.IsNotFound(err)
			}
			return !fired && e.isLive(id)
		})
	}()
	return nil
}

// Evict drops in-memory sessions that have not been touched for idle.
// Sessions under a running countdown are kept. Evicted sessions are
// reloaded from the store on their next event. It returns the number of
// sessions dropped.
func (e *Engine) Evict(idle time.Duration) int {
	now := e.clock.Now()
	e.mu.Lock()
	defer e.mu.Unlock()

	n := 0
	for id, l := range e.live {
		// A held lock means the session is busy right now.
		if !l.mu.TryLock() {
			continue
		}
		if l.stop == nil && now.Sub(l.used) >= idle {
			l.evicted = true
			delete(e.live, id)
			n++
		}
		l.mu.Unlock()
	}
	return n
}

// Sweep calls Evict every interval until ctx is done.
func (e *Engine) Sweep(ctx context.Context, interval, idle time.Duration) {
	timer.Countdown(ctx, interval, func(context.Context) bool {
		if n := e.Evict(idle); n > 0 {
			e.logger.Debug("evicted idle sessions", "count", n)
		}
		return true
	})
}

func (e *Engine) isLive(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.live[id]
	return ok
}

// Get returns a snapshot of the session, live or persisted. A timed
// session found past its budget is auto-submitted first.
func (e *Engine) Get(ctx context.Context, id string) (*Session, []*question.Question, error) {
	l, err := e.acquire(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	defer l.mu.Unlock()
	if err := e.expireLocked(ctx, l); err != nil && !errors.Is(err, ErrAlreadySubmitted) {
		return nil, nil, err
	}
	return l.s.Clone(), l.questions, nil
}

// Remaining returns the countdown left on a timed session, and zero for
// untimed or finished ones.
func (e *Engine) Remaining(s *Session) time.Duration {
	if s.Status != StatusInProgress {
		return 0
	}
	return timer.Remaining(s.Budget, s.Elapsed(e.clock.Now()))
}

// capped clamps elapsed to a timed session's budget so attributed time
// never exceeds the time the user was allowed.
func (e *Engine) capped(s *Session, elapsed time.Duration) time.Duration {
	if s.Budget > 0 && elapsed > s.Budget {
		return s.Budget
	}
	return elapsed
}

func optionCount(qs []*question.Question, slot int) int {
	if slot < 0 || slot >= len(qs) || qs[slot] == nil {
		return question.OptionCount
	}
	return len(qs[slot].Options)
}
