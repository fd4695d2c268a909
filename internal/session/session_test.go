package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/abhisek/momentum/internal/apperr"
	"github.com/abhisek/momentum/internal/practice"
	"github.com/abhisek/momentum/internal/question"
	"github.com/abhisek/momentum/internal/timer"
)

// memStore implements Store in memory.
type memStore struct {
	mu       sync.Mutex
	sessions map[string]*Session
	records  []practice.Record
	commits  int
}

func newMemStore() *memStore {
	return &memStore{sessions: make(map[string]*Session)}
}

func (m *memStore) CreateSession(_ context.Context, s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = s.Clone()
	return nil
}

func (m *memStore) GetSession(_ context.Context, id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, nil
	}
	return s.Clone(), nil
}

func (m *memStore) UpdateSession(_ context.Context, s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = s.Clone()
	return nil
}

func (m *memStore) CommitSubmission(_ context.Context, s *Session, records []practice.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if cur, ok := m.sessions[s.ID]; ok && cur.Status == StatusSubmitted {
		return ErrAlreadySubmitted
	}
	m.sessions[s.ID] = s.Clone()
	m.records = append(m.records, records...)
	m.commits++
	return nil
}

func (m *memStore) commitCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.commits
}

// memBank implements Questions and Drawer. Draw returns questions in bank
// order so tests know which slot holds which question.
type memBank struct {
	questions []*question.Question
}

func (b *memBank) FindByIDs(_ context.Context, ids []string) ([]*question.Question, error) {
	out := make([]*question.Question, len(ids))
	for i, id := range ids {
		for _, q := range b.questions {
			if q.ID == id {
				out[i] = q
			}
		}
	}
	return out, nil
}

func (b *memBank) Draw(_ context.Context, f question.Filter, n int) ([]*question.Question, error) {
	var out []*question.Question
	for _, q := range b.questions {
		if len(out) == n {
			break
		}
		if f.Matches(q) {
			out = append(out, q)
		}
	}
	return out, nil
}

// newBank builds n Percentages questions whose correct answer is i%4.
func newBank(n int) *memBank {
	b := &memBank{}
	for i := 0; i < n; i++ {
		b.questions = append(b.questions, &question.Question{
			ID:         fmt.Sprintf("q%d", i),
			Prompt:     fmt.Sprintf("question %d", i),
			Options:    []string{"a", "b", "c", "d"},
			Answer:     i % 4,
			Difficulty: question.Easy,
			Chapter:    "Percentages",
			Subject:    "Maths",
			SkillType:  question.SkillLearning,
		})
	}
	return b
}

var epoch = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

type harness struct {
	engine *Engine
	store  *memStore
	bank   *memBank
	clock  *timer.Manual
}

func newHarness(t *testing.T, bankSize int, opts ...Option) *harness {
	t.Helper()
	h := &harness{
		store: newMemStore(),
		bank:  newBank(bankSize),
		clock: timer.NewManual(epoch),
	}
	opts = append([]Option{WithClock(h.clock)}, opts...)
	h.engine = NewEngine(h.store, h.bank, h.bank, opts...)
	return h
}

func (h *harness) start(t *testing.T) *StartResult {
	t.Helper()
	res, err := h.engine.Start(context.Background(), StartRequest{
		UserID:   "u1",
		Subject:  "Maths",
		Chapters: []string{"Percentages"},
	})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	return res
}

func TestStart_DrawsFullTest(t *testing.T) {
	h := newHarness(t, 20)
	res := h.start(t)

	s := res.Session
	if s.Status != StatusInProgress {
		t.Errorf("Status = %v, want in_progress", s.Status)
	}
	if s.Len() != DefaultTestSize || len(s.Answers) != s.Len() {
		t.Errorf("slots = %d, answers = %d, want %d", s.Len(), len(s.Answers), DefaultTestSize)
	}
	if res.ShortDraw() {
		t.Error("unexpected short draw")
	}
	if s.Budget != DefaultTestBudget {
		t.Errorf("Budget = %v, want %v", s.Budget, DefaultTestBudget)
	}
	if stored, _ := h.store.GetSession(context.Background(), s.ID); stored == nil {
		t.Error("session was not persisted")
	}
}

func TestStart_ShortDraw(t *testing.T) {
	h := newHarness(t, 4)
	res := h.start(t)
	if !res.ShortDraw() {
		t.Error("expected short draw")
	}
	if res.Drawn != 4 || res.Requested != DefaultTestSize {
		t.Errorf("Drawn/Requested = %d/%d, want 4/%d", res.Drawn, res.Requested, DefaultTestSize)
	}
	if res.Session.Len() != 4 {
		t.Errorf("Len = %d, want 4", res.Session.Len())
	}
}

func TestStart_NoQuestions(t *testing.T) {
	h := newHarness(t, 0)
	_, err := h.engine.Start(context.Background(), StartRequest{
		UserID: "u1", Subject: "Maths", Chapters: []string{"Percentages"},
	})
	if !errors.Is(err, ErrNoQuestionsAvailable) {
		t.Errorf("err = %v, want ErrNoQuestionsAvailable", err)
	}
}

func TestStart_Validation(t *testing.T) {
	h := newHarness(t, 5)
	tests := []StartRequest{
		{Subject: "Maths", Chapters: []string{"Percentages"}},
		{UserID: "u1", Chapters: []string{"Percentages"}},
		{UserID: "u1", Subject: "Maths"},
		{UserID: "u1", Subject: "Maths", Chapters: []string{"Percentages"}, Kind: "exam"},
	}
	for i, req := range tests {
		if _, err := h.engine.Start(context.Background(), req); !apperr.IsValidation(err) {
			t.Errorf("case %d: err = %v, want ValidationError", i, err)
		}
	}
}

func TestStart_PracticeKindIsUntimed(t *testing.T) {
	h := newHarness(t, 5)
	res, err := h.engine.Start(context.Background(), StartRequest{
		UserID: "u1", Kind: KindPractice, Subject: "Maths", Chapters: []string{"Percentages"},
	})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if res.Session.Budget != 0 {
		t.Errorf("Budget = %v, want 0", res.Session.Budget)
	}
	h.clock.Advance(time.Hour)
	if _, fired, _ := h.engine.Tick(context.Background(), res.Session.ID); fired {
		t.Error("untimed session must not auto-submit")
	}
}

func TestTimeAttribution_SumMatchesElapsed(t *testing.T) {
	h := newHarness(t, 10)
	id := h.start(t).Session.ID
	ctx := context.Background()

	steps := []struct {
		wait time.Duration
		slot int
	}{
		{5 * time.Second, 1},
		{7 * time.Second, 2},
		{3 * time.Second, 0},
		{11 * time.Second, 2},
		{2 * time.Second, 9},
	}
	for _, st := range steps {
		h.clock.Advance(st.wait)
		if _, err := h.engine.NavigateTo(ctx, id, st.slot); err != nil {
			t.Fatalf("NavigateTo(%d): %v", st.slot, err)
		}
	}
	h.clock.Advance(4 * time.Second)
	res, err := h.engine.Submit(ctx, id, nil)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	var sum time.Duration
	for _, a := range res.Session.Answers {
		sum += a.TimeTaken
	}
	if want := 32 * time.Second; sum != want {
		t.Errorf("sum of slot times = %v, want %v", sum, want)
	}
	if got := res.Session.Answers[0].TimeTaken; got != 16*time.Second {
		t.Errorf("slot 0 = %v, want 16s (5s + 11s)", got)
	}
	if got := res.Session.Answers[2].TimeTaken; got != 5*time.Second {
		t.Errorf("slot 2 = %v, want 5s (3s + 2s)", got)
	}
	if got := res.Session.Answers[9].TimeTaken; got != 4*time.Second {
		t.Errorf("slot 9 = %v, want 4s", got)
	}
}

func TestSelectAnswer_AttributesAndOverwrites(t *testing.T) {
	h := newHarness(t, 10)
	id := h.start(t).Session.ID
	ctx := context.Background()

	h.clock.Advance(10 * time.Second)
	if _, err := h.engine.SelectAnswer(ctx, id, 0, 2); err != nil {
		t.Fatalf("SelectAnswer: %v", err)
	}
	h.clock.Advance(5 * time.Second)
	s, err := h.engine.SelectAnswer(ctx, id, 0, 0)
	if err != nil {
		t.Fatalf("SelectAnswer: %v", err)
	}

	a := s.Answers[0]
	if a.Selected == nil || *a.Selected != 0 {
		t.Errorf("Selected = %v, want 0 (last write wins)", a.Selected)
	}
	if a.TimeTaken != 15*time.Second {
		t.Errorf("TimeTaken = %v, want 15s", a.TimeTaken)
	}
	if a.AnsweredAt == nil || *a.AnsweredAt != 15*time.Second {
		t.Errorf("AnsweredAt = %v, want 15s", a.AnsweredAt)
	}

	// Selecting on another slot moves there first.
	h.clock.Advance(4 * time.Second)
	s, err = h.engine.SelectAnswer(ctx, id, 3, 1)
	if err != nil {
		t.Fatalf("SelectAnswer(3): %v", err)
	}
	if s.ActiveSlot != 3 {
		t.Errorf("ActiveSlot = %d, want 3", s.ActiveSlot)
	}
	if s.Answers[0].TimeTaken != 19*time.Second {
		t.Errorf("slot 0 = %v, want 19s", s.Answers[0].TimeTaken)
	}
}

func TestSelectAnswer_RejectsOutOfRange(t *testing.T) {
	h := newHarness(t, 10)
	id := h.start(t).Session.ID
	ctx := context.Background()

	for _, tc := range []struct{ slot, option int }{{-1, 0}, {10, 0}, {0, 4}, {0, -1}} {
		_, err := h.engine.SelectAnswer(ctx, id, tc.slot, tc.option)
		if !apperr.IsValidation(err) {
			t.Errorf("SelectAnswer(%d, %d) = %v, want ValidationError", tc.slot, tc.option, err)
		}
	}
	s, _, err := h.engine.Get(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	for i, a := range s.Answers {
		if a.Selected != nil {
			t.Errorf("slot %d mutated by rejected selection", i)
		}
	}
}

func TestSubmit_ScenarioThreeRightTwoWrong(t *testing.T) {
	h := newHarness(t, 10)
	id := h.start(t).Session.ID
	ctx := context.Background()

	// Slot i holds question i whose answer is i%4.
	picks := map[int]int{0: 0, 1: 1, 2: 2, 3: 0, 4: 1}
	for slot := 0; slot < 5; slot++ {
		h.clock.Advance(time.Second)
		if _, err := h.engine.SelectAnswer(ctx, id, slot, picks[slot]); err != nil {
			t.Fatalf("SelectAnswer(%d): %v", slot, err)
		}
	}

	res, err := h.engine.Submit(ctx, id, nil)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if res.Score != 3 || res.Total != 10 {
		t.Errorf("score = %d/%d, want 3/10", res.Score, res.Total)
	}
	if len(res.Records) != 5 {
		t.Fatalf("records = %d, want 5", len(res.Records))
	}
	correct := 0
	for _, r := range res.Records {
		if r.Correct {
			correct++
		}
		if r.Origin != practice.OriginTest || r.SessionID != id {
			t.Errorf("record origin = %q session = %q", r.Origin, r.SessionID)
		}
	}
	if correct != 3 {
		t.Errorf("correct records = %d, want 3", correct)
	}
	if res.Session.Score == nil || *res.Session.Score != 3 {
		t.Errorf("session score = %v, want 3", res.Session.Score)
	}
	if len(h.store.records) != 5 {
		t.Errorf("persisted records = %d, want 5", len(h.store.records))
	}
}

func TestSubmit_FinalAnswersOverwrite(t *testing.T) {
	h := newHarness(t, 4)
	id := h.start(t).Session.ID
	ctx := context.Background()

	if _, err := h.engine.SelectAnswer(ctx, id, 0, 3); err != nil {
		t.Fatal(err)
	}
	one, two := 1, 2
	res, err := h.engine.Submit(ctx, id, []*int{nil, &one, &two, nil})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if res.Score != 2 {
		t.Errorf("Score = %d, want 2", res.Score)
	}
	if res.Session.Answers[0].Selected != nil {
		t.Error("final sheet should clear slot 0")
	}

	_, err = h.engine.Submit(ctx, id, []*int{nil})
	if !errors.Is(err, ErrAlreadySubmitted) {
		t.Errorf("second submit = %v, want ErrAlreadySubmitted", err)
	}
}

func TestSubmit_BadFinalSheetIsValidation(t *testing.T) {
	h := newHarness(t, 4)
	id := h.start(t).Session.ID
	_, err := h.engine.Submit(context.Background(), id, []*int{nil})
	if !apperr.IsValidation(err) {
		t.Errorf("err = %v, want ValidationError", err)
	}
	// The session is still open after a rejected sheet.
	if _, err := h.engine.Submit(context.Background(), id, nil); err != nil {
		t.Errorf("Submit after rejected sheet: %v", err)
	}
}

func TestSubmit_OnlyOnce(t *testing.T) {
	h := newHarness(t, 10)
	id := h.start(t).Session.ID
	ctx := context.Background()

	first, err := h.engine.Submit(ctx, id, nil)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if _, err := h.engine.Submit(ctx, id, nil); !errors.Is(err, ErrAlreadySubmitted) {
		t.Errorf("second Submit = %v, want ErrAlreadySubmitted", err)
	}
	if _, err := h.engine.SelectAnswer(ctx, id, 0, 0); !errors.Is(err, ErrAlreadySubmitted) {
		t.Errorf("SelectAnswer after submit = %v, want ErrAlreadySubmitted", err)
	}
	if _, err := h.engine.NavigateTo(ctx, id, 1); !errors.Is(err, ErrAlreadySubmitted) {
		t.Errorf("NavigateTo after submit = %v, want ErrAlreadySubmitted", err)
	}

	s, _, err := h.engine.Get(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if !s.SubmittedAt.Equal(first.Session.SubmittedAt) || s.Status != StatusSubmitted {
		t.Error("submitted session changed after rejected mutations")
	}
	if h.store.commitCount() != 1 {
		t.Errorf("commits = %d, want 1", h.store.commitCount())
	}
}

func TestSubmit_ConcurrentCallersOneWinner(t *testing.T) {
	h := newHarness(t, 10)
	id := h.start(t).Session.ID

	var wins, rejected atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := h.engine.Submit(context.Background(), id, nil)
			switch {
			case err == nil:
				wins.Add(1)
			case errors.Is(err, ErrAlreadySubmitted):
				rejected.Add(1)
			default:
				t.Errorf("Submit: %v", err)
			}
		}()
	}
	wg.Wait()

	if wins.Load() != 1 || rejected.Load() != 15 {
		t.Errorf("wins = %d, rejected = %d, want 1 and 15", wins.Load(), rejected.Load())
	}
	if h.store.commitCount() != 1 {
		t.Errorf("commits = %d, want 1", h.store.commitCount())
	}
}

func TestTick_AutoSubmitOnTimeout(t *testing.T) {
	h := newHarness(t, 10)
	id := h.start(t).Session.ID
	ctx := context.Background()

	h.clock.Advance(DefaultTestBudget - time.Second)
	if _, fired, err := h.engine.Tick(ctx, id); err != nil || fired {
		t.Fatalf("Tick before budget: fired=%v err=%v", fired, err)
	}

	h.clock.Advance(time.Second)
	res, fired, err := h.engine.Tick(ctx, id)
	if err != nil || !fired {
		t.Fatalf("Tick at budget: fired=%v err=%v", fired, err)
	}
	if !res.Auto || !res.Session.AutoSubmitted {
		t.Error("result should be flagged as auto-submitted")
	}
	if res.Score != 0 || res.Total != 10 || len(res.Records) != 0 {
		t.Errorf("result = %d/%d with %d records, want 0/10 with 0", res.Score, res.Total, len(res.Records))
	}
	if res.Session.Answers[0].TimeTaken != DefaultTestBudget {
		t.Errorf("slot 0 time = %v, want full budget", res.Session.Answers[0].TimeTaken)
	}

	// Duplicate timer fires are absorbed.
	h.clock.Advance(time.Second)
	if _, fired, err := h.engine.Tick(ctx, id); err != nil || fired {
		t.Errorf("duplicate Tick: fired=%v err=%v", fired, err)
	}
	if _, err := h.engine.Submit(ctx, id, nil); !errors.Is(err, ErrAlreadySubmitted) {
		t.Errorf("Submit after auto-submit = %v, want ErrAlreadySubmitted", err)
	}
	if h.store.commitCount() != 1 {
		t.Errorf("commits = %d, want 1", h.store.commitCount())
	}
}

func TestTick_LateTickCapsTimeAtBudget(t *testing.T) {
	h := newHarness(t, 2)
	id := h.start(t).Session.ID

	h.clock.Advance(DefaultTestBudget + 3*time.Second)
	res, fired, err := h.engine.Tick(context.Background(), id)
	if err != nil || !fired {
		t.Fatalf("Tick: fired=%v err=%v", fired, err)
	}
	var sum time.Duration
	for _, a := range res.Session.Answers {
		sum += a.TimeTaken
	}
	if sum != DefaultTestBudget {
		t.Errorf("sum = %v, want %v", sum, DefaultTestBudget)
	}
}

func TestExpired_UserEventsAutoSubmitFirst(t *testing.T) {
	h := newHarness(t, 4)
	id := h.start(t).Session.ID
	ctx := context.Background()

	if _, err := h.engine.SelectAnswer(ctx, id, 0, 0); err != nil {
		t.Fatal(err)
	}
	// No countdown is running; the budget runs out unobserved.
	h.clock.Advance(DefaultTestBudget + 10*time.Minute)

	if _, err := h.engine.SelectAnswer(ctx, id, 1, 1); !errors.Is(err, ErrAlreadySubmitted) {
		t.Fatalf("SelectAnswer after budget = %v, want ErrAlreadySubmitted", err)
	}
	if _, err := h.engine.NavigateTo(ctx, id, 2); !errors.Is(err, ErrAlreadySubmitted) {
		t.Errorf("NavigateTo after budget = %v, want ErrAlreadySubmitted", err)
	}
	if _, err := h.engine.Submit(ctx, id, nil); !errors.Is(err, ErrAlreadySubmitted) {
		t.Errorf("Submit after budget = %v, want ErrAlreadySubmitted", err)
	}

	s, _ := h.store.GetSession(ctx, id)
	if s.Status != StatusSubmitted || !s.AutoSubmitted {
		t.Fatalf("stored status = %v auto = %v", s.Status, s.AutoSubmitted)
	}
	if s.Score == nil || *s.Score != 1 {
		t.Errorf("score = %v, want 1 (late selection ignored)", s.Score)
	}
	if s.Answers[1].Selected != nil {
		t.Error("late selection was recorded")
	}
	if h.store.commitCount() != 1 {
		t.Errorf("commits = %d, want 1", h.store.commitCount())
	}
}

func TestExpired_SubmitAfterBudgetIsAuto(t *testing.T) {
	h := newHarness(t, 4)
	id := h.start(t).Session.ID
	ctx := context.Background()

	h.clock.Advance(DefaultTestBudget)
	one := 1
	if _, err := h.engine.Submit(ctx, id, []*int{&one, &one, &one, &one}); !errors.Is(err, ErrAlreadySubmitted) {
		t.Fatalf("Submit = %v, want ErrAlreadySubmitted", err)
	}
	s, _ := h.store.GetSession(ctx, id)
	if !s.AutoSubmitted || s.Score == nil || *s.Score != 0 {
		t.Errorf("stored auto = %v score = %v, want auto with 0", s.AutoSubmitted, s.Score)
	}
}

func TestResume_ExpiredAfterRestart(t *testing.T) {
	h := newHarness(t, 4)
	id := h.start(t).Session.ID
	ctx := context.Background()

	h.clock.Advance(time.Minute)
	if _, err := h.engine.SelectAnswer(ctx, id, 0, 0); err != nil {
		t.Fatal(err)
	}

	// The process restarts; the new engine has no countdown for the session.
	restarted := NewEngine(h.store, h.bank, h.bank, WithClock(h.clock))
	h.clock.Advance(DefaultTestBudget + 10*time.Minute)

	if _, err := restarted.SelectAnswer(ctx, id, 0, 0); !errors.Is(err, ErrAlreadySubmitted) {
		t.Fatalf("SelectAnswer = %v, want ErrAlreadySubmitted", err)
	}
	s, _, err := restarted.Get(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if s.Status != StatusSubmitted || !s.AutoSubmitted || s.Score == nil || *s.Score != 1 {
		t.Errorf("session = %v auto=%v score=%v", s.Status, s.AutoSubmitted, s.Score)
	}
	var sum time.Duration
	for _, a := range s.Answers {
		sum += a.TimeTaken
	}
	if sum != DefaultTestBudget {
		t.Errorf("attributed time = %v, want %v", sum, DefaultTestBudget)
	}
}

func TestResume_GetExpiresOverdueSession(t *testing.T) {
	h := newHarness(t, 2)
	id := h.start(t).Session.ID
	ctx := context.Background()

	restarted := NewEngine(h.store, h.bank, h.bank, WithClock(h.clock))
	h.clock.Advance(DefaultTestBudget + time.Second)
	s, _, err := restarted.Get(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if s.Status != StatusSubmitted || !s.AutoSubmitted {
		t.Errorf("Get = %v auto=%v, want auto-submitted", s.Status, s.AutoSubmitted)
	}
}

func TestResume_WithinBudgetKeepsGoing(t *testing.T) {
	h := newHarness(t, 4)
	id := h.start(t).Session.ID
	ctx := context.Background()

	restarted := NewEngine(h.store, h.bank, h.bank, WithClock(h.clock))
	h.clock.Advance(DefaultTestBudget - time.Second)
	if _, err := restarted.SelectAnswer(ctx, id, 1, 1); err != nil {
		t.Fatalf("SelectAnswer: %v", err)
	}
	res, err := restarted.Submit(ctx, id, nil)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if res.Auto || res.Score != 1 {
		t.Errorf("result auto=%v score=%d, want manual 1", res.Auto, res.Score)
	}
}

func TestWatch_AutoSubmits(t *testing.T) {
	h := newHarness(t, 3, WithConfig(Config{TickInterval: time.Millisecond}))
	id := h.start(t).Session.ID

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := h.engine.Watch(ctx, id); err != nil {
		t.Fatalf("Watch: %v", err)
	}
	h.clock.Advance(DefaultTestBudget)

	deadline := time.Now().Add(2 * time.Second)
	for h.store.commitCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("countdown never auto-submitted")
		}
		time.Sleep(time.Millisecond)
	}
	s, _ := h.store.GetSession(context.Background(), id)
	if s.Status != StatusSubmitted || !s.AutoSubmitted {
		t.Errorf("stored status = %v auto = %v", s.Status, s.AutoSubmitted)
	}
}

func TestHydrate_ResumesFromStore(t *testing.T) {
	h := newHarness(t, 5)
	id := h.start(t).Session.ID
	ctx := context.Background()

	h.clock.Advance(3 * time.Second)
	if _, err := h.engine.SelectAnswer(ctx, id, 1, 1); err != nil {
		t.Fatal(err)
	}

	// A second engine over the same store picks the session up.
	other := NewEngine(h.store, h.bank, h.bank, WithClock(h.clock))
	res, err := other.Submit(ctx, id, nil)
	if err != nil {
		t.Fatalf("Submit via other engine: %v", err)
	}
	if res.Score != 1 {
		t.Errorf("Score = %d, want 1", res.Score)
	}

	// The first engine still holds a stale live copy; the store rejects it.
	if _, err := h.engine.Submit(ctx, id, nil); !errors.Is(err, ErrAlreadySubmitted) {
		t.Errorf("stale Submit = %v, want ErrAlreadySubmitted", err)
	}
}

func TestGet_UnknownSession(t *testing.T) {
	h := newHarness(t, 1)
	_, _, err := h.engine.Get(context.Background(), "missing")
	if !apperr.IsNotFound(err) {
		t.Errorf("err = %v, want NotFoundError", err)
	}
}

func TestRemaining(t *testing.T) {
	h := newHarness(t, 2)
	s := h.start(t).Session
	h.clock.Advance(5 * time.Minute)
	if got := h.engine.Remaining(s); got != 15*time.Minute {
		t.Errorf("Remaining = %v, want 15m", got)
	}
}

// holeyDrawer returns a nil entry for a question that disappeared.
type holeyDrawer struct{ bank *memBank }

func (d holeyDrawer) Draw(ctx context.Context, f question.Filter, n int) ([]*question.Question, error) {
	qs, _ := d.bank.Draw(ctx, f, n)
	qs[1] = nil
	return qs, nil
}

func TestStart_SkipsMissingQuestions(t *testing.T) {
	bank := newBank(3)
	e := NewEngine(newMemStore(), bank, holeyDrawer{bank: bank}, WithClock(timer.NewManual(epoch)))
	res, err := e.Start(context.Background(), StartRequest{
		UserID: "u1", Subject: "Maths", Chapters: []string{"Percentages"},
	})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if res.Drawn != 2 || res.Session.QuestionIDs[1] != "q2" {
		t.Errorf("drawn = %d ids = %v", res.Drawn, res.Session.QuestionIDs)
	}
}

func TestEvict_DropsIdleSessions(t *testing.T) {
	h := newHarness(t, 4)
	ctx := context.Background()
	practiceRes, err := h.engine.Start(ctx, StartRequest{
		UserID: "u1", Kind: KindPractice, Subject: "Maths", Chapters: []string{"Percentages"},
	})
	if err != nil {
		t.Fatal(err)
	}
	pid := practiceRes.Session.ID
	if _, err := h.engine.SelectAnswer(ctx, pid, 0, 0); err != nil {
		t.Fatal(err)
	}

	wctx, cancel := context.WithCancel(ctx)
	defer cancel()
	watched := newHarness(t, 4, WithConfig(Config{TickInterval: time.Hour}))
	wid := watched.start(t).Session.ID
	if err := watched.engine.Watch(wctx, wid); err != nil {
		t.Fatal(err)
	}

	h.clock.Advance(10 * time.Minute)
	if n := h.engine.Evict(30 * time.Minute); n != 0 {
		t.Errorf("Evict before idle = %d, want 0", n)
	}
	h.clock.Advance(time.Hour)
	if n := h.engine.Evict(30 * time.Minute); n != 1 {
		t.Errorf("Evict = %d, want 1", n)
	}
	if h.engine.isLive(pid) {
		t.Error("idle session still live")
	}

	// An evicted session reloads with its answers.
	s, _, err := h.engine.Get(ctx, pid)
	if err != nil {
		t.Fatal(err)
	}
	if s.Answers[0].Selected == nil {
		t.Error("selection lost across eviction")
	}

	watched.clock.Advance(2 * time.Hour)
	if n := watched.engine.Evict(time.Minute); n != 0 {
		t.Errorf("Evict of watched session = %d, want 0", n)
	}
}
