package session

import (
	"time"

	"github.com/abhisek/momentum/internal/apperr"
	"github.com/abhisek/momentum/internal/timer"
)

// Pure state transitions. Each takes the session elapsed time explicitly so
// the same event sequence always produces the same state. None of them
// touch storage.

// begin moves a Created session to InProgress and starts its clock.
func (s *Session) begin(now time.Time) error {
	switch s.Status {
	case StatusInProgress:
		return nil
	case StatusSubmitted:
		return ErrAlreadySubmitted
	}
	s.Status = StatusInProgress
	s.StartedAt = now
	s.ActiveSlot = 0
	s.Timer = timer.Timer{}
	return nil
}

func (s *Session) requireInProgress() error {
	switch s.Status {
	case StatusInProgress:
		return nil
	case StatusSubmitted:
		return ErrAlreadySubmitted
	default:
		return ErrNotInProgress
	}
}

func (s *Session) checkSlot(slot int) error {
	if slot < 0 || slot >= s.Len() {
		return apperr.Invalid("slot", "%d out of range [0,%d)", slot, s.Len())
	}
	return nil
}

// flush adds the time since the last switch to the active slot.
func (s *Session) flush(elapsed time.Duration) {
	if s.Len() == 0 {
		return
	}
	s.Answers[s.ActiveSlot].TimeTaken += s.Timer.Attribute(elapsed)
}

// navigate flushes the active slot and then moves the pointer.
func (s *Session) navigate(elapsed time.Duration, slot int) error {
	if err := s.requireInProgress(); err != nil {
		return err
	}
	if err := s.checkSlot(slot); err != nil {
		return err
	}
	if slot == s.ActiveSlot {
		return nil
	}
	s.flush(elapsed)
	s.ActiveSlot = slot
	return nil
}

// selectAnswer records option on slot. optionCount bounds the option index.
// Selecting on a slot other than the active one navigates there first.
func (s *Session) selectAnswer(elapsed time.Duration, slot, option, optionCount int) error {
	if err := s.requireInProgress(); err != nil {
		return err
	}
	if err := s.checkSlot(slot); err != nil {
		return err
	}
	if option < 0 || option >= optionCount {
		return apperr.Invalid("option", "%d out of range [0,%d)", option, optionCount)
	}
	if err := s.navigate(elapsed, slot); err != nil {
		return err
	}
	s.flush(elapsed)

	a := &s.Answers[slot]
	opt := option
	at := elapsed
	a.Selected = &opt
	a.AnsweredAt = &at
	return nil
}

// overwriteAnswers applies a client's final answer sheet. A nil sheet keeps
// the recorded selections.
func (s *Session) overwriteAnswers(elapsed time.Duration, final []*int, optionCounts []int) error {
	if final == nil {
		return nil
	}
	if len(final) != s.Len() {
		return apperr.Invalid("answers", "expected %d entries, got %d", s.Len(), len(final))
	}
	for i, sel := range final {
		if sel == nil {
			continue
		}
		if *sel < 0 || (i < len(optionCounts) && *sel >= optionCounts[i]) {
			return apperr.Invalid("answers", "slot %d option %d out of range", i, *sel)
		}
	}
	for i, sel := range final {
		if sel == nil {
			s.Answers[i].Selected = nil
			s.Answers[i].AnsweredAt = nil
			continue
		}
		if cur := s.Answers[i].Selected; cur != nil && *cur == *sel {
			continue
		}
		v := *sel
		at := elapsed
		s.Answers[i].Selected = &v
		s.Answers[i].AnsweredAt = &at
	}
	return nil
}
