// Package timer attributes session time to question slots and drives the
// per-second countdown for timed sessions.
//
// Nothing here reads an ambient clock on its own: callers pass elapsed
// durations in, and the Clock they inject decides what "now" means.
package timer

import (
	"sync"
	"time"
)

// Clock is the time source for sessions.
type Clock interface {
	Now() time.Time
}

// System is the wall clock.
type System struct{}

func (System) Now() time.Time { return time.Now() }

// Manual is a Clock that only moves when told to. Safe for concurrent use.
type Manual struct {
	mu  sync.Mutex
	now time.Time
}

// NewManual returns a Manual clock set to start.
func NewManual(start time.Time) *Manual {
	return &Manual{now: start}
}

func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Advance moves the clock forward by d.
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	m.now = m.now.Add(d)
	m.mu.Unlock()
}

// Timer tracks the elapsed mark at which the active slot last changed.
// The zero value starts attributing from elapsed 0.
type Timer struct {
	Mark time.Duration
}

// Attribute returns the time spent on the active slot since the previous
// switch and moves the mark to elapsed. Callers add the returned delta to
// the slot's cumulative time. A clock that moved backwards yields zero.
func (t *Timer) Attribute(elapsed time.Duration) time.Duration {
	if elapsed <= t.Mark {
		return 0
	}
	delta := elapsed - t.Mark
	t.Mark = elapsed
	return delta
}

// Pending returns the unattributed time on the active slot without moving
// the mark.
func (t Timer) Pending(elapsed time.Duration) time.Duration {
	if elapsed <= t.Mark {
		return 0
	}
	return elapsed - t.Mark
}

// Remaining returns the countdown left for a budget. A zero budget means
// the session is untimed and Remaining reports zero.
func Remaining(budget, elapsed time.Duration) time.Duration {
	if budget <= 0 || elapsed >= budget {
		return 0
	}
	return budget - elapsed
}

// Expired reports whether a timed session has used up its budget.
func Expired(budget, elapsed time.Duration) bool {
	return budget > 0 && elapsed >= budget
}
