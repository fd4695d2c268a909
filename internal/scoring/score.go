// Package scoring grades a set of answers against their questions. It is
// pure: no I/O, no clocks.
package scoring

import (
	"time"

	"github.com/abhisek/momentum/internal/question"
)

// Result is the outcome of grading one session.
type Result struct {
	Correct int
	Total   int
	PerSlot []bool
}

// Answered returns the number of slots that carry a selection.
func Answered(selected []*int) int {
	n := 0
	for _, s := range selected {
		if s != nil {
			n++
		}
	}
	return n
}

// Score grades selected against questions slot by slot. A slot is correct
// only when it has a selection equal to the correct index; unanswered slots
// and slots whose question no longer exists are incorrect.
func Score(questions []*question.Question, selected []*int) Result {
	res := Result{
		Total:   len(selected),
		PerSlot: make([]bool, len(selected)),
	}
	for i, sel := range selected {
		if sel == nil || i >= len(questions) || questions[i] == nil {
			continue
		}
		if questions[i].IsCorrect(*sel) {
			res.PerSlot[i] = true
			res.Correct++
		}
	}
	return res
}

// TimeBreakdown splits the time spent in a session by outcome.
type TimeBreakdown struct {
	Correct    time.Duration
	Incorrect  time.Duration
	Unanswered time.Duration
}

// Total returns the sum of all buckets.
func (b TimeBreakdown) Total() time.Duration {
	return b.Correct + b.Incorrect + b.Unanswered
}

// Breakdown attributes each slot's time to the correct, incorrect or
// unanswered bucket.
func Breakdown(questions []*question.Question, selected []*int, times []time.Duration) TimeBreakdown {
	res := Score(questions, selected)
	var b TimeBreakdown
	for i := range selected {
		var d time.Duration
		if i < len(times) {
			d = times[i]
		}
		switch {
		case selected[i] == nil:
			b.Unanswered += d
		case res.PerSlot[i]:
			b.Correct += d
		default:
			b.Incorrect += d
		}
	}
	return b
}
