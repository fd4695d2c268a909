// Package sampling picks questions from the bank, optionally skipping the
// ones a user has already solved.
package sampling

import (
	"context"
	"fmt"
	"math/rand/v2"
	"slices"

	"github.com/abhisek/momentum/internal/question"
)

// Bank is the subset of the question bank the policy reads. FindByID
// returns (nil, nil) for an unknown id; FindByIDs preserves the order of ids
// and leaves nil entries for unknown ones.
type Bank interface {
	CandidateIDs(ctx context.Context, f question.Filter, exclude []string) ([]string, error)
	FindByID(ctx context.Context, id string) (*question.Question, error)
	FindByIDs(ctx context.Context, ids []string) ([]*question.Question, error)
}

// SolvedSets exposes each user's solved-question set.
type SolvedSets interface {
	SolvedSet(ctx context.Context, userID string) ([]string, error)
}

// Policy draws questions uniformly at random from the candidates matching
// a filter.
type Policy struct {
	bank   Bank
	solved SolvedSets
	intN   func(n int) int
}

// Option configures a Policy.
type Option func(*Policy)

// WithRand makes the policy draw from r instead of the global source.
// r must not be shared with other goroutines.
func WithRand(r *rand.Rand) Option {
	return func(p *Policy) { p.intN = r.IntN }
}

// New creates a Policy.
func New(bank Bank, solved SolvedSets, opts ...Option) *Policy {
	p := &Policy{bank: bank, solved: solved, intN: rand.IntN}
	for _, o := range opts {
		o(p)
	}
	return p
}

// NextQuestion returns one question matching f. With excludeSolved set,
// questions in the user's solved set are never returned. An empty pool
// yields (nil, nil).
func (p *Policy) NextQuestion(ctx context.Context, userID string, f question.Filter, excludeSolved bool) (*question.Question, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}

	var exclude []string
	if excludeSolved {
		solved, err := p.solved.SolvedSet(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("load solved set: %w", err)
		}
		exclude = solved
	}

	ids, err := p.bank.CandidateIDs(ctx, f, exclude)
	if err != nil {
		return nil, fmt.Errorf("list candidates: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	id := ids[p.intN(len(ids))]
	q, err := p.bank.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load question %s: %w", id, err)
	}
	return q, nil
}

// Draw returns up to n distinct questions matching f in random order.
// Fewer than n are returned when the pool is smaller.
func (p *Policy) Draw(ctx context.Context, f question.Filter, n int) ([]*question.Question, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	ids, err := p.bank.CandidateIDs(ctx, f, nil)
	if err != nil {
		return nil, fmt.Errorf("list candidates: %w", err)
	}

	// Partial Fisher-Yates: only the first n positions need shuffling.
	if n > len(ids) {
		n = len(ids)
	}
	for i := 0; i < n; i++ {
		j := i + p.intN(len(ids)-i)
		ids[i], ids[j] = ids[j], ids[i]
	}
	if n == 0 {
		return nil, nil
	}

	qs, err := p.bank.FindByIDs(ctx, ids[:n])
	if err != nil {
		return nil, fmt.Errorf("load drawn questions: %w", err)
	}
	// Questions deleted since CandidateIDs come back nil.
	return slices.DeleteFunc(qs, func(q *question.Question) bool { return q == nil }), nil
}
