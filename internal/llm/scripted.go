package llm

import (
	"context"
	"encoding/json"
	"sync"
)

// Reply is one scripted answer.
type Reply struct {
	JSON   json.RawMessage
	Tokens Tokens
	Err    error
}

// Scripted replays canned replies in order and remembers every prompt.
// It backs tests and the "scripted" backend for offline runs.
type Scripted struct {
	mu      sync.Mutex
	replies []Reply
	prompts []Prompt
}

// NewScripted queues replies.
func NewScripted(replies ...Reply) *Scripted {
	return &Scripted{replies: replies}
}

// Push queues more replies.
func (s *Scripted) Push(replies ...Reply) {
	s.mu.Lock()
	s.replies = append(s.replies, replies...)
	s.mu.Unlock()
}

func (s *Scripted) Model() string { return "scripted" }

// Complete pops the next reply. An empty queue is an UnavailableError.
// Replies pass through the same schema check as real backends.
func (s *Scripted) Complete(_ context.Context, p Prompt) (*Completion, error) {
	s.mu.Lock()
	s.prompts = append(s.prompts, p)
	if len(s.replies) == 0 {
		s.mu.Unlock()
		return nil, &UnavailableError{}
	}
	r := s.replies[0]
	s.replies = s.replies[1:]
	s.mu.Unlock()

	if r.Err != nil {
		return nil, r.Err
	}
	if err := checkAnswer(p.Schema, r.JSON); err != nil {
		return nil, err
	}
	return &Completion{JSON: r.JSON, Tokens: r.Tokens, Model: "scripted"}, nil
}

// Prompts returns a copy of everything Complete has been sent.
func (s *Scripted) Prompts() []Prompt {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Prompt(nil), s.prompts...)
}

// Calls is len(Prompts()).
func (s *Scripted) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.prompts)
}
