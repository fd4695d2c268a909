package store

import (
	"context"
	"time"
)

// QueryOpts configures event queries with filtering and pagination.
type QueryOpts struct {
	Limit   int    // max results (0 = unlimited)
	After   int64  // sequence > After
	Purpose string // exact purpose match, empty for all
}

// LLMRequestEventData captures the data for a single LLM request event.
type LLMRequestEventData struct {
	Provider     string
	Model        string
	Purpose      string
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
}

// LLMRequestEvent is a stored LLM request.
type LLMRequestEvent struct {
	Sequence  int64
	Timestamp time.Time
	LLMRequestEventData
}

// EventRepo provides append access to the LLM request log.
type EventRepo interface {
	// AppendLLMRequest records an LLM API call event.
	AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error
}

// EventRepo returns the store as an EventRepo.
func (s *Store) EventRepo() EventRepo {
	return s
}
