package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// RateLimitedError is a 429 from the provider.
type RateLimitedError struct {
	RetryAfter time.Duration
	Err        error
}

func (e *RateLimitedError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("llm rate limited, retry after %s: %v", e.RetryAfter, e.Err)
	}
	return fmt.Sprintf("llm rate limited: %v", e.Err)
}

func (e *RateLimitedError) Unwrap() error { return e.Err }

// MalformedError means the model answered with something that is not JSON
// or does not match the requested schema.
type MalformedError struct {
	Content json.RawMessage
	Err     error
}

func (e *MalformedError) Error() string { return fmt.Sprintf("malformed llm answer: %v", e.Err) }

func (e *MalformedError) Unwrap() error { return e.Err }

// UnavailableError wraps transport failures and 5xx answers.
type UnavailableError struct {
	Err error
}

func (e *UnavailableError) Error() string {
	if e.Err == nil {
		return "llm provider unavailable"
	}
	return fmt.Sprintf("llm provider unavailable: %v", e.Err)
}

func (e *UnavailableError) Unwrap() error { return e.Err }

// ErrTruncated is returned when the answer hit MaxTokens before the JSON
// closed.
var ErrTruncated = errors.New("llm answer truncated at max tokens")

// IsMalformed reports whether err is a *MalformedError.
func IsMalformed(err error) bool {
	var m *MalformedError
	return errors.As(err, &m)
}
