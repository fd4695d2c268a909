package llm

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"math/rand/v2"
	"time"

	"github.com/abhisek/momentum/internal/store"
)

// retrying retries rate limits and outages with backoff. A malformed
// answer gets one more try; everything else fails fast.
type retrying struct {
	next Provider
	cfg  RetryConfig
}

// WithRetry wraps p with cfg's backoff policy.
func WithRetry(p Provider, cfg RetryConfig) Provider {
	if cfg.Attempts < 1 {
		cfg.Attempts = 1
	}
	return &retrying{next: p, cfg: cfg}
}

func (r *retrying) Model() string { return r.next.Model() }

func (r *retrying) Complete(ctx context.Context, p Prompt) (*Completion, error) {
	var err error
	malformedRetried := false
	for attempt := 0; attempt < r.cfg.Attempts; attempt++ {
		var out *Completion
		out, err = r.next.Complete(ctx, p)
		if err == nil {
			return out, nil
		}
		if !retryable(err, &malformedRetried) || attempt == r.cfg.Attempts-1 {
			break
		}
		t := time.NewTimer(r.wait(attempt, err))
		select {
		case <-ctx.Done():
			t.Stop()
			return nil, ctx.Err()
		case <-t.C:
		}
	}
	return nil, err
}

func retryable(err error, malformedRetried *bool) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, ErrTruncated) {
		return false
	}
	if IsMalformed(err) {
		if *malformedRetried {
			return false
		}
		*malformedRetried = true
		return true
	}
	var rl *RateLimitedError
	var un *UnavailableError
	return errors.As(err, &rl) || errors.As(err, &un)
}

func (r *retrying) wait(attempt int, err error) time.Duration {
	var rl *RateLimitedError
	if errors.As(err, &rl) && rl.RetryAfter > 0 {
		return rl.RetryAfter
	}
	w := float64(r.cfg.FirstWait) * math.Pow(r.cfg.Multiplier, float64(attempt))
	w = math.Min(w, float64(r.cfg.MaxWait))
	w += w * 0.2 * (2*rand.Float64() - 1) // +-20% jitter
	return time.Duration(math.Max(w, 0))
}

// recording appends every call to the request log.
type recording struct {
	next    Provider
	backend string
	log     store.EventRepo
	logger  *slog.Logger
}

// WithRecording wraps p so each call lands in repo. A failed append is
// logged and never fails the call.
func WithRecording(p Provider, backend string, repo store.EventRepo, logger *slog.Logger) Provider {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &recording{next: p, backend: backend, log: repo, logger: logger}
}

func (r *recording) Model() string { return r.next.Model() }

func (r *recording) Complete(ctx context.Context, p Prompt) (*Completion, error) {
	start := time.Now()
	out, err := r.next.Complete(ctx, p)

	ev := store.LLMRequestEventData{
		Provider:  r.backend,
		Model:     r.next.Model(),
		Purpose:   PurposeFrom(ctx),
		LatencyMs: time.Since(start).Milliseconds(),
		Success:   err == nil,
	}
	if out != nil {
		ev.InputTokens, ev.OutputTokens = out.Tokens.In, out.Tokens.Out
		if out.Model != "" {
			ev.Model = out.Model
		}
	}
	if err != nil {
		ev.ErrorMessage = err.Error()
	}
	// The caller's ctx may already be cancelled; the log entry still matters.
	if lerr := r.log.AppendLLMRequest(context.WithoutCancel(ctx), ev); lerr != nil {
		r.logger.Warn("record llm request", "err", lerr)
	}
	return out, err
}
