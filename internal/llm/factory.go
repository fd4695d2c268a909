package llm

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/abhisek/momentum/internal/store"
)

// New builds the configured backend wrapped as
// caller -> retry -> recording -> backend, so each attempt is logged.
func New(ctx context.Context, cfg Config, repo store.EventRepo, logger *slog.Logger) (Provider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var base Provider
	var err error
	switch cfg.Backend {
	case BackendAnthropic:
		base, err = NewAnthropic(cfg.APIKey, cfg.Model)
	case BackendOpenAI:
		base, err = NewOpenAI(cfg.APIKey, cfg.Model, cfg.BaseURL)
	case BackendOpenRouter:
		base, err = NewOpenRouter(cfg.APIKey, cfg.Model, cfg.BaseURL)
	case BackendGemini:
		base, err = NewGemini(ctx, cfg.APIKey, cfg.Model, cfg.BaseURL)
	case BackendScripted:
		base = NewScripted()
	}
	if err != nil {
		return nil, fmt.Errorf("init %s backend: %w", cfg.Backend, err)
	}

	p := base
	if repo != nil {
		p = WithRecording(p, cfg.Backend, repo, logger)
	}
	p = WithRetry(p, cfg.Retry)
	if cfg.Timeout > 0 {
		p = withTimeout(p, cfg.Timeout)
	}
	return p, nil
}

type timeout struct {
	next Provider
	d    time.Duration
}

func withTimeout(p Provider, d time.Duration) Provider { return &timeout{next: p, d: d} }

func (t *timeout) Model() string { return t.next.Model() }

func (t *timeout) Complete(ctx context.Context, p Prompt) (*Completion, error) {
	ctx, cancel := context.WithTimeout(ctx, t.d)
	defer cancel()
	return t.next.Complete(ctx, p)
}
