// Package app wires the store, the engines and the optional model backend
// into the set of services the commands share.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/abhisek/momentum/internal/analytics"
	"github.com/abhisek/momentum/internal/config"
	"github.com/abhisek/momentum/internal/llm"
	"github.com/abhisek/momentum/internal/practice"
	"github.com/abhisek/momentum/internal/questiongen"
	"github.com/abhisek/momentum/internal/sampling"
	"github.com/abhisek/momentum/internal/session"
	"github.com/abhisek/momentum/internal/store"
	"github.com/abhisek/momentum/internal/timer"
)

// App holds the long-lived services.
type App struct {
	Config    *config.Config
	Store     *store.Store
	Sampler   *sampling.Policy
	Sessions  *session.Engine
	Practice  *practice.Service
	Analytics *analytics.Engine
	Logger    *slog.Logger
}

// Option adjusts how Open builds the services.
type Option func(*options)

type options struct {
	clock timer.Clock
}

// WithClock replaces the wall clock for sessions and practice timing.
func WithClock(c timer.Clock) Option {
	return func(o *options) { o.clock = c }
}

// Open opens the database at cfg.DBPath and builds every service on it.
func Open(cfg *config.Config, logger *slog.Logger, opts ...Option) (*App, error) {
	o := options{clock: timer.System{}}
	for _, fn := range opts {
		fn(&o)
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	if err := store.EnsureDir(cfg.DBPath); err != nil {
		return nil, fmt.Errorf("prepare database dir: %w", err)
	}
	st, err := store.Open(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	sampler := sampling.New(st, st)
	return &App{
		Config:  cfg,
		Store:   st,
		Sampler: sampler,
		Sessions: session.NewEngine(st, st, sampler,
			session.WithClock(o.clock),
			session.WithLogger(logger.With("component", "session")),
			session.WithConfig(cfg.Session)),
		Practice:  practice.NewService(sampler, st, o.clock.Now),
		Analytics: analytics.NewEngine(st),
		Logger:    logger,
	}, nil
}

// Close releases the database.
func (a *App) Close() error { return a.Store.Close() }

// Provider builds the configured model backend, logging every request to
// the store.
func (a *App) Provider(ctx context.Context) (llm.Provider, error) {
	if err := a.Config.RequireLLM(); err != nil {
		return nil, err
	}
	return llm.New(ctx, a.Config.LLM, a.Store.EventRepo(), a.Logger.With("component", "llm"))
}

// Generator returns the LLM-backed generator when a backend is configured
// and useLLM is set, and the template generator otherwise.
func (a *App) Generator(ctx context.Context, useLLM bool) (questiongen.Generator, error) {
	if !useLLM {
		seed := uint64(time.Now().UnixNano())
		return questiongen.NewTemplateGenerator(rand.New(rand.NewPCG(seed, seed>>1))), nil
	}
	p, err := a.Provider(ctx)
	if err != nil {
		return nil, err
	}
	return questiongen.NewLLMGenerator(p, questiongen.DefaultLLMConfig()), nil
}

// Classifier returns the LLM skill classifier, or nil when no backend is
// configured.
func (a *App) Classifier(ctx context.Context) questiongen.Classifier {
	if !a.Config.HasLLM {
		return nil
	}
	p, err := a.Provider(ctx)
	if err != nil {
		a.Logger.Warn("skill classifier unavailable", "error", err)
		return nil
	}
	return questiongen.NewLLMClassifier(p)
}
