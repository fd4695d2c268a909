package llm

import (
	"fmt"
	"time"
)

// Backend names accepted in Config.Backend.
const (
	BackendAnthropic  = "anthropic"
	BackendOpenAI     = "openai"
	BackendGemini     = "gemini"
	BackendOpenRouter = "openrouter"
	BackendScripted   = "scripted"
)

// Config selects and configures one backend.
type Config struct {
	Backend string
	APIKey  string
	Model   string // friendly alias or raw model id; empty picks the backend default
	BaseURL string // openai and openrouter only
	Retry   RetryConfig
	Timeout time.Duration // per Complete call including retries
}

// RetryConfig is exponential backoff with jitter.
type RetryConfig struct {
	Attempts   int
	FirstWait  time.Duration
	MaxWait    time.Duration
	Multiplier float64
}

// DefaultRetry is what FromEnv uses.
var DefaultRetry = RetryConfig{Attempts: 3, FirstWait: time.Second, MaxWait: 10 * time.Second, Multiplier: 2}

var defaultModels = map[string]string{
	BackendAnthropic:  "claude-haiku",
	BackendOpenAI:     "gpt-4o-mini",
	BackendGemini:     "gemini-flash",
	BackendOpenRouter: "google/gemini-2.0-flash-001",
}

// keyVars lists the generic API key variable for each backend, probed in
// this order when MOMENTUM_LLM_BACKEND is unset.
var keyVars = []struct{ backend, env string }{
	{BackendGemini, "GEMINI_API_KEY"},
	{BackendOpenAI, "OPENAI_API_KEY"},
	{BackendAnthropic, "ANTHROPIC_API_KEY"},
	{BackendOpenRouter, "OPENROUTER_API_KEY"},
}

// FromEnv reads MOMENTUM_LLM_BACKEND, MOMENTUM_LLM_API_KEY,
// MOMENTUM_LLM_MODEL and MOMENTUM_LLM_BASE_URL. Without an explicit
// backend the first provider key found in the environment wins. ok is
// false when no backend can be configured.
func FromEnv(getenv func(string) string) (cfg Config, ok bool) {
	cfg = Config{
		Backend: getenv("MOMENTUM_LLM_BACKEND"),
		APIKey:  getenv("MOMENTUM_LLM_API_KEY"),
		Model:   getenv("MOMENTUM_LLM_MODEL"),
		BaseURL: getenv("MOMENTUM_LLM_BASE_URL"),
		Retry:   DefaultRetry,
		Timeout: 45 * time.Second,
	}
	if cfg.Backend == "" {
		for _, kv := range keyVars {
			if k := getenv(kv.env); k != "" {
				cfg.Backend = kv.backend
				if cfg.APIKey == "" {
					cfg.APIKey = k
				}
				break
			}
		}
	} else if cfg.APIKey == "" {
		for _, kv := range keyVars {
			if kv.backend == cfg.Backend {
				cfg.APIKey = getenv(kv.env)
			}
		}
	}
	if cfg.Backend == "" {
		return Config{}, false
	}
	if cfg.Model == "" {
		cfg.Model = defaultModels[cfg.Backend]
	}
	return cfg, true
}

// Validate checks the backend name and that it has a key.
func (c Config) Validate() error {
	switch c.Backend {
	case BackendAnthropic, BackendOpenAI, BackendGemini, BackendOpenRouter:
		if c.APIKey == "" {
			return fmt.Errorf("llm backend %s needs MOMENTUM_LLM_API_KEY", c.Backend)
		}
	case BackendScripted:
	default:
		return fmt.Errorf("unknown llm backend %q", c.Backend)
	}
	if c.Retry.Attempts < 0 {
		return fmt.Errorf("llm retry attempts must not be negative")
	}
	return nil
}

// resolveModel maps an alias through models and passes unknown names
// through as raw ids.
func resolveModel(name string, models map[string]string) string {
	if id, ok := models[name]; ok {
		return id
	}
	return name
}
