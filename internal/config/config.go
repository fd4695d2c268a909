// Package config loads process configuration from the environment and an
// optional .env file.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/abhisek/momentum/internal/llm"
	"github.com/abhisek/momentum/internal/session"
	"github.com/abhisek/momentum/internal/store"
)

// Config is everything the commands need.
type Config struct {
	DBPath    string
	Addr      string
	JWTSecret string
	Session   session.Config

	LLM    llm.Config
	HasLLM bool // false when no backend or key was found
}

// Load reads .env (if present) and then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from getenv. Malformed numbers and durations are
// errors rather than silent defaults.
func FromEnv(getenv func(string) string) (*Config, error) {
	cfg := &Config{
		DBPath:    getenv("MOMENTUM_DB"),
		Addr:      getenvDefault(getenv, "MOMENTUM_ADDR", ":4000"),
		JWTSecret: getenv("MOMENTUM_JWT_SECRET"),
		Session:   session.DefaultConfig(),
	}

	if v := getenv("MOMENTUM_TEST_SIZE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return nil, fmt.Errorf("config: MOMENTUM_TEST_SIZE=%q must be a positive integer", v)
		}
		cfg.Session.TestSize = n
	}
	if v := getenv("MOMENTUM_TEST_BUDGET"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return nil, fmt.Errorf("config: MOMENTUM_TEST_BUDGET=%q must be a positive duration", v)
		}
		cfg.Session.TestBudget = d
	}

	cfg.LLM, cfg.HasLLM = llm.FromEnv(getenv)

	if cfg.DBPath == "" {
		p, err := store.DefaultDBPath()
		if err != nil {
			return nil, fmt.Errorf("config: database path: %w", err)
		}
		cfg.DBPath = p
	}
	return cfg, nil
}

// RequireServer checks the settings only serve needs.
func (c *Config) RequireServer() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("config: MOMENTUM_JWT_SECRET is required to serve the API")
	}
	return nil
}

// RequireLLM checks that a usable model backend is configured.
func (c *Config) RequireLLM() error {
	if !c.HasLLM {
		return fmt.Errorf("config: no LLM backend; set MOMENTUM_LLM_BACKEND or a provider API key")
	}
	return c.LLM.Validate()
}

func getenvDefault(getenv func(string) string, k, fallback string) string {
	if v := getenv(k); v != "" {
		return v
	}
	return fallback
}
