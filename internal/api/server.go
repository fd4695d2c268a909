// Package api serves the assessment engine over HTTP with fiber.
package api

import (
	"context"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/abhisek/momentum/internal/analytics"
	"github.com/abhisek/momentum/internal/practice"
	"github.com/abhisek/momentum/internal/question"
	"github.com/abhisek/momentum/internal/session"
)

// Catalog lists the filter values present in the bank.
type Catalog interface {
	DistinctSubjects(ctx context.Context) ([]string, error)
	DistinctChapters(ctx context.Context, subject string) ([]string, error)
	DistinctDifficulties(ctx context.Context) ([]question.Difficulty, error)
}

// Accounts keeps the user table in step with token identities.
type Accounts interface {
	UpsertUser(ctx context.Context, id, name string) error
}

// History lists a user's sessions.
type History interface {
	ListSessions(ctx context.Context, userID string, kind session.Kind) ([]*session.Session, error)
}

// Deps are the collaborators the handlers call. *store.Store implements
// Catalog, Accounts and History.
type Deps struct {
	Sessions  *session.Engine
	Practice  *practice.Service
	Analytics *analytics.Engine
	Catalog   Catalog
	Accounts  Accounts
	History   History
}

// Config configures the HTTP layer.
type Config struct {
	JWTSecret string
	// Background outlives individual requests; test countdowns run on it.
	Background context.Context
	Logger     *slog.Logger
	AccessLog  bool
}

// Server is the HTTP front end.
type Server struct {
	app  *fiber.App
	deps Deps
	cfg  Config
	log  *slog.Logger
}

// New wires routes and middleware.
func New(cfg Config, deps Deps) *Server {
	if cfg.Background == nil {
		cfg.Background = context.Background()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}
	s := &Server{deps: deps, cfg: cfg, log: cfg.Logger}
	s.app = fiber.New(fiber.Config{
		AppName:               "momentum",
		DisableStartupMessage: true,
		ErrorHandler:          s.handleError,
	})
	s.app.Use(recover.New())
	if cfg.AccessLog {
		s.app.Use(logger.New())
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	s.app.Get("/filters", s.filters)

	auth := s.requireAuth(false)
	s.app.Get("/stats", auth, s.stats)
	s.app.Get("/leaderboard", auth, s.leaderboard)

	tests := s.app.Group("/tests")
	tests.Get("/:id/report", s.requireAuth(true), s.testReport)
	tests.Use(auth)
	tests.Post("/", s.startTest)
	tests.Get("/", s.testHistory)
	tests.Get("/:id", s.reviewTest)
	tests.Post("/:id/select", s.selectAnswer)
	tests.Post("/:id/navigate", s.navigate)
	tests.Post("/:id/submit", s.submitTest)

	pr := s.app.Group("/practice", auth)
	pr.Post("/question", s.practiceQuestion)
	pr.Post("/submit", s.practiceSubmit)
}

// App exposes the fiber app, mainly for app.Test in tests.
func (s *Server) App() *fiber.App { return s.app }

// Listen serves on addr until Shutdown.
func (s *Server) Listen(addr string) error { return s.app.Listen(addr) }

// Shutdown stops accepting connections and waits for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error { return s.app.ShutdownWithContext(ctx) }
