package api

import (
	"github.com/gofiber/fiber/v2"

	"github.com/abhisek/momentum/internal/apperr"
	"github.com/abhisek/momentum/internal/question"
)

func (s *Server) filters(c *fiber.Ctx) error {
	ctx := c.UserContext()
	subjects, err := s.deps.Catalog.DistinctSubjects(ctx)
	if err != nil {
		return err
	}
	chapters, err := s.deps.Catalog.DistinctChapters(ctx, c.Query("subject"))
	if err != nil {
		return err
	}
	diffs, err := s.deps.Catalog.DistinctDifficulties(ctx)
	if err != nil {
		return err
	}
	if diffs == nil {
		diffs = []question.Difficulty{}
	}
	return c.JSON(fiber.Map{
		"subjects":     nonNil(subjects),
		"chapters":     nonNil(chapters),
		"difficulties": diffs,
	})
}

func (s *Server) stats(c *fiber.Ctx) error {
	st, err := s.deps.Analytics.Stats(c.UserContext(), caller(c).ID)
	if err != nil {
		return err
	}
	return c.JSON(st)
}

func (s *Server) leaderboard(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 0)
	if limit < 0 {
		return apperr.Invalid("limit", "must not be negative")
	}
	entries, err := s.deps.Analytics.Leaderboard(c.UserContext(), limit)
	if err != nil {
		return err
	}
	return c.JSON(entries)
}

func nonNil(ss []string) []string {
	if ss == nil {
		return []string{}
	}
	return ss
}
