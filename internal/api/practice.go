package api

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/abhisek/momentum/internal/apperr"
	"github.com/abhisek/momentum/internal/question"
)

type practiceQuestionRequest struct {
	Subject       string   `json:"subject"`
	Chapters      []string `json:"chapters"`
	Difficulty    string   `json:"difficulty"`
	ExcludeSolved *bool    `json:"excludeSolved"`
}

type practiceSubmitRequest struct {
	QuestionID string   `json:"questionId"`
	Answer     *int     `json:"answer"`
	TimeTaken  *float64 `json:"timeTaken"` // seconds
}

func (s *Server) practiceQuestion(c *fiber.Ctx) error {
	var req practiceQuestionRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	diff, err := question.ParseDifficulty(req.Difficulty)
	if err != nil {
		return err
	}
	f := question.Filter{Subject: req.Subject, Chapters: req.Chapters, Difficulty: diff}
	if err := f.Validate(); err != nil {
		return err
	}
	exclude := true
	if req.ExcludeSolved != nil {
		exclude = *req.ExcludeSolved
	}

	a, err := s.deps.Practice.Present(c.UserContext(), caller(c).ID, f, exclude)
	if err != nil {
		return err
	}
	if a == nil {
		return c.JSON(fiber.Map{"message": "No more questions available for the selected filters."})
	}
	return c.JSON(fiber.Map{"question": viewQuestion(a.Question)})
}

func (s *Server) practiceSubmit(c *fiber.Ctx) error {
	var req practiceSubmitRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if req.QuestionID == "" {
		return apperr.Invalid("questionId", "is required")
	}
	if req.Answer == nil {
		return apperr.Invalid("answer", "is required")
	}
	var took time.Duration
	if req.TimeTaken != nil {
		took = time.Duration(*req.TimeTaken * float64(time.Second))
	}

	g, err := s.deps.Practice.Record(c.UserContext(), caller(c).ID, req.QuestionID, *req.Answer, took)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"isCorrect":     g.Correct,
		"correctOption": g.CorrectOption,
		"correctAnswer": g.CorrectText,
	})
}
