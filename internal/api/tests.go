package api

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/abhisek/momentum/internal/apperr"
	"github.com/abhisek/momentum/internal/question"
	"github.com/abhisek/momentum/internal/report"
	"github.com/abhisek/momentum/internal/session"
)

type startRequest struct {
	Subject    string   `json:"subject"`
	Chapters   []string `json:"chapters"`
	Difficulty string   `json:"difficulty"`
}

type slotRequest struct {
	Slot   int  `json:"slot"`
	Option *int `json:"option"`
}

type submitRequest struct {
	Answers []*int `json:"answers"`
}

func parseBody(c *fiber.Ctx, v any) error {
	if len(c.Body()) == 0 {
		return nil
	}
	if err := c.BodyParser(v); err != nil {
		return apperr.Invalid("body", "%v", err)
	}
	return nil
}

func (s *Server) startTest(c *fiber.Ctx) error {
	var req startRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	diff, err := question.ParseDifficulty(req.Difficulty)
	if err != nil {
		return err
	}
	res, err := s.deps.Sessions.Start(c.UserContext(), session.StartRequest{
		UserID:     caller(c).ID,
		Kind:       session.KindTest,
		Subject:    req.Subject,
		Chapters:   req.Chapters,
		Difficulty: diff,
	})
	if err != nil {
		return err
	}
	if err := s.deps.Sessions.Watch(s.cfg.Background, res.Session.ID); err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"testId":           res.Session.ID,
		"questions":        viewQuestions(res.Questions),
		"requested":        res.Requested,
		"drawn":            res.Drawn,
		"remainingSeconds": int(res.Session.Budget / time.Second),
	})
}

func (s *Server) testHistory(c *fiber.Ctx) error {
	list, err := s.deps.History.ListSessions(c.UserContext(), caller(c).ID, session.KindTest)
	if err != nil {
		return err
	}
	type entry struct {
		ID        string    `json:"testId"`
		Subject   string    `json:"subject"`
		Status    string    `json:"status"`
		Score     *int      `json:"score"`
		Total     int       `json:"total"`
		CreatedAt time.Time `json:"createdAt"`
	}
	out := make([]entry, 0, len(list))
	for _, t := range list {
		out = append(out, entry{
			ID:        t.ID,
			Subject:   t.Subject,
			Status:    t.Status.String(),
			Score:     t.Score,
			Total:     t.Len(),
			CreatedAt: t.CreatedAt,
		})
	}
	return c.JSON(out)
}

// owned loads a session and hides other users' sessions behind a 404.
func (s *Server) owned(c *fiber.Ctx) (*session.Session, []*question.Question, error) {
	id := c.Params("id")
	sess, qs, err := s.deps.Sessions.Get(c.UserContext(), id)
	if err != nil {
		return nil, nil, err
	}
	if sess.UserID != caller(c).ID {
		return nil, nil, apperr.NotFound("test", id)
	}
	return sess, qs, nil
}

func (s *Server) reviewTest(c *fiber.Ctx) error {
	sess, qs, err := s.owned(c)
	if err != nil {
		return err
	}
	body := fiber.Map{"test": s.viewSession(sess)}
	if sess.Status == session.StatusSubmitted {
		body["questions"] = reviewQuestions(qs)
	} else {
		body["questions"] = viewQuestions(qs)
	}
	return c.JSON(body)
}

func (s *Server) selectAnswer(c *fiber.Ctx) error {
	var req slotRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if req.Option == nil {
		return apperr.Invalid("option", "is required")
	}
	if _, _, err := s.owned(c); err != nil {
		return err
	}
	sess, err := s.deps.Sessions.SelectAnswer(c.UserContext(), c.Params("id"), req.Slot, *req.Option)
	if err != nil {
		return err
	}
	return c.JSON(s.viewSession(sess))
}

func (s *Server) navigate(c *fiber.Ctx) error {
	var req slotRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if _, _, err := s.owned(c); err != nil {
		return err
	}
	sess, err := s.deps.Sessions.NavigateTo(c.UserContext(), c.Params("id"), req.Slot)
	if err != nil {
		return err
	}
	return c.JSON(s.viewSession(sess))
}

func (s *Server) submitTest(c *fiber.Ctx) error {
	var req submitRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if _, _, err := s.owned(c); err != nil {
		return err
	}
	res, err := s.deps.Sessions.Submit(c.UserContext(), c.Params("id"), req.Answers)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"testId":  res.Session.ID,
		"score":   res.Score,
		"total":   res.Total,
		"results": res.PerSlot,
	})
}

func (s *Server) testReport(c *fiber.Ctx) error {
	sess, qs, err := s.owned(c)
	if err != nil {
		return err
	}
	sum, err := report.Build(sess, qs)
	if err != nil {
		return err
	}
	return c.JSON(sum)
}
