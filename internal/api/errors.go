package api

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/abhisek/momentum/internal/apperr"
	"github.com/abhisek/momentum/internal/practice"
	"github.com/abhisek/momentum/internal/report"
	"github.com/abhisek/momentum/internal/session"
)

// handleError maps domain errors onto status codes. Anything unknown is a
// 500 and gets logged; its text never reaches the client.
func (s *Server) handleError(c *fiber.Ctx, err error) error {
	status, msg := fiber.StatusInternalServerError, "internal error"

	var fe *fiber.Error
	var ve *apperr.ValidationError
	var nf *apperr.NotFoundError
	switch {
	case errors.As(err, &fe):
		status, msg = fe.Code, fe.Message
	case errors.As(err, &ve):
		status, msg = fiber.StatusBadRequest, ve.Error()
	case errors.As(err, &nf):
		status, msg = fiber.StatusNotFound, nf.Error()
	case errors.Is(err, session.ErrNoQuestionsAvailable):
		status, msg = fiber.StatusNotFound, "no questions match the selected subject and chapters"
	case errors.Is(err, session.ErrAlreadySubmitted):
		status, msg = fiber.StatusConflict, "test already submitted"
	case errors.Is(err, session.ErrNotInProgress), errors.Is(err, report.ErrNotSubmitted), errors.Is(err, practice.ErrAttemptClosed):
		status, msg = fiber.StatusConflict, err.Error()
	default:
		s.log.Error("request failed", "method", c.Method(), "path", c.Path(), "error", err)
	}
	return c.Status(status).JSON(fiber.Map{"error": msg})
}
