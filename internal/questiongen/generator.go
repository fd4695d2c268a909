// Package questiongen produces multiple-choice questions for the bank,
// either from built-in numeric templates or from a language model.
package questiongen

import (
	"context"
	"strings"

	"github.com/abhisek/momentum/internal/apperr"
	"github.com/abhisek/momentum/internal/question"
)

// Generator produces one validated question for a spec.
type Generator interface {
	Generate(ctx context.Context, spec Spec) (*question.Question, error)
}

// Spec says what kind of question to produce.
type Spec struct {
	Subject    string
	Chapter    string
	Difficulty question.Difficulty // empty means Moderate
	SkillType  question.SkillType  // empty lets the producer choose
	Topic      string              // optional free-text steer for the model
	Avoid      []string            // prompts that must not be repeated
}

// Validate checks the spec and fills defaults.
func (s *Spec) Validate() error {
	if strings.TrimSpace(s.Subject) == "" {
		return apperr.Invalid("subject", "must not be empty")
	}
	if strings.TrimSpace(s.Chapter) == "" {
		return apperr.Invalid("chapter", "must not be empty")
	}
	if s.Difficulty == "" {
		s.Difficulty = question.Moderate
	}
	if !s.Difficulty.Valid() {
		return apperr.Invalid("difficulty", "unknown value %q", s.Difficulty)
	}
	if s.SkillType != "" && !s.SkillType.Valid() {
		return apperr.Invalid("skill_type", "unknown value %q", s.SkillType)
	}
	return nil
}
