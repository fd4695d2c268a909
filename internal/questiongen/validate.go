package questiongen

import (
	"fmt"
	"strings"

	"github.com/abhisek/momentum/internal/question"
)

// Validator checks a produced question. Implementations are stateless.
type Validator interface {
	Name() string
	Check(q *question.Question) *ValidationError
}

// ValidationError says which check rejected a produced question.
type ValidationError struct {
	Validator string
	Message   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s check: %s", e.Validator, e.Message)
}

// DefaultValidators is the chain every LLM question passes through.
func DefaultValidators() []Validator {
	return []Validator{StructuralValidator{}, OptionsValidator{}, AnswerValidator{}}
}

func runValidators(vs []Validator, q *question.Question) error {
	for _, v := range vs {
		if err := v.Check(q); err != nil {
			return err
		}
	}
	return nil
}

const maxPromptLen = 500

// StructuralValidator checks the prompt and placement fields.
type StructuralValidator struct{}

func (StructuralValidator) Name() string { return "structural" }

func (v StructuralValidator) Check(q *question.Question) *ValidationError {
	switch {
	case strings.TrimSpace(q.Prompt) == "":
		return &ValidationError{v.Name(), "prompt is empty"}
	case len(q.Prompt) > maxPromptLen:
		return &ValidationError{v.Name(), fmt.Sprintf("prompt exceeds %d characters", maxPromptLen)}
	case q.Subject == "" || q.Chapter == "":
		return &ValidationError{v.Name(), "subject and chapter are required"}
	case !q.Difficulty.Valid():
		return &ValidationError{v.Name(), fmt.Sprintf("unknown difficulty %q", q.Difficulty)}
	case !q.SkillType.Valid():
		return &ValidationError{v.Name(), fmt.Sprintf("unknown skill type %q", q.SkillType)}
	}
	return nil
}

// OptionsValidator requires exactly four non-empty options that differ
// after case folding and trimming.
type OptionsValidator struct{}

func (OptionsValidator) Name() string { return "options" }

func (v OptionsValidator) Check(q *question.Question) *ValidationError {
	if len(q.Options) != question.OptionCount {
		return &ValidationError{v.Name(), fmt.Sprintf("want %d options, got %d", question.OptionCount, len(q.Options))}
	}
	seen := make(map[string]bool, len(q.Options))
	for i, o := range q.Options {
		k := strings.ToLower(strings.TrimSpace(o))
		if k == "" {
			return &ValidationError{v.Name(), fmt.Sprintf("option %d is empty", i)}
		}
		if seen[k] {
			return &ValidationError{v.Name(), fmt.Sprintf("option %q repeats", o)}
		}
		seen[k] = true
	}
	return nil
}

// AnswerValidator checks the answer index.
type AnswerValidator struct{}

func (AnswerValidator) Name() string { return "answer" }

func (v AnswerValidator) Check(q *question.Question) *ValidationError {
	if q.Answer < 0 || q.Answer >= len(q.Options) {
		return &ValidationError{v.Name(), fmt.Sprintf("answer index %d out of range", q.Answer)}
	}
	return nil
}
