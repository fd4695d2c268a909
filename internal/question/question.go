// Package question defines the immutable question model and the closed
// enums it carries.
package question

import (
	"strings"

	"github.com/abhisek/momentum/internal/apperr"
)

// OptionCount is the number of options every ingested question carries.
const OptionCount = 4

// Question is a single multiple-choice item from the bank. Questions are
// never mutated after ingestion.
type Question struct {
	ID         string
	Prompt     string
	Options    []string
	Answer     int // index into Options
	Difficulty Difficulty
	Chapter    string
	Subject    string
	SkillType  SkillType
}

// IsCorrect reports whether option selects the correct answer.
func (q *Question) IsCorrect(option int) bool {
	return option == q.Answer
}

// CorrectOption returns the text of the correct option.
func (q *Question) CorrectOption() string {
	if q.Answer < 0 || q.Answer >= len(q.Options) {
		return ""
	}
	return q.Options[q.Answer]
}

// Validate checks a question before it enters the bank.
func (q *Question) Validate() error {
	if strings.TrimSpace(q.Prompt) == "" {
		return apperr.Invalid("prompt", "must not be empty")
	}
	if strings.TrimSpace(q.Subject) == "" {
		return apperr.Invalid("subject", "must not be empty")
	}
	if strings.TrimSpace(q.Chapter) == "" {
		return apperr.Invalid("chapter", "must not be empty")
	}
	if len(q.Options) != OptionCount {
		return apperr.Invalid("options", "expected %d, got %d", OptionCount, len(q.Options))
	}
	seen := make(map[string]bool, len(q.Options))
	for i, o := range q.Options {
		key := strings.TrimSpace(o)
		if key == "" {
			return apperr.Invalid("options", "option %d is empty", i)
		}
		if seen[key] {
			return apperr.Invalid("options", "duplicate option %q", key)
		}
		seen[key] = true
	}
	if q.Answer < 0 || q.Answer >= len(q.Options) {
		return apperr.Invalid("answer", "index %d out of range", q.Answer)
	}
	if !q.Difficulty.Valid() {
		return apperr.Invalid("difficulty", "unknown value %q", q.Difficulty)
	}
	if !q.SkillType.Valid() {
		return apperr.Invalid("skill_type", "unknown value %q", q.SkillType)
	}
	return nil
}

// Filter selects questions by subject, chapter membership and optional
// difficulty.
type Filter struct {
	Subject    string
	Chapters   []string
	Difficulty Difficulty // empty matches any
}

// Validate rejects filters that can never match a question.
func (f Filter) Validate() error {
	if strings.TrimSpace(f.Subject) == "" {
		return apperr.Invalid("subject", "must not be empty")
	}
	if len(f.Chapters) == 0 {
		return apperr.Invalid("chapters", "at least one chapter is required")
	}
	if f.Difficulty != "" && !f.Difficulty.Valid() {
		return apperr.Invalid("difficulty", "unknown value %q", f.Difficulty)
	}
	return nil
}

// Matches reports whether q satisfies the filter.
func (f Filter) Matches(q *Question) bool {
	if q.Subject != f.Subject {
		return false
	}
	if f.Difficulty != "" && q.Difficulty != f.Difficulty {
		return false
	}
	for _, c := range f.Chapters {
		if c == q.Chapter {
			return true
		}
	}
	return false
}
