// Package practice holds practice records and the single-question practice
// flow.
package practice

import (
	"time"

	"github.com/abhisek/momentum/internal/question"
)

// Origin says which flow produced a record.
type Origin string

const (
	OriginPractice Origin = "practice"
	OriginTest     Origin = "test"
)

// Record is one graded attempt at one question. Correctness is fixed when
// the record is created; records are never updated.
type Record struct {
	ID         string
	UserID     string
	QuestionID string
	Correct    bool
	TimeTaken  time.Duration
	Origin     Origin
	SessionID  string // set when Origin is OriginTest
	CreatedAt  time.Time
}

// Outcome is a record joined with the skill type of its question. SkillType
// is empty when the question has since been removed from the bank.
type Outcome struct {
	Record
	SkillType question.SkillType
}
