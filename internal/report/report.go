// Package report turns a submitted session into the summary shown to
// candidates, as JSON over the API or as styled text in the terminal.
package report

import (
	"errors"
	"time"

	"github.com/abhisek/momentum/internal/question"
	"github.com/abhisek/momentum/internal/scoring"
	"github.com/abhisek/momentum/internal/session"
)

// ErrNotSubmitted is returned for sessions that are still running.
var ErrNotSubmitted = errors.New("session has not been submitted")

// Slot is the result of one question.
type Slot struct {
	QuestionID       string  `json:"questionId"`
	SelectedOption   *int    `json:"selectedOption"`
	Correct          bool    `json:"isCorrect"`
	TimeTakenSeconds float64 `json:"timeTaken"`
}

// Times is the time split in seconds.
type Times struct {
	Correct    float64 `json:"correct"`
	Incorrect  float64 `json:"incorrect"`
	Unanswered float64 `json:"unanswered"`
	Total      float64 `json:"total"`
}

// Summary is the consumer-facing result of a session.
type Summary struct {
	SessionID       string    `json:"sessionId"`
	Kind            string    `json:"kind"`
	Subject         string    `json:"subject"`
	Score           int       `json:"score"`
	Total           int       `json:"total"`
	PerSlot         []Slot    `json:"perSlot"`
	Time            Times     `json:"time"`
	AllottedSeconds float64   `json:"allottedTime"`
	AutoSubmitted   bool      `json:"autoSubmitted"`
	SubmittedAt     time.Time `json:"submittedAt"`
}

// Build summarizes s. questions must be aligned with s.QuestionIDs; nil
// entries are questions removed from the bank and count as wrong.
func Build(s *session.Session, questions []*question.Question) (*Summary, error) {
	if s.Status != session.StatusSubmitted {
		return nil, ErrNotSubmitted
	}
	sel := s.Selected()
	res := scoring.Score(questions, sel)
	tb := scoring.Breakdown(questions, sel, s.Times())

	sum := &Summary{
		SessionID:       s.ID,
		Kind:            string(s.Kind),
		Subject:         s.Subject,
		Score:           res.Correct,
		Total:           res.Total,
		PerSlot:         make([]Slot, s.Len()),
		AllottedSeconds: s.Budget.Seconds(),
		AutoSubmitted:   s.AutoSubmitted,
		SubmittedAt:     s.SubmittedAt,
		Time: Times{
			Correct:    tb.Correct.Seconds(),
			Incorrect:  tb.Incorrect.Seconds(),
			Unanswered: tb.Unanswered.Seconds(),
			Total:      tb.Total().Seconds(),
		},
	}
	// The stored score was fixed at submission.
	if s.Score != nil {
		sum.Score = *s.Score
	}
	for i, a := range s.Answers {
		sum.PerSlot[i] = Slot{
			QuestionID:       s.QuestionIDs[i],
			SelectedOption:   a.Selected,
			Correct:          res.PerSlot[i],
			TimeTakenSeconds: a.TimeTaken.Seconds(),
		}
	}
	return sum, nil
}
