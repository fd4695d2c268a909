package api

import (
	"time"

	"github.com/abhisek/momentum/internal/question"
	"github.com/abhisek/momentum/internal/session"
)

// questionView is a question as shown while a test is running: no answer.
type questionView struct {
	ID         string   `json:"id"`
	Prompt     string   `json:"question"`
	Options    []string `json:"options"`
	Difficulty string   `json:"difficulty"`
	Chapter    string   `json:"chapter"`
	Subject    string   `json:"subject"`
}

// reviewQuestionView adds the answer once the session is submitted.
type reviewQuestionView struct {
	questionView
	Answer    int    `json:"answer"`
	SkillType string `json:"skillType"`
}

type slotView struct {
	Selected  *int    `json:"selectedOption"`
	TimeTaken float64 `json:"timeTaken"`
}

type sessionView struct {
	ID               string     `json:"testId"`
	Status           string     `json:"status"`
	Subject          string     `json:"subject"`
	Chapters         []string   `json:"chapters"`
	Difficulty       string     `json:"difficulty,omitempty"`
	ActiveSlot       int        `json:"activeSlot"`
	Slots            []slotView `json:"slots"`
	Score            *int       `json:"score,omitempty"`
	Total            int        `json:"total"`
	RemainingSeconds int        `json:"remainingSeconds"`
	AutoSubmitted    bool       `json:"autoSubmitted,omitempty"`
	CreatedAt        time.Time  `json:"createdAt"`
}

func (s *Server) viewSession(sess *session.Session) sessionView {
	v := sessionView{
		ID:               sess.ID,
		Status:           sess.Status.String(),
		Subject:          sess.Subject,
		Chapters:         sess.Chapters,
		Difficulty:       string(sess.Difficulty),
		ActiveSlot:       sess.ActiveSlot,
		Slots:            make([]slotView, sess.Len()),
		Score:            sess.Score,
		Total:            sess.Len(),
		RemainingSeconds: int(s.deps.Sessions.Remaining(sess).Round(time.Second) / time.Second),
		AutoSubmitted:    sess.AutoSubmitted,
		CreatedAt:        sess.CreatedAt,
	}
	for i, a := range sess.Answers {
		v.Slots[i] = slotView{Selected: a.Selected, TimeTaken: a.TimeTaken.Seconds()}
	}
	return v
}

func viewQuestion(q *question.Question) questionView {
	return questionView{
		ID:         q.ID,
		Prompt:     q.Prompt,
		Options:    q.Options,
		Difficulty: string(q.Difficulty),
		Chapter:    q.Chapter,
		Subject:    q.Subject,
	}
}

// viewQuestions drops questions removed from the bank since the draw.
func viewQuestions(qs []*question.Question) []questionView {
	out := make([]questionView, 0, len(qs))
	for _, q := range qs {
		if q != nil {
			out = append(out, viewQuestion(q))
		}
	}
	return out
}

func reviewQuestions(qs []*question.Question) []reviewQuestionView {
	out := make([]reviewQuestionView, 0, len(qs))
	for _, q := range qs {
		if q != nil {
			out = append(out, reviewQuestionView{questionView: viewQuestion(q), Answer: q.Answer, SkillType: string(q.SkillType)})
		}
	}
	return out
}
