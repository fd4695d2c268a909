package report

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/momentum/internal/question"
	"github.com/abhisek/momentum/internal/session"
)

func intp(v int) *int { return &v }

func fixture() (*session.Session, []*question.Question) {
	qs := []*question.Question{
		{ID: "q1", Prompt: "What is 10% of 50?", Options: []string{"5.00", "6.00", "4.00", "5.50"}, Answer: 0},
		{ID: "q2", Prompt: "What is 20% of 40?", Options: []string{"8.00", "9.60", "6.40", "8.80"}, Answer: 0},
		nil, // removed from the bank
		{ID: "q4", Prompt: "What is 50% of 10?", Options: []string{"4.00", "5.00", "6.00", "5.50"}, Answer: 1},
	}
	f := question.Filter{Subject: "Maths", Chapters: []string{"Percentages"}}
	s := session.New("s1", "u1", session.KindTest, f, []string{"q1", "q2", "q3", "q4"}, 20*time.Minute, time.Unix(0, 0))
	s.Status = session.StatusSubmitted
	s.Answers[0] = session.AnswerState{Selected: intp(0), TimeTaken: 30 * time.Second}
	s.Answers[1] = session.AnswerState{Selected: intp(2), TimeTaken: 45 * time.Second}
	s.Answers[2] = session.AnswerState{Selected: intp(1), TimeTaken: 10 * time.Second}
	s.Answers[3] = session.AnswerState{TimeTaken: 5 * time.Second}
	s.Score = intp(1)
	return s, qs
}

func TestBuild(t *testing.T) {
	s, qs := fixture()
	sum, err := Build(s, qs)
	require.NoError(t, err)

	assert.Equal(t, 1, sum.Score)
	assert.Equal(t, 4, sum.Total)
	assert.Equal(t, 1200.0, sum.AllottedSeconds)
	assert.Equal(t, Times{Correct: 30, Incorrect: 55, Unanswered: 5, Total: 90}, sum.Time)

	require.Len(t, sum.PerSlot, 4)
	assert.True(t, sum.PerSlot[0].Correct)
	assert.False(t, sum.PerSlot[1].Correct)
	assert.False(t, sum.PerSlot[2].Correct, "a removed question never scores")
	assert.Nil(t, sum.PerSlot[3].SelectedOption)
	assert.Equal(t, 45.0, sum.PerSlot[1].TimeTakenSeconds)
}

func TestBuild_JSONShape(t *testing.T) {
	s, qs := fixture()
	sum, err := Build(s, qs)
	require.NoError(t, err)
	b, err := json.Marshal(sum)
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(b, &m))
	for _, k := range []string{"sessionId", "score", "total", "perSlot", "time", "allottedTime"} {
		assert.Contains(t, m, k)
	}
	slot := m["perSlot"].([]any)[3].(map[string]any)
	assert.Nil(t, slot["selectedOption"])
}

func TestBuild_NotSubmitted(t *testing.T) {
	s, qs := fixture()
	s.Status = session.StatusInProgress
	_, err := Build(s, qs)
	assert.ErrorIs(t, err, ErrNotSubmitted)
}

func TestRender(t *testing.T) {
	s, qs := fixture()
	s.AutoSubmitted = true
	sum, err := Build(s, qs)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, sum, qs))
	out := buf.String()
	assert.Contains(t, out, "1 / 4")
	assert.Contains(t, out, "01:30 of 20:00")
	assert.Contains(t, out, "What is 20% of 40?")
	assert.Contains(t, out, "6.40")
	assert.Contains(t, out, "q3 (removed)")
	assert.Contains(t, out, "not answered")
	assert.Contains(t, out, "automatically")
}
