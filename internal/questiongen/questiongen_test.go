package questiongen

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/momentum/internal/apperr"
	"github.com/abhisek/momentum/internal/llm"
	"github.com/abhisek/momentum/internal/question"
)

func maths(chapter string) Spec {
	return Spec{Subject: "Maths", Chapter: chapter}
}

func TestSpecValidate(t *testing.T) {
	s := maths("Percentages")
	require.NoError(t, s.Validate())
	assert.Equal(t, question.Moderate, s.Difficulty, "empty difficulty defaults to Moderate")

	for name, bad := range map[string]Spec{
		"no subject": {Chapter: "c"},
		"no chapter": {Subject: "s"},
		"difficulty": {Subject: "s", Chapter: "c", Difficulty: "Impossible"},
		"skill type": {Subject: "s", Chapter: "c", SkillType: "memorising"},
	} {
		t.Run(name, func(t *testing.T) {
			assert.True(t, apperr.IsValidation(bad.Validate()))
		})
	}
}

func TestTemplateGenerator_ProducesValidQuestions(t *testing.T) {
	g := NewTemplateGenerator(rand.New(rand.NewPCG(1, 2)))
	for i := 0; i < 500; i++ {
		q, err := g.Generate(context.Background(), maths("Percentages"))
		require.NoError(t, err)
		require.NoError(t, q.Validate(), "question %d: %+v", i, q)

		// The keyed option really is the arithmetic answer.
		got, err := strconv.ParseFloat(q.CorrectOption(), 64)
		require.NoError(t, err)
		assert.Greater(t, got, 0.0)
	}
}

func TestTemplateGenerator_DiscountIsCorrect(t *testing.T) {
	g := NewTemplateGenerator(rand.New(rand.NewPCG(7, 7)), Discount)
	for i := 0; i < 100; i++ {
		q, err := g.Generate(context.Background(), maths("Percentages"))
		require.NoError(t, err)
		assert.Equal(t, question.SkillApplication, q.SkillType)

		var price, pct int
		_, err = fmt.Sscanf(q.Prompt, "An item costs $%d. With a %d%% discount", &price, &pct)
		require.NoError(t, err, q.Prompt)
		p := float64(price)
		assert.Equal(t, money(p-p*float64(pct)/100), q.CorrectOption())
	}
}

func TestTemplateGenerator_SkillTypeSelectsTemplate(t *testing.T) {
	g := NewTemplateGenerator(rand.New(rand.NewPCG(3, 4)))
	spec := maths("Percentages")
	spec.SkillType = question.SkillLearning
	for i := 0; i < 20; i++ {
		q, err := g.Generate(context.Background(), spec)
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(q.Prompt, "What is "), q.Prompt)
	}

	spec.SkillType = question.SkillGrasping
	_, err := g.Generate(context.Background(), spec)
	assert.True(t, apperr.IsValidation(err))
}

func TestValidators(t *testing.T) {
	good := question.Question{
		Prompt: "p", Subject: "s", Chapter: "c",
		Options: []string{"a", "b", "c", "d"}, Answer: 2,
		Difficulty: question.Easy, SkillType: question.SkillGrasping,
	}
	require.NoError(t, runValidators(DefaultValidators(), &good))

	cases := map[string]func(q *question.Question){
		"structural": func(q *question.Question) { q.Prompt = "  " },
		"options":    func(q *question.Question) { q.Options = []string{"a", "B", "b ", "d"} },
		"answer":     func(q *question.Question) { q.Answer = 4 },
	}
	for want, mutate := range cases {
		t.Run(want, func(t *testing.T) {
			q := good
			q.Options = append([]string(nil), good.Options...)
			mutate(&q)
			err := runValidators(DefaultValidators(), &q)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, want, verr.Validator)
		})
	}
}

func reply(v any) llm.Reply {
	b, _ := json.Marshal(v)
	return llm.Reply{JSON: b}
}

func TestLLMGenerator_Generate(t *testing.T) {
	p := llm.NewScripted(reply(map[string]any{
		"prompt":       " Which gas do plants absorb? ",
		"options":      []string{"Oxygen", "Carbon dioxide", "Nitrogen", "Helium"},
		"answer_index": 1,
		"skill_type":   "learning",
	}))
	g := NewLLMGenerator(p, DefaultLLMConfig())

	spec := Spec{Subject: "Science", Chapter: "Plants", Difficulty: question.Easy, Avoid: []string{"What is chlorophyll?"}}
	q, err := g.Generate(context.Background(), spec)
	require.NoError(t, err)
	assert.Equal(t, "Which gas do plants absorb?", q.Prompt)
	assert.Equal(t, "Carbon dioxide", q.CorrectOption())
	assert.Equal(t, question.SkillLearning, q.SkillType)
	assert.NotEmpty(t, q.ID)

	sent := p.Prompts()
	require.Len(t, sent, 1)
	assert.Contains(t, sent[0].Input, "Chapter: Plants")
	assert.Contains(t, sent[0].Input, "1. What is chlorophyll?")
	assert.Equal(t, QuestionSchema, sent[0].Schema)
}

func TestLLMGenerator_RejectsBadDrafts(t *testing.T) {
	dup := reply(map[string]any{
		"prompt": "q", "options": []string{"a", "a", "b", "c"}, "answer_index": 0, "skill_type": "grasping",
	})
	g := NewLLMGenerator(llm.NewScripted(dup), DefaultLLMConfig())
	_, err := g.Generate(context.Background(), maths("Ratios"))
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "options", verr.Validator)

	// Five options never get past the schema.
	five := reply(map[string]any{
		"prompt": "q", "options": []string{"a", "b", "c", "d", "e"}, "answer_index": 0, "skill_type": "grasping",
	})
	g = NewLLMGenerator(llm.NewScripted(five), DefaultLLMConfig())
	_, err = g.Generate(context.Background(), maths("Ratios"))
	assert.True(t, llm.IsMalformed(err), "err = %v", err)
}

func TestAuthorInput_TrimsAvoidList(t *testing.T) {
	spec := maths("Ratios")
	spec.Difficulty = question.Difficult
	for i := 0; i < 15; i++ {
		spec.Avoid = append(spec.Avoid, "Q"+strconv.Itoa(i))
	}
	in := authorInput(spec, 3)
	assert.Contains(t, in, "1. Q12")
	assert.NotContains(t, in, "Q11")
	assert.Contains(t, authorInput(maths("Ratios"), 3), "None")
}

func TestLLMClassifier(t *testing.T) {
	c := NewLLMClassifier(llm.NewScripted(reply(map[string]string{"skill_type": "Application"}), reply(map[string]string{"skill_type": "application"})))
	// "Application" fails the enum in the schema; the classifier never guesses.
	_, err := c.Classify(context.Background(), "A train leaves at 9am...")
	require.Error(t, err)

	got, err := c.Classify(context.Background(), "A train leaves at 9am...")
	require.NoError(t, err)
	assert.Equal(t, question.SkillApplication, got)
}

type countingGen struct {
	calls atomic.Int32
}

func (g *countingGen) Generate(_ context.Context, s Spec) (*question.Question, error) {
	g.calls.Add(1)
	if s.Chapter == "broken" {
		return nil, errors.New("model refused")
	}
	return &question.Question{ID: s.Chapter, Prompt: s.Chapter}, nil
}

func TestFill(t *testing.T) {
	specs := []Spec{maths("a"), maths("broken"), maths("c"), maths("d"), maths("broken")}
	gen := &countingGen{}
	qs, failed := Fill(context.Background(), gen, specs, 3)

	assert.EqualValues(t, 5, gen.calls.Load())
	require.Len(t, qs, 3)
	assert.Equal(t, []string{"a", "c", "d"}, []string{qs[0].ID, qs[1].ID, qs[2].ID}, "spec order is kept")
	require.Len(t, failed, 2)
	assert.Equal(t, 1, failed[0].Index)
	assert.Equal(t, 4, failed[1].Index)
}
