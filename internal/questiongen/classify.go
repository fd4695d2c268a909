package questiongen

import (
	"context"
	"fmt"

	"github.com/abhisek/momentum/internal/llm"
	"github.com/abhisek/momentum/internal/question"
)

// Classifier assigns a skill type to a question that arrived without one.
type Classifier interface {
	Classify(ctx context.Context, prompt string) (question.SkillType, error)
}

var classifySchema = &llm.Schema{
	Name:        "skill-type",
	Description: "The cognitive skill a question exercises",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"skill_type": map[string]any{"type": "string", "enum": skillEnum()},
		},
		"required":             []string{"skill_type"},
		"additionalProperties": false,
	},
}

const classifyInstructions = `Classify an assessment question by the skill it tests.
learning: recalling a definition, fact or rule.
grasping: understanding, explaining or comparing concepts.
application: using a concept to solve a new or worked problem.
Answer with exactly one skill type.`

// LLMClassifier asks a model for the skill type.
type LLMClassifier struct {
	provider llm.Provider
}

// NewLLMClassifier wraps provider.
func NewLLMClassifier(provider llm.Provider) *LLMClassifier {
	return &LLMClassifier{provider: provider}
}

// Classify returns a member of the closed skill-type set or an error; it
// never guesses.
func (c *LLMClassifier) Classify(ctx context.Context, prompt string) (question.SkillType, error) {
	ctx = llm.WithPurpose(ctx, llm.PurposeSkillClassify)
	out, err := c.provider.Complete(ctx, llm.Prompt{
		Instructions: classifyInstructions,
		Input:        prompt,
		Schema:       classifySchema,
		MaxTokens:    32,
	})
	if err != nil {
		return "", fmt.Errorf("classify: %w", err)
	}
	var ans struct {
		SkillType string `json:"skill_type"`
	}
	if err := out.Decode(&ans); err != nil {
		return "", err
	}
	return question.ParseSkillType(ans.SkillType)
}
