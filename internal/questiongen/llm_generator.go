package questiongen

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/abhisek/momentum/internal/llm"
	"github.com/abhisek/momentum/internal/question"
)

// QuestionSchema is the structured answer the model must produce.
var QuestionSchema = &llm.Schema{
	Name:        "mcq-question",
	Description: "One multiple-choice assessment question with four options",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"prompt": map[string]any{
				"type":        "string",
				"description": "The question shown to the candidate, plain text",
			},
			"options": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"minItems":    question.OptionCount,
				"maxItems":    question.OptionCount,
				"description": "Exactly four distinct options, one of them correct",
			},
			"answer_index": map[string]any{
				"type":        "integer",
				"minimum":     0,
				"maximum":     question.OptionCount - 1,
				"description": "Zero-based index of the correct option",
			},
			"skill_type": map[string]any{
				"type":        "string",
				"enum":        skillEnum(),
				"description": "learning = recall a fact or rule, grasping = explain or compare concepts, application = use the concept on a new problem",
			},
		},
		"required":             []string{"prompt", "options", "answer_index", "skill_type"},
		"additionalProperties": false,
	},
}

func skillEnum() []string {
	var out []string
	for _, s := range question.AllSkillTypes() {
		out = append(out, string(s))
	}
	return out
}

const authorInstructions = `You write multiple-choice questions for timed online assessments.

Rules:
- One question, exactly four options, exactly one correct option.
- Distractors must be plausible mistakes, never joke answers or "all of the above".
- Plain text only. No markdown and no LaTeX.
- Match the requested difficulty and skill type.
- Never repeat a question from the "already in the bank" list.`

// LLMConfig tunes LLMGenerator.
type LLMConfig struct {
	MaxTokens   int
	Temperature float64
	MaxAvoid    int // most recent Avoid prompts quoted to the model
	Validators  []Validator
}

// DefaultLLMConfig is the configuration generate uses.
func DefaultLLMConfig() LLMConfig {
	return LLMConfig{MaxTokens: 512, Temperature: 0.7, MaxAvoid: 10, Validators: DefaultValidators()}
}

// LLMGenerator asks a model for questions and rejects anything the
// validator chain does not accept.
type LLMGenerator struct {
	provider llm.Provider
	cfg      LLMConfig
	newID    func() string
}

// NewLLMGenerator wraps provider.
func NewLLMGenerator(provider llm.Provider, cfg LLMConfig) *LLMGenerator {
	return &LLMGenerator{provider: provider, cfg: cfg, newID: uuid.NewString}
}

type draftAnswer struct {
	Prompt      string   `json:"prompt"`
	Options     []string `json:"options"`
	AnswerIndex int      `json:"answer_index"`
	SkillType   string   `json:"skill_type"`
}

func (g *LLMGenerator) Generate(ctx context.Context, spec Spec) (*question.Question, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	ctx = llm.WithPurpose(ctx, llm.PurposeQuestionGen)

	out, err := g.provider.Complete(ctx, llm.Prompt{
		Instructions: authorInstructions,
		Input:        authorInput(spec, g.cfg.MaxAvoid),
		Schema:       QuestionSchema,
		MaxTokens:    g.cfg.MaxTokens,
		Temperature:  g.cfg.Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("generate question: %w", err)
	}
	var d draftAnswer
	if err := out.Decode(&d); err != nil {
		return nil, err
	}

	skill := question.SkillType(strings.ToLower(strings.TrimSpace(d.SkillType)))
	if spec.SkillType != "" {
		skill = spec.SkillType
	}
	q := &question.Question{
		ID:         g.newID(),
		Prompt:     strings.TrimSpace(d.Prompt),
		Options:    d.Options,
		Answer:     d.AnswerIndex,
		Difficulty: spec.Difficulty,
		Chapter:    spec.Chapter,
		Subject:    spec.Subject,
		SkillType:  skill,
	}
	for i := range q.Options {
		q.Options[i] = strings.TrimSpace(q.Options[i])
	}
	if err := runValidators(g.cfg.Validators, q); err != nil {
		return nil, err
	}
	return q, nil
}

func authorInput(spec Spec, maxAvoid int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Subject: %s\n", spec.Subject)
	fmt.Fprintf(&b, "Chapter: %s\n", spec.Chapter)
	fmt.Fprintf(&b, "Difficulty: %s\n", spec.Difficulty)
	if spec.SkillType != "" {
		fmt.Fprintf(&b, "Skill type: %s\n", spec.SkillType)
	}
	if spec.Topic != "" {
		fmt.Fprintf(&b, "Focus: %s\n", spec.Topic)
	}

	b.WriteString("\nAlready in the bank:\n")
	avoid := spec.Avoid
	if maxAvoid > 0 && len(avoid) > maxAvoid {
		avoid = avoid[len(avoid)-maxAvoid:]
	}
	if len(avoid) == 0 {
		b.WriteString("None")
	}
	for i, p := range avoid {
		fmt.Fprintf(&b, "%d. %s\n", i+1, p)
	}
	return strings.TrimRight(b.String(), "\n")
}
