// Package llm talks to hosted language models for question authoring and
// skill classification. Every backend returns JSON that has already been
// checked against the caller's schema.
package llm

import (
	"context"
	"encoding/json"
)

// Provider completes one structured prompt.
type Provider interface {
	// Complete sends p and returns the model's JSON answer. When p.Schema is
	// set the answer has been validated against it.
	Complete(ctx context.Context, p Prompt) (*Completion, error)

	// Model names the model requests are sent to.
	Model() string
}

// Prompt is a single-turn request. The question bank never needs a
// multi-turn conversation.
type Prompt struct {
	Instructions string // system prompt
	Input        string // user message
	Schema       *Schema
	MaxTokens    int
	Temperature  float64 // 0 leaves the provider default
}

// Schema is a named JSON Schema the answer must satisfy.
type Schema struct {
	Name        string // kebab-case, e.g. "mcq-question"
	Description string
	Definition  map[string]any
}

// Completion is a model answer.
type Completion struct {
	JSON      json.RawMessage
	Tokens    Tokens
	Model     string
	Truncated bool
}

// Decode unmarshals the answer into v.
func (c *Completion) Decode(v any) error {
	if err := json.Unmarshal(c.JSON, v); err != nil {
		return &MalformedError{Content: c.JSON, Err: err}
	}
	return nil
}

// Tokens is the token usage of one request.
type Tokens struct {
	In  int
	Out int
}

// Total is In + Out.
func (t Tokens) Total() int { return t.In + t.Out }

// Purposes label requests in the request log.
const (
	PurposeQuestionGen   = "question-gen"
	PurposeSkillClassify = "skill-classify"
	PurposeUnknown       = "unknown"
)

type purposeKey struct{}

// WithPurpose tags ctx so recorded requests carry purpose.
func WithPurpose(ctx context.Context, purpose string) context.Context {
	return context.WithValue(ctx, purposeKey{}, purpose)
}

// PurposeFrom returns the tag set by WithPurpose, or PurposeUnknown.
func PurposeFrom(ctx context.Context) string {
	if v, ok := ctx.Value(purposeKey{}).(string); ok && v != "" {
		return v
	}
	return PurposeUnknown
}
