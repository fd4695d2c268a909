package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	openai "github.com/sashabaranov/go-openai"
)

const openRouterURL = "https://openrouter.ai/api/v1"

// OpenAI is the chat completions backend. OpenRouter speaks the same
// protocol and is served by the same type.
type OpenAI struct {
	client *openai.Client
	model  string
	name   string
}

// NewOpenAI builds the backend. baseURL may be empty.
func NewOpenAI(apiKey, model, baseURL string) (*OpenAI, error) {
	if apiKey == "" {
		return nil, errors.New("openai: api key is required")
	}
	return newChatBackend("openai", apiKey, model, baseURL), nil
}

// NewOpenRouter builds an OpenAI-compatible backend aimed at OpenRouter.
func NewOpenRouter(apiKey, model, baseURL string) (*OpenAI, error) {
	if apiKey == "" {
		return nil, errors.New("openrouter: api key is required")
	}
	if baseURL == "" {
		baseURL = openRouterURL
	}
	return newChatBackend("openrouter", apiKey, model, baseURL), nil
}

func newChatBackend(name, apiKey, model, baseURL string) *OpenAI {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAI{client: openai.NewClientWithConfig(cfg), model: model, name: name}
}

func (o *OpenAI) Model() string { return o.model }

func (o *OpenAI) Complete(ctx context.Context, p Prompt) (*Completion, error) {
	req := openai.ChatCompletionRequest{
		Model:               o.model,
		MaxCompletionTokens: p.MaxTokens,
		Temperature:         float32(p.Temperature),
	}
	if p.Instructions != "" {
		req.Messages = append(req.Messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: p.Instructions})
	}
	req.Messages = append(req.Messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: p.Input})

	if p.Schema != nil {
		def, err := json.Marshal(p.Schema.Definition)
		if err != nil {
			return nil, fmt.Errorf("%s: encode schema: %w", o.name, err)
		}
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:        p.Schema.Name,
				Description: p.Schema.Description,
				Schema:      json.RawMessage(def),
				Strict:      true,
			},
		}
	}

	resp, err := o.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, o.wrap(err)
	}
	if len(resp.Choices) == 0 {
		return nil, &MalformedError{Err: fmt.Errorf("%s answer has no choices", o.name)}
	}

	choice := resp.Choices[0]
	out := &Completion{
		JSON:      []byte(choice.Message.Content),
		Tokens:    Tokens{In: resp.Usage.PromptTokens, Out: resp.Usage.CompletionTokens},
		Model:     resp.Model,
		Truncated: choice.FinishReason == openai.FinishReasonLength,
	}
	if out.Truncated {
		return out, ErrTruncated
	}
	if err := checkAnswer(p.Schema, out.JSON); err != nil {
		return nil, err
	}
	return out, nil
}

func (o *OpenAI) wrap(err error) error {
	var apiErr *openai.APIError
	if !errors.As(err, &apiErr) {
		return &UnavailableError{Err: err}
	}
	switch {
	case apiErr.HTTPStatusCode == http.StatusTooManyRequests:
		return &RateLimitedError{Err: err}
	case apiErr.HTTPStatusCode >= 500:
		return &UnavailableError{Err: err}
	}
	return fmt.Errorf("%s: %w", o.name, err)
}
