package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

var anthropicAliases = map[string]string{
	"claude-haiku":  "claude-haiku-4-5-20251001",
	"claude-sonnet": "claude-sonnet-4-20250514",
}

// Anthropic is the Messages API backend.
type Anthropic struct {
	client anthropic.Client
	model  string
}

// NewAnthropic builds the backend. Extra request options are for tests
// that point the client at a local server.
func NewAnthropic(apiKey, model string, opts ...option.RequestOption) (*Anthropic, error) {
	if apiKey == "" {
		return nil, errors.New("anthropic: api key is required")
	}
	opts = append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)
	return &Anthropic{
		client: anthropic.NewClient(opts...),
		model:  resolveModel(model, anthropicAliases),
	}, nil
}

func (a *Anthropic) Model() string { return a.model }

func (a *Anthropic) Complete(ctx context.Context, p Prompt) (*Completion, error) {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(a.model),
		MaxTokens: int64(p.MaxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(p.Input)),
		},
	}
	if p.Instructions != "" {
		params.System = []anthropic.TextBlockParam{{Text: p.Instructions}}
	}
	if p.Temperature > 0 {
		params.Temperature = anthropic.Float(p.Temperature)
	}
	if p.Schema != nil {
		params.OutputConfig = anthropic.OutputConfigParam{
			Format: anthropic.JSONOutputFormatParam{Schema: p.Schema.Definition},
		}
	}

	msg, err := a.client.Messages.New(ctx, params)
	if err != nil {
		return nil, anthropicError(err)
	}

	var text string
	for _, block := range msg.Content {
		if block.Type == "text" {
			text = block.Text
			break
		}
	}
	if text == "" {
		return nil, &MalformedError{Err: errors.New("anthropic answer has no text block")}
	}

	out := &Completion{
		JSON:      []byte(text),
		Tokens:    Tokens{In: int(msg.Usage.InputTokens), Out: int(msg.Usage.OutputTokens)},
		Model:     string(msg.Model),
		Truncated: msg.StopReason == anthropic.StopReasonMaxTokens,
	}
	if out.Truncated {
		return out, ErrTruncated
	}
	if err := checkAnswer(p.Schema, out.JSON); err != nil {
		return nil, err
	}
	return out, nil
}

func anthropicError(err error) error {
	var apiErr *anthropic.Error
	if !errors.As(err, &apiErr) {
		return &UnavailableError{Err: err}
	}
	if apiErr.StatusCode == http.StatusTooManyRequests {
		rl := &RateLimitedError{Err: err}
		if apiErr.Response != nil {
			rl.RetryAfter = retryAfter(apiErr.Response.Header.Get("Retry-After"))
		}
		return rl
	}
	if apiErr.StatusCode >= 500 {
		return &UnavailableError{Err: err}
	}
	return fmt.Errorf("anthropic: %w", err)
}

// retryAfter parses a Retry-After header given in seconds.
func retryAfter(h string) time.Duration {
	n, err := strconv.Atoi(h)
	if err != nil || n <= 0 {
		return 0
	}
	return time.Duration(n) * time.Second
}
