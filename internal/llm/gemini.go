package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/genai"
)

var geminiAliases = map[string]string{
	"gemini-flash": "gemini-2.0-flash",
	"gemini-pro":   "gemini-2.5-pro",
}

// Gemini is the Google GenAI backend.
type Gemini struct {
	client *genai.Client
	model  string
}

// NewGemini builds the backend. baseURL overrides the API endpoint and is
// meant for tests.
func NewGemini(ctx context.Context, apiKey, model, baseURL string) (*Gemini, error) {
	if apiKey == "" {
		return nil, errors.New("gemini: api key is required")
	}
	cc := &genai.ClientConfig{APIKey: apiKey, Backend: genai.BackendGeminiAPI}
	if baseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("gemini: new client: %w", err)
	}
	return &Gemini{client: client, model: resolveModel(model, geminiAliases)}, nil
}

func (g *Gemini) Model() string { return g.model }

func (g *Gemini) Complete(ctx context.Context, p Prompt) (*Completion, error) {
	gc := &genai.GenerateContentConfig{MaxOutputTokens: int32(p.MaxTokens)}
	if p.Temperature > 0 {
		gc.Temperature = genai.Ptr(float32(p.Temperature))
	}
	if p.Instructions != "" {
		gc.SystemInstruction = genai.NewContentFromText(p.Instructions, genai.RoleUser)
	}
	if p.Schema != nil {
		gc.ResponseMIMEType = "application/json"
		gc.ResponseSchema = geminiSchema(p.Schema.Definition)
	}

	res, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(p.Input), gc)
	if err != nil {
		return nil, geminiError(err)
	}

	out := &Completion{JSON: []byte(res.Text()), Model: g.model}
	if res.UsageMetadata != nil {
		out.Tokens = Tokens{
			In:  int(res.UsageMetadata.PromptTokenCount),
			Out: int(res.UsageMetadata.CandidatesTokenCount),
		}
	}
	if len(res.Candidates) > 0 && res.Candidates[0].FinishReason == genai.FinishReasonMaxTokens {
		out.Truncated = true
		return out, ErrTruncated
	}
	if err := checkAnswer(p.Schema, out.JSON); err != nil {
		return nil, err
	}
	return out, nil
}

// geminiSchema translates the subset of JSON Schema the question schemas
// use into genai's own schema type.
func geminiSchema(def map[string]any) *genai.Schema {
	s := &genai.Schema{}
	if t, ok := def["type"].(string); ok {
		s.Type = geminiTypes[t]
	}
	if d, ok := def["description"].(string); ok {
		s.Description = d
	}
	if props, ok := def["properties"].(map[string]any); ok {
		s.Properties = make(map[string]*genai.Schema, len(props))
		for name, v := range props {
			if pd, ok := v.(map[string]any); ok {
				s.Properties[name] = geminiSchema(pd)
			}
		}
	}
	s.Required = stringList(def["required"])
	s.Enum = stringList(def["enum"])
	if items, ok := def["items"].(map[string]any); ok {
		s.Items = geminiSchema(items)
	}
	if n, ok := def["minItems"].(int); ok {
		s.MinItems = genai.Ptr(int64(n))
	}
	if n, ok := def["maxItems"].(int); ok {
		s.MaxItems = genai.Ptr(int64(n))
	}
	return s
}

var geminiTypes = map[string]genai.Type{
	"string":  genai.TypeString,
	"number":  genai.TypeNumber,
	"integer": genai.TypeInteger,
	"boolean": genai.TypeBoolean,
	"array":   genai.TypeArray,
	"object":  genai.TypeObject,
}

// stringList accepts both []string and []any.
func stringList(v any) []string {
	switch l := v.(type) {
	case []string:
		return l
	case []any:
		out := make([]string, 0, len(l))
		for _, e := range l {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

func geminiError(err error) error {
	var apiErr genai.APIError
	if !errors.As(err, &apiErr) {
		return &UnavailableError{Err: err}
	}
	switch {
	case apiErr.Code == http.StatusTooManyRequests:
		return &RateLimitedError{Err: err}
	case apiErr.Code >= 500:
		return &UnavailableError{Err: err}
	}
	return fmt.Errorf("gemini: %w", err)
}
