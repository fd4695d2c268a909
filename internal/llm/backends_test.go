package llm

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/anthropics/anthropic-sdk-go/option"
	"google.golang.org/genai"
)

var pairSchema = &Schema{
	Name: "test-pair",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"prompt": map[string]any{"type": "string"},
			"answer": map[string]any{"type": "integer", "minimum": 0, "maximum": 3},
		},
		"required":             []string{"prompt", "answer"},
		"additionalProperties": false,
	},
}

func serve(t *testing.T, status int, body any) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.Copy(io.Discard, r.Body)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func anthropicMessage(text, stop string) map[string]any {
	return map[string]any{
		"id": "msg_1", "type": "message", "role": "assistant",
		"model":       "claude-haiku-4-5-20251001",
		"content":     []map[string]any{{"type": "text", "text": text}},
		"stop_reason": stop,
		"usage":       map[string]any{"input_tokens": 50, "output_tokens": 20},
	}
}

func TestAnthropic_Complete(t *testing.T) {
	srv := serve(t, 200, anthropicMessage(`{"prompt":"2+2?","answer":1}`, "end_turn"))
	a, err := NewAnthropic("k", "claude-haiku", option.WithBaseURL(srv.URL), option.WithMaxRetries(0))
	if err != nil {
		t.Fatal(err)
	}
	if a.Model() != "claude-haiku-4-5-20251001" {
		t.Fatalf("alias not resolved: %q", a.Model())
	}
	out, err := a.Complete(context.Background(), Prompt{Instructions: "author", Input: "go", Schema: pairSchema, MaxTokens: 256})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if out.Tokens.Total() != 70 || out.Truncated {
		t.Fatalf("out = %+v", out)
	}
	var pair struct {
		Prompt string
		Answer int
	}
	if err := out.Decode(&pair); err != nil || pair.Answer != 1 {
		t.Fatalf("decode = %+v, %v", pair, err)
	}
}

func TestAnthropic_SchemaMismatch(t *testing.T) {
	srv := serve(t, 200, anthropicMessage(`{"prompt":"2+2?","answer":9}`, "end_turn"))
	a, _ := NewAnthropic("k", "m", option.WithBaseURL(srv.URL), option.WithMaxRetries(0))
	if _, err := a.Complete(context.Background(), Prompt{Schema: pairSchema, MaxTokens: 10}); !IsMalformed(err) {
		t.Fatalf("err = %v, want malformed", err)
	}
}

func TestAnthropic_Truncated(t *testing.T) {
	srv := serve(t, 200, anthropicMessage(`{"prompt":"2+`, "max_tokens"))
	a, _ := NewAnthropic("k", "m", option.WithBaseURL(srv.URL), option.WithMaxRetries(0))
	out, err := a.Complete(context.Background(), Prompt{Schema: pairSchema, MaxTokens: 10})
	if !errors.Is(err, ErrTruncated) || out == nil || !out.Truncated {
		t.Fatalf("out, err = %+v, %v", out, err)
	}
}

func TestAnthropic_RateLimit(t *testing.T) {
	srv := serve(t, 429, map[string]any{"type": "error", "error": map[string]any{"type": "rate_limit_error", "message": "slow down"}})
	a, _ := NewAnthropic("k", "m", option.WithBaseURL(srv.URL), option.WithMaxRetries(0))
	_, err := a.Complete(context.Background(), Prompt{MaxTokens: 10})
	var rl *RateLimitedError
	if !errors.As(err, &rl) {
		t.Fatalf("err = %T %v, want RateLimitedError", err, err)
	}
}

func chatCompletion(content, finish string) map[string]any {
	return map[string]any{
		"id": "c1", "object": "chat.completion", "created": 1, "model": "gpt-4o-mini",
		"choices": []map[string]any{{
			"index":         0,
			"message":       map[string]any{"role": "assistant", "content": content},
			"finish_reason": finish,
		}},
		"usage": map[string]any{"prompt_tokens": 30, "completion_tokens": 10, "total_tokens": 40},
	}
}

func TestOpenAI_Complete(t *testing.T) {
	srv := serve(t, 200, chatCompletion(`{"prompt":"5% of 200?","answer":2}`, "stop"))
	o, err := NewOpenAI("k", "gpt-4o-mini", srv.URL+"/v1")
	if err != nil {
		t.Fatal(err)
	}
	out, err := o.Complete(context.Background(), Prompt{Input: "go", Schema: pairSchema, MaxTokens: 100})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if out.Tokens != (Tokens{In: 30, Out: 10}) || out.Model != "gpt-4o-mini" {
		t.Fatalf("out = %+v", out)
	}
}

func TestOpenAI_ServerError(t *testing.T) {
	srv := serve(t, 503, map[string]any{"error": map[string]any{"message": "overloaded", "type": "server_error"}})
	o, _ := NewOpenAI("k", "gpt-4o-mini", srv.URL+"/v1")
	_, err := o.Complete(context.Background(), Prompt{})
	var un *UnavailableError
	if !errors.As(err, &un) {
		t.Fatalf("err = %T %v, want UnavailableError", err, err)
	}
}

func TestOpenRouter_DefaultsBaseURL(t *testing.T) {
	o, err := NewOpenRouter("k", "google/gemini-2.0-flash-001", "")
	if err != nil {
		t.Fatal(err)
	}
	if o.name != "openrouter" || o.Model() != "google/gemini-2.0-flash-001" {
		t.Fatalf("backend = %s %s", o.name, o.Model())
	}
	if _, err := NewOpenRouter("", "m", ""); err == nil {
		t.Fatal("missing key should fail")
	}
}

func TestGeminiSchema(t *testing.T) {
	s := geminiSchema(map[string]any{
		"type": "object",
		"properties": map[string]any{
			"options": map[string]any{"type": "array", "items": map[string]any{"type": "string"}, "minItems": 4, "maxItems": 4},
			"skill":   map[string]any{"type": "string", "enum": []string{"learning", "grasping"}},
		},
		"required": []any{"options"},
	})
	if s.Type != genai.TypeObject || len(s.Required) != 1 {
		t.Fatalf("root = %+v", s)
	}
	opts := s.Properties["options"]
	if opts.Type != genai.TypeArray || opts.Items.Type != genai.TypeString || *opts.MinItems != 4 {
		t.Fatalf("options = %+v", opts)
	}
	if got := s.Properties["skill"].Enum; len(got) != 2 || got[1] != "grasping" {
		t.Fatalf("enum = %v", got)
	}
}

func TestCheckAnswer(t *testing.T) {
	cases := []struct {
		raw string
		ok  bool
	}{
		{`{"prompt":"a","answer":0}`, true},
		{`{"prompt":"a"}`, false},
		{`{"prompt":"a","answer":0,"extra":1}`, false},
		{`{"prompt":`, false},
	}
	for _, c := range cases {
		err := checkAnswer(pairSchema, json.RawMessage(c.raw))
		if (err == nil) != c.ok {
			t.Errorf("checkAnswer(%s) = %v", c.raw, err)
		}
	}
	if err := checkAnswer(nil, json.RawMessage(`[1]`)); err != nil {
		t.Errorf("nil schema: %v", err)
	}
}

func TestFromEnv(t *testing.T) {
	env := func(m map[string]string) func(string) string {
		return func(k string) string { return m[k] }
	}

	if _, ok := FromEnv(env(nil)); ok {
		t.Fatal("empty env should not configure a backend")
	}

	cfg, ok := FromEnv(env(map[string]string{"OPENAI_API_KEY": "sk-o", "ANTHROPIC_API_KEY": "sk-a"}))
	if !ok || cfg.Backend != BackendOpenAI || cfg.APIKey != "sk-o" || cfg.Model != "gpt-4o-mini" {
		t.Fatalf("discovered = %+v", cfg)
	}

	cfg, ok = FromEnv(env(map[string]string{
		"MOMENTUM_LLM_BACKEND": "anthropic",
		"MOMENTUM_LLM_MODEL":   "claude-sonnet",
		"OPENAI_API_KEY":       "sk-o",
		"ANTHROPIC_API_KEY":    "sk-a",
	}))
	if !ok || cfg.APIKey != "sk-a" || cfg.Model != "claude-sonnet" {
		t.Fatalf("explicit = %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	cfg, _ = FromEnv(env(map[string]string{"MOMENTUM_LLM_BACKEND": "gemini"}))
	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "MOMENTUM_LLM_API_KEY") {
		t.Fatalf("Validate = %v", err)
	}
}

func TestPriceOf(t *testing.T) {
	p, ok := PriceOf("claude-haiku-4-5-20251001")
	if !ok || p.In != 1 {
		t.Fatalf("haiku = %+v, %v", p, ok)
	}
	// gpt-4o-mini must not match the shorter gpt-4o prefix.
	if p, _ := PriceOf("gpt-4o-mini"); p.In != 0.15 {
		t.Fatalf("gpt-4o-mini = %+v", p)
	}
	if got := (Price{In: 1, Out: 5}).Cost(Tokens{In: 1_000_000, Out: 200_000}); got != 2 {
		t.Fatalf("Cost = %v", got)
	}
	if _, ok := PriceOf("llama"); ok {
		t.Fatal("unknown model priced")
	}
}
