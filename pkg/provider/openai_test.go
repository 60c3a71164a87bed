package provider

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

const chatCompletionBody = `{
  "id": "chatcmpl-01",
  "object": "chat.completion",
  "created": 1700000000,
  "model": "gpt-4o",
  "choices": [{
    "index": 0,
    "message": {"role": "assistant", "content": "The capital of France is Paris."},
    "finish_reason": "stop"
  }],
  "usage": {"prompt_tokens": 15, "completion_tokens": 8, "total_tokens": 23}
}`

func TestOpenAIPrompt_TextResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("path = %q, want %q", r.URL.Path, "/chat/completions")
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("Authorization = %q, want %q", got, "Bearer test-key")
		}

		var reqBody map[string]any
		if err := json.NewDecoder(r.Body).Decode(&reqBody); err != nil {
			t.Fatalf("decoding request body: %v", err)
		}
		if reqBody["model"] != "gpt-4o" {
			t.Errorf("model = %v, want %q", reqBody["model"], "gpt-4o")
		}
		if _, ok := reqBody["reasoning_effort"]; ok {
			t.Errorf("reasoning_effort sent for a model without suffix")
		}
		msgs, _ := reqBody["messages"].([]any)
		if len(msgs) != 1 {
			t.Fatalf("messages length = %d, want 1", len(msgs))
		}
		msg, _ := msgs[0].(map[string]any)
		if msg["role"] != "user" || msg["content"] != "What is the capital of France?" {
			t.Errorf("messages[0] = %v, want the user prompt", msg)
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(chatCompletionBody))
	}))
	defer server.Close()

	p := NewOpenAIProvider("test-key",
		WithBaseURL(server.URL),
		WithMaxRetries(0),
	)

	got, err := p.Prompt(context.Background(), "What is the capital of France?", "gpt-4o")
	if err != nil {
		t.Fatalf("Prompt() error = %v", err)
	}
	if got != "The capital of France is Paris." {
		t.Errorf("Prompt() = %q, want %q", got, "The capital of France is Paris.")
	}
}

func TestOpenAIPrompt_ReasoningEffortSuffix(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var reqBody map[string]any
		if err := json.NewDecoder(r.Body).Decode(&reqBody); err != nil {
			t.Fatalf("decoding request body: %v", err)
		}
		if reqBody["model"] != "o3-mini" {
			t.Errorf("model = %v, want %q", reqBody["model"], "o3-mini")
		}
		if reqBody["reasoning_effort"] != "high" {
			t.Errorf("reasoning_effort = %v, want %q", reqBody["reasoning_effort"], "high")
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(chatCompletionBody))
	}))
	defer server.Close()

	p := NewOpenAIProvider("test-key", WithBaseURL(server.URL), WithMaxRetries(0))

	if _, err := p.Prompt(context.Background(), "Hi", "o3-mini:high"); err != nil {
		t.Fatalf("Prompt() error = %v", err)
	}
}

func TestOpenAICompatible_NoSuffixParsing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var reqBody map[string]any
		if err := json.NewDecoder(r.Body).Decode(&reqBody); err != nil {
			t.Fatalf("decoding request body: %v", err)
		}
		// Groq model names are passed through verbatim.
		if reqBody["model"] != "qwen-qwq-32b:high" {
			t.Errorf("model = %v, want verbatim", reqBody["model"])
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(chatCompletionBody))
	}))
	defer server.Close()

	p := NewGroqProvider("test-key", WithBaseURL(server.URL), WithMaxRetries(0))

	if _, err := p.Prompt(context.Background(), "Hi", "qwen-qwq-32b:high"); err != nil {
		t.Fatalf("Prompt() error = %v", err)
	}
}

func TestOpenAIListModels(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/models" {
			t.Errorf("path = %q, want %q", r.URL.Path, "/models")
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"object":"list","data":[
			{"id":"deepseek-chat","object":"model","created":0,"owned_by":"deepseek"},
			{"id":"deepseek-reasoner","object":"model","created":0,"owned_by":"deepseek"}
		]}`))
	}))
	defer server.Close()

	p := NewDeepSeekProvider("test-key", WithBaseURL(server.URL), WithMaxRetries(0))

	models, err := p.ListModels(context.Background())
	if err != nil {
		t.Fatalf("ListModels() error = %v", err)
	}
	if len(models) != 2 || models[0] != "deepseek-chat" || models[1] != "deepseek-reasoner" {
		t.Errorf("ListModels() = %v", models)
	}
}

func TestOpenAIListModels_Empty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"object":"list","data":[]}`))
	}))
	defer server.Close()

	p := NewOpenAIProvider("test-key", WithBaseURL(server.URL), WithMaxRetries(0))

	if _, err := p.ListModels(context.Background()); !errors.Is(err, ErrProviderUnavailable) {
		t.Errorf("ListModels() error = %v, want ErrProviderUnavailable", err)
	}
}

func TestOpenAIPrompt_ErrorTaxonomy(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{
			name:   "unknown model",
			status: http.StatusNotFound,
			body:   `{"error":{"message":"The model does not exist","type":"invalid_request_error","code":"model_not_found"}}`,
			want:   ErrInvalidModel,
		},
		{
			name:   "bad key",
			status: http.StatusUnauthorized,
			body:   `{"error":{"message":"Incorrect API key provided","type":"invalid_request_error","code":"invalid_api_key"}}`,
			want:   ErrProviderUnavailable,
		},
		{
			name:   "rate limited",
			status: http.StatusTooManyRequests,
			body:   `{"error":{"message":"Rate limit reached","type":"requests","code":"rate_limit_exceeded"}}`,
			want:   ErrProviderUnavailable,
		},
		{
			name:   "server error",
			status: http.StatusInternalServerError,
			body:   `{"error":{"message":"internal error","type":"server_error"}}`,
			want:   ErrProviderUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var attempts atomic.Int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				attempts.Add(1)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			p := NewOpenAIProvider("test-key", WithBaseURL(server.URL), WithMaxRetries(0))

			_, err := p.Prompt(context.Background(), "Hi", "gpt-4o")
			if !errors.Is(err, tt.want) {
				t.Fatalf("Prompt() error = %v, want %v", err, tt.want)
			}
			var apiErr *APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("Prompt() error type = %T, want *APIError", err)
			}
			if apiErr.StatusCode != tt.status {
				t.Errorf("StatusCode = %d, want %d", apiErr.StatusCode, tt.status)
			}
			if n := attempts.Load(); n != 1 {
				t.Errorf("attempts = %d, want 1", n)
			}
		})
	}
}

func TestOpenAI_MissingKey(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer server.Close()

	for _, p := range []*OpenAIProvider{
		NewOpenAIProvider("", WithBaseURL(server.URL)),
		NewGroqProvider("", WithBaseURL(server.URL)),
		NewDeepSeekProvider("", WithBaseURL(server.URL)),
	} {
		if _, err := p.ListModels(context.Background()); !errors.Is(err, ErrProviderUnavailable) {
			t.Errorf("%s ListModels() error = %v, want ErrProviderUnavailable", p.Name(), err)
		}
		if _, err := p.Prompt(context.Background(), "Hi", "m"); !errors.Is(err, ErrProviderUnavailable) {
			t.Errorf("%s Prompt() error = %v, want ErrProviderUnavailable", p.Name(), err)
		}
	}
	if n := calls.Load(); n != 0 {
		t.Errorf("calls = %d, want 0", n)
	}
}

func TestOpenAICompatibleNames(t *testing.T) {
	tests := []struct {
		p    *OpenAIProvider
		want string
	}{
		{NewOpenAIProvider("key"), "openai"},
		{NewGroqProvider("key"), "groq"},
		{NewDeepSeekProvider("key"), "deepseek"},
	}
	for _, tt := range tests {
		if got := tt.p.Name(); got != tt.want {
			t.Errorf("Name() = %q, want %q", got, tt.want)
		}
	}
}

func TestEstimateCost(t *testing.T) {
	tests := []struct {
		name  string
		model string
		usage Usage
		want  float64
	}{
		{
			name:  "gpt-4o",
			model: "gpt-4o",
			usage: Usage{InputTokens: 1_000_000, OutputTokens: 1_000_000},
			want:  12.50, // 2.50 + 10.0
		},
		{
			name:  "gpt-4o partial usage",
			model: "gpt-4o",
			usage: Usage{InputTokens: 500_000, OutputTokens: 100_000},
			want:  2.25, // (0.5 * 2.50) + (0.1 * 10.0)
		},
		{
			name:  "deepseek-chat",
			model: "deepseek-chat",
			usage: Usage{InputTokens: 1_000_000, OutputTokens: 1_000_000},
			want:  1.37, // 0.27 + 1.10
		},
		{
			name:  "unknown model",
			model: "gemma3:12b",
			usage: Usage{InputTokens: 1_000_000, OutputTokens: 1_000_000},
			want:  0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EstimateCost(tt.model, tt.usage)
			if math.Abs(got-tt.want) > 0.001 {
				t.Errorf("EstimateCost(%q, %+v) = %f, want %f", tt.model, tt.usage, got, tt.want)
			}
		})
	}
}
