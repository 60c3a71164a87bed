package provider

import (
	"context"
	"encoding/json"
	"net/http"
)

// DefaultOllamaURL is used when no base URL override is configured.
const DefaultOllamaURL = "http://localhost:11434"

// OllamaProvider implements Provider for a local Ollama server. It needs no
// API key.
type OllamaProvider struct {
	api jsonClient
}

// NewOllamaProvider creates an Ollama provider. Pass WithBaseURL to target a
// server other than DefaultOllamaURL.
func NewOllamaProvider(opts ...Option) *OllamaProvider {
	return &OllamaProvider{
		api: jsonClient{
			settings:  newSettings(DefaultOllamaURL, opts),
			provider:  "ollama",
			errorText: ollamaErrorText,
		},
	}
}

// Name returns "ollama".
func (p *OllamaProvider) Name() string { return "ollama" }

type ollamaRequest struct {
	Model    string          `json:"model"`
	Messages []ollamaMessage `json:"messages"`
	Stream   bool            `json:"stream"`
}

type ollamaMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaResponse struct {
	Model           string        `json:"model"`
	Message         ollamaMessage `json:"message"`
	Done            bool          `json:"done"`
	PromptEvalCount int           `json:"prompt_eval_count"`
	EvalCount       int           `json:"eval_count"`
}

type ollamaTags struct {
	Models []struct {
		Name  string `json:"name"`
		Model string `json:"model"`
	} `json:"models"`
}

func ollamaErrorText(body []byte) string {
	var e struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(body, &e) == nil {
		return e.Error
	}
	return ""
}

// ListModels returns the locally pulled models from GET /api/tags.
func (p *OllamaProvider) ListModels(ctx context.Context) ([]string, error) {
	var tags ollamaTags
	if err := p.api.do(ctx, http.MethodGet, "/api/tags", nil, &tags); err != nil {
		return nil, err
	}

	models := make([]string, 0, len(tags.Models))
	for _, m := range tags.Models {
		models = append(models, m.Name)
	}
	if len(models) == 0 {
		return nil, &APIError{Provider: p.Name(), Message: "no models pulled on the Ollama server", Kind: ErrProviderUnavailable}
	}
	return models, nil
}

// Prompt sends text to POST /api/chat with streaming disabled. Model tags
// such as "gemma3:12b" are passed through verbatim.
func (p *OllamaProvider) Prompt(ctx context.Context, text, model string) (string, error) {
	req := ollamaRequest{
		Model:    model,
		Messages: []ollamaMessage{{Role: "user", Content: text}},
		Stream:   false,
	}

	var resp ollamaResponse
	if err := p.api.do(ctx, http.MethodPost, "/api/chat", req, &resp); err != nil {
		return "", err
	}

	logUsage(p.api.logger, p.Name(), model, Usage{
		InputTokens:  resp.PromptEvalCount,
		OutputTokens: resp.EvalCount,
	})
	return resp.Message.Content, nil
}
