package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

const (
	defaultAnthropicURL     = "https://api.anthropic.com/v1"
	defaultAnthropicVersion = "2023-06-01"
	defaultAnthropicTokens  = 4096
	anthropicModelPageSize  = 1000
)

// AnthropicProvider implements Provider for the Anthropic Messages API.
type AnthropicProvider struct {
	apiKey string
	api    jsonClient
}

// NewAnthropicProvider creates a new Anthropic provider with the given API key.
// An empty key is accepted; every call then fails with ErrProviderUnavailable.
func NewAnthropicProvider(apiKey string, opts ...Option) *AnthropicProvider {
	p := &AnthropicProvider{apiKey: apiKey}
	p.api = jsonClient{
		settings: newSettings(defaultAnthropicURL, opts),
		provider: "anthropic",
		header: func(h http.Header) {
			h.Set("X-Api-Key", p.apiKey)
			h.Set("Anthropic-Version", defaultAnthropicVersion)
		},
		errorText: anthropicErrorText,
	}
	return p
}

// Name returns "anthropic".
func (p *AnthropicProvider) Name() string { return "anthropic" }

// anthropicRequest is the Anthropic Messages API request body.
type anthropicRequest struct {
	Model     string             `json:"model"`
	MaxTokens int                `json:"max_tokens"`
	Messages  []anthropicMessage `json:"messages"`
	Thinking  *anthropicThinking `json:"thinking,omitempty"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicThinking struct {
	Type         string `json:"type"`
	BudgetTokens int    `json:"budget_tokens"`
}

// anthropicResponse is the Anthropic Messages API response body.
type anthropicResponse struct {
	ID         string                  `json:"id"`
	Type       string                  `json:"type"`
	Role       string                  `json:"role"`
	Content    []anthropicContentBlock `json:"content"`
	StopReason string                  `json:"stop_reason"`
	Usage      struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

type anthropicContentBlock struct {
	Type     string `json:"type"`
	Text     string `json:"text,omitempty"`
	Thinking string `json:"thinking,omitempty"`
}

type anthropicModelList struct {
	Data []struct {
		ID          string `json:"id"`
		DisplayName string `json:"display_name"`
	} `json:"data"`
	HasMore bool   `json:"has_more"`
	LastID  string `json:"last_id"`
}

type anthropicErrorResponse struct {
	Type  string `json:"type"`
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

func anthropicErrorText(body []byte) string {
	var apiErr anthropicErrorResponse
	if json.Unmarshal(body, &apiErr) == nil {
		return apiErr.Error.Message
	}
	return ""
}

// ListModels pages through GET /v1/models.
func (p *AnthropicProvider) ListModels(ctx context.Context) ([]string, error) {
	if p.apiKey == "" {
		return nil, missingKey(p.Name())
	}

	var models []string
	afterID := ""
	for {
		q := url.Values{}
		q.Set("limit", strconv.Itoa(anthropicModelPageSize))
		if afterID != "" {
			q.Set("after_id", afterID)
		}

		var page anthropicModelList
		if err := p.api.do(ctx, http.MethodGet, "/models?"+q.Encode(), nil, &page); err != nil {
			return nil, err
		}
		for _, m := range page.Data {
			models = append(models, m.ID)
		}
		if !page.HasMore || page.LastID == "" {
			break
		}
		afterID = page.LastID
	}

	if len(models) == 0 {
		return nil, &APIError{Provider: p.Name(), Message: "model listing is empty", Kind: ErrProviderUnavailable}
	}
	return models, nil
}

// Prompt sends text as a single user message to POST /v1/messages. A model
// suffix such as ":4k" enables extended thinking with that token budget.
func (p *AnthropicProvider) Prompt(ctx context.Context, text, model string) (string, error) {
	if p.apiKey == "" {
		return "", missingKey(p.Name())
	}

	base, budget := thinkingBudget(model)
	req := anthropicRequest{
		Model:     base,
		MaxTokens: defaultAnthropicTokens,
		Messages:  []anthropicMessage{{Role: "user", Content: text}},
	}
	if budget > 0 {
		req.Thinking = &anthropicThinking{Type: "enabled", BudgetTokens: budget}
		// max_tokens must exceed the thinking budget.
		req.MaxTokens = budget + defaultAnthropicTokens
	}

	var resp anthropicResponse
	if err := p.api.do(ctx, http.MethodPost, "/messages", req, &resp); err != nil {
		return "", err
	}

	logUsage(p.api.logger, p.Name(), base, Usage{
		InputTokens:  resp.Usage.InputTokens,
		OutputTokens: resp.Usage.OutputTokens,
	})
	return parseAnthropicResponse(&resp), nil
}

// parseAnthropicResponse joins the text blocks of a response; thinking
// blocks are not part of the completion text.
func parseAnthropicResponse(ar *anthropicResponse) string {
	var parts []string
	for _, block := range ar.Content {
		if block.Type == "text" {
			parts = append(parts, block.Text)
		}
	}
	return strings.Join(parts, "\n")
}
