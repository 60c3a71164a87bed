package provider

import (
	"context"
	"errors"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"
)

const (
	defaultOpenAIURL   = "https://api.openai.com/v1"
	defaultGroqURL     = "https://api.groq.com/openai/v1"
	defaultDeepSeekURL = "https://api.deepseek.com"
)

// OpenAIProvider implements Provider for OpenAI and for vendors exposing an
// OpenAI-compatible Chat Completions API (Groq, DeepSeek). Requests go
// through the official openai-go SDK.
type OpenAIProvider struct {
	name      string
	apiKey    string
	reasoning bool
	cli       openai.Client
	settings  settings
}

// NewOpenAIProvider creates a provider for api.openai.com. Models may carry a
// reasoning effort suffix (":low", ":medium", ":high").
func NewOpenAIProvider(apiKey string, opts ...Option) *OpenAIProvider {
	p := newOpenAICompatible("openai", defaultOpenAIURL, apiKey, opts)
	p.reasoning = true
	return p
}

// NewGroqProvider creates a provider for Groq's OpenAI-compatible endpoint.
func NewGroqProvider(apiKey string, opts ...Option) *OpenAIProvider {
	return newOpenAICompatible("groq", defaultGroqURL, apiKey, opts)
}

// NewDeepSeekProvider creates a provider for DeepSeek's OpenAI-compatible endpoint.
func NewDeepSeekProvider(apiKey string, opts ...Option) *OpenAIProvider {
	return newOpenAICompatible("deepseek", defaultDeepSeekURL, apiKey, opts)
}

func newOpenAICompatible(name, baseURL, apiKey string, opts []Option) *OpenAIProvider {
	s := newSettings(baseURL, opts)
	return &OpenAIProvider{
		name:     name,
		apiKey:   apiKey,
		settings: s,
		cli: openai.NewClient(
			option.WithAPIKey(apiKey),
			option.WithBaseURL(s.baseURL),
			option.WithHTTPClient(s.client),
			option.WithMaxRetries(s.maxRetries),
		),
	}
}

// Name returns the vendor identifier ("openai", "groq" or "deepseek").
func (p *OpenAIProvider) Name() string { return p.name }

// ListModels returns the model IDs from GET /models.
func (p *OpenAIProvider) ListModels(ctx context.Context) ([]string, error) {
	if p.apiKey == "" {
		return nil, missingKey(p.name)
	}

	page, err := p.cli.Models.List(ctx)
	if err != nil {
		return nil, p.translateError(err)
	}

	models := make([]string, 0, len(page.Data))
	for _, m := range page.Data {
		models = append(models, m.ID)
	}
	if len(models) == 0 {
		return nil, &APIError{Provider: p.name, Message: "model listing is empty", Kind: ErrProviderUnavailable}
	}
	return models, nil
}

// Prompt sends text as a single user message to POST /chat/completions and
// returns the content of the first choice.
func (p *OpenAIProvider) Prompt(ctx context.Context, text, model string) (string, error) {
	if p.apiKey == "" {
		return "", missingKey(p.name)
	}

	base, effort := model, ""
	if p.reasoning {
		base, effort = reasoningEffort(model)
	}

	params := openai.ChatCompletionNewParams{
		Model: shared.ChatModel(base),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(text),
		},
	}
	if effort != "" {
		params.ReasoningEffort = shared.ReasoningEffort(effort)
	}

	resp, err := p.cli.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", p.translateError(err)
	}
	if len(resp.Choices) == 0 {
		return "", &APIError{Provider: p.name, Message: "response contained no choices"}
	}

	logUsage(p.settings.logger, p.name, base, Usage{
		InputTokens:  int(resp.Usage.PromptTokens),
		OutputTokens: int(resp.Usage.CompletionTokens),
	})
	return resp.Choices[0].Message.Content, nil
}

// translateError maps SDK errors onto the adapter error taxonomy.
func (p *OpenAIProvider) translateError(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		e := classifyStatus(p.name, apiErr.StatusCode, apiErr.Message)
		if apiErr.Code == "model_not_found" {
			e.Kind = ErrInvalidModel
		}
		e.Cause = err
		return e
	}
	return unavailable(p.name, err)
}
