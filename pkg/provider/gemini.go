package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
)

const defaultGeminiURL = "https://generativelanguage.googleapis.com/v1beta"

// GeminiProvider implements Provider for the Google Gemini generateContent API.
type GeminiProvider struct {
	apiKey string
	api    jsonClient
}

// NewGeminiProvider creates a new Gemini provider with the given API key.
func NewGeminiProvider(apiKey string, opts ...Option) *GeminiProvider {
	p := &GeminiProvider{apiKey: apiKey}
	p.api = jsonClient{
		settings: newSettings(defaultGeminiURL, opts),
		provider: "gemini",
		header: func(h http.Header) {
			h.Set("X-Goog-Api-Key", p.apiKey)
		},
		errorText: geminiErrorText,
	}
	return p
}

// Name returns "gemini".
func (p *GeminiProvider) Name() string { return "gemini" }

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text,omitempty"`
}

type geminiResponse struct {
	Candidates []struct {
		Content      geminiContent `json:"content"`
		FinishReason string        `json:"finishReason"`
	} `json:"candidates"`
	UsageMetadata struct {
		PromptTokenCount     int `json:"promptTokenCount"`
		CandidatesTokenCount int `json:"candidatesTokenCount"`
	} `json:"usageMetadata"`
}

type geminiModelList struct {
	Models []struct {
		Name                       string   `json:"name"`
		SupportedGenerationMethods []string `json:"supportedGenerationMethods"`
	} `json:"models"`
	NextPageToken string `json:"nextPageToken"`
}

type geminiErrorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

func geminiErrorText(body []byte) string {
	var apiErr geminiErrorResponse
	if json.Unmarshal(body, &apiErr) == nil {
		return apiErr.Error.Message
	}
	return ""
}

// ListModels returns the models that support generateContent, with the
// "models/" resource prefix removed.
func (p *GeminiProvider) ListModels(ctx context.Context) ([]string, error) {
	if p.apiKey == "" {
		return nil, missingKey(p.Name())
	}

	var models []string
	pageToken := ""
	for {
		q := url.Values{}
		q.Set("pageSize", "1000")
		if pageToken != "" {
			q.Set("pageToken", pageToken)
		}

		var page geminiModelList
		if err := p.api.do(ctx, http.MethodGet, "/models?"+q.Encode(), nil, &page); err != nil {
			return nil, err
		}
		for _, m := range page.Models {
			if !supportsGenerate(m.SupportedGenerationMethods) {
				continue
			}
			models = append(models, strings.TrimPrefix(m.Name, "models/"))
		}
		if page.NextPageToken == "" {
			break
		}
		pageToken = page.NextPageToken
	}

	if len(models) == 0 {
		return nil, &APIError{Provider: p.Name(), Message: "model listing is empty", Kind: ErrProviderUnavailable}
	}
	return models, nil
}

// supportsGenerate treats a model without declared methods as usable.
func supportsGenerate(methods []string) bool {
	if len(methods) == 0 {
		return true
	}
	for _, m := range methods {
		if m == "generateContent" {
			return true
		}
	}
	return false
}

// Prompt sends text to POST /models/{model}:generateContent and returns the
// text parts of the first candidate.
func (p *GeminiProvider) Prompt(ctx context.Context, text, model string) (string, error) {
	if p.apiKey == "" {
		return "", missingKey(p.Name())
	}

	model = strings.TrimPrefix(model, "models/")
	req := geminiRequest{
		Contents: []geminiContent{{Role: "user", Parts: []geminiPart{{Text: text}}}},
	}

	var resp geminiResponse
	path := "/models/" + url.PathEscape(model) + ":generateContent"
	if err := p.api.do(ctx, http.MethodPost, path, req, &resp); err != nil {
		return "", err
	}
	if len(resp.Candidates) == 0 {
		return "", &APIError{Provider: p.Name(), Message: "response contained no candidates"}
	}

	logUsage(p.api.logger, p.Name(), model, Usage{
		InputTokens:  resp.UsageMetadata.PromptTokenCount,
		OutputTokens: resp.UsageMetadata.CandidatesTokenCount,
	})

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		b.WriteString(part.Text)
	}
	return b.String(), nil
}
