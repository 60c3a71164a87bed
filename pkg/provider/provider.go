package provider

import "context"

// Provider defines the interface for LLM API backends.
type Provider interface {
	// ListModels returns the model identifiers the vendor currently serves.
	ListModels(ctx context.Context) ([]string, error)

	// Prompt sends text to the named model and returns the primary
	// completion text unmodified.
	Prompt(ctx context.Context, text, model string) (string, error)

	// Name returns the provider identifier (e.g. "anthropic").
	Name() string
}

// Usage tracks token consumption for a single request.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}
