package provider

import "log/slog"

// modelPricing holds per-million-token pricing for known models.
type modelPricing struct {
	InputPerMillion  float64
	OutputPerMillion float64
}

// pricing maps model identifiers to their token costs in USD.
var pricing = map[string]modelPricing{
	// Claude 3 family
	"claude-3-opus-20240229":  {InputPerMillion: 15.0, OutputPerMillion: 75.0},
	"claude-3-haiku-20240307": {InputPerMillion: 0.25, OutputPerMillion: 1.25},

	// Claude 3.5 / 3.7 family
	"claude-3-5-sonnet-20241022": {InputPerMillion: 3.0, OutputPerMillion: 15.0},
	"claude-3-5-haiku-20241022":  {InputPerMillion: 0.80, OutputPerMillion: 4.0},
	"claude-3-7-sonnet-20250219": {InputPerMillion: 3.0, OutputPerMillion: 15.0},

	// Claude 4 family
	"claude-sonnet-4-5-20250929": {InputPerMillion: 3.0, OutputPerMillion: 15.0},
	"claude-opus-4-6":            {InputPerMillion: 15.0, OutputPerMillion: 75.0},

	// OpenAI GPT-4o family
	"gpt-4o":      {InputPerMillion: 2.50, OutputPerMillion: 10.0},
	"gpt-4o-mini": {InputPerMillion: 0.15, OutputPerMillion: 0.60},

	// OpenAI o-series
	"o1":      {InputPerMillion: 15.0, OutputPerMillion: 60.0},
	"o1-mini": {InputPerMillion: 3.0, OutputPerMillion: 12.0},
	"o3-mini": {InputPerMillion: 1.10, OutputPerMillion: 4.40},

	// Gemini
	"gemini-1.5-flash": {InputPerMillion: 0.075, OutputPerMillion: 0.30},
	"gemini-1.5-pro":   {InputPerMillion: 1.25, OutputPerMillion: 5.0},
	"gemini-2.0-flash": {InputPerMillion: 0.10, OutputPerMillion: 0.40},

	// Groq
	"llama-3.3-70b-versatile": {InputPerMillion: 0.59, OutputPerMillion: 0.79},
	"llama-3.1-8b-instant":    {InputPerMillion: 0.05, OutputPerMillion: 0.08},

	// DeepSeek
	"deepseek-chat":     {InputPerMillion: 0.27, OutputPerMillion: 1.10},
	"deepseek-reasoner": {InputPerMillion: 0.55, OutputPerMillion: 2.19},
}

// EstimateCost returns the estimated USD cost for the given model and usage.
// Returns 0 if the model is not in the pricing table; local Ollama models
// are never priced.
func EstimateCost(model string, usage Usage) float64 {
	p, ok := pricing[model]
	if !ok {
		return 0
	}
	inputCost := float64(usage.InputTokens) / 1_000_000 * p.InputPerMillion
	outputCost := float64(usage.OutputTokens) / 1_000_000 * p.OutputPerMillion
	return inputCost + outputCost
}

func logUsage(l *slog.Logger, provider, model string, u Usage) {
	l.Debug("provider usage",
		slog.String("provider", provider),
		slog.String("model", model),
		slog.Int("input_tokens", u.InputTokens),
		slog.Int("output_tokens", u.OutputTokens),
		slog.Float64("estimated_cost_usd", EstimateCost(model, u)),
	)
}
