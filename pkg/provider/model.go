package provider

import (
	"strconv"
	"strings"
)

const (
	minThinkingBudget = 1024
	maxThinkingBudget = 16000
)

// ParseModelSuffix splits "base:suffix" at the last colon. A model without
// a colon is returned whole with an empty suffix.
func ParseModelSuffix(model string) (base, suffix string) {
	i := strings.LastIndex(model, ":")
	if i <= 0 || i == len(model)-1 {
		return model, ""
	}
	return model[:i], model[i+1:]
}

// reasoningEffort extracts an OpenAI reasoning effort suffix such as
// "o3-mini:high". Unrecognized suffixes stay part of the model name.
func reasoningEffort(model string) (base, effort string) {
	b, s := ParseModelSuffix(model)
	switch strings.ToLower(s) {
	case "low", "medium", "high":
		return b, strings.ToLower(s)
	}
	return model, ""
}

// thinkingBudget extracts an Anthropic extended-thinking budget suffix such
// as "claude-3-7-sonnet-20250219:4k" (4096 tokens) or ":8000". The budget is
// clamped to the range the Messages API accepts.
func thinkingBudget(model string) (base string, budget int) {
	b, s := ParseModelSuffix(model)
	if s == "" {
		return model, 0
	}

	s = strings.ToLower(s)
	mult := 1
	if strings.HasSuffix(s, "k") {
		mult = 1024
		s = strings.TrimSuffix(s, "k")
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return model, 0
	}

	if n > maxThinkingBudget {
		n = maxThinkingBudget
	}
	budget = n * mult
	if budget < minThinkingBudget {
		budget = minThinkingBudget
	}
	if budget > maxThinkingBudget {
		budget = maxThinkingBudget
	}
	return b, budget
}
