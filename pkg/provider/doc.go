// Package provider defines the two-operation contract every LLM vendor
// adapter honors (list models, send a prompt) and one implementation per
// supported vendor: OpenAI, Anthropic, Gemini, Groq, DeepSeek and Ollama.
package provider
