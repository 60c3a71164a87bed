// Package providertest provides in-memory provider.Provider implementations
// for tests of code that dispatches to LLM vendors.
package providertest

import (
	"context"
	"fmt"
	"sync"

	"github.com/jdgilhuly/just_prompt/pkg/provider"
)

// Call records one Prompt invocation.
type Call struct {
	Text  string
	Model string
}

// MockProvider is a provider with canned models and responses. Responses
// are keyed by model; a model without an entry gets DefaultResponse. It is
// safe for concurrent use.
type MockProvider struct {
	name string

	mu              sync.Mutex
	models          []string
	responses       map[string]string
	defaultResponse string
	listErr         error
	promptErr       error
	calls           []Call
	listCalls       int
}

// NewMockProvider creates a MockProvider reporting the given name and models.
func NewMockProvider(name string, models ...string) *MockProvider {
	return &MockProvider{
		name:      name,
		models:    models,
		responses: make(map[string]string),
	}
}

// WithResponse sets the completion returned for model.
func (m *MockProvider) WithResponse(model, response string) *MockProvider {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[model] = response
	return m
}

// WithDefaultResponse sets the completion returned for models without an
// explicit response.
func (m *MockProvider) WithDefaultResponse(response string) *MockProvider {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.defaultResponse = response
	return m
}

// FailList makes ListModels return err.
func (m *MockProvider) FailList(err error) *MockProvider {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listErr = err
	return m
}

// FailPrompt makes Prompt return err.
func (m *MockProvider) FailPrompt(err error) *MockProvider {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.promptErr = err
	return m
}

// ListModels returns the configured models or the configured error.
func (m *MockProvider) ListModels(ctx context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listCalls++
	if m.listErr != nil {
		return nil, m.listErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]string, len(m.models))
	copy(out, m.models)
	return out, nil
}

// Prompt records the call and returns the configured response.
func (m *MockProvider) Prompt(ctx context.Context, text, model string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, Call{Text: text, Model: model})
	if m.promptErr != nil {
		return "", m.promptErr
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if r, ok := m.responses[model]; ok {
		return r, nil
	}
	if m.defaultResponse != "" {
		return m.defaultResponse, nil
	}
	return "", fmt.Errorf("mock provider %s: no response configured for model %q", m.name, model)
}

// Name returns the configured provider name.
func (m *MockProvider) Name() string { return m.name }

// Calls returns a copy of all recorded Prompt calls.
func (m *MockProvider) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Call, len(m.calls))
	copy(out, m.calls)
	return out
}

// ListCalls returns how many times ListModels was invoked.
func (m *MockProvider) ListCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.listCalls
}

// EchoProvider returns the prompt text unchanged for any model.
type EchoProvider struct{ ProviderName string }

// ListModels returns a single "echo" model.
func (EchoProvider) ListModels(context.Context) ([]string, error) { return []string{"echo"}, nil }

// Prompt returns text.
func (EchoProvider) Prompt(_ context.Context, text, _ string) (string, error) { return text, nil }

// Name returns the configured name, or "echo".
func (e EchoProvider) Name() string {
	if e.ProviderName == "" {
		return "echo"
	}
	return e.ProviderName
}

var (
	_ provider.Provider = (*MockProvider)(nil)
	_ provider.Provider = EchoProvider{}
)
