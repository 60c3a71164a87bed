// Package dispatch resolves provider tokens against a registry and routes
// model listing and prompt requests to the matching adapter.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jdgilhuly/just_prompt/pkg/provider"
	"github.com/jdgilhuly/just_prompt/pkg/registry"
)

// ErrEmptyPrompt is returned when a prompt has no text.
var ErrEmptyPrompt = errors.New("prompt text is empty")

const defaultConcurrency = 4

// ProgressFunc is called after each model in a fan-out completes. Index is
// the 0-based completion count, total is the number of models. It may be
// called from several goroutines at once.
type ProgressFunc func(index, total int, ref ModelRef, elapsed time.Duration, err error)

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithLogger sets the logger used for resolution and adapter failures.
func WithLogger(l *slog.Logger) Option {
	return func(d *Dispatcher) {
		if l != nil {
			d.logger = l
		}
	}
}

// WithConcurrency bounds how many models Prompt calls at once.
func WithConcurrency(n int) Option {
	return func(d *Dispatcher) {
		if n > 0 {
			d.concurrency = n
		}
	}
}

// WithDefaultModels sets the "provider:model" refs Prompt uses when none are
// given.
func WithDefaultModels(refs ...string) Option {
	return func(d *Dispatcher) {
		d.defaultModels = append([]string(nil), refs...)
	}
}

// WithTimeout bounds each adapter call made by Prompt. Zero means no limit
// beyond the caller's context.
func WithTimeout(t time.Duration) Option {
	return func(d *Dispatcher) { d.timeout = t }
}

// WithProgress registers a callback invoked as each fan-out call finishes.
func WithProgress(fn ProgressFunc) Option {
	return func(d *Dispatcher) { d.progress = fn }
}

// Dispatcher is the public façade over the registry and adapters. It holds
// no mutable state after construction and is safe for concurrent use.
type Dispatcher struct {
	reg      *registry.Registry
	adapters map[registry.ID]provider.Provider

	logger        *slog.Logger
	concurrency   int
	defaultModels []string
	timeout       time.Duration
	progress      ProgressFunc
}

// New creates a Dispatcher. Every registry entry must have an adapter.
func New(reg *registry.Registry, adapters map[registry.ID]provider.Provider, opts ...Option) (*Dispatcher, error) {
	if reg == nil {
		return nil, errors.New("dispatch: registry is nil")
	}

	d := &Dispatcher{
		reg:         reg,
		adapters:    make(map[registry.ID]provider.Provider, len(adapters)),
		logger:      slog.Default(),
		concurrency: defaultConcurrency,
	}
	for _, opt := range opts {
		opt(d)
	}

	var errs []error
	for _, desc := range reg.Descriptors() {
		a, ok := adapters[desc.Name]
		if !ok || a == nil {
			errs = append(errs, fmt.Errorf("no adapter for provider %s", desc.FullName))
			continue
		}
		d.adapters[desc.Name] = a
	}
	for id := range adapters {
		if _, ok := reg.Lookup(id); !ok {
			errs = append(errs, fmt.Errorf("adapter for unregistered provider %s", id))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("dispatch: %w", err)
	}

	return d, nil
}

// ListProviders returns every registered provider in registry order.
func (d *Dispatcher) ListProviders() []registry.Descriptor {
	return d.reg.Descriptors()
}

// resolve maps a token to its descriptor and adapter.
func (d *Dispatcher) resolve(token string) (registry.Descriptor, provider.Provider, error) {
	desc, err := d.reg.Resolve(token)
	if err != nil {
		return registry.Descriptor{}, nil, err
	}
	d.logger.Debug("resolved provider", "token", token, "provider", desc.FullName)
	return desc, d.adapters[desc.Name], nil
}

// ListModels returns the models offered by the provider named by token.
// An unknown token fails before any adapter is called; adapter errors are
// returned unchanged.
func (d *Dispatcher) ListModels(ctx context.Context, token string) ([]string, error) {
	desc, a, err := d.resolve(token)
	if err != nil {
		return nil, err
	}

	models, err := a.ListModels(ctx)
	if err != nil {
		d.logger.Warn("listing models failed", "provider", desc.FullName, "error", err)
		return nil, err
	}
	return models, nil
}

// SendPrompt sends text to model on the provider named by token and returns
// the completion. An unknown token fails before any adapter is called;
// adapter errors are returned unchanged.
func (d *Dispatcher) SendPrompt(ctx context.Context, token, text, model string) (string, error) {
	if text == "" {
		return "", ErrEmptyPrompt
	}

	desc, a, err := d.resolve(token)
	if err != nil {
		return "", err
	}

	out, err := a.Prompt(ctx, text, model)
	if err != nil {
		d.logger.Warn("prompt failed", "provider", desc.FullName, "model", model, "error", err)
		return "", err
	}
	return out, nil
}
