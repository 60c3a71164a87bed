package dispatch

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// ErrInvalidModelRef is returned for a model reference not of the form
// "provider:model".
var ErrInvalidModelRef = errors.New("invalid model reference")

// ModelRef names a model on a provider, written "provider:model". The
// provider part is any token the registry resolves.
type ModelRef struct {
	Provider string `json:"provider"`
	Model    string `json:"model"`
}

func (r ModelRef) String() string { return r.Provider + ":" + r.Model }

// ParseModelRef splits s on its first ':'. The model part keeps any further
// colons, so "o:o3-mini:high" and "l:gemma3:12b" parse as expected.
func ParseModelRef(s string) (ModelRef, error) {
	prov, model, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok || prov == "" || model == "" {
		return ModelRef{}, fmt.Errorf("%w %q: want provider:model", ErrInvalidModelRef, s)
	}
	return ModelRef{Provider: prov, Model: model}, nil
}

// ParseModelRefs parses every ref and validates its provider against the
// registry, so a bad entry fails before any request is sent.
func (d *Dispatcher) ParseModelRefs(refs []string) ([]ModelRef, error) {
	if len(refs) == 0 {
		refs = d.defaultModels
	}
	if len(refs) == 0 {
		return nil, fmt.Errorf("%w: no models given and no defaults configured", ErrInvalidModelRef)
	}

	out := make([]ModelRef, len(refs))
	for i, s := range refs {
		ref, err := ParseModelRef(s)
		if err != nil {
			return nil, err
		}
		if _, err := d.reg.Resolve(ref.Provider); err != nil {
			return nil, err
		}
		out[i] = ref
	}
	return out, nil
}

// Prompt sends text to every model in refs concurrently and returns the
// completions in the order of refs. If any call fails the remaining calls
// are cancelled and the first error is returned. Empty refs fall back to
// the default models.
func (d *Dispatcher) Prompt(ctx context.Context, text string, refs []string) ([]string, error) {
	if text == "" {
		return nil, ErrEmptyPrompt
	}
	parsed, err := d.ParseModelRefs(refs)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	out := make([]string, len(parsed))

	var mu sync.Mutex
	var completed int

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.concurrency)
	for i, ref := range parsed {
		g.Go(func() error {
			callCtx := gctx
			if d.timeout > 0 {
				var cancel context.CancelFunc
				callCtx, cancel = context.WithTimeout(gctx, d.timeout)
				defer cancel()
			}

			resp, err := d.SendPrompt(callCtx, ref.Provider, text, ref.Model)
			if d.progress != nil {
				mu.Lock()
				completed++
				current := completed
				mu.Unlock()
				d.progress(current-1, len(parsed), ref, time.Since(start), err)
			}
			if err != nil {
				return fmt.Errorf("%s: %w", ref, err)
			}
			out[i] = resp
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
