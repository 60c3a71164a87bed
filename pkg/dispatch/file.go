package dispatch

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/jdgilhuly/just_prompt/pkg/prompt"
	"github.com/jdgilhuly/just_prompt/pkg/result"
)

// loadPrompt reads and renders the prompt at path. When refs is empty the
// file's own models are used, then the dispatcher defaults. A blank file is
// rejected with ErrEmptyPrompt.
func (d *Dispatcher) loadPrompt(path string, refs []string) (string, []string, error) {
	tmpl, err := prompt.Load(path)
	if err != nil {
		return "", nil, err
	}
	if err := tmpl.Validate(); err != nil {
		return "", nil, fmt.Errorf("%w: %w", ErrEmptyPrompt, err)
	}
	text, err := tmpl.Render(nil)
	if err != nil {
		return "", nil, err
	}
	if len(refs) == 0 {
		refs = tmpl.Models
	}
	return text, refs, nil
}

// PromptFromFile reads the prompt at path and sends it to every model in
// refs. See Prompt for ordering and failure semantics.
func (d *Dispatcher) PromptFromFile(ctx context.Context, path string, refs []string) ([]string, error) {
	text, refs, err := d.loadPrompt(path, refs)
	if err != nil {
		return nil, err
	}
	return d.Prompt(ctx, text, refs)
}

// PromptFromFileToFile runs PromptFromFile and writes each completion to
// outDir as "<stem>_<provider>_<model>.md", where stem is the prompt file's
// base name without extension. Refs naming the same provider and model are
// sent once. It returns the written paths in the order of first appearance.
// Nothing is written unless every model succeeds.
func (d *Dispatcher) PromptFromFileToFile(ctx context.Context, path string, refs []string, outDir string) ([]string, error) {
	text, refs, err := d.loadPrompt(path, refs)
	if err != nil {
		return nil, err
	}
	parsed, err := d.ParseModelRefs(refs)
	if err != nil {
		return nil, err
	}

	var (
		raw     []string
		targets []result.Response
	)
	seen := make(map[string]bool, len(parsed))
	for _, ref := range parsed {
		desc, err := d.reg.Resolve(ref.Provider)
		if err != nil {
			return nil, err
		}
		key := desc.FullName + ":" + ref.Model
		if seen[key] {
			continue
		}
		seen[key] = true
		raw = append(raw, ref.String())
		targets = append(targets, result.Response{Provider: desc.FullName, Model: ref.Model})
	}

	responses, err := d.Prompt(ctx, text, raw)
	if err != nil {
		return nil, err
	}

	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	paths := make([]string, len(targets))
	for i, r := range targets {
		r.Text = responses[i]
		p, err := result.WriteResponse(outDir, stem, r)
		if err != nil {
			return nil, fmt.Errorf("saving %s response: %w", raw[i], err)
		}
		paths[i] = p
	}
	return paths, nil
}
