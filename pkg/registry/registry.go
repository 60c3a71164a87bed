// Package registry holds the fixed table of LLM providers and resolves
// user-supplied provider tokens (full names or one-letter aliases) to it.
package registry

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// ID is the canonical upper-case identifier of a provider (e.g. "OPENAI").
type ID string

// Provider IDs for the built-in table.
const (
	OpenAI    ID = "OPENAI"
	Anthropic ID = "ANTHROPIC"
	Gemini    ID = "GEMINI"
	Groq      ID = "GROQ"
	DeepSeek  ID = "DEEPSEEK"
	Ollama    ID = "OLLAMA"
)

// Descriptor describes one provider and the tokens that select it.
type Descriptor struct {
	Name      ID     `json:"name" yaml:"name"`
	FullName  string `json:"full_name" yaml:"full_name"`
	ShortName string `json:"short_name" yaml:"short_name"`
}

// ErrUnknownProvider is matched by every *UnknownProviderError.
var ErrUnknownProvider = errors.New("unknown provider")

// UnknownProviderError reports a token that matches no descriptor.
type UnknownProviderError struct {
	Token string
	Valid []string
}

func (e *UnknownProviderError) Error() string {
	return fmt.Sprintf("unknown provider %q (valid: %s)", e.Token, strings.Join(e.Valid, ", "))
}

// Is reports whether target is ErrUnknownProvider.
func (e *UnknownProviderError) Is(target error) bool { return target == ErrUnknownProvider }

// Registry is an immutable, ordered set of provider descriptors.
// It is safe for concurrent use.
type Registry struct {
	descs   []Descriptor
	byFull  map[string]int
	byShort map[string]int
}

var defaultDescriptors = []Descriptor{
	{Name: OpenAI, FullName: "openai", ShortName: "o"},
	{Name: Anthropic, FullName: "anthropic", ShortName: "a"},
	{Name: Gemini, FullName: "gemini", ShortName: "g"},
	{Name: Groq, FullName: "groq", ShortName: "q"},
	{Name: DeepSeek, FullName: "deepseek", ShortName: "d"},
	{Name: Ollama, FullName: "ollama", ShortName: "l"},
}

// Default returns the registry of the six built-in providers.
func Default() *Registry {
	r, err := New(defaultDescriptors...)
	if err != nil {
		panic(fmt.Sprintf("registry: invalid built-in table: %v", err))
	}
	return r
}

// New builds a Registry from descs, preserving their order. Every alias must
// be unique across the whole table; new providers need an explicitly chosen
// short name rather than their first letter.
func New(descs ...Descriptor) (*Registry, error) {
	r := &Registry{
		descs:   make([]Descriptor, 0, len(descs)),
		byFull:  make(map[string]int, len(descs)),
		byShort: make(map[string]int, len(descs)),
	}
	names := make(map[ID]bool, len(descs))

	var errs []error
	for i, d := range descs {
		switch {
		case d.Name == "":
			errs = append(errs, fmt.Errorf("descriptor %d: name is required", i))
			continue
		case string(d.Name) != strings.ToUpper(string(d.Name)):
			errs = append(errs, fmt.Errorf("descriptor %q: name must be upper-case", d.Name))
		case names[d.Name]:
			errs = append(errs, fmt.Errorf("descriptor %q: duplicate name", d.Name))
		}
		names[d.Name] = true

		full := strings.ToLower(d.FullName)
		if full == "" {
			errs = append(errs, fmt.Errorf("descriptor %q: full_name is required", d.Name))
		} else if _, dup := r.byFull[full]; dup {
			errs = append(errs, fmt.Errorf("descriptor %q: duplicate full_name %q", d.Name, full))
		}

		short := strings.ToLower(d.ShortName)
		if utf8.RuneCountInString(short) != 1 {
			errs = append(errs, fmt.Errorf("descriptor %q: short_name %q must be exactly one character", d.Name, d.ShortName))
		} else if _, dup := r.byShort[short]; dup {
			errs = append(errs, fmt.Errorf("descriptor %q: duplicate short_name %q", d.Name, short))
		}

		r.byFull[full] = i
		r.byShort[short] = i
		r.descs = append(r.descs, Descriptor{Name: d.Name, FullName: full, ShortName: short})
	}

	for short := range r.byShort {
		if _, clash := r.byFull[short]; clash {
			errs = append(errs, fmt.Errorf("short_name %q collides with a full_name", short))
		}
	}

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return r, nil
}

// Descriptors returns the table in registration order.
func (r *Registry) Descriptors() []Descriptor {
	out := make([]Descriptor, len(r.descs))
	copy(out, r.descs)
	return out
}

// Len returns the number of registered providers.
func (r *Registry) Len() int { return len(r.descs) }

// Resolve maps a token to its descriptor. Full names are tried first, then
// short names; the comparison is case-insensitive and otherwise exact, so
// surrounding whitespace does not match.
func (r *Registry) Resolve(token string) (Descriptor, error) {
	t := strings.ToLower(token)
	if i, ok := r.byFull[t]; ok {
		return r.descs[i], nil
	}
	if i, ok := r.byShort[t]; ok {
		return r.descs[i], nil
	}
	return Descriptor{}, &UnknownProviderError{Token: token, Valid: r.validTokens()}
}

// Lookup returns the descriptor registered under id.
func (r *Registry) Lookup(id ID) (Descriptor, bool) {
	for _, d := range r.descs {
		if d.Name == id {
			return d, true
		}
	}
	return Descriptor{}, false
}

func (r *Registry) validTokens() []string {
	out := make([]string, len(r.descs))
	for i, d := range r.descs {
		out[i] = fmt.Sprintf("%s (%s)", d.FullName, d.ShortName)
	}
	return out
}
