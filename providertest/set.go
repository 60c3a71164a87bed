package providertest

import (
	"github.com/jdgilhuly/just_prompt/pkg/provider"
	"github.com/jdgilhuly/just_prompt/pkg/registry"
)

// Set holds one MockProvider per registry entry.
type Set map[registry.ID]*MockProvider

// NewSet creates a MockProvider for every descriptor in reg, named after its
// full name and serving a single "<full_name>-model" model.
func NewSet(reg *registry.Registry) Set {
	s := make(Set, reg.Len())
	for _, d := range reg.Descriptors() {
		s[d.Name] = NewMockProvider(d.FullName, d.FullName+"-model")
	}
	return s
}

// Adapters returns the set as the map shape the dispatcher consumes.
func (s Set) Adapters() map[registry.ID]provider.Provider {
	out := make(map[registry.ID]provider.Provider, len(s))
	for id, m := range s {
		out[id] = m
	}
	return out
}
