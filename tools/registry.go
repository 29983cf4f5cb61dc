package tools

import (
	"sort"

	"github.com/derek2403/token2049/core"
)

// Registry holds the function definitions advertised to the model.
type Registry struct {
	defs map[string]core.ToolDefinition
}

// NewRegistry creates a registry from the given definitions.
// Later definitions replace earlier ones with the same name.
func NewRegistry(defs ...core.ToolDefinition) *Registry {
	r := &Registry{defs: make(map[string]core.ToolDefinition, len(defs))}
	for _, d := range defs {
		r.defs[d.ToolName] = d
	}
	return r
}

// DefaultRegistry returns a registry with the Celo payment functions.
func DefaultRegistry() *Registry {
	return NewRegistry(CeloToolDefinitions()...)
}

// Get looks up a definition by name.
func (r *Registry) Get(name string) (core.ToolDefinition, bool) {
	d, ok := r.defs[name]
	return d, ok
}

// Definitions returns every definition sorted by name.
func (r *Registry) Definitions() []core.ToolDefinition {
	out := make([]core.ToolDefinition, 0, len(r.defs))
	for _, d := range r.defs {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ToolName < out[j].ToolName })
	return out
}
