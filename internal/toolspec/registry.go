package toolspec

import (
	"sort"
	"sync"
)

// Registry holds the set of registered tools and advertises the subset
// available given a serving environment's dependency set and chat mode.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Tool
	// deps lists external collaborators available in this serving
	// environment (e.g. "ast", "vecdb"). A tool whose DependsOn() is not a
	// subset of deps is filtered out of Available/Advertise.
	deps map[string]struct{}
}

// NewRegistry constructs a Registry for the given set of available
// dependency names.
func NewRegistry(availableDeps ...string) *Registry {
	deps := make(map[string]struct{}, len(availableDeps))
	for _, d := range availableDeps {
		deps[d] = struct{}{}
	}
	return &Registry{tools: make(map[string]Tool), deps: deps}
}

// Register adds (or replaces) a tool under its Description().Name.
func (r *Registry) Register(t Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools[t.Description().Name] = t
}

// Get looks up a tool by name regardless of dependency availability.
func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	return t, ok
}

// satisfied reports whether every dependency t requires is present.
func (r *Registry) satisfied(t Tool) bool {
	for _, d := range t.DependsOn() {
		if _, ok := r.deps[d]; !ok {
			return false
		}
	}
	return true
}

// AdvertiseOptions controls which tools Advertise returns.
type AdvertiseOptions struct {
	// AllowAgentic includes tools marked Agentic (side-effecting). Read-only
	// chat modes set this to false to hide them.
	AllowAgentic bool
	// IncludeExperimental includes tools marked Experimental. Defaults to
	// hidden unless explicitly requested.
	IncludeExperimental bool
}

// Available returns the tools whose dependencies are all satisfied, sorted
// by name for deterministic advertisement order.
func (r *Registry) Available() []Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Tool, 0, len(r.tools))
	for _, t := range r.tools {
		if r.satisfied(t) {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Description().Name < out[j].Description().Name
	})
	return out
}

// Advertise returns the ToolDesc list a model endpoint should see: dependency
// filtering plus agentic/experimental visibility rules (spec §4.2).
func (r *Registry) Advertise(opts AdvertiseOptions) []ToolDesc {
	var out []ToolDesc
	for _, t := range r.Available() {
		desc := t.Description()
		if desc.Agentic && !opts.AllowAgentic {
			continue
		}
		if desc.Experimental && !opts.IncludeExperimental {
			continue
		}
		out = append(out, desc)
	}
	return out
}
