package materials

import (
	"fmt"
	"sort"
	"sync"
)

// Registry is a by-name material catalog satisfying the LookupByName
// contract. The tracer only needs the lookup function; the storage is a
// convenience for system (de)serialization.
type Registry struct {
	mu   sync.RWMutex
	byID map[string]Material
}

// NewRegistry creates a registry pre-loaded with "air"
func NewRegistry() *Registry {
	r := &Registry{byID: make(map[string]Material)}
	r.byID["air"] = Air{}
	return r
}

// Register adds or replaces a named material
func (r *Registry) Register(name string, m Material) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[name] = m
}

// Get resolves a material by name
func (r *Registry) Get(name string) (Material, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.byID[name]
	if !ok {
		return nil, fmt.Errorf("materials: unknown material %q", name)
	}
	return m, nil
}

// Names lists registered materials in sorted order
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.byID))
	for name := range r.byID {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
