package task

import (
	"cmp"
	"fmt"
	"slices"
	"sync"
)

// Registry maps task identifiers and aliases to definitions.
type Registry struct {
	mu      sync.RWMutex
	defs    map[string]Definition
	aliases map[string]string
}

func NewRegistry() *Registry {
	return &Registry{
		defs:    make(map[string]Definition),
		aliases: make(map[string]string),
	}
}

// Register adds def. Identifiers and aliases share one namespace.
func (r *Registry) Register(def Definition) error {
	if err := def.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.taken(def.ID) {
		return fmt.Errorf("task %s is already registered", def.ID)
	}
	for _, alias := range def.Aliases {
		if alias == def.ID || r.taken(alias) {
			return fmt.Errorf("task alias %s is already registered", alias)
		}
	}
	r.defs[def.ID] = def
	for _, alias := range def.Aliases {
		r.aliases[alias] = def.ID
	}
	return nil
}

// MustRegister is Register for static catalogs.
func (r *Registry) MustRegister(defs ...Definition) {
	for _, def := range defs {
		if err := r.Register(def); err != nil {
			panic(err)
		}
	}
}

func (r *Registry) taken(key string) bool {
	if _, ok := r.defs[key]; ok {
		return true
	}
	_, ok := r.aliases[key]
	return ok
}

// Lookup resolves an identifier or alias.
func (r *Registry) Lookup(id string) (Definition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if def, ok := r.defs[id]; ok {
		return def, true
	}
	if canonical, ok := r.aliases[id]; ok {
		def, found := r.defs[canonical]
		return def, found
	}
	return Definition{}, false
}

// List returns all definitions sorted by identifier.
func (r *Registry) List() []Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Definition, 0, len(r.defs))
	for _, def := range r.defs {
		out = append(out, def)
	}
	slices.SortFunc(out, func(a, b Definition) int {
		return cmp.Compare(a.ID, b.ID)
	})
	return out
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.defs)
}
