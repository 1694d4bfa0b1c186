package ranking

import (
	"sync"
)

// Constructor builds a fresh Strategy instance.
type Constructor func() Strategy

// Registry maps algorithm names to strategy constructors.
// It is safe for concurrent lookups and registrations.
type Registry struct {
	mu           sync.RWMutex
	constructors map[string]Constructor
	order        []string
}

// NewRegistry returns a registry preloaded with text_search and fuzzy_search.
func NewRegistry() *Registry {
	r := &Registry{constructors: make(map[string]Constructor)}
	r.Register(TextSearchName, NewTextSearch)
	r.Register(FuzzySearchName, NewFuzzySearch)
	return r
}

// Register adds or replaces the constructor for name.
func (r *Registry) Register(name string, ctor Constructor) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.constructors[name]; !exists {
		r.order = append(r.order, name)
	}
	r.constructors[name] = ctor
}

// Get returns the strategy registered under name, or text_search for an
// unknown name.
func (r *Registry) Get(name string) Strategy {
	r.mu.RLock()
	ctor, ok := r.constructors[name]
	if !ok {
		ctor, ok = r.constructors[TextSearchName]
	}
	r.mu.RUnlock()

	if !ok {
		return NewTextSearch()
	}
	return ctor()
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.constructors[name]
	return ok
}

// List returns registered names in registration order.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, len(r.order))
	copy(names, r.order)
	return names
}
