package handler

import (
	"fmt"
	"sort"
	"sync"
)

// Registry holds every Handler implementation available to this runtime
// instance, matched against manifest-declared handler names at spawn time
// (spec §4.8 step 2).
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]Handler
}

// NewRegistry creates an empty handler registry.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]Handler)}
}

// Register adds h to the registry, keyed by its Name(). Registering a
// second handler under the same name replaces the first.
func (r *Registry) Register(h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.handlers[h.Name()] = h
}

// Lookup returns the registered handler for name, if any.
func (r *Registry) Lookup(name string) (Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	h, ok := r.handlers[name]
	return h, ok
}

// Names returns the sorted names of every registered handler.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// Resolve returns a fresh per-actor instance of each named handler, in the
// order requested. It fails with HandlerNotPermitted-style context if any
// name is not registered, per spec §4.8 step 2.
func (r *Registry) Resolve(names []string) ([]Handler, error) {
	resolved := make([]Handler, 0, len(names))

	for _, name := range names {
		h, ok := r.Lookup(name)
		if !ok {
			return nil, fmt.Errorf("handler %q is not registered", name)
		}

		resolved = append(resolved, h.CreateInstance())
	}

	return resolved, nil
}
