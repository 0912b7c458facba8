package backends

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Info is the catalog entry for one registered backend.
type Info struct {
	Name         string       `json:"name"`
	Capabilities Capabilities `json:"capabilities"`
	Available    bool         `json:"available"`
	Default      bool         `json:"default"`
}

// Registry holds the registered backends and the default selection.
type Registry struct {
	mu          sync.RWMutex
	backends    map[string]Backend
	defaultName string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{backends: make(map[string]Backend)}
}

// Register adds a backend. The first registered backend becomes the
// default; SetDefault overrides.
func (r *Registry) Register(b Backend) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.backends[b.Name()] = b
	if r.defaultName == "" {
		r.defaultName = b.Name()
	}
}

// SetDefault selects the backend used when a request names none.
func (r *Registry) SetDefault(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.backends[name]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownBackend, name)
	}
	r.defaultName = name
	return nil
}

// Get resolves a backend by name; an empty name resolves the default.
func (r *Registry) Get(name string) (Backend, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if name == "" {
		name = r.defaultName
	}
	b, ok := r.backends[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, name)
	}
	return b, nil
}

// List returns the catalog sorted by name, probing availability.
func (r *Registry) List(ctx context.Context) []Info {
	r.mu.RLock()
	names := make([]string, 0, len(r.backends))
	for name := range r.backends {
		names = append(names, name)
	}
	defaultName := r.defaultName
	r.mu.RUnlock()
	sort.Strings(names)

	infos := make([]Info, 0, len(names))
	for _, name := range names {
		b, err := r.Get(name)
		if err != nil {
			continue
		}
		infos = append(infos, Info{
			Name:         name,
			Capabilities: b.Capabilities(),
			Available:    b.Available(ctx),
			Default:      name == defaultName,
		})
	}
	return infos
}
