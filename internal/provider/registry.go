package provider

import (
	"fmt"
	"sort"
	"sync"
)

// Factory creates a configured provider client.
type Factory func(cfg Config) (Client, error)

// Registry holds provider factories and caches built instances. Selection is
// a pure lookup by name.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
	configs   map[string]Config
	cache     map[string]Client
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]Factory),
		configs:   make(map[string]Config),
		cache:     make(map[string]Client),
	}
}

// Register installs a factory and its configuration for a provider name.
// Called at startup for each configured provider.
func (r *Registry) Register(name string, cfg Config, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = factory
	r.configs[name] = cfg
}

// Get returns the client for a provider name, building and caching it on
// first use. Unknown names yield ErrUnknownProvider.
func (r *Registry) Get(name string) (Client, error) {
	r.mu.RLock()
	if c, ok := r.cache[name]; ok {
		r.mu.RUnlock()
		return c, nil
	}
	r.mu.RUnlock()

	r.mu.Lock()
	defer r.mu.Unlock()

	// Double-check after acquiring the write lock
	if c, ok := r.cache[name]; ok {
		return c, nil
	}
	factory, ok := r.factories[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, name)
	}
	client, err := factory(r.configs[name])
	if err != nil {
		return nil, fmt.Errorf("build provider %s: %w", name, err)
	}
	r.cache[name] = client
	return client, nil
}

// Names returns the registered provider names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
