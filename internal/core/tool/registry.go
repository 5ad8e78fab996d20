package tool

import (
	"fmt"
	"sort"
	"sync"
)

// Params is a stage's free-form tool configuration.
type Params map[string]any

// Factory constructs a tool from its stage parameters.
type Factory func(Params) (Tool, error)

// Registry maps tool keys to factories.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: map[string]Factory{}}
}

// Register installs a tool factory. Returns an error if the key already exists.
func (r *Registry) Register(key string, factory Factory) error {
	if key == "" {
		return fmt.Errorf("tool: key is required")
	}
	if factory == nil {
		return fmt.Errorf("tool: factory is required for %s", key)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.factories[key]; exists {
		return fmt.Errorf("tool: %s already registered", key)
	}
	r.factories[key] = factory
	return nil
}

// MustRegister panics if registration fails.
func (r *Registry) MustRegister(key string, factory Factory) {
	if err := r.Register(key, factory); err != nil {
		panic(err)
	}
}

// Resolve constructs a new tool instance for key.
func (r *Registry) Resolve(key string, params Params) (Tool, error) {
	r.mu.RLock()
	factory, ok := r.factories[key]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("tool: unknown key %q", key)
	}
	if params == nil {
		params = Params{}
	}
	t, err := factory(params)
	if err != nil {
		return nil, fmt.Errorf("tool: construct %s: %w", key, err)
	}
	if t == nil {
		return nil, fmt.Errorf("tool: factory for %s returned nil", key)
	}
	return t, nil
}

// Has reports whether key is registered.
func (r *Registry) Has(key string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.factories[key]
	return ok
}

// Keys returns a sorted list of registered tool keys.
func (r *Registry) Keys() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	keys := make([]string, 0, len(r.factories))
	for k := range r.factories {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
