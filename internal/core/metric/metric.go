// Package metric defines the scoring contract, its registry and the runner that
// isolates per-metric failures.
package metric

import (
	"fmt"
	"sort"
	"sync"

	"github.com/joseph-ayodele/doceval/internal/document"
)

// Metric scores a prediction against ground truth.
type Metric interface {
	// Name keys the metric's result. It must be unique within one run.
	Name() string
	// Calculate must not fail for missing ground-truth fields; it returns an
	// empty result instead. Returned errors are isolated by the Runner.
	Calculate(pred document.Prediction, gt document.GroundTruth) (Value, error)
}

// Factory constructs a metric from its parameters.
type Factory func(Params) (Metric, error)

// Registry maps metric keys to factories.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

func NewRegistry() *Registry {
	return &Registry{factories: map[string]Factory{}}
}

// Register installs a metric factory. Returns an error if the key already exists.
func (r *Registry) Register(key string, factory Factory) error {
	if key == "" {
		return fmt.Errorf("metric: key is required")
	}
	if factory == nil {
		return fmt.Errorf("metric: factory is required for %s", key)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.factories[key]; exists {
		return fmt.Errorf("metric: %s already registered", key)
	}
	r.factories[key] = factory
	return nil
}

func (r *Registry) MustRegister(key string, factory Factory) {
	if err := r.Register(key, factory); err != nil {
		panic(err)
	}
}

// Resolve constructs the metric registered under key.
func (r *Registry) Resolve(key string, params Params) (Metric, error) {
	r.mu.RLock()
	factory, ok := r.factories[key]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("metric: unknown key %q", key)
	}
	if params == nil {
		params = Params{}
	}
	m, err := factory(params)
	if err != nil {
		return nil, fmt.Errorf("metric: construct %s: %w", key, err)
	}
	if m == nil {
		return nil, fmt.Errorf("metric: factory for %s returned nil", key)
	}
	return m, nil
}

// Keys returns the registered metric keys, sorted.
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
