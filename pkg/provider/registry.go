package provider

import (
	"fmt"
	"sort"
	"sync"
)

// RerankerFactory creates a Reranker from configuration.
type RerankerFactory func(config RerankerConfig) (Reranker, error)

// Registry holds reranker factories keyed by provider name.
type Registry struct {
	mu sync.RWMutex

	rerankerFactories map[string]RerankerFactory
}

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{
		rerankerFactories: make(map[string]RerankerFactory),
	}
}

// RegisterReranker registers a reranker factory.
func (r *Registry) RegisterReranker(name string, factory RerankerFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rerankerFactories[name] = factory
}

// CreateReranker creates a reranker by name.
func (r *Registry) CreateReranker(name string, config RerankerConfig) (Reranker, error) {
	r.mu.RLock()
	factory, ok := r.rerankerFactories[name]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("unknown reranker provider: %s (available: %v)", name, r.ListRerankers())
	}
	return factory(config)
}

// ListRerankers returns all registered reranker names, sorted.
func (r *Registry) ListRerankers() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.rerankerFactories))
	for name := range r.rerankerFactories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// HasReranker checks if a reranker is registered.
func (r *Registry) HasReranker(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.rerankerFactories[name]
	return ok
}

// DefaultRegistry is the global default registry.
var DefaultRegistry = NewRegistry()

// RegisterReranker registers a reranker in the default registry.
func RegisterReranker(name string, factory RerankerFactory) {
	DefaultRegistry.RegisterReranker(name, factory)
}

// CreateReranker creates a reranker from the default registry.
func CreateReranker(name string, config RerankerConfig) (Reranker, error) {
	return DefaultRegistry.CreateReranker(name, config)
}
