package ai

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// ProviderFactory builds a Provider bound to one model identifier.
type ProviderFactory func(ctx context.Context, model string) (Provider, error)

// Registry maps provider names ("openai", "openrouter", "ollama") to the
// factories that construct them. Names are case-insensitive.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]ProviderFactory
}

func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]ProviderFactory)}
}

func providerKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Register adds or replaces the factory for name.
func (r *Registry) Register(name string, f ProviderFactory) {
	r.mu.Lock()
	r.factories[providerKey(name)] = f
	r.mu.Unlock()
}

// Get builds a provider for model through the named factory.
func (r *Registry) Get(ctx context.Context, name, model string) (Provider, error) {
	r.mu.RLock()
	f, ok := r.factories[providerKey(name)]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("ai: no provider registered under %q", name)
	}
	return f(ctx, model)
}
