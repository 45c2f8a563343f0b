package ai

import (
	"context"
	"strings"
)

// Router resolves a model identifier to a configured provider.
//
// Models carrying a vendor prefix ("openai/gpt-3.5-turbo",
// "anthropic/claude-3-haiku") are served through OpenRouter. Bare model names
// go to the configured local provider ("openai" or "ollama").
type Router struct {
	reg          *Registry
	localName    string
	defaultModel string
}

func NewRouter(reg *Registry, localProvider, defaultModel string) *Router {
	if localProvider == "" {
		localProvider = "openai"
	}
	return &Router{reg: reg, localName: localProvider, defaultModel: defaultModel}
}

// DefaultModel returns the model used when a request names none.
func (r *Router) DefaultModel() string { return r.defaultModel }

// ForModel returns a provider for the given model, falling back to the
// default model when empty.
func (r *Router) ForModel(ctx context.Context, model string) (Provider, error) {
	m := strings.TrimSpace(model)
	if m == "" {
		m = r.defaultModel
	}
	if strings.Contains(m, "/") {
		return r.reg.Get(ctx, "openrouter", m)
	}
	return r.reg.Get(ctx, r.localName, m)
}
