// Package provider provides an abstraction over external model providers.
package provider

import (
	"context"
	"sync"

	"github.com/modelgate/modelgate/internal/domain"
)

// CompletionRequest is the provider-neutral completion request. The
// gateway and router depend only on this shape, never on vendor wire
// formats.
type CompletionRequest struct {
	Model          string
	Messages       []domain.Message
	Tools          []domain.ToolDef
	ToolChoice     interface{}
	ResponseFormat map[string]interface{}
	MaxTokens      *int
	Temperature    *float64
}

// CompletionResult is the canonical completion response.
type CompletionResult struct {
	Content      string
	ToolCalls    []domain.ToolCall
	FinishReason string
	Usage        domain.Usage
	Model        string
}

// Adapter is the contract every provider adapter implements.
type Adapter interface {
	// Name returns the provider identifier used in routes.
	Name() string

	// Complete sends a completion request.
	Complete(ctx context.Context, req *CompletionRequest) (*CompletionResult, error)

	// IsAvailable reports whether the adapter can take traffic, e.g.
	// whether credentials are loaded.
	IsAvailable() bool

	// AvailableModels retrieves the list of models the provider serves.
	AvailableModels(ctx context.Context) ([]string, error)
}

// Registry maps provider names to adapters.
type Registry struct {
	mu       sync.RWMutex
	adapters map[string]Adapter
}

// NewRegistry creates an empty adapter registry.
func NewRegistry() *Registry {
	return &Registry{adapters: make(map[string]Adapter)}
}

// Register adds or replaces an adapter under its name.
func (r *Registry) Register(a Adapter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.adapters[a.Name()] = a
}

// Get returns the adapter registered under name.
func (r *Registry) Get(name string) (Adapter, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.adapters[name]
	return a, ok
}

// IsAvailable reports whether a provider is registered and available.
func (r *Registry) IsAvailable(name string) bool {
	a, ok := r.Get(name)
	return ok && a.IsAvailable()
}

// Names returns the registered provider names.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.adapters))
	for name := range r.adapters {
		names = append(names, name)
	}
	return names
}
