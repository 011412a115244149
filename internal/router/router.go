// Package router selects provider routes and owns retry/backoff timing.
package router

import (
	"context"
	"fmt"
	"sort"
	"sync/atomic"

	"github.com/modelgate/modelgate/internal/domain"
	"github.com/modelgate/modelgate/internal/provider"
)

// ConfigSaver persists the routing config when an admin replaces it.
type ConfigSaver interface {
	SaveRoutingConfig(ctx context.Context, cfg *domain.GlobalRoutingConfig) error
}

// Router resolves (provider, model) routes for tasks. The routing config
// is an immutable snapshot behind an atomic pointer: readers never see a
// half-updated table, and the hot read path takes no lock.
type Router struct {
	cfg       atomic.Pointer[domain.GlobalRoutingConfig]
	providers *provider.Registry
	saver     ConfigSaver
}

// New creates a router over the given adapter registry and initial
// config. saver may be nil when persistence is not wanted (tests).
func New(providers *provider.Registry, initial *domain.GlobalRoutingConfig, saver ConfigSaver) *Router {
	r := &Router{providers: providers, saver: saver}
	r.cfg.Store(initial)
	return r
}

// GetConfig returns the current routing config snapshot. Callers must
// treat it as read-only.
func (r *Router) GetConfig() *domain.GlobalRoutingConfig {
	return r.cfg.Load()
}

// SetConfig atomically replaces the routing config and persists it.
// There is no partial mutation path.
func (r *Router) SetConfig(ctx context.Context, cfg *domain.GlobalRoutingConfig) error {
	if cfg == nil {
		return fmt.Errorf("routing config must not be nil")
	}
	if cfg.DefaultProvider == "" {
		return fmt.Errorf("routing config needs a default provider")
	}
	if cfg.Retry.MaxRetries < 0 || cfg.Retry.BackoffMultiplier < 1 {
		return fmt.Errorf("invalid retry parameters")
	}
	if r.saver != nil {
		if err := r.saver.SaveRoutingConfig(ctx, cfg); err != nil {
			return fmt.Errorf("failed to persist routing config: %w", err)
		}
	}
	r.cfg.Store(cfg)
	return nil
}

// RetryConfig returns the retry parameters of the current snapshot.
func (r *Router) RetryConfig() domain.RetryConfig {
	return r.cfg.Load().Retry
}

// SelectRoute returns the first available route for a task: the task's
// configured routes in priority order, then the global default
// provider, then the global fallback chain. Selection is deterministic
// for a fixed config and fixed availability.
func (r *Router) SelectRoute(task domain.Task) (domain.Route, error) {
	cfg := r.cfg.Load()

	for _, route := range r.taskRoutes(cfg, task) {
		if r.providers.IsAvailable(route.Provider) {
			return route, nil
		}
	}

	if r.providers.IsAvailable(cfg.DefaultProvider) {
		return domain.Route{Provider: cfg.DefaultProvider, Model: cfg.DefaultModel}, nil
	}

	for _, name := range cfg.FallbackChain {
		if r.providers.IsAvailable(name) {
			return domain.Route{Provider: name, Model: cfg.DefaultModel}, nil
		}
	}

	return domain.Route{}, domain.ErrNoProviderAvailable
}

// SelectFallback returns the next untried route after a provider
// failure: the task's route list scanned past the failed provider,
// then the global fallback chain. It never returns the failed provider
// or any provider in tried. The second return is false when the chain
// is exhausted.
func (r *Router) SelectFallback(task domain.Task, failedProvider string, tried map[string]bool) (domain.Route, bool) {
	cfg := r.cfg.Load()

	trc, hasTask := cfg.TaskRoutes[task]
	if hasTask && trc.FallbackEnabled {
		routes := r.taskRoutes(cfg, task)
		start := 0
		for i, route := range routes {
			if route.Provider == failedProvider {
				start = i + 1
				break
			}
		}
		for _, route := range routes[start:] {
			if route.Provider == failedProvider || tried[route.Provider] {
				continue
			}
			if r.providers.IsAvailable(route.Provider) {
				return route, true
			}
		}
	}

	start := 0
	for i, name := range cfg.FallbackChain {
		if name == failedProvider {
			start = i + 1
			break
		}
	}
	for _, name := range cfg.FallbackChain[start:] {
		if name == failedProvider || tried[name] {
			continue
		}
		if r.providers.IsAvailable(name) {
			return domain.Route{Provider: name, Model: cfg.DefaultModel}, true
		}
	}

	return domain.Route{}, false
}

// taskRoutes returns the task's routes sorted ascending by priority.
func (r *Router) taskRoutes(cfg *domain.GlobalRoutingConfig, task domain.Task) []domain.Route {
	trc, ok := cfg.TaskRoutes[task]
	if !ok || len(trc.Routes) == 0 {
		return nil
	}
	routes := make([]domain.Route, len(trc.Routes))
	copy(routes, trc.Routes)
	sort.SliceStable(routes, func(i, j int) bool {
		return routes[i].Priority < routes[j].Priority
	})
	return routes
}
