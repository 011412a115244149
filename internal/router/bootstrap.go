package router

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"

	"github.com/modelgate/modelgate/config"
	"github.com/modelgate/modelgate/internal/domain"
)

// DefaultConfig builds the routing config used until an admin replaces
// it: every task routes to the default provider, with the other
// configured providers forming the global fallback chain.
func DefaultConfig(cfg *config.Config) *domain.GlobalRoutingConfig {
	retry := domain.RetryConfig{
		MaxRetries:        cfg.MaxRetries,
		InitialDelayMs:    int(cfg.InitialDelay.Milliseconds()),
		MaxDelayMs:        int(cfg.MaxDelay.Milliseconds()),
		BackoffMultiplier: cfg.BackoffMultiplier,
	}

	return &domain.GlobalRoutingConfig{
		DefaultProvider: "openai",
		DefaultModel:    "gpt-4o-mini",
		TaskRoutes: map[domain.Task]domain.TaskRoutingConfig{
			domain.TaskIntentClassify: {
				Routes: []domain.Route{
					{Provider: "openai", Model: "gpt-4o-mini", Priority: 0},
					{Provider: "anthropic", Model: "claude-haiku", Priority: 1},
				},
				FallbackEnabled: true,
			},
			domain.TaskFieldExtract: {
				Routes: []domain.Route{
					{Provider: "openai", Model: "gpt-4o", Priority: 0},
					{Provider: "anthropic", Model: "claude-sonnet", Priority: 1},
				},
				FallbackEnabled: true,
			},
			domain.TaskDocSummarize: {
				Routes: []domain.Route{
					{Provider: "anthropic", Model: "claude-sonnet", Priority: 0},
					{Provider: "openai", Model: "gpt-4o", Priority: 1},
				},
				FallbackEnabled: true,
			},
			domain.TaskChatRespond: {
				Routes: []domain.Route{
					{Provider: "openai", Model: "gpt-4o", Priority: 0},
					{Provider: "anthropic", Model: "claude-sonnet", Priority: 1},
				},
				FallbackEnabled: true,
			},
			domain.TaskActionPlan: {
				Routes: []domain.Route{
					{Provider: "anthropic", Model: "claude-opus", Priority: 0},
				},
				FallbackEnabled: false,
			},
		},
		FallbackChain: []string{"openai", "anthropic"},
		Retry:         retry,
	}
}

// LoadYAMLConfig reads a routing config bootstrap file.
func LoadYAMLConfig(path string) (*domain.GlobalRoutingConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read routing config file: %w", err)
	}
	var cfg domain.GlobalRoutingConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse routing config file: %w", err)
	}
	return &cfg, nil
}
