// Package config provides configuration for the gateway process.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds the gateway configuration.
type Config struct {
	// Server settings
	HTTPPort  int `env:"HTTP_PORT" envDefault:"8080"`
	AdminPort int `env:"ADMIN_PORT" envDefault:"8081"`

	// Database
	DatabaseURL string `env:"DATABASE_URL" envDefault:"file:modelgate.db?cache=shared&mode=rwc"`

	// Optional YAML file used to bootstrap the routing table when the
	// store has no persisted config yet.
	RoutingConfigPath string `env:"ROUTING_CONFIG_PATH"`

	// Provider credentials. An adapter without credentials reports
	// itself unavailable and is skipped by route selection.
	OpenAIBaseURL    string `env:"OPENAI_BASE_URL" envDefault:"https://api.openai.com"`
	OpenAIAPIKey     string `env:"OPENAI_API_KEY"`
	AnthropicBaseURL string `env:"ANTHROPIC_BASE_URL" envDefault:"https://api.anthropic.com"`
	AnthropicAPIKey  string `env:"ANTHROPIC_API_KEY"`

	// Timeouts
	ProviderTimeout   time.Duration `env:"PROVIDER_TIMEOUT" envDefault:"60s"`
	SideEffectTimeout time.Duration `env:"SIDE_EFFECT_TIMEOUT" envDefault:"2s"`

	// Retry defaults, used until an admin replaces the routing config.
	MaxRetries        int           `env:"MAX_RETRIES" envDefault:"3"`
	InitialDelay      time.Duration `env:"RETRY_INITIAL_DELAY" envDefault:"1s"`
	MaxDelay          time.Duration `env:"RETRY_MAX_DELAY" envDefault:"10s"`
	BackoffMultiplier float64       `env:"RETRY_BACKOFF_MULTIPLIER" envDefault:"2"`

	// Budget
	SoftLimitPercent float64 `env:"BUDGET_SOFT_LIMIT_PERCENT" envDefault:"80"`

	// Confirmation gate
	ConfirmationExpiry time.Duration `env:"CONFIRMATION_EXPIRY" envDefault:"30m"`
	SweepInterval      time.Duration `env:"CONFIRMATION_SWEEP_INTERVAL" envDefault:"1m"`

	// Logging
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

// Load loads configuration from the environment, reading a local .env
// file first when present.
func Load() (*Config, error) {
	// Missing .env is fine; the environment is the source of truth.
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}
