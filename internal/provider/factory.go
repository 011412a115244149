package provider

import (
	"log"
	"os"

	"github.com/modelgate/modelgate/config"
)

const (
	// EnvMode is the environment variable name for mode selection.
	EnvMode = "MODELGATE_MODE"
	// ModeMock indicates mock adapters should be used.
	ModeMock = "MOCK"
)

// NewRegistryFromConfig builds the adapter registry for the configured
// providers. If MODELGATE_MODE=MOCK, every provider is backed by a mock
// adapter instead of a real HTTP client.
func NewRegistryFromConfig(cfg *config.Config) *Registry {
	reg := NewRegistry()

	if os.Getenv(EnvMode) == ModeMock {
		log.Println("MODELGATE_MODE=MOCK detected, using mock provider adapters")
		reg.Register(NewMockAdapter("openai"))
		reg.Register(NewMockAdapter("anthropic"))
		return reg
	}

	reg.Register(NewHTTPAdapter("openai", cfg.OpenAIBaseURL, cfg.OpenAIAPIKey, cfg.ProviderTimeout))
	reg.Register(NewHTTPAdapter("anthropic", cfg.AnthropicBaseURL, cfg.AnthropicAPIKey, cfg.ProviderTimeout))
	return reg
}
