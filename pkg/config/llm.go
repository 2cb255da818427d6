package config

import (
	"fmt"
	"sync"
)

// LLMProviderConfig defines one named LLM provider entry (spec §3, LLM
// provider config). Providers are consulted by pkg/llm's router, which
// resolves a request's target model to a provider by prefix match, not by
// this config's key name.
type LLMProviderConfig struct {
	// Type is the provider kind (required).
	Type LLMProviderType `yaml:"type" validate:"required"`

	// Model is the default model name for this provider (required).
	Model string `yaml:"model" validate:"required"`

	// LiteModel, if set, is consulted for the tool-routing gate; absent,
	// the router falls back silently to Model (spec §4.5).
	LiteModel string `yaml:"lite_model,omitempty"`

	// APIKeyEnv names the environment variable holding the API key.
	APIKeyEnv string `yaml:"api_key_env,omitempty"`

	// BaseURL optionally overrides the provider's default endpoint.
	BaseURL string `yaml:"base_url,omitempty"`

	// Priority orders providers sharing a prefix class; lower wins.
	Priority int `yaml:"priority,omitempty"`

	// Active gates whether the router considers this provider at all,
	// independent of the failure-accounting unavailable state.
	Active bool `yaml:"active"`
}

// LLMProviderRegistry stores LLM provider configurations in memory with
// thread-safe access.
type LLMProviderRegistry struct {
	providers map[string]*LLMProviderConfig
	mu        sync.RWMutex
}

// NewLLMProviderRegistry creates a new LLM provider registry.
func NewLLMProviderRegistry(providers map[string]*LLMProviderConfig) *LLMProviderRegistry {
	copied := make(map[string]*LLMProviderConfig, len(providers))
	for k, v := range providers {
		copied[k] = v
	}
	return &LLMProviderRegistry{
		providers: copied,
	}
}

// Get retrieves an LLM provider configuration by name (thread-safe).
func (r *LLMProviderRegistry) Get(name string) (*LLMProviderConfig, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	provider, exists := r.providers[name]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrLLMProviderNotFound, name)
	}
	return provider, nil
}

// GetAll returns all LLM provider configurations (thread-safe, returns copy).
func (r *LLMProviderRegistry) GetAll() map[string]*LLMProviderConfig {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make(map[string]*LLMProviderConfig, len(r.providers))
	for k, v := range r.providers {
		result[k] = v
	}
	return result
}

// Has checks if an LLM provider exists in the registry (thread-safe).
func (r *LLMProviderRegistry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, exists := r.providers[name]
	return exists
}

// Len returns the number of LLM providers in the registry (thread-safe).
func (r *LLMProviderRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.providers)
}
