package config

// Config is the umbrella configuration object: the parameter table, the
// capability manifest registry, and the LLM provider registry. This is the
// object returned by Initialize() and shared read-only by every component
// the boot guardian constructs.
type Config struct {
	configDir string

	// Params is the full keyed parameter table (spec §3, Iris config).
	Params *Params

	// CapabilityRegistry holds declared capability manifests.
	CapabilityRegistry *Registry

	// LLMProviderRegistry holds named LLM provider configurations.
	LLMProviderRegistry *LLMProviderRegistry
}

// Stats contains statistics about loaded configuration, logged once at boot.
type Stats struct {
	Capabilities int
	LLMProviders int
}

// Stats returns configuration statistics for logging/monitoring.
func (c *Config) Stats() Stats {
	return Stats{
		Capabilities: len(c.CapabilityRegistry.GetAll()),
		LLMProviders: len(c.LLMProviderRegistry.GetAll()),
	}
}

// ConfigDir returns the configuration directory path.
func (c *Config) ConfigDir() string {
	return c.configDir
}

// GetCapability retrieves a capability manifest by name.
func (c *Config) GetCapability(name string) (*ManifestConfig, error) {
	return c.CapabilityRegistry.Get(name)
}

// GetLLMProvider retrieves an LLM provider configuration by name.
func (c *Config) GetLLMProvider(name string) (*LLMProviderConfig, error) {
	return c.LLMProviderRegistry.Get(name)
}
