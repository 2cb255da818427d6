package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"dario.cat/mergo"
	"gopkg.in/yaml.v3"
)

// IrisYAMLConfig represents the complete iris.yaml file structure: capability
// manifests and parameter overrides. The loader builds the capability
// registry from the manifests declared here alone; the persisted capability
// table is not read at this stage.
type IrisYAMLConfig struct {
	Capabilities map[string]ManifestConfig `yaml:"capabilities"`
	Params       *Params                   `yaml:"params"`
}

// LLMProvidersYAMLConfig represents the complete llm-providers.yaml file structure.
type LLMProvidersYAMLConfig struct {
	LLMProviders map[string]LLMProviderConfig `yaml:"llm_providers"`
}

// Initialize loads, validates, and returns ready-to-use configuration. This
// is the primary entry point for configuration loading.
//
// Steps performed:
//  1. Load YAML files from configDir (missing files are treated as empty,
//     not fatal — a bare environment-variable boot is a supported path).
//  2. Expand environment variables.
//  3. Merge persisted (currently: YAML-only) + defaults.
//  4. Build registries.
//  5. Validate all configuration.
func Initialize(ctx context.Context, configDir string) (*Config, error) {
	log := slog.With("config_dir", configDir)
	log.Info("initializing configuration")

	cfg, err := load(ctx, configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	stats := cfg.Stats()
	log.Info("configuration initialized",
		"capabilities", stats.Capabilities,
		"llm_providers", stats.LLMProviders)

	return cfg, nil
}

func load(_ context.Context, configDir string) (*Config, error) {
	loader := &configLoader{configDir: configDir}

	irisCfg, err := loader.loadIrisYAML()
	if err != nil {
		return nil, NewLoadError("iris.yaml", err)
	}

	llmProviders, err := loader.loadLLMProvidersYAML()
	if err != nil {
		return nil, NewLoadError("llm-providers.yaml", err)
	}

	manifests := mergeManifests(nil, irisCfg.Capabilities)
	llmProvidersMerged := mergeLLMProviders(nil, llmProviders)

	params := DefaultParams()
	if irisCfg.Params != nil {
		if err := mergo.Merge(params, irisCfg.Params, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("failed to merge params: %w", err)
		}
	}

	return &Config{
		configDir:           configDir,
		Params:              params,
		CapabilityRegistry:  NewRegistry(manifests),
		LLMProviderRegistry: NewLLMProviderRegistry(llmProvidersMerged),
	}, nil
}

func validate(cfg *Config) error {
	validator := NewValidator(cfg)
	return validator.ValidateAll()
}

type configLoader struct {
	configDir string
}

func (l *configLoader) loadYAML(filename string, target any) error {
	path := filepath.Join(l.configDir, filename)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Absent config files are fine; env vars alone can boot Iris.
			return nil
		}
		return err
	}

	data = ExpandEnv(data)

	if err := yaml.Unmarshal(data, target); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidYAML, err)
	}

	return nil
}

func (l *configLoader) loadIrisYAML() (*IrisYAMLConfig, error) {
	config := IrisYAMLConfig{
		Capabilities: make(map[string]ManifestConfig),
	}
	if err := l.loadYAML("iris.yaml", &config); err != nil {
		return nil, err
	}
	if config.Capabilities == nil {
		config.Capabilities = make(map[string]ManifestConfig)
	}
	return &config, nil
}

func (l *configLoader) loadLLMProvidersYAML() (map[string]LLMProviderConfig, error) {
	config := LLMProvidersYAMLConfig{
		LLMProviders: make(map[string]LLMProviderConfig),
	}
	if err := l.loadYAML("llm-providers.yaml", &config); err != nil {
		return nil, err
	}
	if config.LLMProviders == nil {
		config.LLMProviders = make(map[string]LLMProviderConfig)
	}
	return config.LLMProviders, nil
}
