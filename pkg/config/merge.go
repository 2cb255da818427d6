package config

// mergeManifests merges persisted and user-defined capability manifest
// configurations. User-defined (YAML) manifests override persisted ones
// with the same name, the same precedence rule the teacher's MCP server
// merge used for built-in vs. user config.
func mergeManifests(persisted map[string]ManifestConfig, userManifests map[string]ManifestConfig) map[string]*ManifestConfig {
	result := make(map[string]*ManifestConfig)

	for name, manifest := range persisted {
		manifestCopy := manifest
		result[name] = &manifestCopy
	}

	for name, manifest := range userManifests {
		manifestCopy := manifest
		result[name] = &manifestCopy
	}

	return result
}

// mergeLLMProviders merges persisted and user-defined LLM provider
// configurations. User-defined providers override persisted ones with the
// same name.
func mergeLLMProviders(persisted map[string]LLMProviderConfig, userProviders map[string]LLMProviderConfig) map[string]*LLMProviderConfig {
	result := make(map[string]*LLMProviderConfig)

	for name, provider := range persisted {
		providerCopy := provider
		result[name] = &providerCopy
	}

	for name, userProvider := range userProviders {
		providerCopy := userProvider
		result[name] = &providerCopy
	}

	return result
}
