package llm

import "os"

// resolveAPIKey reads a non-Anthropic provider's key: apiKeyEnv when set,
// otherwise the given default env var name. The Anthropic provider uses
// resolveAnthropicAPIKey instead, which applies the CLAUDE_API_KEY over
// ANTHROPIC_API_KEY precedence (SPEC_FULL.md §11, Open Question 1); only
// the API key is read under both prefixes.
func resolveAPIKey(apiKeyEnv, defaultEnv string) string {
	if apiKeyEnv != "" {
		return os.Getenv(apiKeyEnv)
	}
	return os.Getenv(defaultEnv)
}

// resolveAnthropicAPIKey applies the CLAUDE_API_KEY-before-ANTHROPIC_API_KEY
// precedence. apiKeyEnv, if set in config, short-circuits both.
func resolveAnthropicAPIKey(apiKeyEnv string) string {
	if apiKeyEnv != "" {
		return os.Getenv(apiKeyEnv)
	}
	if v := os.Getenv("CLAUDE_API_KEY"); v != "" {
		return v
	}
	return os.Getenv("ANTHROPIC_API_KEY")
}

// resolveBaseURL implements the base-URL fallback decision (SPEC_FULL.md
// §11, Open Question 2): a provider-specific BaseURL from config always
// wins; absent that, the SDK's own compiled-in default is used untouched
// (signaled here by returning "").
func resolveBaseURL(configured string) string {
	return configured
}
