package config

// TransportType defines capability child-process transport types.
type TransportType string

const (
	// TransportTypeStdio uses subprocess communication via stdin/stdout (NDJSON).
	TransportTypeStdio TransportType = "stdio"
	// TransportTypeHTTP uses HTTP/HTTPS JSON-RPC.
	TransportTypeHTTP TransportType = "http"
	// TransportTypeSSE uses Server-Sent Events.
	TransportTypeSSE TransportType = "sse"
)

// IsValid checks if the transport type is valid.
func (t TransportType) IsValid() bool {
	return t == TransportTypeStdio || t == TransportTypeHTTP || t == TransportTypeSSE
}

// LLMProviderType is the provider a model-name prefix resolves to (see
// pkg/llm's router).
type LLMProviderType string

const (
	LLMProviderTypeAnthropic LLMProviderType = "anthropic"
	LLMProviderTypeOpenAI    LLMProviderType = "openai"
	LLMProviderTypeGoogle    LLMProviderType = "google"
	LLMProviderTypeDeepSeek  LLMProviderType = "deepseek"
	// LLMProviderTypeUnknown is the OpenAI-compatible shape used for any
	// model prefix that does not match a known provider.
	LLMProviderTypeUnknown LLMProviderType = "unknown"
)

// IsValid checks if the LLM provider type is valid.
func (t LLMProviderType) IsValid() bool {
	switch t {
	case LLMProviderTypeAnthropic, LLMProviderTypeOpenAI, LLMProviderTypeGoogle,
		LLMProviderTypeDeepSeek, LLMProviderTypeUnknown:
		return true
	default:
		return false
	}
}

// Permission is one bit of a capability manifest's declared permission set
// (spec §3, Capability manifest). A capability's self-reported side effects
// must be a subset of its manifest permissions or it is quarantined.
type Permission string

const (
	PermissionFileRead     Permission = "file_read"
	PermissionFileWrite    Permission = "file_write"
	PermissionNetworkRead  Permission = "network_read"
	PermissionNetworkWrite Permission = "network_write"
	PermissionProcessSpawn Permission = "process_spawn"
	PermissionSystemInfo   Permission = "system_info"
)

// IsValid checks if the permission is one of the documented kinds.
func (p Permission) IsValid() bool {
	switch p {
	case PermissionFileRead, PermissionFileWrite, PermissionNetworkRead,
		PermissionNetworkWrite, PermissionProcessSpawn, PermissionSystemInfo:
		return true
	default:
		return false
	}
}
