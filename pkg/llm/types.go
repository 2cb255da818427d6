// Package llm routes model-name-prefixed generation requests to one of
// several provider backends, tracks per-provider failure accounting, and
// runs a recovery probe for unavailable providers (spec §4.5).
package llm

import "context"

// Message roles, mirroring the teacher's agent.ConversationMessage role
// constants.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Message is one turn in a conversation sent to a provider.
type Message struct {
	Role       string
	Content    string
	ToolCalls  []ToolCall
	ToolCallID string
	ToolName   string
}

// ToolDefinition describes a capability tool surfaced to the LLM, the same
// shape pkg/mcp.ToolExecutor.ListTools returns.
type ToolDefinition struct {
	Name             string
	Description      string
	ParametersSchema string
}

// ToolCall is the LLM's request to invoke a tool.
type ToolCall struct {
	ID        string
	Name      string
	Arguments string
}

// GenerateRequest is one call into the router.
type GenerateRequest struct {
	Model    string // full model name; resolves to a provider by prefix
	Lite     bool   // true routes to the provider's LiteModel when configured
	Messages []Message
	Tools    []ToolDefinition
}

// ChunkType identifies the kind of a streamed Chunk.
type ChunkType string

const (
	ChunkTypeText     ChunkType = "text"
	ChunkTypeToolCall ChunkType = "tool_call"
	ChunkTypeUsage    ChunkType = "usage"
	ChunkTypeError    ChunkType = "error"
)

// Chunk is one unit of a streamed generation response.
type Chunk struct {
	Type ChunkType

	// ChunkTypeText
	Text string

	// ChunkTypeToolCall
	CallID, ToolName, Arguments string

	// ChunkTypeUsage
	InputTokens, OutputTokens int

	// ChunkTypeError
	ErrMessage string
	Retryable  bool
}

// Provider is the interface every backend (anthropic, openai-compatible,
// google) implements. Generate streams the response on the returned
// channel, which is closed when the call completes or fails.
type Provider interface {
	Generate(ctx context.Context, req GenerateRequest) (<-chan Chunk, error)
}
