package cognition

import (
	"context"
	"strings"

	"github.com/iris-runtime/iris/pkg/config"
	"github.com/iris-runtime/iris/pkg/errkind"
	"github.com/iris-runtime/iris/pkg/llm"
	"github.com/iris-runtime/iris/pkg/mcp"
)

// ToolExecutor is the subset of mcp.ToolExecutor the agentic loop needs.
type ToolExecutor interface {
	ListTools(ctx context.Context) ([]mcp.ToolDefinition, error)
	Execute(ctx context.Context, call mcp.ToolCall) (*mcp.ToolResult, error)
}

// AgenticLoop runs the bounded multi-turn tool-calling loop: submit
// conversation + tools to the main model; text-only response terminates;
// tool calls are executed and appended, and the conversation re-submitted
// (spec §4.3, "Agentic loop").
type AgenticLoop struct {
	router   *llm.Router
	executor ToolExecutor
	params   *config.Params
	model    string
}

// NewAgenticLoop builds an AgenticLoop.
func NewAgenticLoop(router *llm.Router, executor ToolExecutor, params *config.Params, model string) *AgenticLoop {
	return &AgenticLoop{router: router, executor: executor, params: params, model: model}
}

// Run executes the loop starting from messages, bounded by
// config.Params.ToolCallCapPerTick iterations (one LLM call per
// iteration). Terminates on a text-only assistant message or when the cap
// is reached, in which case it returns the best-effort text accumulated so
// far (spec §4.3).
func (l *AgenticLoop) Run(ctx context.Context, messages []llm.Message) (string, error) {
	tools, err := l.executor.ListTools(ctx)
	if err != nil {
		return "", errkind.New(errkind.Capability, err)
	}
	llmTools := toLLMTools(tools)

	var lastText string
	for iteration := 0; iteration < l.params.ToolCallCapPerTick; iteration++ {
		select {
		case <-ctx.Done():
			return lastText, errkind.New(errkind.Cancellation, ctx.Err())
		default:
		}

		resp, toolCalls, err := l.generateOnce(ctx, messages, llmTools)
		if err != nil {
			return lastText, err
		}
		lastText = resp

		if len(toolCalls) == 0 {
			return resp, nil
		}

		messages = append(messages, llm.Message{Role: llm.RoleAssistant, Content: resp, ToolCalls: toolCalls})
		for _, tc := range toolCalls {
			result, err := l.executor.Execute(ctx, mcp.ToolCall{ID: tc.ID, Name: tc.Name, Arguments: tc.Arguments})
			content := ""
			if err != nil {
				content = "tool execution failed: " + err.Error()
			} else {
				content = result.Content
			}
			messages = append(messages, llm.Message{
				Role:       llm.RoleTool,
				Content:    content,
				ToolCallID: tc.ID,
				ToolName:   tc.Name,
			})
		}
	}

	return lastText, nil // cap reached: best-effort text (spec §4.3)
}

func (l *AgenticLoop) generateOnce(ctx context.Context, messages []llm.Message, tools []llm.ToolDefinition) (string, []llm.ToolCall, error) {
	chunks, err := l.router.Generate(ctx, llm.GenerateRequest{
		Model:    l.model,
		Messages: messages,
		Tools:    tools,
	})
	if err != nil {
		return "", nil, errkind.New(errkind.Transient, err)
	}

	var text strings.Builder
	calls := make(map[string]*llm.ToolCall)
	var order []string

	for chunk := range chunks {
		switch chunk.Type {
		case llm.ChunkTypeText:
			text.WriteString(chunk.Text)
		case llm.ChunkTypeToolCall:
			tc, ok := calls[chunk.CallID]
			if !ok {
				tc = &llm.ToolCall{ID: chunk.CallID, Name: chunk.ToolName}
				calls[chunk.CallID] = tc
				order = append(order, chunk.CallID)
			}
			tc.Arguments += chunk.Arguments
		case llm.ChunkTypeError:
			return "", nil, errkind.Newf(errkind.Transient, "cognition: agentic loop call failed: %s", chunk.ErrMessage)
		}
	}

	toolCalls := make([]llm.ToolCall, 0, len(order))
	for _, id := range order {
		toolCalls = append(toolCalls, *calls[id])
	}
	return text.String(), toolCalls, nil
}

func toLLMTools(tools []mcp.ToolDefinition) []llm.ToolDefinition {
	out := make([]llm.ToolDefinition, len(tools))
	for i, t := range tools {
		out[i] = llm.ToolDefinition{Name: t.Name, Description: t.Description, ParametersSchema: t.ParametersSchema}
	}
	return out
}
