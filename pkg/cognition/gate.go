package cognition

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/iris-runtime/iris/pkg/errkind"
	"github.com/iris-runtime/iris/pkg/llm"
)

// GateResponse is the tool-routing gate's required reply shape (spec §4.3,
// "{use_tool, tool_name, input, confidence}"). Struct tags drive the fixed
// schema validator.
type GateResponse struct {
	UseTool    bool            `json:"use_tool"`
	ToolName   string          `json:"tool_name" validate:"required_if=UseTool true"`
	Input      json.RawMessage `json:"input"`
	Confidence float64         `json:"confidence" validate:"gte=0,lte=1"`
}

var gateValidator = validator.New()

const gateSystemPromptTemplate = `You are Iris's tool-routing gate. Given the conversation context, decide whether a tool call is warranted.

Available tools:
%s

Respond with exactly one JSON object and nothing else:
{"use_tool": bool, "tool_name": string or null, "input": object or null, "confidence": number between 0 and 1}

confidence is your certainty that the chosen tool (or no-tool decision) is correct. Do not include any text outside the JSON object.`

// ToolRoutingGate calls the lite model with a fixed system template and
// validates the JSON reply against GateResponse's schema (spec §4.3).
type ToolRoutingGate struct {
	router *llm.Router
	model  string
}

// NewToolRoutingGate builds a gate that issues requests for model (routed
// to its provider's lite variant via GenerateRequest.Lite).
func NewToolRoutingGate(router *llm.Router, model string) *ToolRoutingGate {
	return &ToolRoutingGate{router: router, model: model}
}

// Invoke prompts the gate once. The gate has no memory between calls (spec
// §4.3): each invocation is a fresh, single-shot request.
func (g *ToolRoutingGate) Invoke(ctx context.Context, contextText string, tools []llm.ToolDefinition) (*GateResponse, error) {
	req := llm.GenerateRequest{
		Model: g.model,
		Lite:  true,
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: fmt.Sprintf(gateSystemPromptTemplate, describeTools(tools))},
			{Role: llm.RoleUser, Content: contextText},
		},
	}

	chunks, err := g.router.Generate(ctx, req)
	if err != nil {
		return nil, errkind.New(errkind.Transient, err)
	}

	var text strings.Builder
	for chunk := range chunks {
		switch chunk.Type {
		case llm.ChunkTypeText:
			text.WriteString(chunk.Text)
		case llm.ChunkTypeError:
			return nil, errkind.Newf(errkind.Transient, "cognition: gate call failed: %s", chunk.ErrMessage)
		}
	}

	return parseAndValidateGateResponse(text.String())
}

// parseAndValidateGateResponse discards any reply that is not valid JSON or
// fails schema validation; the caller falls through to the agentic loop in
// either case (spec §4.3, §7).
func parseAndValidateGateResponse(raw string) (*GateResponse, error) {
	var resp GateResponse
	if err := json.Unmarshal([]byte(extractJSONObject(raw)), &resp); err != nil {
		return nil, errkind.New(errkind.Validation, err)
	}
	if err := gateValidator.Struct(&resp); err != nil {
		return nil, errkind.New(errkind.Validation, err)
	}
	return &resp, nil
}

// extractJSONObject trims any leading/trailing prose, keeping the span from
// the first '{' to the last '}', tolerating models that ignore the "nothing
// else" instruction.
func extractJSONObject(s string) string {
	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start < 0 || end < start {
		return s
	}
	return s[start : end+1]
}

func describeTools(tools []llm.ToolDefinition) string {
	var b strings.Builder
	for _, t := range tools {
		fmt.Fprintf(&b, "- %s: %s\n  schema: %s\n", t.Name, t.Description, t.ParametersSchema)
	}
	if b.Len() == 0 {
		return "(no tools available)"
	}
	return b.String()
}
