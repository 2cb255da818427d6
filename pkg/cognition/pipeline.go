package cognition

import (
	"context"
	"strings"

	"github.com/iris-runtime/iris/pkg/config"
	"github.com/iris-runtime/iris/pkg/errkind"
	"github.com/iris-runtime/iris/pkg/llm"
	"github.com/iris-runtime/iris/pkg/mcp"
	"github.com/iris-runtime/iris/pkg/models"
)

// noLLMPlaceholder is returned verbatim when no LLM provider is configured
// (spec §4.1 phase 6, "If no LLM is configured, return the literal
// placeholder [no LLM configured]").
const noLLMPlaceholder = "[no LLM configured]"

// Result is the unified response pipeline's output for one dialogue event:
// either response text (direct reply or direct tool invocation) or, when
// the agentic loop ran, its best-effort text.
type Result struct {
	Text          string
	UsedTool      string // non-empty when a direct tool invocation served the response
	RanAgentic    bool
	GateConfident bool
}

// Pipeline implements the unified response pipeline (spec §4.1 phase 4–6,
// §4.3): context assembly → tool-routing gate → execution policy → action.
type Pipeline struct {
	params    *config.Params
	assembler *Assembler
	gate      *ToolRoutingGate
	router    *llm.Router
	executor  ToolExecutor
	loop      *AgenticLoop
	model     string
}

// NewPipeline wires a Pipeline. Whether any LLM provider is active is passed
// per call to Handle as llmConfigured; when false, Handle short-circuits to
// the placeholder response without calling the router.
func NewPipeline(params *config.Params, assembler *Assembler, gate *ToolRoutingGate, router *llm.Router, executor ToolExecutor, model string) *Pipeline {
	return &Pipeline{
		params:    params,
		assembler: assembler,
		gate:      gate,
		router:    router,
		executor:  executor,
		loop:      NewAgenticLoop(router, executor, params, model),
		model:     model,
	}
}

// Handle runs the full pipeline for one dialogue event (spec §4.1 phase 4).
func (p *Pipeline) Handle(ctx context.Context, event models.SensoryEvent, selfSummary string, llmConfigured bool) (Result, error) {
	if !llmConfigured {
		return Result{Text: noLLMPlaceholder}, nil
	}

	tools, err := p.executor.ListTools(ctx)
	if err != nil {
		tools = nil // degrade to a tool-less direct reply rather than fail the tick
	}

	assembled := p.assembler.Assemble(ctx, event, selfSummary)
	contextText := assembled.Render()

	gateResp, gateErr := p.gate.Invoke(ctx, contextText, toLLMTools(tools))

	switch {
	case gateErr == nil && !gateResp.UseTool:
		// direct-response generator
		text, err := p.directReply(ctx, contextText, event)
		if err != nil {
			return Result{}, err
		}
		return Result{Text: text, GateConfident: true}, nil

	case gateErr == nil && gateResp.UseTool && gateResp.Confidence >= p.params.ToolConfidenceThreshold:
		result, err := p.executor.Execute(ctx, mcp.ToolCall{Name: gateResp.ToolName, Arguments: string(gateResp.Input)})
		if err != nil {
			return Result{}, errkind.New(errkind.Capability, err)
		}
		// Tool errors propagate as the response without modification (spec §4.1 phase 6).
		return Result{Text: result.Content, UsedTool: gateResp.ToolName, GateConfident: true}, nil

	default:
		// Low confidence, schema failure, or router exception: agentic loop.
		messages := []llm.Message{
			{Role: llm.RoleSystem, Content: "You are Iris. Use the available tools when they help answer the user."},
			{Role: llm.RoleUser, Content: strings.TrimSpace(contextText + "\n\n" + event.Content)},
		}
		text, err := p.loop.Run(ctx, messages)
		if err != nil {
			return Result{}, err
		}
		return Result{Text: text, RanAgentic: true}, nil
	}
}

func (p *Pipeline) directReply(ctx context.Context, contextText string, event models.SensoryEvent) (string, error) {
	chunks, err := p.router.Generate(ctx, llm.GenerateRequest{
		Model: p.model,
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: "You are Iris, a persistent cognitive assistant. Reply directly; no tool is needed."},
			{Role: llm.RoleUser, Content: strings.TrimSpace(contextText + "\n\n" + event.Content)},
		},
	})
	if err != nil {
		return "", errkind.New(errkind.Transient, err)
	}

	var text strings.Builder
	for chunk := range chunks {
		switch chunk.Type {
		case llm.ChunkTypeText:
			text.WriteString(chunk.Text)
		case llm.ChunkTypeError:
			return "", errkind.Newf(errkind.Transient, "cognition: direct reply call failed: %s", chunk.ErrMessage)
		}
	}
	return text.String(), nil
}
