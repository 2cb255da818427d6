package llm

import (
	"context"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/iris-runtime/iris/pkg/errkind"
)

// anthropicProvider backs claude-* models with the native Messages API.
type anthropicProvider struct {
	client anthropic.Client
	model  string
}

func newAnthropicProvider(apiKeyEnv, baseURL, model string) *anthropicProvider {
	opts := []option.RequestOption{option.WithAPIKey(resolveAnthropicAPIKey(apiKeyEnv))}
	if u := resolveBaseURL(baseURL); u != "" {
		opts = append(opts, option.WithBaseURL(u))
	}
	return &anthropicProvider{client: anthropic.NewClient(opts...), model: model}
}

func (p *anthropicProvider) Generate(ctx context.Context, req GenerateRequest) (<-chan Chunk, error) {
	model := req.Model
	if model == "" {
		model = p.model
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: 4096,
		Messages:  toAnthropicMessages(req.Messages),
	}
	if len(req.Tools) > 0 {
		params.Tools = toAnthropicTools(req.Tools)
	}

	out := make(chan Chunk, 16)
	stream := p.client.Messages.NewStreaming(ctx, params)

	go func() {
		defer close(out)

		var inputTokens, outputTokens int
		message := anthropic.Message{}
		for stream.Next() {
			event := stream.Current()
			if err := message.Accumulate(event); err != nil {
				emitError(out, errkind.New(errkind.Transient, err), true)
				return
			}

			switch delta := event.Delta.(type) {
			case anthropic.ContentBlockDeltaEventDelta:
				if delta.Text != "" {
					out <- Chunk{Type: ChunkTypeText, Text: delta.Text}
				}
			}
		}
		if err := stream.Err(); err != nil {
			emitError(out, errkind.New(errkind.Transient, err), true)
			return
		}

		for _, block := range message.Content {
			if tu, ok := block.AsAny().(anthropic.ToolUseBlock); ok {
				out <- Chunk{
					Type:      ChunkTypeToolCall,
					CallID:    tu.ID,
					ToolName:  tu.Name,
					Arguments: string(tu.Input),
				}
			}
		}

		inputTokens = int(message.Usage.InputTokens)
		outputTokens = int(message.Usage.OutputTokens)
		out <- Chunk{Type: ChunkTypeUsage, InputTokens: inputTokens, OutputTokens: outputTokens}
	}()

	return out, nil
}

func toAnthropicMessages(msgs []Message) []anthropic.MessageParam {
	out := make([]anthropic.MessageParam, 0, len(msgs))
	for _, m := range msgs {
		switch m.Role {
		case RoleUser, RoleTool:
			out = append(out, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
		case RoleAssistant:
			out = append(out, anthropic.NewAssistantMessage(anthropic.NewTextBlock(m.Content)))
		}
	}
	return out
}

func toAnthropicTools(defs []ToolDefinition) []anthropic.ToolUnionParam {
	out := make([]anthropic.ToolUnionParam, 0, len(defs))
	for _, d := range defs {
		out = append(out, anthropic.ToolUnionParamOfTool(anthropic.ToolInputSchemaParam{}, d.Name))
	}
	return out
}

func emitError(out chan<- Chunk, err error, retryable bool) {
	out <- Chunk{Type: ChunkTypeError, ErrMessage: err.Error(), Retryable: retryable}
}
