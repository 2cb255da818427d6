package llm

import (
	"errors"
	"io"

	"context"

	openai "github.com/sashabaranov/go-openai"

	"github.com/iris-runtime/iris/pkg/errkind"
)

// openAIProvider backs gpt-*/o1-*/o3-*/o4-* models natively, and also
// serves deepseek-* and any unrecognized prefix against an OpenAI-compatible
// endpoint (spec §4.5) — same client, different BaseURL/APIKeyEnv from config.
type openAIProvider struct {
	client *openai.Client
	model  string
}

func newOpenAIProvider(apiKeyEnv, defaultKeyEnv, baseURL, model string) *openAIProvider {
	cfg := openai.DefaultConfig(resolveAPIKey(apiKeyEnv, defaultKeyEnv))
	if u := resolveBaseURL(baseURL); u != "" {
		cfg.BaseURL = u
	}
	return &openAIProvider{client: openai.NewClientWithConfig(cfg), model: model}
}

func (p *openAIProvider) Generate(ctx context.Context, req GenerateRequest) (<-chan Chunk, error) {
	model := req.Model
	if model == "" {
		model = p.model
	}

	creq := openai.ChatCompletionRequest{
		Model:    model,
		Messages: toOpenAIMessages(req.Messages),
		Stream:   true,
	}
	if len(req.Tools) > 0 {
		creq.Tools = toOpenAITools(req.Tools)
	}

	stream, err := p.client.CreateChatCompletionStream(ctx, creq)
	if err != nil {
		return nil, errkind.New(errkind.Transient, err)
	}

	out := make(chan Chunk, 16)
	go func() {
		defer close(out)
		defer stream.Close()

		toolArgs := make(map[int]*Chunk)
		for {
			resp, err := stream.Recv()
			if errors.Is(err, io.EOF) {
				for _, c := range toolArgs {
					out <- *c
				}
				return
			}
			if err != nil {
				emitError(out, errkind.New(errkind.Transient, err), true)
				return
			}
			if resp.Usage != nil {
				out <- Chunk{
					Type:         ChunkTypeUsage,
					InputTokens:  resp.Usage.PromptTokens,
					OutputTokens: resp.Usage.CompletionTokens,
				}
			}
			if len(resp.Choices) == 0 {
				continue
			}
			delta := resp.Choices[0].Delta
			if delta.Content != "" {
				out <- Chunk{Type: ChunkTypeText, Text: delta.Content}
			}
			for _, tc := range delta.ToolCalls {
				idx := 0
				if tc.Index != nil {
					idx = *tc.Index
				}
				cur, ok := toolArgs[idx]
				if !ok {
					cur = &Chunk{Type: ChunkTypeToolCall, CallID: tc.ID, ToolName: tc.Function.Name}
					toolArgs[idx] = cur
				}
				cur.Arguments += tc.Function.Arguments
			}
		}
	}()

	return out, nil
}

func toOpenAIMessages(msgs []Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, openai.ChatCompletionMessage{
			Role:       m.Role,
			Content:    m.Content,
			ToolCallID: m.ToolCallID,
			Name:       m.ToolName,
		})
	}
	return out
}

func toOpenAITools(defs []ToolDefinition) []openai.Tool {
	out := make([]openai.Tool, 0, len(defs))
	for _, d := range defs {
		out = append(out, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        d.Name,
				Description: d.Description,
				Parameters:  []byte(d.ParametersSchema),
			},
		})
	}
	return out
}
