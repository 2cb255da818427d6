package llm

import (
	"context"
	"encoding/json"
	"os"

	"google.golang.org/genai"

	"github.com/iris-runtime/iris/pkg/errkind"
)

// googleProvider backs gemini-* models via the Gemini Developer API.
type googleProvider struct {
	client *genai.Client
	model  string
}

func newGoogleProvider(ctx context.Context, apiKeyEnv, defaultKeyEnv, model string) (*googleProvider, error) {
	key := resolveAPIKey(apiKeyEnv, defaultKeyEnv)
	if key == "" {
		key = os.Getenv("GOOGLE_API_KEY")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  key,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, errkind.New(errkind.Transient, err)
	}
	return &googleProvider{client: client, model: model}, nil
}

func (p *googleProvider) Generate(ctx context.Context, req GenerateRequest) (<-chan Chunk, error) {
	model := req.Model
	if model == "" {
		model = p.model
	}

	contents := toGenaiContents(req.Messages)
	config := &genai.GenerateContentConfig{}
	if len(req.Tools) > 0 {
		config.Tools = toGenaiTools(req.Tools)
	}

	out := make(chan Chunk, 16)
	stream := p.client.Models.GenerateContentStream(ctx, model, contents, config)

	go func() {
		defer close(out)

		for resp, err := range stream {
			if err != nil {
				emitError(out, errkind.New(errkind.Transient, err), true)
				return
			}
			for _, cand := range resp.Candidates {
				if cand.Content == nil {
					continue
				}
				for _, part := range cand.Content.Parts {
					if part.Text != "" {
						out <- Chunk{Type: ChunkTypeText, Text: part.Text}
					}
					if part.FunctionCall != nil {
						out <- Chunk{
							Type:      ChunkTypeToolCall,
							ToolName:  part.FunctionCall.Name,
							Arguments: encodeArgs(part.FunctionCall.Args),
						}
					}
				}
			}
			if resp.UsageMetadata != nil {
				out <- Chunk{
					Type:         ChunkTypeUsage,
					InputTokens:  int(resp.UsageMetadata.PromptTokenCount),
					OutputTokens: int(resp.UsageMetadata.CandidatesTokenCount),
				}
			}
		}
	}()

	return out, nil
}

func toGenaiContents(msgs []Message) []*genai.Content {
	out := make([]*genai.Content, 0, len(msgs))
	for _, m := range msgs {
		role := genai.RoleUser
		if m.Role == RoleAssistant {
			role = genai.RoleModel
		}
		out = append(out, genai.NewContentFromText(m.Content, role))
	}
	return out
}

func toGenaiTools(defs []ToolDefinition) []*genai.Tool {
	decls := make([]*genai.FunctionDeclaration, 0, len(defs))
	for _, d := range defs {
		decls = append(decls, &genai.FunctionDeclaration{
			Name:        d.Name,
			Description: d.Description,
		})
	}
	return []*genai.Tool{{FunctionDeclarations: decls}}
}

func encodeArgs(args map[string]any) string {
	// Arguments arrive as a decoded map; ToolCall.Arguments is JSON text by
	// convention across every provider, so re-encode for the router/executor.
	b, err := json.Marshal(args)
	if err != nil {
		return "{}"
	}
	return string(b)
}
