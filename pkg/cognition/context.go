// Package cognition implements the unified response pipeline: context
// assembly, the tool-routing gate, and the execution policy that picks
// between a direct reply, a direct tool invocation, or the agentic
// tool-use loop (spec §4.3).
package cognition

import (
	"context"
	"fmt"
	"strings"

	"github.com/iris-runtime/iris/pkg/config"
	"github.com/iris-runtime/iris/pkg/memory"
	"github.com/iris-runtime/iris/pkg/models"
)

// Embedder turns text into the vector space semantic recall compares
// against. Embedding computation is an external collaborator (spec.md §1
// Non-goals): Iris core never trains or hosts one, it only calls out to it.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
}

// Context is the assembled input to the tool-routing gate and the direct
// response / agentic loop generators (spec §4.3, "context assembly
// ordering").
type Context struct {
	Recent      []models.ContextEntry
	Recalled    []memory.Scored
	SelfSummary string
}

// Assembler builds a Context for one dialogue event (spec §4.1 phase 4).
type Assembler struct {
	params   *config.Params
	ring     *memory.Ring
	recaller *memory.Recaller
	embedder Embedder
}

// NewAssembler builds an Assembler. embedder may be nil, in which case
// semantic recall is skipped (no recall candidates, not an error) — the
// same degrade-gracefully posture the router takes for an unconfigured LLM.
func NewAssembler(params *config.Params, ring *memory.Ring, recaller *memory.Recaller, embedder Embedder) *Assembler {
	return &Assembler{params: params, ring: ring, recaller: recaller, embedder: embedder}
}

// Assemble gathers up to ContextRecentEntries working-memory entries plus
// up to SemanticRecallTopK recalled knowledge facts above the similarity
// floor, and a one-line self-context summary (spec §4.3).
func (a *Assembler) Assemble(ctx context.Context, event models.SensoryEvent, selfSummary string) Context {
	recent := a.ring.Recent(a.params.ContextRecentEntries)

	var recalled []memory.Scored
	if a.embedder != nil && a.recaller != nil {
		if queryEmbedding, err := a.embedder.Embed(ctx, event.Content); err == nil {
			recalled, _ = a.recaller.Recall(ctx, queryEmbedding)
		}
	}

	return Context{Recent: recent, Recalled: recalled, SelfSummary: selfSummary}
}

// Render flattens a Context into the text handed to the LLM, most-recent
// working-memory entry last so model attention biases toward recency, with
// recalled entries labeled distinctly from working-memory ones (spec §4.3,
// "Context assembly ordering").
func (c Context) Render() string {
	var b strings.Builder

	if c.SelfSummary != "" {
		fmt.Fprintf(&b, "Self-context: %s\n\n", c.SelfSummary)
	}

	if len(c.Recalled) > 0 {
		b.WriteString("Recalled knowledge:\n")
		for _, r := range c.Recalled {
			fmt.Fprintf(&b, "- (similarity %.2f) %s\n", r.Similarity, r.Content)
		}
		b.WriteString("\n")
	}

	if len(c.Recent) > 0 {
		b.WriteString("Recent working memory (oldest first):\n")
		for i := len(c.Recent) - 1; i >= 0; i-- {
			fmt.Fprintf(&b, "- %s\n", c.Recent[i].Content)
		}
	}

	return b.String()
}
