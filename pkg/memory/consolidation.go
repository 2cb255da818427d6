package memory

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/iris-runtime/iris/pkg/config"
	"github.com/iris-runtime/iris/pkg/database"
	"github.com/iris-runtime/iris/pkg/llm"
)

// Summarizer asks a model to distill a batch of episode contents into one
// knowledge summary; satisfied by *llm.Router in production.
type Summarizer interface {
	Generate(ctx context.Context, req llm.GenerateRequest) (<-chan llm.Chunk, error)
}

// ConsolidationWorker runs the "every 30 min or on demand after a narrative
// event" consolidation pass (spec §4.6): select unconsolidated episodes,
// ask the main model for a summary, write a knowledge row, mark the
// episodes consolidated.
type ConsolidationWorker struct {
	params     *config.Params
	repo       *database.Repository
	summarizer Summarizer
	model      string

	onDemand chan struct{}
	logger   *slog.Logger
}

// NewConsolidationWorker builds a worker that asks model (expected to be a
// claude-*/gpt-*/etc. main model, never the lite model) for summaries.
func NewConsolidationWorker(params *config.Params, repo *database.Repository, summarizer Summarizer, model string) *ConsolidationWorker {
	return &ConsolidationWorker{
		params:     params,
		repo:       repo,
		summarizer: summarizer,
		model:      model,
		onDemand:   make(chan struct{}, 1),
		logger:     slog.Default(),
	}
}

// TriggerOnDemand requests an out-of-cycle consolidation pass after a
// significant narrative event (spec §4.6, "or on demand after a narrative
// event"). Non-blocking: a pending trigger is coalesced.
func (w *ConsolidationWorker) TriggerOnDemand() {
	select {
	case w.onDemand <- struct{}{}:
	default:
	}
}

// Run blocks until ctx is done, running a consolidation pass on the
// configured interval or whenever TriggerOnDemand fires.
func (w *ConsolidationWorker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.params.ConsolidationInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.runPass(ctx)
		case <-w.onDemand:
			w.runPass(ctx)
		}
	}
}

// runPass consolidates one batch, retrying transient failures with backoff
// and skipping the batch after three consecutive failures (spec §4.6).
func (w *ConsolidationWorker) runPass(ctx context.Context) {
	episodes, err := w.repo.UnconsolidatedEpisodes(ctx, 20)
	if err != nil {
		w.logger.Error("memory: failed to list unconsolidated episodes", "error", err)
		return
	}
	if len(episodes) == 0 {
		return
	}

	var summary string
	var lastErr error
	for attempt := 0; attempt < w.params.ConsolidationMaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Duration(attempt) * 2 * time.Second):
			}
		}
		summary, lastErr = w.summarize(ctx, episodes)
		if lastErr == nil {
			break
		}
		w.logger.Warn("memory: consolidation attempt failed", "attempt", attempt+1, "error", lastErr)
	}
	if lastErr != nil {
		w.logger.Warn("memory: skipping consolidation batch after repeated failures", "batch_size", len(episodes), "error", lastErr)
		return
	}

	ids := make([]string, len(episodes))
	var embedding []float64
	for i, e := range episodes {
		ids[i] = e.ID
		if len(embedding) == 0 {
			embedding = e.Embedding
		}
	}

	if _, err := w.repo.InsertKnowledge(ctx, summary, summary, embedding, ids); err != nil {
		w.logger.Error("memory: failed to insert consolidated knowledge", "error", err)
		return
	}
	if err := w.repo.MarkEpisodesConsolidated(ctx, ids); err != nil {
		w.logger.Error("memory: failed to mark episodes consolidated", "error", err)
	}
}

func (w *ConsolidationWorker) summarize(ctx context.Context, episodes []database.EpisodeRecord) (string, error) {
	var sb strings.Builder
	for _, e := range episodes {
		fmt.Fprintf(&sb, "- %s\n", e.Content)
	}

	chunks, err := w.summarizer.Generate(ctx, llm.GenerateRequest{
		Model: w.model,
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: "Summarize these episodes into one durable fact or pattern, in one or two sentences."},
			{Role: llm.RoleUser, Content: sb.String()},
		},
	})
	if err != nil {
		return "", err
	}

	var out strings.Builder
	for c := range chunks {
		switch c.Type {
		case llm.ChunkTypeText:
			out.WriteString(c.Text)
		case llm.ChunkTypeError:
			return "", fmt.Errorf("consolidation summary failed: %s", c.ErrMessage)
		}
	}
	return out.String(), nil
}
