package memory

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/iris-runtime/iris/pkg/config"
	"github.com/iris-runtime/iris/pkg/database"
	"github.com/iris-runtime/iris/pkg/models"
)

// ReplayWorker scans unconsolidated episodes above the salience floor and
// emits one "Recalling: ..." spontaneous thought per episode as an internal
// SensoryEvent on a bounded channel (spec §4.6). It does not look for
// failure or success patterns across episodes.
type ReplayWorker struct {
	params *config.Params
	repo   *database.Repository
	out    chan models.SensoryEvent
	logger *slog.Logger
}

// NewReplayWorker builds a worker whose spontaneous thoughts are delivered
// on a channel with a buffer of 16; when the buffer is full, scan drops the
// thought and logs a warning rather than blocking.
func NewReplayWorker(params *config.Params, repo *database.Repository) *ReplayWorker {
	return &ReplayWorker{
		params: params,
		repo:   repo,
		out:    make(chan models.SensoryEvent, 16),
		logger: slog.Default(),
	}
}

// Thoughts returns the channel spontaneous thoughts are delivered on.
func (w *ReplayWorker) Thoughts() <-chan models.SensoryEvent { return w.out }

// Run blocks until ctx is done, running a replay scan on every rest-mode
// tick interval — the scheduler's Rest mode is replay's natural cadence
// (SPEC_FULL.md §10, "rest_cycle").
func (w *ReplayWorker) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.scan(ctx)
		}
	}
}

func (w *ReplayWorker) scan(ctx context.Context) {
	episodes, err := w.repo.UnconsolidatedEpisodes(ctx, 50)
	if err != nil {
		w.logger.Error("memory: replay scan failed", "error", err)
		return
	}

	for _, e := range episodes {
		if e.Salience <= w.params.ReplaySalienceFloor {
			continue
		}
		thought := models.SensoryEvent{
			Source:      models.EventSourceInternal,
			Content:     fmt.Sprintf("Recalling: %s", e.Content),
			UtteranceID: uuid.NewString(),
			Timestamp:   time.Now(),
		}
		select {
		case w.out <- thought:
		default:
			w.logger.Warn("memory: replay thought dropped, channel full", "episode_id", e.ID)
		}
	}
}
