package scheduler

import (
	"context"
	"strconv"
	"time"

	"github.com/iris-runtime/iris/pkg/cognition"
	"github.com/iris-runtime/iris/pkg/mcp"
	"github.com/iris-runtime/iris/pkg/models"
)

// critique implements the self-critic phase (spec §4.1 phase 7): it scores
// the outcome and, when a capability's tool served the response, records
// that capability's usage (success or failure) and reports a failure as a
// regression. The Outcome is returned to the caller; critique does not
// update the affect actor, write codegen_history or user_preference, or
// touch the LLM router.
func (s *Scheduler) critique(ctx context.Context, event models.SensoryEvent, result cognition.Result, pipelineErr error) models.Outcome {
	outcome := models.Outcome{Status: models.OutcomeSuccess, Reward: 0.2}
	if pipelineErr != nil {
		outcome.Status = models.OutcomeFailure
		outcome.Err = pipelineErr
		outcome.Reward = -0.5
	}

	if result.UsedTool == "" {
		return outcome
	}

	serverID, _, err := mcp.SplitToolName(result.UsedTool)
	if err != nil {
		return outcome
	}
	record, ok := s.deps.Capabilities.Get(serverID)
	if !ok {
		return outcome
	}

	success := outcome.Status == models.OutcomeSuccess
	if err := s.deps.Repo.RecordCapabilityUsage(ctx, record.ID, success); err != nil {
		s.logger.Warn("scheduler: record capability usage failed", "capability", record.Name, "error", err)
	}
	if !success {
		if err := s.deps.Capabilities.ReportRegression(ctx, record.Name); err != nil {
			s.logger.Warn("scheduler: report regression failed", "capability", record.Name, "error", err)
		}
	}
	return outcome
}

// writeMemory implements the memory-write phase (spec §4.1 phase 8): append
// the turn to working memory, persist an episode, and emit a narrative
// event when its significance clears the configured floor.
func (s *Scheduler) writeMemory(ctx context.Context, event models.SensoryEvent, result cognition.Result, outcome models.Outcome) {
	salience := 0.5
	if outcome.Status == models.OutcomeFailure {
		salience = 0.8
	}

	s.deps.Ring.Put(models.ContextEntry{
		TopicID:    event.UtteranceID,
		Content:    event.Content + "\n" + result.Text,
		Salience:   salience,
		LastAccess: time.Now(),
	})

	episodeID, err := s.deps.Repo.InsertEpisode(ctx, event.UtteranceID, event.Content+"\n"+result.Text, nil, salience)
	if err != nil {
		s.logger.Warn("scheduler: insert episode failed", "error", err)
		return
	}

	if salience < s.deps.Params.NarrativeSignificanceFloor {
		return
	}
	kind := "dialogue_turn"
	if result.RanAgentic {
		kind = "agentic_turn"
	}
	if _, err := s.deps.Repo.InsertNarrativeEvent(ctx, kind, result.Text, salience, map[string]any{
		"episode_id": episodeID,
		"used_tool":  result.UsedTool,
	}); err != nil {
		s.logger.Warn("scheduler: insert narrative event failed", "error", err)
	}
}

func estimateResponseTokens(text string) int {
	return mcp.EstimateTokens(text)
}

func formatEnergy(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
