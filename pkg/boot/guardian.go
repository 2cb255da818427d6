// Package boot implements the boot guardian: an ordered phase machine that
// records each boot's outcome and latches safe mode after repeated Ready
// failures (spec §4.9).
package boot

import (
	"context"
	"log/slog"
	"time"

	"github.com/iris-runtime/iris/pkg/config"
	"github.com/iris-runtime/iris/pkg/errkind"
)

// healthRecorder is the subset of database.Repository the guardian needs;
// narrowed to an interface so boot-phase sequencing can be tested without a
// live database.
type healthRecorder interface {
	InsertBootHealthRecord(ctx context.Context, phase, outcome, detail string, consecutiveFails int, safeMode bool) error
}

// Phase is one node of the ordered boot sequence (spec §4.9).
type Phase string

const (
	PhaseCoreInit        Phase = "core_init"
	PhaseCapabilityLoad  Phase = "capability_load"
	PhaseEnvironmentSense Phase = "environment_sense"
	PhaseReady           Phase = "ready"
)

var orderedPhases = []Phase{PhaseCoreInit, PhaseCapabilityLoad, PhaseEnvironmentSense, PhaseReady}

// StepFunc runs one boot phase's work.
type StepFunc func(ctx context.Context) error

// Guardian runs the ordered boot phases, persists each outcome, and tracks
// the safe-mode latch (spec §4.9).
type Guardian struct {
	params *config.Params
	repo   healthRecorder
	logger *slog.Logger

	safeMode                bool
	consecutiveReadyFails   int
	consecutiveHealthyTicks int
	safeModeEnteredAt       time.Time
}

// NewGuardian builds a Guardian. repo is typically a *database.Repository.
func NewGuardian(params *config.Params, repo healthRecorder) *Guardian {
	return &Guardian{params: params, repo: repo, logger: slog.Default()}
}

// InSafeMode reports whether the guardian is currently latched into safe
// mode (core-only, no capability spawning).
func (g *Guardian) InSafeMode() bool { return g.safeMode }

// Run executes steps for each ordered phase in sequence, recording the
// outcome of each. It stops at the first failing phase (except Ready, whose
// failure drives the safe-mode latch rather than aborting the process —
// the guardian still brings the core up in safe mode).
func (g *Guardian) Run(ctx context.Context, steps map[Phase]StepFunc) error {
	for _, phase := range orderedPhases {
		step, ok := steps[phase]
		if !ok {
			continue
		}

		start := time.Now()
		err := step(ctx)
		duration := time.Since(start)

		outcome := "success"
		detail := ""
		if err != nil {
			outcome = "failure"
			detail = err.Error()
		}

		if recErr := g.repo.InsertBootHealthRecord(ctx, string(phase), outcome, detail, g.consecutiveReadyFails, g.safeMode); recErr != nil {
			g.logger.Error("boot: failed to record phase outcome", "phase", phase, "error", recErr)
		}

		if err != nil {
			g.logger.Error("boot: phase failed", "phase", phase, "duration", duration, "error", err)
			if phase == PhaseReady {
				g.onReadyFailure()
				return nil // enter safe mode rather than abort
			}
			return errkind.New(errkind.Fatal, err)
		}

		g.logger.Info("boot: phase succeeded", "phase", phase, "duration", duration)
		if phase == PhaseReady {
			g.onReadySuccess()
		}
	}
	return nil
}

func (g *Guardian) onReadyFailure() {
	g.consecutiveReadyFails++
	g.consecutiveHealthyTicks = 0
	if g.consecutiveReadyFails >= g.params.SafeModeConsecutiveFailures && !g.safeMode {
		g.safeMode = true
		g.safeModeEnteredAt = time.Now()
		g.logger.Warn("boot: safe mode latched", "consecutive_ready_failures", g.consecutiveReadyFails)
	}
}

func (g *Guardian) onReadySuccess() {
	g.consecutiveReadyFails = 0
}

// RecordHealthyTick is called by the scheduler once per tick while the
// system is up; it drives safe mode's exit condition (spec §4.9: "five
// consecutive healthy ticks plus a 5-minute cooldown exit safe mode").
func (g *Guardian) RecordHealthyTick() {
	if !g.safeMode {
		return
	}
	g.consecutiveHealthyTicks++
	if g.consecutiveHealthyTicks >= g.params.SafeModeExitHealthyTicks &&
		time.Since(g.safeModeEnteredAt) >= g.params.SafeModeCooldown {
		g.safeMode = false
		g.consecutiveReadyFails = 0
		g.consecutiveHealthyTicks = 0
		g.logger.Info("boot: safe mode exited")
	}
}

// RecordUnhealthyTick resets the consecutive-healthy-tick counter (a single
// unhealthy tick restarts the exit countdown).
func (g *Guardian) RecordUnhealthyTick() {
	g.consecutiveHealthyTicks = 0
}
