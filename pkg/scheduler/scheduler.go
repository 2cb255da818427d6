// Package scheduler implements Iris's eight-phase tick loop, the
// Normal/Idle/Rest mode machine, and graceful shutdown (spec §4.1).
package scheduler

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/iris-runtime/iris/pkg/affect"
	"github.com/iris-runtime/iris/pkg/boot"
	"github.com/iris-runtime/iris/pkg/capability"
	"github.com/iris-runtime/iris/pkg/cognition"
	"github.com/iris-runtime/iris/pkg/config"
	"github.com/iris-runtime/iris/pkg/database"
	"github.com/iris-runtime/iris/pkg/memory"
	"github.com/iris-runtime/iris/pkg/models"
	"github.com/iris-runtime/iris/pkg/resource"
	"github.com/iris-runtime/iris/pkg/sensory"
)

// Deps bundles every collaborator the scheduler drives per tick (spec §3,
// "Ownership": the scheduler owns event queues and per-tick scratch; shared
// references to config/router/registry are passed in).
type Deps struct {
	Params *config.Params
	Repo   *database.Repository

	Gate     *sensory.Gate
	Pipeline *cognition.Pipeline
	Ring     *memory.Ring

	Capabilities *capability.Manager
	Affect       *affect.Actor
	Pressure     *resource.Monitor
	Budget       *resource.Allocator
	Tokens       *resource.TokenWindow
	Guardian     *boot.Guardian

	LLMConfigured bool
}

// Scheduler runs the single-goroutine tick loop (grounded on the teacher's
// pkg/queue/worker.go poll-loop shape: select on a stop channel and sleep
// between iterations for the current mode's fixed tick interval —
// generalized from "poll DB for one session" to "drain bounded channels for
// one tick, run eight ordered phases").
type Scheduler struct {
	deps Deps

	externalQ *externalQueue
	internalQ chan models.SensoryEvent
	ctxVer    *ContextVersion

	modeMu sync.RWMutex
	mode   Mode

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	dialogueMu     sync.Mutex
	dialogueActive bool

	logger *slog.Logger
}

// New builds a Scheduler in ModeNormal.
func New(deps Deps) *Scheduler {
	return &Scheduler{
		deps:      deps,
		externalQ: newExternalQueue(deps.Params.ExternalQueueCap),
		internalQ: make(chan models.SensoryEvent, deps.Params.ExternalQueueCap),
		ctxVer:    NewContextVersion(),
		mode:      ModeNormal,
		stopCh:    make(chan struct{}),
		logger:    slog.Default(),
	}
}

// SubmitExternal enqueues an externally sourced event (e.g. a terminal
// utterance) for the next tick's drain phase.
func (s *Scheduler) SubmitExternal(event models.SensoryEvent) {
	s.externalQ.Push(event)
}

// submitInternal enqueues a spontaneous internal thought (e.g. a replay
// worker emission), best-effort.
func (s *Scheduler) submitInternal(event models.SensoryEvent) {
	select {
	case s.internalQ <- event:
	default:
		s.logger.Warn("scheduler: internal queue full, dropping spontaneous thought")
	}
}

// InternalSink returns a function background workers (replay, consolidation
// triggers) can call to hand the scheduler an internal event.
func (s *Scheduler) InternalSink() func(models.SensoryEvent) {
	return s.submitInternal
}

// Run starts the tick loop in a goroutine.
func (s *Scheduler) Run(ctx context.Context) {
	s.wg.Add(1)
	go s.loop(ctx)
}

// Stop arms the single cancellation token and waits up to
// config.Params.ShutdownBudget for the tick loop, including any tick in
// progress, to finish (spec §4.1, "Graceful shutdown"). Only the tick loop
// is waited for; workers started outside the Scheduler are not. A tick still
// running past the budget is abandoned.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() { close(s.stopCh) })

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(s.deps.Params.ShutdownBudget):
		s.logger.Warn("scheduler: shutdown budget exceeded, abandoning outstanding work")
	}
}

func (s *Scheduler) loop(ctx context.Context) {
	defer s.wg.Done()

	for {
		select {
		case <-s.stopCh:
			return
		case <-ctx.Done():
			return
		default:
		}

		hadExternal, hadInternal := s.tick(ctx)

		energy := s.deps.Affect.Current().Energy
		next := nextMode(s.currentMode(), hadExternal, hadInternal, energy, s.isDialogueActive(), s.deps.Params)
		s.setMode(next)

		select {
		case <-s.stopCh:
			return
		case <-ctx.Done():
			return
		case <-time.After(tickInterval(s.deps.Params, next)):
		}
	}
}

// CurrentMode reports the scheduler's mode as a string, satisfying
// pkg/api's ModeReader for the /status endpoint.
func (s *Scheduler) CurrentMode() string {
	return string(s.currentMode())
}

func (s *Scheduler) currentMode() Mode {
	s.modeMu.RLock()
	defer s.modeMu.RUnlock()
	return s.mode
}

func (s *Scheduler) setMode(m Mode) {
	s.modeMu.Lock()
	s.mode = m
	s.modeMu.Unlock()
}

func (s *Scheduler) isDialogueActive() bool {
	s.dialogueMu.Lock()
	defer s.dialogueMu.Unlock()
	return s.dialogueActive
}

func (s *Scheduler) setDialogueActive(active bool) {
	s.dialogueMu.Lock()
	s.dialogueActive = active
	s.dialogueMu.Unlock()
}

func (s *Scheduler) drainInternal() []models.SensoryEvent {
	var drained []models.SensoryEvent
	for {
		select {
		case e := <-s.internalQ:
			drained = append(drained, e)
		default:
			return drained
		}
	}
}

type gatedEvent struct {
	event    models.SensoryEvent
	salience models.Salience
}

// tick runs the eight ordered phases once and reports whether it observed
// any external or internal work, for the mode machine (spec §4.1).
func (s *Scheduler) tick(ctx context.Context) (hadExternal, hadInternal bool) {
	s.deps.Tokens.BeginTick()

	// Phase 1: drain inputs.
	external := s.externalQ.DrainAll()
	internal := s.drainInternal()

	hadExternal = len(external) > 0
	hadInternal = len(internal) > 0

	for _, e := range external {
		if e.IsDialogue() {
			s.ctxVer.Bump()
			break
		}
	}

	all := make([]models.SensoryEvent, 0, len(external)+len(internal))
	all = append(all, external...)
	all = append(all, internal...)

	// Phase 2: sensory gating.
	var surviving []gatedEvent
	for _, e := range all {
		recent := s.deps.Ring.Recent(s.deps.Params.ContextRecentEntries)
		sal, _ := s.deps.Gate.Score(e, recent)
		if sal.BelowNoiseFloor {
			continue
		}
		surviving = append(surviving, gatedEvent{event: e, salience: sal})
	}

	// Phase 3: route. Urgent-bypass events sort first; among events with the
	// same bypass flag, external dialogue precedes internal signals.
	sort.SliceStable(surviving, func(i, j int) bool {
		a, b := surviving[i], surviving[j]
		if a.salience.UrgentBypass != b.salience.UrgentBypass {
			return a.salience.UrgentBypass
		}
		aExternal := a.event.Source == models.EventSourceExternal
		bExternal := b.event.Source == models.EventSourceExternal
		return aExternal && !bExternal
	})

	if !hadExternal && !hadInternal {
		s.deps.Affect.OnIdleTick()
	}
	s.deps.Affect.DecayTick()

	for _, g := range surviving {
		if !g.event.IsDialogue() {
			continue // system events dispatch directly to handlers (spec §4.1 phase 3); none wired in v1
		}
		s.setDialogueActive(true)
		s.handleDialogueEvent(ctx, g.event)
		s.setDialogueActive(false)
	}

	if s.deps.Guardian != nil {
		s.deps.Guardian.RecordHealthyTick()
	}

	return hadExternal, hadInternal
}

// handleDialogueEvent runs phases 4-8 for one dialogue event.
func (s *Scheduler) handleDialogueEvent(ctx context.Context, event models.SensoryEvent) {
	tickCtx, _, release := s.ctxVer.Derive(ctx)
	defer release()

	if err := s.deps.Tokens.Admit(); err != nil {
		s.logger.Warn("scheduler: LLM call admission denied", "error", err)
		return
	}
	s.deps.Affect.OnLLMCall()

	// Phases 4-6: unified response pipeline + execution policy + action.
	result, err := s.deps.Pipeline.Handle(tickCtx, event, s.selfContextSummary(), s.deps.LLMConfigured)
	if err != nil {
		s.deps.Affect.OnError()
		s.logger.Error("scheduler: pipeline failed", "error", err)
	}
	s.deps.Tokens.RecordUsage(estimateResponseTokens(result.Text))

	// Phase 7: self-critic.
	outcome := s.critique(ctx, event, result, err)

	// Phase 8: memory write.
	s.writeMemory(ctx, event, result, outcome)
}

func (s *Scheduler) selfContextSummary() string {
	energy := s.deps.Affect.Current()
	return "mode=" + string(s.currentMode()) + " energy=" + formatEnergy(energy.Energy)
}
