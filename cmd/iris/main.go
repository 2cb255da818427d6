// Command iris runs the Iris persistent cognitive runtime: boot guardian,
// tick scheduler, and a minimal status server, reading dialogue from
// stdin (spec.md's terminal-conversation surface).
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/iris-runtime/iris/pkg/affect"
	"github.com/iris-runtime/iris/pkg/api"
	"github.com/iris-runtime/iris/pkg/boot"
	"github.com/iris-runtime/iris/pkg/capability"
	"github.com/iris-runtime/iris/pkg/cognition"
	"github.com/iris-runtime/iris/pkg/config"
	"github.com/iris-runtime/iris/pkg/database"
	"github.com/iris-runtime/iris/pkg/events"
	"github.com/iris-runtime/iris/pkg/llm"
	"github.com/iris-runtime/iris/pkg/mcp"
	"github.com/iris-runtime/iris/pkg/memory"
	"github.com/iris-runtime/iris/pkg/models"
	"github.com/iris-runtime/iris/pkg/resource"
	"github.com/iris-runtime/iris/pkg/scheduler"
	"github.com/iris-runtime/iris/pkg/sensory"
)

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func main() {
	configDir := flag.String("config-dir", getEnv("CONFIG_DIR", "./deploy/config"), "Path to configuration directory")
	httpAddr := flag.String("http-addr", getEnv("HTTP_ADDR", ":8080"), "Address for the status HTTP server")
	flag.Parse()

	envPath := filepath.Join(*configDir, ".env")
	if err := godotenv.Load(envPath); err != nil {
		slog.Warn("could not load .env file, continuing with existing environment", "path", envPath, "error", err)
	}

	if err := run(*configDir, *httpAddr); err != nil {
		slog.Error("iris exited with error", "error", err)
		os.Exit(1)
	}
}

func run(configDir, httpAddr string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	slog.Info("starting iris", "config_dir", configDir)

	cfg, err := config.Initialize(ctx, configDir)
	if err != nil {
		return fmt.Errorf("initialize configuration: %w", err)
	}

	dbConfig, err := database.LoadConfigFromEnv()
	if err != nil {
		return fmt.Errorf("load database config: %w", err)
	}
	dbClient, err := database.NewClient(ctx, dbConfig)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			slog.Error("error closing database client", "error", err)
		}
	}()
	slog.Info("connected to database")

	repo := database.NewRepository(dbClient)

	factory := mcp.NewClientFactory(cfg.CapabilityRegistry)
	healthMonitor := mcp.NewHealthMonitor(factory, cfg.CapabilityRegistry)
	capManager := capability.NewManager(cfg.Params, cfg.CapabilityRegistry, repo, factory, healthMonitor)

	guardian := boot.NewGuardian(cfg.Params, repo)

	executor, mcpClient, err := factory.CreateToolExecutor(ctx, cfg.CapabilityRegistry.ServerIDs(), nil)
	if err != nil {
		return fmt.Errorf("create tool executor: %w", err)
	}
	defer func() { _ = mcpClient.Close() }()

	llmRouter, err := llm.NewRouter(ctx, cfg.Params, cfg.LLMProviderRegistry)
	if err != nil {
		return fmt.Errorf("build llm router: %w", err)
	}
	model, llmConfigured := defaultModel(cfg.LLMProviderRegistry)

	ring := memory.NewRing(cfg.Params)
	recaller := memory.NewRecaller(cfg.Params, repo)
	replay := memory.NewReplayWorker(cfg.Params, repo)
	consolidation := memory.NewConsolidationWorker(cfg.Params, repo, llmRouter, model)

	affectActor := affect.NewActor(cfg.Params)
	dataDir := getEnv("DATA_DIR", "./deploy/data")
	pressureMonitor := resource.NewMonitor(cfg.Params, dataDir)
	allocator := resource.NewAllocator(cfg.Params)
	tokens := resource.NewTokenWindow(cfg.Params)

	gate := sensory.NewGate(cfg.Params)

	// Embedding computation is an out-of-scope external collaborator
	// (spec.md Non-goals, SPEC_FULL.md §10): no Embedder is wired, so
	// semantic recall degrades to working-ring-only context assembly.
	assembler := cognition.NewAssembler(cfg.Params, ring, recaller, nil)
	toolGate := cognition.NewToolRoutingGate(llmRouter, model)
	pipeline := cognition.NewPipeline(cfg.Params, assembler, toolGate, llmRouter, executor, model)

	sched := scheduler.New(scheduler.Deps{
		Params:        cfg.Params,
		Repo:          repo,
		Gate:          gate,
		Pipeline:      pipeline,
		Ring:          ring,
		Capabilities:  capManager,
		Affect:        affectActor,
		Pressure:      pressureMonitor,
		Budget:        allocator,
		Tokens:        tokens,
		Guardian:      guardian,
		LLMConfigured: llmConfigured,
	})

	if err := runBootSequence(ctx, guardian, dbClient, capManager); err != nil {
		return fmt.Errorf("boot sequence: %w", err)
	}

	broadcaster := events.NewBroadcaster()
	apiServer := api.NewServer(dbClient, affectActor, pressureMonitor, capManager, guardian, broadcaster, sched)

	healthMonitor.Start(ctx)
	defer healthMonitor.Stop()
	llmRouter.Start(ctx)
	defer llmRouter.Stop()
	go pressureMonitor.Run(ctx, cfg.Params.BudgetReallocInterval)
	go allocator.Run(ctx)
	go consolidation.Run(ctx)
	go replay.Run(ctx, cfg.Params.TickIntervalRest)
	go runPromotionLoop(ctx, capManager, promotionCheckInterval)

	go forwardThoughts(replay.Thoughts(), sched.InternalSink())

	sched.Run(ctx)
	defer sched.Stop()

	go func() {
		if err := apiServer.Start(httpAddr); err != nil {
			slog.Error("status server stopped", "error", err)
		}
	}()

	readStdin(ctx, sched)

	<-ctx.Done()
	slog.Info("shutting down iris")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Params.ShutdownBudget)
	defer cancel()
	_ = apiServer.Shutdown(shutdownCtx)

	return nil
}

// runBootSequence drives the boot guardian through its ordered phases
// (spec §4.9).
func runBootSequence(ctx context.Context, guardian *boot.Guardian, dbClient *database.Client, capManager *capability.Manager) error {
	steps := map[boot.Phase]boot.StepFunc{
		boot.PhaseCoreInit: func(ctx context.Context) error {
			return dbClient.DB().PingContext(ctx)
		},
		boot.PhaseCapabilityLoad: func(ctx context.Context) error {
			return capManager.Hydrate(ctx)
		},
		boot.PhaseEnvironmentSense: func(ctx context.Context) error {
			return nil
		},
		boot.PhaseReady: func(ctx context.Context) error {
			return nil
		},
	}
	return guardian.Run(ctx, steps)
}

// defaultModel picks the main model from the highest-priority active LLM
// provider. Returns llmConfigured=false when no provider is active, at
// which point the cognition pipeline returns the literal no-LLM placeholder
// (spec.md §4.1 phase 6).
func defaultModel(registry *config.LLMProviderRegistry) (model string, llmConfigured bool) {
	type candidate struct {
		name     string
		model    string
		priority int
	}
	var active []candidate
	for name, cfg := range registry.GetAll() {
		if !cfg.Active {
			continue
		}
		active = append(active, candidate{name: name, model: cfg.Model, priority: cfg.Priority})
	}
	if len(active) == 0 {
		return "", false
	}
	sort.Slice(active, func(i, j int) bool {
		if active[i].priority != active[j].priority {
			return active[i].priority < active[j].priority
		}
		return active[i].name < active[j].name
	})
	return active[0].model, true
}

// promotionCheckInterval is how often the promotion loop re-evaluates the
// capability roster. CapabilityHealthyDuration is measured in minutes, so a
// fixed short cadence independent of any other subsystem's tunable is
// enough to catch a newly-eligible capability promptly without adding a
// dedicated config field for it.
const promotionCheckInterval = 30 * time.Second

// runPromotionLoop periodically evaluates active_candidate → confirmed
// promotions (spec §4.4).
func runPromotionLoop(ctx context.Context, capManager *capability.Manager, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			capManager.EvaluatePromotion(ctx)
		}
	}
}

// forwardThoughts relays the replay worker's spontaneous thoughts into the
// scheduler's internal queue until the channel closes.
func forwardThoughts(thoughts <-chan models.SensoryEvent, sink func(models.SensoryEvent)) {
	for thought := range thoughts {
		sink(thought)
	}
}

// readStdin treats each line of stdin as one external dialogue utterance
// (spec.md's terminal-conversation surface), submitting it to the scheduler
// for the next tick's drain phase.
func readStdin(ctx context.Context, sched *scheduler.Scheduler) {
	scanner := bufio.NewScanner(os.Stdin)
	go func() {
		for scanner.Scan() {
			select {
			case <-ctx.Done():
				return
			default:
			}
			line := scanner.Text()
			if line == "" {
				continue
			}
			sched.SubmitExternal(models.SensoryEvent{
				Source:    models.EventSourceExternal,
				Content:   line,
				Timestamp: time.Now(),
			})
		}
	}()
}
