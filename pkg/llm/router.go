package llm

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/iris-runtime/iris/pkg/config"
	"github.com/iris-runtime/iris/pkg/errkind"
)

// prefixRoute maps a model-name prefix to the provider class it resolves to
// (spec §4.5).
type prefixRoute struct {
	prefix string
	class  config.LLMProviderType
}

var prefixRoutes = []prefixRoute{
	{"claude-", config.LLMProviderTypeAnthropic},
	{"gpt-", config.LLMProviderTypeOpenAI},
	{"o1-", config.LLMProviderTypeOpenAI},
	{"o3-", config.LLMProviderTypeOpenAI},
	{"o4-", config.LLMProviderTypeOpenAI},
	{"gemini-", config.LLMProviderTypeGoogle},
	{"deepseek-", config.LLMProviderTypeDeepSeek},
}

// classify resolves a model name to the provider class that serves it
// (spec §4.5); anything unmatched is LLMProviderTypeUnknown, served by the
// OpenAI-compatible shape.
func classify(model string) config.LLMProviderType {
	for _, r := range prefixRoutes {
		if strings.HasPrefix(model, r.prefix) {
			return r.class
		}
	}
	return config.LLMProviderTypeUnknown
}

// entry tracks one provider's live Provider plus its failure-accounting
// state (spec §4.5, "Failure accounting").
type entry struct {
	provider Provider
	cfg      *config.LLMProviderConfig

	mu                  sync.Mutex
	consecutiveFailures int
	unavailable         bool
}

// Router dispatches GenerateRequests to providers by model-name prefix,
// tracking per-provider consecutive failures and running a recovery probe
// for any provider it has marked unavailable (spec §4.5).
type Router struct {
	params    *config.Params
	registry  *config.LLMProviderRegistry
	providers map[config.LLMProviderType]*entry
	mu        sync.RWMutex
	logger    *slog.Logger

	cancel context.CancelFunc
	done   chan struct{}
}

// NewRouter builds providers for every active entry in registry and starts
// no background work yet; call Start to begin the recovery probe loop.
func NewRouter(ctx context.Context, params *config.Params, registry *config.LLMProviderRegistry) (*Router, error) {
	r := &Router{
		params:    params,
		registry:  registry,
		providers: make(map[config.LLMProviderType]*entry),
		logger:    slog.Default(),
	}

	for name, cfg := range registry.GetAll() {
		if !cfg.Active {
			continue
		}
		if cur, ok := r.providers[cfg.Type]; ok && cur.cfg.Priority <= cfg.Priority {
			continue
		}
		provider, err := buildProvider(ctx, cfg)
		if err != nil {
			r.logger.Error("llm: failed to build provider, skipping", "provider", name, "error", err)
			continue
		}
		r.providers[cfg.Type] = &entry{provider: provider, cfg: cfg}
	}

	return r, nil
}

func buildProvider(ctx context.Context, cfg *config.LLMProviderConfig) (Provider, error) {
	switch cfg.Type {
	case config.LLMProviderTypeAnthropic:
		return newAnthropicProvider(cfg.APIKeyEnv, cfg.BaseURL, cfg.Model), nil
	case config.LLMProviderTypeGoogle:
		return newGoogleProvider(ctx, cfg.APIKeyEnv, "GOOGLE_API_KEY", cfg.Model)
	case config.LLMProviderTypeDeepSeek:
		return newOpenAIProvider(cfg.APIKeyEnv, "DEEPSEEK_API_KEY", cfg.BaseURL, cfg.Model), nil
	case config.LLMProviderTypeOpenAI, config.LLMProviderTypeUnknown:
		return newOpenAIProvider(cfg.APIKeyEnv, "OPENAI_API_KEY", cfg.BaseURL, cfg.Model), nil
	default:
		return newOpenAIProvider(cfg.APIKeyEnv, "OPENAI_API_KEY", cfg.BaseURL, cfg.Model), nil
	}
}

// Start launches the 60 s recovery-probe loop (spec §4.5, "A probe task
// attempts a minimal call every 60 s").
func (r *Router) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.done = make(chan struct{})

	go func() {
		defer close(r.done)
		ticker := time.NewTicker(r.params.ProviderProbeInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				r.probeUnavailable(ctx)
			}
		}
	}()
}

// Stop halts the probe loop and waits for it to exit.
func (r *Router) Stop() {
	if r.cancel == nil {
		return
	}
	r.cancel()
	<-r.done
}

func (r *Router) probeUnavailable(ctx context.Context) {
	r.mu.RLock()
	entries := make([]*entry, 0, len(r.providers))
	for _, e := range r.providers {
		entries = append(entries, e)
	}
	r.mu.RUnlock()

	for _, e := range entries {
		e.mu.Lock()
		down := e.unavailable
		e.mu.Unlock()
		if !down {
			continue
		}

		probeCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		_, err := e.provider.Generate(probeCtx, GenerateRequest{
			Model:    e.cfg.Model,
			Messages: []Message{{Role: RoleUser, Content: "ping"}},
		})
		cancel()

		e.mu.Lock()
		if err == nil {
			e.unavailable = false
			e.consecutiveFailures = 0
			r.logger.Info("llm: provider recovered", "type", e.cfg.Type)
		}
		e.mu.Unlock()
	}
}

// Generate resolves req.Model (or the provider's LiteModel when req.Lite is
// set and configured) to a provider by prefix and dispatches the call.
// No cross-provider fallback: an unavailable provider fails the request
// outright (spec §4.5).
func (r *Router) Generate(ctx context.Context, req GenerateRequest) (<-chan Chunk, error) {
	class := classify(req.Model)

	r.mu.RLock()
	e, ok := r.providers[class]
	r.mu.RUnlock()
	if !ok {
		return nil, errkind.Newf(errkind.Capability, "llm: no active provider for model %q", req.Model)
	}

	e.mu.Lock()
	if e.unavailable {
		e.mu.Unlock()
		return nil, errkind.Newf(errkind.Capability, "llm: provider %s unavailable after %d consecutive failures", e.cfg.Type, r.params.ProviderFailureThreshold)
	}
	e.mu.Unlock()

	if req.Lite {
		if e.cfg.LiteModel != "" {
			req.Model = e.cfg.LiteModel
		} else if req.Model == "" {
			req.Model = e.cfg.Model
		}
	}

	chunks, err := e.provider.Generate(ctx, req)
	if err != nil {
		r.recordFailure(e)
		return nil, err
	}

	out := make(chan Chunk, 16)
	go func() {
		defer close(out)
		failed := false
		for c := range chunks {
			if c.Type == ChunkTypeError {
				failed = true
			}
			out <- c
		}
		if failed {
			r.recordFailure(e)
		} else {
			r.recordSuccess(e)
		}
	}()
	return out, nil
}

func (r *Router) recordFailure(e *entry) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.consecutiveFailures++
	if e.consecutiveFailures >= r.params.ProviderFailureThreshold {
		if !e.unavailable {
			r.logger.Warn("llm: provider marked unavailable", "type", e.cfg.Type, "failures", e.consecutiveFailures)
		}
		e.unavailable = true
	}
}

func (r *Router) recordSuccess(e *entry) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.consecutiveFailures = 0
}
