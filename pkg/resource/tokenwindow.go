package resource

import (
	"sync"
	"time"

	"github.com/iris-runtime/iris/pkg/config"
	"github.com/iris-runtime/iris/pkg/errkind"
)

// tokenSample is one LLM call's token cost, timestamped for sliding-window
// expiry.
type tokenSample struct {
	at     time.Time
	tokens int
}

// TokenWindow enforces spec §4.7's LLM token budget: a sliding 60 s window
// capped at 10 000 tokens, plus a 4-calls-per-tick cap.
type TokenWindow struct {
	params *config.Params

	mu         sync.Mutex
	samples    []tokenSample
	tickCalls  int
	tickNumber int64
}

// NewTokenWindow builds a TokenWindow.
func NewTokenWindow(params *config.Params) *TokenWindow {
	return &TokenWindow{params: params}
}

// BeginTick resets the per-tick call counter; call once at the start of
// every scheduler tick.
func (w *TokenWindow) BeginTick() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.tickCalls = 0
	w.tickNumber++
}

// Admit checks whether one more LLM call is allowed this tick and within
// the sliding window, without yet recording it (call RecordUsage after the
// call completes with its actual token cost).
func (w *TokenWindow) Admit() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.tickCalls >= w.params.TickLLMCallCap {
		return errkind.Newf(errkind.Resource, "resource: tick LLM call cap (%d) reached", w.params.TickLLMCallCap)
	}
	if w.windowTotalLocked() >= w.params.TokenWindowCap {
		return errkind.Newf(errkind.Resource, "resource: token window cap (%d) reached", w.params.TokenWindowCap)
	}
	w.tickCalls++
	return nil
}

// RecordUsage logs the actual token cost of a call already admitted.
func (w *TokenWindow) RecordUsage(tokens int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.samples = append(w.samples, tokenSample{at: time.Now(), tokens: tokens})
	w.pruneLocked()
}

func (w *TokenWindow) windowTotalLocked() int {
	w.pruneLocked()
	total := 0
	for _, s := range w.samples {
		total += s.tokens
	}
	return total
}

func (w *TokenWindow) pruneLocked() {
	cutoff := time.Now().Add(-w.params.TokenWindow)
	i := 0
	for i < len(w.samples) && w.samples[i].at.Before(cutoff) {
		i++
	}
	w.samples = w.samples[i:]
}
