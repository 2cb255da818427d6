// Package affect implements the single-writer affect actor holding Iris's
// three-scalar emotional state (spec §4.8).
package affect

import (
	"sync"

	"github.com/iris-runtime/iris/pkg/config"
)

// State is the three-scalar affect state, each in [0, 1] (spec §3, Affect
// state).
type State struct {
	Energy  float64
	Valence float64
	Arousal float64
}

// Actor is the single writer of affect State; every update goes through one
// of its methods, which clamp to [0, 1] and broadcast the new value on a
// watch channel (spec §4.8: "State is broadcast via a watch channel;
// multiple readers see the latest value only").
type Actor struct {
	params *config.Params

	mu    sync.Mutex
	state State

	watchMu sync.Mutex
	watch   chan State
}

// NewActor builds an Actor starting at the documented neutral defaults:
// mid energy, neutral valence, low arousal.
func NewActor(params *config.Params) *Actor {
	a := &Actor{
		params: params,
		state:  State{Energy: 0.6, Valence: 0.5, Arousal: 0.1},
		watch:  make(chan State, 1),
	}
	a.publish()
	return a
}

// Watch returns a channel that always holds the most recent State; readers
// drain it with a non-blocking receive-then-read-again pattern, so a slow
// reader only ever sees the latest value, never a backlog (spec §4.8).
func (a *Actor) Watch() <-chan State {
	a.watchMu.Lock()
	defer a.watchMu.Unlock()
	return a.watch
}

// Current returns the current state.
func (a *Actor) Current() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// OnLLMCall applies the per-LLM-call energy cost (spec §4.8: "per LLM call
// energy -= 0.03").
func (a *Actor) OnLLMCall() { a.update(func(s *State) { s.Energy -= a.params.AffectEnergyPerLLMCall }) }

// OnIdleTick applies the per-idle-tick energy recovery (spec §4.8: "per
// idle tick energy += 0.02").
func (a *Actor) OnIdleTick() { a.update(func(s *State) { s.Energy += a.params.AffectEnergyPerIdleTick }) }

// OnCapabilityConfirmed applies the valence boost on a confirmed capability
// (spec §4.8: "on confirmed capability valence += 0.10").
func (a *Actor) OnCapabilityConfirmed() {
	a.update(func(s *State) { s.Valence += a.params.AffectValencePerConfirm })
}

// OnError applies the valence penalty on error (spec §4.8: "on error
// -= 0.15").
func (a *Actor) OnError() { a.update(func(s *State) { s.Valence -= a.params.AffectValencePerError }) }

// OnCriticalPressure applies the arousal spike on a critical resource
// pressure event (spec §4.8: "on critical pressure event arousal += 0.30").
func (a *Actor) OnCriticalPressure() {
	a.update(func(s *State) { s.Arousal += a.params.AffectArousalPerCritical })
}

// DecayTick applies arousal's per-tick decay (spec §4.8: "decaying ×0.95
// per tick"); call once per scheduler tick regardless of mode.
func (a *Actor) DecayTick() {
	a.update(func(s *State) { s.Arousal *= a.params.AffectArousalDecayPerTick })
}

func (a *Actor) update(mutate func(*State)) {
	a.mu.Lock()
	mutate(&a.state)
	a.state.Energy = clamp01(a.state.Energy)
	a.state.Valence = clamp01(a.state.Valence)
	a.state.Arousal = clamp01(a.state.Arousal)
	a.mu.Unlock()
	a.publish()
}

// publish drains any stale value and pushes the current state, so the
// channel never holds more than the latest sample.
func (a *Actor) publish() {
	a.watchMu.Lock()
	defer a.watchMu.Unlock()
	select {
	case <-a.watch:
	default:
	}
	a.watch <- a.Current()
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
