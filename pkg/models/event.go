// Package models holds the data types shared across Iris's subsystems
// (spec §3): sensory events, salience, working-memory context entries,
// action plans and outcomes. Centralizing them here — rather than letting
// each owning package declare its own — avoids import cycles between
// pkg/sensory, pkg/cognition, pkg/memory, and pkg/scheduler, all of which
// need to read and write the same records.
package models

import "time"

// EventSource is where a sensory event originated (spec §3, Sensory event).
type EventSource string

const (
	// EventSourceExternal is a user-typed utterance from the terminal UI.
	EventSourceExternal EventSource = "external"
	// EventSourceInternal is a spontaneous thought emitted by a background
	// worker (e.g. the replay worker).
	EventSourceInternal EventSource = "internal"
	// EventSourceSystem is a system-level signal (e.g. a capability state
	// change) dispatched directly to a handler, bypassing dialogue routing.
	EventSourceSystem EventSource = "system"
)

// SensoryEvent is one unit of input to a tick (spec §3, Sensory event).
// Created by an I/O edge, consumed once per tick by the sensory gate.
type SensoryEvent struct {
	Source      EventSource
	Content     string
	UtteranceID string // opaque 128-bit identifier, typically a uuid
	Timestamp   time.Time
}

// IsDialogue reports whether this event should be routed through the
// unified response pipeline rather than dispatched directly to a system
// handler (spec §4.1 phase 3, "Route").
func (e SensoryEvent) IsDialogue() bool {
	return e.Source == EventSourceExternal || e.Source == EventSourceInternal
}
