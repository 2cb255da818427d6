package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
)

// ContextVersion is a monotonic counter bumped whenever a new user utterance
// arrives (spec §4.1 phase 1). In-flight inference started under an older
// version observes the bump through its derived context.Context and aborts
// at its next suspension point (SPEC_FULL.md §10, "context_version").
type ContextVersion struct {
	current int64

	mu     sync.Mutex
	nextID uint64
	active map[int64]map[uint64]context.CancelFunc // version -> task id -> cancel
}

// NewContextVersion starts at version 0.
func NewContextVersion() *ContextVersion {
	return &ContextVersion{active: make(map[int64]map[uint64]context.CancelFunc)}
}

// Current returns the current version.
func (v *ContextVersion) Current() int64 {
	return atomic.LoadInt64(&v.current)
}

// Bump increments the version and cancels every context derived under an
// older version.
func (v *ContextVersion) Bump() int64 {
	next := atomic.AddInt64(&v.current, 1)

	v.mu.Lock()
	var stale []context.CancelFunc
	for version, tasks := range v.active {
		if version < next {
			for _, cancel := range tasks {
				stale = append(stale, cancel)
			}
			delete(v.active, version)
		}
	}
	v.mu.Unlock()

	for _, cancel := range stale {
		cancel()
	}
	return next
}

// Derive returns a context tied to the version current at call time: it is
// canceled the moment Bump() moves past that version. release must be
// called once the work finishes, whether it completed or was canceled.
func (v *ContextVersion) Derive(parent context.Context) (ctx context.Context, version int64, release func()) {
	version = v.Current()
	ctx, cancel := context.WithCancel(parent)

	v.mu.Lock()
	v.nextID++
	taskID := v.nextID
	if v.active[version] == nil {
		v.active[version] = make(map[uint64]context.CancelFunc)
	}
	v.active[version][taskID] = cancel
	v.mu.Unlock()

	release = func() {
		v.mu.Lock()
		if tasks, ok := v.active[version]; ok {
			delete(tasks, taskID)
			if len(tasks) == 0 {
				delete(v.active, version)
			}
		}
		v.mu.Unlock()
		cancel()
	}
	return ctx, version, release
}
