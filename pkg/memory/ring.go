// Package memory implements Iris's working-memory ring, episodic store,
// semantic consolidation, and replay (spec §4.6).
package memory

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/iris-runtime/iris/pkg/config"
	"github.com/iris-runtime/iris/pkg/errkind"
	"github.com/iris-runtime/iris/pkg/models"
)

// Ring is the bounded working-memory store: at most
// config.Params.WorkingRingCapacity entries spread across at most
// config.Params.WorkingRingMaxTopics distinct topics, evicting the entry
// with the highest eviction score on overflow of either cap (spec §4.6).
// Entries are keyed by a generated slot id rather than topic id, since a
// topic accumulates many entries over its lifetime in working memory.
type Ring struct {
	params *config.Params

	mu      sync.Mutex
	entries map[string]*models.ContextEntry // keyed by slot id
}

// NewRing builds an empty working ring.
func NewRing(params *config.Params) *Ring {
	return &Ring{params: params, entries: make(map[string]*models.ContextEntry)}
}

// Put inserts entry under a new slot id, refreshing LastAccess, then
// evicts until both caps are satisfied.
func (r *Ring) Put(entry models.ContextEntry) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry.LastAccess = time.Now()
	slotID := uuid.NewString()
	r.entries[slotID] = &entry

	r.evictLocked()
	return slotID
}

// Touch refreshes a slot's last-access timestamp without changing content,
// the "mutated on access" lifecycle step (spec §3, Context entry).
func (r *Ring) Touch(slotID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.entries[slotID]; ok {
		e.LastAccess = time.Now()
	}
}

// Recent returns up to n entries, most-recently-accessed first, for the
// cognition context assembler (spec §4.3, "≤10 recent working-memory
// entries").
func (r *Ring) Recent(n int) []models.ContextEntry {
	r.mu.Lock()
	defer r.mu.Unlock()

	all := make([]models.ContextEntry, 0, len(r.entries))
	for _, e := range r.entries {
		all = append(all, *e)
	}
	sortByRecency(all)
	if len(all) > n {
		all = all[:n]
	}
	return all
}

// Pin acquires an exclusive hold on slotID that shields it from eviction
// regardless of its score (spec §4.6). Returns a release func that must be
// called on every exit path; calling it twice is a safe no-op.
func (r *Ring) Pin(slotID, holder string) (release func()) {
	r.mu.Lock()
	if e, ok := r.entries[slotID]; ok {
		e.PinnedBy = holder
	}
	r.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			r.mu.Lock()
			defer r.mu.Unlock()
			if e, ok := r.entries[slotID]; ok && e.PinnedBy == holder {
				e.PinnedBy = ""
			}
		})
	}
}

// evictLocked drops the highest-e unpinned entry until the entry-count cap
// and the distinct-topic cap are both satisfied. Caller must hold r.mu.
func (r *Ring) evictLocked() {
	for len(r.entries) > r.params.WorkingRingCapacity || r.distinctTopicCountLocked() > r.params.WorkingRingMaxTopics {
		victim, ok := r.highestEvictionScoreLocked()
		if !ok {
			return // everything is pinned; nothing left to evict
		}
		delete(r.entries, victim)
	}
}

func (r *Ring) distinctTopicCountLocked() int {
	topics := make(map[string]struct{}, len(r.entries))
	for _, e := range r.entries {
		topics[e.TopicID] = struct{}{}
	}
	return len(topics)
}

func (r *Ring) highestEvictionScoreLocked() (string, bool) {
	now := time.Now()
	best := ""
	bestScore := -1.0
	found := false
	for id, e := range r.entries {
		if e.PinnedBy != "" {
			continue
		}
		score := e.EvictionScore(now, r.params.WorkingRingTTL)
		if !found || score > bestScore {
			best, bestScore, found = id, score, true
		}
	}
	return best, found
}

func sortByRecency(entries []models.ContextEntry) {
	for i := 1; i < len(entries); i++ {
		for j := i; j > 0 && entries[j].LastAccess.After(entries[j-1].LastAccess); j-- {
			entries[j], entries[j-1] = entries[j-1], entries[j]
		}
	}
}

// ErrTopicNotFound is returned by operations that require an existing entry.
var ErrTopicNotFound = errkind.Newf(errkind.Validation, "memory: topic not found")
