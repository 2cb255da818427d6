package models

import "time"

// ContextEntry is one slot in the bounded working-memory ring (spec §3,
// Working memory entry; §4.6). The ring holds at most
// config.Params.WorkingRingCapacity entries across at most
// config.Params.WorkingRingMaxTopics distinct topics.
type ContextEntry struct {
	TopicID    string
	Content    string
	Embedding  []float32
	Salience   float64
	LastAccess time.Time
	PinnedBy   string // scoped hold owner; "" if unpinned
}

// EvictionScore implements spec §3's eviction formula:
//
//	e = (now - last_access) / TTL - 0.3 * salience
//
// The ring evicts the entry with the highest e when over capacity.
func (c ContextEntry) EvictionScore(now time.Time, ttl time.Duration) float64 {
	if c.PinnedBy != "" {
		return -1 // pinned entries are never the eviction candidate
	}
	age := now.Sub(c.LastAccess).Seconds()
	return age/ttl.Seconds() - 0.3*c.Salience
}

// Episode is a consolidation unit: a batch of working-memory entries
// flushed to durable storage (spec §4.6), mirrored by
// database.EpisodeRecord once persisted.
type Episode struct {
	UtteranceID string
	Summary     string
	Entries     []ContextEntry
	OccurredAt  time.Time
}

// KnowledgeFact is a semantic-consolidation output: a durable fact distilled
// from one or more episodes (spec §4.6), mirrored by
// database.KnowledgeRecord once persisted.
type KnowledgeFact struct {
	Content    string
	Embedding  []float32
	SourceIDs  []string
	Confidence float64
}
