package memory

import (
	"crypto/sha256"
	"sync"
)

// EmbeddingCache caches embeddings keyed by content hash, so semantic
// recall doesn't recompute cosine similarity against working-ring entries
// whose content hasn't changed (SPEC_FULL.md §10, "embedding_cache").
// Same guarded-map shape as pkg/mcp.Client's tool cache
// (toolCache/toolCacheMu): a plain map behind a RWMutex, sized by eviction
// on access rather than a background sweep.
type EmbeddingCache struct {
	mu       sync.RWMutex
	entries  map[[32]byte][]float32
	accessed map[[32]byte]int
	clock    int
	capacity int
}

// NewEmbeddingCache builds a cache holding at most capacity embeddings.
func NewEmbeddingCache(capacity int) *EmbeddingCache {
	return &EmbeddingCache{
		entries:  make(map[[32]byte][]float32),
		accessed: make(map[[32]byte]int),
		capacity: capacity,
	}
}

// Get returns the cached embedding for content, if present.
func (c *EmbeddingCache) Get(content string) ([]float32, bool) {
	key := hashContent(content)

	c.mu.Lock()
	defer c.mu.Unlock()
	emb, ok := c.entries[key]
	if ok {
		c.clock++
		c.accessed[key] = c.clock
	}
	return emb, ok
}

// Put stores embedding for content, evicting the least-recently-accessed
// entry if the cache is at capacity.
func (c *EmbeddingCache) Put(content string, embedding []float32) {
	key := hashContent(content)

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.capacity {
		c.evictLRULocked()
	}
	c.entries[key] = embedding
	c.clock++
	c.accessed[key] = c.clock
}

func (c *EmbeddingCache) evictLRULocked() {
	var oldestKey [32]byte
	oldest := int(^uint(0) >> 1)
	found := false
	for k, t := range c.accessed {
		if !found || t < oldest {
			oldestKey, oldest, found = k, t, true
		}
	}
	if found {
		delete(c.entries, oldestKey)
		delete(c.accessed, oldestKey)
	}
}

func hashContent(content string) [32]byte {
	return sha256.Sum256([]byte(content))
}
