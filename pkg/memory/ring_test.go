package memory

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iris-runtime/iris/pkg/config"
	"github.com/iris-runtime/iris/pkg/models"
)

func TestRing_EvictsOverCapacity(t *testing.T) {
	params := config.DefaultParams()
	params.WorkingRingCapacity = 2
	params.WorkingRingMaxTopics = 8
	params.WorkingRingTTL = time.Hour
	ring := NewRing(params)

	ring.Put(models.ContextEntry{TopicID: "a", Salience: 0.1})
	time.Sleep(time.Millisecond)
	ring.Put(models.ContextEntry{TopicID: "b", Salience: 0.9})
	time.Sleep(time.Millisecond)
	ring.Put(models.ContextEntry{TopicID: "c", Salience: 0.5})

	recent := ring.Recent(10)
	assert.Len(t, recent, 2)
}

func TestRing_EvictsOverTopicCap(t *testing.T) {
	params := config.DefaultParams()
	params.WorkingRingCapacity = 100
	params.WorkingRingMaxTopics = 2
	params.WorkingRingTTL = time.Hour
	ring := NewRing(params)

	ring.Put(models.ContextEntry{TopicID: "topic-a", Salience: 0.1})
	time.Sleep(time.Millisecond)
	ring.Put(models.ContextEntry{TopicID: "topic-b", Salience: 0.9})
	time.Sleep(time.Millisecond)
	ring.Put(models.ContextEntry{TopicID: "topic-c", Salience: 0.5})

	topics := make(map[string]struct{})
	for _, e := range ring.Recent(100) {
		topics[e.TopicID] = struct{}{}
	}
	assert.LessOrEqual(t, len(topics), 2)
}

func TestRing_PinShieldsFromEviction(t *testing.T) {
	params := config.DefaultParams()
	params.WorkingRingCapacity = 1
	params.WorkingRingMaxTopics = 8
	params.WorkingRingTTL = time.Hour
	ring := NewRing(params)

	slotID := ring.Put(models.ContextEntry{TopicID: "pinned", Salience: 0.0})
	release := ring.Pin(slotID, "test-holder")
	defer release()

	ring.Put(models.ContextEntry{TopicID: "other", Salience: 0.9})

	found := false
	for _, e := range ring.Recent(10) {
		if e.TopicID == "pinned" {
			found = true
		}
	}
	assert.True(t, found, "pinned entry should survive eviction")
}

func TestRing_PinRelease_AllowsEviction(t *testing.T) {
	params := config.DefaultParams()
	params.WorkingRingCapacity = 1
	params.WorkingRingMaxTopics = 8
	params.WorkingRingTTL = time.Hour
	ring := NewRing(params)

	slotID := ring.Put(models.ContextEntry{TopicID: "was-pinned", Salience: 0.0})
	release := ring.Pin(slotID, "test-holder")
	release()
	release() // calling twice must be a safe no-op

	ring.Put(models.ContextEntry{TopicID: "newer", Salience: 0.9})

	recent := ring.Recent(10)
	require.Len(t, recent, 1)
	assert.Equal(t, "newer", recent[0].TopicID)
}
