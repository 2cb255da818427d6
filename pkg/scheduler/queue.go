package scheduler

import (
	"log/slog"
	"sync"

	"github.com/iris-runtime/iris/pkg/models"
)

// externalQueue is the bounded external-event inbox (spec §4.1 phase 1,
// "capacity 256, drop-oldest on overflow with a warning").
type externalQueue struct {
	mu       sync.Mutex
	events   []models.SensoryEvent
	capacity int
	logger   *slog.Logger
}

func newExternalQueue(capacity int) *externalQueue {
	return &externalQueue{capacity: capacity, logger: slog.Default()}
}

// Push enqueues event, dropping the oldest queued event if at capacity.
func (q *externalQueue) Push(event models.SensoryEvent) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.events) >= q.capacity {
		q.logger.Warn("scheduler: external queue at capacity, dropping oldest event", "capacity", q.capacity)
		q.events = q.events[1:]
	}
	q.events = append(q.events, event)
}

// DrainAll removes and returns every queued event.
func (q *externalQueue) DrainAll() []models.SensoryEvent {
	q.mu.Lock()
	defer q.mu.Unlock()

	drained := q.events
	q.events = nil
	return drained
}

// Len reports the number of currently queued events.
func (q *externalQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.events)
}
