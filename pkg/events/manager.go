package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
)

// catchupLimit bounds how many buffered events a newly connected viewer
// replays before switching to live broadcast (spec.md §7: a status viewer
// that connects mid-session should see recent history, not just what
// happens from that point forward).
const catchupLimit = 200

// writeTimeout bounds a single WebSocket send so one slow viewer cannot
// stall Broadcast for everyone else.
const writeTimeout = 5 * time.Second

// Broadcaster fans out Events to every connected status viewer and keeps a
// bounded in-memory catch-up buffer (grounded on the teacher's
// ConnectionManager, simplified: one process, one implicit channel, no
// PostgreSQL LISTEN/NOTIFY cross-pod distribution).
type Broadcaster struct {
	mu          sync.RWMutex
	connections map[string]*connection

	bufMu  sync.Mutex
	buffer []Event
	nextID int
}

type connection struct {
	id     string
	conn   *websocket.Conn
	ctx    context.Context
	cancel context.CancelFunc
}

// NewBroadcaster builds an empty Broadcaster.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{connections: make(map[string]*connection)}
}

// Publish assigns a monotonic ID, appends to the catch-up buffer, and
// broadcasts to every connected viewer.
func (b *Broadcaster) Publish(eventType string, payload map[string]any) {
	b.bufMu.Lock()
	b.nextID++
	event := Event{ID: b.nextID, Type: eventType, Payload: payload, Timestamp: time.Now()}
	b.buffer = append(b.buffer, event)
	if len(b.buffer) > catchupLimit {
		b.buffer = b.buffer[len(b.buffer)-catchupLimit:]
	}
	b.bufMu.Unlock()

	data, err := json.Marshal(event)
	if err != nil {
		slog.Warn("events: failed to marshal event", "type", eventType, "error", err)
		return
	}
	b.broadcastRaw(data)
}

func (b *Broadcaster) broadcastRaw(data []byte) {
	b.mu.RLock()
	conns := make([]*connection, 0, len(b.connections))
	for _, c := range b.connections {
		conns = append(conns, c)
	}
	b.mu.RUnlock()

	for _, c := range conns {
		if err := b.sendRaw(c, data); err != nil {
			slog.Warn("events: failed to send to status viewer", "connection_id", c.id, "error", err)
		}
	}
}

// HandleConnection manages one WebSocket status viewer's lifecycle: replay
// the catch-up buffer, then block reading (and discarding, except "ping")
// client frames until the connection closes.
func (b *Broadcaster) HandleConnection(parentCtx context.Context, conn *websocket.Conn) {
	ctx, cancel := context.WithCancel(parentCtx)
	c := &connection{id: uuid.New().String(), conn: conn, ctx: ctx, cancel: cancel}

	b.register(c)
	defer b.unregister(c)

	b.bufMu.Lock()
	backlog := make([]Event, len(b.buffer))
	copy(backlog, b.buffer)
	b.bufMu.Unlock()
	for _, event := range backlog {
		data, err := json.Marshal(event)
		if err != nil {
			continue
		}
		if err := b.sendRaw(c, data); err != nil {
			return
		}
	}

	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			return
		}
		var msg ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}
		if msg.Action == "ping" {
			b.sendJSON(c, map[string]string{"type": "pong"})
		}
	}
}

// ActiveConnections returns the number of connected status viewers.
func (b *Broadcaster) ActiveConnections() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.connections)
}

func (b *Broadcaster) register(c *connection) {
	b.mu.Lock()
	b.connections[c.id] = c
	b.mu.Unlock()
}

func (b *Broadcaster) unregister(c *connection) {
	b.mu.Lock()
	delete(b.connections, c.id)
	b.mu.Unlock()
	c.cancel()
	_ = c.conn.Close(websocket.StatusNormalClosure, "")
}

func (b *Broadcaster) sendJSON(c *connection, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	_ = b.sendRaw(c, data)
}

func (b *Broadcaster) sendRaw(c *connection, data []byte) error {
	writeCtx, cancel := context.WithTimeout(c.ctx, writeTimeout)
	defer cancel()
	return c.conn.Write(writeCtx, websocket.MessageText, data)
}
