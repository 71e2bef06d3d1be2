package events

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	// sendBuffer is how many events a client may fall behind before it is dropped.
	sendBuffer = 16
	writeWait  = 10 * time.Second
)

// Conn is the subset of a websocket connection the hub writes to.
// Close must be safe to call while WriteJSON is in progress.
type Conn interface {
	WriteJSON(v interface{}) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

// client owns one connection. Only its writer goroutine calls WriteJSON.
type client struct {
	conn Conn
	send chan Event
}

// Hub tracks open connections per user and pushes events to the recipient's connections.
// Publish never waits on the network.
type Hub struct {
	mu      sync.Mutex
	clients map[string]map[Conn]*client
}

func NewHub() *Hub {
	return &Hub{clients: make(map[string]map[Conn]*client)}
}

// Register adds conn to userID's connections and starts its writer.
func (h *Hub) Register(userID string, conn Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[userID] == nil {
		h.clients[userID] = make(map[Conn]*client)
	}
	if _, ok := h.clients[userID][conn]; ok {
		return
	}
	c := &client{conn: conn, send: make(chan Event, sendBuffer)}
	h.clients[userID][conn] = c
	go h.writePump(userID, c)
}

// Unregister removes conn. Its writer flushes what is queued, then closes conn.
func (h *Hub) Unregister(userID string, conn Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if c, ok := h.clients[userID][conn]; ok {
		h.remove(userID, c)
	}
}

// remove must be called with h.mu held.
func (h *Hub) remove(userID string, c *client) {
	if h.clients[userID][c.conn] != c {
		return
	}
	delete(h.clients[userID], c.conn)
	if len(h.clients[userID]) == 0 {
		delete(h.clients, userID)
	}
	close(c.send)
}

// Connections reports how many connections userID has open.
func (h *Hub) Connections(userID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients[userID])
}

// Publish queues e on every connection of its recipient. A client whose buffer is full
// is dropped and its connection closed.
func (h *Hub) Publish(_ context.Context, e Event) error {
	userID := e.Recipient.Hex()

	h.mu.Lock()
	defer h.mu.Unlock()
	for _, c := range h.clients[userID] {
		select {
		case c.send <- e:
		default:
			logrus.WithField("userID", userID).Warn("Dropping slow websocket client")
			h.remove(userID, c)
			_ = c.conn.Close()
		}
	}
	return nil
}

func (h *Hub) writePump(userID string, c *client) {
	defer c.conn.Close()
	for e := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteJSON(e); err != nil {
			logrus.WithError(err).WithField("userID", userID).Warn("Dropping websocket client")
			h.mu.Lock()
			h.remove(userID, c)
			h.mu.Unlock()
			return
		}
	}
}
