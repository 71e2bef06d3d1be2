package handlers

import (
	"net/http"
	"time"

	"github.com/Dias221467/friendconnect/internal/events"
	"github.com/Dias221467/friendconnect/pkg/logger"
	"github.com/gorilla/websocket"
)

const (
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

// EventsHandler streams the caller's domain events over a websocket.
type EventsHandler struct {
	Hub      *events.Hub
	upgrader websocket.Upgrader
}

// NewEventsHandler accepts websocket upgrades from allowedOrigins; an empty list allows any origin.
func NewEventsHandler(hub *events.Hub, allowedOrigins []string) *EventsHandler {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}
	return &EventsHandler{
		Hub: hub,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return len(allowed) == 0 || origin == "" || allowed[origin]
			},
		},
	}
}

// EventsWebSocketHandler registers the connection with the hub until the client goes away.
// The server only writes; client messages are read and discarded to process control frames.
func (h *EventsHandler) EventsWebSocketHandler(w http.ResponseWriter, r *http.Request) {
	caller, ok := currentUser(w, r)
	if !ok {
		return
	}
	userID := caller.Hex()

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Log.WithError(err).Warn("WebSocket upgrade failed")
		return
	}

	h.Hub.Register(userID, conn)
	logger.Log.WithField("userID", userID).Info("WebSocket connected")

	done := make(chan struct{})
	defer func() {
		close(done)
		h.Hub.Unregister(userID, conn)
		conn.Close()
		logger.Log.WithField("userID", userID).Info("WebSocket disconnected")
	}()

	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	go func() {
		ticker := time.NewTicker(pingPeriod)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(time.Second)); err != nil {
					return
				}
			case <-done:
				return
			}
		}
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
