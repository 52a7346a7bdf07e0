// Package ws delivers notification events to connected browsers over
// websockets. Each authenticated user may hold any number of connections;
// pushes fan out to all of them.
package ws

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/fracto-health/fracto/libs/httpx"
)

// Event is the wire frame pushed to clients.
type Event struct {
	Type    string `json:"type"`
	ID      string `json:"id"`
	Message string `json:"message"`
	IsRead  bool   `json:"isRead"`
}

type client struct {
	userID string
	send   chan []byte
}

// Hub tracks connections per user id. All operations are safe for
// concurrent use.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]map[*client]struct{}
	logger  *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients: make(map[string]map[*client]struct{}),
		logger:  logger,
	}
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[c.userID] == nil {
		h.clients[c.userID] = make(map[*client]struct{})
	}
	h.clients[c.userID][c] = struct{}{}
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	conns, ok := h.clients[c.userID]
	if !ok {
		return
	}
	if _, ok := conns[c]; !ok {
		return
	}
	delete(conns, c)
	if len(conns) == 0 {
		delete(h.clients, c.userID)
	}
	close(c.send)
}

// Push sends an event to every connection held by userID. A connection whose
// buffer is full is skipped so one slow client cannot stall the hub. Users
// with no open connection are silently ignored.
func (h *Hub) Push(userID string, event Event) {
	data, err := json.Marshal(event)
	if err != nil {
		h.logger.Error("ws marshal failed", "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients[userID] {
		select {
		case c.send <- data:
		default:
		}
	}
}

// ConnectionCount reports open connections for a user. Used by tests and the
// readiness probe.
func (h *Hub) ConnectionCount(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// ServeHTTP upgrades the request to a websocket and binds the connection to
// the authenticated user. Must run behind RequireAuth; browsers cannot set an
// Authorization header on the upgrade request, so the token arrives as a
// query parameter.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	claims := httpx.ClaimsFromContext(r.Context())
	if claims == nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("ws upgrade failed", "error", err, "user_id", claims.Sub)
		return
	}

	c := &client{userID: claims.Sub, send: make(chan []byte, 64)}
	h.register(c)
	h.logger.Info("ws connected", "user_id", c.userID)

	go h.writePump(c, conn)
	go h.readPump(c, conn)
}

func (h *Hub) readPump(c *client, conn *websocket.Conn) {
	defer func() {
		h.unregister(c)
		conn.Close()
		h.logger.Info("ws disconnected", "user_id", c.userID)
	}()
	for {
		// Inbound frames are discarded; the socket is push only. Reading
		// still matters: it surfaces the close frame.
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writePump(c *client, conn *websocket.Conn) {
	defer conn.Close()
	for msg := range c.send {
		if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
	conn.WriteMessage(websocket.CloseMessage, []byte{})
}
