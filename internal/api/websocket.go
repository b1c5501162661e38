package api

import (
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"curve-strategy-lab/internal/observability"
)

// Event types streamed to websocket clients.
const (
	EventTradeExecuted    = "trade_executed"
	EventStrategyComplete = "strategy_complete"
	EventStatus           = "status"
	EventError            = "error"
)

// Event is one message on the live event stream.
type Event struct {
	Type      string `json:"type"`
	Timestamp int64  `json:"timestamp"` // unix milliseconds
	Payload   any    `json:"payload"`
}

const (
	writeTimeout = 10 * time.Second

	// clientBuffer bounds per-client queues; a client that cannot keep
	// up is disconnected rather than blocking the session loop.
	clientBuffer = 64
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The dashboard is served from a different origin in development.
	CheckOrigin: func(*http.Request) bool { return true },
}

// Hub fans live session events out to connected websocket clients.
type Hub struct {
	logger *log.Logger

	mu      sync.Mutex
	clients map[*client]struct{}
}

type client struct {
	conn *websocket.Conn
	send chan Event
}

// NewHub creates an empty hub.
func NewHub(logger *log.Logger) *Hub {
	return &Hub{
		logger:  logger,
		clients: make(map[*client]struct{}),
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Broadcast queues an event for every connected client. Events are
// delivered in broadcast order per client; slow clients are dropped.
func (h *Hub) Broadcast(e Event) {
	if e.Timestamp == 0 {
		e.Timestamp = time.Now().UnixMilli()
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- e:
		default:
			h.logger.Printf("[ws] dropping slow client %s", c.conn.RemoteAddr())
			delete(h.clients, c)
			close(c.send)
			observability.DefaultMetrics.WSClientsConnected.Dec()
		}
	}
}

// handleUpgrade upgrades the connection and starts the client's write
// pump.
func (h *Hub) handleUpgrade(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Printf("[ws] upgrade failed: %v", err)
		return
	}

	c := &client{conn: conn, send: make(chan Event, clientBuffer)}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	observability.DefaultMetrics.WSClientsConnected.Inc()

	go h.writePump(c)
	go h.readPump(c)
}

// writePump serializes queued events onto the connection.
func (h *Hub) writePump(c *client) {
	defer c.conn.Close()

	for e := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := c.conn.WriteJSON(e); err != nil {
			h.remove(c)
			return
		}
	}
}

// readPump discards inbound messages and detects disconnects.
func (h *Hub) readPump(c *client) {
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			h.remove(c)
			return
		}
	}
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
		observability.DefaultMetrics.WSClientsConnected.Dec()
	}
}
