// Package live pushes ship updates to connected browsers over a websocket.
package live

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/papaburgs/spacegui/internal/metrics"
)

// Event is what browsers receive. They re-fetch the sidebar and fleet
// partials when one arrives.
type Event struct {
	Type   string `json:"type"`
	Symbol string `json:"symbol,omitempty"`
	Status string `json:"status,omitempty"`
	Action string `json:"action,omitempty"`
}

// Hub keeps the set of connected clients and fans broadcasts out to them.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	metrics    *metrics.Metrics

	mu sync.RWMutex
}

func NewHub(m *metrics.Metrics) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		metrics:    m,
	}
}

// Run is the hub loop. Clients still connected when ctx ends are closed.
func (h *Hub) Run(ctx context.Context) {
	l := slog.With("function", "live.Hub.Run")
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for c := range h.clients {
				delete(h.clients, c)
				close(c.send)
			}
			h.mu.Unlock()
			h.gauge()
			return

		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = true
			n := len(h.clients)
			h.mu.Unlock()
			h.gauge()
			l.Info("client connected", "client", c.id, "clients", n)

		case c := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
				l.Info("client disconnected", "client", c.id, "clients", len(h.clients))
			}
			h.mu.Unlock()
			h.gauge()

		case msg := <-h.broadcast:
			h.fanOut(msg)
		}
	}
}

// fanOut drops any client whose send buffer is full.
func (h *Hub) fanOut(msg []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
			close(c.send)
			delete(h.clients, c)
			slog.Warn("client send buffer full, dropping", "client", c.id)
		}
	}
	if h.metrics != nil {
		h.metrics.LiveClients.Set(float64(len(h.clients)))
	}
}

// Publish queues an event for every client. It never blocks; when the
// broadcast queue is full the event is dropped.
func (h *Hub) Publish(e Event) {
	if h == nil {
		return
	}
	b, err := json.Marshal(e)
	if err != nil {
		slog.Error("could not encode live event", "error", err)
		return
	}
	select {
	case h.broadcast <- b:
	default:
		slog.Warn("live broadcast queue full, dropping event", "type", e.Type, "symbol", e.Symbol)
	}
}

// ShipChanged announces that a ship's state moved on the server.
func (h *Hub) ShipChanged(symbol, status, action string) {
	h.Publish(Event{Type: "ship", Symbol: symbol, Status: status, Action: action})
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) gauge() {
	if h.metrics != nil {
		h.metrics.LiveClients.Set(float64(h.ClientCount()))
	}
}
