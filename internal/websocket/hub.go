// Package websocket pushes live order-board updates to connected
// cashier consoles. Every console sees every event; the board reloads
// the order it cares about from the payload.
package websocket

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/finjaanapp/finjaan/internal/model"
)

// Event is a board update broadcast to all connected consoles.
type Event struct {
	Type    string       `json:"type"`
	OrderID int64        `json:"order_id,omitempty"`
	Status  string       `json:"status,omitempty"`
	Order   *model.Order `json:"order,omitempty"`
}

// OrderCreated announces a fresh checkout with the full order attached.
func OrderCreated(o *model.Order) Event {
	return Event{Type: "order_created", OrderID: o.ID, Status: string(o.Status), Order: o}
}

// OrderUpdated announces a status change.
func OrderUpdated(o *model.Order) Event {
	return Event{Type: "order_updated", OrderID: o.ID, Status: string(o.Status), Order: o}
}

// Hub tracks connected consoles and fans events out to them.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	logger  *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients: make(map[*Client]struct{}),
		logger:  logger,
	}
}

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()
	h.logger.Debug("console connected", "clients", n)
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	n := len(h.clients)
	h.mu.Unlock()
	h.logger.Debug("console disconnected", "clients", n)
}

// Broadcast marshals the event once and delivers it to every console.
// A console with a full buffer misses the event rather than blocking
// the sender; the board resyncs on its next poll.
func (h *Hub) Broadcast(ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		h.logger.Error("marshal board event", "type", ev.Type, "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.clients {
		select {
		case c.send <- data:
		default:
		}
	}
}

// ClientCount returns the number of connected consoles.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
