// Package stream fans ingested points and fired notifications out to
// connected WebSocket clients.
package stream

import (
	"encoding/json"
	"log/slog"
	"sync"
)

// Hub maintains the set of active clients and broadcasts envelope-wrapped
// messages to them. Slow clients are dropped rather than ever blocking an
// ingestion request.
type Hub struct {
	logger     *slog.Logger
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client

	mu      sync.RWMutex
	clients map[*Client]bool
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		logger:     logger,
		broadcast:  make(chan []byte, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    map[*Client]bool{},
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()

		case message := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					close(client.send)
					delete(h.clients, client)
				}
			}
			h.mu.Unlock()
		}
	}
}

// BroadcastPoint publishes one ingested reading to all clients.
func (h *Hub) BroadcastPoint(point any) {
	h.send("data", point)
}

// BroadcastNotification publishes one fired notification to all clients.
func (h *Hub) BroadcastNotification(n any) {
	h.send("alert", n)
}

func (h *Hub) send(kind string, payload any) {
	message, err := json.Marshal(map[string]any{"type": kind, "payload": payload})
	if err != nil {
		h.logger.Error("marshal broadcast payload",
			slog.String("error", err.Error()))
		return
	}
	select {
	case h.broadcast <- message:
	default:
		// Hub loop saturated; drop rather than stall the caller.
	}
}
