// Package hub fans lifecycle events out to connected kitchen displays over
// websockets. Delivery is best-effort per connection and there is no replay:
// a reconnecting client resynchronizes through the orders list endpoint.
package hub

import (
	"context"
	"encoding/json"

	"kitchen-service/internal/domain"

	"go.uber.org/zap"
)

// Hub owns the connection set. It is mutated only by register/unregister
// events; broadcasts iterate a snapshot owned by the run loop, so no lock is
// needed.
type Hub struct {
	clients    map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte
	logger     *zap.Logger
}

func New(logger *zap.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, 64),
		logger:     logger,
	}
}

// Broadcast queues an event for delivery to every open connection. Events
// reach each client in the order producers called Broadcast.
func (h *Hub) Broadcast(event domain.Event) {
	data, err := json.Marshal(event)
	if err != nil {
		h.logger.Error("event_encode_failed", zap.Error(err), zap.String("type", event.Type))
		return
	}
	h.broadcast <- data
}

// Run processes connection churn and broadcasts until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case client := <-h.register:
			h.clients[client] = struct{}{}
			h.logger.Info("client_connected", zap.Int("clients", len(h.clients)))
		case client := <-h.unregister:
			h.drop(client)
		case data := <-h.broadcast:
			for client := range h.clients {
				select {
				case client.send <- data:
				default:
					// Slow consumer: dropping it keeps the other
					// connections on schedule.
					h.drop(client)
				}
			}
		case <-ctx.Done():
			for client := range h.clients {
				h.drop(client)
			}
			return
		}
	}
}

func (h *Hub) drop(client *Client) {
	if _, ok := h.clients[client]; !ok {
		return
	}
	delete(h.clients, client)
	close(client.send)
	h.logger.Info("client_disconnected", zap.Int("clients", len(h.clients)))
}
