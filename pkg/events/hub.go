package events

import (
	"context"
	"log/slog"
	"sync"
)

// Hub maintains the set of connected subscribers and fans events out to
// them. It satisfies the speaker's Publisher interface, so playback
// lifecycle events reach websocket clients without the speaker knowing
// anything about websockets.
type Hub struct {
	logger *slog.Logger

	// Registered subscribers
	clients map[*Client]bool

	// Inbound frames to broadcast
	broadcast chan []byte

	// Register requests from clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	mu      sync.RWMutex
	running bool
}

// NewHub creates a hub. Run must be started before clients connect.
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		logger:     logger,
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

// Run owns the client set. It blocks until ctx is cancelled, then closes
// every subscriber and returns.
func (h *Hub) Run(ctx context.Context) {
	h.setRunning(true)
	defer h.setRunning(false)

	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for client := range h.clients {
				close(client.send)
				delete(h.clients, client)
			}
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			count := len(h.clients)
			h.mu.Unlock()
			h.logger.Info("event subscriber connected", "subscribers", count)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			count := len(h.clients)
			h.mu.Unlock()
			h.logger.Info("event subscriber disconnected", "subscribers", count)

		case frame := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.send <- frame:
				default:
					// Subscriber cannot keep up. Drop it rather than
					// stalling everyone else.
					close(client.send)
					delete(h.clients, client)
					h.logger.Warn("dropping slow event subscriber")
				}
			}
			h.mu.Unlock()
		}
	}
}

// Publish wraps data in an event envelope and broadcasts it. Encoding
// failures are logged and the event is dropped.
func (h *Hub) Publish(event string, data any) {
	evt, err := NewEvent(event, data)
	if err != nil {
		h.logger.Warn("failed to encode event", "type", event, "error", err)
		return
	}
	raw, err := evt.Bytes()
	if err != nil {
		h.logger.Warn("failed to encode event", "type", event, "error", err)
		return
	}
	h.Broadcast(raw)
}

// Broadcast queues a pre-encoded frame for delivery to all subscribers.
func (h *Hub) Broadcast(frame []byte) {
	select {
	case h.broadcast <- frame:
	default:
		h.logger.Warn("event queue full, dropping broadcast")
	}
}

// ClientCount returns the number of connected subscribers.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// IsRunning reports whether the hub loop is active.
func (h *Hub) IsRunning() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.running
}

func (h *Hub) setRunning(v bool) {
	h.mu.Lock()
	h.running = v
	h.mu.Unlock()
}
