package websocket

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/rs/zerolog"
	"github.com/sujucu70/BeyondCXAnalytics-AE-v2-sub002/internal/metrics"
	"github.com/sujucu70/BeyondCXAnalytics-AE-v2-sub002/internal/types"
)

// Hub fans run events and status frames out to every connected dashboard.
// Membership changes and fan-out are serialized through Run.
type Hub struct {
	clients map[*Client]bool
	mu      sync.RWMutex

	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client

	// done is closed when Run returns
	done chan struct{}

	logger zerolog.Logger
}

func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, 32),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		logger:     logger.With().Str("component", "hub").Logger(),
	}
}

// Run serves the hub until ctx is done, then disconnects everyone
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	defer h.dropAll()
	for {
		select {
		case <-ctx.Done():
			return
		case c := <-h.register:
			h.add(c)
		case c := <-h.unregister:
			h.remove(c, "client disconnected")
		case frame := <-h.broadcast:
			h.fanOut(frame)
		}
	}
}

// Broadcast queues a raw frame for every dashboard
func (h *Hub) Broadcast(frame []byte) {
	h.enqueue(frame, "")
}

// Notify implements the pipeline's run notifier
func (h *Hub) Notify(event types.RunEvent) {
	frame, err := json.Marshal(event)
	if err != nil {
		h.logger.Error().Err(err).Str("run_id", event.RunID).Msg("failed to encode run event")
		return
	}
	h.enqueue(frame, event.RunID)
}

// Join registers a client with the running hub. It reports false once the
// hub has stopped.
func (h *Hub) Join(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) leave(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// ClientCount returns the number of connected dashboards
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// enqueue never blocks the caller. A full queue means dashboards are far
// behind, the frame is dropped.
func (h *Hub) enqueue(frame []byte, runID string) {
	select {
	case h.broadcast <- frame:
	default:
		metrics.Get().RecordWebSocketError()
		h.logger.Warn().Str("run_id", runID).Msg("broadcast queue full, frame dropped")
	}
}

func (h *Hub) add(c *Client) {
	h.mu.Lock()
	h.clients[c] = true
	n := len(h.clients)
	h.mu.Unlock()

	metrics.Get().RecordWebSocketConnect()
	h.logger.Info().Str("client_id", c.id).Int("total_clients", n).Msg("client connected")
}

// remove closes the client's queue once. Its writer then sends a close frame.
func (h *Hub) remove(c *Client, reason string) {
	h.mu.Lock()
	_, known := h.clients[c]
	if known {
		delete(h.clients, c)
		close(c.send)
	}
	n := len(h.clients)
	h.mu.Unlock()

	if known {
		metrics.Get().RecordWebSocketDisconnect()
		h.logger.Info().Str("client_id", c.id).Int("total_clients", n).Msg(reason)
	}
}

func (h *Hub) fanOut(frame []byte) {
	var slow []*Client

	h.mu.RLock()
	for c := range h.clients {
		select {
		case c.send <- frame:
			metrics.Get().RecordWebSocketMessage()
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		h.remove(c, "client too slow, disconnected")
	}
}

func (h *Hub) dropAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
}
