package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// LocationUpdate is pushed to every subscriber of a bus
type LocationUpdate struct {
	BusID        int64      `json:"bus_id"`
	BusNumber    string     `json:"bus_number"`
	IsActiveTrip bool       `json:"is_active_trip"`
	Latitude     *float64   `json:"latitude"`
	Longitude    *float64   `json:"longitude"`
	LastUpdate   *time.Time `json:"last_update"`
}

type envelope struct {
	busID int64
	data  []byte
}

// Hub keeps the subscribers of each bus and fans location updates out to them.
// Only the Run goroutine mutates the subscriber map.
type Hub struct {
	clients map[int64]map[*Client]bool

	broadcast  chan envelope
	register   chan *Client
	unregister chan *Client
	done       chan struct{}

	// guards counts for readers outside Run
	mu     sync.RWMutex
	counts map[int64]int

	logger zerolog.Logger
}

// NewHub creates a new Hub instance
func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		clients:    make(map[int64]map[*Client]bool),
		broadcast:  make(chan envelope, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		counts:     make(map[int64]int),
		logger:     logger,
	}
}

// Run handles registrations and broadcasts until ctx is cancelled
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			close(h.done)
			for busID, clients := range h.clients {
				for client := range clients {
					close(client.send)
				}
				delete(h.clients, busID)
			}
			h.mu.Lock()
			h.counts = make(map[int64]int)
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case msg := <-h.broadcast:
			h.broadcastMessage(msg)
		}
	}
}

func (h *Hub) registerClient(client *Client) {
	if _, ok := h.clients[client.busID]; !ok {
		h.clients[client.busID] = make(map[*Client]bool)
	}
	h.clients[client.busID][client] = true
	h.setCount(client.busID)

	h.logger.Info().
		Int64("busID", client.busID).
		Int64("userID", client.userID).
		Msg("Location subscriber registered")
}

func (h *Hub) unregisterClient(client *Client) {
	clients, ok := h.clients[client.busID]
	if !ok {
		return
	}
	if _, ok := clients[client]; !ok {
		return
	}

	delete(clients, client)
	close(client.send)
	if len(clients) == 0 {
		delete(h.clients, client.busID)
	}
	h.setCount(client.busID)

	h.logger.Info().
		Int64("busID", client.busID).
		Int64("userID", client.userID).
		Msg("Location subscriber unregistered")
}

func (h *Hub) broadcastMessage(msg envelope) {
	clients, ok := h.clients[msg.busID]
	if !ok {
		return
	}

	for client := range clients {
		client.offer(msg.data)
	}

	h.logger.Debug().
		Int64("busID", msg.busID).
		Int("clientCount", len(clients)).
		Msg("Location broadcasted")
}

func (h *Hub) setCount(busID int64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if n := len(h.clients[busID]); n > 0 {
		h.counts[busID] = n
	} else {
		delete(h.counts, busID)
	}
}

// Publish queues an update for the bus's subscribers. It never blocks; when the
// queue is full the update is dropped since the next one supersedes it.
func (h *Hub) Publish(update LocationUpdate) {
	data, err := json.Marshal(update)
	if err != nil {
		h.logger.Error().Err(err).Int64("busID", update.BusID).Msg("Failed to marshal location update")
		return
	}

	select {
	case h.broadcast <- envelope{busID: update.BusID, data: data}:
	default:
		h.logger.Warn().Int64("busID", update.BusID).Msg("Location queue full, dropping update")
	}
}

// ClientCount returns the number of subscribers of a bus
func (h *Hub) ClientCount(busID int64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.counts[busID]
}
