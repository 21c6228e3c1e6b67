package ws

import (
	"context"

	"github.com/goccy/go-json"

	"github.com/pliu/estate/internal/logging"
	"github.com/pliu/estate/internal/metrics"
)

// Event types pushed to connected browsers.
const (
	EventMessage = "message"
	EventChat    = "chat"
	EventPing    = "ping"
	EventPong    = "pong"
)

// Event is the envelope written to each websocket.
type Event struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

type delivery struct {
	userIDs []int
	payload []byte
}

// Hub tracks connected clients per user and fans events out to them.
// All client bookkeeping happens on the Run goroutine.
type Hub struct {
	clients map[int]map[*Client]bool

	register   chan *Client
	unregister chan *Client
	deliver    chan delivery
	done       chan struct{}
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[int]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		deliver:    make(chan delivery, 64),
		done:       make(chan struct{}),
	}
}

// Run processes registrations and deliveries until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for _, set := range h.clients {
				for client := range set {
					close(client.send)
				}
			}
			h.clients = map[int]map[*Client]bool{}
			metrics.WebsocketClients.Set(0)
			logger := logging.WithComponent("ws")
			logger.Debug().Msg("Websocket hub stopped")
			return
		case client := <-h.register:
			set, ok := h.clients[client.userID]
			if !ok {
				set = make(map[*Client]bool)
				h.clients[client.userID] = set
			}
			set[client] = true
			metrics.WebsocketClients.Inc()
		case client := <-h.unregister:
			h.remove(client)
		case d := <-h.deliver:
			for _, userID := range d.userIDs {
				for client := range h.clients[userID] {
					select {
					case client.send <- d.payload:
					default:
						// Slow consumer.
						h.remove(client)
					}
				}
			}
		}
	}
}

func (h *Hub) remove(client *Client) {
	set, ok := h.clients[client.userID]
	if !ok || !set[client] {
		return
	}
	delete(set, client)
	if len(set) == 0 {
		delete(h.clients, client.userID)
	}
	close(client.send)
	metrics.WebsocketClients.Dec()
}

// Notify queues event for every connection of the given users. It is safe on
// a nil hub and never blocks once the hub has stopped.
func (h *Hub) Notify(userIDs []int, event Event) {
	if h == nil || len(userIDs) == 0 {
		return
	}
	payload, err := json.Marshal(event)
	if err != nil {
		logger := logging.WithComponent("ws")
		logger.Error().Err(err).Str("type", event.Type).Msg("Failed to encode websocket event")
		return
	}
	select {
	case h.deliver <- delivery{userIDs: userIDs, payload: payload}:
	case <-h.done:
	}
}
