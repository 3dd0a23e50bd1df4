// Package feed pushes live post updates to connected clients. Updates are
// emitted by the rating transaction through Postgres NOTIFY and fan out to
// every open feed connection.
package feed

import (
	"context"
	"log"
	"sync"
)

// Message is a single event pushed to feed subscribers.
type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// Hub tracks the set of open feed connections and fans broadcasts out to
// them. Slow clients get dropped rather than block the hub.
type Hub struct {
	register   chan *Client
	unregister chan *Client
	broadcast  chan Message
	logger     *log.Logger

	mu      sync.RWMutex
	clients map[*Client]struct{}
}

// NewHub constructs an empty hub.
func NewHub(logger *log.Logger) *Hub {
	if logger == nil {
		logger = log.Default()
	}
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan Message, 256),
		logger:     logger,
		clients:    make(map[*Client]struct{}),
	}
}

// Run processes client lifecycle and broadcast events until ctx is canceled,
// then closes every remaining connection.
func (h *Hub) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return ctx.Err()
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = struct{}{}
			total := len(h.clients)
			h.mu.Unlock()
			h.logger.Printf("feed: client connected, %d total", total)
		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			total := len(h.clients)
			h.mu.Unlock()
			h.logger.Printf("feed: client disconnected, %d total", total)
		case message := <-h.broadcast:
			h.send(message)
		}
	}
}

// Broadcast queues a message for every connected client. It never blocks; if
// the hub is saturated the message is dropped.
func (h *Hub) Broadcast(messageType string, data interface{}) {
	select {
	case h.broadcast <- Message{Type: messageType, Data: data}:
	default:
		h.logger.Printf("feed: broadcast queue full, dropping %s", messageType)
	}
}

// ClientCount reports how many connections are open.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) send(message Message) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		select {
		case client.send <- message:
		default:
			delete(h.clients, client)
			close(client.send)
		}
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		delete(h.clients, client)
		close(client.send)
	}
}
