package rest

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Event is an invalidation push telling clients which resource changed.
type Event struct {
	Resource string `json:"resource"`
	ID       string `json:"id"`
}

// Hub fans invalidation events out to connected WebSocket clients.
// Slow clients are dropped rather than blocking the broadcast path.
type Hub struct {
	logger *slog.Logger

	mu      sync.Mutex
	clients map[chan Event]struct{}
}

// NewHub creates an event hub.
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		logger:  logger,
		clients: make(map[chan Event]struct{}),
	}
}

// Broadcast queues an event for every connected client.
func (h *Hub) Broadcast(resource, id string) {
	ev := Event{Resource: resource, ID: id}
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.clients {
		select {
		case ch <- ev:
		default:
			// Client is not draining; disconnect it.
			close(ch)
			delete(h.clients, ch)
		}
	}
}

func (h *Hub) subscribe() chan Event {
	ch := make(chan Event, 16)
	h.mu.Lock()
	h.clients[ch] = struct{}{}
	h.mu.Unlock()
	return ch
}

func (h *Hub) unsubscribe(ch chan Event) {
	h.mu.Lock()
	if _, ok := h.clients[ch]; ok {
		close(ch)
		delete(h.clients, ch)
	}
	h.mu.Unlock()
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

const writeWait = 10 * time.Second

// ServeHTTP upgrades the connection and streams events until the client
// disconnects.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	ch := h.subscribe()
	defer h.unsubscribe(ch)

	// Drain reads so close frames are processed.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				h.unsubscribe(ch)
				return
			}
		}
	}()

	for ev := range ch {
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(ev); err != nil {
			return
		}
	}
}
