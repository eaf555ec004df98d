package ws

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Event is the frame pushed to websocket clients.
type Event struct {
	Type      string    `json:"type"`
	SessionID uuid.UUID `json:"session_id"`
	Timestamp string    `json:"timestamp"`
	Data      any       `json:"data"`
}

type message struct {
	sessionID uuid.UUID
	payload   []byte
}

// Hub fans session events out to the clients subscribed to that session.
// Its client set is owned by the Run goroutine; the mutex only guards reads
// from ClientCount.
type Hub struct {
	clients    map[uuid.UUID]map[*Client]bool
	broadcast  chan message
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	mutex      sync.RWMutex
	logger     *zap.Logger
	now        func() time.Time
}

func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		clients:    make(map[uuid.UUID]map[*Client]bool),
		broadcast:  make(chan message, 1024),
		register:   make(chan *Client, 128),
		unregister: make(chan *Client, 128),
		done:       make(chan struct{}),
		logger:     logger.Named("ws"),
		now:        time.Now,
	}
}

// Run serves the hub until ctx is done, then closes every client.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			close(h.done)
			h.mutex.Lock()
			for sid, set := range h.clients {
				for c := range set {
					close(c.send)
				}
				delete(h.clients, sid)
			}
			h.mutex.Unlock()
			return

		case client := <-h.register:
			if client == nil {
				continue
			}
			h.mutex.Lock()
			set, ok := h.clients[client.sessionID]
			if !ok {
				set = make(map[*Client]bool)
				h.clients[client.sessionID] = set
			}
			set[client] = true
			total := len(set)
			h.mutex.Unlock()
			h.logger.Debug("ws connected", zap.Stringer("session_id", client.sessionID), zap.Int("session_clients", total))

		case client := <-h.unregister:
			h.remove(client)

		case msg := <-h.broadcast:
			h.mutex.RLock()
			set := h.clients[msg.sessionID]
			targets := make([]*Client, 0, len(set))
			for c := range set {
				targets = append(targets, c)
			}
			h.mutex.RUnlock()

			for _, client := range targets {
				select {
				case client.send <- msg.payload:
				default:
					h.logger.Warn("ws client too slow, dropping", zap.Stringer("session_id", msg.sessionID))
					h.remove(client)
				}
			}
		}
	}
}

func (h *Hub) remove(client *Client) {
	if client == nil {
		return
	}
	h.mutex.Lock()
	set := h.clients[client.sessionID]
	if _, ok := set[client]; ok {
		delete(set, client)
		close(client.send)
		if len(set) == 0 {
			delete(h.clients, client.sessionID)
		}
	}
	h.mutex.Unlock()
	h.logger.Debug("ws disconnected", zap.Stringer("session_id", client.sessionID))
}

func (h *Hub) Register(client *Client) {
	if h == nil {
		return
	}
	select {
	case h.register <- client:
	case <-h.done:
		close(client.send)
	}
}

func (h *Hub) Unregister(client *Client) {
	if h == nil {
		return
	}
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Publish never blocks; events are dropped when the hub is backed up.
func (h *Hub) Publish(sessionID uuid.UUID, eventType string, data any) {
	if h == nil {
		return
	}
	b, err := json.Marshal(Event{
		Type:      eventType,
		SessionID: sessionID,
		Timestamp: h.now().UTC().Format(time.RFC3339Nano),
		Data:      data,
	})
	if err != nil {
		h.logger.Error("ws encode event", zap.String("type", eventType), zap.Error(err))
		return
	}
	select {
	case h.broadcast <- message{sessionID: sessionID, payload: b}:
	default:
		h.logger.Warn("ws event dropped", zap.String("reason", "buffer_full"), zap.String("type", eventType))
	}
}

func (h *Hub) ClientCount() int {
	if h == nil {
		return 0
	}
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	n := 0
	for _, set := range h.clients {
		n += len(set)
	}
	return n
}
