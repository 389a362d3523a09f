package stream

import (
	"sync"

	"github.com/sirupsen/logrus"
)

// Hub fans editor session events out to the websocket clients watching each
// session. Sessions live in this process only, so there is no cross-instance
// relay; a client always connects to the instance holding its session.
type Hub struct {
	clients map[string]map[*Client]struct{}
	mu      sync.RWMutex
	logger  *logrus.Logger
}

// Client is one websocket subscriber. Send is closed on Unregister.
type Client struct {
	SessionID string
	Send      chan []byte
}

// NewHub creates a new event hub
func NewHub(logger *logrus.Logger) *Hub {
	return &Hub{
		clients: map[string]map[*Client]struct{}{},
		logger:  logger,
	}
}

// Register subscribes a new client to a session's events
func (h *Hub) Register(sessionID string) *Client {
	client := &Client{
		SessionID: sessionID,
		Send:      make(chan []byte, 64),
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[sessionID] == nil {
		h.clients[sessionID] = map[*Client]struct{}{}
	}
	h.clients[sessionID][client] = struct{}{}
	return client
}

// Unregister removes a client and closes its channel. Calling it again for
// the same client is a no-op.
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	sessionClients, ok := h.clients[client.SessionID]
	if !ok {
		return
	}
	if _, ok := sessionClients[client]; !ok {
		return
	}
	delete(sessionClients, client)
	if len(sessionClients) == 0 {
		delete(h.clients, client.SessionID)
	}
	close(client.Send)
}

// Broadcast delivers a payload to every client of a session. A client whose
// buffer is full is skipped; the next full-state event catches it up. The
// lock is held across the sends so no channel is closed mid-broadcast; the
// sends never block, so the hold is short.
func (h *Hub) Broadcast(sessionID string, payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients[sessionID] {
		select {
		case client.Send <- payload:
		default:
		}
	}
}

// SubscriberCount reports how many clients watch a session
func (h *Hub) SubscriberCount(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[sessionID])
}
