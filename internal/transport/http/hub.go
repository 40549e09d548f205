package http

import (
	"sync"

	"github.com/rs/zerolog"
)

// envelope is the outbound wire frame.
type envelope struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

type client struct {
	id   string
	send chan envelope
}

// Hub implements app.Broadcaster: it tracks live connections and their room
// membership and fans events out to them. Sends never block the caller; a
// slow connection's backlog is dropped rather than stalling the game loop.
type Hub struct {
	mu    sync.RWMutex
	conns map[string]*client
	rooms map[string]map[string]struct{}
	log   zerolog.Logger
}

func NewHub(log zerolog.Logger) *Hub {
	return &Hub{
		conns: make(map[string]*client),
		rooms: make(map[string]map[string]struct{}),
		log:   log,
	}
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	h.conns[c.id] = c
	h.mu.Unlock()
}

// unregister removes the connection everywhere and closes its send channel.
// Closing under the write lock is what makes the non-blocking sends in
// ToRoom/ToConn safe: they only run while holding the read lock.
func (h *Hub) unregister(connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	c, ok := h.conns[connID]
	if !ok {
		return
	}
	delete(h.conns, connID)
	for code, members := range h.rooms {
		delete(members, connID)
		if len(members) == 0 {
			delete(h.rooms, code)
		}
	}
	close(c.send)
}

func (h *Hub) JoinRoom(code, connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.rooms[code] == nil {
		h.rooms[code] = make(map[string]struct{})
	}
	h.rooms[code][connID] = struct{}{}
}

func (h *Hub) LeaveRoom(code, connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.rooms[code], connID)
	if len(h.rooms[code]) == 0 {
		delete(h.rooms, code)
	}
}

func (h *Hub) ToRoom(code, event string, payload any) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for connID := range h.rooms[code] {
		h.deliver(connID, envelope{Type: event, Payload: payload})
	}
}

func (h *Hub) ToConn(connID, event string, payload any) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	h.deliver(connID, envelope{Type: event, Payload: payload})
}

// deliver requires at least the read lock.
func (h *Hub) deliver(connID string, msg envelope) {
	c, ok := h.conns[connID]
	if !ok {
		return
	}
	select {
	case c.send <- msg:
	default:
		h.log.Warn().Str("conn", connID).Str("event", msg.Type).Msg("send buffer full, dropping event")
	}
}
