// Package realtime is the server side of the chat transport: one websocket
// per client, rooms keyed by conversation id, fanout of persisted messages
// and ephemeral typing indicators.
package realtime

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/phonely/marketplace/pkg/socket"
)

// Hub tracks connected clients and their room membership. The server is
// authoritative for membership; clients only send join/leave intents.
type Hub struct {
	mu     sync.RWMutex
	byUser map[string]map[*Client]struct{}
	rooms  map[string]map[*Client]struct{}
	log    zerolog.Logger
}

func NewHub(log zerolog.Logger) *Hub {
	return &Hub{
		byUser: make(map[string]map[*Client]struct{}),
		rooms:  make(map[string]map[*Client]struct{}),
		log:    log,
	}
}

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.byUser[c.userID] == nil {
		h.byUser[c.userID] = make(map[*Client]struct{})
	}
	h.byUser[c.userID][c] = struct{}{}
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if set := h.byUser[c.userID]; set != nil {
		delete(set, c)
		if len(set) == 0 {
			delete(h.byUser, c.userID)
		}
	}
	for room, members := range h.rooms {
		delete(members, c)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
	close(c.send)
}

func (h *Hub) join(c *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.rooms[room] == nil {
		h.rooms[room] = make(map[*Client]struct{})
	}
	h.rooms[room][c] = struct{}{}
}

func (h *Hub) leave(c *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if members := h.rooms[room]; members != nil {
		delete(members, c)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
}

// BroadcastToRoom delivers an event to every member of a conversation room.
// Slow consumers are skipped, not waited on: their send buffer being full
// means they are already behind, and history lives in the database.
func (h *Hub) BroadcastToRoom(conversationID, event string, payload any) {
	frame := socket.NewFrame(event, payload)

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.rooms[conversationID] {
		select {
		case c.send <- frame:
		default:
			h.log.Warn().Str("user_id", c.userID).Str("event", event).Msg("client send buffer full, frame dropped")
		}
	}
}

// relayToRoom is BroadcastToRoom minus the originating client, used for
// typing indicators.
func (h *Hub) relayToRoom(conversationID, event string, payload any, except *Client) {
	frame := socket.NewFrame(event, payload)

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.rooms[conversationID] {
		if c == except {
			continue
		}
		select {
		case c.send <- frame:
		default:
		}
	}
}
