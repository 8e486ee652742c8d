package ws

import (
	"context"
	"encoding/json"
	"sync"

	"audio-recorder/constant"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Event is the envelope pushed to connected clients.
type Event struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// Hub is the connection registry for the notification fan-out. Owner events
// go to every live connection of one user; status broadcasts go to every
// connection joined to a recording room. Delivery is fire-and-forget: a
// client whose send buffer is full has the message dropped, never blocking
// the emitter.
type Hub struct {
	mu    sync.RWMutex
	users map[uuid.UUID]map[*Client]struct{}
	rooms map[uuid.UUID]map[*Client]struct{}
}

func NewHub() *Hub {
	return &Hub{
		users: make(map[uuid.UUID]map[*Client]struct{}),
		rooms: make(map[uuid.UUID]map[*Client]struct{}),
	}
}

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.users[c.userID] == nil {
		h.users[c.userID] = make(map[*Client]struct{})
	}
	h.users[c.userID][c] = struct{}{}
}

// unregister removes the client from its user channel and from every room
// it joined, so no membership outlives the connection.
func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if conns, ok := h.users[c.userID]; ok {
		delete(conns, c)
		if len(conns) == 0 {
			delete(h.users, c.userID)
		}
	}
	for roomID := range c.rooms {
		h.removeFromRoomLocked(c, roomID)
	}
	c.rooms = make(map[uuid.UUID]struct{})
}

func (h *Hub) joinRoom(c *Client, recordingID uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.rooms[recordingID] == nil {
		h.rooms[recordingID] = make(map[*Client]struct{})
	}
	h.rooms[recordingID][c] = struct{}{}
	c.rooms[recordingID] = struct{}{}
}

func (h *Hub) leaveRoom(c *Client, recordingID uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeFromRoomLocked(c, recordingID)
	delete(c.rooms, recordingID)
}

func (h *Hub) removeFromRoomLocked(c *Client, recordingID uuid.UUID) {
	if conns, ok := h.rooms[recordingID]; ok {
		delete(conns, c)
		if len(conns) == 0 {
			delete(h.rooms, recordingID)
		}
	}
}

// EmitToUser pushes an event to every live connection of one user.
func (h *Hub) EmitToUser(ctx context.Context, userID uuid.UUID, event constant.EventName, data interface{}) {
	payload, err := json.Marshal(Event{Event: event.String(), Data: data})
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("event", event.String()).Msg("failed to marshal event")
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.users[userID] {
		c.enqueue(ctx, payload)
	}
}

// EmitToRecording pushes an event to every connection joined to the
// recording's room, regardless of ownership.
func (h *Hub) EmitToRecording(ctx context.Context, recordingID uuid.UUID, event constant.EventName, data interface{}) {
	payload, err := json.Marshal(Event{Event: event.String(), Data: data})
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("event", event.String()).Msg("failed to marshal event")
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.rooms[recordingID] {
		c.enqueue(ctx, payload)
	}
}

// UserConnections reports the number of live connections for one user.
func (h *Hub) UserConnections(userID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.users[userID])
}

// RoomConnections reports the number of connections joined to one room.
func (h *Hub) RoomConnections(recordingID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[recordingID])
}
