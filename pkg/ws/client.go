package ws

import (
	"context"
	"encoding/json"
	"time"

	"audio-recorder/constant"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBufferSize = 64
)

// Client is one authenticated WebSocket connection.
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	userID uuid.UUID
	send   chan []byte

	// rooms the client joined, guarded by hub.mu.
	rooms map[uuid.UUID]struct{}
}

func newClient(hub *Hub, conn *websocket.Conn, userID uuid.UUID) *Client {
	return &Client{
		hub:    hub,
		conn:   conn,
		userID: userID,
		send:   make(chan []byte, sendBufferSize),
		rooms:  make(map[uuid.UUID]struct{}),
	}
}

// enqueue hands a payload to the writer goroutine. A slow consumer whose
// buffer is full loses the message; the recording row stays the source of
// truth for clients to reconcile against.
func (c *Client) enqueue(ctx context.Context, payload []byte) {
	select {
	case c.send <- payload:
	default:
		zerolog.Ctx(ctx).Warn().Str("user_id", c.userID.String()).Msg("send buffer full, dropping event")
	}
}

func (c *Client) emit(ctx context.Context, event constant.EventName, data interface{}) {
	payload, err := json.Marshal(Event{Event: event.String(), Data: data})
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("event", event.String()).Msg("failed to marshal event")
		return
	}
	c.enqueue(ctx, payload)
}

// clientMessage is the inbound message shape.
type clientMessage struct {
	Event string `json:"event"`
	Data  struct {
		RecordingID uuid.UUID `json:"recordingId"`
		Status      string    `json:"status"`
	} `json:"data"`
}

func (c *Client) readPump(ctx context.Context) {
	defer func() {
		c.hub.unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				zerolog.Ctx(ctx).Debug().Err(err).Str("user_id", c.userID.String()).Msg("connection closed unexpectedly")
			}
			return
		}

		var msg clientMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			c.emit(ctx, constant.EventError, map[string]string{"message": "malformed message"})
			continue
		}

		c.handleMessage(ctx, msg)
	}
}

func (c *Client) handleMessage(ctx context.Context, msg clientMessage) {
	switch msg.Event {
	case "join_recording":
		if msg.Data.RecordingID == uuid.Nil {
			c.emit(ctx, constant.EventError, map[string]string{"message": "recordingId is required"})
			return
		}
		c.hub.joinRoom(c, msg.Data.RecordingID)
		zerolog.Ctx(ctx).Info().
			Str("user_id", c.userID.String()).
			Str("recording_id", msg.Data.RecordingID.String()).
			Msg("joined recording room")
		c.emit(ctx, constant.EventJoinedRecording, map[string]interface{}{"recordingId": msg.Data.RecordingID})

	case "leave_recording":
		c.hub.leaveRoom(c, msg.Data.RecordingID)
		zerolog.Ctx(ctx).Info().
			Str("user_id", c.userID.String()).
			Str("recording_id", msg.Data.RecordingID.String()).
			Msg("left recording room")
		c.emit(ctx, constant.EventLeftRecording, map[string]interface{}{"recordingId": msg.Data.RecordingID})

	case "recording_status":
		if msg.Data.RecordingID == uuid.Nil {
			c.emit(ctx, constant.EventError, map[string]string{"message": "recordingId is required"})
			return
		}
		c.hub.EmitToRecording(ctx, msg.Data.RecordingID, constant.EventRecordingStatusUpdate, map[string]interface{}{
			"recordingId": msg.Data.RecordingID,
			"status":      msg.Data.Status,
			"timestamp":   time.Now().UTC(),
		})

	default:
		c.emit(ctx, constant.EventError, map[string]string{"message": "unknown event"})
	}
}

func (c *Client) writePump(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
