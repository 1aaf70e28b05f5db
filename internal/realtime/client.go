package realtime

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"

	"github.com/phonely/marketplace/internal/api/metrics"
	"github.com/phonely/marketplace/internal/core/domain"
	"github.com/phonely/marketplace/internal/core/ports"
	"github.com/phonely/marketplace/pkg/socket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 8 * 1024
	sendBuffer     = 64
	// handleTimeout bounds the database work a single inbound frame may do.
	handleTimeout = 10 * time.Second
)

// Client is one websocket connection owned by an authenticated user.
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan socket.Frame
	userID string
	chat   ports.ChatService
}

func newClient(hub *Hub, conn *websocket.Conn, userID string, chat ports.ChatService) *Client {
	return &Client{
		hub:    hub,
		conn:   conn,
		send:   make(chan socket.Frame, sendBuffer),
		userID: userID,
		chat:   chat,
	}
}

// readPump consumes inbound frames until the connection dies. Runs as its
// own goroutine, one per connection.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister(c)
		_ = c.conn.Close()
		metrics.WSConnections.Dec()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var frame socket.Frame
		if err := c.conn.ReadJSON(&frame); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.log.Debug().Err(err).Str("user_id", c.userID).Msg("websocket closed unexpectedly")
			}
			return
		}
		c.handle(frame)
	}
}

// writePump serialises all writes to the connection and keeps it alive with
// pings. Runs as its own goroutine, one per connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(frame); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) handle(frame socket.Frame) {
	switch frame.Event {
	case socket.EventRegisterUser:
		// Identity comes from the authenticated handshake; re-announcing is
		// accepted for protocol compatibility but changes nothing.

	case socket.EventJoinChat:
		var p socket.RoomPayload
		if err := json.Unmarshal(frame.Data, &p); err != nil || p.ConversationID == "" {
			return
		}
		if !c.mayAccess(p.ConversationID) {
			c.hub.log.Warn().Str("user_id", c.userID).Str("conversation_id", p.ConversationID).Msg("join refused")
			return
		}
		c.hub.join(c, p.ConversationID)

	case socket.EventLeaveChat:
		var p socket.RoomPayload
		if err := json.Unmarshal(frame.Data, &p); err != nil || p.ConversationID == "" {
			return
		}
		c.hub.leave(c, p.ConversationID)

	case socket.EventSendMessage:
		var p socket.SendMessagePayload
		if err := json.Unmarshal(frame.Data, &p); err != nil {
			return
		}
		c.sendMessage(p)

	case socket.EventTyping, socket.EventStopTyping:
		var p socket.TypingPayload
		if err := json.Unmarshal(frame.Data, &p); err != nil || p.ConversationID == "" {
			return
		}
		p.UserID = c.userID
		c.hub.relayToRoom(p.ConversationID, frame.Event, p, c)

	case socket.EventMessagesRead:
		var p socket.RoomPayload
		if err := json.Unmarshal(frame.Data, &p); err != nil || p.ConversationID == "" {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), handleTimeout)
		defer cancel()
		// Fanout of the receipt happens through the chat service's notifier.
		if _, err := c.chat.MarkRead(ctx, p.ConversationID, c.userID); err != nil {
			c.hub.log.Warn().Err(err).Str("user_id", c.userID).Msg("mark read failed")
		}

	default:
		c.hub.log.Debug().Str("event", frame.Event).Msg("unknown realtime event ignored")
	}
}

// sendMessage persists the message through the chat service; the notifier
// fans the stored message out to the room, sender included.
func (c *Client) sendMessage(p socket.SendMessagePayload) {
	ctx, cancel := context.WithTimeout(context.Background(), handleTimeout)
	defer cancel()

	msg, err := c.chat.SendMessage(ctx, ports.SendMessageInput{
		ConversationID: p.ConversationID,
		SenderID:       c.userID,
		Type:           domain.MessageType(p.Type),
		Content:        p.Content,
		OfferPricePKR:  p.OfferPricePKR,
		PhoneNumber:    p.PhoneNumber,
	})
	if err != nil {
		c.hub.log.Warn().Err(err).Str("user_id", c.userID).Msg("websocket send-message rejected")
		return
	}
	metrics.MessagesSentTotal.WithLabelValues(string(msg.Type)).Inc()
}

// mayAccess checks room membership through the chat service (participants
// only). The service is the authority; the hub never trusts the client.
func (c *Client) mayAccess(conversationID string) bool {
	ctx, cancel := context.WithTimeout(context.Background(), handleTimeout)
	defer cancel()

	_, err := c.chat.GetConversation(ctx, conversationID, c.userID)
	return err == nil
}
