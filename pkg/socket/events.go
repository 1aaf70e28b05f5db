// Package socket holds the realtime wire protocol shared by the server hub
// and the client Manager: event names, the frame envelope, and payload types.
package socket

import "encoding/json"

// Event names as they appear on the wire. Client→server unless noted.
const (
	EventRegisterUser = "register-user"
	EventJoinChat     = "join-chat"
	EventLeaveChat    = "leave-chat"
	EventSendMessage  = "send-message"
	EventNewMessage   = "new-message" // server→client
	EventTyping       = "typing"      // bidirectional
	EventStopTyping   = "stop-typing" // bidirectional
	EventMessagesRead = "messages-read"
)

// Frame is the envelope every realtime message travels in.
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// NewFrame marshals payload into a Frame. Marshal errors are impossible for
// the fixed payload types below, so they surface as an empty data field.
func NewFrame(event string, payload any) Frame {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Frame{Event: event}
	}
	return Frame{Event: event, Data: raw}
}

// RegisterUserPayload announces (or re-announces) the connected identity.
type RegisterUserPayload struct {
	UserID string `json:"userId"`
}

// RoomPayload carries join-chat / leave-chat membership intents.
type RoomPayload struct {
	ConversationID string `json:"conversationId"`
}

// SendMessagePayload is an outbound chat message. The server assigns the id.
type SendMessagePayload struct {
	ConversationID string `json:"conversationId"`
	Type           string `json:"type"`
	Content        string `json:"content,omitempty"`
	OfferPricePKR  int64  `json:"offerPricePkr,omitempty"`
	PhoneNumber    string `json:"phoneNumber,omitempty"`
}

// TypingPayload carries typing / stop-typing indicators.
type TypingPayload struct {
	ConversationID string `json:"conversationId"`
	UserID         string `json:"userId"`
}

// MessagesReadPayload announces which messages a reader caught up on.
type MessagesReadPayload struct {
	ConversationID string   `json:"conversationId"`
	ReaderID       string   `json:"readerId"`
	MessageIDs     []string `json:"messageIds"`
}
