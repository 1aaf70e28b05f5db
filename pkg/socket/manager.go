package socket

import (
	"encoding/json"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	dialTimeout          = 10 * time.Second
	reconnectBackoff     = 2 * time.Second
	maxReconnectAttempts = 5
)

// Manager owns the single realtime connection shared by every consumer in
// the process. The connection is reference counted: Connect increments,
// Disconnect decrements, and the transport is torn down only when the count
// reaches zero. The count and handle live behind a mutex so concurrent
// screens cannot race the lifecycle.
//
// Transport errors are logged, never surfaced. A dropped connection is
// redialed with a fixed backoff and a bounded attempt budget; consumers
// observe a failure only as messages ceasing to arrive.
type Manager struct {
	mu     sync.Mutex
	url    string
	log    zerolog.Logger
	dialer *websocket.Dialer

	conn     *websocket.Conn
	refs     int
	token    string
	userID   string
	handlers map[string]func(json.RawMessage)

	// generation invalidates read loops from closed connections.
	generation int
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithManagerLogger overrides the default logger.
func WithManagerLogger(l zerolog.Logger) ManagerOption {
	return func(m *Manager) { m.log = l }
}

// NewManager prepares a Manager for the given websocket endpoint URL.
// No connection is opened until the first Connect.
func NewManager(wsURL string, opts ...ManagerOption) *Manager {
	m := &Manager{
		url:      wsURL,
		log:      log.Logger,
		dialer:   &websocket.Dialer{HandshakeTimeout: dialTimeout},
		handlers: make(map[string]func(json.RawMessage)),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Connect registers one more consumer of the shared connection. When a live
// connection already exists it only re-announces the identity; otherwise it
// dials, announces on success, and starts the read loop.
func (m *Manager) Connect(token, userID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.refs++
	m.token = token
	m.userID = userID

	if m.conn != nil {
		m.writeLocked(NewFrame(EventRegisterUser, RegisterUserPayload{UserID: userID}))
		return
	}

	m.dialLocked()
}

// Disconnect releases one consumer. The transport closes and all handlers
// detach only when the last consumer leaves. The count never goes below zero.
func (m *Manager) Disconnect() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.refs == 0 {
		return
	}
	m.refs--
	if m.refs > 0 {
		return
	}

	m.handlers = make(map[string]func(json.RawMessage))
	m.closeLocked()
}

// Connected reports whether a live transport exists.
func (m *Manager) Connected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.conn != nil
}

// JoinChat asks the server to add this client to a conversation room.
// Membership is server-side only; nothing is tracked locally.
func (m *Manager) JoinChat(conversationID string) {
	m.emit(EventJoinChat, RoomPayload{ConversationID: conversationID})
}

// LeaveChat releases room membership.
func (m *Manager) LeaveChat(conversationID string) {
	m.emit(EventLeaveChat, RoomPayload{ConversationID: conversationID})
}

// SendMessage emits a plain chat message. Fire and forget.
func (m *Manager) SendMessage(conversationID, content string) {
	m.emit(EventSendMessage, SendMessagePayload{
		ConversationID: conversationID,
		Type:           "plain",
		Content:        content,
	})
}

// SendOffer emits a price offer on a conversation.
func (m *Manager) SendOffer(conversationID string, pricePKR int64) {
	m.emit(EventSendMessage, SendMessagePayload{
		ConversationID: conversationID,
		Type:           "offer",
		OfferPricePKR:  pricePKR,
	})
}

// SharePhoneNumber reveals a phone number inside a conversation.
func (m *Manager) SharePhoneNumber(conversationID, phoneNumber string) {
	m.emit(EventSendMessage, SendMessagePayload{
		ConversationID: conversationID,
		Type:           "phone_share",
		PhoneNumber:    phoneNumber,
	})
}

// EmitTyping signals that this user started typing.
func (m *Manager) EmitTyping(conversationID string) {
	m.mu.Lock()
	userID := m.userID
	m.mu.Unlock()
	m.emit(EventTyping, TypingPayload{ConversationID: conversationID, UserID: userID})
}

// EmitStopTyping signals that this user stopped typing.
func (m *Manager) EmitStopTyping(conversationID string) {
	m.mu.Lock()
	userID := m.userID
	m.mu.Unlock()
	m.emit(EventStopTyping, TypingPayload{ConversationID: conversationID, UserID: userID})
}

// MarkRead announces which messages were read.
func (m *Manager) MarkRead(conversationID string, messageIDs []string) {
	m.mu.Lock()
	userID := m.userID
	m.mu.Unlock()
	m.emit(EventMessagesRead, MessagesReadPayload{
		ConversationID: conversationID,
		ReaderID:       userID,
		MessageIDs:     messageIDs,
	})
}

// OnNewMessage registers the handler for inbound chat messages.
// Re-registering replaces the previous handler; it does not stack.
func (m *Manager) OnNewMessage(fn func(json.RawMessage)) { m.on(EventNewMessage, fn) }

// OnTyping registers the handler for typing indicators.
func (m *Manager) OnTyping(fn func(json.RawMessage)) { m.on(EventTyping, fn) }

// OnStopTyping registers the handler for stop-typing indicators.
func (m *Manager) OnStopTyping(fn func(json.RawMessage)) { m.on(EventStopTyping, fn) }

// OnMessagesRead registers the handler for read receipts.
func (m *Manager) OnMessagesRead(fn func(json.RawMessage)) { m.on(EventMessagesRead, fn) }

// Off removes the handler for an event, if any.
func (m *Manager) Off(event string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.handlers, event)
}

func (m *Manager) on(event string, fn func(json.RawMessage)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[event] = fn
}

func (m *Manager) emit(event string, payload any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.conn == nil {
		m.log.Warn().Str("event", event).Msg("socket: emit with no live connection, dropped")
		return
	}
	m.writeLocked(NewFrame(event, payload))
}

// dialLocked opens the transport and announces the identity. Callers hold m.mu.
func (m *Manager) dialLocked() {
	conn, _, err := m.dialer.Dial(m.authURL(), nil)
	if err != nil {
		m.log.Error().Err(err).Msg("socket: dial failed")
		return
	}
	m.conn = conn
	m.generation++
	m.writeLocked(NewFrame(EventRegisterUser, RegisterUserPayload{UserID: m.userID}))
	go m.readLoop(conn, m.generation)
}

// writeLocked sends one frame; callers hold m.mu.
func (m *Manager) writeLocked(frame Frame) {
	if m.conn == nil {
		return
	}
	if err := m.conn.WriteJSON(frame); err != nil {
		m.log.Error().Err(err).Str("event", frame.Event).Msg("socket: write failed")
	}
}

// closeLocked tears down the transport; callers hold m.mu.
func (m *Manager) closeLocked() {
	if m.conn == nil {
		return
	}
	_ = m.conn.Close()
	m.conn = nil
	m.generation++
}

func (m *Manager) authURL() string {
	u, err := url.Parse(m.url)
	if err != nil {
		return m.url
	}
	q := u.Query()
	q.Set("token", m.token)
	u.RawQuery = q.Encode()
	return u.String()
}

// readLoop dispatches inbound frames until the connection dies, then hands
// off to the reconnect path. The generation check discards loops belonging
// to connections that were already replaced or closed.
func (m *Manager) readLoop(conn *websocket.Conn, generation int) {
	for {
		var frame Frame
		if err := conn.ReadJSON(&frame); err != nil {
			m.mu.Lock()
			stale := m.generation != generation
			m.mu.Unlock()
			if stale {
				return
			}
			m.log.Warn().Err(err).Msg("socket: connection lost")
			m.reconnect(generation)
			return
		}

		m.mu.Lock()
		handler := m.handlers[frame.Event]
		m.mu.Unlock()
		if handler != nil {
			handler(frame.Data)
		}
	}
}

// reconnect redials with fixed backoff while consumers remain. The attempt
// budget is bounded; after it is spent the manager stays quiet until the
// next Connect call.
func (m *Manager) reconnect(generation int) {
	for attempt := 1; attempt <= maxReconnectAttempts; attempt++ {
		time.Sleep(reconnectBackoff)

		m.mu.Lock()
		if m.generation != generation || m.refs == 0 {
			m.mu.Unlock()
			return
		}
		m.closeLocked()
		generation = m.generation
		m.dialLocked()
		connected := m.conn != nil
		generation = m.generation
		m.mu.Unlock()

		if connected {
			m.log.Info().Int("attempt", attempt).Msg("socket: reconnected")
			return
		}
		m.log.Warn().Int("attempt", attempt).Msg("socket: reconnect attempt failed")
	}
	m.log.Error().Int("attempts", maxReconnectAttempts).Msg("socket: reconnect budget exhausted")
}
