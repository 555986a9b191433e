/*
Package chat contains the real-time messaging core: the connection registry
with presence broadcasting, the per-conversation room router, the message
relay, and the typing indicator relay.

This file defines the Client struct, one per WebSocket connection. It owns
the read and write pumps, dispatches inbound events to the registry, router
and relay, and tracks which conversation the connection is viewing.
*/
package chat

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"duochat/internal/app/user"
	"duochat/internal/pkg/errs"
	"duochat/internal/pkg/logx"
)

const (
	// timeout for writing to the WebSocket connection.
	writeWait = 10 * time.Second

	// maximum time to wait for a Pong from the client.
	pongWait = 60 * time.Second

	// frequency of server Ping messages.
	pingPeriod = (pongWait * 9) / 10

	// maximum allowed size (in bytes) of an inbound frame.
	maxMessageSize = 8192

	// WsCloseCodeSessionReplaced is a custom WebSocket Close Code (4000-4999
	// range) signalling that a newer connection replaced this session.
	WsCloseCodeSessionReplaced = 4001
)

// Client represents an active WebSocket connection and its authenticated user.
type Client struct {
	// hub is the shared connection registry.
	hub *Hub

	// relay persists and fans out chat messages.
	relay *Relay

	// conn is the underlying WebSocket connection.
	conn *websocket.Conn

	// user is the authenticated identity behind this connection.
	user user.User

	// send queues outbound frames for the write pump.
	send chan []byte

	// closeOnce guards the send channel against double close.
	closeOnce sync.Once

	// mu guards room and kickReason.
	mu sync.Mutex

	// room is the conversation this connection currently views; empty when
	// none. The room ID is the peer's user ID.
	room string

	// kickReason, when set, makes the write pump close with code 4001.
	kickReason string

	// typing tracks the per-room typing indicator state machine.
	typing typingState

	logger zerolog.Logger
}

// NewClient constructs a Client for an upgraded connection.
func NewClient(hub *Hub, relay *Relay, wsConn *websocket.Conn, u user.User) *Client {
	clientLogger := logx.Logger().With().
		Str("user_id", u.ID).
		Logger()

	return &Client{
		hub:    hub,
		relay:  relay,
		conn:   wsConn,
		user:   u,
		send:   make(chan []byte, 256),
		logger: clientLogger,
	}
}

// User returns the authenticated identity behind the connection.
func (c *Client) User() user.User {
	return c.user
}

// ReadPump reads frames from the connection and dispatches them, handling
// heartbeats and cleanup on close. Events from one connection are processed
// in receipt order; each handler runs to completion.
func (c *Client) ReadPump() {
	defer c.cleanupOnDisconnect()

	c.conn.SetReadLimit(maxMessageSize)

	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set read deadline")
		return
	}

	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, messageBytes, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Info().Err(err).Msg("Error reading message (client close/going away)")
			}
			break
		}

		c.processInboundEvent(messageBytes)
	}
}

// cleanupOnDisconnect cancels the typing timer, removes the registry entry
// and room membership, and closes the connection.
func (c *Client) cleanupOnDisconnect() {
	c.logger.Info().Msg("Client connection cleanup starting.")

	c.cancelTyping()
	c.hub.Unregister(c)

	if err := c.conn.Close(); err != nil {
		c.logger.Debug().Err(err).Msg("Client connection close error")
	}
}

// processInboundEvent decodes one frame and dispatches on the event type.
func (c *Client) processInboundEvent(messageBytes []byte) {
	var event Event
	if err := json.Unmarshal(messageBytes, &event); err != nil {
		c.logger.Warn().Err(err).
			Bytes("message_bytes", messageBytes).
			Msg("Client sent invalid JSON")
		return
	}

	switch event.Type {
	case EventAddUser, EventSetup:
		c.handleAddUser(event.Payload)

	case EventRemoveUser:
		c.hub.Unregister(c)

	case EventJoinChat:
		c.handleJoinChat(event.Payload)

	case EventLeaveChat:
		c.handleLeaveChat(event.Payload)

	case EventNewMessage:
		c.handleNewMessage(event.Payload)

	case EventTyping:
		c.handleTyping(event.Payload)

	case EventStopTyping:
		c.handleStopTyping(event.Payload)

	default:
		c.logger.Warn().Str("event_type", string(event.Type)).Msg("Client sent unsupported event type")
	}
}

// handleAddUser registers the connection. The declared user must match the
// authenticated identity from the upgrade.
func (c *Client) handleAddUser(payloadBytes json.RawMessage) {
	var payload IdentifyPayload
	if len(payloadBytes) > 0 {
		if err := json.Unmarshal(payloadBytes, &payload); err != nil {
			c.logger.Warn().Err(err).Msg("Client sent invalid identify payload")
			return
		}
	}

	if payload.UserID != "" && payload.UserID != c.user.ID {
		c.SendError(errs.NewError(errs.ErrSenderMismatch))
		return
	}

	c.hub.Register(c)
}

func (c *Client) handleJoinChat(payloadBytes json.RawMessage) {
	var payload RoomPayload
	if err := json.Unmarshal(payloadBytes, &payload); err != nil || payload.RoomID == "" {
		c.logger.Warn().Msg("Client sent invalid join-chat payload")
		return
	}

	c.joinRoom(payload.RoomID)
}

func (c *Client) handleLeaveChat(payloadBytes json.RawMessage) {
	var payload RoomPayload
	if len(payloadBytes) > 0 {
		if err := json.Unmarshal(payloadBytes, &payload); err != nil {
			c.logger.Warn().Msg("Client sent invalid leave-chat payload")
			return
		}
	}

	c.leaveRoom(payload.RoomID)
}

func (c *Client) handleNewMessage(payloadBytes json.RawMessage) {
	var payload NewMessagePayload
	if err := json.Unmarshal(payloadBytes, &payload); err != nil {
		c.logger.Warn().Err(err).Msg("Client sent invalid new-message payload")
		return
	}

	c.relay.Send(c, payload)
}

func (c *Client) handleTyping(payloadBytes json.RawMessage) {
	var payload TypingPayload
	if err := json.Unmarshal(payloadBytes, &payload); err != nil || payload.RoomID == "" {
		c.logger.Warn().Msg("Client sent invalid typing payload")
		return
	}

	c.startTyping(payload.RoomID)
}

func (c *Client) handleStopTyping(payloadBytes json.RawMessage) {
	var payload RoomPayload
	if err := json.Unmarshal(payloadBytes, &payload); err != nil || payload.RoomID == "" {
		c.logger.Warn().Msg("Client sent invalid stop-typing payload")
		return
	}

	c.stopTyping(payload.RoomID)
}

// joinRoom associates the connection with the conversation it is viewing.
// Switching rooms cancels any typing state left in the previous one.
func (c *Client) joinRoom(roomID string) {
	c.mu.Lock()
	prev := c.room
	c.room = roomID
	c.mu.Unlock()

	if prev != "" && prev != roomID {
		c.cancelTyping()
	}

	c.logger.Debug().Str("room_id", roomID).Msg("Client joined room.")
}

// leaveRoom clears the room association. An empty roomID clears
// unconditionally; otherwise only a matching association is cleared.
func (c *Client) leaveRoom(roomID string) {
	c.mu.Lock()
	if roomID == "" || c.room == roomID {
		c.room = ""
	}
	c.mu.Unlock()

	c.cancelTyping()
}

// CurrentRoom returns the conversation the connection is viewing, if any.
func (c *Client) CurrentRoom() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.room, c.room != ""
}

// WritePump writes queued frames to the connection and keeps the heartbeat.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()

		if err := c.conn.Close(); err != nil {
			c.logger.Debug().Err(err).Msg("Client connection close error in WritePump")
		}
	}()

	for {
		select {
		case message, ok := <-c.send:
			if !c.writeQueuedMessage(message, ok) {
				return
			}

		case <-ticker.C:
			if !c.writePingMessage() {
				return
			}
		}
	}
}

// writeQueuedMessage writes one frame from the send queue. A closed queue
// produces a close frame: code 4001 with the kick reason when the session was
// replaced, a normal close otherwise. Returns false to end the pump.
func (c *Client) writeQueuedMessage(message []byte, ok bool) bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set write deadline")
		return false
	}

	if !ok {
		closeMessage := []byte{}
		c.mu.Lock()
		if c.kickReason != "" {
			closeMessage = websocket.FormatCloseMessage(WsCloseCodeSessionReplaced, c.kickReason)
		}
		c.mu.Unlock()

		if err := c.conn.WriteMessage(websocket.CloseMessage, closeMessage); err != nil {
			c.logger.Debug().Err(err).Msg("Error writing close message")
		}
		return false
	}

	if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
		c.logger.Error().Err(err).Msg("Error writing message")
		return false
	}

	return true
}

// writePingMessage sends a heartbeat Ping. Returns false to end the pump.
func (c *Client) writePingMessage() bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set write deadline on ping")
		return false
	}

	if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
		c.logger.Error().Err(err).Msg("Error writing ping")
		return false
	}

	return true
}

// sendEvent encodes an event and queues it for the write pump.
func (c *Client) sendEvent(eventType EventType, payload any) error {
	data, err := EncodeEvent(eventType, payload)
	if err != nil {
		c.logger.Error().Err(err).Str("event_type", string(eventType)).Msg("Error encoding event for client")
		return err
	}

	return c.enqueue(data)
}

// enqueue pushes a pre-encoded frame onto the send queue without blocking.
// Frames for a full or closed queue are dropped.
func (c *Client) enqueue(data []byte) (err error) {
	defer func() {
		if recover() != nil {
			err = fmt.Errorf("client send queue closed")
		}
	}()

	select {
	case c.send <- data:
		return nil
	default:
		c.logger.Warn().Int("queue_len", len(c.send)).Msg("Client send queue full, dropping frame")
		return fmt.Errorf("client send queue full")
	}
}

// SendError sends an error event to this connection.
func (c *Client) SendError(err error) {
	var code int
	var message string

	var customErr *errs.CustomError
	if errors.As(err, &customErr) {
		code = customErr.Code
		message = customErr.Message
	} else {
		code = errs.ErrUnknown
		message = fmt.Sprintf("Internal server error: %v", err)
	}

	if sendErr := c.sendEvent(EventError, ErrorPayload{Code: code, Message: message}); sendErr != nil {
		c.logger.Error().Err(sendErr).Msg("Failed to queue error event")
	}
}

// Kick closes the connection because a newer one replaced it. The write pump
// emits the 4001 close frame when it drains the closed queue.
func (c *Client) Kick(reason string) {
	c.logger.Warn().
		Int("close_code", WsCloseCodeSessionReplaced).
		Str("reason", reason).
		Msg("Closing connection: session replaced.")

	c.mu.Lock()
	c.kickReason = reason
	c.mu.Unlock()

	c.cancelTyping()
	c.closeSend()
}

// closeSend closes the send queue exactly once.
func (c *Client) closeSend() {
	c.closeOnce.Do(func() {
		close(c.send)
	})
}
