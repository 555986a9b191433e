/*
Package chat contains the real-time messaging core: the connection registry
with presence broadcasting, the per-conversation room router, the message
relay, and the typing indicator relay.

This file defines the WebSocket wire protocol as a closed enumeration of
event types with their payload structures.
*/
package chat

import "encoding/json"

// EventType identifies a WebSocket event. The set of values is closed; the
// client dispatcher rejects anything else.
type EventType string

// Client → server events.
const (
	// EventAddUser registers the connection for the authenticated user.
	EventAddUser EventType = "addNewUser"

	// EventSetup is a legacy alias of EventAddUser kept for older clients.
	EventSetup EventType = "setup"

	// EventRemoveUser explicitly unregisters the connection (logout).
	EventRemoveUser EventType = "removeUser"

	// EventJoinChat associates the connection with the conversation it is
	// viewing. The room ID is the peer's user ID.
	EventJoinChat EventType = "join-chat"

	// EventLeaveChat clears the connection's room association.
	EventLeaveChat EventType = "leave-chat"

	// EventNewMessage submits a message for persistence and delivery.
	EventNewMessage EventType = "new-message"
)

// Bidirectional events.
const (
	// EventTyping signals the sender started typing in a room.
	EventTyping EventType = "typing"

	// EventStopTyping signals the sender went idle in a room.
	EventStopTyping EventType = "stop-typing"
)

// Server → client events.
const (
	// EventOnlineUsers carries the full set of online user IDs.
	EventOnlineUsers EventType = "getOnlineUsers"

	// EventMessageSent acknowledges a persisted message to its sender.
	EventMessageSent EventType = "message-sent"

	// EventMessageReceived delivers a persisted message to its receiver.
	EventMessageReceived EventType = "message-received"

	// EventError reports a relay or validation failure to the initiating
	// connection only.
	EventError EventType = "error"
)

// Event is the JSON envelope exchanged over the WebSocket.
type Event struct {
	Type    EventType       `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// EncodeEvent marshals an event envelope with the given payload.
func EncodeEvent(eventType EventType, payload any) ([]byte, error) {
	var raw json.RawMessage
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		raw = data
	}

	return json.Marshal(Event{Type: eventType, Payload: raw})
}

// IdentifyPayload names the user a connection registers or unregisters for.
type IdentifyPayload struct {
	UserID string `json:"userId"`
}

// RoomPayload names the conversation for join-chat, leave-chat and
// stop-typing events.
type RoomPayload struct {
	RoomID string `json:"roomId"`
}

// TypingPayload carries a typing signal within a room.
type TypingPayload struct {
	RoomID string `json:"roomId"`
	UserID string `json:"userId,omitempty"`
}

// NewMessagePayload is the client's message submission.
type NewMessagePayload struct {
	Message    string `json:"message"`
	SenderID   string `json:"senderId"`
	ReceiverID string `json:"receiverId"`
}

// OnlineUser is one entry of the presence broadcast.
type OnlineUser struct {
	UserID string `json:"userId"`
}

// ErrorPayload is the body of an error event.
type ErrorPayload struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}
