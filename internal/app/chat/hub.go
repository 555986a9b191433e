/*
Package chat contains the real-time messaging core: the connection registry
with presence broadcasting, the per-conversation room router, the message
relay, and the typing indicator relay.

This file defines the Hub, the process-wide connection registry. It maps each
user ID to at most one live connection, broadcasts the online set after every
mutation, and relays typing signals between the two participants of a room.
*/
package chat

import (
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"duochat/internal/pkg/logx"
)

// Hub is the connection registry shared by every connection handler. All
// access goes through its mutex; registry state lives only for the process
// lifetime, so a restart drops all presence.
type Hub struct {
	// mu protects clients.
	mu sync.RWMutex

	// clients maps a user ID to its single live connection.
	clients map[string]*Client

	// typingIdle is how long a typing state survives without a keystroke
	// before the hub emits stop-typing on the client's behalf.
	typingIdle time.Duration

	logger zerolog.Logger
}

// NewHub constructs an empty Hub.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		typingIdle: typingIdleTimeout,
		logger:     logx.Logger().With().Str("component", "Hub").Logger(),
	}
}

// Register stores or replaces the mapping for the client's user. When the
// user already has a live connection the old one is kicked (last connection
// wins). Every registration triggers a presence broadcast.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()

	if existing, ok := h.clients[c.user.ID]; ok && existing != c {
		h.logger.Warn().
			Str("user_id", c.user.ID).
			Msg("User already connected. Closing old connection for replacement.")

		existing.Kick("Session replaced by new connection. Check other tabs.")
	}

	h.clients[c.user.ID] = c

	h.logger.Info().
		Str("user_id", c.user.ID).
		Int("total_online", len(h.clients)).
		Msg("Connection registered.")

	h.broadcastPresenceLocked()
	h.mu.Unlock()
}

// Unregister removes the mapping for the client's user, but only while the
// client is still the current connection. Unregistering a replaced (stale)
// connection is a no-op and does not trigger a broadcast.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()

	current, ok := h.clients[c.user.ID]
	if !ok || current != c {
		h.logger.Debug().
			Str("user_id", c.user.ID).
			Msg("Ignoring unregister for stale or unknown connection.")
		h.mu.Unlock()
		return
	}

	delete(h.clients, c.user.ID)

	h.logger.Info().
		Str("user_id", c.user.ID).
		Int("total_online", len(h.clients)).
		Msg("Connection unregistered.")

	h.broadcastPresenceLocked()
	h.mu.Unlock()
}

// Lookup returns the live connection for the given user, if any.
func (h *Hub) Lookup(userID string) (*Client, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	c, ok := h.clients[userID]
	return c, ok
}

// IsOnline reports whether the user has a live connection. REST handlers use
// it to derive the online flag on user records.
func (h *Hub) IsOnline(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	_, ok := h.clients[userID]
	return ok
}

// OnlineUsers returns the current online set, sorted by user ID.
func (h *Hub) OnlineUsers() []OnlineUser {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return h.onlineUsersLocked()
}

func (h *Hub) onlineUsersLocked() []OnlineUser {
	online := make([]OnlineUser, 0, len(h.clients))
	for id := range h.clients {
		online = append(online, OnlineUser{UserID: id})
	}
	sort.Slice(online, func(i, j int) bool { return online[i].UserID < online[j].UserID })
	return online
}

// broadcastPresenceLocked sends the full online set to every connected
// client. Called synchronously after each registry mutation, with h.mu held.
func (h *Hub) broadcastPresenceLocked() {
	data, err := EncodeEvent(EventOnlineUsers, h.onlineUsersLocked())
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to encode presence broadcast.")
		return
	}

	for _, c := range h.clients {
		c.enqueue(data)
	}
}

// ForwardTyping relays a typing signal to the peer the room names, if that
// peer is online. Fire and forget, never persisted.
func (h *Hub) ForwardTyping(senderID, roomID string) {
	peer, ok := h.Lookup(roomID)
	if !ok {
		return
	}

	data, err := EncodeEvent(EventTyping, TypingPayload{RoomID: roomID, UserID: senderID})
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to encode typing event.")
		return
	}

	peer.enqueue(data)
}

// ForwardStopTyping relays a stop-typing signal to the peer the room names.
func (h *Hub) ForwardStopTyping(roomID string) {
	peer, ok := h.Lookup(roomID)
	if !ok {
		return
	}

	data, err := EncodeEvent(EventStopTyping, RoomPayload{RoomID: roomID})
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to encode stop-typing event.")
		return
	}

	peer.enqueue(data)
}

// Shutdown closes every connection's send queue and clears the registry.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, c := range h.clients {
		c.cancelTyping()
		c.closeSend()
	}
	h.clients = make(map[string]*Client)

	h.logger.Info().Msg("Hub shutdown complete.")
}
