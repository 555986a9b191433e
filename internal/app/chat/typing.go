/*
Package chat contains the real-time messaging core: the connection registry
with presence broadcasting, the per-conversation room router, the message
relay, and the typing indicator relay.

This file implements the typing indicator state machine. Each connection
holds one Idle/Typing state per room: the first keystroke forwards a typing
event to the peer, an idle timeout, an explicit stop, or a message send
returns to Idle and forwards stop-typing. The idle timer lives server-side
and is cancelled on room leave or disconnect so it cannot fire after
teardown. Typing signals are never persisted or queued.
*/
package chat

import (
	"sync"
	"time"
)

// typingIdleTimeout is how long after the last keystroke the hub emits
// stop-typing on the client's behalf.
const typingIdleTimeout = 1 * time.Second

// typingState tracks the Idle/Typing machine for one connection.
type typingState struct {
	mu     sync.Mutex
	active bool
	room   string
	timer  *time.Timer
}

// startTyping handles a typing event for roomID. Only the first keystroke
// after Idle forwards a typing event; subsequent keystrokes just re-arm the
// idle timer. Events for a room the connection has not joined are ignored.
func (c *Client) startTyping(roomID string) {
	if roomID == c.user.ID {
		return
	}

	if current, ok := c.CurrentRoom(); !ok || current != roomID {
		c.logger.Debug().Str("room_id", roomID).Msg("Ignoring typing event outside the active room.")
		return
	}

	c.typing.mu.Lock()
	fresh := !c.typing.active || c.typing.room != roomID
	c.typing.active = true
	c.typing.room = roomID
	if c.typing.timer != nil {
		c.typing.timer.Stop()
	}
	c.typing.timer = time.AfterFunc(c.hub.typingIdle, func() {
		c.typingIdleExpired(roomID)
	})
	c.typing.mu.Unlock()

	if fresh {
		c.hub.ForwardTyping(c.user.ID, roomID)
	}
}

// typingIdleExpired fires when the idle timer elapses: Typing → Idle with a
// stop-typing forwarded to the peer. A timer for a superseded room is stale
// and does nothing.
func (c *Client) typingIdleExpired(roomID string) {
	c.typing.mu.Lock()
	if !c.typing.active || c.typing.room != roomID {
		c.typing.mu.Unlock()
		return
	}
	c.typing.active = false
	c.typing.timer = nil
	c.typing.mu.Unlock()

	c.hub.ForwardStopTyping(roomID)
}

// stopTyping handles an explicit stop-typing event: Typing → Idle with the
// signal forwarded. Stops for a room the connection is not typing in are
// dropped, so the peer never sees duplicate stop-typing events.
func (c *Client) stopTyping(roomID string) {
	c.typing.mu.Lock()
	wasActive := c.typing.active && c.typing.room == roomID
	if wasActive {
		if c.typing.timer != nil {
			c.typing.timer.Stop()
			c.typing.timer = nil
		}
		c.typing.active = false
	}
	c.typing.mu.Unlock()

	if wasActive {
		c.hub.ForwardStopTyping(roomID)
	}
}

// stopTypingOnSend moves Typing → Idle when the connection sends a message,
// forwarding stop-typing to the active room's peer.
func (c *Client) stopTypingOnSend() {
	c.typing.mu.Lock()
	wasActive := c.typing.active
	room := c.typing.room
	if c.typing.timer != nil {
		c.typing.timer.Stop()
		c.typing.timer = nil
	}
	c.typing.active = false
	c.typing.mu.Unlock()

	if wasActive {
		c.hub.ForwardStopTyping(room)
	}
}

// cancelTyping stops the idle timer without emitting anything, on room leave,
// kick, or disconnect.
func (c *Client) cancelTyping() {
	c.typing.mu.Lock()
	if c.typing.timer != nil {
		c.typing.timer.Stop()
		c.typing.timer = nil
	}
	c.typing.active = false
	c.typing.mu.Unlock()
}
