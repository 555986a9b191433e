package chat

import (
	"testing"
	"time"
)

// typingPair registers alice and bob, joins alice into bob's room, and
// drains the presence broadcasts so tests only see typing traffic.
func typingPair(t *testing.T, idle time.Duration) (*Hub, *Client, *Client) {
	t.Helper()

	h := NewHub()
	h.typingIdle = idle

	alice := newTestClient(t, h, nil, "alice")
	bob := newTestClient(t, h, nil, "bob")

	h.Register(alice)
	h.Register(bob)
	alice.joinRoom("bob")

	drainEvents(t, alice)
	drainEvents(t, bob)

	return h, alice, bob
}

func TestTypingForwardedToPeerOnce(t *testing.T) {
	_, alice, bob := typingPair(t, time.Hour)

	alice.startTyping("bob")

	event, ok := waitEvent(t, bob, time.Second)
	if !ok || event.Type != EventTyping {
		t.Fatalf("expected a typing event, got %v", event.Type)
	}

	// Further keystrokes while already typing must not repeat the signal.
	alice.startTyping("bob")
	alice.startTyping("bob")

	if events := drainEvents(t, bob); len(events) != 0 {
		t.Fatalf("expected no duplicate typing events, got %d", len(events))
	}
}

func TestTypingIdleTimeoutEmitsSingleStop(t *testing.T) {
	_, alice, bob := typingPair(t, 50*time.Millisecond)

	alice.startTyping("bob")

	event, ok := waitEvent(t, bob, time.Second)
	if !ok || event.Type != EventTyping {
		t.Fatalf("expected a typing event, got %v", event.Type)
	}

	event, ok = waitEvent(t, bob, time.Second)
	if !ok || event.Type != EventStopTyping {
		t.Fatalf("expected a stop-typing event after the idle timeout, got %v", event.Type)
	}

	// The timeout fires once; silence afterwards must not repeat it.
	expectNoEvent(t, bob, 150*time.Millisecond)
}

func TestTypingKeystrokesResetIdleTimer(t *testing.T) {
	_, alice, bob := typingPair(t, 200*time.Millisecond)

	alice.startTyping("bob")
	if event, ok := waitEvent(t, bob, time.Second); !ok || event.Type != EventTyping {
		t.Fatalf("expected a typing event, got %v", event.Type)
	}

	// Keep typing at intervals shorter than the idle timeout.
	for i := 0; i < 3; i++ {
		time.Sleep(80 * time.Millisecond)
		alice.startTyping("bob")
	}

	// No stop-typing may have fired while keystrokes kept arriving.
	if events := drainEvents(t, bob); len(events) != 0 {
		t.Fatalf("expected no events while typing continued, got %d", len(events))
	}

	event, ok := waitEvent(t, bob, time.Second)
	if !ok || event.Type != EventStopTyping {
		t.Fatalf("expected a stop-typing event once keystrokes ceased, got %v", event.Type)
	}
}

func TestExplicitStopTypingForwardedOnce(t *testing.T) {
	_, alice, bob := typingPair(t, time.Hour)

	alice.startTyping("bob")
	if event, ok := waitEvent(t, bob, time.Second); !ok || event.Type != EventTyping {
		t.Fatalf("expected a typing event, got %v", event.Type)
	}

	alice.stopTyping("bob")

	event, ok := waitEvent(t, bob, time.Second)
	if !ok || event.Type != EventStopTyping {
		t.Fatalf("expected a stop-typing event, got %v", event.Type)
	}

	// A second stop for an already-idle state is dropped.
	alice.stopTyping("bob")
	if events := drainEvents(t, bob); len(events) != 0 {
		t.Fatalf("expected no duplicate stop-typing, got %d", len(events))
	}
}

func TestTypingIgnoredOutsideActiveRoom(t *testing.T) {
	h := NewHub()
	h.typingIdle = time.Hour

	alice := newTestClient(t, h, nil, "alice")
	bob := newTestClient(t, h, nil, "bob")
	h.Register(alice)
	h.Register(bob)
	drainEvents(t, alice)
	drainEvents(t, bob)

	// Alice never joined bob's room.
	alice.startTyping("bob")

	expectNoEvent(t, bob, 50*time.Millisecond)
}

func TestLeaveRoomCancelsIdleTimerSilently(t *testing.T) {
	_, alice, bob := typingPair(t, 50*time.Millisecond)

	alice.startTyping("bob")
	if event, ok := waitEvent(t, bob, time.Second); !ok || event.Type != EventTyping {
		t.Fatalf("expected a typing event, got %v", event.Type)
	}

	alice.leaveRoom("bob")

	// The cancelled timer must not produce a stop-typing after teardown.
	expectNoEvent(t, bob, 150*time.Millisecond)
}

func TestTypingToOfflinePeerIsDropped(t *testing.T) {
	h := NewHub()
	h.typingIdle = time.Hour

	alice := newTestClient(t, h, nil, "alice")
	h.Register(alice)
	alice.joinRoom("bob")
	drainEvents(t, alice)

	// No peer connection exists; the signal just evaporates.
	alice.startTyping("bob")
	alice.stopTyping("bob")
}
