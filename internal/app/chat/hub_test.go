package chat

import (
	"encoding/json"
	"testing"
	"time"

	"duochat/internal/app/message"
	"duochat/internal/app/user"
)

func newTestHub() *Hub {
	h := NewHub()
	h.typingIdle = 100 * time.Millisecond
	return h
}

func newTestClient(t *testing.T, h *Hub, relay *Relay, id string) *Client {
	t.Helper()
	return NewClient(h, relay, nil, user.User{ID: id, Name: id})
}

// drainEvents empties the client's send queue and returns the decoded events.
func drainEvents(t *testing.T, c *Client) []Event {
	t.Helper()

	var events []Event
	for {
		select {
		case data, ok := <-c.send:
			if !ok {
				return events
			}
			events = append(events, decodeEvent(t, data))
		default:
			return events
		}
	}
}

// waitEvent blocks for the next event on the client's send queue.
func waitEvent(t *testing.T, c *Client, timeout time.Duration) (Event, bool) {
	t.Helper()

	select {
	case data, ok := <-c.send:
		if !ok {
			return Event{}, false
		}
		return decodeEvent(t, data), true
	case <-time.After(timeout):
		return Event{}, false
	}
}

// expectNoEvent asserts the client's send queue stays empty for the duration.
func expectNoEvent(t *testing.T, c *Client, wait time.Duration) {
	t.Helper()

	select {
	case data, ok := <-c.send:
		if ok {
			event := decodeEvent(t, data)
			t.Fatalf("expected no event, got %s", event.Type)
		}
	case <-time.After(wait):
	}
}

func decodeEvent(t *testing.T, data []byte) Event {
	t.Helper()

	var event Event
	if err := json.Unmarshal(data, &event); err != nil {
		t.Fatalf("failed to decode event: %v", err)
	}
	return event
}

func onlineSet(t *testing.T, event Event) []string {
	t.Helper()

	if event.Type != EventOnlineUsers {
		t.Fatalf("expected %s event, got %s", EventOnlineUsers, event.Type)
	}

	var online []OnlineUser
	if err := json.Unmarshal(event.Payload, &online); err != nil {
		t.Fatalf("failed to decode online set: %v", err)
	}

	ids := make([]string, len(online))
	for i, u := range online {
		ids[i] = u.UserID
	}
	return ids
}

func equalIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestRegisterAndLookup(t *testing.T) {
	h := newTestHub()
	alice := newTestClient(t, h, nil, "alice")

	h.Register(alice)

	got, ok := h.Lookup("alice")
	if !ok || got != alice {
		t.Fatal("expected lookup to return the registered connection")
	}
	if !h.IsOnline("alice") {
		t.Error("expected alice to be online")
	}
	if h.IsOnline("bob") {
		t.Error("expected bob to be offline")
	}
}

func TestRegisterLastConnectionWins(t *testing.T) {
	h := newTestHub()
	first := newTestClient(t, h, nil, "alice")
	second := newTestClient(t, h, nil, "alice")

	h.Register(first)
	h.Register(second)

	got, ok := h.Lookup("alice")
	if !ok || got != second {
		t.Fatal("expected lookup to return the newest connection")
	}

	// The replaced connection's send queue must be closed.
	drainEvents(t, first)
	if _, ok := <-first.send; ok {
		t.Error("expected the replaced connection's send queue to be closed")
	}
}

func TestUnregisterRemovesMapping(t *testing.T) {
	h := newTestHub()
	alice := newTestClient(t, h, nil, "alice")

	h.Register(alice)
	h.Unregister(alice)

	if _, ok := h.Lookup("alice"); ok {
		t.Fatal("expected lookup to miss after unregister")
	}
}

func TestUnregisterStaleConnectionIgnored(t *testing.T) {
	h := newTestHub()
	first := newTestClient(t, h, nil, "alice")
	second := newTestClient(t, h, nil, "alice")

	h.Register(first)
	h.Register(second)
	drainEvents(t, second)

	// The old connection disconnecting must not evict its replacement,
	// and must not cause a presence broadcast.
	h.Unregister(first)

	got, ok := h.Lookup("alice")
	if !ok || got != second {
		t.Fatal("expected the newest connection to survive a stale unregister")
	}
	if events := drainEvents(t, second); len(events) != 0 {
		t.Fatalf("expected no broadcast for a stale unregister, got %d events", len(events))
	}
}

func TestPresenceBroadcastPerMutation(t *testing.T) {
	h := newTestHub()
	alice := newTestClient(t, h, nil, "alice")
	bob := newTestClient(t, h, nil, "bob")

	h.Register(alice)

	events := drainEvents(t, alice)
	if len(events) != 1 {
		t.Fatalf("expected exactly 1 broadcast after first register, got %d", len(events))
	}
	if ids := onlineSet(t, events[0]); !equalIDs(ids, []string{"alice"}) {
		t.Errorf("expected online set [alice], got %v", ids)
	}

	h.Register(bob)

	aliceEvents := drainEvents(t, alice)
	bobEvents := drainEvents(t, bob)
	if len(aliceEvents) != 1 || len(bobEvents) != 1 {
		t.Fatalf("expected exactly 1 broadcast each, got %d and %d", len(aliceEvents), len(bobEvents))
	}
	want := []string{"alice", "bob"}
	if ids := onlineSet(t, aliceEvents[0]); !equalIDs(ids, want) {
		t.Errorf("expected online set %v, got %v", want, ids)
	}
	if ids := onlineSet(t, bobEvents[0]); !equalIDs(ids, want) {
		t.Errorf("expected online set %v, got %v", want, ids)
	}

	h.Unregister(bob)

	events = drainEvents(t, alice)
	if len(events) != 1 {
		t.Fatalf("expected exactly 1 broadcast after unregister, got %d", len(events))
	}
	if ids := onlineSet(t, events[0]); !equalIDs(ids, []string{"alice"}) {
		t.Errorf("expected online set [alice], got %v", ids)
	}
}

func TestOnlineUsersSorted(t *testing.T) {
	h := newTestHub()

	h.Register(newTestClient(t, h, nil, "carol"))
	h.Register(newTestClient(t, h, nil, "alice"))
	h.Register(newTestClient(t, h, nil, "bob"))

	online := h.OnlineUsers()
	ids := make([]string, len(online))
	for i, u := range online {
		ids[i] = u.UserID
	}

	if !equalIDs(ids, []string{"alice", "bob", "carol"}) {
		t.Errorf("expected sorted online set, got %v", ids)
	}
}

func TestShutdownClosesAllConnections(t *testing.T) {
	h := newTestHub()
	alice := newTestClient(t, h, nil, "alice")
	bob := newTestClient(t, h, nil, "bob")

	h.Register(alice)
	h.Register(bob)
	h.Shutdown()

	if h.IsOnline("alice") || h.IsOnline("bob") {
		t.Error("expected an empty registry after shutdown")
	}

	drainEvents(t, alice)
	if _, ok := <-alice.send; ok {
		t.Error("expected closed send queue after shutdown")
	}
}

func TestDispatchRegistersViaAddUserAndSetup(t *testing.T) {
	h := newTestHub()
	relay := NewRelay(h, message.NewMemoryStore())

	alice := newTestClient(t, h, relay, "alice")
	alice.processInboundEvent([]byte(`{"type":"addNewUser","payload":{"userId":"alice"}}`))

	if !h.IsOnline("alice") {
		t.Fatal("expected addNewUser to register the connection")
	}

	bob := newTestClient(t, h, relay, "bob")
	bob.processInboundEvent([]byte(`{"type":"setup","payload":{"userId":"bob"}}`))

	if !h.IsOnline("bob") {
		t.Fatal("expected setup alias to register the connection")
	}
}

func TestDispatchRejectsForeignIdentity(t *testing.T) {
	h := newTestHub()
	alice := newTestClient(t, h, nil, "alice")

	alice.processInboundEvent([]byte(`{"type":"addNewUser","payload":{"userId":"mallory"}}`))

	if h.IsOnline("mallory") || h.IsOnline("alice") {
		t.Fatal("expected no registration for a mismatched identity")
	}

	event, ok := waitEvent(t, alice, time.Second)
	if !ok || event.Type != EventError {
		t.Fatalf("expected an error event, got %v", event.Type)
	}
}

func TestDispatchIgnoresUnknownEventsAndBadJSON(t *testing.T) {
	h := newTestHub()
	alice := newTestClient(t, h, nil, "alice")

	alice.processInboundEvent([]byte(`{"type":"bogus-event"}`))
	alice.processInboundEvent([]byte(`{not json`))

	if events := drainEvents(t, alice); len(events) != 0 {
		t.Fatalf("expected no events, got %d", len(events))
	}
}

func TestDispatchRemoveUserUnregisters(t *testing.T) {
	h := newTestHub()
	alice := newTestClient(t, h, nil, "alice")

	h.Register(alice)
	alice.processInboundEvent([]byte(`{"type":"removeUser","payload":{"userId":"alice"}}`))

	if h.IsOnline("alice") {
		t.Fatal("expected removeUser to unregister the connection")
	}
}
