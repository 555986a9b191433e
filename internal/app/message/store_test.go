package message

import (
	"context"
	"fmt"
	"testing"
)

func TestMemoryStoreCreateAssignsIDAndTimestamp(t *testing.T) {
	s := NewMemoryStore()

	msg, err := s.Create(context.Background(), "alice", "bob", "hi")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if msg.ID == "" {
		t.Error("expected server-assigned ID")
	}
	if msg.CreatedAt.IsZero() {
		t.Error("expected server-assigned timestamp")
	}
	if msg.SenderID != "alice" || msg.ReceiverID != "bob" {
		t.Errorf("unexpected participants: %s -> %s", msg.SenderID, msg.ReceiverID)
	}
}

func TestMemoryStoreConversationSymmetric(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	s.Create(ctx, "alice", "bob", "hi")
	s.Create(ctx, "bob", "alice", "hey")

	forAlice, err := s.Conversation(ctx, "alice", "bob", 0)
	if err != nil {
		t.Fatalf("Conversation failed: %v", err)
	}
	forBob, err := s.Conversation(ctx, "bob", "alice", 0)
	if err != nil {
		t.Fatalf("Conversation failed: %v", err)
	}

	if len(forAlice) != 2 || len(forBob) != 2 {
		t.Fatalf("expected both views to hold 2 messages, got %d and %d", len(forAlice), len(forBob))
	}
	if forAlice[0].Body != "hi" || forAlice[1].Body != "hey" {
		t.Errorf("expected oldest-first ordering, got [%s, %s]", forAlice[0].Body, forAlice[1].Body)
	}
}

func TestMemoryStoreConversationLimit(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		s.Create(ctx, "alice", "bob", fmt.Sprintf("msg-%d", i))
	}

	msgs, err := s.Conversation(ctx, "alice", "bob", 2)
	if err != nil {
		t.Fatalf("Conversation failed: %v", err)
	}

	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	if msgs[0].Body != "msg-3" || msgs[1].Body != "msg-4" {
		t.Errorf("expected the newest tail in order, got [%s, %s]", msgs[0].Body, msgs[1].Body)
	}
}

func TestMemoryStoreConversationIsolation(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	s.Create(ctx, "alice", "bob", "for bob")
	s.Create(ctx, "alice", "carol", "for carol")

	msgs, err := s.Conversation(ctx, "alice", "bob", 0)
	if err != nil {
		t.Fatalf("Conversation failed: %v", err)
	}

	if len(msgs) != 1 || msgs[0].Body != "for bob" {
		t.Fatalf("expected only the bob conversation, got %d messages", len(msgs))
	}
}

func TestMemoryStoreGetByID(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	created, _ := s.Create(ctx, "alice", "bob", "hi")

	got, err := s.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Body != "hi" {
		t.Errorf("expected body hi, got %s", got.Body)
	}

	if _, err := s.GetByID(ctx, "missing"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestConversationKeyStable(t *testing.T) {
	if ConversationKey("a", "b") != ConversationKey("b", "a") {
		t.Error("expected the same key regardless of participant order")
	}
	if ConversationKey("a", "b") == ConversationKey("a", "c") {
		t.Error("expected distinct keys for distinct pairs")
	}
}
