package message

import (
	"context"
	"fmt"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

// countingStore wraps MemoryStore and counts Conversation reads so tests can
// tell cache hits from fallthroughs.
type countingStore struct {
	*MemoryStore
	conversationReads int
}

func (s *countingStore) Conversation(ctx context.Context, userID, peerID string, limit int) ([]*Message, error) {
	s.conversationReads++
	return s.MemoryStore.Conversation(ctx, userID, peerID, limit)
}

func newTestCachedStore(t *testing.T, maxSize int) (*CachedStore, *countingStore) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	inner := &countingStore{MemoryStore: NewMemoryStore()}
	return NewCachedStore(inner, client, maxSize), inner
}

func TestCachedStoreCreateWritesThrough(t *testing.T) {
	s, inner := newTestCachedStore(t, 10)
	ctx := context.Background()

	msg, err := s.Create(ctx, "alice", "bob", "hi")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if msg.ID == "" {
		t.Error("expected server-assigned ID")
	}

	if inner.Count("alice", "bob") != 1 {
		t.Fatalf("expected message persisted in the underlying store")
	}
}

func TestCachedStoreServesRecentFromCache(t *testing.T) {
	s, inner := newTestCachedStore(t, 10)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		s.Create(ctx, "alice", "bob", fmt.Sprintf("msg-%d", i))
	}

	msgs, err := s.Conversation(ctx, "alice", "bob", 3)
	if err != nil {
		t.Fatalf("Conversation failed: %v", err)
	}

	if inner.conversationReads != 0 {
		t.Fatalf("expected cache hit, underlying store was read %d times", inner.conversationReads)
	}
	if len(msgs) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(msgs))
	}
	if msgs[0].Body != "msg-2" || msgs[2].Body != "msg-4" {
		t.Errorf("expected the newest tail in order, got [%s .. %s]", msgs[0].Body, msgs[2].Body)
	}
}

func TestCachedStoreFallsThroughWhenCacheShort(t *testing.T) {
	s, inner := newTestCachedStore(t, 10)
	ctx := context.Background()

	// Write to the underlying store directly so the cache stays cold.
	inner.MemoryStore.Create(ctx, "alice", "bob", "old")

	msgs, err := s.Conversation(ctx, "alice", "bob", 5)
	if err != nil {
		t.Fatalf("Conversation failed: %v", err)
	}

	if inner.conversationReads != 1 {
		t.Fatalf("expected one underlying read, got %d", inner.conversationReads)
	}
	if len(msgs) != 1 || msgs[0].Body != "old" {
		t.Fatalf("expected the persisted message, got %d messages", len(msgs))
	}
}

func TestCachedStoreTrimsToMaxSize(t *testing.T) {
	s, inner := newTestCachedStore(t, 3)
	ctx := context.Background()

	for i := 0; i < 6; i++ {
		s.Create(ctx, "alice", "bob", fmt.Sprintf("msg-%d", i))
	}

	msgs, err := s.Conversation(ctx, "alice", "bob", 3)
	if err != nil {
		t.Fatalf("Conversation failed: %v", err)
	}

	if inner.conversationReads != 0 {
		t.Fatalf("expected cache hit, underlying store was read %d times", inner.conversationReads)
	}
	if len(msgs) != 3 {
		t.Fatalf("expected 3 cached messages, got %d", len(msgs))
	}
	if msgs[0].Body != "msg-3" {
		t.Errorf("expected oldest cached message msg-3, got %s", msgs[0].Body)
	}
}

func TestCachedStoreUnlimitedReadRebuildsCache(t *testing.T) {
	s, inner := newTestCachedStore(t, 10)
	ctx := context.Background()

	inner.MemoryStore.Create(ctx, "alice", "bob", "first")
	inner.MemoryStore.Create(ctx, "alice", "bob", "second")

	if _, err := s.Conversation(ctx, "alice", "bob", 0); err != nil {
		t.Fatalf("Conversation failed: %v", err)
	}

	// The rebuilt cache should answer the next bounded read alone.
	inner.conversationReads = 0
	msgs, err := s.Conversation(ctx, "alice", "bob", 2)
	if err != nil {
		t.Fatalf("Conversation failed: %v", err)
	}
	if inner.conversationReads != 0 {
		t.Fatalf("expected cache hit after rebuild, underlying store was read %d times", inner.conversationReads)
	}
	if len(msgs) != 2 || msgs[0].Body != "first" {
		t.Fatalf("unexpected cached contents: %d messages", len(msgs))
	}
}

func TestCachedStoreGetByIDPassesThrough(t *testing.T) {
	s, _ := newTestCachedStore(t, 10)
	ctx := context.Background()

	created, _ := s.Create(ctx, "alice", "bob", "hi")

	got, err := s.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.ID != created.ID {
		t.Errorf("expected ID %s, got %s", created.ID, got.ID)
	}
}
