package message

import (
	"context"
	"errors"
	"sync"
	"time"

	"duochat/internal/pkg/randx"
)

// ErrNotFound is returned when a message does not exist.
var ErrNotFound = errors.New("message not found")

// Store is the interface for message persistence backends.
type Store interface {
	// Create persists a new message with a server-assigned ID and timestamp.
	Create(ctx context.Context, senderID, receiverID, body string) (*Message, error)

	// Conversation returns up to limit messages exchanged between the two
	// users, oldest first. limit <= 0 means no limit.
	Conversation(ctx context.Context, userID, peerID string, limit int) ([]*Message, error)

	// GetByID fetches a single message.
	GetByID(ctx context.Context, id string) (*Message, error)
}

// MemoryStore keeps messages in process memory, grouped per conversation.
// It backs tests and single-node development runs.
type MemoryStore struct {
	mu            sync.RWMutex
	conversations map[string][]*Message
	byID          map[string]*Message
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		conversations: make(map[string][]*Message),
		byID:          make(map[string]*Message),
	}
}

// Create appends a message to its conversation.
func (s *MemoryStore) Create(ctx context.Context, senderID, receiverID, body string) (*Message, error) {
	msg := &Message{
		ID:         randx.MessageID(),
		SenderID:   senderID,
		ReceiverID: receiverID,
		Body:       body,
		CreatedAt:  time.Now().UTC(),
	}

	key := ConversationKey(senderID, receiverID)

	s.mu.Lock()
	s.conversations[key] = append(s.conversations[key], msg)
	s.byID[msg.ID] = msg
	s.mu.Unlock()

	return msg, nil
}

// Conversation returns the messages between the two users, oldest first.
func (s *MemoryStore) Conversation(ctx context.Context, userID, peerID string, limit int) ([]*Message, error) {
	key := ConversationKey(userID, peerID)

	s.mu.RLock()
	defer s.mu.RUnlock()

	msgs := s.conversations[key]
	if limit > 0 && len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}

	result := make([]*Message, len(msgs))
	copy(result, msgs)
	return result, nil
}

// GetByID fetches a single message.
func (s *MemoryStore) GetByID(ctx context.Context, id string) (*Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	msg, ok := s.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return msg, nil
}

// Count returns the number of stored messages between the two users.
func (s *MemoryStore) Count(userID, peerID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.conversations[ConversationKey(userID, peerID)])
}
