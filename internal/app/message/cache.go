package message

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"duochat/internal/pkg/logx"
)

// cacheKey returns the Redis key for a conversation's recent-message list.
func cacheKey(userID, peerID string) string {
	return "conv:" + ConversationKey(userID, peerID) + ":recent"
}

// CachedStore layers a Redis recent-message cache over another Store. The
// cache is best effort: Redis failures are logged and reads fall back to the
// underlying store.
type CachedStore struct {
	inner   Store
	client  redis.Cmdable
	maxSize int64
	logger  zerolog.Logger
}

// NewCachedStore wraps inner with a cache retaining up to maxSize messages
// per conversation.
func NewCachedStore(inner Store, client redis.Cmdable, maxSize int) *CachedStore {
	return &CachedStore{
		inner:   inner,
		client:  client,
		maxSize: int64(maxSize),
		logger:  logx.Logger().With().Str("component", "message_cache").Logger(),
	}
}

// Create persists through the underlying store and appends to the cache.
func (s *CachedStore) Create(ctx context.Context, senderID, receiverID, body string) (*Message, error) {
	msg, err := s.inner.Create(ctx, senderID, receiverID, body)
	if err != nil {
		return nil, err
	}

	s.append(ctx, msg)
	return msg, nil
}

func (s *CachedStore) append(ctx context.Context, msg *Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		s.logger.Error().Err(err).Str("message_id", msg.ID).Msg("Failed to marshal message for cache")
		return
	}

	key := cacheKey(msg.SenderID, msg.ReceiverID)
	pipe := s.client.Pipeline()
	pipe.RPush(ctx, key, data)
	pipe.LTrim(ctx, key, -s.maxSize, -1)
	if _, err := pipe.Exec(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to append message to cache")
	}
}

// Conversation serves from the cache when it holds enough messages, otherwise
// reads the underlying store and rebuilds the cached tail.
func (s *CachedStore) Conversation(ctx context.Context, userID, peerID string, limit int) ([]*Message, error) {
	key := cacheKey(userID, peerID)

	if limit > 0 && int64(limit) <= s.maxSize {
		n, err := s.client.LLen(ctx, key).Result()
		if err == nil && n >= int64(limit) {
			vals, err := s.client.LRange(ctx, key, int64(-limit), -1).Result()
			if err == nil {
				msgs := decodeCached(vals)
				if len(msgs) == len(vals) {
					return msgs, nil
				}
			}
		}
	}

	msgs, err := s.inner.Conversation(ctx, userID, peerID, limit)
	if err != nil {
		return nil, err
	}

	// Rebuild the cached tail when the read covered it.
	if limit <= 0 || int64(limit) >= s.maxSize {
		s.rebuild(ctx, key, msgs)
	}

	return msgs, nil
}

func (s *CachedStore) rebuild(ctx context.Context, key string, msgs []*Message) {
	tail := msgs
	if int64(len(tail)) > s.maxSize {
		tail = tail[int64(len(tail))-s.maxSize:]
	}

	pipe := s.client.Pipeline()
	pipe.Del(ctx, key)
	for _, msg := range tail {
		data, err := json.Marshal(msg)
		if err != nil {
			continue
		}
		pipe.RPush(ctx, key, data)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to rebuild conversation cache")
	}
}

func decodeCached(vals []string) []*Message {
	msgs := make([]*Message, 0, len(vals))
	for _, v := range vals {
		var m Message
		if err := json.Unmarshal([]byte(v), &m); err != nil {
			continue
		}
		msgs = append(msgs, &m)
	}
	return msgs
}

// GetByID passes through to the underlying store.
func (s *CachedStore) GetByID(ctx context.Context, id string) (*Message, error) {
	return s.inner.GetByID(ctx, id)
}
