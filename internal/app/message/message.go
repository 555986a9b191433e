/*
Package message contains the message model and its persistence backends: an
in-memory store, a PostgreSQL store, and a Redis cache layered over either.
*/
package message

import (
	"strings"
	"time"
)

// MaxBodyBytes is the maximum allowed size of a message body.
const MaxBodyBytes = 5000

// Message is a single direct message between two users. Records are immutable
// once created; the ID and timestamp are assigned by the server.
type Message struct {
	ID         string    `json:"id"`
	SenderID   string    `json:"senderId"`
	ReceiverID string    `json:"receiverId"`
	Body       string    `json:"message"`
	CreatedAt  time.Time `json:"createdAt"`
}

// ConversationKey returns a stable key for the unordered pair of user IDs, so
// both participants address the same conversation.
func ConversationKey(a, b string) string {
	if strings.Compare(a, b) > 0 {
		a, b = b, a
	}
	return a + ":" + b
}
