package message

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"duochat/internal/pkg/randx"
)

// PostgresStore persists messages in PostgreSQL.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a PostgresStore backed by the given pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const messageColumns = `id::text, sender_id::text, receiver_id::text, body, created_at`

func scanMessage(row pgx.Row) (*Message, error) {
	var m Message
	if err := row.Scan(&m.ID, &m.SenderID, &m.ReceiverID, &m.Body, &m.CreatedAt); err != nil {
		return nil, err
	}
	return &m, nil
}

// Create inserts a message with a server-assigned ID and timestamp.
func (s *PostgresStore) Create(ctx context.Context, senderID, receiverID, body string) (*Message, error) {
	row := s.pool.QueryRow(ctx, `
		INSERT INTO messages (id, sender_id, receiver_id, body, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+messageColumns,
		randx.MessageID(), senderID, receiverID, body, time.Now().UTC())

	msg, err := scanMessage(row)
	if err != nil {
		return nil, fmt.Errorf("create message: %w", err)
	}
	return msg, nil
}

// Conversation returns up to limit messages between the two users, oldest first.
func (s *PostgresStore) Conversation(ctx context.Context, userID, peerID string, limit int) ([]*Message, error) {
	query := `
		SELECT ` + messageColumns + ` FROM messages
		WHERE (sender_id = $1 AND receiver_id = $2)
		   OR (sender_id = $2 AND receiver_id = $1)
		ORDER BY created_at`

	args := []any{userID, peerID}
	if limit > 0 {
		// Take the newest messages, then flip back to ascending order.
		query = `SELECT * FROM (` + query + ` DESC LIMIT $3) latest ORDER BY created_at`
		args = append(args, limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("conversation query: %w", err)
	}
	defer rows.Close()

	var msgs []*Message
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		msgs = append(msgs, msg)
	}
	return msgs, rows.Err()
}

// GetByID fetches a single message.
func (s *PostgresStore) GetByID(ctx context.Context, id string) (*Message, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+messageColumns+` FROM messages WHERE id = $1`, id)

	msg, err := scanMessage(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get message: %w", err)
	}
	return msg, nil
}
