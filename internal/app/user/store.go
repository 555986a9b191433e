package user

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store provides access to user records in PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a Store backed by the given connection pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

const userColumns = `id::text, username, password_hash, name, avatar_url, created_at, last_login_at`

func scanUser(row pgx.Row) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Name, &u.Avatar, &u.CreatedAt, &u.LastLoginAt)
	return u, err
}

// Create inserts a new user and returns the stored record.
func (s *Store) Create(ctx context.Context, username, passwordHash, name string) (User, error) {
	row := s.pool.QueryRow(ctx, `
		INSERT INTO users (username, password_hash, name)
		VALUES ($1, $2, $3)
		RETURNING `+userColumns,
		username, passwordHash, name)

	u, err := scanUser(row)
	if err != nil {
		return User{}, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

// GetByUsername fetches a user by their sign-in name.
func (s *Store) GetByUsername(ctx context.Context, username string) (User, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+userColumns+` FROM users WHERE username = $1`, username)
	return scanUser(row)
}

// GetByID fetches a user by ID.
func (s *Store) GetByID(ctx context.Context, id string) (User, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

// List returns all users except excludeID, ordered by display name. It backs
// the contact list.
func (s *Store) List(ctx context.Context, excludeID string) ([]User, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+userColumns+` FROM users
		WHERE ($1 = '' OR id <> $1::uuid)
		ORDER BY name, username`, excludeID)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// UpdateLastLogin stamps the user's last login time.
func (s *Store) UpdateLastLogin(ctx context.Context, id string) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE users SET last_login_at = now() WHERE id = $1`, id)
	return err
}

// UpdateProfile updates the display name and avatar key, returning the
// refreshed record.
func (s *Store) UpdateProfile(ctx context.Context, id, name, avatarURL string) (User, error) {
	row := s.pool.QueryRow(ctx, `
		UPDATE users SET name = $2, avatar_url = $3
		WHERE id = $1
		RETURNING `+userColumns,
		id, name, avatarURL)
	return scanUser(row)
}
