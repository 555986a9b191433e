/*
Package user contains the user model and its PostgreSQL store.
*/
package user

import "time"

// User represents a registered account. The Online flag is derived from the
// connection registry at read time and never persisted.
type User struct {
	// ID is the unique identifier for the user.
	ID string `json:"id"`

	// Username is the unique sign-in name.
	Username string `json:"username"`

	// PasswordHash is the bcrypt hash of the password. Never serialized.
	PasswordHash string `json:"-"`

	// Name is the display name shown in the contact list and chat header.
	Name string `json:"name"`

	// Avatar is the URL of the user's avatar image, if set.
	Avatar string `json:"avatar,omitempty"`

	// Online reports whether the user currently has a live connection.
	Online bool `json:"online"`

	CreatedAt   time.Time  `json:"createdAt"`
	LastLoginAt *time.Time `json:"lastLoginAt,omitempty"`
}
