package models

import (
	"time"

	"github.com/google/uuid"
)

// User represents a registered user account.
//
// Credentials are not stored here: callers authenticate with a signed token
// minted outside the API (see cmd/tripctl).
type User struct {
	// ID is the unique identifier for the user (UUID format).
	ID string

	// Username is the unique display handle shown to other trip members.
	Username string

	// Email is the user's email address (unique).
	Email string

	// CreatedAt is the Unix timestamp when the user account was created.
	CreatedAt int64
}

// NewUser creates a user with a fresh ID and creation time.
func NewUser(username, email string) *User {
	return &User{
		ID:        uuid.New().String(),
		Username:  username,
		Email:     email,
		CreatedAt: time.Now().Unix(),
	}
}
