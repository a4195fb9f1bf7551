package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Common validation errors
var (
	ErrEmptyUserID = errors.New("user ID cannot be empty")
	ErrEmptyEmail  = errors.New("email cannot be empty")
)

// User is the read model for a registered account. The summary pipeline
// only needs identity and account age; credentials and profile data live
// with the authentication boundary, outside this core.
type User struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// Validate checks if the User has valid data.
func (u *User) Validate() error {
	if u.ID == uuid.Nil {
		return ErrEmptyUserID
	}

	if u.Email == "" {
		return ErrEmptyEmail
	}

	return nil
}
