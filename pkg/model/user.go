package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
)

var (
	ErrUserNotFound      = goerr.New("user not found")
	ErrUserAlreadyExists = goerr.New("user already exists")
	ErrInvalidCredential = goerr.New("invalid credential")
)

type UserID string

// NewUserID generates a new unique UserID
func NewUserID() UserID {
	return UserID(uuid.New().String())
}

// User is an account that owns memories. PasswordHash holds a bcrypt hash
// and is never serialized into API responses.
type User struct {
	ID           UserID
	Email        string
	Name         string
	PasswordHash string
	CreatedAt    time.Time
}
