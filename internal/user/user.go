// Package user manages accounts and login.
package user

import (
	"errors"
	"time"
)

var (
	ErrNotFound      = errors.New("user not found")
	ErrUsernameTaken = errors.New("username already exists")
)

// User is an account identified by a unique handle.
type User struct {
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}
