// Package group manages expense-sharing groups and their memberships.
package group

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound      = errors.New("group not found")
	ErrUserNotFound  = errors.New("user not found")
	ErrAlreadyMember = errors.New("user is already a member")
)

// Group is a named set of users who share expenses. Membership is
// insertion-ordered and only ever grows.
type Group struct {
	ID        uuid.UUID
	Name      string
	CreatedBy string
	Members   []string
	CreatedAt time.Time
}
