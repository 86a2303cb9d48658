package users

import (
	"time"

	"github.com/google/uuid"
)

// User is a registered person. Email is globally unique; memberships tie a
// user into organizations.
type User struct {
	ID           uuid.UUID
	Email        string
	Name         string
	PasswordHash string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
