package memberships

import (
	"time"

	"github.com/google/uuid"

	"github.com/stewardbooks/stewardbooks/internal/roles"
)

// Membership relates one user to one organization. There is at most one row
// per (user, organization) pair; revocation flips is_active instead of
// deleting, and a later invite reactivates the same row.
type Membership struct {
	ID             uuid.UUID
	OrganizationID uuid.UUID
	UserID         uuid.UUID
	Role           roles.Role
	IsActive       bool
	InvitedAt      time.Time
	JoinedAt       *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
