package memberships

import (
	"time"

	"github.com/google/uuid"
)

// InviteRequest invites a registered user into the organization.
type InviteRequest struct {
	Email string `json:"email" validate:"required,email"`
	Role  string `json:"role" validate:"required,oneof=OWNER ADMIN TREASURER MEMBER VIEWER"`
}

// ChangeRoleRequest assigns a new role to an existing member.
type ChangeRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=OWNER ADMIN TREASURER MEMBER VIEWER"`
}

// View is the JSON shape of a membership.
type View struct {
	ID             uuid.UUID  `json:"id"`
	OrganizationID uuid.UUID  `json:"organization_id"`
	UserID         uuid.UUID  `json:"user_id"`
	Role           string     `json:"role"`
	IsActive       bool       `json:"is_active"`
	InvitedAt      time.Time  `json:"invited_at"`
	JoinedAt       *time.Time `json:"joined_at,omitempty"`
}

// NewView converts a Membership into its JSON shape.
func NewView(m Membership) View {
	return View{
		ID:             m.ID,
		OrganizationID: m.OrganizationID,
		UserID:         m.UserID,
		Role:           string(m.Role),
		IsActive:       m.IsActive,
		InvitedAt:      m.InvitedAt,
		JoinedAt:       m.JoinedAt,
	}
}
