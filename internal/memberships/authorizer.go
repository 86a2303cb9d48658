package memberships

import (
	"context"

	"github.com/google/uuid"

	"github.com/stewardbooks/stewardbooks/internal/roles"
	"github.com/stewardbooks/stewardbooks/internal/shared"
)

// ReaderPort is the read-only membership lookup the authorizer needs.
type ReaderPort interface {
	Get(ctx context.Context, orgID, userID uuid.UUID) (Membership, error)
}

// Authorizer is the mandatory gate for every organization-scoped operation.
// Each service-level mutation calls Authorize exactly once, with the
// allow-list appropriate to the action, before touching any state.
type Authorizer struct {
	repo ReaderPort
}

// NewAuthorizer constructs an Authorizer.
func NewAuthorizer(repo ReaderPort) *Authorizer {
	return &Authorizer{repo: repo}
}

// Authorize confirms the user holds an active membership in the organization
// and, when an allow-list is given, that the membership's role is in it.
// The membership is returned so callers can apply further rank checks.
func (a *Authorizer) Authorize(ctx context.Context, orgID, userID uuid.UUID, allowed ...roles.Role) (Membership, error) {
	m, err := a.repo.Get(ctx, orgID, userID)
	if err != nil {
		return Membership{}, shared.ErrNotAMember
	}
	if !m.IsActive {
		return Membership{}, shared.ErrNotAMember
	}
	if len(allowed) == 0 {
		return m, nil
	}
	for _, r := range allowed {
		if m.Role == r {
			return m, nil
		}
	}
	return Membership{}, shared.ErrInsufficientRole
}
