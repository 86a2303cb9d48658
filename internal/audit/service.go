package audit

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/stewardbooks/stewardbooks/internal/memberships"
	"github.com/stewardbooks/stewardbooks/internal/roles"
)

// AuthorizerPort gates timeline reads.
type AuthorizerPort interface {
	Authorize(ctx context.Context, orgID, userID uuid.UUID, allowed ...roles.Role) (memberships.Membership, error)
}

// Service is the read side of the audit trail. Writes happen through the
// shared sink; this only answers "who did what" questions.
type Service struct {
	repo       Repository
	authorizer AuthorizerPort
}

// NewService builds a Service instance.
func NewService(repo Repository, authorizer AuthorizerPort) *Service {
	return &Service{repo: repo, authorizer: authorizer}
}

// Timeline lists audit entries for the organization, newest first. Restricted
// to owners and admins; the trail exposes every member's actions.
func (s *Service) Timeline(ctx context.Context, orgID, actorID uuid.UUID, filters Filters) ([]Entry, int, error) {
	if _, err := s.authorizer.Authorize(ctx, orgID, actorID, roles.ManageMembers...); err != nil {
		return nil, 0, err
	}
	return s.repo.List(ctx, orgID, filters)
}

// Prune removes entries older than the retention window. The maintenance
// worker calls this on a schedule.
func (s *Service) Prune(ctx context.Context, retention time.Duration) (int64, error) {
	return s.repo.PruneBefore(ctx, time.Now().Add(-retention))
}
