package organizations

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/currency"

	"github.com/stewardbooks/stewardbooks/internal/memberships"
	"github.com/stewardbooks/stewardbooks/internal/roles"
	"github.com/stewardbooks/stewardbooks/internal/shared"
)

// ErrInvalidCurrency indicates the currency code is not a known ISO 4217 unit.
var ErrInvalidCurrency = errors.New("organizations: invalid currency code")

// AuthorizerPort gates every organization-scoped operation.
type AuthorizerPort interface {
	Authorize(ctx context.Context, orgID, userID uuid.UUID, allowed ...roles.Role) (memberships.Membership, error)
}

// AuditPort records organization events, best effort.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service implements organization lifecycle and the dashboard summary.
type Service struct {
	repo       Repository
	authorizer AuthorizerPort
	audit      AuditPort
	now        func() time.Time
}

// NewService builds a Service instance.
func NewService(repo Repository, authorizer AuthorizerPort, audit AuditPort) *Service {
	return &Service{repo: repo, authorizer: authorizer, audit: audit, now: time.Now}
}

// WithNow overrides the clock, for tests.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// Create provisions a new organization. The creator becomes its OWNER in the
// same unit of work, so the last-owner invariant holds from the first moment.
func (s *Service) Create(ctx context.Context, creatorID uuid.UUID, req CreateRequest) (Organization, error) {
	if _, err := currency.ParseISO(req.Currency); err != nil {
		return Organization{}, ErrInvalidCurrency
	}
	slug := req.Slug
	if slug == "" {
		slug = slugify(req.Name)
	}
	org := Organization{
		ID:          uuid.New(),
		Name:        req.Name,
		Slug:        slug,
		Description: req.Description,
		Currency:    req.Currency,
		CreatedBy:   creatorID,
	}
	created, err := s.repo.CreateWithOwner(ctx, org)
	if err != nil {
		return Organization{}, err
	}
	s.record(ctx, created.ID, creatorID, "organization.create", nil, map[string]any{
		"name": created.Name, "slug": created.Slug,
	})
	return created, nil
}

// Get returns one organization. Any active member may look.
func (s *Service) Get(ctx context.Context, orgID, actorID uuid.UUID) (Organization, error) {
	if _, err := s.authorizer.Authorize(ctx, orgID, actorID); err != nil {
		return Organization{}, err
	}
	return s.repo.Get(ctx, orgID)
}

// ListForUser returns the organizations the user is an active member of.
func (s *Service) ListForUser(ctx context.Context, userID uuid.UUID) ([]Organization, error) {
	return s.repo.ListForUser(ctx, userID)
}

// Update patches organization details. Owners and admins only.
func (s *Service) Update(ctx context.Context, orgID, actorID uuid.UUID, patch UpdateRequest) (Organization, error) {
	if _, err := s.authorizer.Authorize(ctx, orgID, actorID, roles.ManageMembers...); err != nil {
		return Organization{}, err
	}
	if patch.Currency != nil {
		if _, err := currency.ParseISO(*patch.Currency); err != nil {
			return Organization{}, ErrInvalidCurrency
		}
	}
	if err := s.repo.UpdateDetails(ctx, orgID, patch); err != nil {
		return Organization{}, err
	}
	updated, err := s.repo.Get(ctx, orgID)
	if err != nil {
		return Organization{}, err
	}
	s.record(ctx, orgID, actorID, "organization.update", nil, map[string]any{"name": updated.Name})
	return updated, nil
}

// Deactivate soft-deletes the organization. The most sensitive operation in
// the module, so it is gated on OWNER alone.
func (s *Service) Deactivate(ctx context.Context, orgID, actorID uuid.UUID) error {
	if _, err := s.authorizer.Authorize(ctx, orgID, actorID, roles.OwnerOnly...); err != nil {
		return err
	}
	if err := s.repo.SetActive(ctx, orgID, false); err != nil {
		return err
	}
	s.record(ctx, orgID, actorID, "organization.deactivate",
		map[string]any{"is_active": true}, map[string]any{"is_active": false})
	return nil
}

// Summary aggregates the dashboard figures with one query per concern,
// fanned out concurrently. Transaction count covers the trailing 30 days.
func (s *Service) Summary(ctx context.Context, orgID, actorID uuid.UUID) (Summary, error) {
	if _, err := s.authorizer.Authorize(ctx, orgID, actorID); err != nil {
		return Summary{}, err
	}

	var summary Summary
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		total, count, err := s.repo.SumAccountBalances(ctx, orgID)
		if err != nil {
			return err
		}
		summary.TotalBalance = total
		summary.AccountCount = count
		return nil
	})
	g.Go(func() error {
		count, err := s.repo.CountActiveMembers(ctx, orgID)
		if err != nil {
			return err
		}
		summary.MemberCount = count
		return nil
	})
	g.Go(func() error {
		count, err := s.repo.CountTransactionsSince(ctx, orgID, s.now().AddDate(0, 0, -30))
		if err != nil {
			return err
		}
		summary.TransactionCount = count
		return nil
	})
	if err := g.Wait(); err != nil {
		return Summary{}, err
	}
	return summary, nil
}

func (s *Service) record(ctx context.Context, orgID, actorID uuid.UUID, action string, oldValues, newValues map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		OrganizationID: orgID,
		ActorID:        actorID,
		Action:         action,
		Module:         "organizations",
		Entity:         "organization",
		EntityID:       orgID.String(),
		OldValues:      oldValues,
		NewValues:      newValues,
		At:             s.now(),
	})
}
