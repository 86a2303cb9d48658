package paymentmethods

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/stewardbooks/stewardbooks/internal/memberships"
	"github.com/stewardbooks/stewardbooks/internal/roles"
	"github.com/stewardbooks/stewardbooks/internal/shared"
)

// AuthorizerPort gates every organization-scoped operation.
type AuthorizerPort interface {
	Authorize(ctx context.Context, orgID, userID uuid.UUID, allowed ...roles.Role) (memberships.Membership, error)
}

// AuditPort records payment method changes, best effort.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service handles payment method business logic.
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

// Create adds a payment method.
func (s *Service) Create(ctx context.Context, orgID, actorID uuid.UUID, req CreateRequest) (PaymentMethod, error) {
	if _, err := s.authorizer.Authorize(ctx, orgID, actorID, roles.ManageFinances...); err != nil {
		return PaymentMethod{}, err
	}
	created, err := s.repo.Insert(ctx, PaymentMethod{
		ID:             uuid.New(),
		OrganizationID: orgID,
		Name:           req.Name,
		Description:    req.Description,
		IsActive:       true,
	})
	if err != nil {
		return PaymentMethod{}, err
	}
	s.record(ctx, orgID, actorID, "payment_method.create", created.ID, map[string]any{"name": created.Name})
	return created, nil
}

// Update patches payment method details.
func (s *Service) Update(ctx context.Context, orgID, actorID, id uuid.UUID, req UpdateRequest) (PaymentMethod, error) {
	if _, err := s.authorizer.Authorize(ctx, orgID, actorID, roles.ManageFinances...); err != nil {
		return PaymentMethod{}, err
	}
	if err := s.repo.UpdateDetails(ctx, orgID, id, req.Name, req.Description); err != nil {
		return PaymentMethod{}, err
	}
	updated, err := s.repo.Get(ctx, orgID, id)
	if err != nil {
		return PaymentMethod{}, err
	}
	s.record(ctx, orgID, actorID, "payment_method.update", id, map[string]any{"name": updated.Name})
	return updated, nil
}

// SetActive toggles the soft activation flag.
func (s *Service) SetActive(ctx context.Context, orgID, actorID, id uuid.UUID, active bool) (PaymentMethod, error) {
	if _, err := s.authorizer.Authorize(ctx, orgID, actorID, roles.ManageFinances...); err != nil {
		return PaymentMethod{}, err
	}
	if err := s.repo.SetActive(ctx, orgID, id, active); err != nil {
		return PaymentMethod{}, err
	}
	p, err := s.repo.Get(ctx, orgID, id)
	if err != nil {
		return PaymentMethod{}, err
	}
	action := "payment_method.deactivate"
	if active {
		action = "payment_method.activate"
	}
	s.record(ctx, orgID, actorID, action, id, map[string]any{"is_active": active})
	return p, nil
}

// Get returns one payment method. Any active member may look.
func (s *Service) Get(ctx context.Context, orgID, actorID, id uuid.UUID) (PaymentMethod, error) {
	if _, err := s.authorizer.Authorize(ctx, orgID, actorID); err != nil {
		return PaymentMethod{}, err
	}
	return s.repo.Get(ctx, orgID, id)
}

// List returns all payment methods of the organization.
func (s *Service) List(ctx context.Context, orgID, actorID uuid.UUID) ([]PaymentMethod, error) {
	if _, err := s.authorizer.Authorize(ctx, orgID, actorID); err != nil {
		return nil, err
	}
	return s.repo.ListByOrganization(ctx, orgID)
}

func (s *Service) record(ctx context.Context, orgID, actorID uuid.UUID, action string, entityID uuid.UUID, newValues map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		OrganizationID: orgID,
		ActorID:        actorID,
		Action:         action,
		Module:         "paymentmethods",
		Entity:         "payment_method",
		EntityID:       entityID.String(),
		NewValues:      newValues,
		At:             s.now(),
	})
}
