package categories

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/stewardbooks/stewardbooks/internal/memberships"
	"github.com/stewardbooks/stewardbooks/internal/roles"
	"github.com/stewardbooks/stewardbooks/internal/shared"
)

var (
	// ErrKindMismatch indicates the category kind does not fit the transaction type.
	ErrKindMismatch = errors.New("categories: category kind does not match transaction type")
	// ErrInactive indicates a deactivated category was referenced.
	ErrInactive = errors.New("categories: category is deactivated")
)

// AuthorizerPort gates every organization-scoped operation.
type AuthorizerPort interface {
	Authorize(ctx context.Context, orgID, userID uuid.UUID, allowed ...roles.Role) (memberships.Membership, error)
}

// AuditPort records category changes, best effort.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service handles category business logic.
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

// EnsureUsableForType verifies the referenced category exists, is active and
// fits the transaction type. The transaction engine calls this before any
// state change.
func (s *Service) EnsureUsableForType(ctx context.Context, orgID, categoryID uuid.UUID, txType string) error {
	c, err := s.repo.Get(ctx, orgID, categoryID)
	if err != nil {
		return err
	}
	if !c.IsActive {
		return ErrInactive
	}
	if !c.Accepts(txType) {
		return ErrKindMismatch
	}
	return nil
}

// Create adds a category.
func (s *Service) Create(ctx context.Context, orgID, actorID uuid.UUID, req CreateRequest) (Category, error) {
	if _, err := s.authorizer.Authorize(ctx, orgID, actorID, roles.ManageFinances...); err != nil {
		return Category{}, err
	}
	created, err := s.repo.Insert(ctx, Category{
		ID:             uuid.New(),
		OrganizationID: orgID,
		Name:           req.Name,
		Kind:           req.Kind,
		Description:    req.Description,
		IsActive:       true,
	})
	if err != nil {
		return Category{}, err
	}
	s.record(ctx, orgID, actorID, "category.create", created.ID, nil, map[string]any{
		"name": created.Name, "kind": string(created.Kind),
	})
	return created, nil
}

// Update patches category details.
func (s *Service) Update(ctx context.Context, orgID, actorID, categoryID uuid.UUID, req UpdateRequest) (Category, error) {
	if _, err := s.authorizer.Authorize(ctx, orgID, actorID, roles.ManageFinances...); err != nil {
		return Category{}, err
	}
	if err := s.repo.UpdateDetails(ctx, orgID, categoryID, req.Name, req.Description, req.Kind); err != nil {
		return Category{}, err
	}
	updated, err := s.repo.Get(ctx, orgID, categoryID)
	if err != nil {
		return Category{}, err
	}
	s.record(ctx, orgID, actorID, "category.update", categoryID, nil, map[string]any{
		"name": updated.Name, "kind": string(updated.Kind),
	})
	return updated, nil
}

// SetActive toggles the soft activation flag. Deactivated categories stay on
// historic transactions but cannot label new ones.
func (s *Service) SetActive(ctx context.Context, orgID, actorID, categoryID uuid.UUID, active bool) (Category, error) {
	if _, err := s.authorizer.Authorize(ctx, orgID, actorID, roles.ManageFinances...); err != nil {
		return Category{}, err
	}
	if err := s.repo.SetActive(ctx, orgID, categoryID, active); err != nil {
		return Category{}, err
	}
	c, err := s.repo.Get(ctx, orgID, categoryID)
	if err != nil {
		return Category{}, err
	}
	action := "category.deactivate"
	if active {
		action = "category.activate"
	}
	s.record(ctx, orgID, actorID, action, categoryID, nil, map[string]any{"is_active": active})
	return c, nil
}

// Get returns one category. Any active member may look.
func (s *Service) Get(ctx context.Context, orgID, actorID, categoryID uuid.UUID) (Category, error) {
	if _, err := s.authorizer.Authorize(ctx, orgID, actorID); err != nil {
		return Category{}, err
	}
	return s.repo.Get(ctx, orgID, categoryID)
}

// List returns all categories of the organization.
func (s *Service) List(ctx context.Context, orgID, actorID uuid.UUID) ([]Category, error) {
	if _, err := s.authorizer.Authorize(ctx, orgID, actorID); err != nil {
		return nil, err
	}
	return s.repo.ListByOrganization(ctx, orgID)
}

func (s *Service) record(ctx context.Context, orgID, actorID uuid.UUID, action string, entityID uuid.UUID, oldValues, newValues map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		OrganizationID: orgID,
		ActorID:        actorID,
		Action:         action,
		Module:         "categories",
		Entity:         "category",
		EntityID:       entityID.String(),
		OldValues:      oldValues,
		NewValues:      newValues,
		At:             s.now(),
	})
}
