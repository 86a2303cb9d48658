package accounts

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/currency"

	"github.com/stewardbooks/stewardbooks/internal/memberships"
	"github.com/stewardbooks/stewardbooks/internal/roles"
	"github.com/stewardbooks/stewardbooks/internal/shared"
)

// ErrInvalidCurrency indicates a currency code outside ISO 4217.
var ErrInvalidCurrency = errors.New("accounts: invalid currency code")

// AuthorizerPort gates every organization-scoped operation.
type AuthorizerPort interface {
	Authorize(ctx context.Context, orgID, userID uuid.UUID, allowed ...roles.Role) (memberships.Membership, error)
}

// AuditPort records account changes, best effort.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service handles account business logic.
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

// Create opens a new account. The current balance starts at the initial
// balance; from then on only the transaction engine moves it.
func (s *Service) Create(ctx context.Context, orgID, actorID uuid.UUID, req CreateAccountRequest) (Account, error) {
	if _, err := s.authorizer.Authorize(ctx, orgID, actorID, roles.ManageFinances...); err != nil {
		return Account{}, err
	}
	if _, err := currency.ParseISO(req.Currency); err != nil {
		return Account{}, ErrInvalidCurrency
	}

	account := Account{
		ID:             uuid.New(),
		OrganizationID: orgID,
		Name:           req.Name,
		AccountType:    req.AccountType,
		Currency:       req.Currency,
		InitialBalance: req.InitialBalance,
		CurrentBalance: req.InitialBalance,
		IsActive:       true,
		CreatedBy:      actorID,
	}
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		inserted, err := tx.Insert(ctx, account)
		if err != nil {
			return err
		}
		account = inserted
		return nil
	})
	if err != nil {
		return Account{}, err
	}
	s.record(ctx, orgID, actorID, "account.create", account.ID, nil, map[string]any{
		"name":            account.Name,
		"currency":        account.Currency,
		"initial_balance": account.InitialBalance,
	})
	return account, nil
}

// Update renames an account or changes its type. Balance fields are not
// reachable from here.
func (s *Service) Update(ctx context.Context, orgID, actorID, accountID uuid.UUID, req UpdateAccountRequest) (Account, error) {
	if _, err := s.authorizer.Authorize(ctx, orgID, actorID, roles.ManageFinances...); err != nil {
		return Account{}, err
	}
	existing, err := s.repo.Get(ctx, orgID, accountID)
	if err != nil {
		return Account{}, err
	}
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		return tx.UpdateDetails(ctx, orgID, accountID, req.Name, req.AccountType)
	})
	if err != nil {
		return Account{}, err
	}
	updated, err := s.repo.Get(ctx, orgID, accountID)
	if err != nil {
		return Account{}, err
	}
	s.record(ctx, orgID, actorID, "account.update", accountID,
		map[string]any{"name": existing.Name, "account_type": existing.AccountType},
		map[string]any{"name": updated.Name, "account_type": updated.AccountType})
	return updated, nil
}

// SetActive activates or deactivates an account. Stricter than create:
// treasurers may open accounts but not retire them.
func (s *Service) SetActive(ctx context.Context, orgID, actorID, accountID uuid.UUID, active bool) (Account, error) {
	if _, err := s.authorizer.Authorize(ctx, orgID, actorID, roles.ManageAccounts...); err != nil {
		return Account{}, err
	}
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		return tx.SetActive(ctx, orgID, accountID, active)
	})
	if err != nil {
		return Account{}, err
	}
	account, err := s.repo.Get(ctx, orgID, accountID)
	if err != nil {
		return Account{}, err
	}
	action := "account.deactivate"
	if active {
		action = "account.activate"
	}
	s.record(ctx, orgID, actorID, action, accountID, nil, map[string]any{"is_active": active})
	return account, nil
}

// Get returns one account. Any active member may look.
func (s *Service) Get(ctx context.Context, orgID, actorID, accountID uuid.UUID) (Account, error) {
	if _, err := s.authorizer.Authorize(ctx, orgID, actorID); err != nil {
		return Account{}, err
	}
	return s.repo.Get(ctx, orgID, accountID)
}

// List returns all accounts of the organization.
func (s *Service) List(ctx context.Context, orgID, actorID uuid.UUID) ([]Account, error) {
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
		Module:         "accounts",
		Entity:         "account",
		EntityID:       entityID.String(),
		OldValues:      oldValues,
		NewValues:      newValues,
		At:             s.now(),
	})
}
