package transactions

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
	// ErrAlreadyVoided indicates a second void attempt on the same transaction.
	// Voiding must fail loudly rather than no-op so a double-void bug is
	// caught instead of masked.
	ErrAlreadyVoided = errors.New("transactions: already voided")
	// ErrVoidedImmutable indicates an update attempt on a voided transaction.
	ErrVoidedImmutable = errors.New("transactions: voided transactions cannot be modified")
)

// AuthorizerPort gates every organization-scoped operation.
type AuthorizerPort interface {
	Authorize(ctx context.Context, orgID, userID uuid.UUID, allowed ...roles.Role) (memberships.Membership, error)
}

// AuditPort records transaction events, best effort.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// CategoryGuard verifies a referenced category exists and fits the
// transaction type. Optional; a nil guard skips the check.
type CategoryGuard interface {
	EnsureUsableForType(ctx context.Context, orgID, categoryID uuid.UUID, txType string) error
}

// Service is the transaction engine: it turns a request into a consistent
// (transaction record, ledger state) pair inside one atomic unit of work,
// and produces the exact inverse on void.
type Service struct {
	repo       Repository
	authorizer AuthorizerPort
	audit      AuditPort
	categories CategoryGuard
	now        func() time.Time
}

// NewService builds a Service instance.
func NewService(repo Repository, authorizer AuthorizerPort, audit AuditPort, categories CategoryGuard) *Service {
	return &Service{repo: repo, authorizer: authorizer, audit: audit, categories: categories, now: time.Now}
}

// WithNow overrides the clock, for tests.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// Create records a transaction with status COMPLETED and applies its ledger
// effect in the same unit of work. Everyone except viewers may record.
func (s *Service) Create(ctx context.Context, orgID, actorID uuid.UUID, req CreateRequest) (Transaction, error) {
	if _, err := s.authorizer.Authorize(ctx, orgID, actorID, roles.RecordTransactions...); err != nil {
		return Transaction{}, err
	}
	if err := req.Validate(); err != nil {
		return Transaction{}, err
	}
	if s.categories != nil && req.CategoryID != nil {
		if err := s.categories.EnsureUsableForType(ctx, orgID, *req.CategoryID, string(req.Type)); err != nil {
			return Transaction{}, err
		}
	}

	now := s.now()
	reference := req.Reference
	if reference == "" {
		reference = newReference(now)
	}
	// Only the accounts the type's ledger effect touches are stored; a
	// from account on an INCOME or a to account on an EXPENSE is discarded.
	fromAccount, toAccount := req.FromAccountID, req.ToAccountID
	switch req.Type {
	case TypeIncome:
		fromAccount = nil
	case TypeExpense:
		toAccount = nil
	}
	record := Transaction{
		ID:              uuid.New(),
		OrganizationID:  orgID,
		Type:            req.Type,
		Status:          StatusCompleted,
		Amount:          req.Amount,
		Currency:        req.Currency,
		Description:     req.Description,
		Reference:       reference,
		CategoryID:      req.CategoryID,
		PaymentMethodID: req.PaymentMethodID,
		FromAccountID:   fromAccount,
		ToAccountID:     toAccount,
		TransactionDate: req.TransactionDate,
		CreatedBy:       actorID,
	}

	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		inserted, err := tx.Insert(ctx, record)
		if err != nil {
			return err
		}
		for _, e := range ledgerEffects(inserted) {
			if err := tx.Ledger().Adjust(ctx, orgID, e.accountID, inserted.Amount, e.direction); err != nil {
				return err
			}
		}
		record = inserted
		return nil
	})
	if err != nil {
		return Transaction{}, err
	}

	s.record(ctx, orgID, actorID, "transaction.create", record.ID, nil, map[string]any{
		"type":      string(record.Type),
		"amount":    record.Amount,
		"reference": record.Reference,
	})
	return record, nil
}

// Void irreversibly cancels a completed transaction, reversing its ledger
// effect exactly. Stricter than create: owners and admins only.
func (s *Service) Void(ctx context.Context, orgID, actorID, transactionID uuid.UUID, reason string) (Transaction, error) {
	if _, err := s.authorizer.Authorize(ctx, orgID, actorID, roles.VoidTransactions...); err != nil {
		return Transaction{}, err
	}

	now := s.now()
	var voided Transaction
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.GetForUpdate(ctx, orgID, transactionID)
		if err != nil {
			return err
		}
		if current.Status == StatusVoided {
			return ErrAlreadyVoided
		}
		for _, e := range inverseEffects(current) {
			if err := tx.Ledger().Adjust(ctx, orgID, e.accountID, current.Amount, e.direction); err != nil {
				return err
			}
		}
		if err := tx.MarkVoided(ctx, orgID, current.ID, now, reason); err != nil {
			return err
		}
		current.Status = StatusVoided
		current.VoidedAt = &now
		current.VoidReason = &reason
		voided = current
		return nil
	})
	if err != nil {
		return Transaction{}, err
	}

	s.record(ctx, orgID, actorID, "transaction.void", voided.ID,
		map[string]any{"status": string(StatusCompleted)},
		map[string]any{"status": string(StatusVoided), "reason": reason})
	return voided, nil
}

// Update patches the non-ledger fields of a completed transaction. Amount,
// type and accounts are immutable, so the ledger never needs re-adjustment.
func (s *Service) Update(ctx context.Context, orgID, actorID, transactionID uuid.UUID, patch UpdateRequest) (Transaction, error) {
	if _, err := s.authorizer.Authorize(ctx, orgID, actorID, roles.ManageFinances...); err != nil {
		return Transaction{}, err
	}

	var updated Transaction
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.GetForUpdate(ctx, orgID, transactionID)
		if err != nil {
			return err
		}
		if current.Status == StatusVoided {
			return ErrVoidedImmutable
		}
		if s.categories != nil && patch.CategoryID != nil {
			if err := s.categories.EnsureUsableForType(ctx, orgID, *patch.CategoryID, string(current.Type)); err != nil {
				return err
			}
		}
		if err := tx.UpdateDetails(ctx, orgID, current.ID, patch); err != nil {
			return err
		}
		if patch.Description != nil {
			current.Description = *patch.Description
		}
		if patch.Reference != nil {
			current.Reference = *patch.Reference
		}
		if patch.CategoryID != nil {
			current.CategoryID = patch.CategoryID
		}
		if patch.PaymentMethodID != nil {
			current.PaymentMethodID = patch.PaymentMethodID
		}
		updated = current
		return nil
	})
	if err != nil {
		return Transaction{}, err
	}

	s.record(ctx, orgID, actorID, "transaction.update", updated.ID, nil, map[string]any{
		"reference": updated.Reference,
	})
	return updated, nil
}

// Get returns one transaction. Any active member may look.
func (s *Service) Get(ctx context.Context, orgID, actorID, transactionID uuid.UUID) (Transaction, error) {
	if _, err := s.authorizer.Authorize(ctx, orgID, actorID); err != nil {
		return Transaction{}, err
	}
	return s.repo.Get(ctx, orgID, transactionID)
}

// List returns transactions matching the filters, newest first.
func (s *Service) List(ctx context.Context, orgID, actorID uuid.UUID, filters ListFilters) ([]Transaction, int, error) {
	if _, err := s.authorizer.Authorize(ctx, orgID, actorID); err != nil {
		return nil, 0, err
	}
	return s.repo.List(ctx, orgID, filters)
}

func (s *Service) record(ctx context.Context, orgID, actorID uuid.UUID, action string, entityID uuid.UUID, oldValues, newValues map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		OrganizationID: orgID,
		ActorID:        actorID,
		Action:         action,
		Module:         "transactions",
		Entity:         "transaction",
		EntityID:       entityID.String(),
		OldValues:      oldValues,
		NewValues:      newValues,
		At:             s.now(),
	})
}
