package transactions

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrInvalidAccounts indicates the type-specific account requirement was violated.
	ErrInvalidAccounts = errors.New("transactions: account fields do not match transaction type")
	// ErrInvalidAmount indicates a non-positive amount.
	ErrInvalidAmount = errors.New("transactions: amount must be positive")
	// ErrInvalidType indicates an unknown transaction type.
	ErrInvalidType = errors.New("transactions: invalid type")
)

// CreateRequest groups fields required to record a transaction.
type CreateRequest struct {
	Type            Type       `json:"type" validate:"required,oneof=INCOME EXPENSE TRANSFER"`
	Amount          int64      `json:"amount" validate:"required,gt=0"`
	Currency        string     `json:"currency,omitempty" validate:"omitempty,len=3"`
	Description     string     `json:"description,omitempty" validate:"omitempty,max=500"`
	Reference       string     `json:"reference,omitempty" validate:"omitempty,max=100"`
	CategoryID      *uuid.UUID `json:"category_id,omitempty"`
	PaymentMethodID *uuid.UUID `json:"payment_method_id,omitempty"`
	FromAccountID   *uuid.UUID `json:"from_account_id,omitempty"`
	ToAccountID     *uuid.UUID `json:"to_account_id,omitempty"`
	TransactionDate time.Time  `json:"transaction_date" validate:"required"`
}

// Validate enforces the account-requirement invariant for the declared type:
// INCOME needs a destination, EXPENSE a source, TRANSFER two distinct
// accounts. Violations surface before any state is touched.
func (r CreateRequest) Validate() error {
	if r.Amount <= 0 {
		return ErrInvalidAmount
	}
	switch r.Type {
	case TypeIncome:
		if r.ToAccountID == nil {
			return ErrInvalidAccounts
		}
	case TypeExpense:
		if r.FromAccountID == nil {
			return ErrInvalidAccounts
		}
	case TypeTransfer:
		if r.FromAccountID == nil || r.ToAccountID == nil {
			return ErrInvalidAccounts
		}
		if *r.FromAccountID == *r.ToAccountID {
			return ErrInvalidAccounts
		}
	default:
		return ErrInvalidType
	}
	return nil
}

// VoidRequest wraps parameters for voiding.
type VoidRequest struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

// UpdateRequest patches the non-ledger fields of a completed transaction.
// Amount, type and accounts are immutable after creation; correcting them
// means voiding and recreating.
type UpdateRequest struct {
	Description     *string    `json:"description,omitempty" validate:"omitempty,max=500"`
	Reference       *string    `json:"reference,omitempty" validate:"omitempty,max=100"`
	CategoryID      *uuid.UUID `json:"category_id,omitempty"`
	PaymentMethodID *uuid.UUID `json:"payment_method_id,omitempty"`
}

// ListFilters narrows transaction listings.
type ListFilters struct {
	Type    Type
	Status  Status
	Account *uuid.UUID
	Page    int
	PerPage int
}

// View is the JSON shape of a transaction.
type View struct {
	ID              uuid.UUID  `json:"id"`
	OrganizationID  uuid.UUID  `json:"organization_id"`
	Type            string     `json:"type"`
	Status          string     `json:"status"`
	Amount          int64      `json:"amount"`
	Currency        string     `json:"currency,omitempty"`
	Description     string     `json:"description,omitempty"`
	Reference       string     `json:"reference"`
	CategoryID      *uuid.UUID `json:"category_id,omitempty"`
	PaymentMethodID *uuid.UUID `json:"payment_method_id,omitempty"`
	FromAccountID   *uuid.UUID `json:"from_account_id,omitempty"`
	ToAccountID     *uuid.UUID `json:"to_account_id,omitempty"`
	TransactionDate time.Time  `json:"transaction_date"`
	CreatedBy       uuid.UUID  `json:"created_by"`
	VoidedAt        *time.Time `json:"voided_at,omitempty"`
	VoidReason      *string    `json:"void_reason,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

// NewView converts a Transaction into its JSON shape.
func NewView(t Transaction) View {
	return View{
		ID:              t.ID,
		OrganizationID:  t.OrganizationID,
		Type:            string(t.Type),
		Status:          string(t.Status),
		Amount:          t.Amount,
		Currency:        t.Currency,
		Description:     t.Description,
		Reference:       t.Reference,
		CategoryID:      t.CategoryID,
		PaymentMethodID: t.PaymentMethodID,
		FromAccountID:   t.FromAccountID,
		ToAccountID:     t.ToAccountID,
		TransactionDate: t.TransactionDate,
		CreatedBy:       t.CreatedBy,
		VoidedAt:        t.VoidedAt,
		VoidReason:      t.VoidReason,
		CreatedAt:       t.CreatedAt,
	}
}
