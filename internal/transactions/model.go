package transactions

import (
	"time"

	"github.com/google/uuid"
)

// Type enumerates transaction kinds.
type Type string

const (
	TypeIncome   Type = "INCOME"
	TypeExpense  Type = "EXPENSE"
	TypeTransfer Type = "TRANSFER"
)

// Status enumerates transaction lifecycle values. PENDING and CANCELLED are
// declared for schema compatibility but never produced by any flow here:
// transactions are created COMPLETED and move once, irreversibly, to VOIDED.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusCompleted Status = "COMPLETED"
	StatusVoided    Status = "VOIDED"
	StatusCancelled Status = "CANCELLED"
)

// Transaction is one categorized ledger movement owned by an organization.
// Amount is an integer count of minor currency units.
type Transaction struct {
	ID              uuid.UUID
	OrganizationID  uuid.UUID
	Type            Type
	Status          Status
	Amount          int64
	Currency        string
	Description     string
	Reference       string
	CategoryID      *uuid.UUID
	PaymentMethodID *uuid.UUID
	FromAccountID   *uuid.UUID
	ToAccountID     *uuid.UUID
	TransactionDate time.Time
	CreatedBy       uuid.UUID
	VoidedAt        *time.Time
	VoidReason      *string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
