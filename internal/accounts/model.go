package accounts

import (
	"time"

	"github.com/google/uuid"
)

// Account is a bookkeeping account owned by exactly one organization.
// Balances are integer minor currency units; no field ever holds a float.
type Account struct {
	ID             uuid.UUID
	OrganizationID uuid.UUID
	Name           string
	AccountType    string
	Currency       string
	InitialBalance int64
	CurrentBalance int64
	IsActive       bool
	CreatedBy      uuid.UUID
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
