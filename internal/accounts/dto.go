package accounts

import (
	"time"

	"github.com/google/uuid"
)

// CreateAccountRequest opens a new account. Balances are minor currency units.
type CreateAccountRequest struct {
	Name           string `json:"name" validate:"required,max=200"`
	AccountType    string `json:"account_type" validate:"required,max=100"`
	Currency       string `json:"currency" validate:"required,len=3"`
	InitialBalance int64  `json:"initial_balance"`
}

// UpdateAccountRequest renames an account or changes its type.
type UpdateAccountRequest struct {
	Name        *string `json:"name,omitempty" validate:"omitempty,max=200"`
	AccountType *string `json:"account_type,omitempty" validate:"omitempty,max=100"`
}

// View is the JSON shape of an account.
type View struct {
	ID             uuid.UUID `json:"id"`
	OrganizationID uuid.UUID `json:"organization_id"`
	Name           string    `json:"name"`
	AccountType    string    `json:"account_type"`
	Currency       string    `json:"currency"`
	InitialBalance int64     `json:"initial_balance"`
	CurrentBalance int64     `json:"current_balance"`
	IsActive       bool      `json:"is_active"`
	CreatedAt      time.Time `json:"created_at"`
}

// NewView converts an Account into its JSON shape.
func NewView(a Account) View {
	return View{
		ID:             a.ID,
		OrganizationID: a.OrganizationID,
		Name:           a.Name,
		AccountType:    a.AccountType,
		Currency:       a.Currency,
		InitialBalance: a.InitialBalance,
		CurrentBalance: a.CurrentBalance,
		IsActive:       a.IsActive,
		CreatedAt:      a.CreatedAt,
	}
}
