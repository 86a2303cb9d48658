package organizations

import (
	"time"

	"github.com/google/uuid"
)

// Organization is a tenant: a church, committee or small business keeping
// its books here. Every account, transaction and membership belongs to
// exactly one organization.
type Organization struct {
	ID          uuid.UUID
	Name        string
	Slug        string
	Description string
	Currency    string
	IsActive    bool
	CreatedBy   uuid.UUID
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Summary aggregates headline figures for an organization dashboard.
// TotalBalance is the sum of current balances across active accounts,
// in minor units.
type Summary struct {
	TotalBalance     int64 `json:"total_balance"`
	AccountCount     int   `json:"account_count"`
	MemberCount      int   `json:"member_count"`
	TransactionCount int   `json:"transaction_count"`
}
