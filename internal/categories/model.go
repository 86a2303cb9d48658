package categories

import (
	"time"

	"github.com/google/uuid"
)

// Kind restricts which transaction types a category may label.
type Kind string

const (
	KindIncome  Kind = "INCOME"
	KindExpense Kind = "EXPENSE"
	KindBoth    Kind = "BOTH"
)

// Category labels transactions within one organization, e.g. "Tithes" or
// "Utilities". Name is unique per organization.
type Category struct {
	ID             uuid.UUID
	OrganizationID uuid.UUID
	Name           string
	Kind           Kind
	Description    string
	IsActive       bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Accepts reports whether the category may label the given transaction type.
// Transfers carry no income/expense direction, so any kind accepts them.
func (c Category) Accepts(txType string) bool {
	switch c.Kind {
	case KindBoth:
		return true
	case KindIncome:
		return txType == "INCOME" || txType == "TRANSFER"
	case KindExpense:
		return txType == "EXPENSE" || txType == "TRANSFER"
	}
	return false
}
