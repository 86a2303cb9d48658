package paymentmethods

import (
	"time"

	"github.com/google/uuid"
)

// PaymentMethod names how money moved: cash, bank transfer, mobile money.
// Pure lookup data; referencing one on a transaction is optional.
type PaymentMethod struct {
	ID             uuid.UUID
	OrganizationID uuid.UUID
	Name           string
	Description    string
	IsActive       bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
