package paymentmethods

import (
	"time"

	"github.com/google/uuid"
)

// CreateRequest groups fields required to create a payment method.
type CreateRequest struct {
	Name        string `json:"name" validate:"required,min=1,max=120"`
	Description string `json:"description,omitempty" validate:"omitempty,max=500"`
}

// UpdateRequest patches payment method details. Nil fields are left untouched.
type UpdateRequest struct {
	Name        *string `json:"name,omitempty" validate:"omitempty,min=1,max=120"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=500"`
}

// View is the JSON shape of a payment method.
type View struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewView converts a PaymentMethod into its JSON shape.
func NewView(p PaymentMethod) View {
	return View{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		IsActive:    p.IsActive,
		CreatedAt:   p.CreatedAt,
	}
}
