package categories

import (
	"time"

	"github.com/google/uuid"
)

// CreateRequest groups fields required to create a category.
type CreateRequest struct {
	Name        string `json:"name" validate:"required,min=1,max=120"`
	Kind        Kind   `json:"kind" validate:"required,oneof=INCOME EXPENSE BOTH"`
	Description string `json:"description,omitempty" validate:"omitempty,max=500"`
}

// UpdateRequest patches category details. Nil fields are left untouched.
type UpdateRequest struct {
	Name        *string `json:"name,omitempty" validate:"omitempty,min=1,max=120"`
	Kind        *Kind   `json:"kind,omitempty" validate:"omitempty,oneof=INCOME EXPENSE BOTH"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=500"`
}

// View is the JSON shape of a category.
type View struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Kind        string    `json:"kind"`
	Description string    `json:"description,omitempty"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewView converts a Category into its JSON shape.
func NewView(c Category) View {
	return View{
		ID:          c.ID,
		Name:        c.Name,
		Kind:        string(c.Kind),
		Description: c.Description,
		IsActive:    c.IsActive,
		CreatedAt:   c.CreatedAt,
	}
}
