package organizations

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// CreateRequest groups fields required to create an organization.
type CreateRequest struct {
	Name        string `json:"name" validate:"required,min=2,max=120"`
	Slug        string `json:"slug,omitempty" validate:"omitempty,min=2,max=60,lowercase"`
	Description string `json:"description,omitempty" validate:"omitempty,max=500"`
	Currency    string `json:"currency" validate:"required,len=3"`
}

// UpdateRequest patches organization details. Nil fields are left untouched.
type UpdateRequest struct {
	Name        *string `json:"name,omitempty" validate:"omitempty,min=2,max=120"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=500"`
	Currency    *string `json:"currency,omitempty" validate:"omitempty,len=3"`
}

// View is the JSON shape of an organization.
type View struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description,omitempty"`
	Currency    string    `json:"currency"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewView converts an Organization into its JSON shape.
func NewView(o Organization) View {
	return View{
		ID:          o.ID,
		Name:        o.Name,
		Slug:        o.Slug,
		Description: o.Description,
		Currency:    o.Currency,
		IsActive:    o.IsActive,
		CreatedAt:   o.CreatedAt,
	}
}

// slugify derives a URL slug from a name when the caller did not supply one.
func slugify(name string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.Trim(b.String(), "-")
}
