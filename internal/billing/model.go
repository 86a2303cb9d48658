package billing

import (
	"time"

	"github.com/google/uuid"
)

// SubscriptionStatus enumerates the subscription lifecycle.
type SubscriptionStatus string

const (
	StatusTrialing SubscriptionStatus = "TRIALING"
	StatusActive   SubscriptionStatus = "ACTIVE"
	StatusPastDue  SubscriptionStatus = "PAST_DUE"
	StatusCanceled SubscriptionStatus = "CANCELED"
)

// Plan is a priced tier. PriceMonthly is in minor currency units.
type Plan struct {
	ID           uuid.UUID
	Code         string
	Name         string
	PriceMonthly int64
	Currency     string
	TrialDays    int
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Subscription ties one organization to one plan. At most one non-canceled
// subscription exists per organization.
type Subscription struct {
	ID               uuid.UUID
	OrganizationID   uuid.UUID
	PlanID           uuid.UUID
	Status           SubscriptionStatus
	PaymentToken     string
	CurrentPeriodEnd time.Time
	TrialEndsAt      *time.Time
	CanceledAt       *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}
