package billing

import (
	"time"

	"github.com/google/uuid"
)

// SubscribeRequest groups the fields required to start a subscription.
type SubscribeRequest struct {
	PlanCode     string `json:"plan_code" validate:"required,max=60"`
	PaymentToken string `json:"payment_token" validate:"required,max=200"`
}

// GatewayEventKind enumerates webhook outcomes we act on.
type GatewayEventKind string

const (
	GatewayPaymentSucceeded GatewayEventKind = "payment_succeeded"
	GatewayPaymentFailed    GatewayEventKind = "payment_failed"
)

// GatewayEvent is a normalized webhook notification.
type GatewayEvent struct {
	Kind        GatewayEventKind `json:"kind" validate:"required,oneof=payment_succeeded payment_failed"`
	ProviderRef string           `json:"provider_ref,omitempty"`
}

// PlanView is the JSON shape of a plan.
type PlanView struct {
	ID           uuid.UUID `json:"id"`
	Code         string    `json:"code"`
	Name         string    `json:"name"`
	PriceMonthly int64     `json:"price_monthly"`
	Currency     string    `json:"currency"`
	TrialDays    int       `json:"trial_days"`
}

// NewPlanView converts a Plan into its JSON shape.
func NewPlanView(p Plan) PlanView {
	return PlanView{
		ID:           p.ID,
		Code:         p.Code,
		Name:         p.Name,
		PriceMonthly: p.PriceMonthly,
		Currency:     p.Currency,
		TrialDays:    p.TrialDays,
	}
}

// SubscriptionView is the JSON shape of a subscription.
type SubscriptionView struct {
	ID               uuid.UUID  `json:"id"`
	PlanID           uuid.UUID  `json:"plan_id"`
	Status           string     `json:"status"`
	CurrentPeriodEnd time.Time  `json:"current_period_end"`
	TrialEndsAt      *time.Time `json:"trial_ends_at,omitempty"`
	CanceledAt       *time.Time `json:"canceled_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
}

// NewSubscriptionView converts a Subscription into its JSON shape.
func NewSubscriptionView(s Subscription) SubscriptionView {
	return SubscriptionView{
		ID:               s.ID,
		PlanID:           s.PlanID,
		Status:           string(s.Status),
		CurrentPeriodEnd: s.CurrentPeriodEnd,
		TrialEndsAt:      s.TrialEndsAt,
		CanceledAt:       s.CanceledAt,
		CreatedAt:        s.CreatedAt,
	}
}
