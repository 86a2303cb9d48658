package billing

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/stewardbooks/stewardbooks/internal/memberships"
	"github.com/stewardbooks/stewardbooks/internal/roles"
	"github.com/stewardbooks/stewardbooks/internal/shared"
)

// AuthorizerPort gates subscription operations.
type AuthorizerPort interface {
	Authorize(ctx context.Context, orgID, userID uuid.UUID, allowed ...roles.Role) (memberships.Membership, error)
}

// AuditPort records billing events, best effort.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service handles plans, subscriptions and renewals.
type Service struct {
	repo       Repository
	gateway    PaymentGateway
	authorizer AuthorizerPort
	audit      AuditPort
	logger     *slog.Logger
	now        func() time.Time
}

// NewService builds a Service instance.
func NewService(repo Repository, gateway PaymentGateway, authorizer AuthorizerPort, audit AuditPort, logger *slog.Logger) *Service {
	return &Service{repo: repo, gateway: gateway, authorizer: authorizer, audit: audit, logger: logger, now: time.Now}
}

// WithNow overrides the clock, for tests.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// ListPlans returns the purchasable plans. Public.
func (s *Service) ListPlans(ctx context.Context) ([]Plan, error) {
	return s.repo.ListPlans(ctx)
}

// Subscribe puts the organization on a plan. Owners only. Plans with a trial
// start TRIALING without a charge; otherwise the first month is charged up
// front and the subscription starts ACTIVE.
func (s *Service) Subscribe(ctx context.Context, orgID, actorID uuid.UUID, req SubscribeRequest) (Subscription, error) {
	if _, err := s.authorizer.Authorize(ctx, orgID, actorID, roles.OwnerOnly...); err != nil {
		return Subscription{}, err
	}
	plan, err := s.repo.GetPlanByCode(ctx, req.PlanCode)
	if err != nil {
		return Subscription{}, err
	}

	now := s.now()
	sub := Subscription{
		ID:             uuid.New(),
		OrganizationID: orgID,
		PlanID:         plan.ID,
		PaymentToken:   req.PaymentToken,
	}
	if plan.TrialDays > 0 {
		trialEnd := now.AddDate(0, 0, plan.TrialDays)
		sub.Status = StatusTrialing
		sub.TrialEndsAt = &trialEnd
		sub.CurrentPeriodEnd = trialEnd
	} else {
		if _, err := s.gateway.Charge(ctx, req.PaymentToken, plan.PriceMonthly, plan.Currency, "subscription "+plan.Code); err != nil {
			return Subscription{}, err
		}
		sub.Status = StatusActive
		sub.CurrentPeriodEnd = now.AddDate(0, 1, 0)
	}

	created, err := s.repo.Insert(ctx, sub)
	if err != nil {
		return Subscription{}, err
	}
	s.record(ctx, orgID, actorID, "subscription.create", created.ID, map[string]any{
		"plan": plan.Code, "status": string(created.Status),
	})
	return created, nil
}

// Current returns the organization's live subscription. Any active member.
func (s *Service) Current(ctx context.Context, orgID, actorID uuid.UUID) (Subscription, error) {
	if _, err := s.authorizer.Authorize(ctx, orgID, actorID); err != nil {
		return Subscription{}, err
	}
	return s.repo.GetByOrganization(ctx, orgID)
}

// Cancel stops the subscription at once. Owners only.
func (s *Service) Cancel(ctx context.Context, orgID, actorID uuid.UUID) error {
	if _, err := s.authorizer.Authorize(ctx, orgID, actorID, roles.OwnerOnly...); err != nil {
		return err
	}
	sub, err := s.repo.GetByOrganization(ctx, orgID)
	if err != nil {
		return err
	}
	if err := s.repo.MarkCanceled(ctx, sub.ID, s.now()); err != nil {
		return err
	}
	s.record(ctx, orgID, actorID, "subscription.cancel", sub.ID, map[string]any{"status": string(StatusCanceled)})
	return nil
}

// RecordGatewayEvent applies a webhook outcome from the payment provider.
// Succeeded payments extend the period and reactivate PAST_DUE rows; failed
// ones flag the subscription without touching the period end, so the next
// renewal scan retries it.
func (s *Service) RecordGatewayEvent(ctx context.Context, orgID uuid.UUID, event GatewayEvent) error {
	sub, err := s.repo.GetByOrganization(ctx, orgID)
	if err != nil {
		return err
	}
	switch event.Kind {
	case GatewayPaymentSucceeded:
		return s.repo.UpdateRenewal(ctx, sub.ID, StatusActive, sub.CurrentPeriodEnd.AddDate(0, 1, 0))
	case GatewayPaymentFailed:
		return s.repo.UpdateRenewal(ctx, sub.ID, StatusPastDue, sub.CurrentPeriodEnd)
	default:
		return nil
	}
}

// RenewalOutcome summarizes one renewal scan.
type RenewalOutcome struct {
	Scanned  int
	Renewed  int
	Declined int
}

// RenewalScan charges every lapsed subscription. Declines mark the row
// PAST_DUE and the scan carries on; one bad card must not stall the batch.
func (s *Service) RenewalScan(ctx context.Context) (RenewalOutcome, error) {
	now := s.now()
	due, err := s.repo.ListDue(ctx, now)
	if err != nil {
		return RenewalOutcome{}, err
	}

	outcome := RenewalOutcome{Scanned: len(due)}
	for _, sub := range due {
		plan, err := s.repo.GetPlan(ctx, sub.PlanID)
		if err != nil {
			return outcome, err
		}
		if _, err := s.gateway.Charge(ctx, sub.PaymentToken, plan.PriceMonthly, plan.Currency, "renewal "+plan.Code); err != nil {
			outcome.Declined++
			if s.logger != nil {
				s.logger.Warn("renewal charge declined",
					slog.String("subscription_id", sub.ID.String()),
					slog.String("organization_id", sub.OrganizationID.String()),
					slog.Any("error", err))
			}
			if err := s.repo.UpdateRenewal(ctx, sub.ID, StatusPastDue, sub.CurrentPeriodEnd); err != nil {
				return outcome, err
			}
			continue
		}
		if err := s.repo.UpdateRenewal(ctx, sub.ID, StatusActive, sub.CurrentPeriodEnd.AddDate(0, 1, 0)); err != nil {
			return outcome, err
		}
		outcome.Renewed++
	}
	return outcome, nil
}

func (s *Service) record(ctx context.Context, orgID, actorID uuid.UUID, action string, entityID uuid.UUID, newValues map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		OrganizationID: orgID,
		ActorID:        actorID,
		Action:         action,
		Module:         "billing",
		Entity:         "subscription",
		EntityID:       entityID.String(),
		NewValues:      newValues,
		At:             s.now(),
	})
}
