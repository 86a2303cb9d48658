package billing

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrPlanNotFound indicates the plan code is unknown or retired.
	ErrPlanNotFound = errors.New("billing: plan not found")
	// ErrNoSubscription indicates the organization has no active subscription.
	ErrNoSubscription = errors.New("billing: no subscription")
	// ErrAlreadySubscribed indicates the organization already has a live subscription.
	ErrAlreadySubscribed = errors.New("billing: organization already subscribed")
)

const subscriptionColumns = `id, organization_id, plan_id, status, payment_token, current_period_end, trial_ends_at, canceled_at, created_at, updated_at`

// Repository encapsulates DB operations for plans and subscriptions.
type Repository interface {
	ListPlans(ctx context.Context) ([]Plan, error)
	GetPlanByCode(ctx context.Context, code string) (Plan, error)
	GetPlan(ctx context.Context, id uuid.UUID) (Plan, error)

	GetByOrganization(ctx context.Context, orgID uuid.UUID) (Subscription, error)
	Insert(ctx context.Context, sub Subscription) (Subscription, error)
	UpdateRenewal(ctx context.Context, id uuid.UUID, status SubscriptionStatus, periodEnd time.Time) error
	MarkCanceled(ctx context.Context, id uuid.UUID, at time.Time) error
	ListDue(ctx context.Context, asOf time.Time) ([]Subscription, error)
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL backed repository.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func (r *repository) ListPlans(ctx context.Context) ([]Plan, error) {
	rows, err := r.db.Query(ctx, `SELECT id, code, name, price_monthly, currency, trial_days, is_active, created_at, updated_at
FROM plans WHERE is_active=TRUE ORDER BY price_monthly ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Plan
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *repository) GetPlanByCode(ctx context.Context, code string) (Plan, error) {
	row := r.db.QueryRow(ctx, `SELECT id, code, name, price_monthly, currency, trial_days, is_active, created_at, updated_at
FROM plans WHERE code=$1 AND is_active=TRUE`, code)
	return scanPlan(row)
}

func (r *repository) GetPlan(ctx context.Context, id uuid.UUID) (Plan, error) {
	row := r.db.QueryRow(ctx, `SELECT id, code, name, price_monthly, currency, trial_days, is_active, created_at, updated_at
FROM plans WHERE id=$1`, id)
	return scanPlan(row)
}

func (r *repository) GetByOrganization(ctx context.Context, orgID uuid.UUID) (Subscription, error) {
	row := r.db.QueryRow(ctx, `SELECT `+subscriptionColumns+` FROM subscriptions
WHERE organization_id=$1 AND status <> 'CANCELED'`, orgID)
	return scanSubscription(row)
}

func (r *repository) Insert(ctx context.Context, sub Subscription) (Subscription, error) {
	row := r.db.QueryRow(ctx, `INSERT INTO subscriptions
	(id, organization_id, plan_id, status, payment_token, current_period_end, trial_ends_at)
VALUES ($1,$2,$3,$4,$5,$6,$7) RETURNING created_at, updated_at`,
		sub.ID, sub.OrganizationID, sub.PlanID, sub.Status, sub.PaymentToken, sub.CurrentPeriodEnd, sub.TrialEndsAt)
	if err := row.Scan(&sub.CreatedAt, &sub.UpdatedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Subscription{}, ErrAlreadySubscribed
		}
		return Subscription{}, err
	}
	return sub, nil
}

func (r *repository) UpdateRenewal(ctx context.Context, id uuid.UUID, status SubscriptionStatus, periodEnd time.Time) error {
	cmd, err := r.db.Exec(ctx, `UPDATE subscriptions SET status=$2, current_period_end=$3, updated_at=NOW() WHERE id=$1`,
		id, status, periodEnd)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNoSubscription
	}
	return nil
}

func (r *repository) MarkCanceled(ctx context.Context, id uuid.UUID, at time.Time) error {
	cmd, err := r.db.Exec(ctx, `UPDATE subscriptions SET status='CANCELED', canceled_at=$2, updated_at=NOW() WHERE id=$1`, id, at)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNoSubscription
	}
	return nil
}

// ListDue returns trialing and active subscriptions whose period has lapsed.
// PAST_DUE rows are retried too, so a fixed card recovers on the next scan.
func (r *repository) ListDue(ctx context.Context, asOf time.Time) ([]Subscription, error) {
	rows, err := r.db.Query(ctx, `SELECT `+subscriptionColumns+` FROM subscriptions
WHERE status IN ('TRIALING','ACTIVE','PAST_DUE') AND current_period_end <= $1
ORDER BY current_period_end ASC`, asOf)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Subscription
	for rows.Next() {
		s, err := scanSubscription(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPlan(row rowScanner) (Plan, error) {
	var p Plan
	err := row.Scan(&p.ID, &p.Code, &p.Name, &p.PriceMonthly, &p.Currency, &p.TrialDays, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Plan{}, ErrPlanNotFound
		}
		return Plan{}, err
	}
	return p, nil
}

func scanSubscription(row rowScanner) (Subscription, error) {
	var s Subscription
	err := row.Scan(&s.ID, &s.OrganizationID, &s.PlanID, &s.Status, &s.PaymentToken, &s.CurrentPeriodEnd, &s.TrialEndsAt, &s.CanceledAt, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Subscription{}, ErrNoSubscription
		}
		return Subscription{}, err
	}
	return s, nil
}
