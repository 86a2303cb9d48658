package paymentmethods

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrNotFound indicates the payment method does not exist in this organization.
	ErrNotFound = errors.New("paymentmethods: not found")
	// ErrDuplicateName indicates another payment method in the organization already uses the name.
	ErrDuplicateName = errors.New("paymentmethods: name already in use")
)

const paymentMethodColumns = `id, organization_id, name, description, is_active, created_at, updated_at`

// Repository encapsulates DB operations for payment methods.
type Repository interface {
	Get(ctx context.Context, orgID, id uuid.UUID) (PaymentMethod, error)
	ListByOrganization(ctx context.Context, orgID uuid.UUID) ([]PaymentMethod, error)
	Insert(ctx context.Context, p PaymentMethod) (PaymentMethod, error)
	UpdateDetails(ctx context.Context, orgID, id uuid.UUID, name, description *string) error
	SetActive(ctx context.Context, orgID, id uuid.UUID, active bool) error
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL backed repository.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func (r *repository) Get(ctx context.Context, orgID, id uuid.UUID) (PaymentMethod, error) {
	row := r.db.QueryRow(ctx, `SELECT `+paymentMethodColumns+` FROM payment_methods WHERE organization_id=$1 AND id=$2`, orgID, id)
	return scanPaymentMethod(row)
}

func (r *repository) ListByOrganization(ctx context.Context, orgID uuid.UUID) ([]PaymentMethod, error) {
	rows, err := r.db.Query(ctx, `SELECT `+paymentMethodColumns+` FROM payment_methods WHERE organization_id=$1 ORDER BY name ASC`, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []PaymentMethod
	for rows.Next() {
		p, err := scanPaymentMethod(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *repository) Insert(ctx context.Context, p PaymentMethod) (PaymentMethod, error) {
	row := r.db.QueryRow(ctx, `INSERT INTO payment_methods (id, organization_id, name, description, is_active)
VALUES ($1,$2,$3,$4,$5) RETURNING created_at, updated_at`,
		p.ID, p.OrganizationID, p.Name, p.Description, p.IsActive)
	if err := row.Scan(&p.CreatedAt, &p.UpdatedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return PaymentMethod{}, ErrDuplicateName
		}
		return PaymentMethod{}, err
	}
	return p, nil
}

func (r *repository) UpdateDetails(ctx context.Context, orgID, id uuid.UUID, name, description *string) error {
	cmd, err := r.db.Exec(ctx, `UPDATE payment_methods SET
	name=COALESCE($3, name),
	description=COALESCE($4, description),
	updated_at=NOW()
WHERE organization_id=$1 AND id=$2`, orgID, id, name, description)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateName
		}
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) SetActive(ctx context.Context, orgID, id uuid.UUID, active bool) error {
	cmd, err := r.db.Exec(ctx, `UPDATE payment_methods SET is_active=$3, updated_at=NOW() WHERE organization_id=$1 AND id=$2`, orgID, id, active)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPaymentMethod(row rowScanner) (PaymentMethod, error) {
	var p PaymentMethod
	err := row.Scan(&p.ID, &p.OrganizationID, &p.Name, &p.Description, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return PaymentMethod{}, ErrNotFound
		}
		return PaymentMethod{}, err
	}
	return p, nil
}
