package organizations

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stewardbooks/stewardbooks/internal/platform/db"
	"github.com/stewardbooks/stewardbooks/internal/roles"
)

var (
	// ErrNotFound indicates the organization does not exist.
	ErrNotFound = errors.New("organizations: not found")
	// ErrDuplicateSlug indicates the slug is already taken.
	ErrDuplicateSlug = errors.New("organizations: slug already in use")
)

const organizationColumns = `id, name, slug, description, currency, is_active, created_by, created_at, updated_at`

// Repository encapsulates DB operations for organizations.
type Repository interface {
	Get(ctx context.Context, id uuid.UUID) (Organization, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]Organization, error)
	CreateWithOwner(ctx context.Context, org Organization) (Organization, error)
	UpdateDetails(ctx context.Context, id uuid.UUID, patch UpdateRequest) error
	SetActive(ctx context.Context, id uuid.UUID, active bool) error

	SumAccountBalances(ctx context.Context, orgID uuid.UUID) (int64, int, error)
	CountActiveMembers(ctx context.Context, orgID uuid.UUID) (int, error)
	CountTransactionsSince(ctx context.Context, orgID uuid.UUID, since time.Time) (int, error)
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL backed repository.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func (r *repository) Get(ctx context.Context, id uuid.UUID) (Organization, error) {
	row := r.db.QueryRow(ctx, `SELECT `+organizationColumns+` FROM organizations WHERE id=$1`, id)
	return scanOrganization(row)
}

func (r *repository) ListForUser(ctx context.Context, userID uuid.UUID) ([]Organization, error) {
	rows, err := r.db.Query(ctx, `SELECT o.id, o.name, o.slug, o.description, o.currency, o.is_active, o.created_by, o.created_at, o.updated_at
FROM organizations o
JOIN memberships m ON m.organization_id = o.id
WHERE m.user_id=$1 AND m.is_active=TRUE
ORDER BY o.name`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Organization
	for rows.Next() {
		o, err := scanOrganization(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// CreateWithOwner inserts the organization and the creator's OWNER membership
// in one transaction. The membership insert duplicates the memberships
// package SQL on purpose: the two rows must commit together, and an
// organization without an owner must never be observable.
func (r *repository) CreateWithOwner(ctx context.Context, org Organization) (Organization, error) {
	err := db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, `INSERT INTO organizations (id, name, slug, description, currency, is_active, created_by)
VALUES ($1,$2,$3,$4,$5,TRUE,$6)
RETURNING created_at, updated_at`,
			org.ID, org.Name, org.Slug, org.Description, org.Currency, org.CreatedBy)
		if err := row.Scan(&org.CreatedAt, &org.UpdatedAt); err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == "23505" {
				return ErrDuplicateSlug
			}
			return err
		}
		org.IsActive = true

		now := time.Now()
		_, err := tx.Exec(ctx, `INSERT INTO memberships (id, organization_id, user_id, role, is_active, invited_at, joined_at)
VALUES ($1,$2,$3,$4,TRUE,$5,$5)`,
			uuid.New(), org.ID, org.CreatedBy, roles.Owner, now)
		return err
	})
	if err != nil {
		return Organization{}, err
	}
	return org, nil
}

func (r *repository) UpdateDetails(ctx context.Context, id uuid.UUID, patch UpdateRequest) error {
	cmd, err := r.db.Exec(ctx, `UPDATE organizations SET
	name=COALESCE($2, name),
	description=COALESCE($3, description),
	currency=COALESCE($4, currency),
	updated_at=NOW()
WHERE id=$1`, id, patch.Name, patch.Description, patch.Currency)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	cmd, err := r.db.Exec(ctx, `UPDATE organizations SET is_active=$2, updated_at=NOW() WHERE id=$1`, id, active)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) SumAccountBalances(ctx context.Context, orgID uuid.UUID) (int64, int, error) {
	var total int64
	var count int
	err := r.db.QueryRow(ctx, `SELECT COALESCE(SUM(current_balance), 0), COUNT(*)
FROM accounts WHERE organization_id=$1 AND is_active=TRUE`, orgID).Scan(&total, &count)
	return total, count, err
}

func (r *repository) CountActiveMembers(ctx context.Context, orgID uuid.UUID) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM memberships
WHERE organization_id=$1 AND is_active=TRUE`, orgID).Scan(&count)
	return count, err
}

func (r *repository) CountTransactionsSince(ctx context.Context, orgID uuid.UUID, since time.Time) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM transactions
WHERE organization_id=$1 AND status='COMPLETED' AND transaction_date >= $2`, orgID, since).Scan(&count)
	return count, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrganization(row rowScanner) (Organization, error) {
	var o Organization
	err := row.Scan(&o.ID, &o.Name, &o.Slug, &o.Description, &o.Currency, &o.IsActive, &o.CreatedBy, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Organization{}, ErrNotFound
		}
		return Organization{}, err
	}
	return o, nil
}
