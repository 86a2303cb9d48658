package categories

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrNotFound indicates the category does not exist in this organization.
	ErrNotFound = errors.New("categories: not found")
	// ErrDuplicateName indicates another category in the organization already uses the name.
	ErrDuplicateName = errors.New("categories: name already in use")
)

const categoryColumns = `id, organization_id, name, kind, description, is_active, created_at, updated_at`

// Repository encapsulates DB operations for categories.
type Repository interface {
	Get(ctx context.Context, orgID, categoryID uuid.UUID) (Category, error)
	ListByOrganization(ctx context.Context, orgID uuid.UUID) ([]Category, error)
	Insert(ctx context.Context, c Category) (Category, error)
	UpdateDetails(ctx context.Context, orgID, categoryID uuid.UUID, name, description *string, kind *Kind) error
	SetActive(ctx context.Context, orgID, categoryID uuid.UUID, active bool) error
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL backed repository.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func (r *repository) Get(ctx context.Context, orgID, categoryID uuid.UUID) (Category, error) {
	row := r.db.QueryRow(ctx, `SELECT `+categoryColumns+` FROM categories WHERE organization_id=$1 AND id=$2`, orgID, categoryID)
	return scanCategory(row)
}

func (r *repository) ListByOrganization(ctx context.Context, orgID uuid.UUID) ([]Category, error) {
	rows, err := r.db.Query(ctx, `SELECT `+categoryColumns+` FROM categories WHERE organization_id=$1 ORDER BY name ASC`, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *repository) Insert(ctx context.Context, c Category) (Category, error) {
	row := r.db.QueryRow(ctx, `INSERT INTO categories (id, organization_id, name, kind, description, is_active)
VALUES ($1,$2,$3,$4,$5,$6) RETURNING created_at, updated_at`,
		c.ID, c.OrganizationID, c.Name, c.Kind, c.Description, c.IsActive)
	if err := row.Scan(&c.CreatedAt, &c.UpdatedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Category{}, ErrDuplicateName
		}
		return Category{}, err
	}
	return c, nil
}

func (r *repository) UpdateDetails(ctx context.Context, orgID, categoryID uuid.UUID, name, description *string, kind *Kind) error {
	cmd, err := r.db.Exec(ctx, `UPDATE categories SET
	name=COALESCE($3, name),
	description=COALESCE($4, description),
	kind=COALESCE($5, kind),
	updated_at=NOW()
WHERE organization_id=$1 AND id=$2`, orgID, categoryID, name, description, kind)
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

func (r *repository) SetActive(ctx context.Context, orgID, categoryID uuid.UUID, active bool) error {
	cmd, err := r.db.Exec(ctx, `UPDATE categories SET is_active=$3, updated_at=NOW() WHERE organization_id=$1 AND id=$2`, orgID, categoryID, active)
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

func scanCategory(row rowScanner) (Category, error) {
	var c Category
	err := row.Scan(&c.ID, &c.OrganizationID, &c.Name, &c.Kind, &c.Description, &c.IsActive, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Category{}, ErrNotFound
		}
		return Category{}, err
	}
	return c, nil
}
