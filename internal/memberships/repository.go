package memberships

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stewardbooks/stewardbooks/internal/platform/db"
	"github.com/stewardbooks/stewardbooks/internal/roles"
)

// ErrNotFound indicates no membership row exists for the pair.
var ErrNotFound = errors.New("memberships: not found")

const membershipColumns = `id, organization_id, user_id, role, is_active, invited_at, joined_at, created_at, updated_at`

// Repository encapsulates DB operations for memberships.
type Repository interface {
	Get(ctx context.Context, orgID, userID uuid.UUID) (Membership, error)
	ListByOrganization(ctx context.Context, orgID uuid.UUID) ([]Membership, error)
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// TxRepository exposes methods available within a transaction.
type TxRepository interface {
	GetForUpdate(ctx context.Context, orgID, userID uuid.UUID) (Membership, error)
	Insert(ctx context.Context, m Membership) (Membership, error)
	UpdateRole(ctx context.Context, id uuid.UUID, role roles.Role) error
	SetActive(ctx context.Context, id uuid.UUID, active bool, invitedAt *time.Time, role *roles.Role) error
	CountActiveOwners(ctx context.Context, orgID uuid.UUID) (int, error)
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL backed repository.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func (r *repository) Get(ctx context.Context, orgID, userID uuid.UUID) (Membership, error) {
	row := r.db.QueryRow(ctx, `SELECT `+membershipColumns+` FROM memberships WHERE organization_id=$1 AND user_id=$2`, orgID, userID)
	return scanMembership(row)
}

func (r *repository) ListByOrganization(ctx context.Context, orgID uuid.UUID) ([]Membership, error) {
	rows, err := r.db.Query(ctx, `SELECT `+membershipColumns+` FROM memberships WHERE organization_id=$1 ORDER BY invited_at ASC`, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Membership
	for rows.Next() {
		m, err := scanMembership(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

type txRepository struct {
	tx pgx.Tx
}

func (r *txRepository) GetForUpdate(ctx context.Context, orgID, userID uuid.UUID) (Membership, error) {
	row := r.tx.QueryRow(ctx, `SELECT `+membershipColumns+` FROM memberships WHERE organization_id=$1 AND user_id=$2 FOR UPDATE`, orgID, userID)
	return scanMembership(row)
}

func (r *txRepository) Insert(ctx context.Context, m Membership) (Membership, error) {
	row := r.tx.QueryRow(ctx, `INSERT INTO memberships (id, organization_id, user_id, role, is_active, invited_at, joined_at)
VALUES ($1,$2,$3,$4,$5,$6,$7) RETURNING created_at, updated_at`,
		m.ID, m.OrganizationID, m.UserID, m.Role, m.IsActive, m.InvitedAt, m.JoinedAt)
	if err := row.Scan(&m.CreatedAt, &m.UpdatedAt); err != nil {
		return Membership{}, err
	}
	return m, nil
}

func (r *txRepository) UpdateRole(ctx context.Context, id uuid.UUID, role roles.Role) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE memberships SET role=$2, updated_at=NOW() WHERE id=$1`, id, role)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *txRepository) SetActive(ctx context.Context, id uuid.UUID, active bool, invitedAt *time.Time, role *roles.Role) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE memberships SET
	is_active=$2,
	invited_at=COALESCE($3, invited_at),
	role=COALESCE($4, role),
	updated_at=NOW()
WHERE id=$1`, id, active, invitedAt, role)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *txRepository) CountActiveOwners(ctx context.Context, orgID uuid.UUID) (int, error) {
	var count int
	err := r.tx.QueryRow(ctx, `SELECT COUNT(*) FROM memberships WHERE organization_id=$1 AND role='OWNER' AND is_active`, orgID).Scan(&count)
	return count, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMembership(row rowScanner) (Membership, error) {
	var m Membership
	err := row.Scan(&m.ID, &m.OrganizationID, &m.UserID, &m.Role, &m.IsActive, &m.InvitedAt, &m.JoinedAt, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Membership{}, ErrNotFound
		}
		return Membership{}, err
	}
	return m, nil
}
