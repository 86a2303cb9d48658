package accounts

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stewardbooks/stewardbooks/internal/platform/db"
)

// ErrDuplicateName indicates another account in the organization already uses the name.
var ErrDuplicateName = errors.New("accounts: name already in use")

const accountColumns = `id, organization_id, name, account_type, currency, initial_balance, current_balance, is_active, created_by, created_at, updated_at`

// Repository encapsulates DB operations for accounts.
type Repository interface {
	Get(ctx context.Context, orgID, accountID uuid.UUID) (Account, error)
	ListByOrganization(ctx context.Context, orgID uuid.UUID) ([]Account, error)
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// TxRepository exposes methods available within a transaction.
type TxRepository interface {
	Insert(ctx context.Context, a Account) (Account, error)
	UpdateDetails(ctx context.Context, orgID, accountID uuid.UUID, name, accountType *string) error
	SetActive(ctx context.Context, orgID, accountID uuid.UUID, active bool) error
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL backed repository.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func (r *repository) Get(ctx context.Context, orgID, accountID uuid.UUID) (Account, error) {
	row := r.db.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE organization_id=$1 AND id=$2`, orgID, accountID)
	return scanAccount(row)
}

func (r *repository) ListByOrganization(ctx context.Context, orgID uuid.UUID) ([]Account, error) {
	rows, err := r.db.Query(ctx, `SELECT `+accountColumns+` FROM accounts WHERE organization_id=$1 ORDER BY name ASC`, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
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

func (r *txRepository) Insert(ctx context.Context, a Account) (Account, error) {
	row := r.tx.QueryRow(ctx, `INSERT INTO accounts (id, organization_id, name, account_type, currency, initial_balance, current_balance, is_active, created_by)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9) RETURNING created_at, updated_at`,
		a.ID, a.OrganizationID, a.Name, a.AccountType, a.Currency, a.InitialBalance, a.CurrentBalance, a.IsActive, a.CreatedBy)
	if err := row.Scan(&a.CreatedAt, &a.UpdatedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Account{}, ErrDuplicateName
		}
		return Account{}, err
	}
	return a, nil
}

func (r *txRepository) UpdateDetails(ctx context.Context, orgID, accountID uuid.UUID, name, accountType *string) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE accounts SET
	name=COALESCE($3, name),
	account_type=COALESCE($4, account_type),
	updated_at=NOW()
WHERE organization_id=$1 AND id=$2`, orgID, accountID, name, accountType)
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

func (r *txRepository) SetActive(ctx context.Context, orgID, accountID uuid.UUID, active bool) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE accounts SET is_active=$3, updated_at=NOW() WHERE organization_id=$1 AND id=$2`, orgID, accountID, active)
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

func scanAccount(row rowScanner) (Account, error) {
	var a Account
	err := row.Scan(&a.ID, &a.OrganizationID, &a.Name, &a.AccountType, &a.Currency, &a.InitialBalance, &a.CurrentBalance, &a.IsActive, &a.CreatedBy, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Account{}, ErrNotFound
		}
		return Account{}, err
	}
	return a, nil
}
