package transactions

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stewardbooks/stewardbooks/internal/accounts"
	"github.com/stewardbooks/stewardbooks/internal/platform/db"
)

// ErrNotFound indicates the transaction does not exist in this organization.
var ErrNotFound = errors.New("transactions: not found")

const transactionColumns = `id, organization_id, type, status, amount, currency, description, reference,
category_id, payment_method_id, from_account_id, to_account_id, transaction_date, created_by,
voided_at, void_reason, created_at, updated_at`

// Repository encapsulates DB operations for transactions.
type Repository interface {
	Get(ctx context.Context, orgID, id uuid.UUID) (Transaction, error)
	List(ctx context.Context, orgID uuid.UUID, filters ListFilters) ([]Transaction, int, error)
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// LedgerPort is the balance-adjustment primitive of the account ledger,
// bound to the same database transaction as the record writes around it.
type LedgerPort interface {
	Adjust(ctx context.Context, orgID, accountID uuid.UUID, amount int64, dir accounts.Direction) error
}

// TxRepository exposes methods available within a transaction. Ledger returns
// the balance-adjustment primitive bound to the same database transaction, so
// record writes and their ledger effects commit or roll back as one unit.
type TxRepository interface {
	Insert(ctx context.Context, t Transaction) (Transaction, error)
	GetForUpdate(ctx context.Context, orgID, id uuid.UUID) (Transaction, error)
	MarkVoided(ctx context.Context, orgID, id uuid.UUID, at time.Time, reason string) error
	UpdateDetails(ctx context.Context, orgID, id uuid.UUID, patch UpdateRequest) error
	Ledger() LedgerPort
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL backed repository.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func (r *repository) Get(ctx context.Context, orgID, id uuid.UUID) (Transaction, error) {
	row := r.db.QueryRow(ctx, `SELECT `+transactionColumns+` FROM transactions WHERE organization_id=$1 AND id=$2`, orgID, id)
	return scanTransaction(row)
}

func (r *repository) List(ctx context.Context, orgID uuid.UUID, filters ListFilters) ([]Transaction, int, error) {
	where := `WHERE organization_id=$1`
	args := []any{orgID}
	if filters.Type != "" {
		args = append(args, filters.Type)
		where += fmt.Sprintf(" AND type=$%d", len(args))
	}
	if filters.Status != "" {
		args = append(args, filters.Status)
		where += fmt.Sprintf(" AND status=$%d", len(args))
	}
	if filters.Account != nil {
		args = append(args, *filters.Account)
		where += fmt.Sprintf(" AND (from_account_id=$%d OR to_account_id=$%d)", len(args), len(args))
	}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM transactions `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	perPage := filters.PerPage
	if perPage <= 0 {
		perPage = 20
	}
	page := filters.Page
	if page <= 0 {
		page = 1
	}
	args = append(args, perPage, (page-1)*perPage)
	query := fmt.Sprintf(`SELECT `+transactionColumns+` FROM transactions %s ORDER BY transaction_date DESC, created_at DESC LIMIT $%d OFFSET $%d`,
		where, len(args)-1, len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var out []Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, t)
	}
	return out, total, rows.Err()
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx, ledger: accounts.NewLedger(tx)})
	})
}

type txRepository struct {
	tx     pgx.Tx
	ledger *accounts.Ledger
}

func (r *txRepository) Ledger() LedgerPort {
	return r.ledger
}

func (r *txRepository) Insert(ctx context.Context, t Transaction) (Transaction, error) {
	row := r.tx.QueryRow(ctx, `INSERT INTO transactions
	(id, organization_id, type, status, amount, currency, description, reference,
	 category_id, payment_method_id, from_account_id, to_account_id, transaction_date, created_by)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
RETURNING created_at, updated_at`,
		t.ID, t.OrganizationID, t.Type, t.Status, t.Amount, t.Currency, t.Description, t.Reference,
		t.CategoryID, t.PaymentMethodID, t.FromAccountID, t.ToAccountID, t.TransactionDate, t.CreatedBy)
	if err := row.Scan(&t.CreatedAt, &t.UpdatedAt); err != nil {
		return Transaction{}, err
	}
	return t, nil
}

func (r *txRepository) GetForUpdate(ctx context.Context, orgID, id uuid.UUID) (Transaction, error) {
	row := r.tx.QueryRow(ctx, `SELECT `+transactionColumns+` FROM transactions WHERE organization_id=$1 AND id=$2 FOR UPDATE`, orgID, id)
	return scanTransaction(row)
}

func (r *txRepository) MarkVoided(ctx context.Context, orgID, id uuid.UUID, at time.Time, reason string) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE transactions SET status='VOIDED', voided_at=$3, void_reason=$4, updated_at=NOW()
WHERE organization_id=$1 AND id=$2`, orgID, id, at, reason)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *txRepository) UpdateDetails(ctx context.Context, orgID, id uuid.UUID, patch UpdateRequest) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE transactions SET
	description=COALESCE($3, description),
	reference=COALESCE($4, reference),
	category_id=COALESCE($5, category_id),
	payment_method_id=COALESCE($6, payment_method_id),
	updated_at=NOW()
WHERE organization_id=$1 AND id=$2`, orgID, id, patch.Description, patch.Reference, patch.CategoryID, patch.PaymentMethodID)
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

func scanTransaction(row rowScanner) (Transaction, error) {
	var t Transaction
	err := row.Scan(&t.ID, &t.OrganizationID, &t.Type, &t.Status, &t.Amount, &t.Currency, &t.Description, &t.Reference,
		&t.CategoryID, &t.PaymentMethodID, &t.FromAccountID, &t.ToAccountID, &t.TransactionDate, &t.CreatedBy,
		&t.VoidedAt, &t.VoidReason, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Transaction{}, ErrNotFound
		}
		return Transaction{}, err
	}
	return t, nil
}
