package accounts

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Direction names the sign of a ledger adjustment.
type Direction int

const (
	Increase Direction = iota
	Decrease
)

// ErrNotFound indicates the account does not exist in this organization.
var ErrNotFound = errors.New("accounts: not found")

// Ledger is the only code path permitted to mutate current_balance. It is
// bound to an open pgx transaction so every adjustment commits or rolls back
// together with the record write that caused it, never independently.
type Ledger struct {
	tx pgx.Tx
}

// NewLedger binds a Ledger to an open transaction.
func NewLedger(tx pgx.Tx) *Ledger {
	return &Ledger{tx: tx}
}

// Adjust applies current_balance := current_balance ± amount as a single
// storage-level read-modify-write. Negative balances are permitted; this is
// a bookkeeping ledger, not a constrained-funds wallet.
func (l *Ledger) Adjust(ctx context.Context, orgID, accountID uuid.UUID, amount int64, dir Direction) error {
	delta := amount
	if dir == Decrease {
		delta = -amount
	}
	cmd, err := l.tx.Exec(ctx, `UPDATE accounts SET current_balance = current_balance + $3, updated_at = NOW()
WHERE organization_id = $1 AND id = $2`, orgID, accountID, delta)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
