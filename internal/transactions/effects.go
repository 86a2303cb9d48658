package transactions

import (
	"github.com/google/uuid"

	"github.com/stewardbooks/stewardbooks/internal/accounts"
)

// effect is one signed balance adjustment against one account.
type effect struct {
	accountID uuid.UUID
	direction accounts.Direction
}

// ledgerEffects is the type → effect table applied when a transaction is
// created. It assumes the account-requirement invariant already held.
//
//	INCOME    → Increase(to)
//	EXPENSE   → Decrease(from)
//	TRANSFER  → Decrease(from), Increase(to)
func ledgerEffects(t Transaction) []effect {
	switch t.Type {
	case TypeIncome:
		return []effect{{accountID: *t.ToAccountID, direction: accounts.Increase}}
	case TypeExpense:
		return []effect{{accountID: *t.FromAccountID, direction: accounts.Decrease}}
	case TypeTransfer:
		return []effect{
			{accountID: *t.FromAccountID, direction: accounts.Decrease},
			{accountID: *t.ToAccountID, direction: accounts.Increase},
		}
	}
	return nil
}

// inverseEffects is the exact inverse of ledgerEffects, applied on void.
func inverseEffects(t Transaction) []effect {
	forward := ledgerEffects(t)
	inverse := make([]effect, len(forward))
	for i, e := range forward {
		dir := accounts.Increase
		if e.direction == accounts.Increase {
			dir = accounts.Decrease
		}
		inverse[i] = effect{accountID: e.accountID, direction: dir}
	}
	return inverse
}
