package transactions

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/stewardbooks/stewardbooks/internal/accounts"
	"github.com/stewardbooks/stewardbooks/internal/memberships"
	"github.com/stewardbooks/stewardbooks/internal/roles"
	"github.com/stewardbooks/stewardbooks/internal/shared"
)

type stubAuthorizer struct {
	members map[uuid.UUID]roles.Role
}

func (s stubAuthorizer) Authorize(_ context.Context, orgID, userID uuid.UUID, allowed ...roles.Role) (memberships.Membership, error) {
	role, ok := s.members[userID]
	if !ok {
		return memberships.Membership{}, shared.ErrNotAMember
	}
	m := memberships.Membership{OrganizationID: orgID, UserID: userID, Role: role, IsActive: true}
	if len(allowed) == 0 {
		return m, nil
	}
	for _, a := range allowed {
		if a == role {
			return m, nil
		}
	}
	return memberships.Membership{}, shared.ErrInsufficientRole
}

type memoryLedger struct {
	balances map[uuid.UUID]int64
}

func (l *memoryLedger) Adjust(_ context.Context, _ uuid.UUID, accountID uuid.UUID, amount int64, dir accounts.Direction) error {
	if _, ok := l.balances[accountID]; !ok {
		return accounts.ErrNotFound
	}
	delta := amount
	if dir == accounts.Decrease {
		delta = -amount
	}
	l.balances[accountID] += delta
	return nil
}

type memoryTransactionRepo struct {
	records map[uuid.UUID]Transaction
	ledger  *memoryLedger
}

func newMemoryTransactionRepo() *memoryTransactionRepo {
	return &memoryTransactionRepo{
		records: make(map[uuid.UUID]Transaction),
		ledger:  &memoryLedger{balances: make(map[uuid.UUID]int64)},
	}
}

func (r *memoryTransactionRepo) Get(_ context.Context, orgID, id uuid.UUID) (Transaction, error) {
	t, ok := r.records[id]
	if !ok || t.OrganizationID != orgID {
		return Transaction{}, ErrNotFound
	}
	return t, nil
}

func (r *memoryTransactionRepo) List(_ context.Context, orgID uuid.UUID, filters ListFilters) ([]Transaction, int, error) {
	var out []Transaction
	for _, t := range r.records {
		if t.OrganizationID != orgID {
			continue
		}
		if filters.Type != "" && t.Type != filters.Type {
			continue
		}
		if filters.Status != "" && t.Status != filters.Status {
			continue
		}
		out = append(out, t)
	}
	return out, len(out), nil
}

// WithTx snapshots records and balances and restores them when fn fails, so
// tests observe the same all-or-nothing behavior the real transaction gives.
func (r *memoryTransactionRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	recordsBefore := make(map[uuid.UUID]Transaction, len(r.records))
	for k, v := range r.records {
		recordsBefore[k] = v
	}
	balancesBefore := make(map[uuid.UUID]int64, len(r.ledger.balances))
	for k, v := range r.ledger.balances {
		balancesBefore[k] = v
	}
	if err := fn(ctx, &memoryTransactionTx{repo: r}); err != nil {
		r.records = recordsBefore
		r.ledger.balances = balancesBefore
		return err
	}
	return nil
}

type memoryTransactionTx struct {
	repo *memoryTransactionRepo
}

func (t *memoryTransactionTx) Insert(_ context.Context, record Transaction) (Transaction, error) {
	record.CreatedAt = time.Now()
	record.UpdatedAt = record.CreatedAt
	t.repo.records[record.ID] = record
	return record, nil
}

func (t *memoryTransactionTx) GetForUpdate(_ context.Context, orgID, id uuid.UUID) (Transaction, error) {
	return t.repo.Get(context.Background(), orgID, id)
}

func (t *memoryTransactionTx) MarkVoided(_ context.Context, orgID, id uuid.UUID, at time.Time, reason string) error {
	record, ok := t.repo.records[id]
	if !ok || record.OrganizationID != orgID {
		return ErrNotFound
	}
	record.Status = StatusVoided
	record.VoidedAt = &at
	record.VoidReason = &reason
	t.repo.records[id] = record
	return nil
}

func (t *memoryTransactionTx) UpdateDetails(_ context.Context, orgID, id uuid.UUID, patch UpdateRequest) error {
	record, ok := t.repo.records[id]
	if !ok || record.OrganizationID != orgID {
		return ErrNotFound
	}
	if patch.Description != nil {
		record.Description = *patch.Description
	}
	if patch.Reference != nil {
		record.Reference = *patch.Reference
	}
	if patch.CategoryID != nil {
		record.CategoryID = patch.CategoryID
	}
	if patch.PaymentMethodID != nil {
		record.PaymentMethodID = patch.PaymentMethodID
	}
	t.repo.records[id] = record
	return nil
}

func (t *memoryTransactionTx) Ledger() LedgerPort {
	return t.repo.ledger
}

type transactionFixture struct {
	service   *Service
	repo      *memoryTransactionRepo
	orgID     uuid.UUID
	treasurer uuid.UUID
	admin     uuid.UUID
	member    uuid.UUID
	viewer    uuid.UUID
	checking  uuid.UUID
	savings   uuid.UUID
}

func newTransactionFixture(t *testing.T) transactionFixture {
	t.Helper()
	f := transactionFixture{
		repo:      newMemoryTransactionRepo(),
		orgID:     uuid.New(),
		treasurer: uuid.New(),
		admin:     uuid.New(),
		member:    uuid.New(),
		viewer:    uuid.New(),
		checking:  uuid.New(),
		savings:   uuid.New(),
	}
	f.repo.ledger.balances[f.checking] = 1000
	f.repo.ledger.balances[f.savings] = 0
	auth := stubAuthorizer{members: map[uuid.UUID]roles.Role{
		f.treasurer: roles.Treasurer,
		f.admin:     roles.Admin,
		f.member:    roles.Member,
		f.viewer:    roles.Viewer,
	}}
	f.service = NewService(f.repo, auth, nil, nil)
	return f
}

func (f transactionFixture) createReq(txType Type, amount int64, from, to *uuid.UUID) CreateRequest {
	return CreateRequest{
		Type:            txType,
		Amount:          amount,
		TransactionDate: time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC),
		FromAccountID:   from,
		ToAccountID:     to,
	}
}

func TestCreateIncomeIncreasesDestination(t *testing.T) {
	f := newTransactionFixture(t)

	created, err := f.service.Create(context.Background(), f.orgID, f.treasurer, f.createReq(TypeIncome, 250, nil, &f.savings))
	require.NoError(t, err)
	require.Equal(t, StatusCompleted, created.Status)
	require.EqualValues(t, 250, f.repo.ledger.balances[f.savings])
	require.EqualValues(t, 1000, f.repo.ledger.balances[f.checking])
}

func TestCreateDropsAccountsOutsideLedgerEffect(t *testing.T) {
	f := newTransactionFixture(t)

	income, err := f.service.Create(context.Background(), f.orgID, f.treasurer, f.createReq(TypeIncome, 250, &f.checking, &f.savings))
	require.NoError(t, err)
	require.Nil(t, income.FromAccountID)
	require.NotNil(t, income.ToAccountID)
	require.EqualValues(t, 1000, f.repo.ledger.balances[f.checking])

	expense, err := f.service.Create(context.Background(), f.orgID, f.treasurer, f.createReq(TypeExpense, 100, &f.checking, &f.savings))
	require.NoError(t, err)
	require.Nil(t, expense.ToAccountID)
	require.NotNil(t, expense.FromAccountID)
	require.EqualValues(t, 250, f.repo.ledger.balances[f.savings])
}

func TestCreateExpenseDecreasesSource(t *testing.T) {
	f := newTransactionFixture(t)

	_, err := f.service.Create(context.Background(), f.orgID, f.treasurer, f.createReq(TypeExpense, 500, &f.checking, nil))
	require.NoError(t, err)
	require.EqualValues(t, 500, f.repo.ledger.balances[f.checking])
}

func TestCreateTransferConservesTotal(t *testing.T) {
	f := newTransactionFixture(t)

	_, err := f.service.Create(context.Background(), f.orgID, f.treasurer, f.createReq(TypeTransfer, 300, &f.checking, &f.savings))
	require.NoError(t, err)
	require.EqualValues(t, 700, f.repo.ledger.balances[f.checking])
	require.EqualValues(t, 300, f.repo.ledger.balances[f.savings])
	require.EqualValues(t, 1000, f.repo.ledger.balances[f.checking]+f.repo.ledger.balances[f.savings])
}

func TestCreateRejectsMismatchedAccounts(t *testing.T) {
	f := newTransactionFixture(t)

	cases := []struct {
		name string
		req  CreateRequest
	}{
		{"income without destination", f.createReq(TypeIncome, 100, &f.checking, nil)},
		{"expense without source", f.createReq(TypeExpense, 100, nil, &f.savings)},
		{"transfer missing source", f.createReq(TypeTransfer, 100, nil, &f.savings)},
		{"transfer missing destination", f.createReq(TypeTransfer, 100, &f.checking, nil)},
		{"transfer to itself", f.createReq(TypeTransfer, 100, &f.checking, &f.checking)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.service.Create(context.Background(), f.orgID, f.treasurer, tc.req)
			require.ErrorIs(t, err, ErrInvalidAccounts)
		})
	}
	require.Empty(t, f.repo.records)
	require.EqualValues(t, 1000, f.repo.ledger.balances[f.checking])
	require.EqualValues(t, 0, f.repo.ledger.balances[f.savings])
}

func TestCreateRejectsNonPositiveAmount(t *testing.T) {
	f := newTransactionFixture(t)

	_, err := f.service.Create(context.Background(), f.orgID, f.treasurer, f.createReq(TypeExpense, 0, &f.checking, nil))
	require.ErrorIs(t, err, ErrInvalidAmount)
	_, err = f.service.Create(context.Background(), f.orgID, f.treasurer, f.createReq(TypeExpense, -50, &f.checking, nil))
	require.ErrorIs(t, err, ErrInvalidAmount)
}

func TestCreateRollsBackWhenAccountMissing(t *testing.T) {
	f := newTransactionFixture(t)
	ghost := uuid.New()

	_, err := f.service.Create(context.Background(), f.orgID, f.treasurer, f.createReq(TypeTransfer, 100, &f.checking, &ghost))
	require.ErrorIs(t, err, accounts.ErrNotFound)
	require.Empty(t, f.repo.records)
	require.EqualValues(t, 1000, f.repo.ledger.balances[f.checking])
}

func TestViewerCannotRecord(t *testing.T) {
	f := newTransactionFixture(t)

	_, err := f.service.Create(context.Background(), f.orgID, f.viewer, f.createReq(TypeIncome, 100, nil, &f.savings))
	require.ErrorIs(t, err, shared.ErrInsufficientRole)
	require.Empty(t, f.repo.records)
}

func TestMemberCanRecord(t *testing.T) {
	f := newTransactionFixture(t)

	_, err := f.service.Create(context.Background(), f.orgID, f.member, f.createReq(TypeIncome, 100, nil, &f.savings))
	require.NoError(t, err)
}

func TestOutsiderCannotRecord(t *testing.T) {
	f := newTransactionFixture(t)

	_, err := f.service.Create(context.Background(), f.orgID, uuid.New(), f.createReq(TypeIncome, 100, nil, &f.savings))
	require.ErrorIs(t, err, shared.ErrNotAMember)
}

func TestGeneratedReferenceFormat(t *testing.T) {
	f := newTransactionFixture(t)
	f.service.WithNow(func() time.Time { return time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC) })

	created, err := f.service.Create(context.Background(), f.orgID, f.treasurer, f.createReq(TypeIncome, 100, nil, &f.savings))
	require.NoError(t, err)
	require.Regexp(t, regexp.MustCompile(`^TRX-20260314-\d{4}$`), created.Reference)
}

func TestSuppliedReferenceIsKept(t *testing.T) {
	f := newTransactionFixture(t)
	req := f.createReq(TypeIncome, 100, nil, &f.savings)
	req.Reference = "INV-2026-0042"

	created, err := f.service.Create(context.Background(), f.orgID, f.treasurer, req)
	require.NoError(t, err)
	require.Equal(t, "INV-2026-0042", created.Reference)
}

func TestVoidReversesExpenseExactly(t *testing.T) {
	f := newTransactionFixture(t)

	created, err := f.service.Create(context.Background(), f.orgID, f.treasurer, f.createReq(TypeExpense, 500, &f.checking, nil))
	require.NoError(t, err)
	require.EqualValues(t, 500, f.repo.ledger.balances[f.checking])

	voided, err := f.service.Void(context.Background(), f.orgID, f.admin, created.ID, "duplicate entry")
	require.NoError(t, err)
	require.Equal(t, StatusVoided, voided.Status)
	require.NotNil(t, voided.VoidedAt)
	require.NotNil(t, voided.VoidReason)
	require.Equal(t, "duplicate entry", *voided.VoidReason)
	require.EqualValues(t, 1000, f.repo.ledger.balances[f.checking])
}

func TestVoidReversesTransferExactly(t *testing.T) {
	f := newTransactionFixture(t)

	created, err := f.service.Create(context.Background(), f.orgID, f.treasurer, f.createReq(TypeTransfer, 300, &f.checking, &f.savings))
	require.NoError(t, err)

	_, err = f.service.Void(context.Background(), f.orgID, f.admin, created.ID, "wrong account")
	require.NoError(t, err)
	require.EqualValues(t, 1000, f.repo.ledger.balances[f.checking])
	require.EqualValues(t, 0, f.repo.ledger.balances[f.savings])
}

func TestDoubleVoidFailsWithoutDoubleReversal(t *testing.T) {
	f := newTransactionFixture(t)

	created, err := f.service.Create(context.Background(), f.orgID, f.treasurer, f.createReq(TypeExpense, 500, &f.checking, nil))
	require.NoError(t, err)

	_, err = f.service.Void(context.Background(), f.orgID, f.admin, created.ID, "first")
	require.NoError(t, err)
	_, err = f.service.Void(context.Background(), f.orgID, f.admin, created.ID, "second")
	require.ErrorIs(t, err, ErrAlreadyVoided)
	require.EqualValues(t, 1000, f.repo.ledger.balances[f.checking])
}

func TestVoidRequiresAdminOrOwner(t *testing.T) {
	f := newTransactionFixture(t)

	created, err := f.service.Create(context.Background(), f.orgID, f.treasurer, f.createReq(TypeExpense, 500, &f.checking, nil))
	require.NoError(t, err)

	_, err = f.service.Void(context.Background(), f.orgID, f.treasurer, created.ID, "mine")
	require.ErrorIs(t, err, shared.ErrInsufficientRole)
	require.EqualValues(t, 500, f.repo.ledger.balances[f.checking])
}

func TestVoidMissingTransaction(t *testing.T) {
	f := newTransactionFixture(t)

	_, err := f.service.Void(context.Background(), f.orgID, f.admin, uuid.New(), "gone")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateTouchesOnlyDetailFields(t *testing.T) {
	f := newTransactionFixture(t)

	created, err := f.service.Create(context.Background(), f.orgID, f.treasurer, f.createReq(TypeExpense, 500, &f.checking, nil))
	require.NoError(t, err)

	desc := "office supplies"
	categoryID := uuid.New()
	updated, err := f.service.Update(context.Background(), f.orgID, f.treasurer, created.ID, UpdateRequest{
		Description: &desc,
		CategoryID:  &categoryID,
	})
	require.NoError(t, err)
	require.Equal(t, "office supplies", updated.Description)
	require.Equal(t, &categoryID, updated.CategoryID)
	require.Equal(t, created.Amount, updated.Amount)
	require.Equal(t, created.Type, updated.Type)
	require.EqualValues(t, 500, f.repo.ledger.balances[f.checking])
}

func TestUpdateVoidedTransactionFails(t *testing.T) {
	f := newTransactionFixture(t)

	created, err := f.service.Create(context.Background(), f.orgID, f.treasurer, f.createReq(TypeExpense, 500, &f.checking, nil))
	require.NoError(t, err)
	_, err = f.service.Void(context.Background(), f.orgID, f.admin, created.ID, "duplicate")
	require.NoError(t, err)

	desc := "late edit"
	_, err = f.service.Update(context.Background(), f.orgID, f.treasurer, created.ID, UpdateRequest{Description: &desc})
	require.ErrorIs(t, err, ErrVoidedImmutable)
}

func TestGetAndListAllowAnyMember(t *testing.T) {
	f := newTransactionFixture(t)

	created, err := f.service.Create(context.Background(), f.orgID, f.treasurer, f.createReq(TypeIncome, 100, nil, &f.savings))
	require.NoError(t, err)

	got, err := f.service.Get(context.Background(), f.orgID, f.viewer, created.ID)
	require.NoError(t, err)
	require.Equal(t, created.ID, got.ID)

	list, total, err := f.service.List(context.Background(), f.orgID, f.viewer, ListFilters{})
	require.NoError(t, err)
	require.Equal(t, 1, total)
	require.Len(t, list, 1)
}
