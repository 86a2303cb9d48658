package accounts

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

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

type memoryAccountRepo struct {
	accounts map[uuid.UUID]Account
}

func newMemoryAccountRepo() *memoryAccountRepo {
	return &memoryAccountRepo{accounts: make(map[uuid.UUID]Account)}
}

func (r *memoryAccountRepo) Get(_ context.Context, orgID, accountID uuid.UUID) (Account, error) {
	a, ok := r.accounts[accountID]
	if !ok || a.OrganizationID != orgID {
		return Account{}, ErrNotFound
	}
	return a, nil
}

func (r *memoryAccountRepo) ListByOrganization(_ context.Context, orgID uuid.UUID) ([]Account, error) {
	var out []Account
	for _, a := range r.accounts {
		if a.OrganizationID == orgID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *memoryAccountRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return fn(ctx, r)
}

func (r *memoryAccountRepo) Insert(_ context.Context, a Account) (Account, error) {
	for _, existing := range r.accounts {
		if existing.OrganizationID == a.OrganizationID && existing.Name == a.Name {
			return Account{}, ErrDuplicateName
		}
	}
	r.accounts[a.ID] = a
	return a, nil
}

func (r *memoryAccountRepo) UpdateDetails(_ context.Context, orgID, accountID uuid.UUID, name, accountType *string) error {
	a, ok := r.accounts[accountID]
	if !ok || a.OrganizationID != orgID {
		return ErrNotFound
	}
	if name != nil {
		a.Name = *name
	}
	if accountType != nil {
		a.AccountType = *accountType
	}
	r.accounts[accountID] = a
	return nil
}

func (r *memoryAccountRepo) SetActive(_ context.Context, orgID, accountID uuid.UUID, active bool) error {
	a, ok := r.accounts[accountID]
	if !ok || a.OrganizationID != orgID {
		return ErrNotFound
	}
	a.IsActive = active
	r.accounts[accountID] = a
	return nil
}

type accountFixture struct {
	orgID     uuid.UUID
	owner     uuid.UUID
	treasurer uuid.UUID
	admin     uuid.UUID
	viewer    uuid.UUID
	repo      *memoryAccountRepo
	svc       *Service
}

func newAccountFixture(t *testing.T) *accountFixture {
	t.Helper()
	f := &accountFixture{
		orgID:     uuid.New(),
		owner:     uuid.New(),
		treasurer: uuid.New(),
		admin:     uuid.New(),
		viewer:    uuid.New(),
		repo:      newMemoryAccountRepo(),
	}
	authorizer := stubAuthorizer{members: map[uuid.UUID]roles.Role{
		f.owner:     roles.Owner,
		f.treasurer: roles.Treasurer,
		f.admin:     roles.Admin,
		f.viewer:    roles.Viewer,
	}}
	f.svc = NewService(f.repo, authorizer, nil)
	return f
}

func TestCreateAccountStartsAtInitialBalance(t *testing.T) {
	f := newAccountFixture(t)

	account, err := f.svc.Create(context.Background(), f.orgID, f.treasurer, CreateAccountRequest{
		Name:           "Checking",
		AccountType:    "BANK",
		Currency:       "USD",
		InitialBalance: 125_000,
	})
	require.NoError(t, err)
	require.Equal(t, int64(125_000), account.CurrentBalance)
	require.Equal(t, int64(125_000), account.InitialBalance)
	require.True(t, account.IsActive)
	require.Equal(t, f.treasurer, account.CreatedBy)
}

func TestCreateAccountRejectsUnknownCurrency(t *testing.T) {
	f := newAccountFixture(t)

	_, err := f.svc.Create(context.Background(), f.orgID, f.treasurer, CreateAccountRequest{
		Name:        "Checking",
		AccountType: "BANK",
		Currency:    "XQZ",
	})
	require.ErrorIs(t, err, ErrInvalidCurrency)
}

func TestCreateAccountRejectsDuplicateName(t *testing.T) {
	f := newAccountFixture(t)

	_, err := f.svc.Create(context.Background(), f.orgID, f.treasurer, CreateAccountRequest{
		Name: "Checking", AccountType: "BANK", Currency: "USD",
	})
	require.NoError(t, err)

	_, err = f.svc.Create(context.Background(), f.orgID, f.treasurer, CreateAccountRequest{
		Name: "Checking", AccountType: "CASH", Currency: "USD",
	})
	require.ErrorIs(t, err, ErrDuplicateName)
}

func TestCreateAccountRequiresFinanceRole(t *testing.T) {
	f := newAccountFixture(t)

	_, err := f.svc.Create(context.Background(), f.orgID, f.viewer, CreateAccountRequest{
		Name: "Checking", AccountType: "BANK", Currency: "USD",
	})
	require.ErrorIs(t, err, shared.ErrInsufficientRole)

	_, err = f.svc.Create(context.Background(), f.orgID, uuid.New(), CreateAccountRequest{
		Name: "Checking", AccountType: "BANK", Currency: "USD",
	})
	require.ErrorIs(t, err, shared.ErrNotAMember)
}

func TestUpdateAccountLeavesBalancesAlone(t *testing.T) {
	f := newAccountFixture(t)

	account, err := f.svc.Create(context.Background(), f.orgID, f.treasurer, CreateAccountRequest{
		Name: "Checking", AccountType: "BANK", Currency: "USD", InitialBalance: 5_000,
	})
	require.NoError(t, err)

	name := "Main Checking"
	kind := "CASH"
	updated, err := f.svc.Update(context.Background(), f.orgID, f.treasurer, account.ID, UpdateAccountRequest{
		Name:        &name,
		AccountType: &kind,
	})
	require.NoError(t, err)
	require.Equal(t, "Main Checking", updated.Name)
	require.Equal(t, "CASH", updated.AccountType)
	require.Equal(t, int64(5_000), updated.CurrentBalance)
	require.Equal(t, int64(5_000), updated.InitialBalance)
}

func TestSetActiveRequiresAdmin(t *testing.T) {
	f := newAccountFixture(t)

	account, err := f.svc.Create(context.Background(), f.orgID, f.treasurer, CreateAccountRequest{
		Name: "Checking", AccountType: "BANK", Currency: "USD",
	})
	require.NoError(t, err)

	// A treasurer may open accounts but not retire them.
	_, err = f.svc.SetActive(context.Background(), f.orgID, f.treasurer, account.ID, false)
	require.ErrorIs(t, err, shared.ErrInsufficientRole)

	deactivated, err := f.svc.SetActive(context.Background(), f.orgID, f.admin, account.ID, false)
	require.NoError(t, err)
	require.False(t, deactivated.IsActive)

	reactivated, err := f.svc.SetActive(context.Background(), f.orgID, f.admin, account.ID, true)
	require.NoError(t, err)
	require.True(t, reactivated.IsActive)
}

func TestGetAndListAllowAnyMember(t *testing.T) {
	f := newAccountFixture(t)

	account, err := f.svc.Create(context.Background(), f.orgID, f.treasurer, CreateAccountRequest{
		Name: "Checking", AccountType: "BANK", Currency: "USD",
	})
	require.NoError(t, err)

	got, err := f.svc.Get(context.Background(), f.orgID, f.viewer, account.ID)
	require.NoError(t, err)
	require.Equal(t, account.ID, got.ID)

	listed, err := f.svc.List(context.Background(), f.orgID, f.viewer)
	require.NoError(t, err)
	require.Len(t, listed, 1)

	_, err = f.svc.Get(context.Background(), f.orgID, uuid.New(), account.ID)
	require.ErrorIs(t, err, shared.ErrNotAMember)
}
