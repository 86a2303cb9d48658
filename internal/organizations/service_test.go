package organizations

import (
	"context"
	"testing"
	"time"

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

type memoryOrgRepo struct {
	orgs    map[uuid.UUID]Organization
	owners  map[uuid.UUID]uuid.UUID
	balance int64
	numAcct int
	numMem  int
	numTxn  int
}

func newMemoryOrgRepo() *memoryOrgRepo {
	return &memoryOrgRepo{orgs: make(map[uuid.UUID]Organization), owners: make(map[uuid.UUID]uuid.UUID)}
}

func (r *memoryOrgRepo) Get(_ context.Context, id uuid.UUID) (Organization, error) {
	o, ok := r.orgs[id]
	if !ok {
		return Organization{}, ErrNotFound
	}
	return o, nil
}

func (r *memoryOrgRepo) ListForUser(_ context.Context, userID uuid.UUID) ([]Organization, error) {
	var out []Organization
	for id, ownerID := range r.owners {
		if ownerID == userID {
			out = append(out, r.orgs[id])
		}
	}
	return out, nil
}

func (r *memoryOrgRepo) CreateWithOwner(_ context.Context, org Organization) (Organization, error) {
	for _, existing := range r.orgs {
		if existing.Slug == org.Slug {
			return Organization{}, ErrDuplicateSlug
		}
	}
	org.IsActive = true
	org.CreatedAt = time.Now()
	org.UpdatedAt = org.CreatedAt
	r.orgs[org.ID] = org
	r.owners[org.ID] = org.CreatedBy
	return org, nil
}

func (r *memoryOrgRepo) UpdateDetails(_ context.Context, id uuid.UUID, patch UpdateRequest) error {
	o, ok := r.orgs[id]
	if !ok {
		return ErrNotFound
	}
	if patch.Name != nil {
		o.Name = *patch.Name
	}
	if patch.Description != nil {
		o.Description = *patch.Description
	}
	if patch.Currency != nil {
		o.Currency = *patch.Currency
	}
	r.orgs[id] = o
	return nil
}

func (r *memoryOrgRepo) SetActive(_ context.Context, id uuid.UUID, active bool) error {
	o, ok := r.orgs[id]
	if !ok {
		return ErrNotFound
	}
	o.IsActive = active
	r.orgs[id] = o
	return nil
}

func (r *memoryOrgRepo) SumAccountBalances(_ context.Context, _ uuid.UUID) (int64, int, error) {
	return r.balance, r.numAcct, nil
}

func (r *memoryOrgRepo) CountActiveMembers(_ context.Context, _ uuid.UUID) (int, error) {
	return r.numMem, nil
}

func (r *memoryOrgRepo) CountTransactionsSince(_ context.Context, _ uuid.UUID, _ time.Time) (int, error) {
	return r.numTxn, nil
}

func TestCreateMakesCreatorOwner(t *testing.T) {
	repo := newMemoryOrgRepo()
	creator := uuid.New()
	svc := NewService(repo, stubAuthorizer{}, nil)

	created, err := svc.Create(context.Background(), creator, CreateRequest{Name: "Grace Chapel", Currency: "USD"})
	require.NoError(t, err)
	require.True(t, created.IsActive)
	require.Equal(t, creator, created.CreatedBy)
	require.Equal(t, "grace-chapel", created.Slug)
	require.Equal(t, creator, repo.owners[created.ID])
}

func TestCreateRejectsUnknownCurrency(t *testing.T) {
	svc := NewService(newMemoryOrgRepo(), stubAuthorizer{}, nil)

	_, err := svc.Create(context.Background(), uuid.New(), CreateRequest{Name: "Grace Chapel", Currency: "XQZ"})
	require.ErrorIs(t, err, ErrInvalidCurrency)
}

func TestCreateRejectsDuplicateSlug(t *testing.T) {
	repo := newMemoryOrgRepo()
	svc := NewService(repo, stubAuthorizer{}, nil)

	_, err := svc.Create(context.Background(), uuid.New(), CreateRequest{Name: "Grace Chapel", Currency: "USD"})
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), uuid.New(), CreateRequest{Name: "Grace Chapel", Currency: "USD"})
	require.ErrorIs(t, err, ErrDuplicateSlug)
}

func TestDeactivateIsOwnerOnly(t *testing.T) {
	repo := newMemoryOrgRepo()
	owner, admin := uuid.New(), uuid.New()
	auth := stubAuthorizer{members: map[uuid.UUID]roles.Role{owner: roles.Owner, admin: roles.Admin}}
	svc := NewService(repo, auth, nil)

	created, err := svc.Create(context.Background(), owner, CreateRequest{Name: "Grace Chapel", Currency: "USD"})
	require.NoError(t, err)

	err = svc.Deactivate(context.Background(), created.ID, admin)
	require.ErrorIs(t, err, shared.ErrInsufficientRole)
	require.True(t, repo.orgs[created.ID].IsActive)

	err = svc.Deactivate(context.Background(), created.ID, owner)
	require.NoError(t, err)
	require.False(t, repo.orgs[created.ID].IsActive)
}

func TestUpdateValidatesCurrency(t *testing.T) {
	repo := newMemoryOrgRepo()
	owner := uuid.New()
	auth := stubAuthorizer{members: map[uuid.UUID]roles.Role{owner: roles.Owner}}
	svc := NewService(repo, auth, nil)

	created, err := svc.Create(context.Background(), owner, CreateRequest{Name: "Grace Chapel", Currency: "USD"})
	require.NoError(t, err)

	bad := "ZZZ"
	_, err = svc.Update(context.Background(), created.ID, owner, UpdateRequest{Currency: &bad})
	require.ErrorIs(t, err, ErrInvalidCurrency)

	eur := "EUR"
	updated, err := svc.Update(context.Background(), created.ID, owner, UpdateRequest{Currency: &eur})
	require.NoError(t, err)
	require.Equal(t, "EUR", updated.Currency)
}

func TestSummaryAggregates(t *testing.T) {
	repo := newMemoryOrgRepo()
	repo.balance = 125_000
	repo.numAcct = 3
	repo.numMem = 7
	repo.numTxn = 42
	member := uuid.New()
	auth := stubAuthorizer{members: map[uuid.UUID]roles.Role{member: roles.Viewer}}
	svc := NewService(repo, auth, nil)

	summary, err := svc.Summary(context.Background(), uuid.New(), member)
	require.NoError(t, err)
	require.EqualValues(t, 125_000, summary.TotalBalance)
	require.Equal(t, 3, summary.AccountCount)
	require.Equal(t, 7, summary.MemberCount)
	require.Equal(t, 42, summary.TransactionCount)
}

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Grace Chapel":        "grace-chapel",
		"St. Mary's Fund":     "st-mary-s-fund",
		"  Trailing  Spaces ": "trailing-spaces",
	}
	for in, want := range cases {
		require.Equal(t, want, slugify(in))
	}
}
