package categories

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

type memoryCategoryRepo struct {
	items map[uuid.UUID]Category
}

func newMemoryCategoryRepo() *memoryCategoryRepo {
	return &memoryCategoryRepo{items: make(map[uuid.UUID]Category)}
}

func (r *memoryCategoryRepo) Get(_ context.Context, orgID, categoryID uuid.UUID) (Category, error) {
	c, ok := r.items[categoryID]
	if !ok || c.OrganizationID != orgID {
		return Category{}, ErrNotFound
	}
	return c, nil
}

func (r *memoryCategoryRepo) ListByOrganization(_ context.Context, orgID uuid.UUID) ([]Category, error) {
	var out []Category
	for _, c := range r.items {
		if c.OrganizationID == orgID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *memoryCategoryRepo) Insert(_ context.Context, c Category) (Category, error) {
	for _, existing := range r.items {
		if existing.OrganizationID == c.OrganizationID && existing.Name == c.Name {
			return Category{}, ErrDuplicateName
		}
	}
	c.CreatedAt = time.Now()
	c.UpdatedAt = c.CreatedAt
	r.items[c.ID] = c
	return c, nil
}

func (r *memoryCategoryRepo) UpdateDetails(_ context.Context, orgID, categoryID uuid.UUID, name, description *string, kind *Kind) error {
	c, ok := r.items[categoryID]
	if !ok || c.OrganizationID != orgID {
		return ErrNotFound
	}
	if name != nil {
		c.Name = *name
	}
	if description != nil {
		c.Description = *description
	}
	if kind != nil {
		c.Kind = *kind
	}
	r.items[categoryID] = c
	return nil
}

func (r *memoryCategoryRepo) SetActive(_ context.Context, orgID, categoryID uuid.UUID, active bool) error {
	c, ok := r.items[categoryID]
	if !ok || c.OrganizationID != orgID {
		return ErrNotFound
	}
	c.IsActive = active
	r.items[categoryID] = c
	return nil
}

type categoryFixture struct {
	service   *Service
	repo      *memoryCategoryRepo
	orgID     uuid.UUID
	treasurer uuid.UUID
	viewer    uuid.UUID
}

func newCategoryFixture(t *testing.T) categoryFixture {
	t.Helper()
	f := categoryFixture{
		repo:      newMemoryCategoryRepo(),
		orgID:     uuid.New(),
		treasurer: uuid.New(),
		viewer:    uuid.New(),
	}
	auth := stubAuthorizer{members: map[uuid.UUID]roles.Role{
		f.treasurer: roles.Treasurer,
		f.viewer:    roles.Viewer,
	}}
	f.service = NewService(f.repo, auth, nil)
	return f
}

func TestCreateCategory(t *testing.T) {
	f := newCategoryFixture(t)

	created, err := f.service.Create(context.Background(), f.orgID, f.treasurer, CreateRequest{Name: "Tithes", Kind: KindIncome})
	require.NoError(t, err)
	require.True(t, created.IsActive)
	require.Equal(t, KindIncome, created.Kind)

	_, err = f.service.Create(context.Background(), f.orgID, f.treasurer, CreateRequest{Name: "Tithes", Kind: KindIncome})
	require.ErrorIs(t, err, ErrDuplicateName)
}

func TestViewerCannotManageCategories(t *testing.T) {
	f := newCategoryFixture(t)

	_, err := f.service.Create(context.Background(), f.orgID, f.viewer, CreateRequest{Name: "Tithes", Kind: KindIncome})
	require.ErrorIs(t, err, shared.ErrInsufficientRole)
}

func TestEnsureUsableForType(t *testing.T) {
	f := newCategoryFixture(t)
	income, err := f.service.Create(context.Background(), f.orgID, f.treasurer, CreateRequest{Name: "Tithes", Kind: KindIncome})
	require.NoError(t, err)
	expense, err := f.service.Create(context.Background(), f.orgID, f.treasurer, CreateRequest{Name: "Utilities", Kind: KindExpense})
	require.NoError(t, err)
	both, err := f.service.Create(context.Background(), f.orgID, f.treasurer, CreateRequest{Name: "Adjustments", Kind: KindBoth})
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, f.service.EnsureUsableForType(ctx, f.orgID, income.ID, "INCOME"))
	require.ErrorIs(t, f.service.EnsureUsableForType(ctx, f.orgID, income.ID, "EXPENSE"), ErrKindMismatch)
	require.ErrorIs(t, f.service.EnsureUsableForType(ctx, f.orgID, expense.ID, "INCOME"), ErrKindMismatch)
	require.NoError(t, f.service.EnsureUsableForType(ctx, f.orgID, expense.ID, "EXPENSE"))
	require.NoError(t, f.service.EnsureUsableForType(ctx, f.orgID, both.ID, "INCOME"))
	require.NoError(t, f.service.EnsureUsableForType(ctx, f.orgID, both.ID, "EXPENSE"))
	require.NoError(t, f.service.EnsureUsableForType(ctx, f.orgID, income.ID, "TRANSFER"))

	require.ErrorIs(t, f.service.EnsureUsableForType(ctx, f.orgID, uuid.New(), "INCOME"), ErrNotFound)

	_, err = f.service.SetActive(ctx, f.orgID, f.treasurer, income.ID, false)
	require.NoError(t, err)
	require.ErrorIs(t, f.service.EnsureUsableForType(ctx, f.orgID, income.ID, "INCOME"), ErrInactive)
}

func TestUpdateCategoryKind(t *testing.T) {
	f := newCategoryFixture(t)
	created, err := f.service.Create(context.Background(), f.orgID, f.treasurer, CreateRequest{Name: "Misc", Kind: KindExpense})
	require.NoError(t, err)

	kind := KindBoth
	updated, err := f.service.Update(context.Background(), f.orgID, f.treasurer, created.ID, UpdateRequest{Kind: &kind})
	require.NoError(t, err)
	require.Equal(t, KindBoth, updated.Kind)
}
