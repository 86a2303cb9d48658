package memberships

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/stewardbooks/stewardbooks/internal/roles"
	"github.com/stewardbooks/stewardbooks/internal/shared"
)

type memoryMembershipRepo struct {
	rows map[string]*Membership
}

func newMemoryMembershipRepo() *memoryMembershipRepo {
	return &memoryMembershipRepo{rows: make(map[string]*Membership)}
}

func key(orgID, userID uuid.UUID) string {
	return orgID.String() + "/" + userID.String()
}

func (r *memoryMembershipRepo) add(m Membership) {
	copied := m
	r.rows[key(m.OrganizationID, m.UserID)] = &copied
}

func (r *memoryMembershipRepo) Get(ctx context.Context, orgID, userID uuid.UUID) (Membership, error) {
	m, ok := r.rows[key(orgID, userID)]
	if !ok {
		return Membership{}, ErrNotFound
	}
	return *m, nil
}

func (r *memoryMembershipRepo) ListByOrganization(ctx context.Context, orgID uuid.UUID) ([]Membership, error) {
	var out []Membership
	for _, m := range r.rows {
		if m.OrganizationID == orgID {
			out = append(out, *m)
		}
	}
	return out, nil
}

func (r *memoryMembershipRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return fn(ctx, &memoryMembershipTx{repo: r})
}

type memoryMembershipTx struct {
	repo *memoryMembershipRepo
}

func (t *memoryMembershipTx) GetForUpdate(ctx context.Context, orgID, userID uuid.UUID) (Membership, error) {
	return t.repo.Get(ctx, orgID, userID)
}

func (t *memoryMembershipTx) Insert(ctx context.Context, m Membership) (Membership, error) {
	m.CreatedAt = time.Now()
	m.UpdatedAt = m.CreatedAt
	t.repo.add(m)
	return m, nil
}

func (t *memoryMembershipTx) UpdateRole(ctx context.Context, id uuid.UUID, role roles.Role) error {
	for _, m := range t.repo.rows {
		if m.ID == id {
			m.Role = role
			return nil
		}
	}
	return ErrNotFound
}

func (t *memoryMembershipTx) SetActive(ctx context.Context, id uuid.UUID, active bool, invitedAt *time.Time, role *roles.Role) error {
	for _, m := range t.repo.rows {
		if m.ID == id {
			m.IsActive = active
			if invitedAt != nil {
				m.InvitedAt = *invitedAt
			}
			if role != nil {
				m.Role = *role
			}
			return nil
		}
	}
	return ErrNotFound
}

func (t *memoryMembershipTx) CountActiveOwners(ctx context.Context, orgID uuid.UUID) (int, error) {
	count := 0
	for _, m := range t.repo.rows {
		if m.OrganizationID == orgID && m.Role == roles.Owner && m.IsActive {
			count++
		}
	}
	return count, nil
}

type stubDirectory struct {
	byEmail map[string]uuid.UUID
}

func (d *stubDirectory) FindIDByEmail(ctx context.Context, email string) (uuid.UUID, error) {
	id, ok := d.byEmail[email]
	if !ok {
		return uuid.Nil, errors.New("no such user")
	}
	return id, nil
}

type recordingAudit struct {
	logs []shared.AuditLog
}

func (a *recordingAudit) Record(ctx context.Context, log shared.AuditLog) error {
	a.logs = append(a.logs, log)
	return nil
}

type fixture struct {
	repo    *memoryMembershipRepo
	svc     *Service
	dir     *stubDirectory
	audit   *recordingAudit
	orgID   uuid.UUID
	ownerID uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	repo := newMemoryMembershipRepo()
	dir := &stubDirectory{byEmail: make(map[string]uuid.UUID)}
	audit := &recordingAudit{}
	svc := NewService(repo, NewAuthorizer(repo), dir, audit)
	f := &fixture{repo: repo, svc: svc, dir: dir, audit: audit, orgID: uuid.New(), ownerID: uuid.New()}
	f.addMember(f.ownerID, roles.Owner, true)
	return f
}

func (f *fixture) addMember(userID uuid.UUID, role roles.Role, active bool) Membership {
	m := Membership{
		ID:             uuid.New(),
		OrganizationID: f.orgID,
		UserID:         userID,
		Role:           role,
		IsActive:       active,
		InvitedAt:      time.Now(),
	}
	f.repo.add(m)
	return m
}

func TestAuthorizeNotAMember(t *testing.T) {
	f := newFixture(t)
	authorizer := NewAuthorizer(f.repo)

	_, err := authorizer.Authorize(context.Background(), f.orgID, uuid.New())
	require.ErrorIs(t, err, shared.ErrNotAMember)

	inactive := uuid.New()
	f.addMember(inactive, roles.Member, false)
	_, err = authorizer.Authorize(context.Background(), f.orgID, inactive)
	require.ErrorIs(t, err, shared.ErrNotAMember)
}

func TestAuthorizeRoleAllowList(t *testing.T) {
	f := newFixture(t)
	authorizer := NewAuthorizer(f.repo)
	viewer := uuid.New()
	f.addMember(viewer, roles.Viewer, true)

	_, err := authorizer.Authorize(context.Background(), f.orgID, viewer, roles.RecordTransactions...)
	require.ErrorIs(t, err, shared.ErrInsufficientRole)

	m, err := authorizer.Authorize(context.Background(), f.orgID, viewer)
	require.NoError(t, err)
	require.Equal(t, roles.Viewer, m.Role)

	m, err = authorizer.Authorize(context.Background(), f.orgID, f.ownerID, roles.OwnerOnly...)
	require.NoError(t, err)
	require.Equal(t, roles.Owner, m.Role)
}

func TestInviteCreatesMembership(t *testing.T) {
	f := newFixture(t)
	invitee := uuid.New()
	f.dir.byEmail["bob@example.org"] = invitee

	m, err := f.svc.Invite(context.Background(), f.orgID, f.ownerID, "bob@example.org", roles.Treasurer)
	require.NoError(t, err)
	require.Equal(t, roles.Treasurer, m.Role)
	require.True(t, m.IsActive)
	require.Nil(t, m.JoinedAt)
	require.Len(t, f.audit.logs, 1)
	require.Equal(t, "member.invite", f.audit.logs[0].Action)
}

func TestInviteReactivatesRevokedRow(t *testing.T) {
	f := newFixture(t)
	invitee := uuid.New()
	f.dir.byEmail["bob@example.org"] = invitee
	old := f.addMember(invitee, roles.Member, false)

	m, err := f.svc.Invite(context.Background(), f.orgID, f.ownerID, "bob@example.org", roles.Admin)
	require.NoError(t, err)
	require.Equal(t, old.ID, m.ID, "reactivation must reuse the existing row")
	require.True(t, m.IsActive)
	require.Equal(t, roles.Admin, m.Role)

	stored, err := f.repo.Get(context.Background(), f.orgID, invitee)
	require.NoError(t, err)
	require.True(t, stored.IsActive)
}

func TestInviteActiveMemberFails(t *testing.T) {
	f := newFixture(t)
	invitee := uuid.New()
	f.dir.byEmail["bob@example.org"] = invitee
	f.addMember(invitee, roles.Member, true)

	_, err := f.svc.Invite(context.Background(), f.orgID, f.ownerID, "bob@example.org", roles.Member)
	require.ErrorIs(t, err, ErrAlreadyMember)
}

func TestInviteRankRules(t *testing.T) {
	f := newFixture(t)
	admin := uuid.New()
	f.addMember(admin, roles.Admin, true)
	invitee := uuid.New()
	f.dir.byEmail["bob@example.org"] = invitee

	// An admin cannot assign a role at or above their own.
	_, err := f.svc.Invite(context.Background(), f.orgID, admin, "bob@example.org", roles.Admin)
	require.ErrorIs(t, err, shared.ErrInsufficientRole)
	_, err = f.svc.Invite(context.Background(), f.orgID, admin, "bob@example.org", roles.Owner)
	require.ErrorIs(t, err, shared.ErrInsufficientRole)

	// But below their own is fine.
	_, err = f.svc.Invite(context.Background(), f.orgID, admin, "bob@example.org", roles.Treasurer)
	require.NoError(t, err)

	// An owner bypasses relative rank and may appoint another owner.
	second := uuid.New()
	f.dir.byEmail["carol@example.org"] = second
	_, err = f.svc.Invite(context.Background(), f.orgID, f.ownerID, "carol@example.org", roles.Owner)
	require.NoError(t, err)
}

func TestInviteByNonManagerFails(t *testing.T) {
	f := newFixture(t)
	treasurer := uuid.New()
	f.addMember(treasurer, roles.Treasurer, true)
	f.dir.byEmail["bob@example.org"] = uuid.New()

	_, err := f.svc.Invite(context.Background(), f.orgID, treasurer, "bob@example.org", roles.Viewer)
	require.ErrorIs(t, err, shared.ErrInsufficientRole)
}

func TestChangeRoleLastOwnerGuard(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.ChangeRole(context.Background(), f.orgID, f.ownerID, f.ownerID, roles.Admin)
	require.ErrorIs(t, err, shared.ErrLastOwner)

	secondOwner := uuid.New()
	f.addMember(secondOwner, roles.Owner, true)
	m, err := f.svc.ChangeRole(context.Background(), f.orgID, f.ownerID, f.ownerID, roles.Admin)
	require.NoError(t, err)
	require.Equal(t, roles.Admin, m.Role)
}

func TestChangeRoleRelativeRank(t *testing.T) {
	f := newFixture(t)
	admin := uuid.New()
	f.addMember(admin, roles.Admin, true)
	other := uuid.New()
	f.addMember(other, roles.Admin, true)

	// Admin acting on an equal-ranked member is refused.
	_, err := f.svc.ChangeRole(context.Background(), f.orgID, admin, other, roles.Member)
	require.ErrorIs(t, err, shared.ErrInsufficientRole)

	// Owner can demote anyone.
	m, err := f.svc.ChangeRole(context.Background(), f.orgID, f.ownerID, other, roles.Member)
	require.NoError(t, err)
	require.Equal(t, roles.Member, m.Role)
}

func TestRevokeLastOwnerGuard(t *testing.T) {
	f := newFixture(t)

	err := f.svc.Revoke(context.Background(), f.orgID, f.ownerID, f.ownerID)
	require.ErrorIs(t, err, shared.ErrLastOwner)

	second := uuid.New()
	f.addMember(second, roles.Owner, true)
	err = f.svc.Revoke(context.Background(), f.orgID, f.ownerID, f.ownerID)
	require.NoError(t, err)

	stored, err := f.repo.Get(context.Background(), f.orgID, f.ownerID)
	require.NoError(t, err)
	require.False(t, stored.IsActive)
}

func TestRevokeMissingMember(t *testing.T) {
	f := newFixture(t)
	err := f.svc.Revoke(context.Background(), f.orgID, f.ownerID, uuid.New())
	require.ErrorIs(t, err, ErrNotFound)
}

func TestLeaveLastOwnerGuard(t *testing.T) {
	f := newFixture(t)
	require.ErrorIs(t, f.svc.Leave(context.Background(), f.orgID, f.ownerID), shared.ErrLastOwner)

	member := uuid.New()
	f.addMember(member, roles.Member, true)
	require.NoError(t, f.svc.Leave(context.Background(), f.orgID, member))

	stored, err := f.repo.Get(context.Background(), f.orgID, member)
	require.NoError(t, err)
	require.False(t, stored.IsActive)
}

func TestListRequiresActiveMembership(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.List(context.Background(), f.orgID, uuid.New())
	require.ErrorIs(t, err, shared.ErrNotAMember)

	members, err := f.svc.List(context.Background(), f.orgID, f.ownerID)
	require.NoError(t, err)
	require.Len(t, members, 1)
}
