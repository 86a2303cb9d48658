package memberships

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/stewardbooks/stewardbooks/internal/roles"
	"github.com/stewardbooks/stewardbooks/internal/shared"
)

var (
	// ErrAlreadyMember indicates the invited user already holds an active membership.
	ErrAlreadyMember = errors.New("memberships: user is already an active member")
	// ErrUserNotFound indicates the invited email does not belong to a registered user.
	ErrUserNotFound = errors.New("memberships: no user with that email")
	// ErrInvalidRole indicates a role outside the declared hierarchy.
	ErrInvalidRole = errors.New("memberships: invalid role")
)

// AuditPort records membership changes, best effort.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// UserDirectory resolves invite emails to user IDs.
type UserDirectory interface {
	FindIDByEmail(ctx context.Context, email string) (uuid.UUID, error)
}

// Service owns the membership lifecycle: invite, role change, revoke, leave.
type Service struct {
	repo       Repository
	authorizer *Authorizer
	users      UserDirectory
	audit      AuditPort
	now        func() time.Time
}

// NewService builds a Service instance.
func NewService(repo Repository, authorizer *Authorizer, users UserDirectory, audit AuditPort) *Service {
	return &Service{repo: repo, authorizer: authorizer, users: users, audit: audit, now: time.Now}
}

// WithNow overrides the clock, for tests.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// List returns all memberships of the organization. Any active member may look.
func (s *Service) List(ctx context.Context, orgID, actorID uuid.UUID) ([]Membership, error) {
	if _, err := s.authorizer.Authorize(ctx, orgID, actorID); err != nil {
		return nil, err
	}
	return s.repo.ListByOrganization(ctx, orgID)
}

// Invite adds a user to the organization, reusing a previously revoked row
// when one exists. The actor must outrank the role being assigned unless the
// actor is an owner.
func (s *Service) Invite(ctx context.Context, orgID, actorID uuid.UUID, email string, role roles.Role) (Membership, error) {
	if !roles.Valid(role) {
		return Membership{}, ErrInvalidRole
	}
	actor, err := s.authorizer.Authorize(ctx, orgID, actorID, roles.ManageMembers...)
	if err != nil {
		return Membership{}, err
	}
	if actor.Role != roles.Owner && !roles.Outranks(actor.Role, role) {
		return Membership{}, shared.ErrInsufficientRole
	}
	targetID, err := s.users.FindIDByEmail(ctx, email)
	if err != nil {
		return Membership{}, ErrUserNotFound
	}

	now := s.now()
	var result Membership
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		existing, err := tx.GetForUpdate(ctx, orgID, targetID)
		switch {
		case err == nil:
			if existing.IsActive {
				return ErrAlreadyMember
			}
			if actor.Role != roles.Owner && !roles.Outranks(actor.Role, existing.Role) {
				return shared.ErrInsufficientRole
			}
			if err := tx.SetActive(ctx, existing.ID, true, &now, &role); err != nil {
				return err
			}
			existing.IsActive = true
			existing.Role = role
			existing.InvitedAt = now
			result = existing
			return nil
		case errors.Is(err, ErrNotFound):
			inserted, err := tx.Insert(ctx, Membership{
				ID:             uuid.New(),
				OrganizationID: orgID,
				UserID:         targetID,
				Role:           role,
				IsActive:       true,
				InvitedAt:      now,
			})
			if err != nil {
				return err
			}
			result = inserted
			return nil
		default:
			return err
		}
	})
	if err != nil {
		return Membership{}, err
	}
	s.record(ctx, orgID, actorID, "member.invite", result.ID, nil, map[string]any{
		"user_id": targetID.String(),
		"role":    string(role),
	})
	return result, nil
}

// ChangeRole assigns a new role to an existing member. The actor must outrank
// both the target's current role and the new role unless the actor is an
// owner; demoting the last active owner is refused.
func (s *Service) ChangeRole(ctx context.Context, orgID, actorID, targetUserID uuid.UUID, newRole roles.Role) (Membership, error) {
	if !roles.Valid(newRole) {
		return Membership{}, ErrInvalidRole
	}
	actor, err := s.authorizer.Authorize(ctx, orgID, actorID, roles.ManageMembers...)
	if err != nil {
		return Membership{}, err
	}

	var result Membership
	var oldRole roles.Role
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		target, err := tx.GetForUpdate(ctx, orgID, targetUserID)
		if err != nil {
			return err
		}
		if !target.IsActive {
			return ErrNotFound
		}
		if actor.Role != roles.Owner {
			if !roles.Outranks(actor.Role, target.Role) || !roles.Outranks(actor.Role, newRole) {
				return shared.ErrInsufficientRole
			}
		}
		if target.Role == roles.Owner && newRole != roles.Owner {
			owners, err := tx.CountActiveOwners(ctx, orgID)
			if err != nil {
				return err
			}
			if owners <= 1 {
				return shared.ErrLastOwner
			}
		}
		if err := tx.UpdateRole(ctx, target.ID, newRole); err != nil {
			return err
		}
		oldRole = target.Role
		target.Role = newRole
		result = target
		return nil
	})
	if err != nil {
		return Membership{}, err
	}
	s.record(ctx, orgID, actorID, "member.change_role", result.ID,
		map[string]any{"role": string(oldRole)},
		map[string]any{"role": string(newRole)})
	return result, nil
}

// Revoke deactivates a member. The actor must outrank the target unless the
// actor is an owner; revoking the last active owner is refused.
func (s *Service) Revoke(ctx context.Context, orgID, actorID, targetUserID uuid.UUID) error {
	actor, err := s.authorizer.Authorize(ctx, orgID, actorID, roles.ManageMembers...)
	if err != nil {
		return err
	}
	var revokedID uuid.UUID
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		target, err := tx.GetForUpdate(ctx, orgID, targetUserID)
		if err != nil {
			return err
		}
		if !target.IsActive {
			return ErrNotFound
		}
		if actor.Role != roles.Owner && !roles.Outranks(actor.Role, target.Role) {
			return shared.ErrInsufficientRole
		}
		if target.Role == roles.Owner {
			owners, err := tx.CountActiveOwners(ctx, orgID)
			if err != nil {
				return err
			}
			if owners <= 1 {
				return shared.ErrLastOwner
			}
		}
		if err := tx.SetActive(ctx, target.ID, false, nil, nil); err != nil {
			return err
		}
		revokedID = target.ID
		return nil
	})
	if err != nil {
		return err
	}
	s.record(ctx, orgID, actorID, "member.revoke", revokedID, nil, map[string]any{
		"user_id": targetUserID.String(),
	})
	return nil
}

// Leave removes the actor's own membership, subject to the last-owner guard.
func (s *Service) Leave(ctx context.Context, orgID, actorID uuid.UUID) error {
	if _, err := s.authorizer.Authorize(ctx, orgID, actorID); err != nil {
		return err
	}
	var leftID uuid.UUID
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		self, err := tx.GetForUpdate(ctx, orgID, actorID)
		if err != nil {
			return err
		}
		if !self.IsActive {
			return ErrNotFound
		}
		if self.Role == roles.Owner {
			owners, err := tx.CountActiveOwners(ctx, orgID)
			if err != nil {
				return err
			}
			if owners <= 1 {
				return shared.ErrLastOwner
			}
		}
		if err := tx.SetActive(ctx, self.ID, false, nil, nil); err != nil {
			return err
		}
		leftID = self.ID
		return nil
	})
	if err != nil {
		return err
	}
	s.record(ctx, orgID, actorID, "member.leave", leftID, nil, nil)
	return nil
}

func (s *Service) record(ctx context.Context, orgID, actorID uuid.UUID, action string, entityID uuid.UUID, oldValues, newValues map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		OrganizationID: orgID,
		ActorID:        actorID,
		Action:         action,
		Module:         "memberships",
		Entity:         "membership",
		EntityID:       entityID.String(),
		OldValues:      oldValues,
		NewValues:      newValues,
		At:             s.now(),
	})
}
