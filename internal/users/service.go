package users

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/stewardbooks/stewardbooks/internal/shared"
)

// Service handles registration and profile management.
type Service struct {
	repo Repository
	cost int
}

// NewService builds a Service instance.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, cost: bcrypt.DefaultCost}
}

// Register creates a user with a bcrypt-hashed password. Emails are stored
// lowercased so lookups are case-insensitive.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.cost)
	if err != nil {
		return User{}, err
	}
	return s.repo.Insert(ctx, User{
		ID:           uuid.New(),
		Email:        strings.ToLower(req.Email),
		Name:         req.Name,
		PasswordHash: string(hash),
		IsActive:     true,
	})
}

// Get returns one user.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (User, error) {
	return s.repo.Get(ctx, id)
}

// UpdateProfile patches profile fields of the calling user.
func (s *Service) UpdateProfile(ctx context.Context, id uuid.UUID, req UpdateProfileRequest) (User, error) {
	if err := s.repo.UpdateProfile(ctx, id, req.Name); err != nil {
		return User{}, err
	}
	return s.repo.Get(ctx, id)
}

// ChangePassword replaces the password after verifying the current one.
func (s *Service) ChangePassword(ctx context.Context, id uuid.UUID, req ChangePasswordRequest) error {
	u, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.CurrentPassword)); err != nil {
		return shared.ErrInvalidCredentials
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), s.cost)
	if err != nil {
		return err
	}
	return s.repo.UpdatePassword(ctx, id, string(hash))
}

// FindIDByEmail resolves an email to a user ID. Inactive users resolve the
// same as unknown ones, so deactivated accounts cannot be invited.
func (s *Service) FindIDByEmail(ctx context.Context, email string) (uuid.UUID, error) {
	u, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return uuid.Nil, err
	}
	if !u.IsActive {
		return uuid.Nil, ErrNotFound
	}
	return u.ID, nil
}
