package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/incidenthq/api/pkg/domain/shared"
	"github.com/incidenthq/api/pkg/domain/user"
	"github.com/incidenthq/api/pkg/logger"
	"github.com/incidenthq/api/pkg/password"
)

// UserService handles user account operations.
type UserService struct {
	userRepo user.Repository
	hasher   *password.Hasher
	clock    shared.Clock
	logger   *logger.Logger
}

// NewUserService creates a new UserService.
func NewUserService(userRepo user.Repository, hasher *password.Hasher, clock shared.Clock, log *logger.Logger) *UserService {
	return &UserService{
		userRepo: userRepo,
		hasher:   hasher,
		clock:    clock,
		logger:   log.With("service", "user"),
	}
}

// RegisterInput represents the input for registering a user.
type RegisterInput struct {
	Email    string `validate:"required,email"`
	Name     string `validate:"required,min=1,max=200"`
	Password string `validate:"required"`
}

// Register creates a new user account.
func (s *UserService) Register(ctx context.Context, input RegisterInput) (*user.User, error) {
	if err := s.hasher.Validate(input.Password); err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrValidation, err)
	}

	addr := normalizeEmail(input.Email)
	if _, err := s.userRepo.GetByEmail(ctx, addr); err == nil {
		return nil, fmt.Errorf("%w: email already registered", shared.ErrAlreadyExists)
	} else if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}

	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	u, err := user.New(addr, input.Name, hash, s.clock.Now())
	if err != nil {
		return nil, err
	}

	if err := s.userRepo.Create(ctx, u); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.Info("user registered", "user_id", u.ID().String())
	return u, nil
}

// GetUser retrieves a user by ID.
func (s *UserService) GetUser(ctx context.Context, userID shared.ID) (*user.User, error) {
	return s.userRepo.GetByID(ctx, userID)
}

// RenameInput represents the input for renaming a user.
type RenameInput struct {
	Name string `validate:"required,min=1,max=200"`
}

// Rename updates the user's display name.
func (s *UserService) Rename(ctx context.Context, userID shared.ID, input RenameInput) (*user.User, error) {
	u, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if err := u.Rename(input.Name, s.clock.Now()); err != nil {
		return nil, err
	}

	if err := s.userRepo.Update(ctx, u); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return u, nil
}
