// Package user holds the user aggregate.
package user

import (
	"fmt"
	"strings"
	"time"

	"github.com/incidenthq/api/pkg/domain/shared"
)

// User is a registered account. Role memberships live in rbac
// assignments, not on the user.
type User struct {
	id           shared.ID
	email        string
	name         string
	passwordHash string
	createdAt    time.Time
	updatedAt    time.Time
}

// New creates a user.
func New(email, name, passwordHash string, now time.Time) (*User, error) {
	email = NormalizeEmail(email)
	if email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("%w: valid email is required", shared.ErrValidation)
	}
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: name is required", shared.ErrValidation)
	}
	if passwordHash == "" {
		return nil, fmt.Errorf("%w: password hash is required", shared.ErrValidation)
	}

	return &User{
		id:           shared.NewID(),
		email:        email,
		name:         name,
		passwordHash: passwordHash,
		createdAt:    now,
		updatedAt:    now,
	}, nil
}

// Reconstitute recreates a User from persistence.
func Reconstitute(id shared.ID, email, name, passwordHash string, createdAt, updatedAt time.Time) *User {
	return &User{
		id:           id,
		email:        email,
		name:         name,
		passwordHash: passwordHash,
		createdAt:    createdAt,
		updatedAt:    updatedAt,
	}
}

// NormalizeEmail lowercases and trims an email address for lookups.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ID returns the user ID.
func (u *User) ID() shared.ID { return u.id }

// Email returns the normalized email address.
func (u *User) Email() string { return u.email }

// Name returns the display name.
func (u *User) Name() string { return u.name }

// PasswordHash returns the stored password hash.
func (u *User) PasswordHash() string { return u.passwordHash }

// CreatedAt returns the creation timestamp.
func (u *User) CreatedAt() time.Time { return u.createdAt }

// UpdatedAt returns the last update timestamp.
func (u *User) UpdatedAt() time.Time { return u.updatedAt }

// SetPasswordHash replaces the password hash.
func (u *User) SetPasswordHash(hash string, now time.Time) error {
	if hash == "" {
		return fmt.Errorf("%w: password hash is required", shared.ErrValidation)
	}
	u.passwordHash = hash
	u.updatedAt = now
	return nil
}

// Rename updates the display name.
func (u *User) Rename(name string, now time.Time) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: name is required", shared.ErrValidation)
	}
	u.name = name
	u.updatedAt = now
	return nil
}
