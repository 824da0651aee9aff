package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/incidenthq/api/pkg/domain/shared"
	"github.com/incidenthq/api/pkg/logger"
	"github.com/incidenthq/api/pkg/password"
)

func newUserService() (*UserService, *memUserRepo) {
	clock := shared.FixedClock{T: time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)}
	repo := newMemUserRepo()
	hasher := password.New(password.WithCost(bcrypt.MinCost))
	return NewUserService(repo, hasher, clock, logger.NewNop()), repo
}

func TestRegister(t *testing.T) {
	ctx := context.Background()

	t.Run("creates user with normalized email", func(t *testing.T) {
		svc, _ := newUserService()

		u, err := svc.Register(ctx, RegisterInput{
			Email:    " Dana@Example.COM ",
			Name:     "Dana",
			Password: "Sup3rSecret",
		})

		require.NoError(t, err)
		assert.Equal(t, "dana@example.com", u.Email())
	})

	t.Run("duplicate email rejected", func(t *testing.T) {
		svc, _ := newUserService()

		_, err := svc.Register(ctx, RegisterInput{Email: "dana@example.com", Name: "Dana", Password: "Sup3rSecret"})
		require.NoError(t, err)

		_, err = svc.Register(ctx, RegisterInput{Email: "DANA@example.com", Name: "Other", Password: "Sup3rSecret"})
		assert.ErrorIs(t, err, shared.ErrAlreadyExists)
	})

	t.Run("weak password rejected", func(t *testing.T) {
		svc, _ := newUserService()

		_, err := svc.Register(ctx, RegisterInput{Email: "dana@example.com", Name: "Dana", Password: "short"})
		assert.ErrorIs(t, err, shared.ErrValidation)
	})
}

func TestRename(t *testing.T) {
	ctx := context.Background()
	svc, _ := newUserService()

	u, err := svc.Register(ctx, RegisterInput{Email: "dana@example.com", Name: "Dana", Password: "Sup3rSecret"})
	require.NoError(t, err)

	renamed, err := svc.Rename(ctx, u.ID(), RenameInput{Name: "Dana Q."})
	require.NoError(t, err)
	assert.Equal(t, "Dana Q.", renamed.Name())

	_, err = svc.Rename(ctx, u.ID(), RenameInput{Name: "   "})
	assert.ErrorIs(t, err, shared.ErrValidation)
}
