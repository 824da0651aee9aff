package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/incidenthq/api/pkg/domain/shared"
	"github.com/incidenthq/api/pkg/domain/user"
	"github.com/incidenthq/api/pkg/jwt"
	"github.com/incidenthq/api/pkg/logger"
	"github.com/incidenthq/api/pkg/password"
)

type authFixture struct {
	svc      *AuthService
	users    *memUserRepo
	limiter  *fakeLimiter
	store    *memResetStore
	enqueuer *captureResetEnqueuer
	hasher   *password.Hasher

	userID shared.ID
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()

	clock := shared.FixedClock{T: time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)}
	f := &authFixture{
		users:    newMemUserRepo(),
		limiter:  &fakeLimiter{allow: true},
		store:    newMemResetStore(),
		enqueuer: &captureResetEnqueuer{},
		hasher:   password.New(password.WithCost(bcrypt.MinCost)),
	}

	hash, err := f.hasher.Hash("Sup3rSecret")
	require.NoError(t, err)
	u, err := user.New("casey@example.com", "Casey", hash, clock.Now())
	require.NoError(t, err)
	require.NoError(t, f.users.Create(context.Background(), u))
	f.userID = u.ID()

	tokens := jwt.NewGenerator(jwt.TokenConfig{
		Secret:               "test-secret-for-auth-service-tests",
		Issuer:               "incidenthq-test",
		AccessTokenDuration:  15 * time.Minute,
		RefreshTokenDuration: 24 * time.Hour,
	})

	f.svc = NewAuthService(
		f.users,
		tokens,
		f.hasher,
		f.limiter,
		f.store,
		f.enqueuer,
		AuthConfig{BaseURL: "https://app.example.com"},
		clock,
		logger.NewNop(),
	)
	return f
}

func TestLogin(t *testing.T) {
	ctx := context.Background()

	t.Run("valid credentials", func(t *testing.T) {
		f := newAuthFixture(t)

		result, err := f.svc.Login(ctx, LoginInput{Email: "casey@example.com", Password: "Sup3rSecret"})

		require.NoError(t, err)
		assert.True(t, result.User.ID().Equals(f.userID))
		assert.NotEmpty(t, result.TokenPair.AccessToken)
		assert.NotEmpty(t, result.TokenPair.RefreshToken)
	})

	t.Run("email is normalized before lookup", func(t *testing.T) {
		f := newAuthFixture(t)

		_, err := f.svc.Login(ctx, LoginInput{Email: "  CASEY@Example.COM ", Password: "Sup3rSecret"})

		require.NoError(t, err)
	})

	t.Run("wrong password", func(t *testing.T) {
		f := newAuthFixture(t)

		_, err := f.svc.Login(ctx, LoginInput{Email: "casey@example.com", Password: "wrong"})

		assert.ErrorIs(t, err, shared.ErrUnauthorized)
	})

	t.Run("unknown email", func(t *testing.T) {
		f := newAuthFixture(t)

		_, err := f.svc.Login(ctx, LoginInput{Email: "nobody@example.com", Password: "Sup3rSecret"})

		assert.ErrorIs(t, err, shared.ErrUnauthorized)
	})
}

func TestRefresh(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t)

	result, err := f.svc.Login(ctx, LoginInput{Email: "casey@example.com", Password: "Sup3rSecret"})
	require.NoError(t, err)

	t.Run("valid refresh token", func(t *testing.T) {
		refreshed, err := f.svc.Refresh(ctx, result.TokenPair.RefreshToken)
		require.NoError(t, err)
		assert.True(t, refreshed.User.ID().Equals(f.userID))
	})

	t.Run("access token rejected as refresh token", func(t *testing.T) {
		_, err := f.svc.Refresh(ctx, result.TokenPair.AccessToken)
		assert.ErrorIs(t, err, shared.ErrUnauthorized)
	})

	t.Run("garbage token", func(t *testing.T) {
		_, err := f.svc.Refresh(ctx, "not-a-token")
		assert.ErrorIs(t, err, shared.ErrUnauthorized)
	})
}

func TestRequestPasswordReset(t *testing.T) {
	ctx := context.Background()

	t.Run("issues token and queues email", func(t *testing.T) {
		f := newAuthFixture(t)

		err := f.svc.RequestPasswordReset(ctx, "casey@example.com")

		require.NoError(t, err)
		require.Len(t, f.enqueuer.payloads, 1)
		assert.Contains(t, f.enqueuer.payloads[0].ResetURL, "https://app.example.com/reset-password?token=")
		assert.Len(t, f.store.tokens, 1)
	})

	t.Run("rate limit key is the normalized email", func(t *testing.T) {
		f := newAuthFixture(t)

		require.NoError(t, f.svc.RequestPasswordReset(ctx, " Casey@EXAMPLE.com "))

		require.Len(t, f.limiter.keys, 1)
		assert.Equal(t, "pwreset:casey@example.com", f.limiter.keys[0])
	})

	t.Run("rate limited", func(t *testing.T) {
		f := newAuthFixture(t)
		f.limiter.allow = false

		err := f.svc.RequestPasswordReset(ctx, "casey@example.com")

		assert.ErrorIs(t, err, shared.ErrTooManyRequests)
		assert.Empty(t, f.enqueuer.payloads)
	})

	t.Run("limiter outage fails open", func(t *testing.T) {
		f := newAuthFixture(t)
		f.limiter.allow = false
		f.limiter.err = errors.New("redis down")

		err := f.svc.RequestPasswordReset(ctx, "casey@example.com")

		require.NoError(t, err)
		assert.Len(t, f.enqueuer.payloads, 1)
	})

	t.Run("unknown email succeeds silently", func(t *testing.T) {
		f := newAuthFixture(t)

		err := f.svc.RequestPasswordReset(ctx, "stranger@example.com")

		require.NoError(t, err)
		assert.Empty(t, f.enqueuer.payloads)
		assert.Empty(t, f.store.tokens)
	})
}

func TestResetPassword(t *testing.T) {
	ctx := context.Background()

	t.Run("full round trip", func(t *testing.T) {
		f := newAuthFixture(t)
		require.NoError(t, f.svc.RequestPasswordReset(ctx, "casey@example.com"))

		var token string
		for tok := range f.store.tokens {
			token = tok
		}

		err := f.svc.ResetPassword(ctx, ResetPasswordInput{Token: token, NewPassword: "N3wPassword"})
		require.NoError(t, err)

		// Token is single use.
		err = f.svc.ResetPassword(ctx, ResetPasswordInput{Token: token, NewPassword: "An0therOne"})
		assert.ErrorIs(t, err, shared.ErrUnauthorized)

		_, err = f.svc.Login(ctx, LoginInput{Email: "casey@example.com", Password: "N3wPassword"})
		assert.NoError(t, err)
	})

	t.Run("weak password rejected before token consumption", func(t *testing.T) {
		f := newAuthFixture(t)
		require.NoError(t, f.svc.RequestPasswordReset(ctx, "casey@example.com"))

		err := f.svc.ResetPassword(ctx, ResetPasswordInput{Token: "whatever", NewPassword: "short"})

		assert.ErrorIs(t, err, shared.ErrValidation)
		assert.Len(t, f.store.tokens, 1)
	})

	t.Run("unknown token", func(t *testing.T) {
		f := newAuthFixture(t)

		err := f.svc.ResetPassword(ctx, ResetPasswordInput{Token: "bogus", NewPassword: "N3wPassword"})

		assert.ErrorIs(t, err, shared.ErrUnauthorized)
	})
}

func TestChangePassword(t *testing.T) {
	ctx := context.Background()

	t.Run("valid change", func(t *testing.T) {
		f := newAuthFixture(t)

		err := f.svc.ChangePassword(ctx, f.userID, ChangePasswordInput{
			CurrentPassword: "Sup3rSecret",
			NewPassword:     "N3wPassword",
		})
		require.NoError(t, err)

		_, err = f.svc.Login(ctx, LoginInput{Email: "casey@example.com", Password: "N3wPassword"})
		assert.NoError(t, err)
	})

	t.Run("wrong current password", func(t *testing.T) {
		f := newAuthFixture(t)

		err := f.svc.ChangePassword(ctx, f.userID, ChangePasswordInput{
			CurrentPassword: "wrong",
			NewPassword:     "N3wPassword",
		})
		assert.ErrorIs(t, err, shared.ErrUnauthorized)
	})
}
