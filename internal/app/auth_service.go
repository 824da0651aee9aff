package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"

	"github.com/incidenthq/api/internal/metrics"
	"github.com/incidenthq/api/pkg/domain/shared"
	"github.com/incidenthq/api/pkg/domain/user"
	"github.com/incidenthq/api/pkg/jwt"
	"github.com/incidenthq/api/pkg/logger"
	"github.com/incidenthq/api/pkg/password"
)

// RateLimiter is the sliding-window limiter used to throttle abuse
// prone operations. Injected so callers control the backing store.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// ResetTokenStore holds single-use password reset tokens.
type ResetTokenStore interface {
	StoreResetToken(ctx context.Context, token string, userID shared.ID, ttl time.Duration) error
	// ConsumeResetToken returns the user the token was issued for and
	// invalidates it. Unknown or expired tokens return ErrNotFound.
	ConsumeResetToken(ctx context.Context, token string) (shared.ID, error)
}

// ResetEmailEnqueuer queues password reset emails for delivery.
type ResetEmailEnqueuer interface {
	EnqueuePasswordResetEmail(ctx context.Context, payload PasswordResetEmailPayload) error
}

// PasswordResetEmailPayload carries everything the email worker needs
// to send a password reset email.
type PasswordResetEmailPayload struct {
	UserID      string `json:"user_id"`
	Email       string `json:"email"`
	UserName    string `json:"user_name"`
	ResetURL    string `json:"reset_url"`
	ExpiresIn   string `json:"expires_in"`
	RequestedAt string `json:"requested_at"`
}

// AuthConfig holds the auth service's tunables.
type AuthConfig struct {
	BaseURL              string
	ResetTokenTTL        time.Duration
	PasswordResetPerHour int
}

// AuthService handles login, token refresh and password management.
type AuthService struct {
	userRepo    user.Repository
	tokens      *jwt.Generator
	hasher      *password.Hasher
	rateLimiter RateLimiter
	resetStore  ResetTokenStore
	enqueuer    ResetEmailEnqueuer
	cfg         AuthConfig
	clock       shared.Clock
	logger      *logger.Logger
}

// NewAuthService creates a new AuthService.
func NewAuthService(
	userRepo user.Repository,
	tokens *jwt.Generator,
	hasher *password.Hasher,
	rateLimiter RateLimiter,
	resetStore ResetTokenStore,
	enqueuer ResetEmailEnqueuer,
	cfg AuthConfig,
	clock shared.Clock,
	log *logger.Logger,
) *AuthService {
	if cfg.ResetTokenTTL == 0 {
		cfg.ResetTokenTTL = time.Hour
	}
	if cfg.PasswordResetPerHour == 0 {
		cfg.PasswordResetPerHour = 3
	}
	return &AuthService{
		userRepo:    userRepo,
		tokens:      tokens,
		hasher:      hasher,
		rateLimiter: rateLimiter,
		resetStore:  resetStore,
		enqueuer:    enqueuer,
		cfg:         cfg,
		clock:       clock,
		logger:      log.With("service", "auth"),
	}
}

// LoginInput represents the input for a login attempt.
type LoginInput struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required"`
}

// LoginResult holds the tokens issued on successful login.
type LoginResult struct {
	User      *user.User
	TokenPair *jwt.TokenPair
}

// Login authenticates a user by email and password.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	u, err := s.userRepo.GetByEmail(ctx, normalizeEmail(input.Email))
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			metrics.LoginAttemptsTotal.WithLabelValues("invalid_credentials").Inc()
			return nil, shared.ErrUnauthorized
		}
		return nil, err
	}

	if err := s.hasher.Verify(input.Password, u.PasswordHash()); err != nil {
		metrics.LoginAttemptsTotal.WithLabelValues("invalid_credentials").Inc()
		return nil, shared.ErrUnauthorized
	}

	pair, err := s.tokens.GenerateTokenPair(u.ID().String(), u.Email(), u.Name())
	if err != nil {
		return nil, fmt.Errorf("failed to generate tokens: %w", err)
	}

	metrics.LoginAttemptsTotal.WithLabelValues("success").Inc()
	s.logger.Info("user logged in", "user_id", u.ID().String())

	return &LoginResult{User: u, TokenPair: pair}, nil
}

// Refresh exchanges a valid refresh token for a new token pair.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*LoginResult, error) {
	claims, err := s.tokens.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, shared.ErrUnauthorized
	}

	userID, err := shared.IDFromString(claims.UserID)
	if err != nil {
		return nil, shared.ErrUnauthorized
	}

	u, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.ErrUnauthorized
		}
		return nil, err
	}

	pair, err := s.tokens.GenerateTokenPair(u.ID().String(), u.Email(), u.Name())
	if err != nil {
		return nil, fmt.Errorf("failed to generate tokens: %w", err)
	}

	return &LoginResult{User: u, TokenPair: pair}, nil
}

// RequestPasswordReset issues a reset token and queues the reset email.
// The operation is rate limited per target account and never reveals
// whether the email belongs to a registered user.
func (s *AuthService) RequestPasswordReset(ctx context.Context, rawEmail string) error {
	addr := normalizeEmail(rawEmail)
	if addr == "" || !strings.Contains(addr, "@") {
		return fmt.Errorf("%w: valid email is required", shared.ErrValidation)
	}

	allowed, err := s.rateLimiter.Allow(ctx, "pwreset:"+addr, s.cfg.PasswordResetPerHour, time.Hour)
	if err != nil {
		// Limiter outages fail open; the token TTL still bounds abuse.
		s.logger.WithError(err).Warn("password reset rate limiter unavailable")
	} else if !allowed {
		metrics.PasswordResetRequestsTotal.WithLabelValues("rate_limited").Inc()
		return shared.ErrTooManyRequests
	}

	u, err := s.userRepo.GetByEmail(ctx, addr)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			// Do not leak which addresses exist.
			metrics.PasswordResetRequestsTotal.WithLabelValues("unknown_email").Inc()
			return nil
		}
		return err
	}

	token, err := password.GenerateResetToken()
	if err != nil {
		return fmt.Errorf("failed to generate reset token: %w", err)
	}

	if err := s.resetStore.StoreResetToken(ctx, token, u.ID(), s.cfg.ResetTokenTTL); err != nil {
		return fmt.Errorf("failed to store reset token: %w", err)
	}

	payload := PasswordResetEmailPayload{
		UserID:      u.ID().String(),
		Email:       u.Email(),
		UserName:    u.Name(),
		ResetURL:    fmt.Sprintf("%s/reset-password?token=%s", s.cfg.BaseURL, token),
		ExpiresIn:   s.cfg.ResetTokenTTL.String(),
		RequestedAt: s.clock.Now().Format(time.RFC1123),
	}
	if s.enqueuer != nil {
		if err := s.enqueuer.EnqueuePasswordResetEmail(ctx, payload); err != nil {
			s.logger.WithError(err).Error("failed to enqueue reset email", "user_id", u.ID().String())
		}
	}

	metrics.PasswordResetRequestsTotal.WithLabelValues("issued").Inc()
	s.logger.Info("password reset requested", "user_id", u.ID().String())
	return nil
}

// ResetPasswordInput represents the input for completing a reset.
type ResetPasswordInput struct {
	Token       string `validate:"required"`
	NewPassword string `validate:"required"`
}

// ResetPassword consumes a reset token and sets the new password.
func (s *AuthService) ResetPassword(ctx context.Context, input ResetPasswordInput) error {
	if err := s.hasher.Validate(input.NewPassword); err != nil {
		return fmt.Errorf("%w: %w", shared.ErrValidation, err)
	}

	userID, err := s.resetStore.ConsumeResetToken(ctx, input.Token)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return shared.ErrUnauthorized
		}
		return err
	}

	u, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	hash, err := s.hasher.Hash(input.NewPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if err := u.SetPasswordHash(hash, s.clock.Now()); err != nil {
		return err
	}

	if err := s.userRepo.Update(ctx, u); err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}

	s.logger.Info("password reset completed", "user_id", u.ID().String())
	return nil
}

// ChangePasswordInput represents the input for changing a password.
type ChangePasswordInput struct {
	CurrentPassword string `validate:"required"`
	NewPassword     string `validate:"required"`
}

// ChangePassword changes the password of an authenticated user.
func (s *AuthService) ChangePassword(ctx context.Context, userID shared.ID, input ChangePasswordInput) error {
	u, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	if err := s.hasher.Verify(input.CurrentPassword, u.PasswordHash()); err != nil {
		return shared.ErrUnauthorized
	}

	if err := s.hasher.Validate(input.NewPassword); err != nil {
		return fmt.Errorf("%w: %w", shared.ErrValidation, err)
	}

	hash, err := s.hasher.Hash(input.NewPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if err := u.SetPasswordHash(hash, s.clock.Now()); err != nil {
		return err
	}

	if err := s.userRepo.Update(ctx, u); err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}

	s.logger.Info("password changed", "user_id", userID.String())
	return nil
}

// normalizeEmail canonicalizes an email address for lookups and
// rate-limit keys: Unicode NFKC, lowercased, trimmed. Visually
// identical addresses collapse to one limiter key.
func normalizeEmail(addr string) string {
	return user.NormalizeEmail(norm.NFKC.String(addr))
}
