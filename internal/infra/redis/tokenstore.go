package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/incidenthq/api/pkg/crypto"
	"github.com/incidenthq/api/pkg/domain/shared"
	"github.com/incidenthq/api/pkg/logger"
)

const prefixResetToken = "pwreset:token"

// ResetTokenStore holds single-use password reset tokens. Tokens are
// keyed by their SHA256 hash so the plaintext never reaches Redis, and
// expire automatically via TTLs; consuming a token deletes it so it
// can never be replayed.
type ResetTokenStore struct {
	client *Client
	logger *logger.Logger
}

// NewResetTokenStore creates a password reset token store.
func NewResetTokenStore(client *Client, log *logger.Logger) (*ResetTokenStore, error) {
	if client == nil {
		return nil, errors.New("redis client is required")
	}
	if log == nil {
		return nil, errors.New("logger is required")
	}

	return &ResetTokenStore{
		client: client,
		logger: log,
	}, nil
}

// StoreResetToken records a reset token for a user with the given TTL.
func (ts *ResetTokenStore) StoreResetToken(ctx context.Context, token string, userID shared.ID, ttl time.Duration) error {
	if token == "" {
		return errors.New("token is required")
	}
	if userID.IsZero() {
		return errors.New("userID is required")
	}
	if ttl <= 0 {
		return errors.New("TTL must be positive")
	}

	key := fmt.Sprintf("%s:%s", prefixResetToken, crypto.HashToken(token))
	if err := ts.client.client.Set(ctx, key, userID.String(), ttl).Err(); err != nil {
		return fmt.Errorf("store reset token: %w", err)
	}

	ts.logger.Debug("reset token stored", "user_id", userID, "ttl", ttl)
	return nil
}

// ConsumeResetToken returns the user a token was issued for and deletes
// it in the same operation. Unknown or expired tokens return
// shared.ErrNotFound.
func (ts *ResetTokenStore) ConsumeResetToken(ctx context.Context, token string) (shared.ID, error) {
	if token == "" {
		return shared.ID{}, errors.New("token is required")
	}

	key := fmt.Sprintf("%s:%s", prefixResetToken, crypto.HashToken(token))

	val, err := ts.client.client.GetDel(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return shared.ID{}, fmt.Errorf("%w: reset token", shared.ErrNotFound)
	}
	if err != nil {
		return shared.ID{}, fmt.Errorf("consume reset token: %w", err)
	}

	userID, err := shared.IDFromString(val)
	if err != nil {
		return shared.ID{}, fmt.Errorf("consume reset token: malformed user id: %w", err)
	}

	ts.logger.Debug("reset token consumed", "user_id", userID)
	return userID, nil
}
