package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/incidenthq/api/pkg/logger"
)

// allowScript checks and consumes one request slot atomically. The
// sliding window log keeps individual request timestamps in a sorted
// set, so limits stay accurate across multiple API instances.
var allowScript = redis.NewScript(`
	local key = KEYS[1]
	local now = tonumber(ARGV[1])
	local window_start = tonumber(ARGV[2])
	local window_ms = tonumber(ARGV[3])
	local limit = tonumber(ARGV[4])
	local request_id = ARGV[5]

	-- Remove expired entries
	redis.call('ZREMRANGEBYSCORE', key, '-inf', window_start)

	-- Count current requests
	local count = redis.call('ZCARD', key)

	if count < limit then
		redis.call('ZADD', key, now, request_id)
		redis.call('PEXPIRE', key, window_ms)
		return 1
	end
	return 0
`)

// RateLimiter implements distributed sliding-window rate limiting on
// Redis sorted sets. It satisfies the app layer's RateLimiter contract:
// the limit and window travel with each call so different operations
// can share one limiter with different budgets.
type RateLimiter struct {
	client    *Client
	keyPrefix string
	logger    *logger.Logger
}

// NewRateLimiter creates a distributed rate limiter. The prefix
// namespaces all keys (e.g. "ratelimit").
func NewRateLimiter(client *Client, prefix string, log *logger.Logger) (*RateLimiter, error) {
	if client == nil {
		return nil, errors.New("redis client is required")
	}
	if prefix == "" {
		return nil, errors.New("key prefix is required")
	}
	if log == nil {
		return nil, errors.New("logger is required")
	}

	return &RateLimiter{
		client:    client,
		keyPrefix: prefix,
		logger:    log,
	}, nil
}

// Allow reports whether one more request is permitted under the given
// key and consumes a slot if so. Safe for concurrent use; the Lua
// script makes the check-and-record atomic.
func (rl *RateLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	if key == "" {
		return false, errors.New("key is required")
	}
	if limit <= 0 {
		return false, errors.New("limit must be positive")
	}
	if window <= 0 {
		return false, errors.New("window must be positive")
	}

	fullKey := fmt.Sprintf("%s:%s", rl.keyPrefix, key)
	now := time.Now()
	windowStart := now.Add(-window)

	result, err := allowScript.Run(ctx, rl.client.client, []string{fullKey},
		now.UnixMilli(), windowStart.UnixMilli(), window.Milliseconds(), limit,
		uuid.New().String()).Int64()
	if err != nil {
		return false, fmt.Errorf("rate limit check: %w", err)
	}

	allowed := result == 1
	if !allowed {
		rl.logger.Debug("rate limit exceeded", "key", key, "limit", limit, "window", window)
	}
	return allowed, nil
}

// Reset removes the rate limit state for a key, allowing immediate
// access. Use with caution as this bypasses rate limiting protections.
func (rl *RateLimiter) Reset(ctx context.Context, key string) error {
	if key == "" {
		return errors.New("key is required")
	}

	fullKey := fmt.Sprintf("%s:%s", rl.keyPrefix, key)
	if err := rl.client.client.Del(ctx, fullKey).Err(); err != nil {
		return fmt.Errorf("rate limit reset: %w", err)
	}

	rl.logger.Debug("rate limit reset", "key", key)
	return nil
}
