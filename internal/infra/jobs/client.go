// Package jobs provides background job definitions and handlers using Asynq.
package jobs

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"

	"github.com/incidenthq/api/internal/app"
	"github.com/incidenthq/api/pkg/logger"
)

// Client manages enqueueing background jobs using Asynq. It satisfies
// the app layer's EmailEnqueuer and ResetEmailEnqueuer interfaces.
type Client struct {
	client *asynq.Client
	logger *logger.Logger
}

// ClientConfig contains configuration for the job client.
type ClientConfig struct {
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// NewClient creates a new job client for enqueueing tasks.
func NewClient(cfg ClientConfig, log *logger.Logger) (*Client, error) {
	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}

	client := asynq.NewClient(redisOpt)

	return &Client{
		client: client,
		logger: log.With("component", "job_client"),
	}, nil
}

// Close closes the client connection.
func (c *Client) Close() error {
	return c.client.Close()
}

// EnqueueNotificationEmail enqueues a notification email job.
func (c *Client) EnqueueNotificationEmail(ctx context.Context, payload app.NotificationEmailPayload) error {
	task, err := NewNotificationEmailTask(payload)
	if err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}

	info, err := c.client.EnqueueContext(ctx, task)
	if err != nil {
		c.logger.Error("failed to enqueue notification email",
			"email", payload.Email,
			"type", payload.Type,
			"error", err,
		)
		return fmt.Errorf("failed to enqueue task: %w", err)
	}

	c.logger.Info("notification email queued",
		"task_id", info.ID,
		"email", payload.Email,
		"type", payload.Type,
		"queue", info.Queue,
	)
	return nil
}

// EnqueuePasswordResetEmail enqueues a password reset email job.
func (c *Client) EnqueuePasswordResetEmail(ctx context.Context, payload app.PasswordResetEmailPayload) error {
	task, err := NewPasswordResetEmailTask(payload)
	if err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}

	info, err := c.client.EnqueueContext(ctx, task)
	if err != nil {
		c.logger.Error("failed to enqueue password reset email",
			"email", payload.Email,
			"error", err,
		)
		return fmt.Errorf("failed to enqueue task: %w", err)
	}

	c.logger.Info("password reset email queued",
		"task_id", info.ID,
		"email", payload.Email,
		"queue", info.Queue,
	)
	return nil
}
