package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/incidenthq/api/pkg/domain/notification"
	"github.com/incidenthq/api/pkg/domain/shared"
)

// NotificationSettingsRepository implements
// notification.SettingsRepository using PostgreSQL.
type NotificationSettingsRepository struct {
	db *DB
}

// NewNotificationSettingsRepository creates a new NotificationSettingsRepository.
func NewNotificationSettingsRepository(db *DB) *NotificationSettingsRepository {
	return &NotificationSettingsRepository{db: db}
}

// GetOrCreate returns the user's settings, materializing a defaults
// row (all emails enabled) when none exists yet. The insert is
// idempotent under concurrent first lookups.
func (r *NotificationSettingsRepository) GetOrCreate(ctx context.Context, userID shared.ID) (*notification.Settings, error) {
	query := `
		INSERT INTO notification_settings (user_id, email_on_submitted, email_on_assigned, email_on_status_changed, email_on_comment_added, updated_at)
		VALUES ($1, TRUE, TRUE, TRUE, TRUE, $2)
		ON CONFLICT (user_id) DO UPDATE SET user_id = EXCLUDED.user_id
		RETURNING user_id, email_on_submitted, email_on_assigned, email_on_status_changed, email_on_comment_added, updated_at
	`

	var (
		userIDStr                                  string
		submitted, assigned, statusChange, comment bool
		updatedAt                                  time.Time
	)
	err := r.db.QueryRowContext(ctx, query, userID.String(), time.Now().UTC()).Scan(
		&userIDStr, &submitted, &assigned, &statusChange, &comment, &updatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load notification settings: %w", err)
	}

	id, err := shared.IDFromString(userIDStr)
	if err != nil {
		return nil, fmt.Errorf("invalid user ID in database: %w", err)
	}

	return notification.ReconstituteSettings(id, submitted, assigned, statusChange, comment, updatedAt), nil
}

// Update persists changed settings flags.
func (r *NotificationSettingsRepository) Update(ctx context.Context, s *notification.Settings) error {
	query := `
		UPDATE notification_settings
		SET email_on_submitted = $2, email_on_assigned = $3, email_on_status_changed = $4, email_on_comment_added = $5, updated_at = $6
		WHERE user_id = $1
	`

	flags := s.Flags()
	result, err := r.db.ExecContext(ctx, query,
		s.UserID().String(),
		flags[notification.TypeReportSubmitted],
		flags[notification.TypeReportAssigned],
		flags[notification.TypeReportStatusChanged],
		flags[notification.TypeReportCommentAdded],
		s.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to update notification settings: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: notification settings for user %s", shared.ErrNotFound, s.UserID())
	}

	return nil
}
