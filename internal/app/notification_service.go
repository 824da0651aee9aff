package app

import (
	"context"
	"fmt"
	"time"

	"github.com/incidenthq/api/internal/metrics"
	"github.com/incidenthq/api/pkg/domain/notification"
	"github.com/incidenthq/api/pkg/domain/shared"
	"github.com/incidenthq/api/pkg/logger"
)

// NotificationService handles the user-facing notification inbox.
type NotificationService struct {
	notificationRepo notification.Repository
	settingsRepo     notification.SettingsRepository
	clock            shared.Clock
	logger           *logger.Logger
}

// NewNotificationService creates a new NotificationService.
func NewNotificationService(
	notificationRepo notification.Repository,
	settingsRepo notification.SettingsRepository,
	clock shared.Clock,
	log *logger.Logger,
) *NotificationService {
	return &NotificationService{
		notificationRepo: notificationRepo,
		settingsRepo:     settingsRepo,
		clock:            clock,
		logger:           log.With("service", "notification"),
	}
}

// ListNotificationsInput represents the input for listing notifications.
type ListNotificationsInput struct {
	UnreadOnly bool
	Limit      int `validate:"omitempty,min=1,max=200"`
	Offset     int `validate:"omitempty,min=0"`
}

// ListNotifications returns the user's notifications, newest first.
func (s *NotificationService) ListNotifications(ctx context.Context, userID shared.ID, input ListNotificationsInput) ([]*notification.Notification, error) {
	limit := input.Limit
	if limit == 0 {
		limit = 50
	}
	return s.notificationRepo.ListByUser(ctx, userID, input.UnreadOnly, limit, input.Offset)
}

// CountUnread returns the user's unread notification count.
func (s *NotificationService) CountUnread(ctx context.Context, userID shared.ID) (int, error) {
	return s.notificationRepo.CountUnread(ctx, userID)
}

// MarkRead marks one of the user's notifications as read. Marking
// another user's notification is rejected as not found.
func (s *NotificationService) MarkRead(ctx context.Context, userID shared.ID, notificationID string) error {
	id, err := shared.IDFromString(notificationID)
	if err != nil {
		return fmt.Errorf("%w: invalid notification id format", shared.ErrValidation)
	}

	n, err := s.notificationRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !n.UserID().Equals(userID) {
		return shared.ErrNotFound
	}

	return s.notificationRepo.MarkRead(ctx, id)
}

// GetSettings returns the user's notification settings, creating the
// defaults (all emails enabled) on first access.
func (s *NotificationService) GetSettings(ctx context.Context, userID shared.ID) (*notification.Settings, error) {
	return s.settingsRepo.GetOrCreate(ctx, userID)
}

// UpdateSettingsInput holds per-type email flags. Nil entries leave
// the current value untouched.
type UpdateSettingsInput struct {
	EmailOnSubmitted     *bool
	EmailOnAssigned      *bool
	EmailOnStatusChanged *bool
	EmailOnCommentAdded  *bool
}

// UpdateSettings updates the user's notification settings.
func (s *NotificationService) UpdateSettings(ctx context.Context, userID shared.ID, input UpdateSettingsInput) (*notification.Settings, error) {
	settings, err := s.settingsRepo.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	if input.EmailOnSubmitted != nil {
		settings.SetEmailEnabled(notification.TypeReportSubmitted, *input.EmailOnSubmitted, now)
	}
	if input.EmailOnAssigned != nil {
		settings.SetEmailEnabled(notification.TypeReportAssigned, *input.EmailOnAssigned, now)
	}
	if input.EmailOnStatusChanged != nil {
		settings.SetEmailEnabled(notification.TypeReportStatusChanged, *input.EmailOnStatusChanged, now)
	}
	if input.EmailOnCommentAdded != nil {
		settings.SetEmailEnabled(notification.TypeReportCommentAdded, *input.EmailOnCommentAdded, now)
	}

	if err := s.settingsRepo.Update(ctx, settings); err != nil {
		return nil, fmt.Errorf("failed to update settings: %w", err)
	}

	s.logger.Info("notification settings updated", "user_id", userID.String())
	return settings, nil
}

// PurgeReadBefore deletes read notifications created before the
// cutoff. Run by the retention scheduler.
func (s *NotificationService) PurgeReadBefore(ctx context.Context, retention time.Duration) (int64, error) {
	cutoff := s.clock.Now().Add(-retention)
	deleted, err := s.notificationRepo.DeleteReadBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to purge notifications: %w", err)
	}
	if deleted > 0 {
		metrics.NotificationsPurgedTotal.Add(float64(deleted))
		s.logger.Info("purged read notifications", "deleted", deleted, "cutoff", cutoff)
	}
	return deleted, nil
}
