package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/incidenthq/api/pkg/domain/notification"
	"github.com/incidenthq/api/pkg/domain/shared"
)

const notificationColumns = `id, user_id, type, priority, title, message, event_id, report_id, is_read, created_at`

// NotificationRepository implements notification.Repository using PostgreSQL.
type NotificationRepository struct {
	db *DB
}

// NewNotificationRepository creates a new NotificationRepository.
func NewNotificationRepository(db *DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// Create persists a new notification record.
func (r *NotificationRepository) Create(ctx context.Context, n *notification.Notification) error {
	query := `
		INSERT INTO notifications (id, user_id, type, priority, title, message, event_id, report_id, is_read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.db.ExecContext(ctx, query,
		n.ID().String(),
		n.UserID().String(),
		n.Type().String(),
		string(n.Priority()),
		n.Title(),
		n.Message(),
		nullID(n.EventID()),
		nullID(n.ReportID()),
		n.IsRead(),
		n.CreatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}

	return nil
}

// GetByID retrieves a notification by ID.
func (r *NotificationRepository) GetByID(ctx context.Context, id shared.ID) (*notification.Notification, error) {
	query := fmt.Sprintf(`SELECT %s FROM notifications WHERE id = $1`, notificationColumns)

	n, err := scanNotification(r.db.QueryRowContext(ctx, query, id.String()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: notification %s", shared.ErrNotFound, id)
		}
		return nil, err
	}

	return n, nil
}

// ListByUser returns the user's notifications, newest first.
func (r *NotificationRepository) ListByUser(ctx context.Context, userID shared.ID, unreadOnly bool, limit, offset int) ([]*notification.Notification, error) {
	query := fmt.Sprintf(`SELECT %s FROM notifications WHERE user_id = $1`, notificationColumns)
	if unreadOnly {
		query += ` AND is_read = FALSE`
	}
	query += ` ORDER BY created_at DESC LIMIT $2 OFFSET $3`

	rows, err := r.db.QueryContext(ctx, query, userID.String(), limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	var notifications []*notification.Notification
	for rows.Next() {
		n, err := scanNotificationRows(rows)
		if err != nil {
			return nil, err
		}
		notifications = append(notifications, n)
	}

	return notifications, rows.Err()
}

// CountUnread returns the user's unread notification count.
func (r *NotificationRepository) CountUnread(ctx context.Context, userID shared.ID) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND is_read = FALSE`,
		userID.String(),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}
	return count, nil
}

// MarkRead marks a notification as read.
func (r *NotificationRepository) MarkRead(ctx context.Context, id shared.ID) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE notifications SET is_read = TRUE WHERE id = $1`,
		id.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: notification %s", shared.ErrNotFound, id)
	}

	return nil
}

// DeleteReadBefore deletes read notifications created before the cutoff.
func (r *NotificationRepository) DeleteReadBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM notifications WHERE is_read = TRUE AND created_at < $1`,
		cutoff,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to purge notifications: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to check rows affected: %w", err)
	}
	return deleted, nil
}

type notificationRow struct {
	id, userID        string
	notifType         string
	priority          string
	title, message    string
	eventID, reportID sql.NullString
	isRead            bool
	createdAt         time.Time
}

func scanNotification(row *sql.Row) (*notification.Notification, error) {
	var nr notificationRow
	if err := row.Scan(&nr.id, &nr.userID, &nr.notifType, &nr.priority, &nr.title, &nr.message,
		&nr.eventID, &nr.reportID, &nr.isRead, &nr.createdAt); err != nil {
		return nil, err
	}
	return nr.toEntity()
}

func scanNotificationRows(rows *sql.Rows) (*notification.Notification, error) {
	var nr notificationRow
	if err := rows.Scan(&nr.id, &nr.userID, &nr.notifType, &nr.priority, &nr.title, &nr.message,
		&nr.eventID, &nr.reportID, &nr.isRead, &nr.createdAt); err != nil {
		return nil, err
	}
	return nr.toEntity()
}

func (nr notificationRow) toEntity() (*notification.Notification, error) {
	id, err := shared.IDFromString(nr.id)
	if err != nil {
		return nil, fmt.Errorf("invalid notification ID in database: %w", err)
	}
	userID, err := shared.IDFromString(nr.userID)
	if err != nil {
		return nil, fmt.Errorf("invalid user ID in database: %w", err)
	}

	// Stored types are canonical, but rows written by older versions may
	// carry legacy aliases.
	notifType, _ := notification.Normalize(nr.notifType)

	return notification.Reconstitute(
		id, userID, notifType,
		notification.Priority(nr.priority),
		nr.title, nr.message,
		parseNullID(nr.eventID), parseNullID(nr.reportID),
		nr.isRead, nr.createdAt,
	), nil
}
