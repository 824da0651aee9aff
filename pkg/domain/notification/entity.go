package notification

import (
	"fmt"
	"time"

	"github.com/incidenthq/api/pkg/domain/shared"
)

// Notification is a per-recipient record created by the dispatcher.
// Read-state changes happen outside the engine.
type Notification struct {
	id               shared.ID
	userID           shared.ID
	notificationType Type
	priority         Priority
	title            string
	message          string
	eventID          *shared.ID
	reportID         *shared.ID
	isRead           bool
	createdAt        time.Time
}

// New creates a notification record.
func New(userID shared.ID, t Type, title, message string, eventID, reportID *shared.ID, now time.Time) (*Notification, error) {
	if userID.IsZero() {
		return nil, fmt.Errorf("%w: user ID is required", shared.ErrValidation)
	}
	if !t.IsValid() {
		return nil, fmt.Errorf("%w: invalid notification type", shared.ErrValidation)
	}
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", shared.ErrValidation)
	}

	return &Notification{
		id:               shared.NewID(),
		userID:           userID,
		notificationType: t,
		priority:         PriorityFor(t),
		title:            title,
		message:          message,
		eventID:          eventID,
		reportID:         reportID,
		createdAt:        now,
	}, nil
}

// Reconstitute recreates a Notification from persistence.
func Reconstitute(id, userID shared.ID, t Type, priority Priority, title, message string, eventID, reportID *shared.ID, isRead bool, createdAt time.Time) *Notification {
	return &Notification{
		id:               id,
		userID:           userID,
		notificationType: t,
		priority:         priority,
		title:            title,
		message:          message,
		eventID:          eventID,
		reportID:         reportID,
		isRead:           isRead,
		createdAt:        createdAt,
	}
}

// ID returns the notification ID.
func (n *Notification) ID() shared.ID { return n.id }

// UserID returns the recipient's user ID.
func (n *Notification) UserID() shared.ID { return n.userID }

// Type returns the canonical notification type.
func (n *Notification) Type() Type { return n.notificationType }

// Priority returns the display priority.
func (n *Notification) Priority() Priority { return n.priority }

// Title returns the notification title.
func (n *Notification) Title() string { return n.title }

// Message returns the notification body.
func (n *Notification) Message() string { return n.message }

// EventID returns the related event's ID if any.
func (n *Notification) EventID() *shared.ID { return n.eventID }

// ReportID returns the related report's ID if any.
func (n *Notification) ReportID() *shared.ID { return n.reportID }

// IsRead reports whether the recipient has read the notification.
func (n *Notification) IsRead() bool { return n.isRead }

// MarkRead flips the read flag.
func (n *Notification) MarkRead() { n.isRead = true }

// CreatedAt returns the creation timestamp.
func (n *Notification) CreatedAt() time.Time { return n.createdAt }
