package notification

import (
	"context"
	"time"

	"github.com/incidenthq/api/pkg/domain/shared"
)

// Repository persists notification records.
type Repository interface {
	Create(ctx context.Context, n *Notification) error
	GetByID(ctx context.Context, id shared.ID) (*Notification, error)
	ListByUser(ctx context.Context, userID shared.ID, unreadOnly bool, limit, offset int) ([]*Notification, error)
	CountUnread(ctx context.Context, userID shared.ID) (int, error)
	MarkRead(ctx context.Context, id shared.ID) error
	// DeleteReadBefore purges read notifications older than the cutoff.
	// Used by the retention job.
	DeleteReadBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// SettingsRepository persists per-user delivery preferences.
type SettingsRepository interface {
	// GetOrCreate returns the user's settings, materializing a defaults
	// row when none exists yet.
	GetOrCreate(ctx context.Context, userID shared.ID) (*Settings, error)
	Update(ctx context.Context, s *Settings) error
}
