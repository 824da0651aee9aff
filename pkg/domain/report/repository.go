package report

import (
	"context"
	"time"

	"github.com/incidenthq/api/pkg/domain/shared"
)

// ListFilter narrows report listings.
type ListFilter struct {
	States     []State
	AssigneeID *shared.ID
	ReporterID *shared.ID
	Limit      int
	Offset     int
}

// Repository persists reports and their state history.
type Repository interface {
	Create(ctx context.Context, r *Report) error
	GetByID(ctx context.Context, id shared.ID) (*Report, error)
	ListByEvent(ctx context.Context, eventID shared.ID, filter ListFilter) ([]*Report, error)

	// Update persists descriptive-field changes without a state
	// precondition (title, description, severity).
	Update(ctx context.Context, r *Report) error

	// UpdateWithPrecondition persists a state or assignment change only
	// if the stored row still matches the expected prior state and
	// updated_at. Returns shared.ErrConflict when the precondition fails,
	// so the loser of a concurrent transition race never silently
	// overwrites the winner.
	UpdateWithPrecondition(ctx context.Context, r *Report, expectedState State, expectedUpdatedAt time.Time) error

	AppendStateChange(ctx context.Context, change *StateChange) error
	ListStateHistory(ctx context.Context, reportID shared.ID) ([]*StateChange, error)
}

// CommentRepository persists report comments.
type CommentRepository interface {
	Create(ctx context.Context, c *Comment) error
	GetByID(ctx context.Context, id shared.ID) (*Comment, error)
	ListByReport(ctx context.Context, reportID shared.ID) ([]*Comment, error)
	Update(ctx context.Context, c *Comment) error
	Delete(ctx context.Context, id shared.ID) error
}

// EvidenceRepository persists evidence files.
type EvidenceRepository interface {
	Create(ctx context.Context, f *EvidenceFile) error
	// GetByID loads metadata and bytes.
	GetByID(ctx context.Context, id shared.ID) (*EvidenceFile, error)
	// ListByReport loads metadata only.
	ListByReport(ctx context.Context, reportID shared.ID) ([]*EvidenceFile, error)
	Delete(ctx context.Context, id shared.ID) error
}
