package event

import (
	"context"

	"github.com/incidenthq/api/pkg/domain/shared"
)

// Repository persists events.
type Repository interface {
	Create(ctx context.Context, e *Event) error
	GetByID(ctx context.Context, id shared.ID) (*Event, error)
	GetBySlug(ctx context.Context, organizationID shared.ID, slug string) (*Event, error)
	ListByOrganization(ctx context.Context, organizationID shared.ID) ([]*Event, error)
}
