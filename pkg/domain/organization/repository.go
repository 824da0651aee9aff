package organization

import (
	"context"

	"github.com/incidenthq/api/pkg/domain/shared"
)

// Repository persists organizations.
type Repository interface {
	Create(ctx context.Context, o *Organization) error
	GetByID(ctx context.Context, id shared.ID) (*Organization, error)
	GetBySlug(ctx context.Context, slug string) (*Organization, error)
	List(ctx context.Context) ([]*Organization, error)
}
