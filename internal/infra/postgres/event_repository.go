package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/incidenthq/api/pkg/domain/event"
	"github.com/incidenthq/api/pkg/domain/shared"
)

const eventColumns = `id, organization_id, name, slug, starts_at, ends_at, created_at, updated_at`

// EventRepository implements event.Repository using PostgreSQL.
type EventRepository struct {
	db *DB
}

// NewEventRepository creates a new EventRepository.
func NewEventRepository(db *DB) *EventRepository {
	return &EventRepository{db: db}
}

// Create persists a new event.
func (r *EventRepository) Create(ctx context.Context, e *event.Event) error {
	query := `
		INSERT INTO events (id, organization_id, name, slug, starts_at, ends_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.db.ExecContext(ctx, query,
		e.ID().String(),
		e.OrganizationID().String(),
		e.Name(),
		e.Slug(),
		nullTime(e.StartsAt()),
		nullTime(e.EndsAt()),
		e.CreatedAt(),
		e.UpdatedAt(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: event slug %q", shared.ErrAlreadyExists, e.Slug())
		}
		return fmt.Errorf("failed to create event: %w", err)
	}

	return nil
}

// GetByID retrieves an event by ID.
func (r *EventRepository) GetByID(ctx context.Context, id shared.ID) (*event.Event, error) {
	query := fmt.Sprintf(`SELECT %s FROM events WHERE id = $1`, eventColumns)

	e, err := scanEvent(r.db.QueryRowContext(ctx, query, id.String()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: event %s", shared.ErrNotFound, id)
		}
		return nil, err
	}

	return e, nil
}

// GetBySlug retrieves an event by organization and slug.
func (r *EventRepository) GetBySlug(ctx context.Context, orgID shared.ID, slug string) (*event.Event, error) {
	query := fmt.Sprintf(`SELECT %s FROM events WHERE organization_id = $1 AND slug = $2`, eventColumns)

	e, err := scanEvent(r.db.QueryRowContext(ctx, query, orgID.String(), slug))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: event %q", shared.ErrNotFound, slug)
		}
		return nil, err
	}

	return e, nil
}

// ListByOrganization returns the organization's events, newest first.
func (r *EventRepository) ListByOrganization(ctx context.Context, orgID shared.ID) ([]*event.Event, error) {
	query := fmt.Sprintf(`SELECT %s FROM events WHERE organization_id = $1 ORDER BY created_at DESC`, eventColumns)

	rows, err := r.db.QueryContext(ctx, query, orgID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	defer rows.Close()

	var events []*event.Event
	for rows.Next() {
		e, err := scanEventRows(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}

	return events, rows.Err()
}

type eventRow struct {
	id, orgID            string
	name, slug           string
	startsAt, endsAt     sql.NullTime
	createdAt, updatedAt sql.NullTime
}

func scanEvent(row *sql.Row) (*event.Event, error) {
	var er eventRow
	if err := row.Scan(&er.id, &er.orgID, &er.name, &er.slug, &er.startsAt, &er.endsAt, &er.createdAt, &er.updatedAt); err != nil {
		return nil, err
	}
	return er.toEntity()
}

func scanEventRows(rows *sql.Rows) (*event.Event, error) {
	var er eventRow
	if err := rows.Scan(&er.id, &er.orgID, &er.name, &er.slug, &er.startsAt, &er.endsAt, &er.createdAt, &er.updatedAt); err != nil {
		return nil, err
	}
	return er.toEntity()
}

func (er eventRow) toEntity() (*event.Event, error) {
	id, err := shared.IDFromString(er.id)
	if err != nil {
		return nil, fmt.Errorf("invalid event ID in database: %w", err)
	}
	orgID, err := shared.IDFromString(er.orgID)
	if err != nil {
		return nil, fmt.Errorf("invalid organization ID in database: %w", err)
	}
	return event.Reconstitute(
		id, orgID, er.name, er.slug,
		nullTimeValue(er.startsAt), nullTimeValue(er.endsAt),
		er.createdAt.Time, er.updatedAt.Time,
	), nil
}
