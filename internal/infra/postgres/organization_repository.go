package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/incidenthq/api/pkg/domain/organization"
	"github.com/incidenthq/api/pkg/domain/shared"
)

const organizationColumns = `id, name, slug, created_at, updated_at`

// OrganizationRepository implements organization.Repository using PostgreSQL.
type OrganizationRepository struct {
	db *DB
}

// NewOrganizationRepository creates a new OrganizationRepository.
func NewOrganizationRepository(db *DB) *OrganizationRepository {
	return &OrganizationRepository{db: db}
}

// Create persists a new organization.
func (r *OrganizationRepository) Create(ctx context.Context, o *organization.Organization) error {
	query := `
		INSERT INTO organizations (id, name, slug, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.db.ExecContext(ctx, query,
		o.ID().String(),
		o.Name(),
		o.Slug(),
		o.CreatedAt(),
		o.UpdatedAt(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: organization slug %q", shared.ErrAlreadyExists, o.Slug())
		}
		return fmt.Errorf("failed to create organization: %w", err)
	}

	return nil
}

// GetByID retrieves an organization by ID.
func (r *OrganizationRepository) GetByID(ctx context.Context, id shared.ID) (*organization.Organization, error) {
	query := fmt.Sprintf(`SELECT %s FROM organizations WHERE id = $1`, organizationColumns)

	o, err := r.scanOrganization(r.db.QueryRowContext(ctx, query, id.String()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: organization %s", shared.ErrNotFound, id)
		}
		return nil, err
	}

	return o, nil
}

// GetBySlug retrieves an organization by slug.
func (r *OrganizationRepository) GetBySlug(ctx context.Context, slug string) (*organization.Organization, error) {
	query := fmt.Sprintf(`SELECT %s FROM organizations WHERE slug = $1`, organizationColumns)

	o, err := r.scanOrganization(r.db.QueryRowContext(ctx, query, slug))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: organization %q", shared.ErrNotFound, slug)
		}
		return nil, err
	}

	return o, nil
}

// List returns all organizations ordered by name.
func (r *OrganizationRepository) List(ctx context.Context) ([]*organization.Organization, error) {
	query := fmt.Sprintf(`SELECT %s FROM organizations ORDER BY name`, organizationColumns)

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list organizations: %w", err)
	}
	defer rows.Close()

	var orgs []*organization.Organization
	for rows.Next() {
		o, err := r.scanOrganizationRows(rows)
		if err != nil {
			return nil, err
		}
		orgs = append(orgs, o)
	}

	return orgs, rows.Err()
}

func (r *OrganizationRepository) scanOrganization(row *sql.Row) (*organization.Organization, error) {
	var (
		idStr                string
		name, slug           string
		createdAt, updatedAt sql.NullTime
	)
	if err := row.Scan(&idStr, &name, &slug, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	return r.reconstitute(idStr, name, slug, createdAt, updatedAt)
}

func (r *OrganizationRepository) scanOrganizationRows(rows *sql.Rows) (*organization.Organization, error) {
	var (
		idStr                string
		name, slug           string
		createdAt, updatedAt sql.NullTime
	)
	if err := rows.Scan(&idStr, &name, &slug, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	return r.reconstitute(idStr, name, slug, createdAt, updatedAt)
}

func (r *OrganizationRepository) reconstitute(idStr, name, slug string, createdAt, updatedAt sql.NullTime) (*organization.Organization, error) {
	id, err := shared.IDFromString(idStr)
	if err != nil {
		return nil, fmt.Errorf("invalid organization ID in database: %w", err)
	}
	return organization.Reconstitute(id, name, slug, createdAt.Time, updatedAt.Time), nil
}
