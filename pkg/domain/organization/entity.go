// Package organization holds the organization aggregate, the middle
// tier of the System -> Organization -> Event hierarchy.
package organization

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/incidenthq/api/pkg/domain/shared"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// Organization groups events under one owning body.
type Organization struct {
	id        shared.ID
	name      string
	slug      string
	createdAt time.Time
	updatedAt time.Time
}

// New creates an organization.
func New(name, slug string, now time.Time) (*Organization, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: name is required", shared.ErrValidation)
	}
	if !slugPattern.MatchString(slug) {
		return nil, fmt.Errorf("%w: invalid slug %q", shared.ErrValidation, slug)
	}

	return &Organization{
		id:        shared.NewID(),
		name:      name,
		slug:      slug,
		createdAt: now,
		updatedAt: now,
	}, nil
}

// Reconstitute recreates an Organization from persistence.
func Reconstitute(id shared.ID, name, slug string, createdAt, updatedAt time.Time) *Organization {
	return &Organization{id: id, name: name, slug: slug, createdAt: createdAt, updatedAt: updatedAt}
}

// ID returns the organization ID.
func (o *Organization) ID() shared.ID { return o.id }

// Name returns the display name.
func (o *Organization) Name() string { return o.name }

// Slug returns the URL slug.
func (o *Organization) Slug() string { return o.slug }

// CreatedAt returns the creation timestamp.
func (o *Organization) CreatedAt() time.Time { return o.createdAt }

// UpdatedAt returns the last update timestamp.
func (o *Organization) UpdatedAt() time.Time { return o.updatedAt }
