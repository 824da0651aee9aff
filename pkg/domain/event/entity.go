// Package event holds the event aggregate. An event is the scope in
// which reports are filed and event-level roles are granted.
package event

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/incidenthq/api/pkg/domain/shared"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// Event is a conference or gathering run by an organization.
type Event struct {
	id             shared.ID
	organizationID shared.ID
	name           string
	slug           string
	startsAt       *time.Time
	endsAt         *time.Time
	createdAt      time.Time
	updatedAt      time.Time
}

// New creates an event under an organization.
func New(organizationID shared.ID, name, slug string, now time.Time) (*Event, error) {
	if organizationID.IsZero() {
		return nil, fmt.Errorf("%w: organization ID is required", shared.ErrValidation)
	}
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: name is required", shared.ErrValidation)
	}
	if !slugPattern.MatchString(slug) {
		return nil, fmt.Errorf("%w: invalid slug %q", shared.ErrValidation, slug)
	}

	return &Event{
		id:             shared.NewID(),
		organizationID: organizationID,
		name:           name,
		slug:           slug,
		createdAt:      now,
		updatedAt:      now,
	}, nil
}

// Reconstitute recreates an Event from persistence.
func Reconstitute(id, organizationID shared.ID, name, slug string, startsAt, endsAt *time.Time, createdAt, updatedAt time.Time) *Event {
	return &Event{
		id:             id,
		organizationID: organizationID,
		name:           name,
		slug:           slug,
		startsAt:       startsAt,
		endsAt:         endsAt,
		createdAt:      createdAt,
		updatedAt:      updatedAt,
	}
}

// ID returns the event ID.
func (e *Event) ID() shared.ID { return e.id }

// OrganizationID returns the owning organization's ID.
func (e *Event) OrganizationID() shared.ID { return e.organizationID }

// Name returns the display name.
func (e *Event) Name() string { return e.name }

// Slug returns the URL slug.
func (e *Event) Slug() string { return e.slug }

// StartsAt returns the scheduled start, if set.
func (e *Event) StartsAt() *time.Time { return e.startsAt }

// EndsAt returns the scheduled end, if set.
func (e *Event) EndsAt() *time.Time { return e.endsAt }

// CreatedAt returns the creation timestamp.
func (e *Event) CreatedAt() time.Time { return e.createdAt }

// UpdatedAt returns the last update timestamp.
func (e *Event) UpdatedAt() time.Time { return e.updatedAt }

// Schedule sets the start and end times.
func (e *Event) Schedule(startsAt, endsAt *time.Time, now time.Time) error {
	if startsAt != nil && endsAt != nil && endsAt.Before(*startsAt) {
		return fmt.Errorf("%w: event cannot end before it starts", shared.ErrValidation)
	}
	e.startsAt = startsAt
	e.endsAt = endsAt
	e.updatedAt = now
	return nil
}
