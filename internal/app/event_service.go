package app

import (
	"context"
	"fmt"

	"github.com/incidenthq/api/pkg/domain/event"
	"github.com/incidenthq/api/pkg/domain/organization"
	"github.com/incidenthq/api/pkg/domain/rbac"
	"github.com/incidenthq/api/pkg/domain/shared"
	"github.com/incidenthq/api/pkg/logger"
)

// EventService manages organizations and their events.
type EventService struct {
	eventRepo event.Repository
	orgRepo   organization.Repository
	resolver  *rbac.Resolver
	clock     shared.Clock
	logger    *logger.Logger
}

// NewEventService creates a new EventService.
func NewEventService(
	eventRepo event.Repository,
	orgRepo organization.Repository,
	resolver *rbac.Resolver,
	clock shared.Clock,
	log *logger.Logger,
) *EventService {
	return &EventService{
		eventRepo: eventRepo,
		orgRepo:   orgRepo,
		resolver:  resolver,
		clock:     clock,
		logger:    log.With("service", "event"),
	}
}

// CreateOrganizationInput represents the input for creating an organization.
type CreateOrganizationInput struct {
	Name string `validate:"required,min=1,max=200"`
	Slug string `validate:"required,slug,max=100"`
}

// CreateOrganization creates a new organization. Super admin only.
func (s *EventService) CreateOrganization(ctx context.Context, actorID shared.ID, input CreateOrganizationInput) (*organization.Organization, error) {
	p, err := s.resolver.ResolvePrincipal(ctx, actorID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve principal: %w", err)
	}
	if !p.IsSuperAdmin() {
		return nil, shared.ErrForbidden
	}

	org, err := organization.New(input.Name, input.Slug, s.clock.Now())
	if err != nil {
		return nil, err
	}

	if err := s.orgRepo.Create(ctx, org); err != nil {
		return nil, fmt.Errorf("failed to create organization: %w", err)
	}

	s.logger.Info("organization created", "org_id", org.ID().String(), "slug", org.Slug())
	return org, nil
}

// CreateEventInput represents the input for creating an event.
type CreateEventInput struct {
	OrgID string `validate:"required,uuid"`
	Name  string `validate:"required,min=1,max=200"`
	Slug  string `validate:"required,slug,max=100"`
}

// CreateEvent creates an event under an organization. Requires super
// admin or an org admin role in the owning organization.
func (s *EventService) CreateEvent(ctx context.Context, actorID shared.ID, input CreateEventInput) (*event.Event, error) {
	orgID, err := shared.IDFromString(input.OrgID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid org id format", shared.ErrValidation)
	}

	p, err := s.resolver.ResolvePrincipal(ctx, actorID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve principal: %w", err)
	}
	if !p.IsSuperAdmin() && !p.OrgRoles(orgID).Has(rbac.RoleOrgAdmin) {
		return nil, shared.ErrForbidden
	}

	if _, err := s.orgRepo.GetByID(ctx, orgID); err != nil {
		return nil, err
	}

	e, err := event.New(orgID, input.Name, input.Slug, s.clock.Now())
	if err != nil {
		return nil, err
	}

	if err := s.eventRepo.Create(ctx, e); err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}

	s.logger.Info("event created", "event_id", e.ID().String(), "org_id", input.OrgID)
	return e, nil
}

// GetEvent retrieves an event by ID.
func (s *EventService) GetEvent(ctx context.Context, eventID string) (*event.Event, error) {
	id, err := shared.IDFromString(eventID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid event id format", shared.ErrValidation)
	}
	return s.eventRepo.GetByID(ctx, id)
}

// ListEvents lists the events of an organization. Org viewers and
// above may list; event-scoped roles do not grant org-wide listing.
func (s *EventService) ListEvents(ctx context.Context, actorID shared.ID, orgID string) ([]*event.Event, error) {
	id, err := shared.IDFromString(orgID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid org id format", shared.ErrValidation)
	}

	p, err := s.resolver.ResolvePrincipal(ctx, actorID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve principal: %w", err)
	}

	roles := p.OrgRoles(id)
	if !p.IsSuperAdmin() && !roles.Has(rbac.RoleOrgAdmin) && !roles.Has(rbac.RoleOrgViewer) {
		return nil, shared.ErrForbidden
	}

	return s.eventRepo.ListByOrganization(ctx, id)
}
