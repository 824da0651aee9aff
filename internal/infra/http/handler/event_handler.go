package handler

import (
	"net/http"
	"time"

	"github.com/incidenthq/api/internal/app"
	httpx "github.com/incidenthq/api/internal/infra/http"
	"github.com/incidenthq/api/internal/infra/http/middleware"
	"github.com/incidenthq/api/pkg/apierror"
	"github.com/incidenthq/api/pkg/domain/event"
	"github.com/incidenthq/api/pkg/domain/organization"
	"github.com/incidenthq/api/pkg/logger"
	"github.com/incidenthq/api/pkg/validator"
)

// EventHandler handles organization, event, and role administration.
type EventHandler struct {
	eventService *app.EventService
	roleService  *app.RoleService
	validator    *validator.Validator
	logger       *logger.Logger
}

// NewEventHandler creates a new EventHandler.
func NewEventHandler(eventService *app.EventService, roleService *app.RoleService, log *logger.Logger) *EventHandler {
	return &EventHandler{
		eventService: eventService,
		roleService:  roleService,
		validator:    validator.New(),
		logger:       log.With("handler", "event"),
	}
}

// OrganizationResponse is the API representation of an organization.
type OrganizationResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	CreatedAt time.Time `json:"created_at"`
}

func toOrganizationResponse(o *organization.Organization) OrganizationResponse {
	return OrganizationResponse{
		ID:        o.ID().String(),
		Name:      o.Name(),
		Slug:      o.Slug(),
		CreatedAt: o.CreatedAt(),
	}
}

// EventResponse is the API representation of an event.
type EventResponse struct {
	ID        string     `json:"id"`
	OrgID     string     `json:"org_id"`
	Name      string     `json:"name"`
	Slug      string     `json:"slug"`
	StartsAt  *time.Time `json:"starts_at,omitempty"`
	EndsAt    *time.Time `json:"ends_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

func toEventResponse(e *event.Event) EventResponse {
	return EventResponse{
		ID:        e.ID().String(),
		OrgID:     e.OrganizationID().String(),
		Name:      e.Name(),
		Slug:      e.Slug(),
		StartsAt:  e.StartsAt(),
		EndsAt:    e.EndsAt(),
		CreatedAt: e.CreatedAt(),
	}
}

// CreateOrganizationRequest is the request body for creating an org.
type CreateOrganizationRequest struct {
	Name string `json:"name" validate:"required,min=1,max=200"`
	Slug string `json:"slug" validate:"required,slug,max=100"`
}

// CreateOrganization creates an organization. Super admin only.
func (h *EventHandler) CreateOrganization(w http.ResponseWriter, r *http.Request) {
	actorID, ok := middleware.GetUserID(r.Context())
	if !ok {
		apierror.Unauthorized("").WriteJSON(w)
		return
	}

	var req CreateOrganizationRequest
	if err := decodeJSON(r, &req); err != nil {
		apierror.BadRequest("Invalid request body").WriteJSON(w)
		return
	}
	if err := h.validator.Validate(req); err != nil {
		handleDomainError(w, h.logger, err)
		return
	}

	org, err := h.eventService.CreateOrganization(r.Context(), actorID, app.CreateOrganizationInput{
		Name: req.Name,
		Slug: req.Slug,
	})
	if err != nil {
		handleDomainError(w, h.logger, err)
		return
	}

	respondJSON(w, http.StatusCreated, toOrganizationResponse(org))
}

// CreateEventRequest is the request body for creating an event.
type CreateEventRequest struct {
	Name string `json:"name" validate:"required,min=1,max=200"`
	Slug string `json:"slug" validate:"required,slug,max=100"`
}

// CreateEvent creates an event under an organization.
func (h *EventHandler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	actorID, ok := middleware.GetUserID(r.Context())
	if !ok {
		apierror.Unauthorized("").WriteJSON(w)
		return
	}

	var req CreateEventRequest
	if err := decodeJSON(r, &req); err != nil {
		apierror.BadRequest("Invalid request body").WriteJSON(w)
		return
	}
	if err := h.validator.Validate(req); err != nil {
		handleDomainError(w, h.logger, err)
		return
	}

	ev, err := h.eventService.CreateEvent(r.Context(), actorID, app.CreateEventInput{
		OrgID: httpx.PathParam(r, "orgID"),
		Name:  req.Name,
		Slug:  req.Slug,
	})
	if err != nil {
		handleDomainError(w, h.logger, err)
		return
	}

	respondJSON(w, http.StatusCreated, toEventResponse(ev))
}

// GetEvent returns a single event.
func (h *EventHandler) GetEvent(w http.ResponseWriter, r *http.Request) {
	ev, err := h.eventService.GetEvent(r.Context(), httpx.PathParam(r, "eventID"))
	if err != nil {
		handleDomainError(w, h.logger, err)
		return
	}

	respondJSON(w, http.StatusOK, toEventResponse(ev))
}

// ListEvents lists an organization's events.
func (h *EventHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	actorID, ok := middleware.GetUserID(r.Context())
	if !ok {
		apierror.Unauthorized("").WriteJSON(w)
		return
	}

	events, err := h.eventService.ListEvents(r.Context(), actorID, httpx.PathParam(r, "orgID"))
	if err != nil {
		handleDomainError(w, h.logger, err)
		return
	}

	data := make([]EventResponse, 0, len(events))
	for _, ev := range events {
		data = append(data, toEventResponse(ev))
	}

	respondJSON(w, http.StatusOK, ListResponse[EventResponse]{
		Data:  data,
		Count: len(data),
	})
}

// RoleRequest is the request body for granting or revoking a role.
type RoleRequest struct {
	UserID  string `json:"user_id" validate:"required,uuid"`
	Role    string `json:"role" validate:"required,role"`
	EventID string `json:"event_id" validate:"omitempty,uuid"`
	OrgID   string `json:"org_id" validate:"omitempty,uuid"`
}

// GrantRole grants a scoped role to a user.
func (h *EventHandler) GrantRole(w http.ResponseWriter, r *http.Request) {
	actorID, ok := middleware.GetUserID(r.Context())
	if !ok {
		apierror.Unauthorized("").WriteJSON(w)
		return
	}

	var req RoleRequest
	if err := decodeJSON(r, &req); err != nil {
		apierror.BadRequest("Invalid request body").WriteJSON(w)
		return
	}
	if err := h.validator.Validate(req); err != nil {
		handleDomainError(w, h.logger, err)
		return
	}

	if err := h.roleService.GrantRole(r.Context(), actorID, app.GrantRoleInput{
		UserID:  req.UserID,
		Role:    req.Role,
		EventID: req.EventID,
		OrgID:   req.OrgID,
	}); err != nil {
		handleDomainError(w, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// RevokeRole revokes a scoped role from a user.
func (h *EventHandler) RevokeRole(w http.ResponseWriter, r *http.Request) {
	actorID, ok := middleware.GetUserID(r.Context())
	if !ok {
		apierror.Unauthorized("").WriteJSON(w)
		return
	}

	var req RoleRequest
	if err := decodeJSON(r, &req); err != nil {
		apierror.BadRequest("Invalid request body").WriteJSON(w)
		return
	}
	if err := h.validator.Validate(req); err != nil {
		handleDomainError(w, h.logger, err)
		return
	}

	if err := h.roleService.RevokeRole(r.Context(), actorID, app.GrantRoleInput{
		UserID:  req.UserID,
		Role:    req.Role,
		EventID: req.EventID,
		OrgID:   req.OrgID,
	}); err != nil {
		handleDomainError(w, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// AssignmentResponse is the API representation of a role assignment.
type AssignmentResponse struct {
	UserID  string  `json:"user_id"`
	Role    string  `json:"role"`
	EventID *string `json:"event_id,omitempty"`
	OrgID   *string `json:"org_id,omitempty"`
}

// ListUserRoles lists a user's role assignments.
func (h *EventHandler) ListUserRoles(w http.ResponseWriter, r *http.Request) {
	actorID, ok := middleware.GetUserID(r.Context())
	if !ok {
		apierror.Unauthorized("").WriteJSON(w)
		return
	}

	assignments, err := h.roleService.ListUserAssignments(r.Context(), actorID, httpx.PathParam(r, "userID"))
	if err != nil {
		handleDomainError(w, h.logger, err)
		return
	}

	data := make([]AssignmentResponse, 0, len(assignments))
	for _, a := range assignments {
		resp := AssignmentResponse{
			UserID: a.UserID.String(),
			Role:   string(a.Role),
		}
		if a.EventID != nil {
			s := a.EventID.String()
			resp.EventID = &s
		}
		if a.OrgID != nil {
			s := a.OrgID.String()
			resp.OrgID = &s
		}
		data = append(data, resp)
	}

	respondJSON(w, http.StatusOK, ListResponse[AssignmentResponse]{
		Data:  data,
		Count: len(data),
	})
}
