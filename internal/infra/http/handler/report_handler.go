package handler

import (
	"net/http"
	"time"

	"github.com/incidenthq/api/internal/app"
	httpx "github.com/incidenthq/api/internal/infra/http"
	"github.com/incidenthq/api/internal/infra/http/middleware"
	"github.com/incidenthq/api/pkg/apierror"
	"github.com/incidenthq/api/pkg/domain/report"
	"github.com/incidenthq/api/pkg/logger"
	"github.com/incidenthq/api/pkg/validator"
)

// ReportHandler handles report lifecycle requests.
type ReportHandler struct {
	reportService     *app.ReportService
	assignmentService *app.AssignmentService
	validator         *validator.Validator
	logger            *logger.Logger
}

// NewReportHandler creates a new ReportHandler.
func NewReportHandler(reportService *app.ReportService, assignmentService *app.AssignmentService, log *logger.Logger) *ReportHandler {
	return &ReportHandler{
		reportService:     reportService,
		assignmentService: assignmentService,
		validator:         validator.New(),
		logger:            log.With("handler", "report"),
	}
}

// ReportResponse is the API representation of a report.
type ReportResponse struct {
	ID          string    `json:"id"`
	EventID     string    `json:"event_id"`
	ReporterID  *string   `json:"reporter_id,omitempty"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Type        string    `json:"type"`
	State       string    `json:"state"`
	Severity    *string   `json:"severity,omitempty"`
	AssigneeID  *string   `json:"assignee_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func toReportResponse(r *report.Report) ReportResponse {
	resp := ReportResponse{
		ID:          r.ID().String(),
		EventID:     r.EventID().String(),
		Title:       r.Title(),
		Description: r.Description(),
		Type:        string(r.Type()),
		State:       string(r.State()),
		CreatedAt:   r.CreatedAt(),
		UpdatedAt:   r.UpdatedAt(),
	}
	if reporterID := r.ReporterID(); reporterID != nil {
		s := reporterID.String()
		resp.ReporterID = &s
	}
	if sev := r.Severity(); sev != nil {
		s := string(*sev)
		resp.Severity = &s
	}
	if assignee := r.AssignedResponderID(); assignee != nil {
		s := assignee.String()
		resp.AssigneeID = &s
	}
	return resp
}

// SubmitReportRequest is the request body for filing a report.
type SubmitReportRequest struct {
	Title       string `json:"title" validate:"required,min=1,max=500"`
	Description string `json:"description" validate:"required,min=1"`
	Type        string `json:"type" validate:"required,report_type"`
}

// Submit files a new report in an event. Authentication is optional;
// anonymous submissions carry no reporter identity.
func (h *ReportHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req SubmitReportRequest
	if err := decodeJSON(r, &req); err != nil {
		apierror.BadRequest("Invalid request body").WriteJSON(w)
		return
	}
	if err := h.validator.Validate(req); err != nil {
		handleDomainError(w, h.logger, err)
		return
	}

	input := app.SubmitReportInput{
		EventID:     httpx.PathParam(r, "eventID"),
		Title:       req.Title,
		Description: req.Description,
		Type:        req.Type,
	}
	if userID, ok := middleware.GetUserID(r.Context()); ok {
		input.ReporterID = userID.String()
	}

	created, err := h.reportService.SubmitReport(r.Context(), input)
	if err != nil {
		handleDomainError(w, h.logger, err)
		return
	}

	respondJSON(w, http.StatusCreated, toReportResponse(created))
}

// List lists the reports in an event visible to the caller.
func (h *ReportHandler) List(w http.ResponseWriter, r *http.Request) {
	actorID, ok := middleware.GetUserID(r.Context())
	if !ok {
		apierror.Unauthorized("").WriteJSON(w)
		return
	}

	input := app.ListReportsInput{
		EventID: httpx.PathParam(r, "eventID"),
		States:  parseQueryArray(httpx.QueryParam(r, "state")),
		Limit:   parseQueryInt(httpx.QueryParam(r, "limit"), 0),
		Offset:  parseQueryInt(httpx.QueryParam(r, "offset"), 0),
	}

	reports, err := h.reportService.ListReports(r.Context(), actorID, input)
	if err != nil {
		handleDomainError(w, h.logger, err)
		return
	}

	data := make([]ReportResponse, 0, len(reports))
	for _, rep := range reports {
		data = append(data, toReportResponse(rep))
	}

	respondJSON(w, http.StatusOK, ListResponse[ReportResponse]{
		Data:   data,
		Count:  len(data),
		Limit:  input.Limit,
		Offset: input.Offset,
	})
}

// Get returns a single report.
func (h *ReportHandler) Get(w http.ResponseWriter, r *http.Request) {
	actorID, ok := middleware.GetUserID(r.Context())
	if !ok {
		apierror.Unauthorized("").WriteJSON(w)
		return
	}

	rep, err := h.reportService.GetReport(r.Context(), actorID, httpx.PathParam(r, "reportID"))
	if err != nil {
		handleDomainError(w, h.logger, err)
		return
	}

	respondJSON(w, http.StatusOK, toReportResponse(rep))
}

// UpdateReportRequest is the request body for report field updates.
// Absent fields are left untouched.
type UpdateReportRequest struct {
	Title       *string `json:"title" validate:"omitempty,min=1,max=500"`
	Description *string `json:"description" validate:"omitempty,min=1"`
	Severity    *string `json:"severity" validate:"omitempty,report_severity"`
}

// Update patches report fields. Each field carries its own
// authorization rules, enforced by the service layer.
func (h *ReportHandler) Update(w http.ResponseWriter, r *http.Request) {
	actorID, ok := middleware.GetUserID(r.Context())
	if !ok {
		apierror.Unauthorized("").WriteJSON(w)
		return
	}

	var req UpdateReportRequest
	if err := decodeJSON(r, &req); err != nil {
		apierror.BadRequest("Invalid request body").WriteJSON(w)
		return
	}
	if err := h.validator.Validate(req); err != nil {
		handleDomainError(w, h.logger, err)
		return
	}
	if req.Title == nil && req.Description == nil && req.Severity == nil {
		apierror.BadRequest("No fields to update").WriteJSON(w)
		return
	}

	reportID := httpx.PathParam(r, "reportID")
	var (
		rep *report.Report
		err error
	)

	if req.Title != nil {
		rep, err = h.reportService.UpdateTitle(r.Context(), actorID, app.UpdateTitleInput{
			ReportID: reportID,
			Title:    *req.Title,
		})
		if err != nil {
			handleDomainError(w, h.logger, err)
			return
		}
	}

	if req.Description != nil {
		rep, err = h.reportService.UpdateDescription(r.Context(), actorID, app.UpdateDescriptionInput{
			ReportID:    reportID,
			Description: *req.Description,
		})
		if err != nil {
			handleDomainError(w, h.logger, err)
			return
		}
	}

	if req.Severity != nil {
		rep, err = h.reportService.SetSeverity(r.Context(), actorID, app.SetSeverityInput{
			ReportID: reportID,
			Severity: *req.Severity,
		})
		if err != nil {
			handleDomainError(w, h.logger, err)
			return
		}
	}

	respondJSON(w, http.StatusOK, toReportResponse(rep))
}

// TransitionRequest is the request body for a state transition.
type TransitionRequest struct {
	Target     string `json:"target" validate:"required,report_state"`
	Notes      string `json:"notes" validate:"max=10000"`
	AssigneeID string `json:"assignee_id" validate:"omitempty,uuid"`
}

// Transition moves a report through its lifecycle.
func (h *ReportHandler) Transition(w http.ResponseWriter, r *http.Request) {
	actorID, ok := middleware.GetUserID(r.Context())
	if !ok {
		apierror.Unauthorized("").WriteJSON(w)
		return
	}

	var req TransitionRequest
	if err := decodeJSON(r, &req); err != nil {
		apierror.BadRequest("Invalid request body").WriteJSON(w)
		return
	}
	if err := h.validator.Validate(req); err != nil {
		handleDomainError(w, h.logger, err)
		return
	}

	rep, err := h.reportService.Transition(r.Context(), actorID, app.TransitionInput{
		ReportID:   httpx.PathParam(r, "reportID"),
		Target:     req.Target,
		Notes:      req.Notes,
		AssigneeID: req.AssigneeID,
	})
	if err != nil {
		handleDomainError(w, h.logger, err)
		return
	}

	respondJSON(w, http.StatusOK, toReportResponse(rep))
}

// StateChangeResponse is the API representation of a history entry.
type StateChangeResponse struct {
	ID        string    `json:"id"`
	ReportID  string    `json:"report_id"`
	From      string    `json:"from"`
	To        string    `json:"to"`
	ChangedBy string    `json:"changed_by"`
	Notes     string    `json:"notes,omitempty"`
	ChangedAt time.Time `json:"changed_at"`
}

// History returns the report's state change log, oldest first.
func (h *ReportHandler) History(w http.ResponseWriter, r *http.Request) {
	actorID, ok := middleware.GetUserID(r.Context())
	if !ok {
		apierror.Unauthorized("").WriteJSON(w)
		return
	}

	changes, err := h.reportService.GetHistory(r.Context(), actorID, httpx.PathParam(r, "reportID"))
	if err != nil {
		handleDomainError(w, h.logger, err)
		return
	}

	data := make([]StateChangeResponse, 0, len(changes))
	for _, c := range changes {
		data = append(data, StateChangeResponse{
			ID:        c.ID().String(),
			ReportID:  c.ReportID().String(),
			From:      string(c.From()),
			To:        string(c.To()),
			ChangedBy: c.ChangedBy().String(),
			Notes:     c.Notes(),
			ChangedAt: c.ChangedAt(),
		})
	}

	respondJSON(w, http.StatusOK, ListResponse[StateChangeResponse]{
		Data:  data,
		Count: len(data),
	})
}

// AssignRequest is the request body for setting the assignee.
type AssignRequest struct {
	AssigneeID string `json:"assignee_id" validate:"required,uuid"`
}

// Assign sets the report's assigned responder.
func (h *ReportHandler) Assign(w http.ResponseWriter, r *http.Request) {
	actorID, ok := middleware.GetUserID(r.Context())
	if !ok {
		apierror.Unauthorized("").WriteJSON(w)
		return
	}

	var req AssignRequest
	if err := decodeJSON(r, &req); err != nil {
		apierror.BadRequest("Invalid request body").WriteJSON(w)
		return
	}
	if err := h.validator.Validate(req); err != nil {
		handleDomainError(w, h.logger, err)
		return
	}

	rep, err := h.assignmentService.Assign(r.Context(), actorID, app.AssignInput{
		ReportID:   httpx.PathParam(r, "reportID"),
		AssigneeID: req.AssigneeID,
	})
	if err != nil {
		handleDomainError(w, h.logger, err)
		return
	}

	respondJSON(w, http.StatusOK, toReportResponse(rep))
}

// Unassign clears the report's assignee.
func (h *ReportHandler) Unassign(w http.ResponseWriter, r *http.Request) {
	actorID, ok := middleware.GetUserID(r.Context())
	if !ok {
		apierror.Unauthorized("").WriteJSON(w)
		return
	}

	rep, err := h.assignmentService.Unassign(r.Context(), actorID, httpx.PathParam(r, "reportID"))
	if err != nil {
		handleDomainError(w, h.logger, err)
		return
	}

	respondJSON(w, http.StatusOK, toReportResponse(rep))
}
