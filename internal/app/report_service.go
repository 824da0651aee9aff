package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/incidenthq/api/internal/metrics"
	"github.com/incidenthq/api/pkg/domain/notification"
	"github.com/incidenthq/api/pkg/domain/rbac"
	"github.com/incidenthq/api/pkg/domain/report"
	"github.com/incidenthq/api/pkg/domain/shared"
	"github.com/incidenthq/api/pkg/logger"
)

// Notifier dispatches a domain notification event to its recipients.
// Dispatch failures never fail the triggering operation.
type Notifier interface {
	Dispatch(ctx context.Context, evt notification.Event) error
}

// ReportService handles incident report operations.
type ReportService struct {
	reportRepo report.Repository
	resolver   *rbac.Resolver
	notifier   Notifier
	clock      shared.Clock
	logger     *logger.Logger
}

// NewReportService creates a new ReportService.
func NewReportService(
	reportRepo report.Repository,
	resolver *rbac.Resolver,
	notifier Notifier,
	clock shared.Clock,
	log *logger.Logger,
) *ReportService {
	return &ReportService{
		reportRepo: reportRepo,
		resolver:   resolver,
		notifier:   notifier,
		clock:      clock,
		logger:     log.With("service", "report"),
	}
}

// SubmitReportInput represents the input for submitting a report.
// ReporterID is empty for anonymous submissions.
type SubmitReportInput struct {
	EventID     string `validate:"required,uuid"`
	ReporterID  string `validate:"omitempty,uuid"`
	Title       string `validate:"required,min=1,max=500"`
	Description string `validate:"required,min=1"`
	Type        string `validate:"required,report_type"`
}

// SubmitReport files a new incident report. Anyone can submit,
// including anonymous reporters.
func (s *ReportService) SubmitReport(ctx context.Context, input SubmitReportInput) (*report.Report, error) {
	eventID, err := shared.IDFromString(input.EventID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid event id format", shared.ErrValidation)
	}

	var reporterID *shared.ID
	if input.ReporterID != "" {
		id, err := shared.IDFromString(input.ReporterID)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid reporter id format", shared.ErrValidation)
		}
		reporterID = &id
	}

	reportType, err := report.ParseType(input.Type)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrValidation, err)
	}

	r, err := report.NewReport(eventID, reporterID, input.Title, input.Description, reportType, s.clock.Now())
	if err != nil {
		return nil, err
	}

	if err := s.reportRepo.Create(ctx, r); err != nil {
		return nil, fmt.Errorf("failed to create report: %w", err)
	}

	metrics.ReportsSubmittedTotal.WithLabelValues(eventID.String()).Inc()
	s.logger.Info("report submitted", "report_id", r.ID().String(), "event_id", input.EventID)

	actorID := shared.ID{}
	if reporterID != nil {
		actorID = *reporterID
	}
	s.dispatch(ctx, notification.ReportSubmitted(eventID, r.ID(), actorID, r.Title()))

	return r, nil
}

// GetReport retrieves a report, enforcing read visibility for the actor.
func (s *ReportService) GetReport(ctx context.Context, actorID shared.ID, reportID string) (*report.Report, error) {
	r, p, err := s.loadReportAndPrincipal(ctx, actorID, reportID)
	if err != nil {
		return nil, err
	}

	if !report.CanReadReport(p, r) {
		return nil, shared.ErrForbidden
	}
	return r, nil
}

// ListReportsInput represents the input for listing reports in an event.
type ListReportsInput struct {
	EventID string `validate:"required,uuid"`
	States  []string
	Limit   int `validate:"omitempty,min=1,max=200"`
	Offset  int `validate:"omitempty,min=0"`
}

// ListReports lists reports in an event visible to the actor.
// Responders and event admins see all reports; reporters see only
// their own submissions.
func (s *ReportService) ListReports(ctx context.Context, actorID shared.ID, input ListReportsInput) ([]*report.Report, error) {
	eventID, err := shared.IDFromString(input.EventID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid event id format", shared.ErrValidation)
	}

	p, err := s.resolver.ResolvePrincipal(ctx, actorID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve principal: %w", err)
	}

	filter := report.ListFilter{Limit: input.Limit, Offset: input.Offset}
	if filter.Limit == 0 {
		filter.Limit = 50
	}
	for _, raw := range input.States {
		state, err := report.ParseState(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", shared.ErrValidation, err)
		}
		filter.States = append(filter.States, state)
	}

	if !p.IsSuperAdmin() && !p.HasRankIn(eventID, rbac.RoleResponder) {
		if p.IsAnonymous() {
			return nil, shared.ErrForbidden
		}
		// Reporters only see their own submissions.
		id := actorID
		filter.ReporterID = &id
	}

	return s.reportRepo.ListByEvent(ctx, eventID, filter)
}

// TransitionInput represents the input for a lifecycle transition.
type TransitionInput struct {
	ReportID   string `validate:"required,uuid"`
	Target     string `validate:"required,report_state"`
	Notes      string `validate:"max=10000"`
	AssigneeID string `validate:"omitempty,uuid"`
}

// Transition moves a report through its lifecycle. The caller must
// hold responder rank in the report's event. The write is guarded by
// an optimistic concurrency check so two racing transitions cannot
// both succeed.
func (s *ReportService) Transition(ctx context.Context, actorID shared.ID, input TransitionInput) (*report.Report, error) {
	r, p, err := s.loadReportAndPrincipal(ctx, actorID, input.ReportID)
	if err != nil {
		return nil, err
	}

	if !report.CanWriteReport(p, r) {
		metrics.ReportTransitionDeniedTotal.WithLabelValues("forbidden").Inc()
		return nil, shared.ErrForbidden
	}

	target, err := report.ParseState(input.Target)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrValidation, err)
	}

	var assigneeID *shared.ID
	if input.AssigneeID != "" {
		id, err := shared.IDFromString(input.AssigneeID)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid assignee id format", shared.ErrValidation)
		}
		ok, err := s.resolver.HoldsAnyInEvent(ctx, id, r.EventID(), rbac.RoleResponder, rbac.RoleEventAdmin)
		if err != nil {
			return nil, fmt.Errorf("failed to check assignee roles: %w", err)
		}
		if !ok {
			metrics.ReportTransitionDeniedTotal.WithLabelValues("invalid_assignee").Inc()
			return nil, report.ErrMissingOrInvalidAssignee
		}
		assigneeID = &id
	}

	// Targets that require an assignee accept the stored one, but only
	// while that user still holds responder or event_admin in the
	// event; a stale assignment does not satisfy the guard.
	if target.RequiresAssignee() && assigneeID == nil {
		if existing := r.AssignedResponderID(); existing != nil {
			ok, err := s.resolver.HoldsAnyInEvent(ctx, *existing, r.EventID(), rbac.RoleResponder, rbac.RoleEventAdmin)
			if err != nil {
				return nil, fmt.Errorf("failed to check assignee roles: %w", err)
			}
			if !ok {
				metrics.ReportTransitionDeniedTotal.WithLabelValues("invalid_assignee").Inc()
				return nil, report.ErrMissingOrInvalidAssignee
			}
		}
	}

	fromState := r.State()
	expectedUpdatedAt := r.UpdatedAt()

	change, err := r.TransitionTo(target, actorID, input.Notes, assigneeID, s.clock.Now())
	if err != nil {
		metrics.ReportTransitionDeniedTotal.WithLabelValues(denialReason(err)).Inc()
		return nil, err
	}

	if err := s.reportRepo.UpdateWithPrecondition(ctx, r, fromState, expectedUpdatedAt); err != nil {
		if errors.Is(err, shared.ErrConflict) {
			metrics.ReportTransitionConflictsTotal.Inc()
			s.logger.Warn("transition lost concurrency race", "report_id", input.ReportID, "target", input.Target)
		}
		return nil, err
	}

	if err := s.reportRepo.AppendStateChange(ctx, change); err != nil {
		// The transition itself is committed. History append failure
		// is logged, not surfaced.
		s.logger.WithError(err).Error("failed to append state change", "report_id", input.ReportID)
	}

	metrics.ReportTransitionsTotal.WithLabelValues(fromState.String(), target.String()).Inc()
	s.logger.Info("report transitioned",
		"report_id", input.ReportID,
		"from", fromState.String(),
		"to", target.String(),
	)

	s.dispatch(ctx, notification.StateChanged(r.EventID(), r.ID(), actorID, fromState.String(), target.String()))

	return r, nil
}

// GetHistory returns the state change history of a report, newest first.
func (s *ReportService) GetHistory(ctx context.Context, actorID shared.ID, reportID string) ([]*report.StateChange, error) {
	r, p, err := s.loadReportAndPrincipal(ctx, actorID, reportID)
	if err != nil {
		return nil, err
	}

	if !report.CanReadReport(p, r) {
		return nil, shared.ErrForbidden
	}

	return s.reportRepo.ListStateHistory(ctx, r.ID())
}

// UpdateTitleInput represents the input for editing a report title.
type UpdateTitleInput struct {
	ReportID string `validate:"required,uuid"`
	Title    string `validate:"required,min=1,max=500"`
}

// UpdateTitle edits a report's title. Allowed for the reporter and
// event admins.
func (s *ReportService) UpdateTitle(ctx context.Context, actorID shared.ID, input UpdateTitleInput) (*report.Report, error) {
	r, p, err := s.loadReportAndPrincipal(ctx, actorID, input.ReportID)
	if err != nil {
		return nil, err
	}

	if !report.CanEditTitle(p, r) {
		return nil, shared.ErrForbidden
	}

	if err := r.UpdateTitle(input.Title, s.clock.Now()); err != nil {
		return nil, err
	}

	if err := s.reportRepo.Update(ctx, r); err != nil {
		return nil, fmt.Errorf("failed to update report: %w", err)
	}
	return r, nil
}

// UpdateDescriptionInput represents the input for editing a description.
type UpdateDescriptionInput struct {
	ReportID    string `validate:"required,uuid"`
	Description string `validate:"required,min=1"`
}

// UpdateDescription edits a report's description. Allowed for the
// reporter and responders.
func (s *ReportService) UpdateDescription(ctx context.Context, actorID shared.ID, input UpdateDescriptionInput) (*report.Report, error) {
	r, p, err := s.loadReportAndPrincipal(ctx, actorID, input.ReportID)
	if err != nil {
		return nil, err
	}

	if !report.CanEditDescription(p, r) {
		return nil, shared.ErrForbidden
	}

	if err := r.UpdateDescription(input.Description, s.clock.Now()); err != nil {
		return nil, err
	}

	if err := s.reportRepo.Update(ctx, r); err != nil {
		return nil, fmt.Errorf("failed to update report: %w", err)
	}
	return r, nil
}

// SetSeverityInput represents the input for setting a report severity.
// An empty Severity clears the triage.
type SetSeverityInput struct {
	ReportID string `validate:"required,uuid"`
	Severity string `validate:"omitempty,report_severity"`
}

// SetSeverity triages a report's severity. Responder rank required.
func (s *ReportService) SetSeverity(ctx context.Context, actorID shared.ID, input SetSeverityInput) (*report.Report, error) {
	r, p, err := s.loadReportAndPrincipal(ctx, actorID, input.ReportID)
	if err != nil {
		return nil, err
	}

	if !report.CanEditSeverity(p, r) {
		return nil, shared.ErrForbidden
	}

	var severity *report.Severity
	if input.Severity != "" {
		sev, err := report.ParseSeverity(input.Severity)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", shared.ErrValidation, err)
		}
		severity = &sev
	}

	if err := r.SetSeverity(severity, s.clock.Now()); err != nil {
		return nil, err
	}

	if err := s.reportRepo.Update(ctx, r); err != nil {
		return nil, fmt.Errorf("failed to update report: %w", err)
	}
	return r, nil
}

func (s *ReportService) loadReportAndPrincipal(ctx context.Context, actorID shared.ID, reportID string) (*report.Report, rbac.Principal, error) {
	id, err := shared.IDFromString(reportID)
	if err != nil {
		return nil, rbac.Principal{}, fmt.Errorf("%w: invalid report id format", shared.ErrValidation)
	}

	r, err := s.reportRepo.GetByID(ctx, id)
	if err != nil {
		return nil, rbac.Principal{}, err
	}

	p, err := s.resolver.ResolvePrincipal(ctx, actorID)
	if err != nil {
		return nil, rbac.Principal{}, fmt.Errorf("failed to resolve principal: %w", err)
	}

	return r, p, nil
}

func (s *ReportService) dispatch(ctx context.Context, evt notification.Event) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Dispatch(ctx, evt); err != nil {
		s.logger.WithError(err).Error("notification dispatch failed", "kind", evt.Kind)
	}
}

func denialReason(err error) string {
	switch {
	case errors.Is(err, report.ErrInvalidTransition):
		return "invalid_transition"
	case errors.Is(err, report.ErrMissingNotes):
		return "missing_notes"
	case errors.Is(err, report.ErrMissingOrInvalidAssignee):
		return "missing_assignee"
	default:
		return "other"
	}
}
