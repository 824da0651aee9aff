package app

import (
	"context"
	"fmt"

	"github.com/incidenthq/api/pkg/domain/notification"
	"github.com/incidenthq/api/pkg/domain/rbac"
	"github.com/incidenthq/api/pkg/domain/report"
	"github.com/incidenthq/api/pkg/domain/shared"
	"github.com/incidenthq/api/pkg/domain/user"
	"github.com/incidenthq/api/pkg/logger"
)

// AssignmentService coordinates report ownership.
type AssignmentService struct {
	reportRepo report.Repository
	userRepo   user.Repository
	resolver   *rbac.Resolver
	notifier   Notifier
	clock      shared.Clock
	logger     *logger.Logger
}

// NewAssignmentService creates a new AssignmentService.
func NewAssignmentService(
	reportRepo report.Repository,
	userRepo user.Repository,
	resolver *rbac.Resolver,
	notifier Notifier,
	clock shared.Clock,
	log *logger.Logger,
) *AssignmentService {
	return &AssignmentService{
		reportRepo: reportRepo,
		userRepo:   userRepo,
		resolver:   resolver,
		notifier:   notifier,
		clock:      clock,
		logger:     log.With("service", "assignment"),
	}
}

// AssignInput represents the input for assigning a report.
type AssignInput struct {
	ReportID   string `validate:"required,uuid"`
	AssigneeID string `validate:"required,uuid"`
}

// Assign sets the report's assigned responder. The actor must hold
// responder rank in the event, and the assignee must hold a responder
// or event admin role there.
func (s *AssignmentService) Assign(ctx context.Context, actorID shared.ID, input AssignInput) (*report.Report, error) {
	r, p, err := s.load(ctx, actorID, input.ReportID)
	if err != nil {
		return nil, err
	}

	if !report.CanManageAssignment(p, r) {
		return nil, shared.ErrForbidden
	}

	assigneeID, err := shared.IDFromString(input.AssigneeID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid assignee id format", shared.ErrValidation)
	}

	ok, err := s.resolver.HoldsAnyInEvent(ctx, assigneeID, r.EventID(), rbac.RoleResponder, rbac.RoleEventAdmin)
	if err != nil {
		return nil, fmt.Errorf("failed to check assignee roles: %w", err)
	}
	if !ok {
		return nil, report.ErrInvalidAssignee
	}

	r.Assign(&assigneeID, s.clock.Now())

	if err := s.reportRepo.Update(ctx, r); err != nil {
		return nil, fmt.Errorf("failed to update report: %w", err)
	}

	s.logger.Info("report assigned",
		"report_id", input.ReportID,
		"assignee_id", input.AssigneeID,
	)

	s.dispatch(ctx, notification.AssignmentChanged(r.EventID(), r.ID(), actorID, s.assigneeName(ctx, assigneeID)))

	return r, nil
}

// Unassign clears the report's assigned responder. Requires event
// admin rank; ordinary responders cannot orphan a report.
func (s *AssignmentService) Unassign(ctx context.Context, actorID shared.ID, reportID string) (*report.Report, error) {
	r, p, err := s.load(ctx, actorID, reportID)
	if err != nil {
		return nil, err
	}

	if !p.IsSuperAdmin() && !p.HasRankIn(r.EventID(), rbac.RoleEventAdmin) {
		return nil, shared.ErrForbidden
	}

	r.Assign(nil, s.clock.Now())

	if err := s.reportRepo.Update(ctx, r); err != nil {
		return nil, fmt.Errorf("failed to update report: %w", err)
	}

	s.logger.Info("report unassigned", "report_id", reportID)

	s.dispatch(ctx, notification.AssignmentChanged(r.EventID(), r.ID(), actorID, ""))

	return r, nil
}

func (s *AssignmentService) load(ctx context.Context, actorID shared.ID, reportID string) (*report.Report, rbac.Principal, error) {
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

func (s *AssignmentService) assigneeName(ctx context.Context, assigneeID shared.ID) string {
	u, err := s.userRepo.GetByID(ctx, assigneeID)
	if err != nil {
		return "a responder"
	}
	return u.Name()
}

func (s *AssignmentService) dispatch(ctx context.Context, evt notification.Event) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Dispatch(ctx, evt); err != nil {
		s.logger.WithError(err).Error("notification dispatch failed", "kind", evt.Kind)
	}
}
