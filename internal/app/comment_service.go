package app

import (
	"context"
	"fmt"

	"github.com/incidenthq/api/pkg/domain/notification"
	"github.com/incidenthq/api/pkg/domain/rbac"
	"github.com/incidenthq/api/pkg/domain/report"
	"github.com/incidenthq/api/pkg/domain/shared"
	"github.com/incidenthq/api/pkg/logger"
)

// CommentService handles report comment operations.
type CommentService struct {
	commentRepo report.CommentRepository
	reportRepo  report.Repository
	resolver    *rbac.Resolver
	notifier    Notifier
	clock       shared.Clock
	logger      *logger.Logger
}

// NewCommentService creates a new CommentService.
func NewCommentService(
	commentRepo report.CommentRepository,
	reportRepo report.Repository,
	resolver *rbac.Resolver,
	notifier Notifier,
	clock shared.Clock,
	log *logger.Logger,
) *CommentService {
	return &CommentService{
		commentRepo: commentRepo,
		reportRepo:  reportRepo,
		resolver:    resolver,
		notifier:    notifier,
		clock:       clock,
		logger:      log.With("service", "comment"),
	}
}

// AddCommentInput represents the input for adding a comment.
type AddCommentInput struct {
	ReportID   string `validate:"required,uuid"`
	Body       string `validate:"required,min=1,max=10000"`
	Visibility string `validate:"required,comment_visibility"`
	IsMarkdown bool
}

// AddComment adds a comment to a report. Reporters may only write
// public comments; internal visibility requires responder rank.
func (s *CommentService) AddComment(ctx context.Context, actorID shared.ID, input AddCommentInput) (*report.Comment, error) {
	r, p, err := s.load(ctx, actorID, input.ReportID)
	if err != nil {
		return nil, err
	}

	if !report.CanComment(p, r) {
		return nil, shared.ErrForbidden
	}

	visibility, err := report.ParseVisibility(input.Visibility)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrValidation, err)
	}
	if visibility == report.VisibilityInternal && !p.IsSuperAdmin() && !p.HasRankIn(r.EventID(), rbac.RoleResponder) {
		return nil, shared.ErrForbidden
	}

	comment, err := report.NewComment(r.ID(), actorID, input.Body, visibility, input.IsMarkdown, s.clock.Now())
	if err != nil {
		return nil, err
	}

	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, fmt.Errorf("failed to create comment: %w", err)
	}

	s.logger.Info("comment added", "comment_id", comment.ID().String(), "report_id", input.ReportID)

	if s.notifier != nil {
		if err := s.notifier.Dispatch(ctx, notification.CommentAdded(r.EventID(), r.ID(), actorID)); err != nil {
			s.logger.WithError(err).Error("notification dispatch failed", "report_id", input.ReportID)
		}
	}

	return comment, nil
}

// ListComments returns the comments on a report the actor is allowed
// to see, oldest first. Internal comments are filtered out for
// actors below responder rank.
func (s *CommentService) ListComments(ctx context.Context, actorID shared.ID, reportID string) ([]*report.Comment, error) {
	r, p, err := s.load(ctx, actorID, reportID)
	if err != nil {
		return nil, err
	}

	if !report.CanReadReport(p, r) {
		return nil, shared.ErrForbidden
	}

	comments, err := s.commentRepo.ListByReport(ctx, r.ID())
	if err != nil {
		return nil, err
	}

	return report.CollectVisibleComments(p, r, comments), nil
}

// UpdateCommentInput represents the input for editing a comment. Body
// and Visibility are each optional, but at least one must be set.
type UpdateCommentInput struct {
	CommentID  string `validate:"required,uuid"`
	Body       string `validate:"omitempty,min=1,max=10000"`
	Visibility string `validate:"omitempty,comment_visibility"`
}

// UpdateComment edits a comment's body and/or visibility. Allowed for
// the author and event admins; making a comment internal additionally
// requires responder rank, matching the rule at creation.
func (s *CommentService) UpdateComment(ctx context.Context, actorID shared.ID, input UpdateCommentInput) (*report.Comment, error) {
	commentID, err := shared.IDFromString(input.CommentID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid comment id format", shared.ErrValidation)
	}
	if input.Body == "" && input.Visibility == "" {
		return nil, fmt.Errorf("%w: nothing to update", shared.ErrValidation)
	}

	comment, err := s.commentRepo.GetByID(ctx, commentID)
	if err != nil {
		return nil, err
	}

	r, p, err := s.load(ctx, actorID, comment.ReportID().String())
	if err != nil {
		return nil, err
	}

	if !report.CanEditComment(p, r, comment) {
		return nil, shared.ErrForbidden
	}

	if input.Body != "" {
		if err := comment.UpdateBody(input.Body, s.clock.Now()); err != nil {
			return nil, err
		}
	}

	if input.Visibility != "" {
		visibility, err := report.ParseVisibility(input.Visibility)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", shared.ErrValidation, err)
		}
		if visibility == report.VisibilityInternal && !p.IsSuperAdmin() && !p.HasRankIn(r.EventID(), rbac.RoleResponder) {
			return nil, shared.ErrForbidden
		}
		if err := comment.UpdateVisibility(visibility, s.clock.Now()); err != nil {
			return nil, err
		}
	}

	if err := s.commentRepo.Update(ctx, comment); err != nil {
		return nil, fmt.Errorf("failed to update comment: %w", err)
	}

	return comment, nil
}

// DeleteComment removes a comment. Allowed for the author and event
// admins.
func (s *CommentService) DeleteComment(ctx context.Context, actorID shared.ID, commentID string) error {
	id, err := shared.IDFromString(commentID)
	if err != nil {
		return fmt.Errorf("%w: invalid comment id format", shared.ErrValidation)
	}

	comment, err := s.commentRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	r, p, err := s.load(ctx, actorID, comment.ReportID().String())
	if err != nil {
		return err
	}

	if !report.CanEditComment(p, r, comment) {
		return shared.ErrForbidden
	}

	if err := s.commentRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete comment: %w", err)
	}

	s.logger.Info("comment deleted", "comment_id", commentID)
	return nil
}

func (s *CommentService) load(ctx context.Context, actorID shared.ID, reportID string) (*report.Report, rbac.Principal, error) {
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
