package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/incidenthq/api/pkg/domain/rbac"
	"github.com/incidenthq/api/pkg/domain/report"
	"github.com/incidenthq/api/pkg/domain/shared"
	"github.com/incidenthq/api/pkg/logger"
)

type commentFixture struct {
	svc      *CommentService
	comments *memCommentRepo
	notifier *captureNotifier

	report    *report.Report
	eventID   shared.ID
	reporter  shared.ID
	responder shared.ID
	admin     shared.ID
}

func newCommentFixture(t *testing.T) *commentFixture {
	t.Helper()

	clock := shared.FixedClock{T: time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)}
	f := &commentFixture{
		comments:  &memCommentRepo{},
		notifier:  &captureNotifier{},
		eventID:   shared.NewID(),
		reporter:  shared.NewID(),
		responder: shared.NewID(),
		admin:     shared.NewID(),
	}

	assignments := &memAssignments{grants: []rbac.Assignment{
		{UserID: f.reporter, Role: rbac.RoleReporter, EventID: &f.eventID},
		{UserID: f.responder, Role: rbac.RoleResponder, EventID: &f.eventID},
		{UserID: f.admin, Role: rbac.RoleEventAdmin, EventID: &f.eventID},
	}}
	resolver := rbac.NewResolver(assignments)

	reports := newMemReportRepo()
	r, err := report.NewReport(f.eventID, &f.reporter, "Incident", "Something happened.", report.TypeOther, clock.Now())
	require.NoError(t, err)
	require.NoError(t, reports.Create(context.Background(), r))
	f.report = r

	f.svc = NewCommentService(f.comments, reports, resolver, f.notifier, clock, logger.NewNop())
	return f
}

func (f *commentFixture) add(t *testing.T, actor shared.ID, body, visibility string) *report.Comment {
	t.Helper()
	c, err := f.svc.AddComment(context.Background(), actor, AddCommentInput{
		ReportID:   f.report.ID().String(),
		Body:       body,
		Visibility: visibility,
	})
	require.NoError(t, err)
	return c
}

func TestAddComment(t *testing.T) {
	ctx := context.Background()

	t.Run("reporter adds public comment", func(t *testing.T) {
		f := newCommentFixture(t)

		c := f.add(t, f.reporter, "An update from me.", "public")

		assert.Equal(t, report.VisibilityPublic, c.Visibility())
		require.Len(t, f.notifier.events, 1)
		assert.Equal(t, "report_comment_added", f.notifier.events[0].Kind)
	})

	t.Run("reporter cannot add internal comment", func(t *testing.T) {
		f := newCommentFixture(t)

		_, err := f.svc.AddComment(ctx, f.reporter, AddCommentInput{
			ReportID:   f.report.ID().String(),
			Body:       "secret",
			Visibility: "internal",
		})

		assert.ErrorIs(t, err, shared.ErrForbidden)
	})

	t.Run("responder adds internal comment", func(t *testing.T) {
		f := newCommentFixture(t)

		c := f.add(t, f.responder, "Internal triage note.", "internal")

		assert.Equal(t, report.VisibilityInternal, c.Visibility())
	})

	t.Run("uninvolved user forbidden", func(t *testing.T) {
		f := newCommentFixture(t)

		_, err := f.svc.AddComment(ctx, shared.NewID(), AddCommentInput{
			ReportID:   f.report.ID().String(),
			Body:       "hi",
			Visibility: "public",
		})

		assert.ErrorIs(t, err, shared.ErrForbidden)
	})
}

func TestListComments(t *testing.T) {
	ctx := context.Background()
	f := newCommentFixture(t)

	f.add(t, f.reporter, "Public one.", "public")
	f.add(t, f.responder, "Internal note.", "internal")
	f.add(t, f.admin, "Public reply.", "public")

	t.Run("reporter sees only public", func(t *testing.T) {
		comments, err := f.svc.ListComments(ctx, f.reporter, f.report.ID().String())
		require.NoError(t, err)
		require.Len(t, comments, 2)
		for _, c := range comments {
			assert.Equal(t, report.VisibilityPublic, c.Visibility())
		}
	})

	t.Run("responder sees everything", func(t *testing.T) {
		comments, err := f.svc.ListComments(ctx, f.responder, f.report.ID().String())
		require.NoError(t, err)
		assert.Len(t, comments, 3)
	})
}

func TestEditAndDeleteComment(t *testing.T) {
	ctx := context.Background()

	t.Run("author edits own comment", func(t *testing.T) {
		f := newCommentFixture(t)
		c := f.add(t, f.reporter, "Typo here.", "public")

		updated, err := f.svc.UpdateComment(ctx, f.reporter, UpdateCommentInput{
			CommentID: c.ID().String(),
			Body:      "Fixed now.",
		})
		require.NoError(t, err)
		assert.Equal(t, "Fixed now.", updated.Body())
	})

	t.Run("responder cannot edit another author's comment", func(t *testing.T) {
		f := newCommentFixture(t)
		c := f.add(t, f.reporter, "Mine.", "public")

		_, err := f.svc.UpdateComment(ctx, f.responder, UpdateCommentInput{
			CommentID: c.ID().String(),
			Body:      "Hijacked.",
		})
		assert.ErrorIs(t, err, shared.ErrForbidden)
	})

	t.Run("admin makes a comment internal", func(t *testing.T) {
		f := newCommentFixture(t)
		c := f.add(t, f.responder, "Names of witnesses.", "public")

		updated, err := f.svc.UpdateComment(ctx, f.admin, UpdateCommentInput{
			CommentID:  c.ID().String(),
			Visibility: "internal",
		})
		require.NoError(t, err)
		assert.Equal(t, report.VisibilityInternal, updated.Visibility())
		assert.Equal(t, "Names of witnesses.", updated.Body())
	})

	t.Run("author edits body and visibility together", func(t *testing.T) {
		f := newCommentFixture(t)
		c := f.add(t, f.responder, "Draft.", "internal")

		updated, err := f.svc.UpdateComment(ctx, f.responder, UpdateCommentInput{
			CommentID:  c.ID().String(),
			Body:       "Cleaned up for the reporter.",
			Visibility: "public",
		})
		require.NoError(t, err)
		assert.Equal(t, report.VisibilityPublic, updated.Visibility())
		assert.Equal(t, "Cleaned up for the reporter.", updated.Body())
	})

	t.Run("reporter cannot make own comment internal", func(t *testing.T) {
		f := newCommentFixture(t)
		c := f.add(t, f.reporter, "Mine.", "public")

		_, err := f.svc.UpdateComment(ctx, f.reporter, UpdateCommentInput{
			CommentID:  c.ID().String(),
			Visibility: "internal",
		})
		assert.ErrorIs(t, err, shared.ErrForbidden)
	})

	t.Run("empty update rejected", func(t *testing.T) {
		f := newCommentFixture(t)
		c := f.add(t, f.reporter, "Mine.", "public")

		_, err := f.svc.UpdateComment(ctx, f.reporter, UpdateCommentInput{
			CommentID: c.ID().String(),
		})
		assert.ErrorIs(t, err, shared.ErrValidation)
	})

	t.Run("event admin deletes any comment", func(t *testing.T) {
		f := newCommentFixture(t)
		c := f.add(t, f.reporter, "To be removed.", "public")

		require.NoError(t, f.svc.DeleteComment(ctx, f.admin, c.ID().String()))

		_, err := f.comments.GetByID(ctx, c.ID())
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}
