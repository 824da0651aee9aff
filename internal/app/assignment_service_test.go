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
	"github.com/incidenthq/api/pkg/domain/user"
	"github.com/incidenthq/api/pkg/logger"
)

type assignmentFixture struct {
	svc      *AssignmentService
	notifier *captureNotifier

	report    *report.Report
	eventID   shared.ID
	reporter  shared.ID
	responder shared.ID
	admin     shared.ID
	outsider  shared.ID
}

func newAssignmentFixture(t *testing.T) *assignmentFixture {
	t.Helper()

	clock := shared.FixedClock{T: time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)}
	f := &assignmentFixture{
		notifier: &captureNotifier{},
		eventID:  shared.NewID(),
		reporter: shared.NewID(),
		outsider: shared.NewID(),
	}

	users := newMemUserRepo()
	addUser := func(email, name string) shared.ID {
		u, err := user.New(email, name, "$2a$12$hash", clock.Now())
		require.NoError(t, err)
		require.NoError(t, users.Create(context.Background(), u))
		return u.ID()
	}
	f.responder = addUser("responder@example.com", "Rene")
	f.admin = addUser("admin@example.com", "Alex")

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

	f.svc = NewAssignmentService(reports, users, resolver, f.notifier, clock, logger.NewNop())
	return f
}

func TestAssign(t *testing.T) {
	ctx := context.Background()

	t.Run("responder assigns to themselves", func(t *testing.T) {
		f := newAssignmentFixture(t)

		r, err := f.svc.Assign(ctx, f.responder, AssignInput{
			ReportID:   f.report.ID().String(),
			AssigneeID: f.responder.String(),
		})

		require.NoError(t, err)
		require.NotNil(t, r.AssignedResponderID())
		assert.True(t, r.AssignedResponderID().Equals(f.responder))

		require.Len(t, f.notifier.events, 1)
		assert.Equal(t, "report_assigned", f.notifier.events[0].Kind)
		assert.Contains(t, f.notifier.events[0].Message, "Rene")
	})

	t.Run("event admin is a valid assignee", func(t *testing.T) {
		f := newAssignmentFixture(t)

		r, err := f.svc.Assign(ctx, f.admin, AssignInput{
			ReportID:   f.report.ID().String(),
			AssigneeID: f.admin.String(),
		})

		require.NoError(t, err)
		assert.True(t, r.AssignedResponderID().Equals(f.admin))
	})

	t.Run("assignee without event role rejected", func(t *testing.T) {
		f := newAssignmentFixture(t)

		_, err := f.svc.Assign(ctx, f.responder, AssignInput{
			ReportID:   f.report.ID().String(),
			AssigneeID: f.outsider.String(),
		})

		assert.ErrorIs(t, err, report.ErrInvalidAssignee)
	})

	t.Run("reporter cannot assign", func(t *testing.T) {
		f := newAssignmentFixture(t)

		_, err := f.svc.Assign(ctx, f.reporter, AssignInput{
			ReportID:   f.report.ID().String(),
			AssigneeID: f.responder.String(),
		})

		assert.ErrorIs(t, err, shared.ErrForbidden)
	})
}

func TestUnassign(t *testing.T) {
	ctx := context.Background()

	t.Run("event admin unassigns", func(t *testing.T) {
		f := newAssignmentFixture(t)
		_, err := f.svc.Assign(ctx, f.responder, AssignInput{
			ReportID:   f.report.ID().String(),
			AssigneeID: f.responder.String(),
		})
		require.NoError(t, err)

		r, err := f.svc.Unassign(ctx, f.admin, f.report.ID().String())

		require.NoError(t, err)
		assert.Nil(t, r.AssignedResponderID())
	})

	t.Run("plain responder cannot unassign", func(t *testing.T) {
		f := newAssignmentFixture(t)
		_, err := f.svc.Assign(ctx, f.responder, AssignInput{
			ReportID:   f.report.ID().String(),
			AssigneeID: f.responder.String(),
		})
		require.NoError(t, err)

		_, err = f.svc.Unassign(ctx, f.responder, f.report.ID().String())

		assert.ErrorIs(t, err, shared.ErrForbidden)
	})
}
