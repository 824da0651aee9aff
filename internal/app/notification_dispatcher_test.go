package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/incidenthq/api/pkg/domain/event"
	"github.com/incidenthq/api/pkg/domain/notification"
	"github.com/incidenthq/api/pkg/domain/rbac"
	"github.com/incidenthq/api/pkg/domain/shared"
	"github.com/incidenthq/api/pkg/domain/user"
	"github.com/incidenthq/api/pkg/logger"
)

type dispatcherFixture struct {
	dispatcher *NotificationDispatcher
	records    *memNotificationRepo
	settings   *memSettingsRepo
	enqueuer   *captureEnqueuer
	users      *memUserRepo
	clock      shared.FixedClock

	eventID    shared.ID
	responderA shared.ID
	responderB shared.ID
	admin      shared.ID
}

func newDispatcherFixture(t *testing.T) *dispatcherFixture {
	t.Helper()

	clock := shared.FixedClock{T: time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)}
	f := &dispatcherFixture{
		records:  &memNotificationRepo{},
		settings: newMemSettingsRepo(clock),
		enqueuer: &captureEnqueuer{},
		users:    newMemUserRepo(),
		clock:    clock,
	}

	events := newMemEventRepo()
	e, err := event.New(shared.NewID(), "GopherConf 2026", "gopherconf-2026", clock.Now())
	require.NoError(t, err)
	require.NoError(t, events.Create(context.Background(), e))
	f.eventID = e.ID()

	addUser := func(email, name string) shared.ID {
		u, err := user.New(email, name, "$2a$12$hash", clock.Now())
		require.NoError(t, err)
		require.NoError(t, f.users.Create(context.Background(), u))
		return u.ID()
	}
	f.responderA = addUser("ana@example.com", "Ana")
	f.responderB = addUser("bo@example.com", "Bo")
	f.admin = addUser("admin@example.com", "Admin")

	assignments := &memAssignments{grants: []rbac.Assignment{
		{UserID: f.responderA, Role: rbac.RoleResponder, EventID: &f.eventID},
		{UserID: f.responderB, Role: rbac.RoleResponder, EventID: &f.eventID},
		// responderB also holds event admin; must still receive only one record.
		{UserID: f.responderB, Role: rbac.RoleEventAdmin, EventID: &f.eventID},
		{UserID: f.admin, Role: rbac.RoleEventAdmin, EventID: &f.eventID},
	}}

	f.dispatcher = NewNotificationDispatcher(
		f.records,
		f.settings,
		assignments,
		f.users,
		events,
		f.enqueuer,
		clock,
		logger.NewNop(),
	)
	return f
}

func (f *dispatcherFixture) event(kind string, actorID shared.ID) notification.Event {
	return notification.Event{
		Kind:     kind,
		EventID:  f.eventID,
		ReportID: shared.NewID(),
		ActorID:  actorID,
		Title:    "New report",
		Message:  "A report was submitted.",
	}
}

func TestDispatchFanOut(t *testing.T) {
	ctx := context.Background()

	t.Run("excludes actor and dedupes multi-role holders", func(t *testing.T) {
		f := newDispatcherFixture(t)

		err := f.dispatcher.Dispatch(ctx, f.event("report_submitted", f.responderA))
		require.NoError(t, err)

		assert.Empty(t, f.records.forUser(f.responderA))
		assert.Len(t, f.records.forUser(f.responderB), 1)
		assert.Len(t, f.records.forUser(f.admin), 1)
	})

	t.Run("anonymous actor notifies everyone", func(t *testing.T) {
		f := newDispatcherFixture(t)

		err := f.dispatcher.Dispatch(ctx, f.event("report_submitted", shared.ID{}))
		require.NoError(t, err)

		assert.Len(t, f.records.records, 3)
	})

	t.Run("creates settings lazily with emails enabled", func(t *testing.T) {
		f := newDispatcherFixture(t)

		err := f.dispatcher.Dispatch(ctx, f.event("report_submitted", f.admin))
		require.NoError(t, err)

		assert.Equal(t, 2, f.settings.creates)
		assert.Len(t, f.enqueuer.payloads, 2)
	})

	t.Run("skips email when the type is disabled", func(t *testing.T) {
		f := newDispatcherFixture(t)

		s, err := f.settings.GetOrCreate(ctx, f.responderA)
		require.NoError(t, err)
		s.SetEmailEnabled(notification.TypeReportSubmitted, false, f.clock.Now())

		err = f.dispatcher.Dispatch(ctx, f.event("report_submitted", f.admin))
		require.NoError(t, err)

		// Record exists, email does not.
		assert.Len(t, f.records.forUser(f.responderA), 1)
		require.Len(t, f.enqueuer.payloads, 1)
		assert.Equal(t, f.responderB.String(), f.enqueuer.payloads[0].UserID)
	})

	t.Run("record persists when enqueue fails", func(t *testing.T) {
		f := newDispatcherFixture(t)
		f.enqueuer.failWith = errors.New("broker down")

		err := f.dispatcher.Dispatch(ctx, f.event("report_submitted", f.admin))
		require.NoError(t, err)

		assert.Len(t, f.records.records, 2)
		assert.Empty(t, f.enqueuer.payloads)
	})

	t.Run("payload carries the event name", func(t *testing.T) {
		f := newDispatcherFixture(t)

		err := f.dispatcher.Dispatch(ctx, f.event("report_assigned", f.admin))
		require.NoError(t, err)

		require.NotEmpty(t, f.enqueuer.payloads)
		assert.Equal(t, "GopherConf 2026", f.enqueuer.payloads[0].EventName)
	})
}

func TestDispatchTypeNormalization(t *testing.T) {
	ctx := context.Background()

	t.Run("legacy alias normalizes to canonical type", func(t *testing.T) {
		f := newDispatcherFixture(t)

		err := f.dispatcher.Dispatch(ctx, f.event("assigned", f.admin))
		require.NoError(t, err)

		records := f.records.forUser(f.responderA)
		require.Len(t, records, 1)
		assert.Equal(t, notification.TypeReportAssigned, records[0].Type())
	})

	t.Run("unknown kind falls back to report_submitted", func(t *testing.T) {
		f := newDispatcherFixture(t)

		err := f.dispatcher.Dispatch(ctx, f.event("report_escalated", f.admin))
		require.NoError(t, err)

		records := f.records.forUser(f.responderA)
		require.Len(t, records, 1)
		assert.Equal(t, notification.TypeReportSubmitted, records[0].Type())
	})
}

func TestDispatchWithoutEnqueuer(t *testing.T) {
	f := newDispatcherFixture(t)
	f.dispatcher.enqueuer = nil

	err := f.dispatcher.Dispatch(context.Background(), f.event("report_submitted", f.admin))
	require.NoError(t, err)

	assert.Len(t, f.records.records, 2)
}
