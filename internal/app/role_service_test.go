package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/incidenthq/api/pkg/domain/rbac"
	"github.com/incidenthq/api/pkg/domain/shared"
	"github.com/incidenthq/api/pkg/logger"
)

type roleFixture struct {
	svc         *RoleService
	assignments *memAssignments

	superAdmin shared.ID
	eventAdmin shared.ID
	responder  shared.ID
	eventID    shared.ID
	otherEvent shared.ID
	orgID      shared.ID
}

func newRoleFixture(t *testing.T) *roleFixture {
	t.Helper()

	f := &roleFixture{
		superAdmin: shared.NewID(),
		eventAdmin: shared.NewID(),
		responder:  shared.NewID(),
		eventID:    shared.NewID(),
		otherEvent: shared.NewID(),
		orgID:      shared.NewID(),
	}

	f.assignments = &memAssignments{grants: []rbac.Assignment{
		{UserID: f.superAdmin, Role: rbac.RoleSuperAdmin},
		{UserID: f.eventAdmin, Role: rbac.RoleEventAdmin, EventID: &f.eventID},
		{UserID: f.responder, Role: rbac.RoleResponder, EventID: &f.eventID},
	}}

	f.svc = NewRoleService(f.assignments, rbac.NewResolver(f.assignments), logger.NewNop())
	return f
}

func TestGrantRole(t *testing.T) {
	ctx := context.Background()

	t.Run("super admin grants any role", func(t *testing.T) {
		f := newRoleFixture(t)

		err := f.svc.GrantRole(ctx, f.superAdmin, GrantRoleInput{
			UserID: shared.NewID().String(),
			Role:   "org_admin",
			OrgID:  f.orgID.String(),
		})

		require.NoError(t, err)
	})

	t.Run("event admin grants responder in own event", func(t *testing.T) {
		f := newRoleFixture(t)
		newUser := shared.NewID()

		err := f.svc.GrantRole(ctx, f.eventAdmin, GrantRoleInput{
			UserID:  newUser.String(),
			Role:    "responder",
			EventID: f.eventID.String(),
		})

		require.NoError(t, err)
		granted, err := f.assignments.ListByUser(ctx, newUser)
		require.NoError(t, err)
		require.Len(t, granted, 1)
		assert.Equal(t, rbac.RoleResponder, granted[0].Role)
	})

	t.Run("event admin cannot grant outside own event", func(t *testing.T) {
		f := newRoleFixture(t)

		err := f.svc.GrantRole(ctx, f.eventAdmin, GrantRoleInput{
			UserID:  shared.NewID().String(),
			Role:    "responder",
			EventID: f.otherEvent.String(),
		})

		assert.ErrorIs(t, err, shared.ErrForbidden)
	})

	t.Run("event admin cannot grant super admin", func(t *testing.T) {
		f := newRoleFixture(t)

		err := f.svc.GrantRole(ctx, f.eventAdmin, GrantRoleInput{
			UserID: shared.NewID().String(),
			Role:   "super_admin",
		})

		assert.ErrorIs(t, err, shared.ErrForbidden)
	})

	t.Run("responder cannot grant at all", func(t *testing.T) {
		f := newRoleFixture(t)

		err := f.svc.GrantRole(ctx, f.responder, GrantRoleInput{
			UserID:  shared.NewID().String(),
			Role:    "reporter",
			EventID: f.eventID.String(),
		})

		assert.ErrorIs(t, err, shared.ErrForbidden)
	})

	t.Run("event scoped role needs an event", func(t *testing.T) {
		f := newRoleFixture(t)

		err := f.svc.GrantRole(ctx, f.superAdmin, GrantRoleInput{
			UserID: shared.NewID().String(),
			Role:   "responder",
		})

		assert.ErrorIs(t, err, shared.ErrValidation)
	})

	t.Run("global role rejects a scope", func(t *testing.T) {
		f := newRoleFixture(t)

		err := f.svc.GrantRole(ctx, f.superAdmin, GrantRoleInput{
			UserID:  shared.NewID().String(),
			Role:    "super_admin",
			EventID: f.eventID.String(),
		})

		assert.ErrorIs(t, err, shared.ErrValidation)
	})
}

func TestRevokeRole(t *testing.T) {
	ctx := context.Background()
	f := newRoleFixture(t)

	err := f.svc.RevokeRole(ctx, f.eventAdmin, GrantRoleInput{
		UserID:  f.responder.String(),
		Role:    "responder",
		EventID: f.eventID.String(),
	})

	require.NoError(t, err)
	remaining, err := f.assignments.ListByUser(ctx, f.responder)
	require.NoError(t, err)
	assert.Empty(t, remaining)
}

func TestListUserAssignments(t *testing.T) {
	ctx := context.Background()

	t.Run("users list their own", func(t *testing.T) {
		f := newRoleFixture(t)

		got, err := f.svc.ListUserAssignments(ctx, f.responder, f.responder.String())
		require.NoError(t, err)
		assert.Len(t, got, 1)
	})

	t.Run("super admin lists anyone", func(t *testing.T) {
		f := newRoleFixture(t)

		got, err := f.svc.ListUserAssignments(ctx, f.superAdmin, f.responder.String())
		require.NoError(t, err)
		assert.Len(t, got, 1)
	})

	t.Run("others forbidden", func(t *testing.T) {
		f := newRoleFixture(t)

		_, err := f.svc.ListUserAssignments(ctx, f.eventAdmin, f.responder.String())
		assert.ErrorIs(t, err, shared.ErrForbidden)
	})
}
