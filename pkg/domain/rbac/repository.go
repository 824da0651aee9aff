package rbac

import (
	"context"

	"github.com/incidenthq/api/pkg/domain/shared"
)

// Assignment is one persisted role-assignment record. A nil EventID
// denotes a global assignment, used exclusively for SuperAdmin. A nil
// OrgID with a nil EventID and a non-global role is rejected at write
// time by the service layer.
type Assignment struct {
	UserID  shared.ID
	Role    Role
	EventID *shared.ID
	OrgID   *shared.ID
}

// AssignmentRepository provides read access to role-assignment records.
// Resolution never creates records; grants go through a separate write path.
type AssignmentRepository interface {
	// ListByUser returns every assignment the user holds, across all scopes.
	// An unknown user yields an empty slice, not an error.
	ListByUser(ctx context.Context, userID shared.ID) ([]Assignment, error)

	// ListEventRoleHolders returns the IDs of users holding any of the
	// given roles in the event. Used for notification fan-out.
	ListEventRoleHolders(ctx context.Context, eventID shared.ID, roles ...Role) ([]shared.ID, error)

	// Grant persists an assignment; replaces an existing event-scoped role
	// for the same (user, event) pair since a user holds at most one.
	Grant(ctx context.Context, a Assignment) error

	// Revoke removes an assignment.
	Revoke(ctx context.Context, a Assignment) error
}
