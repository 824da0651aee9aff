package rbac

import (
	"context"
	"fmt"

	"github.com/incidenthq/api/pkg/domain/shared"
)

// Resolver computes effective role sets from persisted assignments.
// Resolution is pure and side-effect-free.
type Resolver struct {
	assignments AssignmentRepository
}

// NewResolver creates a Resolver.
func NewResolver(assignments AssignmentRepository) *Resolver {
	return &Resolver{assignments: assignments}
}

// Resolve returns the set of roles the user holds at the given scope.
// A zero or unknown userID yields an empty set: unauthenticated users
// have zero roles everywhere.
func (r *Resolver) Resolve(ctx context.Context, userID shared.ID, scope Scope) (RoleSet, error) {
	set := NewRoleSet()
	if userID.IsZero() {
		return set, nil
	}

	records, err := r.assignments.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list role assignments: %w", err)
	}

	for _, a := range records {
		if assignmentInScope(a, scope) {
			set.Add(a.Role)
		}
	}
	return set, nil
}

// ResolvePrincipal builds the full Principal for a user: global roles
// plus role sets for every event and organization the user belongs to.
func (r *Resolver) ResolvePrincipal(ctx context.Context, userID shared.ID) (Principal, error) {
	if userID.IsZero() {
		return Anonymous(), nil
	}

	records, err := r.assignments.ListByUser(ctx, userID)
	if err != nil {
		return Principal{}, fmt.Errorf("list role assignments: %w", err)
	}

	global := NewRoleSet()
	eventRoles := make(map[shared.ID]RoleSet)
	orgRoles := make(map[shared.ID]RoleSet)

	for _, a := range records {
		switch {
		case a.EventID != nil:
			set, ok := eventRoles[*a.EventID]
			if !ok {
				set = NewRoleSet()
				eventRoles[*a.EventID] = set
			}
			set.Add(a.Role)
		case a.OrgID != nil:
			set, ok := orgRoles[*a.OrgID]
			if !ok {
				set = NewRoleSet()
				orgRoles[*a.OrgID] = set
			}
			set.Add(a.Role)
		default:
			global.Add(a.Role)
		}
	}

	return NewPrincipal(userID, global, eventRoles, orgRoles), nil
}

// HoldsAnyInEvent reports whether the user holds one of the given roles
// in the event. Used for assignee validation.
func (r *Resolver) HoldsAnyInEvent(ctx context.Context, userID, eventID shared.ID, roles ...Role) (bool, error) {
	scope, err := EventScope(eventID)
	if err != nil {
		return false, err
	}
	set, err := r.Resolve(ctx, userID, scope)
	if err != nil {
		return false, err
	}
	for _, role := range roles {
		if set.Has(role) {
			return true, nil
		}
	}
	return false, nil
}

func assignmentInScope(a Assignment, scope Scope) bool {
	switch scope.Kind() {
	case ScopeGlobal:
		return a.EventID == nil && a.OrgID == nil
	case ScopeOrganization:
		return a.OrgID != nil && a.OrgID.Equals(scope.OrgID())
	case ScopeEvent:
		return a.EventID != nil && a.EventID.Equals(scope.EventID())
	default:
		return false
	}
}
