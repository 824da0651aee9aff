package rbac

import "github.com/incidenthq/api/pkg/domain/shared"

// Principal is a resolved identity plus its role memberships at every
// scope relevant to the current operation. Engine entry points take a
// fully-resolved Principal instead of reaching into request context, so
// the engine stays testable without an HTTP layer.
type Principal struct {
	userID      shared.ID
	globalRoles RoleSet
	eventRoles  map[shared.ID]RoleSet
	orgRoles    map[shared.ID]RoleSet
}

// NewPrincipal creates a Principal. Nil role maps are normalized to empty.
func NewPrincipal(userID shared.ID, global RoleSet, eventRoles, orgRoles map[shared.ID]RoleSet) Principal {
	if global == nil {
		global = NewRoleSet()
	}
	if eventRoles == nil {
		eventRoles = make(map[shared.ID]RoleSet)
	}
	if orgRoles == nil {
		orgRoles = make(map[shared.ID]RoleSet)
	}
	return Principal{
		userID:      userID,
		globalRoles: global,
		eventRoles:  eventRoles,
		orgRoles:    orgRoles,
	}
}

// Anonymous returns a principal with no identity and no roles.
// Unknown and unauthenticated users are modeled as zero roles everywhere.
func Anonymous() Principal {
	return NewPrincipal(shared.ID{}, nil, nil, nil)
}

// UserID returns the principal's user ID. Zero for anonymous.
func (p Principal) UserID() shared.ID {
	return p.userID
}

// IsAnonymous reports whether the principal carries no identity.
func (p Principal) IsAnonymous() bool {
	return p.userID.IsZero()
}

// IsSuperAdmin reports whether the principal holds the global SuperAdmin role.
func (p Principal) IsSuperAdmin() bool {
	return p.globalRoles.Has(RoleSuperAdmin)
}

// GlobalRoles returns the global role set.
func (p Principal) GlobalRoles() RoleSet {
	return p.globalRoles
}

// EventRoles returns the role set held in the given event, never nil.
func (p Principal) EventRoles(eventID shared.ID) RoleSet {
	if set, ok := p.eventRoles[eventID]; ok {
		return set
	}
	return NewRoleSet()
}

// OrgRoles returns the role set held in the given organization, never nil.
func (p Principal) OrgRoles(orgID shared.ID) RoleSet {
	if set, ok := p.orgRoles[orgID]; ok {
		return set
	}
	return NewRoleSet()
}

// RankIn returns the principal's effective rank in an event scope.
// SuperAdmin overrides from global scope; organization roles do not
// contribute (they are a parallel dimension).
func (p Principal) RankIn(eventID shared.ID) int {
	if p.IsSuperAdmin() {
		return RoleSuperAdmin.Rank()
	}
	return p.EventRoles(eventID).Rank()
}

// HasRankIn reports whether the principal's rank in the event scope is at
// least the rank of the given role.
func (p Principal) HasRankIn(eventID shared.ID, r Role) bool {
	return p.RankIn(eventID) >= r.Rank()
}
