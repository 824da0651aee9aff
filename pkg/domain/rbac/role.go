// Package rbac implements hierarchical role resolution for the
// System -> Organization -> Event scope model.
package rbac

import (
	"fmt"
	"slices"
	"strings"
)

// Role represents a role name at some scope.
type Role string

const (
	RoleSuperAdmin Role = "super_admin"
	RoleOrgAdmin   Role = "org_admin"
	RoleOrgViewer  Role = "org_viewer"
	RoleEventAdmin Role = "event_admin"
	RoleResponder  Role = "responder"
	RoleReporter   Role = "reporter"
)

// AllRoles returns all valid roles.
func AllRoles() []Role {
	return []Role{
		RoleSuperAdmin,
		RoleOrgAdmin,
		RoleOrgViewer,
		RoleEventAdmin,
		RoleResponder,
		RoleReporter,
	}
}

// IsValid checks if the role is valid.
func (r Role) IsValid() bool {
	return slices.Contains(AllRoles(), r)
}

// String returns the string representation.
func (r Role) String() string {
	return string(r)
}

// ParseRole parses a string into a Role.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if !r.IsValid() {
		return "", fmt.Errorf("invalid role: %s", s)
	}
	return r, nil
}

// Rank returns the privilege rank of the role for "is at least as
// privileged as" comparisons within a single scope. Organization-scoped
// roles rank zero: they never grant report-level access by themselves.
func (r Role) Rank() int {
	switch r {
	case RoleSuperAdmin:
		return 100
	case RoleEventAdmin:
		return 60
	case RoleResponder:
		return 40
	case RoleReporter:
		return 20
	default:
		return 0
	}
}

// IsGlobal reports whether the role may only be assigned at global scope.
func (r Role) IsGlobal() bool {
	return r == RoleSuperAdmin
}

// IsOrgScoped reports whether the role belongs to the organization dimension.
func (r Role) IsOrgScoped() bool {
	return r == RoleOrgAdmin || r == RoleOrgViewer
}

// IsEventScoped reports whether the role may be assigned at event scope.
func (r Role) IsEventScoped() bool {
	return r == RoleEventAdmin || r == RoleResponder || r == RoleReporter
}

// RoleSet is the set of roles a user holds at one scope.
type RoleSet map[Role]struct{}

// NewRoleSet builds a RoleSet from the given roles.
func NewRoleSet(roles ...Role) RoleSet {
	set := make(RoleSet, len(roles))
	for _, r := range roles {
		set[r] = struct{}{}
	}
	return set
}

// Has checks membership.
func (s RoleSet) Has(r Role) bool {
	_, ok := s[r]
	return ok
}

// Add inserts a role into the set.
func (s RoleSet) Add(r Role) {
	s[r] = struct{}{}
}

// IsEmpty reports whether the set holds no roles.
func (s RoleSet) IsEmpty() bool {
	return len(s) == 0
}

// Rank reduces the set to its highest rank. An empty set ranks below
// every role, which composes with deny-by-default policies.
func (s RoleSet) Rank() int {
	rank := 0
	for r := range s {
		if r.Rank() > rank {
			rank = r.Rank()
		}
	}
	return rank
}

// Highest returns the highest-ranked role in the set. Business logic
// treats this role as authoritative when a set holds more than one.
func (s RoleSet) Highest() (Role, bool) {
	var best Role
	found := false
	for r := range s {
		if !found || r.Rank() > best.Rank() {
			best = r
			found = true
		}
	}
	return best, found
}

// Roles returns the members in deterministic (rank-descending) order.
func (s RoleSet) Roles() []Role {
	out := make([]Role, 0, len(s))
	for r := range s {
		out = append(out, r)
	}
	slices.SortFunc(out, func(a, b Role) int {
		if d := b.Rank() - a.Rank(); d != 0 {
			return d
		}
		return strings.Compare(string(a), string(b))
	})
	return out
}
