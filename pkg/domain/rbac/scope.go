package rbac

import (
	"fmt"

	"github.com/incidenthq/api/pkg/domain/shared"
)

// ScopeKind discriminates the boundary a role applies at.
type ScopeKind string

const (
	ScopeGlobal       ScopeKind = "global"
	ScopeOrganization ScopeKind = "organization"
	ScopeEvent        ScopeKind = "event"
)

// Scope describes the boundary at which roles are resolved.
type Scope struct {
	kind    ScopeKind
	orgID   shared.ID
	eventID shared.ID
}

// GlobalScope returns the global scope.
func GlobalScope() Scope {
	return Scope{kind: ScopeGlobal}
}

// OrgScope returns the scope of a single organization.
func OrgScope(orgID shared.ID) (Scope, error) {
	if orgID.IsZero() {
		return Scope{}, fmt.Errorf("%w: organization ID is required", shared.ErrValidation)
	}
	return Scope{kind: ScopeOrganization, orgID: orgID}, nil
}

// EventScope returns the scope of a single event.
func EventScope(eventID shared.ID) (Scope, error) {
	if eventID.IsZero() {
		return Scope{}, fmt.Errorf("%w: event ID is required", shared.ErrValidation)
	}
	return Scope{kind: ScopeEvent, eventID: eventID}, nil
}

// MustEventScope builds an event scope, panics on a zero ID. Test helper.
func MustEventScope(eventID shared.ID) Scope {
	s, err := EventScope(eventID)
	if err != nil {
		panic(err)
	}
	return s
}

// Kind returns the scope kind.
func (s Scope) Kind() ScopeKind {
	return s.kind
}

// OrgID returns the organization ID for organization scopes.
func (s Scope) OrgID() shared.ID {
	return s.orgID
}

// EventID returns the event ID for event scopes.
func (s Scope) EventID() shared.ID {
	return s.eventID
}

// String renders the scope for logging.
func (s Scope) String() string {
	switch s.kind {
	case ScopeOrganization:
		return fmt.Sprintf("org:%s", s.orgID)
	case ScopeEvent:
		return fmt.Sprintf("event:%s", s.eventID)
	default:
		return "global"
	}
}
