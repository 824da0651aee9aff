package report

import (
	"time"

	"github.com/incidenthq/api/pkg/domain/shared"
)

// StateChange is one immutable entry in a report's state history.
type StateChange struct {
	id        shared.ID
	reportID  shared.ID
	fromState State
	toState   State
	changedBy shared.ID // zero for system-initiated changes
	notes     string
	changedAt time.Time
}

// NewStateChange creates a history entry for a completed transition.
func NewStateChange(reportID shared.ID, from, to State, changedBy shared.ID, notes string, changedAt time.Time) *StateChange {
	return &StateChange{
		id:        shared.NewID(),
		reportID:  reportID,
		fromState: from,
		toState:   to,
		changedBy: changedBy,
		notes:     notes,
		changedAt: changedAt,
	}
}

// ReconstituteStateChange recreates a StateChange from persistence.
func ReconstituteStateChange(id, reportID shared.ID, from, to State, changedBy shared.ID, notes string, changedAt time.Time) *StateChange {
	return &StateChange{
		id:        id,
		reportID:  reportID,
		fromState: from,
		toState:   to,
		changedBy: changedBy,
		notes:     notes,
		changedAt: changedAt,
	}
}

// ID returns the entry ID.
func (c *StateChange) ID() shared.ID { return c.id }

// ReportID returns the report this entry belongs to.
func (c *StateChange) ReportID() shared.ID { return c.reportID }

// From returns the state before the transition.
func (c *StateChange) From() State { return c.fromState }

// To returns the state after the transition.
func (c *StateChange) To() State { return c.toState }

// ChangedBy returns the acting user's ID.
func (c *StateChange) ChangedBy() shared.ID { return c.changedBy }

// Notes returns the transition notes.
func (c *StateChange) Notes() string { return c.notes }

// ChangedAt returns when the transition happened.
func (c *StateChange) ChangedAt() time.Time { return c.changedAt }
