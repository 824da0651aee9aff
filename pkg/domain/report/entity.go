// Package report holds the incident report aggregate: the report entity,
// its state machine, comments, evidence files, and the visibility policy
// governing who may see and change them.
package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/incidenthq/api/pkg/domain/shared"
)

// Report is an incident report owned by an event. It is mutated only
// through validated transitions and assignment changes; the engine never
// deletes reports.
type Report struct {
	id                  shared.ID
	eventID             shared.ID
	reporterID          *shared.ID // nil for anonymous submissions
	title               string
	description         string
	reportType          Type
	state               State
	severity            *Severity
	assignedResponderID *shared.ID
	createdAt           time.Time
	updatedAt           time.Time
}

// NewReport creates a newly submitted report. A nil reporterID denotes an
// anonymous submission.
func NewReport(eventID shared.ID, reporterID *shared.ID, title, description string, reportType Type, now time.Time) (*Report, error) {
	if eventID.IsZero() {
		return nil, fmt.Errorf("%w: event ID is required", shared.ErrValidation)
	}
	if strings.TrimSpace(title) == "" {
		return nil, fmt.Errorf("%w: title is required", shared.ErrValidation)
	}
	if strings.TrimSpace(description) == "" {
		return nil, fmt.Errorf("%w: description is required", shared.ErrValidation)
	}
	if !reportType.IsValid() {
		return nil, fmt.Errorf("%w: invalid report type", shared.ErrValidation)
	}

	return &Report{
		id:          shared.NewID(),
		eventID:     eventID,
		reporterID:  reporterID,
		title:       title,
		description: description,
		reportType:  reportType,
		state:       StateSubmitted,
		createdAt:   now,
		updatedAt:   now,
	}, nil
}

// Reconstitute recreates a Report from persistence.
func Reconstitute(
	id shared.ID,
	eventID shared.ID,
	reporterID *shared.ID,
	title string,
	description string,
	reportType Type,
	state State,
	severity *Severity,
	assignedResponderID *shared.ID,
	createdAt, updatedAt time.Time,
) *Report {
	return &Report{
		id:                  id,
		eventID:             eventID,
		reporterID:          reporterID,
		title:               title,
		description:         description,
		reportType:          reportType,
		state:               state,
		severity:            severity,
		assignedResponderID: assignedResponderID,
		createdAt:           createdAt,
		updatedAt:           updatedAt,
	}
}

// ID returns the report ID.
func (r *Report) ID() shared.ID { return r.id }

// EventID returns the owning event's ID.
func (r *Report) EventID() shared.ID { return r.eventID }

// ReporterID returns the reporter's user ID, nil for anonymous reports.
func (r *Report) ReporterID() *shared.ID { return r.reporterID }

// IsReporter reports whether the given user submitted this report.
func (r *Report) IsReporter(userID shared.ID) bool {
	return r.reporterID != nil && !userID.IsZero() && r.reporterID.Equals(userID)
}

// Title returns the report title.
func (r *Report) Title() string { return r.title }

// Description returns the report description.
func (r *Report) Description() string { return r.description }

// Type returns the report type.
func (r *Report) Type() Type { return r.reportType }

// State returns the current lifecycle state.
func (r *Report) State() State { return r.state }

// Severity returns the severity assessment, nil if not yet set.
func (r *Report) Severity() *Severity { return r.severity }

// AssignedResponderID returns the assigned responder's user ID, nil when
// unassigned.
func (r *Report) AssignedResponderID() *shared.ID { return r.assignedResponderID }

// CreatedAt returns the creation timestamp.
func (r *Report) CreatedAt() time.Time { return r.createdAt }

// UpdatedAt returns the last update timestamp. It doubles as the
// optimistic-concurrency token for conditional updates.
func (r *Report) UpdatedAt() time.Time { return r.updatedAt }

// UpdateTitle replaces the report title.
func (r *Report) UpdateTitle(title string, now time.Time) error {
	if strings.TrimSpace(title) == "" {
		return fmt.Errorf("%w: title is required", shared.ErrValidation)
	}
	r.title = title
	r.updatedAt = now
	return nil
}

// UpdateDescription replaces the report description.
func (r *Report) UpdateDescription(description string, now time.Time) error {
	if strings.TrimSpace(description) == "" {
		return fmt.Errorf("%w: description is required", shared.ErrValidation)
	}
	r.description = description
	r.updatedAt = now
	return nil
}

// SetSeverity sets or clears the severity assessment.
func (r *Report) SetSeverity(severity *Severity, now time.Time) error {
	if severity != nil && !severity.IsValid() {
		return fmt.Errorf("%w: invalid severity", shared.ErrValidation)
	}
	r.severity = severity
	r.updatedAt = now
	return nil
}

// Assign sets or clears (nil) the assigned responder. Role validation of
// the assignee happens in the application layer, which can see the
// event's role assignments.
func (r *Report) Assign(responderID *shared.ID, now time.Time) {
	r.assignedResponderID = responderID
	r.updatedAt = now
}

// TransitionTo validates and applies a state transition, returning the
// immutable history entry to append. The assignee-role and actor-rank
// guards are enforced by the caller; this method enforces adjacency, the
// notes guard, and the structural half of the assignee guard (some
// responder must end up assigned when the target requires one).
func (r *Report) TransitionTo(target State, actorID shared.ID, notes string, assigneeID *shared.ID, now time.Time) (*StateChange, error) {
	if !target.IsValid() {
		return nil, fmt.Errorf("%w: unknown state %q", ErrInvalidTransition, string(target))
	}
	if !r.state.CanTransitionTo(target) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, r.state, target)
	}
	if target.RequiresNotes() && strings.TrimSpace(notes) == "" {
		return nil, fmt.Errorf("%w: transition to %s", ErrMissingNotes, target)
	}
	if target.RequiresAssignee() && assigneeID == nil && r.assignedResponderID == nil {
		return nil, fmt.Errorf("%w: transition to %s", ErrMissingOrInvalidAssignee, target)
	}

	from := r.state
	r.state = target
	if assigneeID != nil {
		r.assignedResponderID = assigneeID
	}
	r.updatedAt = now

	return NewStateChange(r.id, from, target, actorID, notes, now), nil
}
