package report

import "errors"

// Lifecycle errors. These are expected business-rule violations: callers
// recover them locally and surface 4xx-equivalent responses.
var (
	// ErrInvalidTransition is returned when the target state is not
	// reachable from the current state, including a stale precondition
	// after losing an optimistic-concurrency race.
	ErrInvalidTransition = errors.New("invalid state transition")

	// ErrMissingNotes is returned when the target state requires
	// transition notes and none were supplied.
	ErrMissingNotes = errors.New("transition notes are required")

	// ErrMissingOrInvalidAssignee is returned when the target state
	// requires an assigned responder and none is set or supplied, or the
	// supplied assignee does not hold a responder role in the event.
	ErrMissingOrInvalidAssignee = errors.New("missing or invalid assignee")

	// ErrInvalidAssignee is returned by assignment changes when the
	// assignee does not hold responder or event admin in the event.
	ErrInvalidAssignee = errors.New("assignee must be a responder or event admin in this event")
)
