package report

import (
	"fmt"
	"slices"
	"strings"
)

// State represents the lifecycle state of a report.
type State string

const (
	StateSubmitted     State = "submitted"
	StateAcknowledged  State = "acknowledged"
	StateInvestigating State = "investigating"
	StateResolved      State = "resolved"
	StateClosed        State = "closed"
)

// AllStates returns all valid states.
func AllStates() []State {
	return []State{
		StateSubmitted,
		StateAcknowledged,
		StateInvestigating,
		StateResolved,
		StateClosed,
	}
}

// IsValid checks if the state is valid.
func (s State) IsValid() bool {
	return slices.Contains(AllStates(), s)
}

// String returns the string representation.
func (s State) String() string {
	return string(s)
}

// ParseState parses a string into a State.
func ParseState(str string) (State, error) {
	s := State(strings.ToLower(strings.TrimSpace(str)))
	if !s.IsValid() {
		return "", fmt.Errorf("invalid state: %s", str)
	}
	return s, nil
}

// IsTerminal reports whether the state has no outbound transitions.
func (s State) IsTerminal() bool {
	return s == StateClosed
}

// CanTransitionTo checks the transition adjacency. Skipping intermediate
// states forward is deliberate: a report may be resolved straight from
// submitted when no distinct investigation phase happened.
func (s State) CanTransitionTo(target State) bool {
	switch s {
	case StateSubmitted:
		return target == StateAcknowledged || target == StateInvestigating ||
			target == StateResolved || target == StateClosed
	case StateAcknowledged:
		return target == StateInvestigating || target == StateResolved || target == StateClosed
	case StateInvestigating:
		return target == StateResolved || target == StateClosed
	case StateResolved:
		return target == StateClosed
	default:
		return false
	}
}

// RequiresNotes reports whether transitions into this state must carry
// non-blank notes.
func (s State) RequiresNotes() bool {
	return s == StateInvestigating || s == StateResolved
}

// RequiresAssignee reports whether transitions into this state must have
// an assigned responder. Investigation without accountability data is the
// common failure mode this guard exists for.
func (s State) RequiresAssignee() bool {
	return s == StateInvestigating
}

// Severity represents the severity assessment of a report.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
)

// AllSeverities returns all valid severity levels.
func AllSeverities() []Severity {
	return []Severity{SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow}
}

// IsValid checks if the severity is valid.
func (s Severity) IsValid() bool {
	return slices.Contains(AllSeverities(), s)
}

// String returns the string representation.
func (s Severity) String() string {
	return string(s)
}

// ParseSeverity parses a string into a Severity.
func ParseSeverity(str string) (Severity, error) {
	s := Severity(strings.ToLower(strings.TrimSpace(str)))
	if !s.IsValid() {
		return "", fmt.Errorf("invalid severity: %s", str)
	}
	return s, nil
}

// Type classifies the nature of the reported incident.
type Type string

const (
	TypeHarassment Type = "harassment"
	TypeSafety     Type = "safety"
	TypeOther      Type = "other"
)

// AllTypes returns all valid report types.
func AllTypes() []Type {
	return []Type{TypeHarassment, TypeSafety, TypeOther}
}

// IsValid checks if the type is valid.
func (t Type) IsValid() bool {
	return slices.Contains(AllTypes(), t)
}

// String returns the string representation.
func (t Type) String() string {
	return string(t)
}

// ParseType parses a string into a Type.
func ParseType(str string) (Type, error) {
	t := Type(strings.ToLower(strings.TrimSpace(str)))
	if !t.IsValid() {
		return "", fmt.Errorf("invalid report type: %s", str)
	}
	return t, nil
}

// Visibility controls who may read a comment.
type Visibility string

const (
	// VisibilityPublic comments are readable by anyone who can read the report.
	VisibilityPublic Visibility = "public"
	// VisibilityInternal comments are restricted to responder rank and above.
	VisibilityInternal Visibility = "internal"
)

// IsValid checks if the visibility is valid.
func (v Visibility) IsValid() bool {
	return v == VisibilityPublic || v == VisibilityInternal
}

// String returns the string representation.
func (v Visibility) String() string {
	return string(v)
}

// ParseVisibility parses a string into a Visibility.
func ParseVisibility(str string) (Visibility, error) {
	v := Visibility(strings.ToLower(strings.TrimSpace(str)))
	if !v.IsValid() {
		return "", fmt.Errorf("invalid comment visibility: %s", str)
	}
	return v, nil
}
