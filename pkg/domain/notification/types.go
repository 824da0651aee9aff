// Package notification holds per-user notification records, delivery
// preferences, and the event descriptors the dispatcher fans out.
package notification

import "strings"

// Type is the canonical notification type.
type Type string

const (
	TypeReportSubmitted     Type = "report_submitted"
	TypeReportAssigned      Type = "report_assigned"
	TypeReportStatusChanged Type = "report_status_changed"
	TypeReportCommentAdded  Type = "report_comment_added"
)

// AllTypes returns all canonical types.
func AllTypes() []Type {
	return []Type{
		TypeReportSubmitted,
		TypeReportAssigned,
		TypeReportStatusChanged,
		TypeReportCommentAdded,
	}
}

// IsValid checks if the type is canonical.
func (t Type) IsValid() bool {
	switch t {
	case TypeReportSubmitted, TypeReportAssigned, TypeReportStatusChanged, TypeReportCommentAdded:
		return true
	}
	return false
}

// String returns the string representation.
func (t Type) String() string {
	return string(t)
}

// legacyAliases maps pre-rename type strings to their canonical form.
// Older rows and callers still use the short names.
var legacyAliases = map[string]Type{
	"submitted":      TypeReportSubmitted,
	"assigned":       TypeReportAssigned,
	"status_changed": TypeReportStatusChanged,
	"comment_added":  TypeReportCommentAdded,
}

// Normalize maps a raw type string to a canonical Type. The second
// return is false for unrecognized input, in which case the result falls
// back to report_submitted; callers log a warning but do not fail
// dispatch over it.
func Normalize(raw string) (Type, bool) {
	s := strings.ToLower(strings.TrimSpace(raw))
	if t := Type(s); t.IsValid() {
		return t, true
	}
	if t, ok := legacyAliases[s]; ok {
		return t, true
	}
	return TypeReportSubmitted, false
}

// Priority orders notifications for display.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityNormal Priority = "normal"
)

// IsValid checks if the priority is valid.
func (p Priority) IsValid() bool {
	return p == PriorityHigh || p == PriorityNormal
}

// String returns the string representation.
func (p Priority) String() string {
	return string(p)
}

// PriorityFor returns the record priority for a notification type. New
// submissions are the only high-priority fan-out.
func PriorityFor(t Type) Priority {
	if t == TypeReportSubmitted {
		return PriorityHigh
	}
	return PriorityNormal
}
