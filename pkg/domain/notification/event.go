package notification

import "github.com/incidenthq/api/pkg/domain/shared"

// Event is the descriptor a completed report action hands to the
// dispatcher. Kind carries the raw type string so legacy aliases from
// older callers normalize at the dispatch boundary.
type Event struct {
	// Kind is the raw notification type; normalized before lookup.
	Kind string

	EventID  shared.ID
	ReportID shared.ID

	// ActorID is excluded from the recipient set. Zero when the action
	// was anonymous or system-initiated.
	ActorID shared.ID

	Title   string
	Message string
}

// ReportSubmitted builds the descriptor for a new report.
func ReportSubmitted(eventID, reportID, actorID shared.ID, title string) Event {
	return Event{
		Kind:     TypeReportSubmitted.String(),
		EventID:  eventID,
		ReportID: reportID,
		ActorID:  actorID,
		Title:    "New report submitted",
		Message:  title,
	}
}

// StateChanged builds the descriptor for a completed transition.
func StateChanged(eventID, reportID, actorID shared.ID, from, to string) Event {
	return Event{
		Kind:     TypeReportStatusChanged.String(),
		EventID:  eventID,
		ReportID: reportID,
		ActorID:  actorID,
		Title:    "Report status changed",
		Message:  from + " -> " + to,
	}
}

// AssignmentChanged builds the descriptor for an assignment change.
func AssignmentChanged(eventID, reportID, actorID shared.ID, assigneeName string) Event {
	msg := "Report unassigned"
	if assigneeName != "" {
		msg = "Assigned to " + assigneeName
	}
	return Event{
		Kind:     TypeReportAssigned.String(),
		EventID:  eventID,
		ReportID: reportID,
		ActorID:  actorID,
		Title:    "Report assignment changed",
		Message:  msg,
	}
}

// CommentAdded builds the descriptor for a new comment.
func CommentAdded(eventID, reportID, actorID shared.ID) Event {
	return Event{
		Kind:     TypeReportCommentAdded.String(),
		EventID:  eventID,
		ReportID: reportID,
		ActorID:  actorID,
		Title:    "New comment on report",
		Message:  "A comment was added to a report you respond to",
	}
}
