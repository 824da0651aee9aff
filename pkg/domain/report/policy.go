package report

import "github.com/incidenthq/api/pkg/domain/rbac"

// Visibility policy: pure predicates deciding what a principal may see
// and do on a report and its children. They never return errors; callers
// interpret false as a 403. All rank comparisons route through
// rbac role ranks so there is a single privilege ordering.

// CanReadReport is true when the principal holds responder rank or above
// in the report's event, or submitted the report. SuperAdmin always true.
func CanReadReport(p rbac.Principal, r *Report) bool {
	if p.IsSuperAdmin() {
		return true
	}
	if r.IsReporter(p.UserID()) {
		return true
	}
	return p.HasRankIn(r.EventID(), rbac.RoleResponder)
}

// CanWriteReport gates state and assignment changes: responder rank or
// above in the event, or SuperAdmin. Reporters cannot drive the workflow
// of their own reports.
func CanWriteReport(p rbac.Principal, r *Report) bool {
	if p.IsSuperAdmin() {
		return true
	}
	return p.HasRankIn(r.EventID(), rbac.RoleResponder)
}

// CanReadComment requires read access to the report; internal comments
// additionally require responder rank.
func CanReadComment(p rbac.Principal, r *Report, c *Comment) bool {
	if !CanReadReport(p, r) {
		return false
	}
	if c.IsInternal() {
		return p.IsSuperAdmin() || p.HasRankIn(r.EventID(), rbac.RoleResponder)
	}
	return true
}

// CanComment is true when the principal can read the report and is not
// anonymous. Reporters may comment on their own reports (public only,
// enforced by the service), responders and above on any report in scope.
func CanComment(p rbac.Principal, r *Report) bool {
	return !p.IsAnonymous() && CanReadReport(p, r)
}

// CanEditComment allows the author or admin rank in the event.
func CanEditComment(p rbac.Principal, r *Report, c *Comment) bool {
	if p.IsSuperAdmin() {
		return true
	}
	if !p.IsAnonymous() && c.AuthorID().Equals(p.UserID()) {
		return true
	}
	return p.HasRankIn(r.EventID(), rbac.RoleEventAdmin)
}

// CanEditTitle allows admin rank or above, or the reporter.
func CanEditTitle(p rbac.Principal, r *Report) bool {
	if p.IsSuperAdmin() {
		return true
	}
	if r.IsReporter(p.UserID()) {
		return true
	}
	return p.HasRankIn(r.EventID(), rbac.RoleEventAdmin)
}

// CanEditDescription allows the reporter to amend their own descriptive
// fields, and responder rank and above.
func CanEditDescription(p rbac.Principal, r *Report) bool {
	if p.IsSuperAdmin() {
		return true
	}
	if r.IsReporter(p.UserID()) {
		return true
	}
	return p.HasRankIn(r.EventID(), rbac.RoleResponder)
}

// CanEditSeverity allows responder rank and above only.
func CanEditSeverity(p rbac.Principal, r *Report) bool {
	return CanWriteReport(p, r)
}

// CanManageAssignment gates assignment changes; unassignment additionally
// requires admin rank, checked in the coordinator.
func CanManageAssignment(p rbac.Principal, r *Report) bool {
	return CanWriteReport(p, r)
}

// CanDeleteEvidence allows responder rank and above, or the uploader when
// they are the report's reporter.
func CanDeleteEvidence(p rbac.Principal, r *Report, f *EvidenceFile) bool {
	if p.IsSuperAdmin() {
		return true
	}
	if p.HasRankIn(r.EventID(), rbac.RoleResponder) {
		return true
	}
	return r.IsReporter(p.UserID()) && f.UploaderID().Equals(p.UserID())
}
