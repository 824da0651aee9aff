package report

import (
	"testing"
	"time"

	"github.com/incidenthq/api/pkg/domain/rbac"
	"github.com/incidenthq/api/pkg/domain/shared"
)

func principalWith(userID, eventID shared.ID, roles ...rbac.Role) rbac.Principal {
	eventRoles := map[shared.ID]rbac.RoleSet{}
	if len(roles) > 0 {
		eventRoles[eventID] = rbac.NewRoleSet(roles...)
	}
	return rbac.NewPrincipal(userID, nil, eventRoles, nil)
}

func superAdmin(userID shared.ID) rbac.Principal {
	return rbac.NewPrincipal(userID, rbac.NewRoleSet(rbac.RoleSuperAdmin), nil, nil)
}

func TestReportVisibility(t *testing.T) {
	now := time.Now().UTC()
	eventID := shared.NewID()
	reporterID := shared.NewID()
	r, err := NewReport(eventID, &reporterID, "Title", "Description", TypeHarassment, now)
	if err != nil {
		t.Fatalf("NewReport() error = %v", err)
	}

	tests := []struct {
		name      string
		principal rbac.Principal
		canRead   bool
		canWrite  bool
	}{
		{"reporter reads own, cannot write", principalWith(reporterID, eventID, rbac.RoleReporter), true, false},
		{"other reporter denied", principalWith(shared.NewID(), eventID, rbac.RoleReporter), false, false},
		{"responder reads and writes", principalWith(shared.NewID(), eventID, rbac.RoleResponder), true, true},
		{"event admin reads and writes", principalWith(shared.NewID(), eventID, rbac.RoleEventAdmin), true, true},
		{"super admin global override", superAdmin(shared.NewID()), true, true},
		{"responder in other event denied", principalWith(shared.NewID(), shared.NewID(), rbac.RoleResponder), false, false},
		{"org admin alone denied", rbac.NewPrincipal(shared.NewID(), nil, nil, map[shared.ID]rbac.RoleSet{shared.NewID(): rbac.NewRoleSet(rbac.RoleOrgAdmin)}), false, false},
		{"empty role set denied", principalWith(shared.NewID(), eventID), false, false},
		{"anonymous denied", rbac.Anonymous(), false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanReadReport(tt.principal, r); got != tt.canRead {
				t.Errorf("CanReadReport() = %v, want %v", got, tt.canRead)
			}
			if got := CanWriteReport(tt.principal, r); got != tt.canWrite {
				t.Errorf("CanWriteReport() = %v, want %v", got, tt.canWrite)
			}
		})
	}
}

func TestCommentVisibility(t *testing.T) {
	now := time.Now().UTC()
	eventID := shared.NewID()
	reporterID := shared.NewID()
	responderID := shared.NewID()
	r, _ := NewReport(eventID, &reporterID, "Title", "Description", TypeSafety, now)

	public, err := NewComment(r.ID(), reporterID, "public note", VisibilityPublic, false, now)
	if err != nil {
		t.Fatalf("NewComment() error = %v", err)
	}
	internal, err := NewComment(r.ID(), responderID, "internal note", VisibilityInternal, true, now)
	if err != nil {
		t.Fatalf("NewComment() error = %v", err)
	}

	reporter := principalWith(reporterID, eventID, rbac.RoleReporter)
	responder := principalWith(responderID, eventID, rbac.RoleResponder)

	if !CanReadComment(reporter, r, public) {
		t.Error("reporter should read public comments on own report")
	}
	if CanReadComment(reporter, r, internal) {
		t.Error("internal comment must not leak to the reporter")
	}
	if !CanReadComment(responder, r, internal) {
		t.Error("responder should read internal comments")
	}
	if !CanReadComment(superAdmin(shared.NewID()), r, internal) {
		t.Error("super admin should read internal comments")
	}
	if CanReadComment(rbac.Anonymous(), r, public) {
		t.Error("anonymous principal should read nothing")
	}
}

func TestFieldEditPolicy(t *testing.T) {
	now := time.Now().UTC()
	eventID := shared.NewID()
	reporterID := shared.NewID()
	r, _ := NewReport(eventID, &reporterID, "Title", "Description", TypeOther, now)

	reporter := principalWith(reporterID, eventID, rbac.RoleReporter)
	responder := principalWith(shared.NewID(), eventID, rbac.RoleResponder)
	admin := principalWith(shared.NewID(), eventID, rbac.RoleEventAdmin)

	if !CanEditTitle(reporter, r) || !CanEditTitle(admin, r) {
		t.Error("title editable by reporter and admin")
	}
	if CanEditTitle(responder, r) {
		t.Error("responder below admin rank must not edit title")
	}
	if !CanEditDescription(reporter, r) || !CanEditDescription(responder, r) {
		t.Error("description editable by reporter and responder")
	}
	if CanEditSeverity(reporter, r) {
		t.Error("reporter must not edit severity")
	}
	if !CanEditSeverity(responder, r) {
		t.Error("responder should edit severity")
	}
}

func TestEvidencePolicy(t *testing.T) {
	now := time.Now().UTC()
	eventID := shared.NewID()
	reporterID := shared.NewID()
	r, _ := NewReport(eventID, &reporterID, "Title", "Description", TypeOther, now)

	ownFile, _ := NewEvidenceFile(r.ID(), reporterID, "photo.jpg", "image/jpeg", []byte{1}, now)
	otherFile, _ := NewEvidenceFile(r.ID(), shared.NewID(), "log.txt", "text/plain", []byte{1}, now)

	reporter := principalWith(reporterID, eventID, rbac.RoleReporter)
	responder := principalWith(shared.NewID(), eventID, rbac.RoleResponder)

	if !CanDeleteEvidence(reporter, r, ownFile) {
		t.Error("reporter should delete their own upload")
	}
	if CanDeleteEvidence(reporter, r, otherFile) {
		t.Error("reporter must not delete others' uploads")
	}
	if !CanDeleteEvidence(responder, r, otherFile) {
		t.Error("responder should delete any evidence in scope")
	}
}
