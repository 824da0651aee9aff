package rbac

import (
	"context"
	"testing"

	"github.com/incidenthq/api/pkg/domain/shared"
)

// fakeAssignments is an in-memory AssignmentRepository.
type fakeAssignments struct {
	records []Assignment
}

func (f *fakeAssignments) ListByUser(_ context.Context, userID shared.ID) ([]Assignment, error) {
	var out []Assignment
	for _, a := range f.records {
		if a.UserID.Equals(userID) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeAssignments) ListEventRoleHolders(_ context.Context, eventID shared.ID, roles ...Role) ([]shared.ID, error) {
	var out []shared.ID
	for _, a := range f.records {
		if a.EventID == nil || !a.EventID.Equals(eventID) {
			continue
		}
		for _, r := range roles {
			if a.Role == r {
				out = append(out, a.UserID)
				break
			}
		}
	}
	return out, nil
}

func (f *fakeAssignments) Grant(_ context.Context, a Assignment) error {
	f.records = append(f.records, a)
	return nil
}

func (f *fakeAssignments) Revoke(_ context.Context, _ Assignment) error {
	return nil
}

func TestResolverResolve(t *testing.T) {
	userID := shared.NewID()
	eventA := shared.NewID()
	eventB := shared.NewID()
	orgID := shared.NewID()

	repo := &fakeAssignments{records: []Assignment{
		{UserID: userID, Role: RoleResponder, EventID: &eventA},
		{UserID: userID, Role: RoleReporter, EventID: &eventB},
		{UserID: userID, Role: RoleOrgAdmin, OrgID: &orgID},
	}}
	resolver := NewResolver(repo)
	ctx := context.Background()

	t.Run("event scope", func(t *testing.T) {
		set, err := resolver.Resolve(ctx, userID, MustEventScope(eventA))
		if err != nil {
			t.Fatalf("Resolve() error = %v", err)
		}
		if !set.Has(RoleResponder) || len(set) != 1 {
			t.Errorf("Resolve() = %v, want exactly {responder}", set.Roles())
		}
	})

	t.Run("org scope", func(t *testing.T) {
		scope, err := OrgScope(orgID)
		if err != nil {
			t.Fatalf("OrgScope() error = %v", err)
		}
		set, err := resolver.Resolve(ctx, userID, scope)
		if err != nil {
			t.Fatalf("Resolve() error = %v", err)
		}
		if !set.Has(RoleOrgAdmin) {
			t.Errorf("Resolve() = %v, want org_admin", set.Roles())
		}
	})

	t.Run("global scope excludes scoped roles", func(t *testing.T) {
		set, err := resolver.Resolve(ctx, userID, GlobalScope())
		if err != nil {
			t.Fatalf("Resolve() error = %v", err)
		}
		if !set.IsEmpty() {
			t.Errorf("Resolve() = %v, want empty", set.Roles())
		}
	})

	t.Run("unknown user yields empty set", func(t *testing.T) {
		set, err := resolver.Resolve(ctx, shared.NewID(), MustEventScope(eventA))
		if err != nil {
			t.Fatalf("Resolve() error = %v", err)
		}
		if !set.IsEmpty() {
			t.Errorf("Resolve() = %v, want empty", set.Roles())
		}
	})

	t.Run("zero user yields empty set", func(t *testing.T) {
		set, err := resolver.Resolve(ctx, shared.ID{}, GlobalScope())
		if err != nil {
			t.Fatalf("Resolve() error = %v", err)
		}
		if !set.IsEmpty() {
			t.Errorf("Resolve() = %v, want empty", set.Roles())
		}
	})
}

func TestResolvePrincipal(t *testing.T) {
	userID := shared.NewID()
	adminID := shared.NewID()
	eventID := shared.NewID()
	orgID := shared.NewID()

	repo := &fakeAssignments{records: []Assignment{
		{UserID: userID, Role: RoleResponder, EventID: &eventID},
		{UserID: userID, Role: RoleOrgViewer, OrgID: &orgID},
		{UserID: adminID, Role: RoleSuperAdmin},
	}}
	resolver := NewResolver(repo)
	ctx := context.Background()

	p, err := resolver.ResolvePrincipal(ctx, userID)
	if err != nil {
		t.Fatalf("ResolvePrincipal() error = %v", err)
	}
	if p.IsSuperAdmin() {
		t.Error("principal should not be super admin")
	}
	if !p.EventRoles(eventID).Has(RoleResponder) {
		t.Error("principal should hold responder in event")
	}
	if !p.OrgRoles(orgID).Has(RoleOrgViewer) {
		t.Error("principal should hold org_viewer in org")
	}
	if p.RankIn(eventID) != RoleResponder.Rank() {
		t.Errorf("RankIn() = %d, want %d", p.RankIn(eventID), RoleResponder.Rank())
	}
	// Org roles never contribute to event rank.
	other := shared.NewID()
	if p.RankIn(other) != 0 {
		t.Errorf("RankIn(unrelated event) = %d, want 0", p.RankIn(other))
	}

	admin, err := resolver.ResolvePrincipal(ctx, adminID)
	if err != nil {
		t.Fatalf("ResolvePrincipal() error = %v", err)
	}
	if !admin.IsSuperAdmin() {
		t.Error("global assignment should resolve to super admin")
	}
	if !admin.HasRankIn(eventID, RoleEventAdmin) {
		t.Error("super admin should outrank event admin in any event")
	}

	anon, err := resolver.ResolvePrincipal(ctx, shared.ID{})
	if err != nil {
		t.Fatalf("ResolvePrincipal() error = %v", err)
	}
	if !anon.IsAnonymous() {
		t.Error("zero user should resolve to anonymous principal")
	}
}
