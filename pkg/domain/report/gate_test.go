package report

import (
	"testing"
	"time"

	"github.com/incidenthq/api/pkg/domain/rbac"
	"github.com/incidenthq/api/pkg/domain/shared"
)

func TestVisibleComments(t *testing.T) {
	now := time.Now().UTC()
	eventID := shared.NewID()
	reporterID := shared.NewID()
	responderID := shared.NewID()
	r, _ := NewReport(eventID, &reporterID, "Title", "Description", TypeHarassment, now)

	c1, _ := NewComment(r.ID(), reporterID, "first", VisibilityPublic, false, now)
	c2, _ := NewComment(r.ID(), responderID, "second", VisibilityInternal, false, now)
	c3, _ := NewComment(r.ID(), responderID, "third", VisibilityPublic, false, now)
	comments := []*Comment{c1, c2, c3}

	reporter := principalWith(reporterID, eventID, rbac.RoleReporter)
	responder := principalWith(responderID, eventID, rbac.RoleResponder)

	t.Run("reporter sees public only, order preserved", func(t *testing.T) {
		got := CollectVisibleComments(reporter, r, comments)
		if len(got) != 2 || got[0] != c1 || got[1] != c3 {
			t.Errorf("filtered = %d comments, want [first third]", len(got))
		}
	})

	t.Run("responder sees everything", func(t *testing.T) {
		got := CollectVisibleComments(responder, r, comments)
		if len(got) != 3 {
			t.Errorf("filtered = %d comments, want 3", len(got))
		}
	})

	t.Run("idempotent", func(t *testing.T) {
		once := CollectVisibleComments(reporter, r, comments)
		twice := CollectVisibleComments(reporter, r, once)
		if len(once) != len(twice) {
			t.Errorf("refiltering removed comments: %d -> %d", len(once), len(twice))
		}
		for i := range once {
			if once[i] != twice[i] {
				t.Errorf("refiltering reordered comments at %d", i)
			}
		}
	})

	t.Run("restartable sequence", func(t *testing.T) {
		seq := VisibleComments(responder, r, comments)
		first := 0
		for range seq {
			first++
		}
		second := 0
		for range seq {
			second++
		}
		if first != second {
			t.Errorf("second iteration yielded %d, want %d", second, first)
		}
	})

	t.Run("early break", func(t *testing.T) {
		count := 0
		for range VisibleComments(responder, r, comments) {
			count++
			break
		}
		if count != 1 {
			t.Errorf("break should stop iteration, got %d", count)
		}
	})
}
