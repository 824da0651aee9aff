package report

import (
	"errors"
	"testing"
	"time"

	"github.com/incidenthq/api/pkg/domain/shared"
)

func newTestReport(t *testing.T, state State) *Report {
	t.Helper()
	reporterID := shared.NewID()
	r, err := NewReport(shared.NewID(), &reporterID, "Incident at talk", "Details of what happened", TypeHarassment, time.Now().UTC())
	if err != nil {
		t.Fatalf("NewReport() error = %v", err)
	}
	r.state = state
	return r
}

func TestNewReport(t *testing.T) {
	now := time.Now().UTC()
	eventID := shared.NewID()
	reporterID := shared.NewID()

	tests := []struct {
		name        string
		eventID     shared.ID
		reporterID  *shared.ID
		title       string
		description string
		reportType  Type
		wantErr     bool
	}{
		{"valid", eventID, &reporterID, "Title", "Description", TypeSafety, false},
		{"anonymous reporter", eventID, nil, "Title", "Description", TypeOther, false},
		{"zero event", shared.ID{}, &reporterID, "Title", "Description", TypeSafety, true},
		{"blank title", eventID, &reporterID, "   ", "Description", TypeSafety, true},
		{"blank description", eventID, &reporterID, "Title", "", TypeSafety, true},
		{"invalid type", eventID, &reporterID, "Title", "Description", Type("bogus"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := NewReport(tt.eventID, tt.reporterID, tt.title, tt.description, tt.reportType, now)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewReport() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if r.State() != StateSubmitted {
				t.Errorf("State() = %v, want submitted", r.State())
			}
			if r.Severity() != nil || r.AssignedResponderID() != nil {
				t.Error("new report should have no severity or assignee")
			}
		})
	}
}

func TestStateAdjacency(t *testing.T) {
	allowed := map[State][]State{
		StateSubmitted:     {StateAcknowledged, StateInvestigating, StateResolved, StateClosed},
		StateAcknowledged:  {StateInvestigating, StateResolved, StateClosed},
		StateInvestigating: {StateResolved, StateClosed},
		StateResolved:      {StateClosed},
		StateClosed:        {},
	}

	for from, targets := range allowed {
		allowedSet := make(map[State]bool, len(targets))
		for _, to := range targets {
			allowedSet[to] = true
			if !from.CanTransitionTo(to) {
				t.Errorf("CanTransitionTo(%s -> %s) = false, want true", from, to)
			}
		}
		for _, to := range AllStates() {
			if !allowedSet[to] && from.CanTransitionTo(to) {
				t.Errorf("CanTransitionTo(%s -> %s) = true, want false", from, to)
			}
		}
	}
}

func TestTransitionTo(t *testing.T) {
	now := time.Now().UTC()
	actor := shared.NewID()
	assignee := shared.NewID()

	t.Run("closed is terminal", func(t *testing.T) {
		r := newTestReport(t, StateClosed)
		for _, target := range AllStates() {
			if _, err := r.TransitionTo(target, actor, "notes", nil, now); !errors.Is(err, ErrInvalidTransition) {
				t.Errorf("TransitionTo(closed -> %s) error = %v, want ErrInvalidTransition", target, err)
			}
		}
	})

	t.Run("investigating requires notes", func(t *testing.T) {
		r := newTestReport(t, StateSubmitted)
		_, err := r.TransitionTo(StateInvestigating, actor, "   ", &assignee, now)
		if !errors.Is(err, ErrMissingNotes) {
			t.Errorf("error = %v, want ErrMissingNotes", err)
		}
	})

	t.Run("investigating requires assignee", func(t *testing.T) {
		r := newTestReport(t, StateSubmitted)
		_, err := r.TransitionTo(StateInvestigating, actor, "looking into it", nil, now)
		if !errors.Is(err, ErrMissingOrInvalidAssignee) {
			t.Errorf("error = %v, want ErrMissingOrInvalidAssignee", err)
		}
	})

	t.Run("investigating with existing assignee", func(t *testing.T) {
		r := newTestReport(t, StateAcknowledged)
		r.Assign(&assignee, now)
		change, err := r.TransitionTo(StateInvestigating, actor, "looking into it", nil, now)
		if err != nil {
			t.Fatalf("TransitionTo() error = %v", err)
		}
		if r.State() != StateInvestigating {
			t.Errorf("State() = %v, want investigating", r.State())
		}
		if change.From() != StateAcknowledged || change.To() != StateInvestigating {
			t.Errorf("history entry = %s -> %s", change.From(), change.To())
		}
	})

	t.Run("resolved requires notes", func(t *testing.T) {
		r := newTestReport(t, StateInvestigating)
		if _, err := r.TransitionTo(StateResolved, actor, "", nil, now); !errors.Is(err, ErrMissingNotes) {
			t.Errorf("error = %v, want ErrMissingNotes", err)
		}
	})

	t.Run("skip straight to resolved", func(t *testing.T) {
		r := newTestReport(t, StateSubmitted)
		change, err := r.TransitionTo(StateResolved, actor, "resolved on the spot", nil, now)
		if err != nil {
			t.Fatalf("TransitionTo() error = %v", err)
		}
		if change.Notes() != "resolved on the spot" {
			t.Errorf("Notes() = %q", change.Notes())
		}
	})

	t.Run("close needs no notes", func(t *testing.T) {
		r := newTestReport(t, StateResolved)
		if _, err := r.TransitionTo(StateClosed, actor, "", nil, now); err != nil {
			t.Fatalf("TransitionTo() error = %v", err)
		}
	})

	t.Run("supplied assignee applied", func(t *testing.T) {
		r := newTestReport(t, StateSubmitted)
		if _, err := r.TransitionTo(StateInvestigating, actor, "notes", &assignee, now); err != nil {
			t.Fatalf("TransitionTo() error = %v", err)
		}
		if r.AssignedResponderID() == nil || !r.AssignedResponderID().Equals(assignee) {
			t.Error("assignee should be applied with the transition")
		}
	})

	t.Run("history records actor", func(t *testing.T) {
		r := newTestReport(t, StateSubmitted)
		change, err := r.TransitionTo(StateAcknowledged, actor, "", nil, now)
		if err != nil {
			t.Fatalf("TransitionTo() error = %v", err)
		}
		if !change.ChangedBy().Equals(actor) {
			t.Error("history entry should record the acting user")
		}
	})
}
