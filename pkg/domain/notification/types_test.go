package notification

import (
	"testing"
	"time"

	"github.com/incidenthq/api/pkg/domain/shared"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		input  string
		want   Type
		wantOK bool
	}{
		{"report_submitted", TypeReportSubmitted, true},
		{"submitted", TypeReportSubmitted, true},
		{"assigned", TypeReportAssigned, true},
		{"status_changed", TypeReportStatusChanged, true},
		{"comment_added", TypeReportCommentAdded, true},
		{" Report_Assigned ", TypeReportAssigned, true},
		{"bogus", TypeReportSubmitted, false},
		{"", TypeReportSubmitted, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := Normalize(tt.input)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("Normalize(%q) = %v, %v; want %v, %v", tt.input, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestPriorityFor(t *testing.T) {
	if PriorityFor(TypeReportSubmitted) != PriorityHigh {
		t.Error("new submissions should be high priority")
	}
	for _, typ := range []Type{TypeReportAssigned, TypeReportStatusChanged, TypeReportCommentAdded} {
		if PriorityFor(typ) != PriorityNormal {
			t.Errorf("PriorityFor(%s) should be normal", typ)
		}
	}
}

func TestDefaultSettings(t *testing.T) {
	now := time.Now().UTC()
	s := DefaultSettings(shared.NewID(), now)

	for _, typ := range AllTypes() {
		if !s.EmailEnabled(typ) {
			t.Errorf("default settings should enable %s email", typ)
		}
	}

	s.SetEmailEnabled(TypeReportCommentAdded, false, now.Add(time.Minute))
	if s.EmailEnabled(TypeReportCommentAdded) {
		t.Error("flag should be off after SetEmailEnabled(false)")
	}
	if s.EmailEnabled(TypeReportSubmitted) != true {
		t.Error("other flags should be untouched")
	}
	if !s.UpdatedAt().After(now) {
		t.Error("UpdatedAt should advance on change")
	}
}
