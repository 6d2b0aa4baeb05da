package service

import (
	"strings"
	"testing"
	"time"

	"github.com/spec-kit/grievance-desk/internal/domain"
)

func TestEvaluate(t *testing.T) {
	svc := NewEscalationService(testRoutes(t))
	open := domain.Ticket{ID: "TKT-1", Category: "Pothole", Status: domain.TicketStatusOpen, Timestamp: t0}

	tests := []struct {
		name      string
		ticket    domain.Ticket
		now       time.Time
		want      EscalationState
		msgSubstr []string
	}{
		{
			name:      "within sla",
			ticket:    open,
			now:       t0.Add(23 * time.Hour),
			want:      EscalationState{Applicable: true, Assignee: "Eng A"},
			msgSubstr: []string{"Eng A", "1h left"},
		},
		{
			name:      "past sla",
			ticket:    open,
			now:       t0.Add(25 * time.Hour),
			want:      EscalationState{Applicable: true, Escalated: true, Assignee: "Eng B"},
			msgSubstr: []string{"Escalated to Eng B", "SLA 24h breached"},
		},
		{
			name:   "exactly at sla is not escalated",
			ticket: open,
			now:    t0.Add(24 * time.Hour),
			want:   EscalationState{Applicable: true, Assignee: "Eng A"},
		},
		{
			name:   "just past sla",
			ticket: open,
			now:    t0.Add(24*time.Hour + time.Second),
			want:   EscalationState{Applicable: true, Escalated: true, Assignee: "Eng B"},
		},
		{
			name:   "resolved",
			ticket: domain.Ticket{ID: "TKT-2", Category: "Pothole", Status: domain.TicketStatusResolved, Timestamp: t0},
			now:    t0.Add(100 * time.Hour),
			want:   EscalationState{},
		},
		{
			name:   "unrouted category",
			ticket: domain.Ticket{ID: "TKT-3", Category: "Noise", Status: domain.TicketStatusOpen, Timestamp: t0},
			now:    t0.Add(100 * time.Hour),
			want:   EscalationState{},
		},
		{
			name:   "in progress still escalates",
			ticket: domain.Ticket{ID: "TKT-4", Category: "Pothole", Status: domain.TicketStatusInProgress, Timestamp: t0},
			now:    t0.Add(30 * time.Hour),
			want:   EscalationState{Applicable: true, Escalated: true, Assignee: "Eng B"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := svc.Evaluate(tc.ticket, tc.now)
			if got.Applicable != tc.want.Applicable || got.Escalated != tc.want.Escalated || got.Assignee != tc.want.Assignee {
				t.Fatalf("got %+v, want %+v", got, tc.want)
			}
			if !tc.want.Applicable && got.Message != "" {
				t.Fatalf("message should be empty, got %q", got.Message)
			}
			for _, s := range tc.msgSubstr {
				if !strings.Contains(got.Message, s) {
					t.Errorf("message %q does not contain %q", got.Message, s)
				}
			}
		})
	}
}

func TestEvaluateIsPure(t *testing.T) {
	svc := NewEscalationService(testRoutes(t))
	ticket := domain.Ticket{ID: "TKT-1", Category: "Garbage", Status: domain.TicketStatusOpen, Timestamp: t0}
	now := t0.Add(5 * time.Hour)
	first := svc.Evaluate(ticket, now)
	second := svc.Evaluate(ticket, now)
	if first != second {
		t.Fatalf("evaluate not deterministic: %+v vs %+v", first, second)
	}
	if first.Message != "Assigned to Sanitation (7h left)" {
		t.Fatalf("message = %q", first.Message)
	}
}

func TestEvaluateFractionalSLA(t *testing.T) {
	if got := formatHours(1.5); got != "1.5" {
		t.Fatalf("formatHours(1.5) = %q", got)
	}
	if got := formatHours(48); got != "48" {
		t.Fatalf("formatHours(48) = %q", got)
	}
}
