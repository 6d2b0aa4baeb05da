package service

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/spec-kit/grievance-desk/internal/domain"
	"github.com/spec-kit/grievance-desk/internal/routing"
)

// EscalationState is the SLA view of one ticket at a point in time.
type EscalationState struct {
	Applicable bool
	Escalated  bool
	Message    string
	// Assignee is whoever currently owns the ticket from the SLA's point
	// of view: the primary before the deadline, the secondary after.
	Assignee string
}

// EscalationService derives escalation state from the routing table. It
// holds no state of its own and is safe for concurrent use.
type EscalationService struct {
	routes *routing.Table
}

// NewEscalationService creates the evaluator.
func NewEscalationService(routes *routing.Table) *EscalationService {
	return &EscalationService{routes: routes}
}

// Evaluate computes the escalation state of ticket as of now. Resolved
// tickets and tickets in unrouted categories are never escalated. A ticket
// escalates once strictly more than sla_hours have elapsed.
func (s *EscalationService) Evaluate(ticket domain.Ticket, now time.Time) EscalationState {
	if ticket.IsResolved() {
		return EscalationState{}
	}
	entry, ok := s.routes.Lookup(ticket.Category)
	if !ok {
		return EscalationState{}
	}

	elapsed := now.UTC().Sub(ticket.Timestamp.UTC()).Hours()
	if elapsed > entry.SLAHours {
		return EscalationState{
			Applicable: true,
			Escalated:  true,
			Assignee:   entry.Secondary,
			Message:    fmt.Sprintf("Escalated to %s (SLA %sh breached)", entry.Secondary, formatHours(entry.SLAHours)),
		}
	}
	remaining := int(math.Round(entry.SLAHours - elapsed))
	return EscalationState{
		Applicable: true,
		Escalated:  false,
		Assignee:   entry.Primary,
		Message:    fmt.Sprintf("Assigned to %s (%dh left)", entry.Primary, remaining),
	}
}

func formatHours(h float64) string {
	return strconv.FormatFloat(h, 'f', -1, 64)
}
