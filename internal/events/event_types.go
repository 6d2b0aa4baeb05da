package events

import (
	"time"

	"github.com/spec-kit/grievance-desk/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated       EventType = "ticket_created"
	EventTicketStatusChanged EventType = "ticket_status_changed"
	EventTicketSLABreached   EventType = "ticket_sla_breached"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TicketID  string      `json:"ticket_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketCreatedPayload carries what a reporter acknowledgement needs.
type TicketCreatedPayload struct {
	Category string          `json:"category"`
	Severity domain.Severity `json:"severity"`
	Officer  string          `json:"officer"`
	ChatID   string          `json:"chat_id,omitempty"`
	Warnings []string        `json:"warnings,omitempty"`
}

// TicketStatusChangedPayload payload.
type TicketStatusChangedPayload struct {
	OldStatus domain.TicketStatus `json:"old_status"`
	NewStatus domain.TicketStatus `json:"new_status"`
	ChatID    string              `json:"chat_id,omitempty"`
}

// TicketSLABreachedPayload is emitted once per process when a sweep first
// sees a ticket past its SLA. It is informational only.
type TicketSLABreachedPayload struct {
	Category  string  `json:"category"`
	Primary   string  `json:"primary"`
	Secondary string  `json:"secondary"`
	SLAHours  float64 `json:"sla_hours"`
	Message   string  `json:"message"`
}
