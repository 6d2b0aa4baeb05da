package dto

import (
	"time"
)

// IntakeResponse is returned once a ticket is opened.
type IntakeResponse struct {
	Ticket          TicketResponse `json:"ticket"`
	Acknowledgement string         `json:"acknowledgement"`
	Warnings        []string       `json:"warnings"`
}

// UpdateStatusRequest payload.
type UpdateStatusRequest struct {
	Status string `json:"status"`
}

// EscalationResponse is the read-time SLA view of a ticket.
type EscalationResponse struct {
	Applicable bool   `json:"applicable"`
	Escalated  bool   `json:"escalated"`
	Assignee   string `json:"assignee,omitempty"`
	Message    string `json:"message"`
}

// TicketResponse uses the column names dashboards already consume.
type TicketResponse struct {
	TicketID    string             `json:"Ticket ID"`
	Timestamp   time.Time          `json:"Timestamp"`
	Category    string             `json:"Category"`
	Description string             `json:"Description"`
	Severity    string             `json:"Severity"`
	Status      string             `json:"Status"`
	Officer     string             `json:"Officer"`
	Lat         *float64           `json:"Lat"`
	Long        *float64           `json:"Long"`
	MapLink     string             `json:"Map Link"`
	PhotoURL    string             `json:"Photo URL,omitempty"`
	Escalation  EscalationResponse `json:"Escalation"`
}

// SummaryResponse aggregates the whole store.
type SummaryResponse struct {
	Total               int            `json:"total"`
	Open                int            `json:"open"`
	Resolved            int            `json:"resolved"`
	BreakdownByCategory map[string]int `json:"breakdown_by_category"`
	BreakdownByStatus   map[string]int `json:"breakdown_by_status"`
}

// FiltersResponse lists selectable filter values.
type FiltersResponse struct {
	Categories []string `json:"categories"`
	Statuses   []string `json:"statuses"`
	Severities []string `json:"severities"`
	Officers   []string `json:"officers"`
}

// RoutingEntryResponse describes one category route.
type RoutingEntryResponse struct {
	L1  string  `json:"L1"`
	L2  string  `json:"L2"`
	SLA float64 `json:"SLA"`
}

// LocationResponse is a map marker for a located ticket.
type LocationResponse struct {
	TicketID    string  `json:"id"`
	Lat         float64 `json:"lat"`
	Long        float64 `json:"lng"`
	Category    string  `json:"category"`
	Severity    string  `json:"severity"`
	Status      string  `json:"status"`
	Description string  `json:"desc"`
	Escalated   bool    `json:"escalated"`
}

// TicketHistoryResponse is one status audit entry.
type TicketHistoryResponse struct {
	ID        string    `json:"id"`
	ChangedBy string    `json:"changed_by"`
	OldStatus string    `json:"old_status"`
	NewStatus string    `json:"new_status"`
	CreatedAt time.Time `json:"created_at"`
}
