package domain

import "time"

// SystemActor records changes made by the service itself, such as intake.
const SystemActor = "system"

// TicketHistory is an immutable audit entry for a status change. The
// first entry of every ticket has an empty OldStatus.
type TicketHistory struct {
	ID        string
	TicketID  string
	ChangedBy string
	OldStatus TicketStatus
	NewStatus TicketStatus
	CreatedAt time.Time
}
