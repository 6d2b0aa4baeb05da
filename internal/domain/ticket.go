package domain

import (
	"fmt"
	"time"
)

// TicketStatus enumerates lifecycle states for grievances.
type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "Open"
	TicketStatusInProgress TicketStatus = "In Progress"
	TicketStatusResolved   TicketStatus = "Resolved"
)

// Severity is the classifier's urgency estimate.
type Severity string

const (
	SeverityLow    Severity = "Low"
	SeverityMedium Severity = "Medium"
	SeverityHigh   Severity = "High"
)

// Well-known categories produced by the classifier. Other values are kept
// as-is and simply have no routing entry.
const (
	CategoryPothole     = "Pothole"
	CategoryGarbage     = "Garbage"
	CategoryStreetlight = "Streetlight"
	CategoryWater       = "Water"
	CategoryOther       = "Other"
)

// UnassignedOfficer is used when a category has no routing entry.
const UnassignedOfficer = "Unassigned"

// KnownCategories lists the enumerated categories in display order.
var KnownCategories = []string{
	CategoryPothole,
	CategoryGarbage,
	CategoryStreetlight,
	CategoryWater,
	CategoryOther,
}

// Severities lists the ordered severity scale, lowest first.
var Severities = []Severity{SeverityLow, SeverityMedium, SeverityHigh}

// Location is a WGS84 coordinate pair.
type Location struct {
	Lat  float64
	Long float64
}

// MapLink returns a maps URL pointing at the coordinate.
func (l Location) MapLink() string {
	return fmt.Sprintf("https://www.google.com/maps?q=%g,%g", l.Lat, l.Long)
}

// Classification is the normalized classifier output used to open a ticket.
type Classification struct {
	Category    string
	Severity    Severity
	Description string
	Location    *Location
	PhotoURL    string
	ChatID      string
}

// Ticket is one recorded grievance. Only Status changes after creation.
type Ticket struct {
	ID          string
	Timestamp   time.Time
	Category    string
	Severity    Severity
	Description string
	Location    *Location
	Status      TicketStatus
	Officer     string
	PhotoURL    string
	ChatID      string
}

// ParseStatus maps an external status string to a TicketStatus.
func ParseStatus(raw string) (TicketStatus, bool) {
	switch TicketStatus(raw) {
	case TicketStatusOpen, TicketStatusInProgress, TicketStatusResolved:
		return TicketStatus(raw), true
	}
	return "", false
}

var statusRank = map[TicketStatus]int{
	TicketStatusOpen:       0,
	TicketStatusInProgress: 1,
	TicketStatusResolved:   2,
}

// CanTransition reports whether moving from current to next keeps the
// lifecycle moving forward. Resolved tickets are never reopened.
func CanTransition(current, next TicketStatus) bool {
	from, ok := statusRank[current]
	if !ok {
		return false
	}
	to, ok := statusRank[next]
	if !ok {
		return false
	}
	return to > from
}

// IsResolved reports whether the ticket is closed out.
func (t *Ticket) IsResolved() bool {
	return t.Status == TicketStatusResolved
}

// MapLink returns the maps URL for the ticket location, or "" when absent.
func (t *Ticket) MapLink() string {
	if t.Location == nil {
		return ""
	}
	return t.Location.MapLink()
}
