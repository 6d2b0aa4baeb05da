package service

import (
	"context"
	"sort"
	"strings"

	"github.com/spec-kit/grievance-desk/internal/domain"
	"github.com/spec-kit/grievance-desk/internal/repository"
)

// TicketFilter narrows a ticket listing. Empty fields impose no
// constraint; present fields are combined with AND.
type TicketFilter struct {
	Category string
	Status   string
	Severity string
	Officer  string
	// Search is a case-insensitive substring match on id and description.
	Search string
}

// Summary aggregates the whole store.
type Summary struct {
	Total      int
	Open       int
	Resolved   int
	ByCategory map[string]int
	ByStatus   map[string]int
}

// DistinctValues lists values observed across stored tickets, sorted.
type DistinctValues struct {
	Categories []string
	Statuses   []string
	Severities []string
	Officers   []string
}

// QueryService reads tickets for the dashboard.
type QueryService struct {
	tickets repository.TicketRepository
}

// NewQueryService constructs the service.
func NewQueryService(tickets repository.TicketRepository) *QueryService {
	return &QueryService{tickets: tickets}
}

// Query returns matching tickets, newest first.
func (s *QueryService) Query(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	all, err := s.tickets.All(ctx)
	if err != nil {
		return nil, err
	}
	return FilterTickets(all, filter), nil
}

// Get returns one ticket by id, or false when no such ticket exists.
func (s *QueryService) Get(ctx context.Context, id string) (*domain.Ticket, bool, error) {
	all, err := s.tickets.All(ctx)
	if err != nil {
		return nil, false, err
	}
	for i := range all {
		if all[i].ID == id {
			return &all[i], true, nil
		}
	}
	return nil, false, nil
}

// Summarize aggregates counts over the unfiltered store.
func (s *QueryService) Summarize(ctx context.Context) (Summary, error) {
	all, err := s.tickets.All(ctx)
	if err != nil {
		return Summary{}, err
	}
	return Summarize(all), nil
}

// DistinctValues lists the selectable values present in the store.
func (s *QueryService) DistinctValues(ctx context.Context) (DistinctValues, error) {
	all, err := s.tickets.All(ctx)
	if err != nil {
		return DistinctValues{}, err
	}
	return Distinct(all), nil
}

// FilterTickets applies filter to tickets and sorts the result newest
// first. Tickets sharing a timestamp keep their store order.
func FilterTickets(tickets []domain.Ticket, filter TicketFilter) []domain.Ticket {
	search := strings.ToLower(strings.TrimSpace(filter.Search))
	out := make([]domain.Ticket, 0, len(tickets))
	for _, t := range tickets {
		if filter.Category != "" && t.Category != filter.Category {
			continue
		}
		if filter.Status != "" && string(t.Status) != filter.Status {
			continue
		}
		if filter.Severity != "" && string(t.Severity) != filter.Severity {
			continue
		}
		if filter.Officer != "" && t.Officer != filter.Officer {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(t.ID), search) &&
			!strings.Contains(strings.ToLower(t.Description), search) {
			continue
		}
		out = append(out, t)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	return out
}

// Summarize counts tickets in a single pass.
func Summarize(tickets []domain.Ticket) Summary {
	summary := Summary{
		ByCategory: map[string]int{},
		ByStatus:   map[string]int{},
	}
	for _, t := range tickets {
		summary.Total++
		if t.IsResolved() {
			summary.Resolved++
		} else {
			summary.Open++
		}
		summary.ByCategory[t.Category]++
		summary.ByStatus[string(t.Status)]++
	}
	return summary
}

// Distinct collects the values present across tickets.
func Distinct(tickets []domain.Ticket) DistinctValues {
	categories := map[string]struct{}{}
	statuses := map[string]struct{}{}
	severities := map[string]struct{}{}
	officers := map[string]struct{}{}
	for _, t := range tickets {
		addNonBlank(categories, t.Category)
		addNonBlank(statuses, string(t.Status))
		addNonBlank(severities, string(t.Severity))
		addNonBlank(officers, t.Officer)
	}
	return DistinctValues{
		Categories: sortedKeys(categories),
		Statuses:   sortedKeys(statuses),
		Severities: sortedKeys(severities),
		Officers:   sortedKeys(officers),
	}
}

func addNonBlank(set map[string]struct{}, value string) {
	if strings.TrimSpace(value) == "" {
		return
	}
	set[value] = struct{}{}
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for key := range set {
		out = append(out, key)
	}
	sort.Strings(out)
	return out
}
