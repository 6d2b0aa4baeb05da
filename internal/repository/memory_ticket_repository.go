package repository

import (
	"context"
	"fmt"
	"sync"

	"github.com/spec-kit/grievance-desk/internal/domain"
)

type memoryTicketRepository struct {
	mu      sync.RWMutex
	tickets []domain.Ticket
	index   map[string]int
}

// NewMemoryTicketRepository returns a process-local store, used when no
// database is configured.
func NewMemoryTicketRepository() TicketRepository {
	return &memoryTicketRepository{index: make(map[string]int)}
}

func (r *memoryTicketRepository) Append(_ context.Context, ticket *domain.Ticket) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.index[ticket.ID]; exists {
		return "", fmt.Errorf("append %s: %w", ticket.ID, ErrDuplicateID)
	}
	stored := *ticket
	if ticket.Location != nil {
		loc := *ticket.Location
		stored.Location = &loc
	}
	r.index[stored.ID] = len(r.tickets)
	r.tickets = append(r.tickets, stored)
	return stored.ID, nil
}

func (r *memoryTicketRepository) All(_ context.Context) ([]domain.Ticket, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Ticket, len(r.tickets))
	copy(out, r.tickets)
	for i := range out {
		if out[i].Location != nil {
			loc := *out[i].Location
			out[i].Location = &loc
		}
	}
	return out, nil
}

func (r *memoryTicketRepository) UpdateStatus(_ context.Context, id string, from, to domain.TicketStatus) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	i, ok := r.index[id]
	if !ok || r.tickets[i].Status != from {
		return false, nil
	}
	r.tickets[i].Status = to
	return true, nil
}
