package service

import (
	"context"
	"fmt"
	"time"

	"github.com/spec-kit/grievance-desk/internal/domain"
	"github.com/spec-kit/grievance-desk/internal/repository"
	"github.com/spec-kit/grievance-desk/internal/routing"
)

// AssignmentService turns a classification into a new, unsaved ticket
// routed to the category's primary officer.
type AssignmentService struct {
	routes *routing.Table
	ids    repository.TicketIDGenerator
	now    func() time.Time
}

// AssignmentDependencies bundles collaborators for the resolver.
type AssignmentDependencies struct {
	Routes *routing.Table
	IDs    repository.TicketIDGenerator
	Clock  func() time.Time
}

// NewAssignmentService creates the service.
func NewAssignmentService(deps AssignmentDependencies) *AssignmentService {
	svc := &AssignmentService{
		routes: deps.Routes,
		ids:    deps.IDs,
		now:    deps.Clock,
	}
	if svc.ids == nil {
		svc.ids = repository.NewRandomKeys()
	}
	if svc.now == nil {
		svc.now = time.Now
	}
	return svc
}

// Assign builds an Open ticket for the classification. A category without
// a routing entry is assigned to domain.UnassignedOfficer; an unknown
// severity is clamped to Medium. Nothing is persisted.
func (s *AssignmentService) Assign(ctx context.Context, c domain.Classification) (*domain.Ticket, error) {
	id, err := s.ids.NextID(ctx)
	if err != nil {
		return nil, fmt.Errorf("assign ticket id: %w", err)
	}

	officer := domain.UnassignedOfficer
	if entry, ok := s.routes.Lookup(c.Category); ok {
		officer = entry.Primary
	}

	ticket := &domain.Ticket{
		ID:          id,
		Timestamp:   s.now().UTC(),
		Category:    c.Category,
		Severity:    clampSeverity(c.Severity),
		Description: c.Description,
		Status:      domain.TicketStatusOpen,
		Officer:     officer,
		PhotoURL:    c.PhotoURL,
		ChatID:      c.ChatID,
	}
	if c.Location != nil {
		loc := *c.Location
		ticket.Location = &loc
	}
	return ticket, nil
}

func clampSeverity(s domain.Severity) domain.Severity {
	for _, known := range domain.Severities {
		if s == known {
			return s
		}
	}
	return domain.SeverityMedium
}
