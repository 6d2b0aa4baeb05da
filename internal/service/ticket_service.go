package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/grievance-desk/internal/classify"
	"github.com/spec-kit/grievance-desk/internal/domain"
	"github.com/spec-kit/grievance-desk/internal/events"
	"github.com/spec-kit/grievance-desk/internal/observability"
	"github.com/spec-kit/grievance-desk/internal/repository"
	apperrors "github.com/spec-kit/grievance-desk/pkg/util/errorutil"
)

// TicketService coordinates ticket intake, status changes and reads.
type TicketService struct {
	tickets    repository.TicketRepository
	history    repository.TicketHistoryRepository
	assigner   *AssignmentService
	escalation *EscalationService
	queries    *QueryService
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
	logger     *zap.Logger
	now        func() time.Time
}

// TicketDependencies bundles collaborators for ticket service.
type TicketDependencies struct {
	TicketRepo  repository.TicketRepository
	HistoryRepo repository.TicketHistoryRepository
	Assigner    *AssignmentService
	Escalation  *EscalationService
	Queries     *QueryService
	Dispatcher  events.Dispatcher
	Metrics     *observability.Metrics
	Logger      *zap.Logger
	Clock       func() time.Time
}

// TicketView pairs a ticket with its escalation state at read time.
type TicketView struct {
	Ticket     domain.Ticket
	Escalation EscalationState
}

// Acknowledgement carries what a reporter reply needs.
type Acknowledgement struct {
	TicketID string
	Officer  string
	Category string
}

// SubmitResult is returned by Submit. Warnings list classifier fields that
// were replaced by fallbacks; they never prevent ticket creation.
type SubmitResult struct {
	Ticket          TicketView
	Acknowledgement Acknowledgement
	Warnings        []classify.Warning
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	svc := &TicketService{
		tickets:    deps.TicketRepo,
		history:    deps.HistoryRepo,
		assigner:   deps.Assigner,
		escalation: deps.Escalation,
		queries:    deps.Queries,
		dispatcher: deps.Dispatcher,
		metrics:    deps.Metrics,
		logger:     deps.Logger,
		now:        deps.Clock,
	}
	if svc.queries == nil {
		svc.queries = NewQueryService(deps.TicketRepo)
	}
	if svc.logger == nil {
		svc.logger = zap.NewNop()
	}
	if svc.now == nil {
		svc.now = time.Now
	}
	return svc
}

// SubmitRaw normalizes an intake payload and opens a ticket for it.
func (s *TicketService) SubmitRaw(ctx context.Context, raw map[string]any) (*SubmitResult, error) {
	classification, warnings := classify.FromPayload(raw)
	return s.Submit(ctx, classification, warnings)
}

// Submit assigns and stores a new ticket, then announces it.
func (s *TicketService) Submit(ctx context.Context, c domain.Classification, warnings []classify.Warning) (*SubmitResult, error) {
	ticket, err := s.assigner.Assign(ctx, c)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if _, err := s.tickets.Append(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.recordHistory(ctx, ticket.ID, domain.SystemActor, "", ticket.Status)
	s.metrics.RecordTicketCreated(ticket.Category)
	warningText := make([]string, 0, len(warnings))
	for _, w := range warnings {
		s.metrics.RecordClassifierWarning(w.Field)
		warningText = append(warningText, w.String())
	}
	if len(warnings) > 0 {
		s.logger.Warn("classifier output degraded",
			zap.String("ticket_id", ticket.ID),
			zap.Strings("warnings", warningText))
	}
	if ticket.Officer == domain.UnassignedOfficer {
		s.logger.Warn("no routing entry for category",
			zap.String("ticket_id", ticket.ID),
			zap.String("category", ticket.Category))
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.ID,
		Payload: events.TicketCreatedPayload{
			Category: ticket.Category,
			Severity: ticket.Severity,
			Officer:  ticket.Officer,
			ChatID:   ticket.ChatID,
			Warnings: warningText,
		},
	})

	return &SubmitResult{
		Ticket: s.view(*ticket),
		Acknowledgement: Acknowledgement{
			TicketID: ticket.ID,
			Officer:  ticket.Officer,
			Category: ticket.Category,
		},
		Warnings: warnings,
	}, nil
}

// List returns filtered tickets with escalation evaluated now.
func (s *TicketService) List(ctx context.Context, filter TicketFilter) ([]TicketView, error) {
	tickets, err := s.queries.Query(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	now := s.now()
	views := make([]TicketView, 0, len(tickets))
	for _, t := range tickets {
		views = append(views, TicketView{Ticket: t, Escalation: s.escalation.Evaluate(t, now)})
	}
	return views, nil
}

// Get returns a single ticket view.
func (s *TicketService) Get(ctx context.Context, id string) (*TicketView, error) {
	ticket, ok, err := s.queries.Get(ctx, id)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if !ok {
		return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": id})
	}
	view := s.view(*ticket)
	return &view, nil
}

// UpdateStatus moves a ticket forward through its lifecycle. actor is
// recorded in the ticket history.
func (s *TicketService) UpdateStatus(ctx context.Context, id, rawStatus, actor string) (*TicketView, error) {
	next, ok := domain.ParseStatus(rawStatus)
	if !ok {
		return nil, apperrors.NewValidationError("unknown status", map[string]any{
			"status":  rawStatus,
			"allowed": []domain.TicketStatus{domain.TicketStatusOpen, domain.TicketStatusInProgress, domain.TicketStatusResolved},
		})
	}
	ticket, found, err := s.queries.Get(ctx, id)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if !found {
		return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": id})
	}
	if !domain.CanTransition(ticket.Status, next) {
		return nil, apperrors.NewConflict("invalid status transition", map[string]any{
			"ticket_id": id,
			"from":      ticket.Status,
			"to":        next,
		})
	}
	updated, err := s.tickets.UpdateStatus(ctx, id, ticket.Status, next)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if !updated {
		// Tickets are never deleted, so the status moved since it was read.
		return nil, apperrors.NewConflict("ticket status changed concurrently", map[string]any{
			"ticket_id": id,
			"from":      ticket.Status,
			"to":        next,
		})
	}

	oldStatus := ticket.Status
	ticket.Status = next
	s.recordHistory(ctx, id, actor, oldStatus, next)
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketStatusChanged,
		TicketID: id,
		Payload: events.TicketStatusChangedPayload{
			OldStatus: oldStatus,
			NewStatus: next,
			ChatID:    ticket.ChatID,
		},
	})
	view := s.view(*ticket)
	return &view, nil
}

// History returns the status audit trail of a ticket, oldest first.
func (s *TicketService) History(ctx context.Context, id string) ([]domain.TicketHistory, error) {
	_, found, err := s.queries.Get(ctx, id)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if !found {
		return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": id})
	}
	if s.history == nil {
		return []domain.TicketHistory{}, nil
	}
	entries, err := s.history.ListByTicket(ctx, id)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return entries, nil
}

// Views evaluates escalation for every stored ticket at the given instant.
func (s *TicketService) Views(ctx context.Context, now time.Time) ([]TicketView, error) {
	all, err := s.tickets.All(ctx)
	if err != nil {
		return nil, err
	}
	views := make([]TicketView, 0, len(all))
	for _, t := range all {
		views = append(views, TicketView{Ticket: t, Escalation: s.escalation.Evaluate(t, now)})
	}
	return views, nil
}

func (s *TicketService) view(t domain.Ticket) TicketView {
	return TicketView{Ticket: t, Escalation: s.escalation.Evaluate(t, s.now())}
}

// recordHistory is best effort: the status change has already been stored.
func (s *TicketService) recordHistory(ctx context.Context, id, actor string, from, to domain.TicketStatus) {
	if s.history == nil {
		return
	}
	if actor == "" {
		actor = domain.SystemActor
	}
	entry := &domain.TicketHistory{
		TicketID:  id,
		ChangedBy: actor,
		OldStatus: from,
		NewStatus: to,
		CreatedAt: s.now().UTC(),
	}
	if err := s.history.Create(ctx, entry); err != nil {
		s.logger.Warn("failed to record ticket history", zap.String("ticket_id", id), zap.Error(err))
	}
}

func (s *TicketService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = s.now().UTC()
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("event handler failed",
			zap.String("event_type", string(event.Type)),
			zap.String("ticket_id", event.TicketID),
			zap.Error(err))
	}
}
