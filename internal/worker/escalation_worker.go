package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/spec-kit/grievance-desk/internal/events"
	"github.com/spec-kit/grievance-desk/internal/observability"
	"github.com/spec-kit/grievance-desk/internal/routing"
	"github.com/spec-kit/grievance-desk/internal/service"
)

// cronParser uses standard 5-field cron expressions (minute, hour, dom, month, dow).
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// TicketViewer lists tickets with escalation evaluated at a given instant.
type TicketViewer interface {
	Views(ctx context.Context, now time.Time) ([]service.TicketView, error)
}

// EscalationSweep periodically reports tickets past their SLA. It never
// mutates tickets: a breach produces a log line and one informational
// event per ticket for the lifetime of the process.
type EscalationSweep struct {
	tickets    TicketViewer
	routes     *routing.Table
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
	logger     *zap.Logger
	now        func() time.Time

	mu       sync.Mutex
	notified map[string]struct{}
}

// SweepDependencies bundles collaborators for the sweep.
type SweepDependencies struct {
	Tickets    TicketViewer
	Routes     *routing.Table
	Dispatcher events.Dispatcher
	Metrics    *observability.Metrics
	Logger     *zap.Logger
	Clock      func() time.Time
}

// NewEscalationSweep builds the sweep.
func NewEscalationSweep(deps SweepDependencies) *EscalationSweep {
	sweep := &EscalationSweep{
		tickets:    deps.Tickets,
		routes:     deps.Routes,
		dispatcher: deps.Dispatcher,
		metrics:    deps.Metrics,
		logger:     deps.Logger,
		now:        deps.Clock,
		notified:   make(map[string]struct{}),
	}
	if sweep.logger == nil {
		sweep.logger = zap.NewNop()
	}
	if sweep.now == nil {
		sweep.now = time.Now
	}
	return sweep
}

// RunOnce evaluates every ticket and returns how many are breached.
func (s *EscalationSweep) RunOnce(ctx context.Context) (int, error) {
	now := s.now()
	views, err := s.tickets.Views(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("escalation sweep: %w", err)
	}

	breached := 0
	for _, view := range views {
		if !view.Escalation.Escalated {
			continue
		}
		breached++
		if !s.markNotified(view.Ticket.ID) {
			continue
		}
		entry, _ := s.routes.Lookup(view.Ticket.Category)
		s.logger.Warn("ticket breached SLA",
			zap.String("ticket_id", view.Ticket.ID),
			zap.String("category", view.Ticket.Category),
			zap.String("escalated_to", entry.Secondary))
		if s.dispatcher == nil {
			continue
		}
		err := s.dispatcher.Publish(ctx, events.Event{
			ID:        uuid.NewString(),
			Type:      events.EventTicketSLABreached,
			TicketID:  view.Ticket.ID,
			Timestamp: now.UTC(),
			Payload: events.TicketSLABreachedPayload{
				Category:  view.Ticket.Category,
				Primary:   entry.Primary,
				Secondary: entry.Secondary,
				SLAHours:  entry.SLAHours,
				Message:   view.Escalation.Message,
			},
		})
		if err != nil {
			s.logger.Warn("sla breach handler failed", zap.String("ticket_id", view.Ticket.ID), zap.Error(err))
		}
	}
	s.metrics.SetBreachedTickets(breached)
	s.logger.Info("escalation sweep complete", zap.Int("tickets", len(views)), zap.Int("breached", breached))
	return breached, nil
}

func (s *EscalationSweep) markNotified(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, seen := s.notified[id]; seen {
		return false
	}
	s.notified[id] = struct{}{}
	return true
}

// StartEscalationSweep schedules the sweep on a cron expression and
// returns the running scheduler. An empty schedule disables the sweep.
func StartEscalationSweep(ctx context.Context, schedule string, sweep *EscalationSweep) (*cron.Cron, error) {
	if schedule == "" || sweep == nil {
		return nil, nil
	}
	if _, err := cronParser.Parse(schedule); err != nil {
		return nil, fmt.Errorf("invalid escalation sweep schedule %q: %w", schedule, err)
	}
	c := cron.New(cron.WithParser(cronParser))
	if _, err := c.AddFunc(schedule, func() {
		if _, err := sweep.RunOnce(ctx); err != nil {
			sweep.logger.Error("escalation sweep failed", zap.Error(err))
		}
	}); err != nil {
		return nil, err
	}
	c.Start()
	return c, nil
}
