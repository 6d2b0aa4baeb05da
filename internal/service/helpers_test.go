package service

import (
	"context"
	"testing"
	"time"

	"github.com/spec-kit/grievance-desk/internal/domain"
	"github.com/spec-kit/grievance-desk/internal/events"
	"github.com/spec-kit/grievance-desk/internal/repository"
	"github.com/spec-kit/grievance-desk/internal/routing"
)

var t0 = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func testRoutes(t *testing.T) *routing.Table {
	t.Helper()
	table, err := routing.New([]routing.Entry{
		{Category: "Pothole", Primary: "Eng A", Secondary: "Eng B", SLAHours: 24},
		{Category: "Garbage", Primary: "Sanitation", Secondary: "Ward Officer", SLAHours: 12},
	})
	if err != nil {
		t.Fatalf("routing table: %v", err)
	}
	return table
}

type testEnv struct {
	clock    *fakeClock
	store    repository.TicketRepository
	routes   *routing.Table
	events   *recordedEvents
	tickets  *TicketService
	queries  *QueryService
	escalate *EscalationService
}

type recordedEvents struct {
	got []events.Event
}

func (r *recordedEvents) handle(_ context.Context, e events.Event) error {
	r.got = append(r.got, e)
	return nil
}

func (r *recordedEvents) ofType(eventType events.EventType) []events.Event {
	var out []events.Event
	for _, e := range r.got {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	clock := &fakeClock{now: t0}
	store := repository.NewMemoryTicketRepository()
	history := repository.NewMemoryTicketHistoryRepository()
	routes := testRoutes(t)
	recorded := &recordedEvents{}
	dispatcher := events.NewInMemoryDispatcher()
	dispatcher.Subscribe(events.EventTicketCreated, recorded.handle)
	dispatcher.Subscribe(events.EventTicketStatusChanged, recorded.handle)

	escalation := NewEscalationService(routes)
	queries := NewQueryService(store)
	tickets := NewTicketService(TicketDependencies{
		TicketRepo:  store,
		HistoryRepo: history,
		Assigner: NewAssignmentService(AssignmentDependencies{
			Routes: routes,
			IDs:    repository.NewCounterSequence(0),
			Clock:  clock.Now,
		}),
		Escalation: escalation,
		Queries:    queries,
		Dispatcher: dispatcher,
		Clock:      clock.Now,
	})
	return &testEnv{
		clock:    clock,
		store:    store,
		routes:   routes,
		events:   recorded,
		tickets:  tickets,
		queries:  queries,
		escalate: escalation,
	}
}

func (e *testEnv) submit(t *testing.T, category string, severity domain.Severity, description string) domain.Ticket {
	t.Helper()
	res, err := e.tickets.Submit(context.Background(), domain.Classification{
		Category:    category,
		Severity:    severity,
		Description: description,
	}, nil)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	return res.Ticket.Ticket
}
