package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/spec-kit/grievance-desk/internal/domain"
	"github.com/spec-kit/grievance-desk/internal/events"
	"github.com/spec-kit/grievance-desk/internal/repository"
	apperrors "github.com/spec-kit/grievance-desk/pkg/util/errorutil"
)

func errorCode(err error) string {
	var domainErr *apperrors.DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code
	}
	return ""
}

func TestSubmitRawCreatesTicket(t *testing.T) {
	env := newTestEnv(t)
	res, err := env.tickets.SubmitRaw(context.Background(), map[string]any{
		"category":    "Pothole",
		"severity":    "High",
		"description": "Deep pothole",
		"lat":         12.97,
		"long":        77.59,
		"chat_id":     "555",
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	ticket := res.Ticket.Ticket
	if ticket.Officer != "Eng A" || ticket.Status != domain.TicketStatusOpen {
		t.Fatalf("unexpected ticket %+v", ticket)
	}
	if len(res.Warnings) != 0 {
		t.Fatalf("unexpected warnings %v", res.Warnings)
	}
	if res.Acknowledgement.TicketID != ticket.ID || res.Acknowledgement.Officer != "Eng A" {
		t.Fatalf("acknowledgement = %+v", res.Acknowledgement)
	}
	if res.Ticket.Escalation.Message != "Assigned to Eng A (24h left)" {
		t.Fatalf("escalation = %+v", res.Ticket.Escalation)
	}

	all, _ := env.store.All(context.Background())
	if len(all) != 1 || all[0].ID != ticket.ID {
		t.Fatalf("store = %+v", all)
	}

	created := env.events.ofType(events.EventTicketCreated)
	if len(created) != 1 {
		t.Fatalf("ticket_created events = %d", len(created))
	}
	payload := created[0].Payload.(events.TicketCreatedPayload)
	if payload.ChatID != "555" || payload.Officer != "Eng A" {
		t.Fatalf("payload = %+v", payload)
	}
}

func TestSubmitRawDegradedClassification(t *testing.T) {
	env := newTestEnv(t)
	res, err := env.tickets.SubmitRaw(context.Background(), map[string]any{"severity": "Critical"})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if res.Ticket.Ticket.Category != domain.CategoryOther || res.Ticket.Ticket.Severity != domain.SeverityMedium {
		t.Fatalf("unexpected ticket %+v", res.Ticket.Ticket)
	}
	if res.Ticket.Ticket.Officer != domain.UnassignedOfficer {
		t.Fatalf("officer = %q", res.Ticket.Ticket.Officer)
	}
	if len(res.Warnings) == 0 {
		t.Fatal("expected warnings")
	}
	if res.Ticket.Escalation.Applicable {
		t.Fatal("unrouted ticket should not have escalation")
	}
}

func TestUpdateStatusForwardOnly(t *testing.T) {
	env := newTestEnv(t)
	ticket := env.submit(t, "Pothole", domain.SeverityHigh, "hole")
	ctx := context.Background()

	view, err := env.tickets.UpdateStatus(ctx, ticket.ID, "In Progress", "admin")
	if err != nil {
		t.Fatalf("to in progress: %v", err)
	}
	if view.Ticket.Status != domain.TicketStatusInProgress {
		t.Fatalf("status = %q", view.Ticket.Status)
	}

	_, err = env.tickets.UpdateStatus(ctx, ticket.ID, "Open", "admin")
	if code := errorCode(err); code != "CONFLICT" {
		t.Fatalf("backward transition: code %q err %v", code, err)
	}

	view, err = env.tickets.UpdateStatus(ctx, ticket.ID, "Resolved", "admin")
	if err != nil {
		t.Fatalf("to resolved: %v", err)
	}
	if view.Escalation.Applicable {
		t.Fatal("resolved ticket should not be escalation-applicable")
	}

	_, err = env.tickets.UpdateStatus(ctx, ticket.ID, "Resolved", "admin")
	if code := errorCode(err); code != "CONFLICT" {
		t.Fatalf("same status: code %q err %v", code, err)
	}

	changed := env.events.ofType(events.EventTicketStatusChanged)
	if len(changed) != 2 {
		t.Fatalf("status events = %d, want 2", len(changed))
	}
}

func TestUpdateStatusErrors(t *testing.T) {
	env := newTestEnv(t)
	ticket := env.submit(t, "Pothole", domain.SeverityHigh, "hole")
	ctx := context.Background()

	if _, err := env.tickets.UpdateStatus(ctx, ticket.ID, "Closed", "admin"); errorCode(err) != "VALIDATION_FAILED" {
		t.Fatalf("unknown status: %v", err)
	}
	if _, err := env.tickets.UpdateStatus(ctx, "TKT-404", "Resolved", "admin"); errorCode(err) != "NOT_FOUND" {
		t.Fatalf("missing ticket: %v", err)
	}
}

// staleReads serves a frozen snapshot from All while writes reach the real
// store, like a second request that read the ticket before a concurrent update.
type staleReads struct {
	repository.TicketRepository
	snapshot []domain.Ticket
}

func (s *staleReads) All(context.Context) ([]domain.Ticket, error) {
	return s.snapshot, nil
}

func TestUpdateStatusLostRaceIsConflict(t *testing.T) {
	env := newTestEnv(t)
	ticket := env.submit(t, "Pothole", domain.SeverityHigh, "hole")
	ctx := context.Background()

	snapshot, err := env.store.All(ctx)
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	slow := NewTicketService(TicketDependencies{
		TicketRepo: &staleReads{TicketRepository: env.store, snapshot: snapshot},
		Escalation: env.escalate,
		Clock:      env.clock.Now,
	})

	if _, err := env.tickets.UpdateStatus(ctx, ticket.ID, "Resolved", "admin"); err != nil {
		t.Fatalf("to resolved: %v", err)
	}
	_, err = slow.UpdateStatus(ctx, ticket.ID, "In Progress", "admin")
	if code := errorCode(err); code != "CONFLICT" {
		t.Fatalf("lost race: code %q err %v", code, err)
	}

	stored, found, err := env.queries.Get(ctx, ticket.ID)
	if err != nil || !found {
		t.Fatalf("Get = %v, %v", found, err)
	}
	if stored.Status != domain.TicketStatusResolved {
		t.Fatalf("status = %q, want Resolved", stored.Status)
	}
}

func TestGet(t *testing.T) {
	env := newTestEnv(t)
	ticket := env.submit(t, "Pothole", domain.SeverityHigh, "hole")
	env.clock.Advance(25 * time.Hour)

	view, err := env.tickets.Get(context.Background(), ticket.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !view.Escalation.Escalated || view.Escalation.Assignee != "Eng B" {
		t.Fatalf("escalation = %+v", view.Escalation)
	}
	if view.Ticket.Officer != "Eng A" {
		t.Fatal("escalation must not rewrite the stored officer")
	}

	if _, err := env.tickets.Get(context.Background(), "TKT-404"); errorCode(err) != "NOT_FOUND" {
		t.Fatalf("missing ticket: %v", err)
	}
}

func TestListEvaluatesEscalationAtReadTime(t *testing.T) {
	env := newTestEnv(t)
	env.submit(t, "Pothole", domain.SeverityHigh, "hole")
	env.submit(t, "Garbage", domain.SeverityLow, "bin")
	env.clock.Advance(13 * time.Hour)

	views, err := env.tickets.List(context.Background(), TicketFilter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	escalated := map[string]bool{}
	for _, v := range views {
		escalated[v.Ticket.Category] = v.Escalation.Escalated
	}
	if !escalated["Garbage"] || escalated["Pothole"] {
		t.Fatalf("escalated = %v", escalated)
	}

	views, err = env.tickets.Views(context.Background(), t0.Add(30*time.Hour))
	if err != nil {
		t.Fatalf("views: %v", err)
	}
	for _, v := range views {
		if !v.Escalation.Escalated {
			t.Fatalf("%s should be escalated at T0+30h", v.Ticket.ID)
		}
	}
}

func TestHistoryRecordsIntakeAndTransitions(t *testing.T) {
	env := newTestEnv(t)
	ticket := env.submit(t, "Pothole", domain.SeverityHigh, "hole")
	ctx := context.Background()

	env.clock.Advance(time.Hour)
	if _, err := env.tickets.UpdateStatus(ctx, ticket.ID, "In Progress", "admin"); err != nil {
		t.Fatalf("update: %v", err)
	}
	if _, err := env.tickets.UpdateStatus(ctx, ticket.ID, "Open", "admin"); err == nil {
		t.Fatal("expected conflict")
	}

	entries, err := env.tickets.History(ctx, ticket.ID)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("entries = %+v", entries)
	}
	if entries[0].OldStatus != "" || entries[0].NewStatus != domain.TicketStatusOpen || entries[0].ChangedBy != domain.SystemActor {
		t.Fatalf("intake entry = %+v", entries[0])
	}
	if entries[1].OldStatus != domain.TicketStatusOpen || entries[1].NewStatus != domain.TicketStatusInProgress || entries[1].ChangedBy != "admin" {
		t.Fatalf("transition entry = %+v", entries[1])
	}
	if !entries[1].CreatedAt.Equal(t0.Add(time.Hour)) {
		t.Fatalf("created at = %v", entries[1].CreatedAt)
	}

	if _, err := env.tickets.History(ctx, "TKT-404"); errorCode(err) != "NOT_FOUND" {
		t.Fatalf("missing ticket: %v", err)
	}
}
