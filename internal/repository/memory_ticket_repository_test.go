package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/spec-kit/grievance-desk/internal/domain"
)

func newTicket(id string) *domain.Ticket {
	return &domain.Ticket{
		ID:        id,
		Timestamp: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
		Category:  domain.CategoryPothole,
		Severity:  domain.SeverityHigh,
		Status:    domain.TicketStatusOpen,
		Officer:   "Eng A",
		Location:  &domain.Location{Lat: 1, Long: 2},
	}
}

func TestMemoryAppendAndAll(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryTicketRepository()
	for i := 1; i <= 3; i++ {
		id, err := repo.Append(ctx, newTicket(fmt.Sprintf("TKT-%d", i)))
		if err != nil {
			t.Fatalf("Append: %v", err)
		}
		if id != fmt.Sprintf("TKT-%d", i) {
			t.Fatalf("Append returned %q", id)
		}
	}
	all, err := repo.All(ctx)
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	if len(all) != 3 || all[0].ID != "TKT-1" || all[2].ID != "TKT-3" {
		t.Fatalf("All not in append order: %+v", all)
	}

	all[0].Location.Lat = 99
	again, _ := repo.All(ctx)
	if again[0].Location.Lat != 1 {
		t.Fatal("All must return copies")
	}
}

func TestMemoryAppendRejectsDuplicateID(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryTicketRepository()
	if _, err := repo.Append(ctx, newTicket("TKT-1")); err != nil {
		t.Fatalf("Append: %v", err)
	}
	_, err := repo.Append(ctx, newTicket("TKT-1"))
	if !errors.Is(err, ErrDuplicateID) {
		t.Fatalf("err = %v, want ErrDuplicateID", err)
	}
}

func TestMemoryUpdateStatus(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryTicketRepository()
	_, _ = repo.Append(ctx, newTicket("TKT-1"))

	ok, err := repo.UpdateStatus(ctx, "TKT-1", domain.TicketStatusOpen, domain.TicketStatusResolved)
	if err != nil || !ok {
		t.Fatalf("UpdateStatus = %v, %v", ok, err)
	}
	ok, err = repo.UpdateStatus(ctx, "TKT-1", domain.TicketStatusOpen, domain.TicketStatusInProgress)
	if err != nil || ok {
		t.Fatalf("UpdateStatus(stale from) = %v, %v", ok, err)
	}
	ok, err = repo.UpdateStatus(ctx, "TKT-404", domain.TicketStatusOpen, domain.TicketStatusResolved)
	if err != nil || ok {
		t.Fatalf("UpdateStatus(missing) = %v, %v", ok, err)
	}
	all, _ := repo.All(ctx)
	if all[0].Status != domain.TicketStatusResolved {
		t.Fatalf("status = %q", all[0].Status)
	}
}

func TestMemoryConcurrentAppends(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryTicketRepository()
	ids := NewCounterSequence(0)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id, _ := ids.NextID(ctx)
			if _, err := repo.Append(ctx, newTicket(id)); err != nil {
				t.Errorf("Append: %v", err)
			}
		}()
	}
	wg.Wait()

	all, _ := repo.All(ctx)
	if len(all) != 50 {
		t.Fatalf("stored %d tickets, want 50", len(all))
	}
	seen := map[string]bool{}
	for _, ticket := range all {
		if seen[ticket.ID] {
			t.Fatalf("duplicate id %s", ticket.ID)
		}
		seen[ticket.ID] = true
	}
}

func TestCounterSequence(t *testing.T) {
	seq := NewCounterSequence(41)
	id, _ := seq.NextID(context.Background())
	if id != "TKT-000042" {
		t.Fatalf("NextID = %q", id)
	}
}

func TestRandomKeys(t *testing.T) {
	gen := NewRandomKeys()
	a, _ := gen.NextID(context.Background())
	b, _ := gen.NextID(context.Background())
	if a == b {
		t.Fatal("random ids collided")
	}
	if !strings.HasPrefix(a, TicketIDPrefix) || len(a) != len(TicketIDPrefix)+12 {
		t.Fatalf("unexpected id shape %q", a)
	}
}

func TestRedisSequenceWithoutClient(t *testing.T) {
	seq := NewRedisSequence(nil, "")
	if _, err := seq.NextID(context.Background()); err == nil {
		t.Fatal("expected error without a client")
	}
}

func TestMemoryTicketHistory(t *testing.T) {
	repo := NewMemoryTicketHistoryRepository()
	ctx := context.Background()
	for _, status := range []domain.TicketStatus{domain.TicketStatusOpen, domain.TicketStatusResolved} {
		if err := repo.Create(ctx, &domain.TicketHistory{TicketID: "TKT-1", ChangedBy: "admin", NewStatus: status}); err != nil {
			t.Fatalf("create: %v", err)
		}
	}
	if err := repo.Create(ctx, &domain.TicketHistory{TicketID: "TKT-2", NewStatus: domain.TicketStatusOpen}); err != nil {
		t.Fatalf("create: %v", err)
	}

	entries, err := repo.ListByTicket(ctx, "TKT-1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 2 || entries[0].NewStatus != domain.TicketStatusOpen || entries[1].NewStatus != domain.TicketStatusResolved {
		t.Fatalf("entries = %+v", entries)
	}
	if entries[0].ID == entries[1].ID {
		t.Fatal("history ids should be unique")
	}
	if none, _ := repo.ListByTicket(ctx, "TKT-9"); len(none) != 0 {
		t.Fatalf("unexpected entries %+v", none)
	}
}
