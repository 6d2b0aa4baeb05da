package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/grievance-desk/internal/domain"
)

// ErrDuplicateID is returned when an append reuses an issued ticket id.
var ErrDuplicateID = errors.New("ticket id already exists")

// TicketRepository is the ticket store. Appends are atomic with respect to
// each other; All returns tickets in append order. UpdateStatus is a
// compare-and-set: it writes to only while the ticket is still in from and
// reports false otherwise, including for unknown ids.
type TicketRepository interface {
	Append(ctx context.Context, ticket *domain.Ticket) (string, error)
	All(ctx context.Context) ([]domain.Ticket, error)
	UpdateStatus(ctx context.Context, id string, from, to domain.TicketStatus) (bool, error)
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates the Postgres backed store.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

func (r *ticketRepository) Append(ctx context.Context, ticket *domain.Ticket) (string, error) {
	const query = `
        INSERT INTO tickets (ticket_id, created_at, category, severity, description, lat, long, status, officer, photo_url, chat_id)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`
	var lat, long *float64
	if ticket.Location != nil {
		lat, long = &ticket.Location.Lat, &ticket.Location.Long
	}
	_, err := r.pool.Exec(ctx, query,
		ticket.ID,
		ticket.Timestamp,
		ticket.Category,
		ticket.Severity,
		ticket.Description,
		lat,
		long,
		ticket.Status,
		ticket.Officer,
		ticket.PhotoURL,
		ticket.ChatID,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return "", fmt.Errorf("append %s: %w", ticket.ID, ErrDuplicateID)
		}
		return "", fmt.Errorf("append %s: %w", ticket.ID, err)
	}
	return ticket.ID, nil
}

func (r *ticketRepository) All(ctx context.Context) ([]domain.Ticket, error) {
	const query = `
        SELECT ticket_id, created_at, category, severity, description, lat, long, status, officer, photo_url, chat_id
        FROM tickets ORDER BY seq ASC`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func (r *ticketRepository) UpdateStatus(ctx context.Context, id string, from, to domain.TicketStatus) (bool, error) {
	const query = `UPDATE tickets SET status=$1, updated_at=NOW() WHERE ticket_id=$2 AND status=$3`
	cmd, err := r.pool.Exec(ctx, query, to, id, from)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

func scanTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	var result []domain.Ticket
	for rows.Next() {
		var (
			ticket    domain.Ticket
			lat, long *float64
		)
		if err := rows.Scan(
			&ticket.ID,
			&ticket.Timestamp,
			&ticket.Category,
			&ticket.Severity,
			&ticket.Description,
			&lat,
			&long,
			&ticket.Status,
			&ticket.Officer,
			&ticket.PhotoURL,
			&ticket.ChatID,
		); err != nil {
			return nil, err
		}
		if lat != nil && long != nil {
			ticket.Location = &domain.Location{Lat: *lat, Long: *long}
		}
		ticket.Timestamp = ticket.Timestamp.UTC()
		result = append(result, ticket)
	}
	return result, rows.Err()
}
