package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/helpdesk-kit/lifecycle-service/internal/domain"
)

// TicketHistoryRepository stores audit entries. Entries are insert-only;
// no update path exists.
type TicketHistoryRepository interface {
	Create(ctx context.Context, entry *domain.HistoryEntry) error
	ListByTicket(ctx context.Context, ticketID string, limit, offset int) ([]domain.HistoryEntry, error)
	// DeleteByTicket removes history rows in bounded pages. Idempotent and
	// safe to re-invoke if interrupted mid-way.
	DeleteByTicket(ctx context.Context, ticketID string, pageSize int) error
}

type ticketHistoryRepository struct {
	pool *pgxpool.Pool
}

// NewTicketHistoryRepository builds repository.
func NewTicketHistoryRepository(pool *pgxpool.Pool) TicketHistoryRepository {
	return &ticketHistoryRepository{pool: pool}
}

func (r *ticketHistoryRepository) Create(ctx context.Context, entry *domain.HistoryEntry) error {
	const query = `
        INSERT INTO ticket_history (ticket_id, field, old_value, new_value, actor_id, actor_name)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		entry.TicketID,
		entry.Field,
		entry.OldValue,
		entry.NewValue,
		entry.ActorID,
		entry.ActorName,
	).Scan(&entry.ID, &entry.CreatedAt)
}

func (r *ticketHistoryRepository) ListByTicket(ctx context.Context, ticketID string, limit, offset int) ([]domain.HistoryEntry, error) {
	if limit <= 0 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	const query = `
        SELECT id, ticket_id, field, old_value, new_value, actor_id, actor_name, created_at
        FROM ticket_history WHERE ticket_id=$1 ORDER BY created_at ASC LIMIT $2 OFFSET $3`
	rows, err := r.pool.Query(ctx, query, ticketID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.HistoryEntry
	for rows.Next() {
		var entry domain.HistoryEntry
		if err := rows.Scan(
			&entry.ID,
			&entry.TicketID,
			&entry.Field,
			&entry.OldValue,
			&entry.NewValue,
			&entry.ActorID,
			&entry.ActorName,
			&entry.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, entry)
	}
	return result, rows.Err()
}

func (r *ticketHistoryRepository) DeleteByTicket(ctx context.Context, ticketID string, pageSize int) error {
	if pageSize <= 0 {
		pageSize = 400
	}
	const query = `
        DELETE FROM ticket_history
        WHERE id IN (SELECT id FROM ticket_history WHERE ticket_id=$1 LIMIT $2)`
	for {
		cmd, err := r.pool.Exec(ctx, query, ticketID, pageSize)
		if err != nil {
			return err
		}
		if cmd.RowsAffected() < int64(pageSize) {
			return nil
		}
	}
}
