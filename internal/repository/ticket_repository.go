package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/helpdesk-kit/lifecycle-service/internal/domain"
)

// ErrStatusConflict signals a lost compare-and-swap on the status column:
// another writer moved the ticket out of the expected status first.
var ErrStatusConflict = errors.New("ticket status changed concurrently")

// TicketFilter captures listing parameters.
type TicketFilter struct {
	CreatedByID *string
	AssigneeID  *string
	Statuses    []domain.TicketStatus
	Priorities  []domain.TicketPriority
	SearchTerm  *string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	Limit       int
	Offset      int
}

// StatusCount aggregates ticket totals for the stats endpoint.
type StatusCount struct {
	Status domain.TicketStatus
	Count  int64
}

// PriorityCount aggregates ticket totals by priority.
type PriorityCount struct {
	Priority domain.TicketPriority
	Count    int64
}

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	Update(ctx context.Context, ticket *domain.Ticket) error
	// UpdateStatus writes the status transition fields conditionally on the
	// ticket still being in expected status. Returns ErrStatusConflict when
	// the guard fails while the row still exists, pgx.ErrNoRows when it
	// does not.
	UpdateStatus(ctx context.Context, ticket *domain.Ticket, expected domain.TicketStatus) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	GetByReferenceKey(ctx context.Context, key string) (*domain.Ticket, error)
	Delete(ctx context.Context, id string) error
	ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error)
	CountByStatus(ctx context.Context) ([]StatusCount, error)
	CountByPriority(ctx context.Context) ([]PriorityCount, error)
	ListSLABreached(ctx context.Context, now time.Time, limit int) ([]domain.Ticket, error)
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

const ticketColumns = `id, reference_key, title, description, category, type, impact, urgency,
               priority, sla_target_hours, status,
               created_by_id, created_by_name, created_by_email,
               assigned_to, assigned_to_id, assigned_at, assigned_by,
               taken_by, taken_by_id, taken_at, closed_at, closed_by,
               created_at, updated_at`

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (reference_key, title, description, category, type, impact, urgency,
                             priority, sla_target_hours, status,
                             created_by_id, created_by_name, created_by_email)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		ticket.ReferenceKey,
		ticket.Title,
		ticket.Description,
		ticket.Category,
		ticket.Type,
		ticket.Impact,
		ticket.Urgency,
		ticket.Priority,
		ticket.SLATargetHours,
		ticket.Status,
		ticket.CreatedByID,
		ticket.CreatedByName,
		ticket.CreatedByEmail,
	).Scan(&ticket.ID, &ticket.CreatedAt, &ticket.UpdatedAt)
}

func (r *ticketRepository) Update(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        UPDATE tickets SET title=$1, description=$2, category=$3, type=$4, priority=$5,
            assigned_to=$6, assigned_to_id=$7, assigned_at=$8, assigned_by=$9,
            taken_by=$10, taken_by_id=$11, taken_at=$12,
            closed_at=$13, closed_by=$14, updated_at=NOW()
        WHERE id=$15`
	cmd, err := r.pool.Exec(ctx, query,
		ticket.Title,
		ticket.Description,
		ticket.Category,
		ticket.Type,
		ticket.Priority,
		ticket.AssignedTo,
		ticket.AssignedToID,
		ticket.AssignedAt,
		ticket.AssignedBy,
		ticket.TakenBy,
		ticket.TakenByID,
		ticket.TakenAt,
		ticket.ClosedAt,
		ticket.ClosedBy,
		ticket.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ticketRepository) UpdateStatus(ctx context.Context, ticket *domain.Ticket, expected domain.TicketStatus) error {
	const query = `
        UPDATE tickets SET status=$1,
            taken_by=$2, taken_by_id=$3, taken_at=$4,
            closed_at=$5, closed_by=$6, updated_at=NOW()
        WHERE id=$7 AND status=$8`
	cmd, err := r.pool.Exec(ctx, query,
		ticket.Status,
		ticket.TakenBy,
		ticket.TakenByID,
		ticket.TakenAt,
		ticket.ClosedAt,
		ticket.ClosedBy,
		ticket.ID,
		expected,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		// distinguish a lost race from a deleted row
		var exists bool
		if checkErr := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM tickets WHERE id=$1)`, ticket.ID).Scan(&exists); checkErr != nil {
			return checkErr
		}
		if exists {
			return ErrStatusConflict
		}
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE id=$1`
	return r.fetchSingle(ctx, query, id)
}

func (r *ticketRepository) GetByReferenceKey(ctx context.Context, key string) (*domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE reference_key=$1`
	return r.fetchSingle(ctx, query, key)
}

func (r *ticketRepository) Delete(ctx context.Context, id string) error {
	// deleting an already-deleted ticket is a no-op so purge stays idempotent
	_, err := r.pool.Exec(ctx, `DELETE FROM tickets WHERE id=$1`, id)
	return err
}

func (r *ticketRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Ticket, error) {
	var ticket domain.Ticket
	if err := r.pool.QueryRow(ctx, query, arg).Scan(
		&ticket.ID,
		&ticket.ReferenceKey,
		&ticket.Title,
		&ticket.Description,
		&ticket.Category,
		&ticket.Type,
		&ticket.Impact,
		&ticket.Urgency,
		&ticket.Priority,
		&ticket.SLATargetHours,
		&ticket.Status,
		&ticket.CreatedByID,
		&ticket.CreatedByName,
		&ticket.CreatedByEmail,
		&ticket.AssignedTo,
		&ticket.AssignedToID,
		&ticket.AssignedAt,
		&ticket.AssignedBy,
		&ticket.TakenBy,
		&ticket.TakenByID,
		&ticket.TakenAt,
		&ticket.ClosedAt,
		&ticket.ClosedBy,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (r *ticketRepository) ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	base := `SELECT ` + ticketColumns + ` FROM tickets`
	clauses := []string{"1=1"}
	args := []any{}

	if filter.CreatedByID != nil {
		args = append(args, *filter.CreatedByID)
		clauses = append(clauses, fmt.Sprintf("created_by_id=$%d", len(args)))
	}
	if filter.AssigneeID != nil {
		args = append(args, *filter.AssigneeID)
		clauses = append(clauses, fmt.Sprintf("assigned_to_id=$%d", len(args)))
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if len(filter.Priorities) > 0 {
		placeholders := make([]string, len(filter.Priorities))
		for i, pr := range filter.Priorities {
			args = append(args, pr)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("priority IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.CreatedFrom != nil {
		args = append(args, *filter.CreatedFrom)
		clauses = append(clauses, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if filter.CreatedTo != nil {
		args = append(args, *filter.CreatedTo)
		clauses = append(clauses, fmt.Sprintf("created_at <= $%d", len(args)))
	}
	if filter.SearchTerm != nil && strings.TrimSpace(*filter.SearchTerm) != "" {
		search := "%" + strings.ToLower(strings.TrimSpace(*filter.SearchTerm)) + "%"
		args = append(args, search)
		placeholder := fmt.Sprintf("$%d", len(args))
		clauses = append(clauses, fmt.Sprintf("(LOWER(title) LIKE %s OR LOWER(description) LIKE %s)", placeholder, placeholder))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`%s WHERE %s ORDER BY updated_at DESC LIMIT %d OFFSET %d`,
		base, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func (r *ticketRepository) CountByStatus(ctx context.Context) ([]StatusCount, error) {
	rows, err := r.pool.Query(ctx, `SELECT status, COUNT(*) FROM tickets GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []StatusCount
	for rows.Next() {
		var sc StatusCount
		if err := rows.Scan(&sc.Status, &sc.Count); err != nil {
			return nil, err
		}
		result = append(result, sc)
	}
	return result, rows.Err()
}

func (r *ticketRepository) CountByPriority(ctx context.Context) ([]PriorityCount, error) {
	rows, err := r.pool.Query(ctx, `SELECT priority, COUNT(*) FROM tickets GROUP BY priority`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []PriorityCount
	for rows.Next() {
		var pc PriorityCount
		if err := rows.Scan(&pc.Priority, &pc.Count); err != nil {
			return nil, err
		}
		result = append(result, pc)
	}
	return result, rows.Err()
}

func (r *ticketRepository) ListSLABreached(ctx context.Context, now time.Time, limit int) ([]domain.Ticket, error) {
	if limit <= 0 {
		limit = 100
	}
	query := `SELECT ` + ticketColumns + ` FROM tickets
        WHERE status NOT IN ($1, $2)
          AND created_at + make_interval(hours => sla_target_hours) < $3
        ORDER BY created_at ASC LIMIT $4`
	rows, err := r.pool.Query(ctx, query, domain.TicketStatusResolved, domain.TicketStatusClosed, now, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func scanTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	var result []domain.Ticket
	for rows.Next() {
		var ticket domain.Ticket
		if err := rows.Scan(
			&ticket.ID,
			&ticket.ReferenceKey,
			&ticket.Title,
			&ticket.Description,
			&ticket.Category,
			&ticket.Type,
			&ticket.Impact,
			&ticket.Urgency,
			&ticket.Priority,
			&ticket.SLATargetHours,
			&ticket.Status,
			&ticket.CreatedByID,
			&ticket.CreatedByName,
			&ticket.CreatedByEmail,
			&ticket.AssignedTo,
			&ticket.AssignedToID,
			&ticket.AssignedAt,
			&ticket.AssignedBy,
			&ticket.TakenBy,
			&ticket.TakenByID,
			&ticket.TakenAt,
			&ticket.ClosedAt,
			&ticket.ClosedBy,
			&ticket.CreatedAt,
			&ticket.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, ticket)
	}
	return result, rows.Err()
}
