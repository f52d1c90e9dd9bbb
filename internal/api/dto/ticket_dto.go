package dto

import (
	"time"

	"github.com/helpdesk-kit/lifecycle-service/internal/domain"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Category    string            `json:"category"`
	Type        domain.TicketType `json:"type"`
	Impact      domain.Severity   `json:"impact"`
	Urgency     domain.Severity   `json:"urgency"`
}

// TransitionRequest payload.
type TransitionRequest struct {
	Status domain.TicketStatus `json:"status"`
}

// AssignRequest payload.
type AssignRequest struct {
	AssigneeID   string `json:"assignee_id"`
	AssigneeName string `json:"assignee_name"`
}

// EditTicketRequest is a partial update; omitted fields are untouched.
type EditTicketRequest struct {
	Title       *string                `json:"title,omitempty"`
	Description *string                `json:"description,omitempty"`
	Category    *string                `json:"category,omitempty"`
	Type        *domain.TicketType     `json:"type,omitempty"`
	Priority    *domain.TicketPriority `json:"priority,omitempty"`
}

// CreateCommentRequest payload.
type CreateCommentRequest struct {
	Body string `json:"body"`
}

// TicketSummary response.
type TicketSummary struct {
	ID           string                `json:"id"`
	ReferenceKey string                `json:"reference_key"`
	Title        string                `json:"title"`
	Category     string                `json:"category"`
	Type         domain.TicketType     `json:"type"`
	Priority     domain.TicketPriority `json:"priority"`
	Status       domain.TicketStatus   `json:"status"`
	AssignedTo   *string               `json:"assigned_to"`
	CreatedAt    time.Time             `json:"created_at"`
	UpdatedAt    time.Time             `json:"updated_at"`
}

// TicketDetailResponse provides full ticket info.
type TicketDetailResponse struct {
	ID             string                `json:"id"`
	ReferenceKey   string                `json:"reference_key"`
	Title          string                `json:"title"`
	Description    string                `json:"description"`
	Category       string                `json:"category"`
	Type           domain.TicketType     `json:"type"`
	Impact         domain.Severity       `json:"impact"`
	Urgency        domain.Severity       `json:"urgency"`
	Priority       domain.TicketPriority `json:"priority"`
	SLATargetHours int                   `json:"sla_target_hours"`
	SLADeadline    time.Time             `json:"sla_deadline"`
	Status         domain.TicketStatus   `json:"status"`
	CreatedByID    string                `json:"created_by_id"`
	CreatedByName  string                `json:"created_by_name"`
	AssignedTo     *string               `json:"assigned_to"`
	AssignedToID   *string               `json:"assigned_to_id"`
	AssignedAt     *time.Time            `json:"assigned_at"`
	AssignedBy     *string               `json:"assigned_by"`
	TakenBy        *string               `json:"taken_by"`
	TakenAt        *time.Time            `json:"taken_at"`
	ClosedAt       *time.Time            `json:"closed_at"`
	ClosedBy       *string               `json:"closed_by"`
	CreatedAt      time.Time             `json:"created_at"`
	UpdatedAt      time.Time             `json:"updated_at"`
}

// HistoryEntryResponse is one audit trail row.
type HistoryEntryResponse struct {
	ID        string    `json:"id"`
	Field     string    `json:"field"`
	OldValue  *string   `json:"old_value"`
	NewValue  *string   `json:"new_value"`
	ActorID   string    `json:"actor_id"`
	ActorName string    `json:"actor_name"`
	CreatedAt time.Time `json:"created_at"`
}

// CommentResponse is one thread comment.
type CommentResponse struct {
	ID         string    `json:"id"`
	AuthorID   string    `json:"author_id"`
	AuthorName string    `json:"author_name"`
	Body       string    `json:"body"`
	CreatedAt  time.Time `json:"created_at"`
}

// NewTicketSummary maps a domain ticket to its list representation.
func NewTicketSummary(t *domain.Ticket) TicketSummary {
	return TicketSummary{
		ID:           t.ID,
		ReferenceKey: t.ReferenceKey,
		Title:        t.Title,
		Category:     t.Category,
		Type:         t.Type,
		Priority:     t.Priority,
		Status:       t.Status,
		AssignedTo:   t.AssignedTo,
		CreatedAt:    t.CreatedAt,
		UpdatedAt:    t.UpdatedAt,
	}
}

// NewTicketDetail maps a domain ticket to its detail representation.
func NewTicketDetail(t *domain.Ticket) TicketDetailResponse {
	return TicketDetailResponse{
		ID:             t.ID,
		ReferenceKey:   t.ReferenceKey,
		Title:          t.Title,
		Description:    t.Description,
		Category:       t.Category,
		Type:           t.Type,
		Impact:         t.Impact,
		Urgency:        t.Urgency,
		Priority:       t.Priority,
		SLATargetHours: t.SLATargetHours,
		SLADeadline:    t.SLADeadline(),
		Status:         t.Status,
		CreatedByID:    t.CreatedByID,
		CreatedByName:  t.CreatedByName,
		AssignedTo:     t.AssignedTo,
		AssignedToID:   t.AssignedToID,
		AssignedAt:     t.AssignedAt,
		AssignedBy:     t.AssignedBy,
		TakenBy:        t.TakenBy,
		TakenAt:        t.TakenAt,
		ClosedAt:       t.ClosedAt,
		ClosedBy:       t.ClosedBy,
		CreatedAt:      t.CreatedAt,
		UpdatedAt:      t.UpdatedAt,
	}
}

// NewHistoryEntry maps an audit entry.
func NewHistoryEntry(e *domain.HistoryEntry) HistoryEntryResponse {
	return HistoryEntryResponse{
		ID:        e.ID,
		Field:     string(e.Field),
		OldValue:  e.OldValue,
		NewValue:  e.NewValue,
		ActorID:   e.ActorID,
		ActorName: e.ActorName,
		CreatedAt: e.CreatedAt,
	}
}

// NewComment maps a thread comment.
func NewComment(c *domain.Comment) CommentResponse {
	return CommentResponse{
		ID:         c.ID,
		AuthorID:   c.AuthorID,
		AuthorName: c.AuthorName,
		Body:       c.Body,
		CreatedAt:  c.CreatedAt,
	}
}
