package events

import (
	"time"

	"github.com/helpdesk-kit/lifecycle-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated       EventType = "ticket_created"
	EventTicketStatusChanged EventType = "ticket_status_changed"
	EventTicketAssigned      EventType = "ticket_assigned"
	EventTicketFieldsEdited  EventType = "ticket_fields_edited"
	EventTicketCommentAdded  EventType = "ticket_comment_added"
	EventTicketPurged        EventType = "ticket_purged"
	EventTicketSLABreached   EventType = "ticket_sla_breached"
)

// Actor encapsulates actor metadata for an event.
type Actor struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	TicketID  string    `json:"ticket_id"`
	Actor     Actor     `json:"actor"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	ReferenceKey string                `json:"reference_key"`
	Title        string                `json:"title"`
	Category     string                `json:"category"`
	Type         domain.TicketType     `json:"type"`
	Priority     domain.TicketPriority `json:"priority"`
	SLAHours     int                   `json:"sla_hours"`
}

// TicketStatusChangedPayload payload.
type TicketStatusChangedPayload struct {
	OldStatus domain.TicketStatus `json:"old_status"`
	NewStatus domain.TicketStatus `json:"new_status"`
}

// TicketAssignedPayload payload. Assignee fields are nil on unassign.
type TicketAssignedPayload struct {
	AssigneeID   *string `json:"assignee_id,omitempty"`
	AssigneeName *string `json:"assignee_name,omitempty"`
}

// TicketFieldsEditedPayload payload.
type TicketFieldsEditedPayload struct {
	Fields []string `json:"fields"`
}

// TicketCommentAddedPayload payload.
type TicketCommentAddedPayload struct {
	CommentID   string `json:"comment_id"`
	BodyPreview string `json:"body_preview"`
}

// TicketSLABreachedPayload payload.
type TicketSLABreachedPayload struct {
	Priority domain.TicketPriority `json:"priority"`
	Deadline time.Time             `json:"deadline"`
}
