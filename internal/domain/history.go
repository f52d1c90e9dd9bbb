package domain

import "time"

// HistoryField names the ticket attribute a history entry records.
type HistoryField string

const (
	FieldStatus      HistoryField = "status"
	FieldAssignedTo  HistoryField = "assignedTo"
	FieldTitle       HistoryField = "title"
	FieldDescription HistoryField = "description"
	FieldCategory    HistoryField = "category"
	FieldType        HistoryField = "type"
	FieldPriority    HistoryField = "priority"
)

// HistoryEntry is one immutable audit record on a ticket. Entries are
// append-only and ordered by creation time; exactly one entry exists per
// accepted field mutation.
type HistoryEntry struct {
	ID        string
	TicketID  string
	Field     HistoryField
	OldValue  *string
	NewValue  *string
	ActorID   string
	ActorName string
	CreatedAt time.Time
}
