package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "OPEN"
	TicketStatusInProgress TicketStatus = "IN_PROGRESS"
	TicketStatusWaiting    TicketStatus = "WAITING"
	TicketStatusResolved   TicketStatus = "RESOLVED"
	TicketStatusClosed     TicketStatus = "CLOSED"
)

// ValidStatus reports whether s is one of the five lifecycle states.
func ValidStatus(s TicketStatus) bool {
	switch s {
	case TicketStatusOpen, TicketStatusInProgress, TicketStatusWaiting,
		TicketStatusResolved, TicketStatusClosed:
		return true
	}
	return false
}

// IsTerminal reports whether s ends the active lifecycle. Resolved is
// semi-terminal: a resolved ticket may still move to Closed.
func (s TicketStatus) IsTerminal() bool {
	return s == TicketStatusResolved || s == TicketStatusClosed
}

// TicketType differentiates service requests from incidents.
type TicketType string

const (
	TicketTypeRequest  TicketType = "REQUEST"
	TicketTypeIncident TicketType = "INCIDENT"
)

// Severity grades impact and urgency on the same four-level scale.
type Severity string

const (
	SeverityLow      Severity = "LOW"
	SeverityMedium   Severity = "MEDIUM"
	SeverityHigh     Severity = "HIGH"
	SeverityCritical Severity = "CRITICAL"
)

// TicketPriority is derived from (impact, urgency), never set directly
// at creation time.
type TicketPriority string

const (
	TicketPriorityLow      TicketPriority = "LOW"
	TicketPriorityNormal   TicketPriority = "NORMAL"
	TicketPriorityHigh     TicketPriority = "HIGH"
	TicketPriorityCritical TicketPriority = "CRITICAL"
)

// Ticket is the aggregate for support requests.
type Ticket struct {
	ID             string
	ReferenceKey   string
	Title          string
	Description    string
	Category       string
	Type           TicketType
	Impact         Severity
	Urgency        Severity
	Priority       TicketPriority
	SLATargetHours int
	Status         TicketStatus

	CreatedByID    string
	CreatedByName  string
	CreatedByEmail string

	// Assignment set explicitly by staff; distinct from taken-by, which
	// records who first moved the ticket into progress.
	AssignedTo   *string
	AssignedToID *string
	AssignedAt   *time.Time
	AssignedBy   *string

	TakenBy   *string
	TakenByID *string
	TakenAt   *time.Time

	ClosedAt *time.Time
	ClosedBy *string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// SLADeadline returns the response-time deadline implied by the SLA target.
func (t *Ticket) SLADeadline() time.Time {
	return t.CreatedAt.Add(time.Duration(t.SLATargetHours) * time.Hour)
}
