package domain

import "time"

// Comment is a free-text message on a ticket, authored by the requester
// or staff. Comments form an append-only log ordered by time.
type Comment struct {
	ID         string
	TicketID   string
	AuthorID   string
	AuthorName string
	Body       string
	CreatedAt  time.Time
}
