package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/helpdesk-kit/lifecycle-service/internal/domain"
	"github.com/helpdesk-kit/lifecycle-service/internal/events"
	"github.com/helpdesk-kit/lifecycle-service/internal/repository"
	apperrors "github.com/helpdesk-kit/lifecycle-service/pkg/util/errorutil"
)

const commentPreviewLen = 120

// CommentService manages the discussion thread attached to a ticket.
type CommentService struct {
	tickets    repository.TicketRepository
	comments   repository.CommentRepository
	resolver   NameResolver
	dispatcher events.Dispatcher
}

// NewCommentService constructs the service.
func NewCommentService(tickets repository.TicketRepository, comments repository.CommentRepository, resolver NameResolver, dispatcher events.Dispatcher) *CommentService {
	return &CommentService{
		tickets:    tickets,
		comments:   comments,
		resolver:   resolver,
		dispatcher: dispatcher,
	}
}

// Add appends a comment. Staff may comment on any ticket; an end-user
// only on their own.
func (s *CommentService) Add(ctx context.Context, actor *domain.Actor, ticketID, body string) (*domain.Comment, error) {
	if !actor.Authenticated() {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, apperrors.NewValidationError("comment body required", nil)
	}

	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if !actor.Staff && ticket.CreatedByID != actor.ID {
		return nil, apperrors.NewForbidden("access denied")
	}

	authorName := actor.Name
	if s.resolver != nil {
		authorName = s.resolver.ResolveDisplayName(ctx, actor.ID, actor.Name, actor.Email)
	}

	comment := &domain.Comment{
		TicketID:   ticket.ID,
		AuthorID:   actor.ID,
		AuthorName: authorName,
		Body:       body,
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, apperrors.MapError(err)
	}

	if s.dispatcher != nil {
		preview := body
		if len(preview) > commentPreviewLen {
			preview = preview[:commentPreviewLen]
		}
		_ = s.dispatcher.Publish(ctx, events.Event{
			ID:        uuid.NewString(),
			Type:      events.EventTicketCommentAdded,
			TicketID:  ticket.ID,
			Actor:     events.Actor{ID: actor.ID, Name: authorName},
			Timestamp: time.Now(),
			Payload: events.TicketCommentAddedPayload{
				CommentID:   comment.ID,
				BodyPreview: preview,
			},
		})
	}
	return comment, nil
}

// ListByTicket returns the thread oldest first.
func (s *CommentService) ListByTicket(ctx context.Context, actor *domain.Actor, ticketID string, limit, offset int) ([]domain.Comment, error) {
	if !actor.Authenticated() {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if !actor.Staff && ticket.CreatedByID != actor.ID {
		return nil, apperrors.NewForbidden("access denied")
	}
	list, err := s.comments.ListByTicket(ctx, ticket.ID, limit, offset)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return list, nil
}
