package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/helpdesk-kit/lifecycle-service/internal/domain"
	"github.com/helpdesk-kit/lifecycle-service/internal/events"
	"github.com/helpdesk-kit/lifecycle-service/internal/repository"
	apperrors "github.com/helpdesk-kit/lifecycle-service/pkg/util/errorutil"
)

// historyPageSize bounds each child-delete statement during purge.
const historyPageSize = 400

// NameResolver resolves the display name recorded on audit entries.
type NameResolver interface {
	ResolveDisplayName(ctx context.Context, actorID, sessionName, email string) string
}

// LifecycleService owns ticket status transitions, assignment changes and
// the append-only audit trail. It is stateless: every operation takes the
// acting identity explicitly and works through the injected repositories.
type LifecycleService struct {
	tickets    repository.TicketRepository
	history    repository.TicketHistoryRepository
	comments   repository.CommentRepository
	resolver   NameResolver
	dispatcher events.Dispatcher
}

// LifecycleDependencies bundles repositories for the lifecycle service.
type LifecycleDependencies struct {
	TicketRepo  repository.TicketRepository
	HistoryRepo repository.TicketHistoryRepository
	CommentRepo repository.CommentRepository
	Resolver    NameResolver
	Dispatcher  events.Dispatcher
}

// TicketCreateInput describes ticket creation payload.
type TicketCreateInput struct {
	Title       string
	Description string
	Category    string
	Type        domain.TicketType
	Impact      domain.Severity
	Urgency     domain.Severity
}

// TicketPatch is a partial staff edit. Nil fields are untouched.
type TicketPatch struct {
	Title       *string
	Description *string
	Category    *string
	Type        *domain.TicketType
	Priority    *domain.TicketPriority
}

// TicketUserFilter describes end-user listing filters.
type TicketUserFilter struct {
	Statuses   []domain.TicketStatus
	Priorities []domain.TicketPriority
	Limit      int
	Offset     int
}

// TicketStaffFilter describes staff listing filters.
type TicketStaffFilter struct {
	AssigneeID  *string
	Statuses    []domain.TicketStatus
	Priorities  []domain.TicketPriority
	SearchTerm  *string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	Limit       int
	Offset      int
}

// NewLifecycleService constructs the service.
func NewLifecycleService(deps LifecycleDependencies) *LifecycleService {
	return &LifecycleService{
		tickets:    deps.TicketRepo,
		history:    deps.HistoryRepo,
		comments:   deps.CommentRepo,
		resolver:   deps.Resolver,
		dispatcher: deps.Dispatcher,
	}
}

// CreateTicket validates input, derives priority and SLA target from the
// impact/urgency pair and persists a new Open ticket.
func (s *LifecycleService) CreateTicket(ctx context.Context, requester *domain.Actor, input TicketCreateInput) (*domain.Ticket, error) {
	if !requester.Authenticated() {
		return nil, apperrors.NewUnauthorized("authentication required")
	}

	title := strings.TrimSpace(input.Title)
	description := strings.TrimSpace(input.Description)
	category := strings.TrimSpace(input.Category)

	if title == "" || description == "" {
		return nil, apperrors.NewValidationError("title and description required", nil)
	}
	if input.Type != domain.TicketTypeRequest && input.Type != domain.TicketTypeIncident {
		return nil, apperrors.NewValidationError("type must be REQUEST or INCIDENT", nil)
	}
	if category == "" {
		return nil, apperrors.NewValidationError("category required", nil)
	}
	if !domain.ValidCategory(input.Type, category) {
		return nil, apperrors.NewValidationError("category not allowed for ticket type", map[string]any{
			"type":     input.Type,
			"category": category,
		})
	}

	priority := domain.DerivePriority(input.Impact, input.Urgency)

	ticket := &domain.Ticket{
		ReferenceKey:   generateReferenceKey(),
		Title:          title,
		Description:    description,
		Category:       category,
		Type:           input.Type,
		Impact:         input.Impact,
		Urgency:        input.Urgency,
		Priority:       priority,
		SLATargetHours: domain.SLAHoursFor(priority),
		Status:         domain.TicketStatusOpen,
		CreatedByID:    requester.ID,
		CreatedByName:  s.displayName(ctx, requester),
		CreatedByEmail: requester.Email,
	}

	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.ID,
		Actor:    events.Actor{ID: requester.ID, Name: ticket.CreatedByName},
		Payload: events.TicketCreatedPayload{
			ReferenceKey: ticket.ReferenceKey,
			Title:        ticket.Title,
			Category:     ticket.Category,
			Type:         ticket.Type,
			Priority:     ticket.Priority,
			SLAHours:     ticket.SLATargetHours,
		},
	})
	return ticket, nil
}

// TransitionStatus moves a ticket between lifecycle states. A transition
// to the current status is accepted as a no-op: no write, no history.
// The write is guarded by a compare-and-swap on the status column; a
// losing writer gets a conflict and should retry from a fresh read.
func (s *LifecycleService) TransitionStatus(ctx context.Context, actor *domain.Actor, ticketID string, newStatus domain.TicketStatus) (*domain.Ticket, error) {
	if !actor.Authenticated() {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	if !domain.ValidStatus(newStatus) {
		return nil, apperrors.NewValidationError("unknown ticket status", map[string]any{"status": newStatus})
	}

	ticket, err := s.getTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}

	if !actor.Staff {
		if ticket.CreatedByID != actor.ID {
			return nil, apperrors.NewForbidden("only staff may transition tickets created by others")
		}
		if newStatus.IsTerminal() {
			return nil, apperrors.NewForbidden("only staff may resolve or close tickets")
		}
	}

	if newStatus == ticket.Status {
		return ticket, nil
	}

	oldStatus := ticket.Status
	now := time.Now()
	actorName := s.displayName(ctx, actor)

	if oldStatus == domain.TicketStatusOpen && newStatus == domain.TicketStatusInProgress &&
		ticket.TakenBy == nil && ticket.AssignedTo == nil {
		ticket.TakenBy = &actorName
		ticket.TakenByID = &actor.ID
		ticket.TakenAt = &now
	}
	if newStatus.IsTerminal() {
		// closedAt moves forward on repeated closures; reopening never
		// clears it, so the latest closure stays on record.
		ticket.ClosedAt = &now
		ticket.ClosedBy = &actorName
	}
	ticket.Status = newStatus

	if err := s.tickets.UpdateStatus(ctx, ticket, oldStatus); err != nil {
		if errors.Is(err, repository.ErrStatusConflict) {
			return nil, apperrors.NewConflict("ticket was modified concurrently, retry from a fresh read", map[string]any{
				"ticket_id": ticketID,
			})
		}
		return nil, s.notFoundOrMap(err)
	}

	if err := s.recordChange(ctx, ticket.ID, domain.FieldStatus, strPtr(string(oldStatus)), strPtr(string(newStatus)), actor, actorName); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketStatusChanged,
		TicketID: ticket.ID,
		Actor:    events.Actor{ID: actor.ID, Name: actorName},
		Payload: events.TicketStatusChangedPayload{
			OldStatus: oldStatus,
			NewStatus: newStatus,
		},
	})
	return ticket, nil
}

// Assign sets the explicit assignee. Status is untouched.
func (s *LifecycleService) Assign(ctx context.Context, actor *domain.Actor, ticketID, assigneeID, assigneeName string) (*domain.Ticket, error) {
	if err := requireStaff(actor); err != nil {
		return nil, err
	}
	assigneeID = strings.TrimSpace(assigneeID)
	assigneeName = strings.TrimSpace(assigneeName)
	if assigneeID == "" || assigneeName == "" {
		return nil, apperrors.NewValidationError("assignee id and name required", nil)
	}

	ticket, err := s.getTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}

	oldName := ticket.AssignedTo
	now := time.Now()
	actorName := s.displayName(ctx, actor)

	ticket.AssignedTo = &assigneeName
	ticket.AssignedToID = &assigneeID
	ticket.AssignedAt = &now
	ticket.AssignedBy = &actorName

	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, s.notFoundOrMap(err)
	}
	if err := s.recordChange(ctx, ticket.ID, domain.FieldAssignedTo, oldName, &assigneeName, actor, actorName); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketAssigned,
		TicketID: ticket.ID,
		Actor:    events.Actor{ID: actor.ID, Name: actorName},
		Payload: events.TicketAssignedPayload{
			AssigneeID:   &assigneeID,
			AssigneeName: &assigneeName,
		},
	})
	return ticket, nil
}

// Unassign clears the assignment fields. Clearing an unassigned ticket is
// a no-op and records nothing.
func (s *LifecycleService) Unassign(ctx context.Context, actor *domain.Actor, ticketID string) (*domain.Ticket, error) {
	if err := requireStaff(actor); err != nil {
		return nil, err
	}

	ticket, err := s.getTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.AssignedTo == nil {
		return ticket, nil
	}

	oldName := ticket.AssignedTo
	actorName := s.displayName(ctx, actor)

	ticket.AssignedTo = nil
	ticket.AssignedToID = nil
	ticket.AssignedAt = nil
	ticket.AssignedBy = nil

	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, s.notFoundOrMap(err)
	}
	if err := s.recordChange(ctx, ticket.ID, domain.FieldAssignedTo, oldName, nil, actor, actorName); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketAssigned,
		TicketID: ticket.ID,
		Actor:    events.Actor{ID: actor.ID, Name: actorName},
		Payload:  events.TicketAssignedPayload{},
	})
	return ticket, nil
}

// EditFields applies a partial staff edit. Each changed field yields its
// own history entry; fields absent from the patch are untouched.
func (s *LifecycleService) EditFields(ctx context.Context, actor *domain.Actor, ticketID string, patch TicketPatch) (*domain.Ticket, error) {
	if err := requireStaff(actor); err != nil {
		return nil, err
	}

	ticket, err := s.getTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}

	type change struct {
		field    domain.HistoryField
		old, new *string
	}
	var changes []change

	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		if title == "" {
			return nil, apperrors.NewValidationError("title cannot be empty", nil)
		}
		if title != ticket.Title {
			changes = append(changes, change{domain.FieldTitle, strPtr(ticket.Title), strPtr(title)})
			ticket.Title = title
		}
	}
	if patch.Description != nil {
		description := strings.TrimSpace(*patch.Description)
		if description == "" {
			return nil, apperrors.NewValidationError("description cannot be empty", nil)
		}
		if description != ticket.Description {
			changes = append(changes, change{domain.FieldDescription, strPtr(ticket.Description), strPtr(description)})
			ticket.Description = description
		}
	}
	if patch.Type != nil {
		if *patch.Type != domain.TicketTypeRequest && *patch.Type != domain.TicketTypeIncident {
			return nil, apperrors.NewValidationError("type must be REQUEST or INCIDENT", nil)
		}
		if *patch.Type != ticket.Type {
			changes = append(changes, change{domain.FieldType, strPtr(string(ticket.Type)), strPtr(string(*patch.Type))})
			ticket.Type = *patch.Type
		}
	}
	if patch.Category != nil {
		category := strings.TrimSpace(*patch.Category)
		if category == "" {
			return nil, apperrors.NewValidationError("category cannot be empty", nil)
		}
		if category != ticket.Category {
			changes = append(changes, change{domain.FieldCategory, strPtr(ticket.Category), strPtr(category)})
			ticket.Category = category
		}
	}
	if patch.Priority != nil {
		switch *patch.Priority {
		case domain.TicketPriorityLow, domain.TicketPriorityNormal, domain.TicketPriorityHigh, domain.TicketPriorityCritical:
		default:
			return nil, apperrors.NewValidationError("unknown priority", map[string]any{"priority": *patch.Priority})
		}
		if *patch.Priority != ticket.Priority {
			changes = append(changes, change{domain.FieldPriority, strPtr(string(ticket.Priority)), strPtr(string(*patch.Priority))})
			ticket.Priority = *patch.Priority
		}
	}

	if len(changes) == 0 {
		return ticket, nil
	}

	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, s.notFoundOrMap(err)
	}

	actorName := s.displayName(ctx, actor)
	fields := make([]string, 0, len(changes))
	for _, ch := range changes {
		if err := s.recordChange(ctx, ticket.ID, ch.field, ch.old, ch.new, actor, actorName); err != nil {
			return nil, apperrors.MapError(err)
		}
		fields = append(fields, string(ch.field))
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketFieldsEdited,
		TicketID: ticket.ID,
		Actor:    events.Actor{ID: actor.ID, Name: actorName},
		Payload:  events.TicketFieldsEditedPayload{Fields: fields},
	})
	return ticket, nil
}

// Purge removes a ticket with its audit trail and comments. Children go
// first: an orphaned history row is harmless if the purge is interrupted,
// whereas a ticket without its audit trail would be misleading. Every
// step is idempotent, so the whole purge is safe to re-run.
func (s *LifecycleService) Purge(ctx context.Context, actor *domain.Actor, ticketID string) error {
	if !actor.Authenticated() {
		return apperrors.NewUnauthorized("authentication required")
	}
	if !actor.Admin {
		return apperrors.NewForbidden("admin role required")
	}

	ticket, err := s.getTicket(ctx, ticketID)
	if err != nil {
		return err
	}

	if err := s.history.DeleteByTicket(ctx, ticket.ID, historyPageSize); err != nil {
		return apperrors.MapError(err)
	}
	if err := s.comments.DeleteByTicket(ctx, ticket.ID, historyPageSize); err != nil {
		return apperrors.MapError(err)
	}
	if err := s.tickets.Delete(ctx, ticket.ID); err != nil {
		return apperrors.MapError(err)
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketPurged,
		TicketID: ticket.ID,
		Actor:    events.Actor{ID: actor.ID, Name: s.displayName(ctx, actor)},
	})
	return nil
}

// GetTicket fetches a ticket; end-users only see their own.
func (s *LifecycleService) GetTicket(ctx context.Context, actor *domain.Actor, ticketID string) (*domain.Ticket, error) {
	if !actor.Authenticated() {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	ticket, err := s.getTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !actor.Staff && ticket.CreatedByID != actor.ID {
		return nil, apperrors.NewForbidden("access denied")
	}
	return ticket, nil
}

// ListUserTickets returns the requester's own tickets.
func (s *LifecycleService) ListUserTickets(ctx context.Context, actor *domain.Actor, filter TicketUserFilter) ([]domain.Ticket, error) {
	if !actor.Authenticated() {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	tickets, err := s.tickets.ListWithFilter(ctx, repository.TicketFilter{
		CreatedByID: &actor.ID,
		Statuses:    filter.Statuses,
		Priorities:  filter.Priorities,
		Limit:       filter.Limit,
		Offset:      filter.Offset,
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return tickets, nil
}

// ListStaffTickets returns tickets matching the staff filter.
func (s *LifecycleService) ListStaffTickets(ctx context.Context, actor *domain.Actor, filter TicketStaffFilter) ([]domain.Ticket, error) {
	if err := requireStaff(actor); err != nil {
		return nil, err
	}
	tickets, err := s.tickets.ListWithFilter(ctx, repository.TicketFilter{
		AssigneeID:  filter.AssigneeID,
		Statuses:    filter.Statuses,
		Priorities:  filter.Priorities,
		SearchTerm:  filter.SearchTerm,
		CreatedFrom: filter.CreatedFrom,
		CreatedTo:   filter.CreatedTo,
		Limit:       filter.Limit,
		Offset:      filter.Offset,
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return tickets, nil
}

// ListHistory returns the audit trail, oldest first. Staff see any
// ticket's history; a requester sees their own.
func (s *LifecycleService) ListHistory(ctx context.Context, actor *domain.Actor, ticketID string, limit, offset int) ([]domain.HistoryEntry, error) {
	if !actor.Authenticated() {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	ticket, err := s.getTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !actor.Staff && ticket.CreatedByID != actor.ID {
		return nil, apperrors.NewForbidden("access denied")
	}
	entries, err := s.history.ListByTicket(ctx, ticket.ID, limit, offset)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return entries, nil
}

func (s *LifecycleService) getTicket(ctx context.Context, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, s.notFoundOrMap(err)
	}
	return ticket, nil
}

func (s *LifecycleService) notFoundOrMap(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return apperrors.NewNotFound("ticket", nil)
	}
	return apperrors.MapError(err)
}

func (s *LifecycleService) recordChange(ctx context.Context, ticketID string, field domain.HistoryField, oldValue, newValue *string, actor *domain.Actor, actorName string) error {
	return s.history.Create(ctx, &domain.HistoryEntry{
		TicketID:  ticketID,
		Field:     field,
		OldValue:  oldValue,
		NewValue:  newValue,
		ActorID:   actor.ID,
		ActorName: actorName,
	})
}

func (s *LifecycleService) displayName(ctx context.Context, actor *domain.Actor) string {
	if s.resolver != nil {
		return s.resolver.ResolveDisplayName(ctx, actor.ID, actor.Name, actor.Email)
	}
	if name := strings.TrimSpace(actor.Name); name != "" {
		return name
	}
	return actor.ID
}

func (s *LifecycleService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}

func requireStaff(actor *domain.Actor) error {
	if !actor.Authenticated() {
		return apperrors.NewUnauthorized("authentication required")
	}
	if !actor.Staff {
		return apperrors.NewForbidden("staff role required")
	}
	return nil
}

func generateReferenceKey() string {
	return "TCK-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}

func strPtr(s string) *string {
	return &s
}
