package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/helpdesk-kit/lifecycle-service/internal/domain"
	"github.com/helpdesk-kit/lifecycle-service/internal/events"
	"github.com/helpdesk-kit/lifecycle-service/internal/repository"
	apperrors "github.com/helpdesk-kit/lifecycle-service/pkg/util/errorutil"
)

type fakeTicketRepo struct {
	mu      sync.Mutex
	tickets map[string]*domain.Ticket
}

func newFakeTicketRepo() *fakeTicketRepo {
	return &fakeTicketRepo{tickets: make(map[string]*domain.Ticket)}
}

func (r *fakeTicketRepo) Create(_ context.Context, ticket *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ticket.ID = uuid.NewString()
	ticket.CreatedAt = time.Now()
	ticket.UpdatedAt = ticket.CreatedAt
	clone := *ticket
	r.tickets[ticket.ID] = &clone
	return nil
}

func (r *fakeTicketRepo) Update(_ context.Context, ticket *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tickets[ticket.ID]; !ok {
		return pgx.ErrNoRows
	}
	clone := *ticket
	clone.UpdatedAt = time.Now()
	r.tickets[ticket.ID] = &clone
	return nil
}

func (r *fakeTicketRepo) UpdateStatus(_ context.Context, ticket *domain.Ticket, expected domain.TicketStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.tickets[ticket.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	if stored.Status != expected {
		return repository.ErrStatusConflict
	}
	clone := *ticket
	clone.UpdatedAt = time.Now()
	r.tickets[ticket.ID] = &clone
	return nil
}

func (r *fakeTicketRepo) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *stored
	return &clone, nil
}

func (r *fakeTicketRepo) GetByReferenceKey(_ context.Context, key string) (*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, stored := range r.tickets {
		if stored.ReferenceKey == key {
			clone := *stored
			return &clone, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeTicketRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.tickets, id)
	return nil
}

func (r *fakeTicketRepo) ListWithFilter(_ context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.Ticket
	for _, stored := range r.tickets {
		if filter.CreatedByID != nil && stored.CreatedByID != *filter.CreatedByID {
			continue
		}
		if filter.AssigneeID != nil && (stored.AssignedToID == nil || *stored.AssignedToID != *filter.AssigneeID) {
			continue
		}
		result = append(result, *stored)
	}
	return result, nil
}

func (r *fakeTicketRepo) CountByStatus(_ context.Context) ([]repository.StatusCount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := map[domain.TicketStatus]int64{}
	for _, stored := range r.tickets {
		counts[stored.Status]++
	}
	var result []repository.StatusCount
	for status, count := range counts {
		result = append(result, repository.StatusCount{Status: status, Count: count})
	}
	return result, nil
}

func (r *fakeTicketRepo) CountByPriority(_ context.Context) ([]repository.PriorityCount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := map[domain.TicketPriority]int64{}
	for _, stored := range r.tickets {
		counts[stored.Priority]++
	}
	var result []repository.PriorityCount
	for priority, count := range counts {
		result = append(result, repository.PriorityCount{Priority: priority, Count: count})
	}
	return result, nil
}

func (r *fakeTicketRepo) ListSLABreached(_ context.Context, now time.Time, limit int) ([]domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.Ticket
	for _, stored := range r.tickets {
		if stored.Status == domain.TicketStatusResolved || stored.Status == domain.TicketStatusClosed {
			continue
		}
		if stored.SLADeadline().Before(now) {
			result = append(result, *stored)
		}
		if len(result) >= limit {
			break
		}
	}
	return result, nil
}

type fakeHistoryRepo struct {
	mu      sync.Mutex
	entries []domain.HistoryEntry
}

func (r *fakeHistoryRepo) Create(_ context.Context, entry *domain.HistoryEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry.ID = uuid.NewString()
	entry.CreatedAt = time.Now()
	r.entries = append(r.entries, *entry)
	return nil
}

func (r *fakeHistoryRepo) ListByTicket(_ context.Context, ticketID string, limit, offset int) ([]domain.HistoryEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.HistoryEntry
	for _, entry := range r.entries {
		if entry.TicketID == ticketID {
			result = append(result, entry)
		}
	}
	return result, nil
}

func (r *fakeHistoryRepo) DeleteByTicket(_ context.Context, ticketID string, pageSize int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.entries[:0]
	for _, entry := range r.entries {
		if entry.TicketID != ticketID {
			kept = append(kept, entry)
		}
	}
	r.entries = kept
	return nil
}

func (r *fakeHistoryRepo) forTicket(ticketID string) []domain.HistoryEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.HistoryEntry
	for _, entry := range r.entries {
		if entry.TicketID == ticketID {
			result = append(result, entry)
		}
	}
	return result
}

type fakeCommentRepo struct {
	mu       sync.Mutex
	comments []domain.Comment
}

func (r *fakeCommentRepo) Create(_ context.Context, comment *domain.Comment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	comment.ID = uuid.NewString()
	comment.CreatedAt = time.Now()
	r.comments = append(r.comments, *comment)
	return nil
}

func (r *fakeCommentRepo) ListByTicket(_ context.Context, ticketID string, limit, offset int) ([]domain.Comment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.Comment
	for _, comment := range r.comments {
		if comment.TicketID == ticketID {
			result = append(result, comment)
		}
	}
	return result, nil
}

func (r *fakeCommentRepo) DeleteByTicket(_ context.Context, ticketID string, pageSize int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.comments[:0]
	for _, comment := range r.comments {
		if comment.TicketID != ticketID {
			kept = append(kept, comment)
		}
	}
	r.comments = kept
	return nil
}

type recordingDispatcher struct {
	mu     sync.Mutex
	events []events.Event
}

func (d *recordingDispatcher) Publish(_ context.Context, event events.Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, event)
	return nil
}

func (d *recordingDispatcher) Subscribe(events.EventType, events.EventHandler) {}

func (d *recordingDispatcher) byType(t events.EventType) []events.Event {
	d.mu.Lock()
	defer d.mu.Unlock()
	var result []events.Event
	for _, event := range d.events {
		if event.Type == t {
			result = append(result, event)
		}
	}
	return result
}

type lifecycleFixture struct {
	svc        *LifecycleService
	tickets    *fakeTicketRepo
	history    *fakeHistoryRepo
	comments   *fakeCommentRepo
	dispatcher *recordingDispatcher
}

func newLifecycleFixture() *lifecycleFixture {
	tickets := newFakeTicketRepo()
	history := &fakeHistoryRepo{}
	comments := &fakeCommentRepo{}
	dispatcher := &recordingDispatcher{}
	svc := NewLifecycleService(LifecycleDependencies{
		TicketRepo:  tickets,
		HistoryRepo: history,
		CommentRepo: comments,
		Dispatcher:  dispatcher,
	})
	return &lifecycleFixture{svc: svc, tickets: tickets, history: history, comments: comments, dispatcher: dispatcher}
}

func requesterActor() *domain.Actor {
	return &domain.Actor{ID: "user-1", Name: "Dana", Email: "dana@example.com"}
}

func staffActor() *domain.Actor {
	return &domain.Actor{ID: "staff-1", Name: "Agent Smith", Email: "smith@example.com", Staff: true}
}

func adminActor() *domain.Actor {
	return &domain.Actor{ID: "admin-1", Name: "Root", Email: "root@example.com", Staff: true, Admin: true}
}

func mustCreateTicket(t *testing.T, f *lifecycleFixture, actor *domain.Actor) *domain.Ticket {
	t.Helper()
	ticket, err := f.svc.CreateTicket(context.Background(), actor, TicketCreateInput{
		Title:       "Printer down",
		Description: "The third floor printer shows error E5",
		Category:    "Hardware",
		Type:        domain.TicketTypeIncident,
		Impact:      domain.SeverityHigh,
		Urgency:     domain.SeverityMedium,
	})
	if err != nil {
		t.Fatalf("CreateTicket: %v", err)
	}
	return ticket
}

func TestCreateTicketDerivesPriorityAndSLA(t *testing.T) {
	t.Parallel()
	f := newLifecycleFixture()

	ticket := mustCreateTicket(t, f, requesterActor())

	if ticket.Status != domain.TicketStatusOpen {
		t.Errorf("status = %s, want OPEN", ticket.Status)
	}
	if ticket.Priority != domain.TicketPriorityHigh {
		t.Errorf("priority = %s, want HIGH", ticket.Priority)
	}
	if ticket.SLATargetHours != 8 {
		t.Errorf("sla hours = %d, want 8", ticket.SLATargetHours)
	}
	if ticket.ReferenceKey == "" {
		t.Error("reference key empty")
	}
	if got := f.dispatcher.byType(events.EventTicketCreated); len(got) != 1 {
		t.Errorf("created events = %d, want 1", len(got))
	}
	if entries := f.history.forTicket(ticket.ID); len(entries) != 0 {
		t.Errorf("history entries on create = %d, want 0", len(entries))
	}
}

func TestCreateTicketRejectsInvalidInput(t *testing.T) {
	t.Parallel()
	f := newLifecycleFixture()
	ctx := context.Background()

	cases := []struct {
		name  string
		input TicketCreateInput
	}{
		{"empty title", TicketCreateInput{Description: "d", Category: "Hardware", Type: domain.TicketTypeIncident}},
		{"empty description", TicketCreateInput{Title: "t", Category: "Hardware", Type: domain.TicketTypeIncident}},
		{"bad type", TicketCreateInput{Title: "t", Description: "d", Category: "Hardware", Type: "PROBLEM"}},
		{"category mismatch", TicketCreateInput{Title: "t", Description: "d", Category: "Equipment loan", Type: domain.TicketTypeIncident}},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if _, err := f.svc.CreateTicket(ctx, requesterActor(), tc.input); !apperrors.IsCode(err, "VALIDATION_FAILED") {
				t.Errorf("err = %v, want VALIDATION_FAILED", err)
			}
		})
	}
}

func TestTransitionNoOpWritesNothing(t *testing.T) {
	t.Parallel()
	f := newLifecycleFixture()
	ticket := mustCreateTicket(t, f, requesterActor())

	got, err := f.svc.TransitionStatus(context.Background(), staffActor(), ticket.ID, domain.TicketStatusOpen)
	if err != nil {
		t.Fatalf("TransitionStatus: %v", err)
	}
	if got.Status != domain.TicketStatusOpen {
		t.Errorf("status = %s, want OPEN", got.Status)
	}
	if entries := f.history.forTicket(ticket.ID); len(entries) != 0 {
		t.Errorf("history entries = %d, want 0", len(entries))
	}
	if got := f.dispatcher.byType(events.EventTicketStatusChanged); len(got) != 0 {
		t.Errorf("status events = %d, want 0", len(got))
	}
}

func TestTransitionRecordsHistoryEntry(t *testing.T) {
	t.Parallel()
	f := newLifecycleFixture()
	ticket := mustCreateTicket(t, f, requesterActor())
	actor := staffActor()

	if _, err := f.svc.TransitionStatus(context.Background(), actor, ticket.ID, domain.TicketStatusInProgress); err != nil {
		t.Fatalf("TransitionStatus: %v", err)
	}

	entries := f.history.forTicket(ticket.ID)
	if len(entries) != 1 {
		t.Fatalf("history entries = %d, want 1", len(entries))
	}
	entry := entries[0]
	if entry.Field != domain.FieldStatus {
		t.Errorf("field = %s, want status", entry.Field)
	}
	if entry.OldValue == nil || *entry.OldValue != string(domain.TicketStatusOpen) {
		t.Errorf("old value = %v, want OPEN", entry.OldValue)
	}
	if entry.NewValue == nil || *entry.NewValue != string(domain.TicketStatusInProgress) {
		t.Errorf("new value = %v, want IN_PROGRESS", entry.NewValue)
	}
	if entry.ActorID != actor.ID {
		t.Errorf("actor id = %s, want %s", entry.ActorID, actor.ID)
	}
}

func TestTransitionSetsTakenByOnFirstPickup(t *testing.T) {
	t.Parallel()
	f := newLifecycleFixture()
	ticket := mustCreateTicket(t, f, requesterActor())
	actor := staffActor()

	got, err := f.svc.TransitionStatus(context.Background(), actor, ticket.ID, domain.TicketStatusInProgress)
	if err != nil {
		t.Fatalf("TransitionStatus: %v", err)
	}
	if got.TakenBy == nil || *got.TakenBy != actor.Name {
		t.Errorf("takenBy = %v, want %s", got.TakenBy, actor.Name)
	}
	if got.TakenByID == nil || *got.TakenByID != actor.ID {
		t.Errorf("takenByID = %v, want %s", got.TakenByID, actor.ID)
	}
	if got.TakenAt == nil {
		t.Error("takenAt not set")
	}
}

func TestTransitionKeepsTakenByOnLaterPickups(t *testing.T) {
	t.Parallel()
	f := newLifecycleFixture()
	ticket := mustCreateTicket(t, f, requesterActor())
	ctx := context.Background()
	first := staffActor()
	second := &domain.Actor{ID: "staff-2", Name: "Agent Jones", Staff: true}

	if _, err := f.svc.TransitionStatus(ctx, first, ticket.ID, domain.TicketStatusInProgress); err != nil {
		t.Fatalf("first pickup: %v", err)
	}
	if _, err := f.svc.TransitionStatus(ctx, second, ticket.ID, domain.TicketStatusWaiting); err != nil {
		t.Fatalf("to waiting: %v", err)
	}
	got, err := f.svc.TransitionStatus(ctx, second, ticket.ID, domain.TicketStatusInProgress)
	if err != nil {
		t.Fatalf("second pickup: %v", err)
	}
	if got.TakenBy == nil || *got.TakenBy != first.Name {
		t.Errorf("takenBy = %v, want %s preserved", got.TakenBy, first.Name)
	}
}

func TestTransitionAssignedTicketDoesNotSetTakenBy(t *testing.T) {
	t.Parallel()
	f := newLifecycleFixture()
	ticket := mustCreateTicket(t, f, requesterActor())
	ctx := context.Background()

	if _, err := f.svc.Assign(ctx, staffActor(), ticket.ID, "staff-9", "Agent Nine"); err != nil {
		t.Fatalf("Assign: %v", err)
	}
	got, err := f.svc.TransitionStatus(ctx, staffActor(), ticket.ID, domain.TicketStatusInProgress)
	if err != nil {
		t.Fatalf("TransitionStatus: %v", err)
	}
	if got.TakenBy != nil {
		t.Errorf("takenBy = %v, want nil when already assigned", got.TakenBy)
	}
}

func TestCloseSetsClosedFieldsAndReopenKeepsThem(t *testing.T) {
	t.Parallel()
	f := newLifecycleFixture()
	ticket := mustCreateTicket(t, f, requesterActor())
	ctx := context.Background()
	actor := staffActor()

	closed, err := f.svc.TransitionStatus(ctx, actor, ticket.ID, domain.TicketStatusClosed)
	if err != nil {
		t.Fatalf("close: %v", err)
	}
	if closed.ClosedAt == nil || closed.ClosedBy == nil {
		t.Fatal("closed fields not set")
	}
	firstClosedAt := *closed.ClosedAt

	reopened, err := f.svc.TransitionStatus(ctx, actor, ticket.ID, domain.TicketStatusOpen)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if reopened.ClosedAt == nil || !reopened.ClosedAt.Equal(firstClosedAt) {
		t.Errorf("closedAt = %v, want kept at %v", reopened.ClosedAt, firstClosedAt)
	}

	reclosed, err := f.svc.TransitionStatus(ctx, actor, ticket.ID, domain.TicketStatusResolved)
	if err != nil {
		t.Fatalf("reclose: %v", err)
	}
	if !reclosed.ClosedAt.After(firstClosedAt) {
		t.Errorf("closedAt did not move forward on second closure")
	}
}

func TestNonStaffTransitionRules(t *testing.T) {
	t.Parallel()
	f := newLifecycleFixture()
	requester := requesterActor()
	ticket := mustCreateTicket(t, f, requester)
	ctx := context.Background()

	if _, err := f.svc.TransitionStatus(ctx, requester, ticket.ID, domain.TicketStatusClosed); !apperrors.IsCode(err, "FORBIDDEN") {
		t.Errorf("terminal transition err = %v, want FORBIDDEN", err)
	}

	stranger := &domain.Actor{ID: "user-2", Name: "Eve"}
	if _, err := f.svc.TransitionStatus(ctx, stranger, ticket.ID, domain.TicketStatusWaiting); !apperrors.IsCode(err, "FORBIDDEN") {
		t.Errorf("foreign ticket err = %v, want FORBIDDEN", err)
	}

	if _, err := f.svc.TransitionStatus(ctx, requester, ticket.ID, domain.TicketStatusWaiting); err != nil {
		t.Errorf("own non-terminal transition err = %v, want nil", err)
	}
}

func TestTransitionConflictSurfacesAsConflict(t *testing.T) {
	t.Parallel()
	f := newLifecycleFixture()
	ticket := mustCreateTicket(t, f, requesterActor())
	ctx := context.Background()

	// move the stored row underneath a stale in-flight transition
	stored, _ := f.tickets.GetByID(ctx, ticket.ID)
	stored.Status = domain.TicketStatusInProgress
	if err := f.tickets.Update(ctx, stored); err != nil {
		t.Fatalf("seed conflict: %v", err)
	}

	stale := *ticket
	stale.Status = domain.TicketStatusWaiting
	err := f.tickets.UpdateStatus(ctx, &stale, domain.TicketStatusOpen)
	if !errors.Is(err, repository.ErrStatusConflict) {
		t.Fatalf("UpdateStatus err = %v, want ErrStatusConflict", err)
	}
}

func TestTransitionUnknownTicket(t *testing.T) {
	t.Parallel()
	f := newLifecycleFixture()

	_, err := f.svc.TransitionStatus(context.Background(), staffActor(), uuid.NewString(), domain.TicketStatusWaiting)
	if !apperrors.IsCode(err, "NOT_FOUND") {
		t.Errorf("err = %v, want NOT_FOUND", err)
	}
}

func TestAssignAndUnassign(t *testing.T) {
	t.Parallel()
	f := newLifecycleFixture()
	ticket := mustCreateTicket(t, f, requesterActor())
	ctx := context.Background()

	assigned, err := f.svc.Assign(ctx, staffActor(), ticket.ID, "staff-9", "Agent Nine")
	if err != nil {
		t.Fatalf("Assign: %v", err)
	}
	if assigned.AssignedTo == nil || *assigned.AssignedTo != "Agent Nine" {
		t.Errorf("assignedTo = %v, want Agent Nine", assigned.AssignedTo)
	}
	if assigned.Status != domain.TicketStatusOpen {
		t.Errorf("status changed on assign: %s", assigned.Status)
	}

	unassigned, err := f.svc.Unassign(ctx, staffActor(), ticket.ID)
	if err != nil {
		t.Fatalf("Unassign: %v", err)
	}
	if unassigned.AssignedTo != nil {
		t.Errorf("assignedTo = %v, want nil", unassigned.AssignedTo)
	}

	entries := f.history.forTicket(ticket.ID)
	if len(entries) != 2 {
		t.Fatalf("history entries = %d, want 2", len(entries))
	}
	if entries[0].NewValue == nil || *entries[0].NewValue != "Agent Nine" {
		t.Errorf("assign entry new value = %v", entries[0].NewValue)
	}
	if entries[1].OldValue == nil || *entries[1].OldValue != "Agent Nine" || entries[1].NewValue != nil {
		t.Errorf("unassign entry = %+v", entries[1])
	}
}

func TestUnassignWithoutAssigneeIsNoOp(t *testing.T) {
	t.Parallel()
	f := newLifecycleFixture()
	ticket := mustCreateTicket(t, f, requesterActor())

	if _, err := f.svc.Unassign(context.Background(), staffActor(), ticket.ID); err != nil {
		t.Fatalf("Unassign: %v", err)
	}
	if entries := f.history.forTicket(ticket.ID); len(entries) != 0 {
		t.Errorf("history entries = %d, want 0", len(entries))
	}
}

func TestAssignRequiresStaff(t *testing.T) {
	t.Parallel()
	f := newLifecycleFixture()
	requester := requesterActor()
	ticket := mustCreateTicket(t, f, requester)

	if _, err := f.svc.Assign(context.Background(), requester, ticket.ID, "staff-9", "Agent Nine"); !apperrors.IsCode(err, "FORBIDDEN") {
		t.Errorf("err = %v, want FORBIDDEN", err)
	}
}

func TestEditFieldsRecordsPerFieldEntries(t *testing.T) {
	t.Parallel()
	f := newLifecycleFixture()
	ticket := mustCreateTicket(t, f, requesterActor())

	newTitle := "Printer offline"
	newPriority := domain.TicketPriorityCritical
	got, err := f.svc.EditFields(context.Background(), staffActor(), ticket.ID, TicketPatch{
		Title:    &newTitle,
		Priority: &newPriority,
	})
	if err != nil {
		t.Fatalf("EditFields: %v", err)
	}
	if got.Title != newTitle || got.Priority != newPriority {
		t.Errorf("edit not applied: %+v", got)
	}

	entries := f.history.forTicket(ticket.ID)
	if len(entries) != 2 {
		t.Fatalf("history entries = %d, want 2", len(entries))
	}
	fields := map[domain.HistoryField]bool{}
	for _, entry := range entries {
		fields[entry.Field] = true
	}
	if !fields[domain.FieldTitle] || !fields[domain.FieldPriority] {
		t.Errorf("fields = %v, want title and priority", fields)
	}
}

func TestEditFieldsSameValuesIsNoOp(t *testing.T) {
	t.Parallel()
	f := newLifecycleFixture()
	ticket := mustCreateTicket(t, f, requesterActor())

	sameTitle := ticket.Title
	if _, err := f.svc.EditFields(context.Background(), staffActor(), ticket.ID, TicketPatch{Title: &sameTitle}); err != nil {
		t.Fatalf("EditFields: %v", err)
	}
	if entries := f.history.forTicket(ticket.ID); len(entries) != 0 {
		t.Errorf("history entries = %d, want 0", len(entries))
	}
}

func TestPurgeRemovesTicketWithChildren(t *testing.T) {
	t.Parallel()
	f := newLifecycleFixture()
	ticket := mustCreateTicket(t, f, requesterActor())
	ctx := context.Background()

	if _, err := f.svc.TransitionStatus(ctx, staffActor(), ticket.ID, domain.TicketStatusInProgress); err != nil {
		t.Fatalf("transition: %v", err)
	}
	if err := f.comments.Create(ctx, &domain.Comment{TicketID: ticket.ID, AuthorID: "user-1", AuthorName: "Dana", Body: "any update?"}); err != nil {
		t.Fatalf("seed comment: %v", err)
	}

	if err := f.svc.Purge(ctx, adminActor(), ticket.ID); err != nil {
		t.Fatalf("Purge: %v", err)
	}

	if _, err := f.tickets.GetByID(ctx, ticket.ID); !errors.Is(err, pgx.ErrNoRows) {
		t.Errorf("ticket still present after purge")
	}
	if entries := f.history.forTicket(ticket.ID); len(entries) != 0 {
		t.Errorf("history entries = %d, want 0", len(entries))
	}
	comments, _ := f.comments.ListByTicket(ctx, ticket.ID, 0, 0)
	if len(comments) != 0 {
		t.Errorf("comments = %d, want 0", len(comments))
	}
	if got := f.dispatcher.byType(events.EventTicketPurged); len(got) != 1 {
		t.Errorf("purge events = %d, want 1", len(got))
	}
}

func TestPurgeRequiresAdmin(t *testing.T) {
	t.Parallel()
	f := newLifecycleFixture()
	ticket := mustCreateTicket(t, f, requesterActor())

	if err := f.svc.Purge(context.Background(), staffActor(), ticket.ID); !apperrors.IsCode(err, "FORBIDDEN") {
		t.Errorf("err = %v, want FORBIDDEN", err)
	}
}

func TestGetTicketAccessControl(t *testing.T) {
	t.Parallel()
	f := newLifecycleFixture()
	requester := requesterActor()
	ticket := mustCreateTicket(t, f, requester)
	ctx := context.Background()

	if _, err := f.svc.GetTicket(ctx, requester, ticket.ID); err != nil {
		t.Errorf("owner access err = %v", err)
	}
	if _, err := f.svc.GetTicket(ctx, staffActor(), ticket.ID); err != nil {
		t.Errorf("staff access err = %v", err)
	}
	stranger := &domain.Actor{ID: "user-2", Name: "Eve"}
	if _, err := f.svc.GetTicket(ctx, stranger, ticket.ID); !apperrors.IsCode(err, "FORBIDDEN") {
		t.Errorf("stranger access err = %v, want FORBIDDEN", err)
	}
}
