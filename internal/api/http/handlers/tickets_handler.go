package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/helpdesk-kit/lifecycle-service/internal/api/dto"
	"github.com/helpdesk-kit/lifecycle-service/internal/auth"
	"github.com/helpdesk-kit/lifecycle-service/internal/domain"
	"github.com/helpdesk-kit/lifecycle-service/internal/service"
	apperrors "github.com/helpdesk-kit/lifecycle-service/pkg/util/errorutil"
)

// TicketsHandler exposes the end-user ticket endpoints.
type TicketsHandler struct {
	lifecycle *service.LifecycleService
	comments  *service.CommentService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(lifecycle *service.LifecycleService, comments *service.CommentService) *TicketsHandler {
	return &TicketsHandler{lifecycle: lifecycle, comments: comments}
}

// Create handles POST /tickets.
func (h *TicketsHandler) Create(c *fiber.Ctx) error {
	actor, err := actorFromCtx(c)
	if err != nil {
		return err
	}
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	ticket, err := h.lifecycle.CreateTicket(c.UserContext(), actor, service.TicketCreateInput{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Type:        req.Type,
		Impact:      req.Impact,
		Urgency:     req.Urgency,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewTicketDetail(ticket)})
}

// List handles GET /tickets (requester's own tickets).
func (h *TicketsHandler) List(c *fiber.Ctx) error {
	actor, err := actorFromCtx(c)
	if err != nil {
		return err
	}
	limit, offset := pagination(c)
	tickets, err := h.lifecycle.ListUserTickets(c.UserContext(), actor, service.TicketUserFilter{
		Statuses:   statusList(c.Query("status")),
		Priorities: priorityList(c.Query("priority")),
		Limit:      limit,
		Offset:     offset,
	})
	if err != nil {
		return err
	}
	items := make([]dto.TicketSummary, 0, len(tickets))
	for i := range tickets {
		items = append(items, dto.NewTicketSummary(&tickets[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Get handles GET /tickets/:id.
func (h *TicketsHandler) Get(c *fiber.Ctx) error {
	actor, err := actorFromCtx(c)
	if err != nil {
		return err
	}
	ticket, err := h.lifecycle.GetTicket(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketDetail(ticket)})
}

// Transition handles POST /tickets/:id/transition.
func (h *TicketsHandler) Transition(c *fiber.Ctx) error {
	actor, err := actorFromCtx(c)
	if err != nil {
		return err
	}
	var req dto.TransitionRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	ticket, err := h.lifecycle.TransitionStatus(c.UserContext(), actor, c.Params("id"), req.Status)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketDetail(ticket)})
}

// History handles GET /tickets/:id/history.
func (h *TicketsHandler) History(c *fiber.Ctx) error {
	actor, err := actorFromCtx(c)
	if err != nil {
		return err
	}
	limit, offset := pagination(c)
	entries, err := h.lifecycle.ListHistory(c.UserContext(), actor, c.Params("id"), limit, offset)
	if err != nil {
		return err
	}
	items := make([]dto.HistoryEntryResponse, 0, len(entries))
	for i := range entries {
		items = append(items, dto.NewHistoryEntry(&entries[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// AddComment handles POST /tickets/:id/comments.
func (h *TicketsHandler) AddComment(c *fiber.Ctx) error {
	actor, err := actorFromCtx(c)
	if err != nil {
		return err
	}
	var req dto.CreateCommentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	comment, err := h.comments.Add(c.UserContext(), actor, c.Params("id"), req.Body)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewComment(comment)})
}

// ListComments handles GET /tickets/:id/comments.
func (h *TicketsHandler) ListComments(c *fiber.Ctx) error {
	actor, err := actorFromCtx(c)
	if err != nil {
		return err
	}
	limit, offset := pagination(c)
	comments, err := h.comments.ListByTicket(c.UserContext(), actor, c.Params("id"), limit, offset)
	if err != nil {
		return err
	}
	items := make([]dto.CommentResponse, 0, len(comments))
	for i := range comments {
		items = append(items, dto.NewComment(&comments[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Categories handles GET /tickets/categories.
func (h *TicketsHandler) Categories(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"data": fiber.Map{
		string(domain.TicketTypeRequest):  domain.CategoriesFor(domain.TicketTypeRequest),
		string(domain.TicketTypeIncident): domain.CategoriesFor(domain.TicketTypeIncident),
	}})
}

func actorFromCtx(c *fiber.Ctx) (*domain.Actor, error) {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	return actor, nil
}

func pagination(c *fiber.Ctx) (limit, offset int) {
	page := parseInt(c.Query("page"), 1)
	pageSize := parseInt(c.Query("page_size"), 20)
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return pageSize, (page - 1) * pageSize
}

func parseInt(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return parsed
}

func statusList(raw string) []domain.TicketStatus {
	if raw == "" {
		return nil
	}
	var result []domain.TicketStatus
	for _, part := range strings.Split(raw, ",") {
		result = append(result, domain.TicketStatus(strings.TrimSpace(part)))
	}
	return result
}

func priorityList(raw string) []domain.TicketPriority {
	if raw == "" {
		return nil
	}
	var result []domain.TicketPriority
	for _, part := range strings.Split(raw, ",") {
		result = append(result, domain.TicketPriority(strings.TrimSpace(part)))
	}
	return result
}
