package handlers

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/helpdesk-kit/lifecycle-service/internal/api/dto"
	"github.com/helpdesk-kit/lifecycle-service/internal/service"
	apperrors "github.com/helpdesk-kit/lifecycle-service/pkg/util/errorutil"
)

// StaffTicketsHandler handles the staff ticket queue endpoints.
type StaffTicketsHandler struct {
	lifecycle *service.LifecycleService
	stats     *service.StatsService
}

// NewStaffTicketsHandler constructs handler.
func NewStaffTicketsHandler(lifecycle *service.LifecycleService, stats *service.StatsService) *StaffTicketsHandler {
	return &StaffTicketsHandler{lifecycle: lifecycle, stats: stats}
}

// List GET /staff/tickets.
func (h *StaffTicketsHandler) List(c *fiber.Ctx) error {
	actor, err := actorFromCtx(c)
	if err != nil {
		return err
	}
	tickets, err := h.lifecycle.ListStaffTickets(c.UserContext(), actor, parseStaffFilter(c))
	if err != nil {
		return err
	}
	items := make([]dto.TicketSummary, 0, len(tickets))
	for i := range tickets {
		items = append(items, dto.NewTicketSummary(&tickets[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Assign POST /staff/tickets/:id/assign.
func (h *StaffTicketsHandler) Assign(c *fiber.Ctx) error {
	actor, err := actorFromCtx(c)
	if err != nil {
		return err
	}
	var req dto.AssignRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	ticket, err := h.lifecycle.Assign(c.UserContext(), actor, c.Params("id"), req.AssigneeID, req.AssigneeName)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketDetail(ticket)})
}

// Unassign POST /staff/tickets/:id/unassign.
func (h *StaffTicketsHandler) Unassign(c *fiber.Ctx) error {
	actor, err := actorFromCtx(c)
	if err != nil {
		return err
	}
	ticket, err := h.lifecycle.Unassign(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketDetail(ticket)})
}

// Edit PATCH /staff/tickets/:id.
func (h *StaffTicketsHandler) Edit(c *fiber.Ctx) error {
	actor, err := actorFromCtx(c)
	if err != nil {
		return err
	}
	var req dto.EditTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	ticket, err := h.lifecycle.EditFields(c.UserContext(), actor, c.Params("id"), service.TicketPatch{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Type:        req.Type,
		Priority:    req.Priority,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketDetail(ticket)})
}

// StatsOverview GET /staff/stats/overview.
func (h *StaffTicketsHandler) StatsOverview(c *fiber.Ctx) error {
	actor, err := actorFromCtx(c)
	if err != nil {
		return err
	}
	overview, err := h.stats.Overview(c.UserContext(), actor)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": overview})
}

func parseStaffFilter(c *fiber.Ctx) service.TicketStaffFilter {
	filter := service.TicketStaffFilter{
		Statuses:   statusList(c.Query("status")),
		Priorities: priorityList(c.Query("priority")),
	}
	if assignee := c.Query("assignee_id"); assignee != "" {
		filter.AssigneeID = &assignee
	}
	if search := strings.TrimSpace(c.Query("search")); search != "" {
		filter.SearchTerm = &search
	}
	if from := parseTime(c.Query("created_from")); from != nil {
		filter.CreatedFrom = from
	}
	if to := parseTime(c.Query("created_to")); to != nil {
		filter.CreatedTo = to
	}
	filter.Limit, filter.Offset = pagination(c)
	return filter
}

func parseTime(raw string) *time.Time {
	if raw == "" {
		return nil
	}
	parsed, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil
	}
	return &parsed
}
