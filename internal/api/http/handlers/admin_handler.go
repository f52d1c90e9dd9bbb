package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/helpdesk-kit/lifecycle-service/internal/api/dto"
	"github.com/helpdesk-kit/lifecycle-service/internal/observability"
	"github.com/helpdesk-kit/lifecycle-service/internal/repository"
	"github.com/helpdesk-kit/lifecycle-service/internal/service"
	apperrors "github.com/helpdesk-kit/lifecycle-service/pkg/util/errorutil"
)

// AdminHandler exposes admin-only operations: ticket purge, user account
// management, staff role management and request counters.
type AdminHandler struct {
	lifecycle *service.LifecycleService
	auth      *service.AuthService
	users     repository.UserRepository
	staff     repository.StaffRepository
	metrics   *observability.Metrics
}

// NewAdminHandler constructs handler.
func NewAdminHandler(lifecycle *service.LifecycleService, authService *service.AuthService, users repository.UserRepository, staff repository.StaffRepository, metrics *observability.Metrics) *AdminHandler {
	return &AdminHandler{lifecycle: lifecycle, auth: authService, users: users, staff: staff, metrics: metrics}
}

// Metrics handles GET /admin/metrics.
func (h *AdminHandler) Metrics(c *fiber.Ctx) error {
	requests, errs := h.metrics.Snapshot()
	return c.JSON(fiber.Map{"data": fiber.Map{
		"requests": requests,
		"errors":   errs,
	}})
}

// PurgeTicket handles DELETE /admin/tickets/:id.
func (h *AdminHandler) PurgeTicket(c *fiber.Ctx) error {
	actor, err := actorFromCtx(c)
	if err != nil {
		return err
	}
	if err := h.lifecycle.Purge(c.UserContext(), actor, c.Params("id")); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"status": "purged"}})
}

// ListUsers handles GET /admin/users.
func (h *AdminHandler) ListUsers(c *fiber.Ctx) error {
	limit, offset := pagination(c)
	users, err := h.users.List(c.UserContext(), limit, offset)
	if err != nil {
		return apperrors.MapError(err)
	}
	items := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		items = append(items, dto.NewUserResponse(&users[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// SetUserStatus handles PATCH /admin/users/:id/status.
func (h *AdminHandler) SetUserStatus(c *fiber.Ctx) error {
	actor, err := actorFromCtx(c)
	if err != nil {
		return err
	}
	var req dto.SetUserStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	user, err := h.auth.SetUserStatus(c.UserContext(), actor, c.Params("id"), req.Status)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewUserResponse(user)})
}

// ListStaff handles GET /admin/staff.
func (h *AdminHandler) ListStaff(c *fiber.Ctx) error {
	limit, offset := pagination(c)
	members, err := h.staff.List(c.UserContext(), repository.StaffFilter{Limit: limit, Offset: offset})
	if err != nil {
		return apperrors.MapError(err)
	}
	items := make([]dto.StaffMemberResponse, 0, len(members))
	for i := range members {
		items = append(items, dto.NewStaffMemberResponse(&members[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// SetStaffRole handles PATCH /admin/staff/:id/role.
func (h *AdminHandler) SetStaffRole(c *fiber.Ctx) error {
	actor, err := actorFromCtx(c)
	if err != nil {
		return err
	}
	var req dto.SetStaffRoleRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	member, err := h.auth.SetStaffRole(c.UserContext(), actor, c.Params("id"), req.Role, req.Active)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewStaffMemberResponse(member)})
}
