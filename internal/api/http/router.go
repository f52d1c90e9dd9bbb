package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/helpdesk-kit/lifecycle-service/internal/api/http/handlers"
	"github.com/helpdesk-kit/lifecycle-service/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Users          *handlers.UsersHandler
	Staff          *handlers.StaffHandler
	Tickets        *handlers.TicketsHandler
	StaffTickets   *handlers.StaffTicketsHandler
	Admin          *handlers.AdminHandler
	Assist         *handlers.AssistHandler
	Events         *handlers.EventsHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/users/register", cfg.Users.Register)
	authGroup.Post("/users/login", cfg.Users.Login)
	authGroup.Post("/users/password/reset/request", cfg.Users.RequestPasswordReset)
	authGroup.Post("/staff/login", cfg.Staff.Login)
	authGroup.Post("/staff/password/reset/request", cfg.Staff.RequestPasswordReset)
	authGroup.Post("/password/reset/confirm", cfg.Users.ConfirmPasswordReset)

	authProtected := authGroup.Group("", cfg.AuthMiddleware.Handle)
	authProtected.Post("/users/password/change", cfg.Users.ChangePassword)
	authProtected.Post("/staff/password/change", auth.RequireStaff(), cfg.Staff.ChangePassword)

	tickets := app.Group("/tickets", cfg.AuthMiddleware.Handle, auth.RequireAuthenticated())
	tickets.Get("/categories", cfg.Tickets.Categories)
	tickets.Post("/", cfg.Tickets.Create)
	tickets.Get("/", cfg.Tickets.List)
	tickets.Get("/:id", cfg.Tickets.Get)
	tickets.Post("/:id/status", cfg.Tickets.Transition)
	tickets.Get("/:id/history", cfg.Tickets.History)
	tickets.Post("/:id/comments", cfg.Tickets.AddComment)
	tickets.Get("/:id/comments", cfg.Tickets.ListComments)

	staff := app.Group("/staff", cfg.AuthMiddleware.Handle, auth.RequireStaff())
	staff.Get("/tickets", cfg.StaffTickets.List)
	staff.Get("/tickets/:id", cfg.Tickets.Get)
	staff.Post("/tickets/:id/status", cfg.Tickets.Transition)
	staff.Post("/tickets/:id/assign", cfg.StaffTickets.Assign)
	staff.Delete("/tickets/:id/assign", cfg.StaffTickets.Unassign)
	staff.Patch("/tickets/:id", cfg.StaffTickets.Edit)
	staff.Get("/tickets/:id/history", cfg.Tickets.History)
	staff.Get("/tickets/:id/comments", cfg.Tickets.ListComments)
	staff.Post("/tickets/:id/comments", cfg.Tickets.AddComment)
	staff.Get("/events", cfg.Events.Stream)

	app.Get("/stats/overview", cfg.AuthMiddleware.Handle, auth.RequireStaff(), cfg.StaffTickets.StatsOverview)

	admin := app.Group("/admin", cfg.AuthMiddleware.Handle, auth.RequireAdmin())
	admin.Delete("/tickets/:id", cfg.Admin.PurgeTicket)
	admin.Get("/users", cfg.Admin.ListUsers)
	admin.Patch("/users/:id/status", cfg.Admin.SetUserStatus)
	admin.Get("/staff", cfg.Admin.ListStaff)
	admin.Put("/staff/:id/role", cfg.Admin.SetStaffRole)
	admin.Get("/metrics", cfg.Admin.Metrics)

	app.Post("/assist/ask", cfg.Assist.Ask)
}
