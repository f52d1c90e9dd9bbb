package auth

import (
	"github.com/gofiber/fiber/v2"

	apperrors "github.com/helpdesk-kit/lifecycle-service/pkg/util/errorutil"
)

// RequireAuthenticated ensures a caller is authenticated (user or staff).
func RequireAuthenticated() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, ok := ActorFromContext(c)
		if !ok || !actor.Authenticated() {
			return apperrors.NewUnauthorized("authentication required")
		}
		return c.Next()
	}
}

// RequireStaff ensures the caller belongs to the staff directory.
func RequireStaff() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, ok := ActorFromContext(c)
		if !ok || !actor.Staff {
			return apperrors.NewForbidden("staff role required")
		}
		return c.Next()
	}
}

// RequireAdmin ensures the caller holds the admin role.
func RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, ok := ActorFromContext(c)
		if !ok || !actor.Admin {
			return apperrors.NewForbidden("admin role required")
		}
		return c.Next()
	}
}
