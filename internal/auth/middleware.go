package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"

	"github.com/helpdesk-kit/lifecycle-service/internal/domain"
	"github.com/helpdesk-kit/lifecycle-service/internal/repository"
	apperrors "github.com/helpdesk-kit/lifecycle-service/pkg/util/errorutil"
)

const actorKey = "auth_actor"

// RoleResolver reports the current staff role for a subject. A nil role
// means the subject holds no active staff role. Implementations may
// cache, so role changes can take up to the cache TTL to propagate.
type RoleResolver interface {
	RoleFor(ctx context.Context, subjectID string) (*domain.StaffRole, error)
}

// AuthMiddleware validates bearer tokens and resolves the acting identity.
type AuthMiddleware struct {
	tokens *TokenManager
	users  repository.UserRepository
	roles  RoleResolver
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(tokens *TokenManager, users repository.UserRepository, roles RoleResolver) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, users: users, roles: roles}
}

// Handle enforces authentication for protected routes and stores a
// domain.Actor in request locals.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return apperrors.NewUnauthorized("missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return apperrors.NewUnauthorized("invalid authorization header")
	}

	claims, err := m.tokens.ParseToken(parts[1])
	if err != nil {
		return apperrors.NewUnauthorized("invalid token")
	}

	actor := &domain.Actor{ID: claims.SubjectID, Name: claims.Name, Email: claims.Email}

	switch claims.Subject {
	case domain.SubjectTypeUser:
		user, err := m.users.GetByID(c.Context(), claims.SubjectID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return apperrors.NewUnauthorized("user not found")
			}
			return apperrors.MapError(err)
		}
		if user.Status != domain.UserStatusActive {
			return apperrors.NewUnauthorized("user suspended")
		}
		actor.Name = user.Name
		actor.Email = user.Email
	case domain.SubjectTypeStaff:
		role, err := m.roles.RoleFor(c.Context(), claims.SubjectID)
		if err != nil {
			return apperrors.MapError(err)
		}
		if role == nil {
			return apperrors.NewUnauthorized("staff not found or inactive")
		}
		actor.Staff = true
		actor.Admin = *role == domain.StaffRoleAdmin
	default:
		return apperrors.NewUnauthorized("unknown subject")
	}

	c.Locals(actorKey, actor)
	return c.Next()
}

// ActorFromContext retrieves the authenticated actor.
func ActorFromContext(c *fiber.Ctx) (*domain.Actor, bool) {
	val := c.Locals(actorKey)
	if val == nil {
		return nil, false
	}
	actor, ok := val.(*domain.Actor)
	return actor, ok
}
