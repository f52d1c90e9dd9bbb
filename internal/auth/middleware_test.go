package auth

import (
	"context"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"

	"github.com/helpdesk-kit/lifecycle-service/internal/domain"
	apperrors "github.com/helpdesk-kit/lifecycle-service/pkg/util/errorutil"
)

type stubUserRepo struct {
	users map[string]*domain.User
}

func (r *stubUserRepo) Create(_ context.Context, _ *domain.User) error { return nil }
func (r *stubUserRepo) Update(_ context.Context, _ *domain.User) error { return nil }

func (r *stubUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	user, ok := r.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return user, nil
}

func (r *stubUserRepo) GetByEmail(_ context.Context, _ string) (*domain.User, error) {
	return nil, pgx.ErrNoRows
}

func (r *stubUserRepo) List(_ context.Context, _, _ int) ([]domain.User, error) {
	return nil, nil
}

type countingRoleResolver struct {
	role  *domain.StaffRole
	calls int
}

func (r *countingRoleResolver) RoleFor(_ context.Context, _ string) (*domain.StaffRole, error) {
	r.calls++
	return r.role, nil
}

func newMiddlewareApp(mw *AuthMiddleware) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			de := apperrors.ToDomainError(err)
			return c.Status(de.HTTPStatus).SendString(de.Code)
		},
	})
	app.Get("/whoami", mw.Handle, func(c *fiber.Ctx) error {
		actor, ok := ActorFromContext(c)
		if !ok {
			return apperrors.NewInternalError(nil)
		}
		return c.JSON(fiber.Map{
			"name":  actor.Name,
			"staff": actor.Staff,
			"admin": actor.Admin,
		})
	})
	return app
}

func TestMiddlewareResolvesStaffRoleThroughResolver(t *testing.T) {
	t.Parallel()

	tm := NewTokenManager("test-secret", 60)
	role := domain.StaffRoleAdmin
	resolver := &countingRoleResolver{role: &role}
	mw := NewAuthMiddleware(tm, &stubUserRepo{}, resolver)
	app := newMiddlewareApp(mw)

	token, _, err := tm.GenerateToken("staff-1", domain.SubjectTypeStaff, "Ada", "ada@example.com", &role)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	req := httptest.NewRequest("GET", "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status: got %d, want 200", resp.StatusCode)
	}
	if resolver.calls != 1 {
		t.Errorf("resolver calls: got %d, want 1", resolver.calls)
	}
	body, _ := io.ReadAll(resp.Body)
	for _, want := range []string{`"staff":true`, `"admin":true`, `"name":"Ada"`} {
		if !strings.Contains(string(body), want) {
			t.Errorf("body %s missing %s", body, want)
		}
	}
}

func TestMiddlewareRejectsStaffWithoutActiveRole(t *testing.T) {
	t.Parallel()

	tm := NewTokenManager("test-secret", 60)
	resolver := &countingRoleResolver{role: nil}
	mw := NewAuthMiddleware(tm, &stubUserRepo{}, resolver)
	app := newMiddlewareApp(mw)

	role := domain.StaffRoleAgent
	token, _, err := tm.GenerateToken("staff-gone", domain.SubjectTypeStaff, "Old", "old@example.com", &role)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	req := httptest.NewRequest("GET", "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Fatalf("status: got %d, want 401", resp.StatusCode)
	}
	if resolver.calls != 1 {
		t.Errorf("resolver calls: got %d, want 1", resolver.calls)
	}
}

func TestMiddlewareRejectsSuspendedUser(t *testing.T) {
	t.Parallel()

	tm := NewTokenManager("test-secret", 60)
	users := &stubUserRepo{users: map[string]*domain.User{
		"u-1": {ID: "u-1", Name: "Sam", Email: "sam@example.com", Status: domain.UserStatusSuspended},
	}}
	mw := NewAuthMiddleware(tm, users, &countingRoleResolver{})
	app := newMiddlewareApp(mw)

	token, _, err := tm.GenerateToken("u-1", domain.SubjectTypeUser, "Sam", "sam@example.com", nil)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	req := httptest.NewRequest("GET", "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Fatalf("status: got %d, want 401", resp.StatusCode)
	}
}

func TestMiddlewareRejectsMissingOrMalformedHeader(t *testing.T) {
	t.Parallel()

	tm := NewTokenManager("test-secret", 60)
	mw := NewAuthMiddleware(tm, &stubUserRepo{}, &countingRoleResolver{})
	app := newMiddlewareApp(mw)

	for _, header := range []string{"", "Basic abc", "Bearer not-a-token"} {
		req := httptest.NewRequest("GET", "/whoami", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		resp, err := app.Test(req)
		if err != nil {
			t.Fatalf("app.Test: %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != fiber.StatusUnauthorized {
			t.Errorf("header %q: status got %d, want 401", header, resp.StatusCode)
		}
	}
}
