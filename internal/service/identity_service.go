package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/helpdesk-kit/lifecycle-service/internal/domain"
	"github.com/helpdesk-kit/lifecycle-service/internal/repository"
	apperrors "github.com/helpdesk-kit/lifecycle-service/pkg/util/errorutil"
)

// IdentityService resolves display names and staff roles. Role lookups
// are cached in Redis for a short TTL so every request does not hit the
// staff table.
type IdentityService struct {
	users    repository.UserRepository
	staff    repository.StaffRepository
	cache    *redis.Client
	cacheTTL time.Duration
	logger   *zap.Logger
}

// NewIdentityService constructs the service. cache may be nil; lookups
// then always go to the directory.
func NewIdentityService(users repository.UserRepository, staff repository.StaffRepository, cache *redis.Client, cacheTTLSeconds int, logger *zap.Logger) *IdentityService {
	ttl := time.Duration(cacheTTLSeconds) * time.Second
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &IdentityService{
		users:    users,
		staff:    staff,
		cache:    cache,
		cacheTTL: ttl,
		logger:   logger,
	}
}

// ResolveDisplayName picks the best available name for audit entries.
// The session name wins; then the staff directory, the user directory,
// the email local part, and finally "System".
func (s *IdentityService) ResolveDisplayName(ctx context.Context, actorID, sessionName, email string) string {
	if name := strings.TrimSpace(sessionName); name != "" {
		return name
	}
	if actorID != "" {
		if member, err := s.staff.GetByID(ctx, actorID); err == nil && strings.TrimSpace(member.Name) != "" {
			return member.Name
		}
		if user, err := s.users.GetByID(ctx, actorID); err == nil && strings.TrimSpace(user.Name) != "" {
			return user.Name
		}
	}
	if local := emailLocalPart(email); local != "" {
		return local
	}
	return "System"
}

// RoleFor returns the staff role for the subject, or nil when the
// subject is not an active staff member.
func (s *IdentityService) RoleFor(ctx context.Context, subjectID string) (*domain.StaffRole, error) {
	if subjectID == "" {
		return nil, nil
	}

	cacheKey := "role:" + subjectID
	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, cacheKey).Result(); err == nil {
			return roleFromCache(cached), nil
		}
	}

	member, err := s.staff.GetByID(ctx, subjectID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			s.cacheRole(ctx, cacheKey, "none")
			return nil, nil
		}
		return nil, apperrors.MapError(err)
	}
	if !member.Active {
		s.cacheRole(ctx, cacheKey, "none")
		return nil, nil
	}

	s.cacheRole(ctx, cacheKey, string(member.Role))
	role := member.Role
	return &role, nil
}

// IsStaff reports whether the subject holds any staff role.
func (s *IdentityService) IsStaff(ctx context.Context, subjectID string) (bool, error) {
	role, err := s.RoleFor(ctx, subjectID)
	return role != nil, err
}

// IsAdmin reports whether the subject holds the admin role.
func (s *IdentityService) IsAdmin(ctx context.Context, subjectID string) (bool, error) {
	role, err := s.RoleFor(ctx, subjectID)
	return role != nil && *role == domain.StaffRoleAdmin, err
}

// InvalidateRole drops the cached role after a role change.
func (s *IdentityService) InvalidateRole(ctx context.Context, subjectID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, "role:"+subjectID).Err(); err != nil {
		s.logger.Warn("role cache invalidation failed", zap.String("subject_id", subjectID), zap.Error(err))
	}
}

func (s *IdentityService) cacheRole(ctx context.Context, key, value string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, key, value, s.cacheTTL).Err(); err != nil {
		s.logger.Warn("role cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func roleFromCache(value string) *domain.StaffRole {
	switch domain.StaffRole(value) {
	case domain.StaffRoleAgent, domain.StaffRoleAdmin:
		role := domain.StaffRole(value)
		return &role
	default:
		return nil
	}
}

func emailLocalPart(email string) string {
	email = strings.TrimSpace(email)
	if email == "" {
		return ""
	}
	if at := strings.Index(email, "@"); at > 0 {
		return email[:at]
	}
	return ""
}
