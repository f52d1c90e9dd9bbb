package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/helpdesk-kit/lifecycle-service/internal/auth"
	"github.com/helpdesk-kit/lifecycle-service/internal/config"
	"github.com/helpdesk-kit/lifecycle-service/internal/domain"
	"github.com/helpdesk-kit/lifecycle-service/internal/repository"
	apperrors "github.com/helpdesk-kit/lifecycle-service/pkg/util/errorutil"
)

// AuthService handles registration, login and password management for
// both end-users and staff.
type AuthService struct {
	users    repository.UserRepository
	staff    repository.StaffRepository
	resets   repository.PasswordResetRepository
	tokens   *auth.TokenManager
	identity *IdentityService
	cfg      config.AuthConfig
	logger   *zap.Logger
}

// NewAuthService constructs the service.
func NewAuthService(
	users repository.UserRepository,
	staff repository.StaffRepository,
	resets repository.PasswordResetRepository,
	tokens *auth.TokenManager,
	identity *IdentityService,
	cfg config.AuthConfig,
	logger *zap.Logger,
) *AuthService {
	return &AuthService{
		users:    users,
		staff:    staff,
		resets:   resets,
		tokens:   tokens,
		identity: identity,
		cfg:      cfg,
		logger:   logger,
	}
}

// AuthResult is the login/registration response.
type AuthResult struct {
	SubjectID string
	Subject   domain.SubjectType
	Name      string
	Email     string
	Role      *domain.StaffRole
	Token     string
	ExpiresAt time.Time
}

// RegisterUser creates an end-user account and issues a token.
func (s *AuthService) RegisterUser(ctx context.Context, name, email, password string) (*AuthResult, error) {
	name = strings.TrimSpace(name)
	email = normalizeEmail(email)
	if name == "" || email == "" {
		return nil, apperrors.NewValidationError("name and email required", nil)
	}
	if len(password) < 8 {
		return nil, apperrors.NewValidationError("password must be at least 8 characters", nil)
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, apperrors.NewConflict("email already registered", nil)
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.MapError(err)
	}

	hashed, err := auth.HashPassword(password, s.cfg.BcryptCost)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	user := &domain.User{
		Name:         name,
		Email:        email,
		PasswordHash: hashed,
		Status:       domain.UserStatusActive,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, apperrors.MapError(err)
	}

	return s.issueToken(user.ID, domain.SubjectTypeUser, user.Name, user.Email, nil)
}

// LoginUser authenticates an end-user by email and password.
func (s *AuthService) LoginUser(ctx context.Context, email, password string) (*AuthResult, error) {
	email = normalizeEmail(email)
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewUnauthorized("invalid credentials")
		}
		return nil, apperrors.MapError(err)
	}
	if user.Status != domain.UserStatusActive {
		return nil, apperrors.NewUnauthorized("account suspended")
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, apperrors.NewUnauthorized("invalid credentials")
	}
	return s.issueToken(user.ID, domain.SubjectTypeUser, user.Name, user.Email, nil)
}

// LoginStaff authenticates a staff member by email and password.
func (s *AuthService) LoginStaff(ctx context.Context, email, password string) (*AuthResult, error) {
	email = normalizeEmail(email)
	member, err := s.staff.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewUnauthorized("invalid credentials")
		}
		return nil, apperrors.MapError(err)
	}
	if !member.Active {
		return nil, apperrors.NewUnauthorized("account inactive")
	}
	if err := auth.ComparePassword(member.PasswordHash, password); err != nil {
		return nil, apperrors.NewUnauthorized("invalid credentials")
	}
	role := member.Role
	return s.issueToken(member.ID, domain.SubjectTypeStaff, member.Name, member.Email, &role)
}

// RequestPasswordReset issues a reset token. The result is the same
// whether or not the email exists, so the endpoint does not leak which
// addresses are registered. The token itself goes out via the
// notification channel, never in the HTTP response.
func (s *AuthService) RequestPasswordReset(ctx context.Context, subject domain.SubjectType, email string) error {
	email = normalizeEmail(email)
	if email == "" {
		return apperrors.NewValidationError("email required", nil)
	}

	var subjectID string
	switch subject {
	case domain.SubjectTypeUser:
		user, err := s.users.GetByEmail(ctx, email)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil
			}
			return apperrors.MapError(err)
		}
		subjectID = user.ID
	case domain.SubjectTypeStaff:
		member, err := s.staff.GetByEmail(ctx, email)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil
			}
			return apperrors.MapError(err)
		}
		subjectID = member.ID
	default:
		return apperrors.NewValidationError("unknown subject type", nil)
	}

	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return apperrors.NewInternalError(err)
	}

	ttl := time.Duration(s.cfg.PasswordResetTTLMinutes) * time.Minute
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	token := &repository.PasswordResetToken{
		SubjectType: string(subject),
		SubjectID:   subjectID,
		Token:       hex.EncodeToString(raw),
		ExpiresAt:   time.Now().Add(ttl),
	}
	if err := s.resets.Create(ctx, token); err != nil {
		return apperrors.MapError(err)
	}

	s.logger.Info("password reset token issued",
		zap.String("subject", string(subject)),
		zap.String("subject_id", subjectID))
	return nil
}

// ResetPassword consumes a reset token and sets a new password.
func (s *AuthService) ResetPassword(ctx context.Context, tokenStr, newPassword string) error {
	if len(newPassword) < 8 {
		return apperrors.NewValidationError("password must be at least 8 characters", nil)
	}

	token, err := s.resets.GetByToken(ctx, strings.TrimSpace(tokenStr))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewValidationError("invalid or expired reset token", nil)
		}
		return apperrors.MapError(err)
	}
	if token.UsedAt != nil || time.Now().After(token.ExpiresAt) {
		return apperrors.NewValidationError("invalid or expired reset token", nil)
	}

	hashed, err := auth.HashPassword(newPassword, s.cfg.BcryptCost)
	if err != nil {
		return apperrors.NewInternalError(err)
	}

	switch domain.SubjectType(token.SubjectType) {
	case domain.SubjectTypeUser:
		user, err := s.users.GetByID(ctx, token.SubjectID)
		if err != nil {
			return apperrors.MapError(err)
		}
		user.PasswordHash = hashed
		if err := s.users.Update(ctx, user); err != nil {
			return apperrors.MapError(err)
		}
	case domain.SubjectTypeStaff:
		member, err := s.staff.GetByID(ctx, token.SubjectID)
		if err != nil {
			return apperrors.MapError(err)
		}
		member.PasswordHash = hashed
		if err := s.staff.Update(ctx, member); err != nil {
			return apperrors.MapError(err)
		}
	default:
		return apperrors.NewValidationError("invalid or expired reset token", nil)
	}

	return apperrors.MapError(s.resets.MarkUsed(ctx, token.ID))
}

// ChangePassword verifies the current password and sets a new one.
func (s *AuthService) ChangePassword(ctx context.Context, actor *domain.Actor, subject domain.SubjectType, current, next string) error {
	if !actor.Authenticated() {
		return apperrors.NewUnauthorized("authentication required")
	}
	if len(next) < 8 {
		return apperrors.NewValidationError("password must be at least 8 characters", nil)
	}

	hashedNext := func() (string, error) {
		return auth.HashPassword(next, s.cfg.BcryptCost)
	}

	switch subject {
	case domain.SubjectTypeUser:
		user, err := s.users.GetByID(ctx, actor.ID)
		if err != nil {
			return apperrors.MapError(err)
		}
		if err := auth.ComparePassword(user.PasswordHash, current); err != nil {
			return apperrors.NewUnauthorized("invalid credentials")
		}
		hashed, err := hashedNext()
		if err != nil {
			return apperrors.NewInternalError(err)
		}
		user.PasswordHash = hashed
		return apperrors.MapError(s.users.Update(ctx, user))
	case domain.SubjectTypeStaff:
		member, err := s.staff.GetByID(ctx, actor.ID)
		if err != nil {
			return apperrors.MapError(err)
		}
		if err := auth.ComparePassword(member.PasswordHash, current); err != nil {
			return apperrors.NewUnauthorized("invalid credentials")
		}
		hashed, err := hashedNext()
		if err != nil {
			return apperrors.NewInternalError(err)
		}
		member.PasswordHash = hashed
		return apperrors.MapError(s.staff.Update(ctx, member))
	default:
		return apperrors.NewValidationError("unknown subject type", nil)
	}
}

// SetStaffRole changes a staff member's role or active flag. Admin only.
func (s *AuthService) SetStaffRole(ctx context.Context, actor *domain.Actor, staffID string, role domain.StaffRole, active bool) (*domain.StaffMember, error) {
	if !actor.Authenticated() {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	if !actor.Admin {
		return nil, apperrors.NewForbidden("admin role required")
	}
	if role != domain.StaffRoleAgent && role != domain.StaffRoleAdmin {
		return nil, apperrors.NewValidationError("unknown staff role", map[string]any{"role": role})
	}

	member, err := s.staff.GetByID(ctx, staffID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("staff member", nil)
		}
		return nil, apperrors.MapError(err)
	}

	member.Role = role
	member.Active = active
	if err := s.staff.Update(ctx, member); err != nil {
		return nil, apperrors.MapError(err)
	}
	if s.identity != nil {
		s.identity.InvalidateRole(ctx, member.ID)
	}
	return member, nil
}

// SetUserStatus suspends or reactivates an end-user account. Admin only.
func (s *AuthService) SetUserStatus(ctx context.Context, actor *domain.Actor, userID string, status domain.UserStatus) (*domain.User, error) {
	if !actor.Authenticated() {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	if !actor.Admin {
		return nil, apperrors.NewForbidden("admin role required")
	}
	if status != domain.UserStatusActive && status != domain.UserStatusSuspended {
		return nil, apperrors.NewValidationError("unknown user status", map[string]any{"status": status})
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("user", nil)
		}
		return nil, apperrors.MapError(err)
	}

	user.Status = status
	if err := s.users.Update(ctx, user); err != nil {
		return nil, apperrors.MapError(err)
	}
	return user, nil
}

func (s *AuthService) issueToken(subjectID string, subject domain.SubjectType, name, email string, role *domain.StaffRole) (*AuthResult, error) {
	token, expiresAt, err := s.tokens.GenerateToken(subjectID, subject, name, email, role)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return &AuthResult{
		SubjectID: subjectID,
		Subject:   subject,
		Name:      name,
		Email:     email,
		Role:      role,
		Token:     token,
		ExpiresAt: expiresAt,
	}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
