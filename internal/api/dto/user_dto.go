package dto

import (
	"time"

	"github.com/helpdesk-kit/lifecycle-service/internal/domain"
)

// UserRegisterRequest payload.
type UserRegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest payload, shared by user and staff login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// PasswordResetRequest payload.
type PasswordResetRequest struct {
	Email string `json:"email"`
}

// PasswordResetConfirmRequest payload.
type PasswordResetConfirmRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

// PasswordChangeRequest payload.
type PasswordChangeRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// AuthResponse carries the issued token.
type AuthResponse struct {
	SubjectID string            `json:"subject_id"`
	Name      string            `json:"name"`
	Email     string            `json:"email"`
	Role      *domain.StaffRole `json:"role,omitempty"`
	Token     string            `json:"token"`
	ExpiresAt time.Time         `json:"expires_at"`
}

// SetUserStatusRequest payload for admin user management.
type SetUserStatusRequest struct {
	Status domain.UserStatus `json:"status"`
}

// UserResponse is the directory view of an end-user.
type UserResponse struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	Email     string            `json:"email"`
	Status    domain.UserStatus `json:"status"`
	CreatedAt time.Time         `json:"created_at"`
}

// NewUserResponse maps a domain user.
func NewUserResponse(u *domain.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Status:    u.Status,
		CreatedAt: u.CreatedAt,
	}
}
