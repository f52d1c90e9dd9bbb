package dto

import (
	"time"

	"github.com/helpdesk-kit/lifecycle-service/internal/domain"
)

// SetStaffRoleRequest payload for admin role management.
type SetStaffRoleRequest struct {
	Role   domain.StaffRole `json:"role"`
	Active bool             `json:"active"`
}

// StaffMemberResponse is the directory view of a staff member.
type StaffMemberResponse struct {
	ID        string           `json:"id"`
	Name      string           `json:"name"`
	Email     string           `json:"email"`
	Role      domain.StaffRole `json:"role"`
	Active    bool             `json:"active"`
	CreatedAt time.Time        `json:"created_at"`
}

// NewStaffMemberResponse maps a domain staff member.
func NewStaffMemberResponse(m *domain.StaffMember) StaffMemberResponse {
	return StaffMemberResponse{
		ID:        m.ID,
		Name:      m.Name,
		Email:     m.Email,
		Role:      m.Role,
		Active:    m.Active,
		CreatedAt: m.CreatedAt,
	}
}
