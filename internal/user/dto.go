// AngelaMos | 2026
// dto.go

package user

import (
	"time"
)

type UpdateUserRequest struct {
	Name    *string `json:"name,omitempty"    validate:"omitempty,min=1,max=100"`
	Gender  *string `json:"gender,omitempty"  validate:"omitempty,oneof=male female"`
	Bio     *string `json:"bio,omitempty"     validate:"omitempty,max=1000"`
	College *string `json:"college,omitempty" validate:"omitempty,max=200"`
}

type UpdateUserRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=user admin"`
}

type DeletionRequestCreate struct {
	Reason string `json:"reason" validate:"omitempty,max=1000"`
}

type UserResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Gender    string    `json:"gender,omitempty"`
	Role      string    `json:"role"`
	Bio       string    `json:"bio,omitempty"`
	College   string    `json:"college,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type DeletionRequestResponse struct {
	ID        string     `json:"id"`
	UserID    string     `json:"user_id"`
	Reason    string     `json:"reason,omitempty"`
	Status    string     `json:"status"`
	DecidedBy *string    `json:"decided_by,omitempty"`
	DecidedAt *time.Time `json:"decided_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

type ListUsersParams struct {
	Page     int    `json:"page"`
	PageSize int    `json:"page_size"`
	Search   string `json:"search"`
	Role     string `json:"role"`
	Gender   string `json:"gender"`
}

func (p *ListUsersParams) Normalize() {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = 20
	}
	if p.PageSize > 100 {
		p.PageSize = 100
	}
}

func (p *ListUsersParams) Offset() int {
	return (p.Page - 1) * p.PageSize
}

func ToUserResponse(u *User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Gender:    u.Gender,
		Role:      u.Role,
		Bio:       u.Bio,
		College:   u.College,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

func ToUserResponseList(users []User) []UserResponse {
	responses := make([]UserResponse, 0, len(users))
	for _, u := range users {
		responses = append(responses, ToUserResponse(&u))
	}
	return responses
}

func ToDeletionRequestResponse(d *DeletionRequest) DeletionRequestResponse {
	return DeletionRequestResponse{
		ID:        d.ID,
		UserID:    d.UserID,
		Reason:    d.Reason,
		Status:    d.Status,
		DecidedBy: d.DecidedBy,
		DecidedAt: d.DecidedAt,
		CreatedAt: d.CreatedAt,
	}
}

func ToDeletionRequestResponseList(
	requests []DeletionRequest,
) []DeletionRequestResponse {
	responses := make([]DeletionRequestResponse, 0, len(requests))
	for _, d := range requests {
		responses = append(responses, ToDeletionRequestResponse(&d))
	}
	return responses
}
