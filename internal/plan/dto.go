// AngelaMos | 2026
// dto.go

package plan

import (
	"time"
)

type CreatePlanRequest struct {
	Name        string `json:"name"        validate:"required,min=1,max=100"`
	Description string `json:"description" validate:"omitempty,max=500"`
	PricePaise  int64  `json:"price_paise" validate:"required,gt=0"`
	MatchQuota  int    `json:"match_quota" validate:"required,gt=0"`
}

type UpdatePlanRequest struct {
	Name        *string `json:"name,omitempty"        validate:"omitempty,min=1,max=100"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=500"`
	PricePaise  *int64  `json:"price_paise,omitempty" validate:"omitempty,gt=0"`
	MatchQuota  *int    `json:"match_quota,omitempty" validate:"omitempty,gt=0"`
	Active      *bool   `json:"active,omitempty"`
}

type PlanResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	PricePaise  int64     `json:"price_paise"`
	MatchQuota  int       `json:"match_quota"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func ToPlanResponse(p *Plan) PlanResponse {
	return PlanResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		PricePaise:  p.PricePaise,
		MatchQuota:  p.Quota(),
		Active:      p.Active,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func ToPlanResponseList(plans []Plan) []PlanResponse {
	responses := make([]PlanResponse, 0, len(plans))
	for _, p := range plans {
		responses = append(responses, ToPlanResponse(&p))
	}
	return responses
}
