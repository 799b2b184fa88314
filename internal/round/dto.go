// AngelaMos | 2026
// dto.go

package round

import (
	"time"
)

type CreateRoundRequest struct {
	Name string `json:"name" validate:"required,min=1,max=100"`
}

type RoundResponse struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	IsActive    bool       `json:"is_active"`
	ActivatedAt *time.Time `json:"activated_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

type RoundDetailResponse struct {
	RoundResponse
	ParticipatingMales   []string `json:"participating_males"`
	ParticipatingFemales []string `json:"participating_females"`
}

func ToRoundResponse(r *Round) RoundResponse {
	return RoundResponse{
		ID:          r.ID,
		Name:        r.Name,
		IsActive:    r.IsActive,
		ActivatedAt: r.ActivatedAt,
		CreatedAt:   r.CreatedAt,
	}
}

func ToRoundResponseList(rounds []Round) []RoundResponse {
	responses := make([]RoundResponse, 0, len(rounds))
	for _, r := range rounds {
		responses = append(responses, ToRoundResponse(&r))
	}
	return responses
}
