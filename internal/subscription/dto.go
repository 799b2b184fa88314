// AngelaMos | 2026
// dto.go

package subscription

import (
	"time"
)

type SubscriptionResponse struct {
	ID               string    `json:"id"`
	PlanID           string    `json:"planId"`
	Status           string    `json:"status"`
	MatchQuota       int       `json:"matchQuota"`
	RemainingMatches int       `json:"remainingMatches"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

func ToSubscriptionResponse(s *Subscription) SubscriptionResponse {
	return SubscriptionResponse{
		ID:               s.ID,
		PlanID:           s.PlanID,
		Status:           s.Status,
		MatchQuota:       s.MatchQuota,
		RemainingMatches: s.RemainingMatches,
		CreatedAt:        s.CreatedAt,
		UpdatedAt:        s.UpdatedAt,
	}
}

// ProvisionResult reports what a grant actually did. Round enrollment is
// best-effort: a failure there never unwinds the quota grant, it only
// surfaces in RoundEnrollError.
type ProvisionResult struct {
	SubscriptionID   string `json:"subscriptionId"`
	QuotaGranted     int    `json:"quotaGranted"`
	RoundEnrolled    bool   `json:"roundEnrolled"`
	RoundEnrollError string `json:"roundEnrollError,omitempty"`
}

type RepairResult struct {
	Repaired   bool   `json:"repaired"`
	TotalQuota int    `json:"totalQuota"`
	Message    string `json:"message"`
}
