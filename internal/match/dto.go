// AngelaMos | 2026
// dto.go

package match

import (
	"time"
)

type CreateLikeRequest struct {
	TargetUID string `json:"targetUid" validate:"required"`
}

type ConfirmMatchRequest struct {
	RoundID string `json:"roundId" validate:"required"`
	GirlUID string `json:"girlUid" validate:"required"`
}

type PromoteMatchRequest struct {
	RoundID string `json:"roundId" validate:"required"`
	BoyUID  string `json:"boyUid" validate:"required"`
	GirlUID string `json:"girlUid" validate:"required"`
}

type LikeResponse struct {
	ID        string    `json:"id"`
	RoundID   string    `json:"roundId"`
	ActorID   string    `json:"actorId"`
	TargetID  string    `json:"targetId"`
	CreatedAt time.Time `json:"createdAt"`
}

type MatchResponse struct {
	ID        string    `json:"id"`
	RoundID   string    `json:"roundId"`
	BoyID     string    `json:"boyId"`
	GirlID    string    `json:"girlId"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}

// ConfirmResult distinguishes a fresh match from an idempotent replay.
type ConfirmResult struct {
	Match            MatchResponse `json:"match"`
	AlreadyConfirmed bool          `json:"alreadyConfirmed"`
	RemainingMatches int           `json:"remainingMatches"`
}

func ToLikeResponse(l *Like) LikeResponse {
	return LikeResponse{
		ID:        l.ID,
		RoundID:   l.RoundID,
		ActorID:   l.ActorID,
		TargetID:  l.TargetID,
		CreatedAt: l.CreatedAt,
	}
}

func ToMatchResponse(m *Match) MatchResponse {
	return MatchResponse{
		ID:        m.ID,
		RoundID:   m.RoundID,
		BoyID:     m.BoyID,
		GirlID:    m.GirlID,
		Status:    m.Status,
		CreatedAt: m.CreatedAt,
	}
}
