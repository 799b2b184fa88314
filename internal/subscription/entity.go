// AngelaMos | 2026
// entity.go

package subscription

import (
	"time"
)

type Subscription struct {
	ID               string    `db:"id"`
	UserID           string    `db:"user_id"`
	PlanID           string    `db:"plan_id"`
	Status           string    `db:"status"`
	MatchQuota       int       `db:"match_quota"`
	RemainingMatches int       `db:"remaining_matches"`
	CreatedAt        time.Time `db:"created_at"`
	UpdatedAt        time.Time `db:"updated_at"`
}

const (
	StatusActive  = "active"
	StatusExpired = "expired"
)

func (s *Subscription) IsActive() bool {
	return s.Status == StatusActive
}

func (s *Subscription) HasRemaining() bool {
	return s.RemainingMatches > 0
}
