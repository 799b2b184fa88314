// AngelaMos | 2026
// entity.go

package plan

import (
	"time"
)

type Plan struct {
	ID          string    `db:"id"`
	Name        string    `db:"name"`
	Description string    `db:"description"`
	PricePaise  int64     `db:"price_paise"`
	MatchQuota  int       `db:"match_quota"`
	// LegacyQuota mirrors the quota field plans carried before match_quota
	// existed. Read through Quota(), never directly.
	LegacyQuota int       `db:"quota"`
	Active      bool      `db:"active"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

// Quota normalizes the two historical quota columns into one value. Zero
// means the plan is misconfigured and the caller must fall back or fail.
func (p *Plan) Quota() int {
	if p.MatchQuota > 0 {
		return p.MatchQuota
	}
	if p.LegacyQuota > 0 {
		return p.LegacyQuota
	}
	return 0
}
