// AngelaMos | 2026
// entity.go

package round

import (
	"time"
)

type Round struct {
	ID          string     `db:"id"`
	Name        string     `db:"name"`
	IsActive    bool       `db:"is_active"`
	ActivatedAt *time.Time `db:"activated_at"`
	CreatedAt   time.Time  `db:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at"`
}

type Participant struct {
	RoundID   string    `db:"round_id"`
	UserID    string    `db:"user_id"`
	Gender    string    `db:"gender"`
	CreatedAt time.Time `db:"created_at"`
}
