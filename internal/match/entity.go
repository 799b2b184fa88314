// AngelaMos | 2026
// entity.go

package match

import (
	"time"
)

// Like records one participant liking another within a round. Uniqueness
// is (round_id, target_id, actor_id), so re-liking is a no-op.
type Like struct {
	ID        string    `db:"id"`
	RoundID   string    `db:"round_id"`
	ActorID   string    `db:"actor_id"`
	TargetID  string    `db:"target_id"`
	CreatedAt time.Time `db:"created_at"`
}

// Match is a confirmed pairing. One pair can match at most once per
// round, enforced by the unique key (round_id, boy_id, girl_id).
type Match struct {
	ID        string    `db:"id"`
	RoundID   string    `db:"round_id"`
	BoyID     string    `db:"boy_id"`
	GirlID    string    `db:"girl_id"`
	Status    string    `db:"status"`
	CreatedAt time.Time `db:"created_at"`
}

const StatusConfirmed = "confirmed"
