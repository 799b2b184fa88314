// AngelaMos | 2026
// repository.go

package match

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dateu/dateu-backend/internal/core"
)

type Repository interface {
	// CreateLike inserts a like; re-liking the same target in the same
	// round is a silent no-op.
	CreateLike(ctx context.Context, like *Like) error
	LikeExists(ctx context.Context, roundID, actorID, targetID string) (bool, error)
	ListLikesReceived(ctx context.Context, roundID, targetID string) ([]Like, error)

	// GetMatchIn and CreateMatchIn run on a caller-supplied executor so
	// they can join the confirmation transaction.
	GetMatchIn(ctx context.Context, q core.DBTX, roundID, boyID, girlID string) (*Match, error)
	CreateMatchIn(ctx context.Context, q core.DBTX, m *Match) error

	// ListMatchesByUser returns matches on either side of the pair; an
	// empty roundID means all rounds.
	ListMatchesByUser(ctx context.Context, userID, roundID string) ([]Match, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) CreateLike(ctx context.Context, like *Like) error {
	query := `
		INSERT INTO likes (id, round_id, actor_id, target_id, created_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (round_id, target_id, actor_id) DO NOTHING`

	if _, err := r.db.ExecContext(ctx, query,
		like.ID, like.RoundID, like.ActorID, like.TargetID,
	); err != nil {
		return fmt.Errorf("create like: %w", err)
	}
	return nil
}

func (r *repository) LikeExists(ctx context.Context, roundID, actorID, targetID string) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM likes
			WHERE round_id = $1 AND actor_id = $2 AND target_id = $3
		)`

	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, roundID, actorID, targetID); err != nil {
		return false, fmt.Errorf("check like: %w", err)
	}
	return exists, nil
}

func (r *repository) ListLikesReceived(ctx context.Context, roundID, targetID string) ([]Like, error) {
	likes := []Like{}
	query := `
		SELECT * FROM likes
		WHERE round_id = $1 AND target_id = $2
		ORDER BY created_at DESC`

	if err := r.db.SelectContext(ctx, &likes, query, roundID, targetID); err != nil {
		return nil, fmt.Errorf("list likes received: %w", err)
	}
	return likes, nil
}

func (r *repository) GetMatchIn(ctx context.Context, q core.DBTX, roundID, boyID, girlID string) (*Match, error) {
	var m Match
	query := `
		SELECT * FROM matches
		WHERE round_id = $1 AND boy_id = $2 AND girl_id = $3`

	err := q.GetContext(ctx, &m, query, roundID, boyID, girlID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, core.ErrNotFound
		}
		return nil, fmt.Errorf("get match: %w", err)
	}
	return &m, nil
}

func (r *repository) CreateMatchIn(ctx context.Context, q core.DBTX, m *Match) error {
	query := `
		INSERT INTO matches (id, round_id, boy_id, girl_id, status, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		RETURNING created_at`

	err := q.QueryRowxContext(ctx, query,
		m.ID, m.RoundID, m.BoyID, m.GirlID, m.Status,
	).Scan(&m.CreatedAt)
	if err != nil {
		return fmt.Errorf("create match: %w", err)
	}
	return nil
}

func (r *repository) ListMatchesByUser(ctx context.Context, userID, roundID string) ([]Match, error) {
	matches := []Match{}
	query := `
		SELECT * FROM matches
		WHERE (boy_id = $1 OR girl_id = $1)
		  AND ($2 = '' OR round_id = $2)
		ORDER BY created_at DESC`

	if err := r.db.SelectContext(ctx, &matches, query, userID, roundID); err != nil {
		return nil, fmt.Errorf("list matches: %w", err)
	}
	return matches, nil
}
