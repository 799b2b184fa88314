// AngelaMos | 2026
// repository.go

package subscription

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dateu/dateu-backend/internal/core"
)

type Repository interface {
	Create(ctx context.Context, sub *Subscription) error
	GetByID(ctx context.Context, id string) (*Subscription, error)
	ListByUser(ctx context.Context, userID string, limit int) ([]Subscription, error)
	AddQuota(ctx context.Context, id string, quota int) error
	Overwrite(ctx context.Context, id string, total int) error
	GetActiveForUpdate(ctx context.Context, q core.DBTX, userID string) (*Subscription, error)
	ConsumeMatch(ctx context.Context, q core.DBTX, id string) (*Subscription, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, sub *Subscription) error {
	query := `
		INSERT INTO subscriptions (id, user_id, plan_id, status, match_quota, remaining_matches, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		RETURNING created_at, updated_at`

	err := r.db.QueryRowxContext(ctx, query,
		sub.ID, sub.UserID, sub.PlanID, sub.Status, sub.MatchQuota, sub.RemainingMatches,
	).Scan(&sub.CreatedAt, &sub.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create subscription: %w", err)
	}
	return nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*Subscription, error) {
	var sub Subscription
	query := `SELECT * FROM subscriptions WHERE id = $1`

	err := r.db.GetContext(ctx, &sub, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, core.ErrNotFound
		}
		return nil, fmt.Errorf("get subscription: %w", err)
	}
	return &sub, nil
}

// ListByUser returns the user's subscriptions newest first. Callers that
// pick the grant target only ever look at the first page.
func (r *repository) ListByUser(ctx context.Context, userID string, limit int) ([]Subscription, error) {
	subs := []Subscription{}
	query := `
		SELECT * FROM subscriptions
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2`

	err := r.db.SelectContext(ctx, &subs, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}
	return subs, nil
}

// AddQuota tops up an existing record. Both counters move so the granted
// total stays the sum of every provisioning event.
func (r *repository) AddQuota(ctx context.Context, id string, quota int) error {
	query := `
		UPDATE subscriptions
		SET match_quota = match_quota + $2,
		    remaining_matches = remaining_matches + $2,
		    status = $3,
		    updated_at = NOW()
		WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id, quota, StatusActive)
	if err != nil {
		return fmt.Errorf("add quota: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("add quota rows affected: %w", err)
	}
	if rows == 0 {
		return core.ErrNotFound
	}
	return nil
}

// Overwrite resets both counters to a recomputed total.
func (r *repository) Overwrite(ctx context.Context, id string, total int) error {
	query := `
		UPDATE subscriptions
		SET match_quota = $2,
		    remaining_matches = $2,
		    status = $3,
		    updated_at = NOW()
		WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id, total, StatusActive)
	if err != nil {
		return fmt.Errorf("overwrite subscription: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("overwrite rows affected: %w", err)
	}
	if rows == 0 {
		return core.ErrNotFound
	}
	return nil
}

// GetActiveForUpdate row-locks the user's newest active subscription with
// remaining quota, falling back to the newest active one. Must run inside
// a transaction, so the executor is passed in.
func (r *repository) GetActiveForUpdate(ctx context.Context, q core.DBTX, userID string) (*Subscription, error) {
	var sub Subscription
	query := `
		SELECT * FROM subscriptions
		WHERE user_id = $1 AND status = $2
		ORDER BY (remaining_matches > 0) DESC, created_at DESC
		LIMIT 1
		FOR UPDATE`

	err := q.GetContext(ctx, &sub, query, userID, StatusActive)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, core.ErrNotFound
		}
		return nil, fmt.Errorf("lock subscription: %w", err)
	}
	return &sub, nil
}

// ConsumeMatch burns one unit and expires the record when it hits zero.
// Must run on the same transaction that locked the row.
func (r *repository) ConsumeMatch(ctx context.Context, q core.DBTX, id string) (*Subscription, error) {
	var sub Subscription
	query := `
		UPDATE subscriptions
		SET remaining_matches = remaining_matches - 1,
		    status = CASE WHEN remaining_matches - 1 <= 0 THEN $2 ELSE status END,
		    updated_at = NOW()
		WHERE id = $1
		RETURNING *`

	err := q.GetContext(ctx, &sub, query, id, StatusExpired)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, core.ErrNotFound
		}
		return nil, fmt.Errorf("consume match: %w", err)
	}
	return &sub, nil
}
