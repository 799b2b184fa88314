// AngelaMos | 2026
// repository.go

package plan

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dateu/dateu-backend/internal/core"
)

type Repository interface {
	Create(ctx context.Context, plan *Plan) error
	GetByID(ctx context.Context, id string) (*Plan, error)
	Update(ctx context.Context, plan *Plan) error
	List(ctx context.Context, activeOnly bool) ([]Plan, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, plan *Plan) error {
	query := `
		INSERT INTO plans (id, name, description, price_paise, match_quota, quota, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at`

	err := r.db.GetContext(ctx, plan, query,
		plan.ID,
		plan.Name,
		plan.Description,
		plan.PricePaise,
		plan.MatchQuota,
		plan.LegacyQuota,
		plan.Active,
	)
	if err != nil {
		return fmt.Errorf("create plan: %w", err)
	}

	return nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*Plan, error) {
	query := `
		SELECT id, name, description, price_paise, match_quota, quota, active,
		       created_at, updated_at
		FROM plans
		WHERE id = $1`

	var plan Plan
	err := r.db.GetContext(ctx, &plan, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get plan: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get plan: %w", err)
	}

	return &plan, nil
}

func (r *repository) Update(ctx context.Context, plan *Plan) error {
	query := `
		UPDATE plans
		SET name = $2, description = $3, price_paise = $4, match_quota = $5,
		    active = $6, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`

	err := r.db.GetContext(ctx, &plan.UpdatedAt, query,
		plan.ID,
		plan.Name,
		plan.Description,
		plan.PricePaise,
		plan.MatchQuota,
		plan.Active,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("update plan: %w", core.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("update plan: %w", err)
	}

	return nil
}

func (r *repository) List(
	ctx context.Context,
	activeOnly bool,
) ([]Plan, error) {
	query := `
		SELECT id, name, description, price_paise, match_quota, quota, active,
		       created_at, updated_at
		FROM plans`

	if activeOnly {
		query += ` WHERE active = true`
	}
	query += ` ORDER BY price_paise ASC`

	var plans []Plan
	if err := r.db.SelectContext(ctx, &plans, query); err != nil {
		return nil, fmt.Errorf("list plans: %w", err)
	}

	return plans, nil
}
