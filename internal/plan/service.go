// AngelaMos | 2026
// service.go

package plan

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/dateu/dateu-backend/internal/core"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) CreatePlan(
	ctx context.Context,
	req CreatePlanRequest,
) (*Plan, error) {
	plan := &Plan{
		ID:          uuid.New().String(),
		Name:        req.Name,
		Description: req.Description,
		PricePaise:  req.PricePaise,
		MatchQuota:  req.MatchQuota,
		Active:      true,
	}

	if err := s.repo.Create(ctx, plan); err != nil {
		return nil, err
	}

	return plan, nil
}

func (s *Service) GetPlan(ctx context.Context, id string) (*Plan, error) {
	return s.repo.GetByID(ctx, id)
}

// UpdatePlan edits plan metadata. Quota already granted to subscriptions is
// copied at provisioning time, so edits never change it retroactively.
func (s *Service) UpdatePlan(
	ctx context.Context,
	id string,
	req UpdatePlanRequest,
) (*Plan, error) {
	plan, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		plan.Name = *req.Name
	}
	if req.Description != nil {
		plan.Description = *req.Description
	}
	if req.PricePaise != nil {
		plan.PricePaise = *req.PricePaise
	}
	if req.MatchQuota != nil {
		plan.MatchQuota = *req.MatchQuota
	}
	if req.Active != nil {
		plan.Active = *req.Active
	}

	if err := s.repo.Update(ctx, plan); err != nil {
		return nil, err
	}

	return plan, nil
}

func (s *Service) ListPlans(
	ctx context.Context,
	activeOnly bool,
) ([]Plan, error) {
	return s.repo.List(ctx, activeOnly)
}

// ResolveQuota resolves the match quota a payment for planID grants. The plan
// is consulted first (current and legacy quota columns), then fallbackQuota
// from the payment record itself, for payments that predate plan documents.
// No positive value in either source is a hard stop: the caller must not
// create or modify any subscription.
func (s *Service) ResolveQuota(
	ctx context.Context,
	planID string,
	fallbackQuota int,
) (int, error) {
	if planID != "" {
		p, err := s.repo.GetByID(ctx, planID)
		if err != nil && !errors.Is(err, core.ErrNotFound) {
			return 0, err
		}
		if err == nil {
			if quota := p.Quota(); quota > 0 {
				return quota, nil
			}
		}
	}

	if fallbackQuota > 0 {
		return fallbackQuota, nil
	}

	return 0, fmt.Errorf(
		"resolve quota: plan %q grants no quota and no fallback given: %w",
		planID,
		core.ErrFailedPrecondition,
	)
}
