// AngelaMos | 2026
// service.go

package subscription

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/dateu/dateu-backend/internal/core"
)

const selectionPageSize = 10

// QuotaResolver turns a plan reference into a concrete match quota.
type QuotaResolver interface {
	ResolveQuota(ctx context.Context, planID string, fallbackQuota int) (int, error)
}

// Enroller adds a paid user to the currently active matching round.
type Enroller interface {
	Enroll(ctx context.Context, userID string) (bool, error)
}

// ApprovedPayment is the slice of a payment record that repair needs.
type ApprovedPayment struct {
	PlanID string
	Quota  int
}

// PaymentSource lists a user's approved payments for reconciliation.
type PaymentSource interface {
	ApprovedPayments(ctx context.Context, userID string) ([]ApprovedPayment, error)
}

// RepairPolicyRecompute overwrites both counters with the recomputed
// entitlement; RepairPolicyAdditive only tops remaining up by the
// shortfall, preserving matches already consumed.
const (
	RepairPolicyRecompute = "recompute"
	RepairPolicyAdditive  = "additive"
)

type Service struct {
	repo         Repository
	plans        QuotaResolver
	rounds       Enroller
	payments     PaymentSource
	repairPolicy string
	logger       *slog.Logger
}

func NewService(
	repo Repository,
	plans QuotaResolver,
	rounds Enroller,
	payments PaymentSource,
	repairPolicy string,
	logger *slog.Logger,
) *Service {
	return &Service{
		repo:         repo,
		plans:        plans,
		rounds:       rounds,
		payments:     payments,
		repairPolicy: repairPolicy,
		logger:       logger,
	}
}

// SelectActive picks the grant target among the user's subscriptions:
// the newest active record with remaining quota, else the newest active
// record, else nil. Only the first page is ever considered.
func (s *Service) SelectActive(ctx context.Context, userID string) (*Subscription, error) {
	subs, err := s.repo.ListByUser(ctx, userID, selectionPageSize)
	if err != nil {
		return nil, err
	}

	for i := range subs {
		if subs[i].IsActive() && subs[i].HasRemaining() {
			return &subs[i], nil
		}
	}
	for i := range subs {
		if subs[i].IsActive() {
			return &subs[i], nil
		}
	}
	return nil, nil
}

// GetMine returns the user's subscription ledger, newest first.
func (s *Service) GetMine(ctx context.Context, userID string) ([]Subscription, error) {
	return s.repo.ListByUser(ctx, userID, selectionPageSize)
}

// Provision grants the quota for a completed purchase. Quota resolution
// is fail-fast: an unresolvable quota aborts before any write. Round
// enrollment runs after the grant commits and is best-effort; its
// failure is reported on the result, never to the caller as an error.
func (s *Service) Provision(ctx context.Context, userID, planID string, fallbackQuota int) (*ProvisionResult, error) {
	quota, err := s.plans.ResolveQuota(ctx, planID, fallbackQuota)
	if err != nil {
		return nil, err
	}

	target, err := s.SelectActive(ctx, userID)
	if err != nil {
		return nil, err
	}

	result := &ProvisionResult{QuotaGranted: quota}

	if target != nil {
		if err := s.repo.AddQuota(ctx, target.ID, quota); err != nil {
			return nil, err
		}
		result.SubscriptionID = target.ID
	} else {
		sub := &Subscription{
			ID:               uuid.New().String(),
			UserID:           userID,
			PlanID:           planID,
			Status:           StatusActive,
			MatchQuota:       quota,
			RemainingMatches: quota,
		}
		if err := s.repo.Create(ctx, sub); err != nil {
			return nil, err
		}
		result.SubscriptionID = sub.ID
	}

	enrolled, err := s.rounds.Enroll(ctx, userID)
	if err != nil {
		s.logger.Warn("round enrollment failed after grant",
			"user_id", userID,
			"subscription_id", result.SubscriptionID,
			"error", err)
		result.RoundEnrollError = err.Error()
	}
	result.RoundEnrolled = enrolled

	return result, nil
}

// Repair reconciles a user's ledger against their approved payments.
// Each payment contributes its captured quota, falling back to a live
// plan lookup when the capture is zero.
func (s *Service) Repair(ctx context.Context, userID string) (*RepairResult, error) {
	payments, err := s.payments.ApprovedPayments(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(payments) == 0 {
		return &RepairResult{
			Repaired:   false,
			TotalQuota: 0,
			Message:    "no approved payments found",
		}, nil
	}

	total := 0
	for _, p := range payments {
		quota := p.Quota
		if quota == 0 && p.PlanID != "" {
			resolved, err := s.plans.ResolveQuota(ctx, p.PlanID, 0)
			switch {
			case errors.Is(err, core.ErrFailedPrecondition):
				// A payment whose plan grants nothing contributes zero
				// to the reconciliation; the hard stop only applies to
				// provisioning.
				resolved = 0
			case err != nil:
				return nil, fmt.Errorf("resolve quota for plan %s: %w", p.PlanID, err)
			}
			quota = resolved
		}
		total += quota
	}

	if total <= 0 {
		return &RepairResult{
			Repaired:   false,
			TotalQuota: 0,
			Message:    "approved payments resolve to zero quota",
		}, nil
	}

	target, err := s.SelectActive(ctx, userID)
	if err != nil {
		return nil, err
	}

	if target == nil {
		sub := &Subscription{
			ID:               uuid.New().String(),
			UserID:           userID,
			PlanID:           payments[len(payments)-1].PlanID,
			Status:           StatusActive,
			MatchQuota:       total,
			RemainingMatches: total,
		}
		if err := s.repo.Create(ctx, sub); err != nil {
			return nil, err
		}
		return &RepairResult{
			Repaired:   true,
			TotalQuota: total,
			Message:    fmt.Sprintf("created subscription with %d matches", total),
		}, nil
	}

	switch s.repairPolicy {
	case RepairPolicyAdditive:
		shortfall := total - target.MatchQuota
		if shortfall <= 0 {
			return &RepairResult{
				Repaired:   false,
				TotalQuota: total,
				Message:    "ledger already at or above entitlement",
			}, nil
		}
		if err := s.repo.AddQuota(ctx, target.ID, shortfall); err != nil {
			return nil, err
		}
		return &RepairResult{
			Repaired:   true,
			TotalQuota: total,
			Message:    fmt.Sprintf("added %d matches to reach entitlement", shortfall),
		}, nil
	default:
		if err := s.repo.Overwrite(ctx, target.ID, total); err != nil {
			return nil, err
		}
		return &RepairResult{
			Repaired:   true,
			TotalQuota: total,
			Message:    fmt.Sprintf("reset subscription to %d matches", total),
		}, nil
	}
}
