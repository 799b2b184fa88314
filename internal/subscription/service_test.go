// AngelaMos | 2026
// service_test.go

package subscription

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"

	"github.com/dateu/dateu-backend/internal/core"
)

type fakeRepo struct {
	subs       []*Subscription
	createErr  error
	overwrites map[string]int
	additions  map[string]int
}

func newFakeRepo(subs ...*Subscription) *fakeRepo {
	return &fakeRepo{
		subs:       subs,
		overwrites: map[string]int{},
		additions:  map[string]int{},
	}
}

func (f *fakeRepo) Create(_ context.Context, sub *Subscription) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.subs = append([]*Subscription{sub}, f.subs...)
	return nil
}

func (f *fakeRepo) GetByID(_ context.Context, id string) (*Subscription, error) {
	for _, s := range f.subs {
		if s.ID == id {
			return s, nil
		}
	}
	return nil, core.ErrNotFound
}

func (f *fakeRepo) ListByUser(_ context.Context, userID string, limit int) ([]Subscription, error) {
	out := []Subscription{}
	for _, s := range f.subs {
		if s.UserID == userID && len(out) < limit {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (f *fakeRepo) AddQuota(_ context.Context, id string, quota int) error {
	for _, s := range f.subs {
		if s.ID == id {
			s.MatchQuota += quota
			s.RemainingMatches += quota
			s.Status = StatusActive
			f.additions[id] += quota
			return nil
		}
	}
	return core.ErrNotFound
}

func (f *fakeRepo) Overwrite(_ context.Context, id string, total int) error {
	for _, s := range f.subs {
		if s.ID == id {
			s.MatchQuota = total
			s.RemainingMatches = total
			s.Status = StatusActive
			f.overwrites[id] = total
			return nil
		}
	}
	return core.ErrNotFound
}

func (f *fakeRepo) GetActiveForUpdate(_ context.Context, _ core.DBTX, userID string) (*Subscription, error) {
	for _, s := range f.subs {
		if s.UserID == userID && s.IsActive() && s.HasRemaining() {
			return s, nil
		}
	}
	for _, s := range f.subs {
		if s.UserID == userID && s.IsActive() {
			return s, nil
		}
	}
	return nil, core.ErrNotFound
}

func (f *fakeRepo) ConsumeMatch(_ context.Context, _ core.DBTX, id string) (*Subscription, error) {
	for _, s := range f.subs {
		if s.ID == id {
			s.RemainingMatches--
			if s.RemainingMatches <= 0 {
				s.Status = StatusExpired
			}
			return s, nil
		}
	}
	return nil, core.ErrNotFound
}

type fakePlans struct {
	quotas map[string]int
}

func (f *fakePlans) ResolveQuota(_ context.Context, planID string, fallback int) (int, error) {
	if q, ok := f.quotas[planID]; ok && q > 0 {
		return q, nil
	}
	if fallback > 0 {
		return fallback, nil
	}
	return 0, fmt.Errorf("resolve quota: %w", core.ErrFailedPrecondition)
}

type fakeEnroller struct {
	enrolled []string
	err      error
}

func (f *fakeEnroller) Enroll(_ context.Context, userID string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	f.enrolled = append(f.enrolled, userID)
	return true, nil
}

type fakePayments struct {
	byUser map[string][]ApprovedPayment
}

func (f *fakePayments) ApprovedPayments(_ context.Context, userID string) ([]ApprovedPayment, error) {
	return f.byUser[userID], nil
}

func newService(repo Repository, plans QuotaResolver, rounds Enroller, payments PaymentSource, policy string) *Service {
	return NewService(repo, plans, rounds, payments, policy, slog.Default())
}

func TestSelectActive(t *testing.T) {
	tests := []struct {
		name   string
		subs   []*Subscription
		wantID string
		none   bool
	}{
		{
			name: "active with remaining wins over drained",
			subs: []*Subscription{
				{ID: "drained", UserID: "u1", Status: StatusActive, RemainingMatches: 0},
				{ID: "live", UserID: "u1", Status: StatusActive, RemainingMatches: 3},
			},
			wantID: "live",
		},
		{
			name: "falls back to drained active",
			subs: []*Subscription{
				{ID: "expired", UserID: "u1", Status: StatusExpired, RemainingMatches: 5},
				{ID: "drained", UserID: "u1", Status: StatusActive, RemainingMatches: 0},
			},
			wantID: "drained",
		},
		{
			name: "no active records",
			subs: []*Subscription{
				{ID: "expired", UserID: "u1", Status: StatusExpired, RemainingMatches: 0},
			},
			none: true,
		},
		{
			name: "no records at all",
			none: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newService(newFakeRepo(tt.subs...), &fakePlans{}, &fakeEnroller{}, &fakePayments{}, RepairPolicyRecompute)

			got, err := svc.SelectActive(context.Background(), "u1")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.none {
				if got != nil {
					t.Fatalf("expected nil, got %+v", got)
				}
				return
			}
			if got == nil || got.ID != tt.wantID {
				t.Fatalf("got %+v, want id %s", got, tt.wantID)
			}
		})
	}
}

func TestProvisionCreatesWhenNoActiveSubscription(t *testing.T) {
	repo := newFakeRepo()
	enroller := &fakeEnroller{}
	svc := newService(repo, &fakePlans{quotas: map[string]int{"gold": 10}}, enroller, &fakePayments{}, RepairPolicyRecompute)

	result, err := svc.Provision(context.Background(), "u1", "gold", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.QuotaGranted != 10 {
		t.Fatalf("got granted %d, want 10", result.QuotaGranted)
	}
	if len(repo.subs) != 1 {
		t.Fatalf("expected one subscription, got %d", len(repo.subs))
	}
	sub := repo.subs[0]
	if sub.MatchQuota != 10 || sub.RemainingMatches != 10 || sub.Status != StatusActive {
		t.Fatalf("unexpected subscription: %+v", sub)
	}
	if !result.RoundEnrolled || len(enroller.enrolled) != 1 {
		t.Fatal("expected round enrollment")
	}
}

func TestProvisionTopsUpExistingSubscription(t *testing.T) {
	repo := newFakeRepo(&Subscription{
		ID: "s1", UserID: "u1", Status: StatusActive,
		MatchQuota: 10, RemainingMatches: 4,
	})
	svc := newService(repo, &fakePlans{quotas: map[string]int{"gold": 10}}, &fakeEnroller{}, &fakePayments{}, RepairPolicyRecompute)

	// Two provisioning events, one per approved payment.
	for i := 0; i < 2; i++ {
		if _, err := svc.Provision(context.Background(), "u1", "gold", 0); err != nil {
			t.Fatalf("provision %d: %v", i, err)
		}
	}

	if len(repo.subs) != 1 {
		t.Fatalf("expected a single subscription, got %d", len(repo.subs))
	}
	sub := repo.subs[0]
	if sub.RemainingMatches != 24 {
		t.Fatalf("got remaining %d, want 24", sub.RemainingMatches)
	}
	if sub.MatchQuota != 30 {
		t.Fatalf("got total %d, want 30", sub.MatchQuota)
	}
}

func TestProvisionFailsFastOnUnresolvableQuota(t *testing.T) {
	repo := newFakeRepo()
	svc := newService(repo, &fakePlans{}, &fakeEnroller{}, &fakePayments{}, RepairPolicyRecompute)

	_, err := svc.Provision(context.Background(), "u1", "ghost", 0)
	if !errors.Is(err, core.ErrFailedPrecondition) {
		t.Fatalf("expected failed precondition, got %v", err)
	}
	if len(repo.subs) != 0 {
		t.Fatal("no subscription should be written when quota cannot resolve")
	}
}

func TestProvisionSurvivesEnrollmentFailure(t *testing.T) {
	repo := newFakeRepo()
	enroller := &fakeEnroller{err: errors.New("no seats left")}
	svc := newService(repo, &fakePlans{quotas: map[string]int{"gold": 10}}, enroller, &fakePayments{}, RepairPolicyRecompute)

	result, err := svc.Provision(context.Background(), "u1", "gold", 0)
	if err != nil {
		t.Fatalf("grant must not fail on enrollment error: %v", err)
	}
	if result.RoundEnrolled {
		t.Fatal("enrollment should be reported as failed")
	}
	if result.RoundEnrollError == "" {
		t.Fatal("enrollment error should surface on the result")
	}
	if len(repo.subs) != 1 || repo.subs[0].RemainingMatches != 10 {
		t.Fatal("quota grant must stand despite enrollment failure")
	}
}

func TestRepairRecompute(t *testing.T) {
	repo := newFakeRepo(&Subscription{
		ID: "s1", UserID: "u1", Status: StatusActive,
		MatchQuota: 2, RemainingMatches: 0,
	})
	payments := &fakePayments{byUser: map[string][]ApprovedPayment{
		"u1": {
			{PlanID: "basic", Quota: 2},
			{PlanID: "gold", Quota: 3},
		},
	}}
	svc := newService(repo, &fakePlans{}, &fakeEnroller{}, payments, RepairPolicyRecompute)

	result, err := svc.Repair(context.Background(), "u1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !result.Repaired || result.TotalQuota != 5 {
		t.Fatalf("got %+v, want repaired with total 5", result)
	}
	if repo.overwrites["s1"] != 5 {
		t.Fatalf("expected overwrite to 5, got %v", repo.overwrites)
	}
	if repo.subs[0].RemainingMatches != 5 || repo.subs[0].MatchQuota != 5 {
		t.Fatalf("ledger not reset: %+v", repo.subs[0])
	}
}

func TestRepairAdditive(t *testing.T) {
	tests := []struct {
		name          string
		existingTotal int
		wantRepaired  bool
		wantAdded     int
	}{
		{name: "tops up the shortfall", existingTotal: 3, wantRepaired: true, wantAdded: 2},
		{name: "already at entitlement", existingTotal: 5, wantRepaired: false},
		{name: "above entitlement", existingTotal: 8, wantRepaired: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newFakeRepo(&Subscription{
				ID: "s1", UserID: "u1", Status: StatusActive,
				MatchQuota: tt.existingTotal, RemainingMatches: 1,
			})
			payments := &fakePayments{byUser: map[string][]ApprovedPayment{
				"u1": {{Quota: 2}, {Quota: 3}},
			}}
			svc := newService(repo, &fakePlans{}, &fakeEnroller{}, payments, RepairPolicyAdditive)

			result, err := svc.Repair(context.Background(), "u1")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if result.Repaired != tt.wantRepaired {
				t.Fatalf("got repaired=%v, want %v", result.Repaired, tt.wantRepaired)
			}
			if repo.additions["s1"] != tt.wantAdded {
				t.Fatalf("got added %d, want %d", repo.additions["s1"], tt.wantAdded)
			}
		})
	}
}

func TestRepairCreatesWhenNoSubscription(t *testing.T) {
	repo := newFakeRepo()
	payments := &fakePayments{byUser: map[string][]ApprovedPayment{
		"u1": {{PlanID: "gold", Quota: 4}},
	}}
	svc := newService(repo, &fakePlans{}, &fakeEnroller{}, payments, RepairPolicyRecompute)

	result, err := svc.Repair(context.Background(), "u1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Repaired || result.TotalQuota != 4 {
		t.Fatalf("got %+v, want repaired total 4", result)
	}
	if len(repo.subs) != 1 || repo.subs[0].RemainingMatches != 4 {
		t.Fatalf("expected fresh subscription with 4 matches, got %+v", repo.subs)
	}
}

func TestRepairResolvesZeroQuotaViaPlan(t *testing.T) {
	repo := newFakeRepo()
	payments := &fakePayments{byUser: map[string][]ApprovedPayment{
		"u1": {
			{PlanID: "gold", Quota: 0},
			{PlanID: "", Quota: 2},
		},
	}}
	plans := &fakePlans{quotas: map[string]int{"gold": 10}}
	svc := newService(repo, plans, &fakeEnroller{}, payments, RepairPolicyRecompute)

	result, err := svc.Repair(context.Background(), "u1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.TotalQuota != 12 {
		t.Fatalf("got total %d, want 12", result.TotalQuota)
	}
}

func TestRepairNoApprovedPayments(t *testing.T) {
	svc := newService(newFakeRepo(), &fakePlans{}, &fakeEnroller{}, &fakePayments{}, RepairPolicyRecompute)

	result, err := svc.Repair(context.Background(), "u1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Repaired {
		t.Fatal("nothing to repair without approved payments")
	}
}

func TestRepairZeroTotalWritesNothing(t *testing.T) {
	repo := newFakeRepo()
	payments := &fakePayments{byUser: map[string][]ApprovedPayment{
		"u1": {{PlanID: "", Quota: 0}},
	}}
	svc := newService(repo, &fakePlans{}, &fakeEnroller{}, payments, RepairPolicyRecompute)

	result, err := svc.Repair(context.Background(), "u1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Repaired {
		t.Fatal("zero resolved quota must not repair")
	}
	if len(repo.subs) != 0 {
		t.Fatal("no subscription may be created")
	}
}

func TestRepairTreatsUnresolvablePlanAsZero(t *testing.T) {
	repo := newFakeRepo()
	payments := &fakePayments{byUser: map[string][]ApprovedPayment{
		"u1": {{PlanID: "bronze", Quota: 0}},
	}}
	svc := newService(repo, &fakePlans{}, &fakeEnroller{}, payments, RepairPolicyRecompute)

	result, err := svc.Repair(context.Background(), "u1")
	if err != nil {
		t.Fatalf("a payment on a zero-quota plan must not fail repair: %v", err)
	}
	if result.Repaired {
		t.Fatal("zero total must report a no-op")
	}
	if len(repo.subs) != 0 {
		t.Fatal("no subscription may be created")
	}
}

func TestRepairSumsPastUnresolvablePlans(t *testing.T) {
	repo := newFakeRepo()
	payments := &fakePayments{byUser: map[string][]ApprovedPayment{
		"u1": {
			{PlanID: "bronze", Quota: 0},
			{PlanID: "gold", Quota: 0},
		},
	}}
	plans := &fakePlans{quotas: map[string]int{"gold": 5}}
	svc := newService(repo, plans, &fakeEnroller{}, payments, RepairPolicyRecompute)

	result, err := svc.Repair(context.Background(), "u1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Repaired || result.TotalQuota != 5 {
		t.Fatalf("got repaired=%v total=%d, want the resolvable payment's 5", result.Repaired, result.TotalQuota)
	}
}
