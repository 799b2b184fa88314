// AngelaMos | 2026
// service_test.go

package plan

import (
	"context"
	"errors"
	"testing"

	"github.com/dateu/dateu-backend/internal/core"
)

type fakeRepo struct {
	plans map[string]*Plan
}

func newFakeRepo(plans ...*Plan) *fakeRepo {
	m := make(map[string]*Plan, len(plans))
	for _, p := range plans {
		m[p.ID] = p
	}
	return &fakeRepo{plans: m}
}

func (f *fakeRepo) Create(_ context.Context, p *Plan) error {
	f.plans[p.ID] = p
	return nil
}

func (f *fakeRepo) GetByID(_ context.Context, id string) (*Plan, error) {
	p, ok := f.plans[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakeRepo) Update(_ context.Context, p *Plan) error {
	if _, ok := f.plans[p.ID]; !ok {
		return core.ErrNotFound
	}
	f.plans[p.ID] = p
	return nil
}

func (f *fakeRepo) List(_ context.Context, activeOnly bool) ([]Plan, error) {
	var out []Plan
	for _, p := range f.plans {
		if activeOnly && !p.Active {
			continue
		}
		out = append(out, *p)
	}
	return out, nil
}

func TestResolveQuota(t *testing.T) {
	repo := newFakeRepo(
		&Plan{ID: "gold", MatchQuota: 10, Active: true},
		&Plan{ID: "legacy", LegacyQuota: 5, Active: true},
		&Plan{ID: "broken", Active: true},
	)
	svc := NewService(repo)

	tests := []struct {
		name     string
		planID   string
		fallback int
		want     int
		wantErr  bool
	}{
		{name: "plan quota wins", planID: "gold", fallback: 3, want: 10},
		{name: "legacy quota column", planID: "legacy", fallback: 0, want: 5},
		{name: "zero quota plan uses fallback", planID: "broken", fallback: 7, want: 7},
		{name: "missing plan uses fallback", planID: "gone", fallback: 4, want: 4},
		{name: "empty plan id uses fallback", planID: "", fallback: 2, want: 2},
		{name: "nothing resolves", planID: "broken", fallback: 0, wantErr: true},
		{name: "missing plan no fallback", planID: "gone", fallback: 0, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.ResolveQuota(context.Background(), tt.planID, tt.fallback)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				if !errors.Is(err, core.ErrFailedPrecondition) {
					t.Fatalf("expected failed precondition, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("got quota %d, want %d", got, tt.want)
			}
		})
	}
}

func TestUpdatePlanDoesNotTouchMissingFields(t *testing.T) {
	repo := newFakeRepo(&Plan{
		ID:         "gold",
		Name:       "Gold",
		PricePaise: 49900,
		MatchQuota: 10,
		Active:     true,
	})
	svc := NewService(repo)

	newQuota := 15
	updated, err := svc.UpdatePlan(context.Background(), "gold", UpdatePlanRequest{
		MatchQuota: &newQuota,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if updated.MatchQuota != 15 {
		t.Fatalf("got quota %d, want 15", updated.MatchQuota)
	}
	if updated.Name != "Gold" || updated.PricePaise != 49900 || !updated.Active {
		t.Fatalf("unrelated fields changed: %+v", updated)
	}
}
