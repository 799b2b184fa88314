// AngelaMos | 2026
// service_test.go

package round

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dateu/dateu-backend/internal/core"
	"github.com/dateu/dateu-backend/internal/user"
)

type fakeRepo struct {
	rounds       map[string]*Round
	participants map[string]string // roundID/userID -> gender
	addCalls     int
}

func newFakeRepo(rounds ...*Round) *fakeRepo {
	m := make(map[string]*Round, len(rounds))
	for _, r := range rounds {
		m[r.ID] = r
	}
	return &fakeRepo{rounds: m, participants: map[string]string{}}
}

func (f *fakeRepo) Create(_ context.Context, r *Round) error {
	f.rounds[r.ID] = r
	return nil
}

func (f *fakeRepo) GetByID(_ context.Context, id string) (*Round, error) {
	r, ok := f.rounds[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	return r, nil
}

func (f *fakeRepo) GetActive(_ context.Context) (*Round, error) {
	for _, r := range f.rounds {
		if r.IsActive {
			return r, nil
		}
	}
	return nil, core.ErrNotFound
}

func (f *fakeRepo) List(_ context.Context) ([]Round, error) {
	out := []Round{}
	for _, r := range f.rounds {
		out = append(out, *r)
	}
	return out, nil
}

func (f *fakeRepo) ActivateExclusive(_ context.Context, id string) error {
	target, ok := f.rounds[id]
	if !ok {
		return core.ErrNotFound
	}
	for _, r := range f.rounds {
		r.IsActive = false
	}
	target.IsActive = true
	now := time.Now()
	target.ActivatedAt = &now
	return nil
}

func (f *fakeRepo) Deactivate(_ context.Context, id string) error {
	r, ok := f.rounds[id]
	if !ok {
		return core.ErrNotFound
	}
	r.IsActive = false
	return nil
}

func (f *fakeRepo) AddParticipant(_ context.Context, roundID, userID, gender string) error {
	f.addCalls++
	f.participants[roundID+"/"+userID] = gender
	return nil
}

func (f *fakeRepo) RemoveParticipant(_ context.Context, roundID, userID string) error {
	delete(f.participants, roundID+"/"+userID)
	return nil
}

func (f *fakeRepo) RemoveParticipantIn(_ context.Context, _ core.DBTX, roundID, userID string) error {
	delete(f.participants, roundID+"/"+userID)
	return nil
}

func (f *fakeRepo) IsParticipant(_ context.Context, roundID, userID string) (bool, error) {
	_, ok := f.participants[roundID+"/"+userID]
	return ok, nil
}

func (f *fakeRepo) ListParticipants(_ context.Context, roundID, gender string) ([]string, error) {
	out := []string{}
	for key, g := range f.participants {
		if g == gender && len(key) > len(roundID) && key[:len(roundID)] == roundID {
			out = append(out, key[len(roundID)+1:])
		}
	}
	return out, nil
}

type fakeUsers struct {
	users map[string]*user.User
}

func (f *fakeUsers) GetUser(_ context.Context, id string) (*user.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	return u, nil
}

func TestJoinRound(t *testing.T) {
	tests := []struct {
		name    string
		active  bool
		gender  string
		wantErr bool
	}{
		{name: "active round with gender", active: true, gender: user.GenderFemale},
		{name: "inactive round", active: false, gender: user.GenderFemale, wantErr: true},
		{name: "gender unset", active: true, gender: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newFakeRepo(&Round{ID: "r1", Name: "Week 1", IsActive: tt.active})
			users := &fakeUsers{users: map[string]*user.User{
				"u1": {ID: "u1", Gender: tt.gender},
			}}
			svc := NewService(repo, users)

			err := svc.JoinRound(context.Background(), "r1", "u1")
			if tt.wantErr {
				if !errors.Is(err, core.ErrFailedPrecondition) {
					t.Fatalf("expected failed precondition, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if repo.participants["r1/u1"] != tt.gender {
				t.Fatal("participant not recorded with gender")
			}
		})
	}
}

func TestJoinRoundTwiceIsIdempotent(t *testing.T) {
	repo := newFakeRepo(&Round{ID: "r1", IsActive: true})
	users := &fakeUsers{users: map[string]*user.User{
		"u1": {ID: "u1", Gender: user.GenderMale},
	}}
	svc := NewService(repo, users)

	for i := 0; i < 2; i++ {
		if err := svc.JoinRound(context.Background(), "r1", "u1"); err != nil {
			t.Fatalf("join %d: %v", i, err)
		}
	}
	if len(repo.participants) != 1 {
		t.Fatalf("expected one membership, got %d", len(repo.participants))
	}
}

func TestEnroll(t *testing.T) {
	t.Run("no active round reports not enrolled", func(t *testing.T) {
		repo := newFakeRepo(&Round{ID: "r1", IsActive: false})
		svc := NewService(repo, &fakeUsers{users: map[string]*user.User{
			"u1": {ID: "u1", Gender: user.GenderMale},
		}})

		enrolled, err := svc.Enroll(context.Background(), "u1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if enrolled {
			t.Fatal("cannot enroll without an active round")
		}
	})

	t.Run("active round enrolls", func(t *testing.T) {
		repo := newFakeRepo(&Round{ID: "r1", IsActive: true})
		svc := NewService(repo, &fakeUsers{users: map[string]*user.User{
			"u1": {ID: "u1", Gender: user.GenderFemale},
		}})

		enrolled, err := svc.Enroll(context.Background(), "u1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !enrolled || repo.participants["r1/u1"] != user.GenderFemale {
			t.Fatal("expected enrollment in active round")
		}
	})

	t.Run("gender unset fails", func(t *testing.T) {
		repo := newFakeRepo(&Round{ID: "r1", IsActive: true})
		svc := NewService(repo, &fakeUsers{users: map[string]*user.User{
			"u1": {ID: "u1"},
		}})

		_, err := svc.Enroll(context.Background(), "u1")
		if !errors.Is(err, core.ErrFailedPrecondition) {
			t.Fatalf("expected failed precondition, got %v", err)
		}
	})
}

func TestActivateExclusive(t *testing.T) {
	repo := newFakeRepo(
		&Round{ID: "r1", IsActive: true},
		&Round{ID: "r2", IsActive: false},
	)
	svc := NewService(repo, &fakeUsers{})

	if err := svc.ActivateRound(context.Background(), "r2"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	active := 0
	for _, r := range repo.rounds {
		if r.IsActive {
			active++
			if r.ID != "r2" {
				t.Fatalf("wrong round active: %s", r.ID)
			}
		}
	}
	if active != 1 {
		t.Fatalf("expected exactly one active round, got %d", active)
	}
}
