// AngelaMos | 2026
// service_test.go

package match

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/jmoiron/sqlx"

	"github.com/dateu/dateu-backend/internal/core"
	"github.com/dateu/dateu-backend/internal/round"
	"github.com/dateu/dateu-backend/internal/subscription"
	"github.com/dateu/dateu-backend/internal/user"
)

type fakeTx struct {
	calls int
}

func (f *fakeTx) InTx(_ context.Context, fn func(tx *sqlx.Tx) error) error {
	f.calls++
	return fn(nil)
}

type fakeLedger struct {
	sub      *subscription.Subscription
	consumed int
}

func (f *fakeLedger) GetActiveForUpdate(_ context.Context, _ core.DBTX, userID string) (*subscription.Subscription, error) {
	if f.sub == nil || f.sub.UserID != userID || !f.sub.IsActive() {
		return nil, core.ErrNotFound
	}
	cp := *f.sub
	return &cp, nil
}

func (f *fakeLedger) ConsumeMatch(_ context.Context, _ core.DBTX, id string) (*subscription.Subscription, error) {
	if f.sub == nil || f.sub.ID != id {
		return nil, core.ErrNotFound
	}
	f.sub.RemainingMatches--
	f.consumed++
	if f.sub.RemainingMatches <= 0 {
		f.sub.Status = subscription.StatusExpired
	}
	cp := *f.sub
	return &cp, nil
}

func (f *fakeLedger) SelectActive(_ context.Context, userID string) (*subscription.Subscription, error) {
	if f.sub == nil || f.sub.UserID != userID || !f.sub.IsActive() {
		return nil, nil
	}
	cp := *f.sub
	return &cp, nil
}

type fakeRounds struct {
	round        *round.Round
	participants map[string]bool
	removed      []string
}

func (f *fakeRounds) GetByID(_ context.Context, id string) (*round.Round, error) {
	if f.round == nil || f.round.ID != id {
		return nil, core.ErrNotFound
	}
	return f.round, nil
}

func (f *fakeRounds) IsParticipant(_ context.Context, _, userID string) (bool, error) {
	return f.participants[userID], nil
}

func (f *fakeRounds) RemoveParticipantIn(_ context.Context, _ core.DBTX, _, userID string) error {
	delete(f.participants, userID)
	f.removed = append(f.removed, userID)
	return nil
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

type fakeMatchRepo struct {
	likes   map[string]bool
	matches map[string]*Match
}

func newFakeMatchRepo() *fakeMatchRepo {
	return &fakeMatchRepo{
		likes:   map[string]bool{},
		matches: map[string]*Match{},
	}
}

func likeKey(roundID, actorID, targetID string) string {
	return roundID + "/" + actorID + "/" + targetID
}

func matchKey(roundID, boyID, girlID string) string {
	return roundID + "/" + boyID + "/" + girlID
}

func (f *fakeMatchRepo) CreateLike(_ context.Context, l *Like) error {
	f.likes[likeKey(l.RoundID, l.ActorID, l.TargetID)] = true
	return nil
}

func (f *fakeMatchRepo) LikeExists(_ context.Context, roundID, actorID, targetID string) (bool, error) {
	return f.likes[likeKey(roundID, actorID, targetID)], nil
}

func (f *fakeMatchRepo) ListLikesReceived(_ context.Context, _, _ string) ([]Like, error) {
	return nil, nil
}

func (f *fakeMatchRepo) GetMatchIn(_ context.Context, _ core.DBTX, roundID, boyID, girlID string) (*Match, error) {
	m, ok := f.matches[matchKey(roundID, boyID, girlID)]
	if !ok {
		return nil, core.ErrNotFound
	}
	return m, nil
}

func (f *fakeMatchRepo) CreateMatchIn(_ context.Context, _ core.DBTX, m *Match) error {
	f.matches[matchKey(m.RoundID, m.BoyID, m.GirlID)] = m
	return nil
}

func (f *fakeMatchRepo) ListMatchesByUser(_ context.Context, userID, roundID string) ([]Match, error) {
	out := []Match{}
	for _, m := range f.matches {
		if m.BoyID != userID && m.GirlID != userID {
			continue
		}
		if roundID != "" && m.RoundID != roundID {
			continue
		}
		out = append(out, *m)
	}
	return out, nil
}

type fixture struct {
	svc    *Service
	repo   *fakeMatchRepo
	ledger *fakeLedger
	rounds *fakeRounds
}

func newFixture(remaining int) *fixture {
	repo := newFakeMatchRepo()
	ledger := &fakeLedger{sub: &subscription.Subscription{
		ID: "s1", UserID: "boy", Status: subscription.StatusActive,
		MatchQuota: 10, RemainingMatches: remaining,
	}}
	rounds := &fakeRounds{
		round:        &round.Round{ID: "r1", Name: "Week 1", IsActive: true},
		participants: map[string]bool{"boy": true, "girl": true},
	}
	users := &fakeUsers{users: map[string]*user.User{
		"boy":  {ID: "boy", Gender: user.GenderMale},
		"girl": {ID: "girl", Gender: user.GenderFemale},
		"boy2": {ID: "boy2", Gender: user.GenderMale},
	}}

	svc := NewService(repo, &fakeTx{}, ledger, ledger, rounds, users, slog.Default())
	return &fixture{svc: svc, repo: repo, ledger: ledger, rounds: rounds}
}

func (fx *fixture) girlLikesBoy() {
	fx.repo.likes[likeKey("r1", "girl", "boy")] = true
}

func TestConfirmRequiresLike(t *testing.T) {
	fx := newFixture(5)

	_, err := fx.svc.ConfirmMatch(context.Background(), "boy", ConfirmMatchRequest{
		RoundID: "r1", GirlUID: "girl",
	})
	if err == nil {
		t.Fatal("confirm without a like must fail")
	}
	var appErr *core.AppError
	if !errors.As(err, &appErr) || appErr.Code != "FAILED_PRECONDITION" {
		t.Fatalf("expected failed precondition, got %v", err)
	}
	if len(fx.repo.matches) != 0 {
		t.Fatal("no match may be written")
	}
}

func TestConfirmWithZeroQuotaIsRejected(t *testing.T) {
	fx := newFixture(0)
	fx.girlLikesBoy()

	_, err := fx.svc.ConfirmMatch(context.Background(), "boy", ConfirmMatchRequest{
		RoundID: "r1", GirlUID: "girl",
	})
	if err == nil {
		t.Fatal("confirm with zero quota must fail")
	}
	if len(fx.repo.matches) != 0 || fx.ledger.consumed != 0 {
		t.Fatal("nothing may be written when quota is exhausted")
	}
}

func TestConfirmSpendsOneUnit(t *testing.T) {
	fx := newFixture(5)
	fx.girlLikesBoy()

	result, err := fx.svc.ConfirmMatch(context.Background(), "boy", ConfirmMatchRequest{
		RoundID: "r1", GirlUID: "girl",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.AlreadyConfirmed {
		t.Fatal("first confirm must not report a replay")
	}
	if result.RemainingMatches != 4 {
		t.Fatalf("got remaining %d, want 4", result.RemainingMatches)
	}
	if fx.ledger.sub.Status != subscription.StatusActive {
		t.Fatal("subscription must stay active above zero")
	}
	if len(fx.rounds.removed) != 0 {
		t.Fatal("participant must not be removed above zero")
	}
}

func TestConfirmIsIdempotent(t *testing.T) {
	fx := newFixture(5)
	fx.girlLikesBoy()

	req := ConfirmMatchRequest{RoundID: "r1", GirlUID: "girl"}
	first, err := fx.svc.ConfirmMatch(context.Background(), "boy", req)
	if err != nil {
		t.Fatalf("first confirm: %v", err)
	}
	second, err := fx.svc.ConfirmMatch(context.Background(), "boy", req)
	if err != nil {
		t.Fatalf("second confirm: %v", err)
	}

	if !second.AlreadyConfirmed {
		t.Fatal("replay must report the existing match")
	}
	if second.Match.ID != first.Match.ID {
		t.Fatal("replay must return the same match")
	}
	if fx.ledger.consumed != 1 {
		t.Fatalf("quota spent %d times, want 1", fx.ledger.consumed)
	}
}

func TestConfirmAtBoundaryExpiresAndRemovesParticipant(t *testing.T) {
	fx := newFixture(1)
	fx.girlLikesBoy()

	result, err := fx.svc.ConfirmMatch(context.Background(), "boy", ConfirmMatchRequest{
		RoundID: "r1", GirlUID: "girl",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.RemainingMatches != 0 {
		t.Fatalf("got remaining %d, want 0", result.RemainingMatches)
	}
	if fx.ledger.sub.Status != subscription.StatusExpired {
		t.Fatal("subscription must expire at zero")
	}
	if len(fx.rounds.removed) != 1 || fx.rounds.removed[0] != "boy" {
		t.Fatalf("boy must leave the round at zero, removed=%v", fx.rounds.removed)
	}
}

// staleSelector reports quota that a concurrent confirm has already
// spent, so only the in-transaction guard can catch it.
type staleSelector struct{}

func (staleSelector) SelectActive(_ context.Context, userID string) (*subscription.Subscription, error) {
	return &subscription.Subscription{
		ID: "s1", UserID: userID, Status: subscription.StatusActive,
		MatchQuota: 10, RemainingMatches: 1,
	}, nil
}

func TestConfirmAuthoritativeGuardUnderLock(t *testing.T) {
	// The advisory read passes but the locked row shows the quota is
	// already gone, as after losing a race to a concurrent confirm.
	// The winning concurrent request has already burned the last unit;
	// the row is still active but holds nothing.
	fx := newFixture(0)
	fx.girlLikesBoy()

	users := &fakeUsers{users: map[string]*user.User{
		"boy":  {ID: "boy", Gender: user.GenderMale},
		"girl": {ID: "girl", Gender: user.GenderFemale},
	}}
	svc := NewService(fx.repo, &fakeTx{}, fx.ledger, staleSelector{}, fx.rounds, users, slog.Default())

	_, err := svc.ConfirmMatch(context.Background(), "boy", ConfirmMatchRequest{
		RoundID: "r1", GirlUID: "girl",
	})
	if err == nil {
		t.Fatal("loser of the race must fail the in-transaction guard")
	}
	if len(fx.repo.matches) != 0 {
		t.Fatal("loser must not write a match")
	}
	if fx.ledger.consumed != 0 {
		t.Fatal("loser must not spend quota")
	}
}

func TestConfirmOnlyForMales(t *testing.T) {
	fx := newFixture(5)

	_, err := fx.svc.ConfirmMatch(context.Background(), "girl", ConfirmMatchRequest{
		RoundID: "r1", GirlUID: "boy",
	})
	if err == nil {
		t.Fatal("a female caller must not confirm")
	}
	var appErr *core.AppError
	if !errors.As(err, &appErr) || appErr.Code != "PERMISSION_DENIED" {
		t.Fatalf("expected permission denied, got %v", err)
	}
}

func TestPromoteSkipsLikeButSpendsQuota(t *testing.T) {
	fx := newFixture(2)

	result, err := fx.svc.Promote(context.Background(), PromoteMatchRequest{
		RoundID: "r1", BoyUID: "boy", GirlUID: "girl",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.RemainingMatches != 1 {
		t.Fatalf("got remaining %d, want 1", result.RemainingMatches)
	}
	if fx.ledger.consumed != 1 {
		t.Fatal("promote must spend the boy's quota")
	}
}

func TestCreateLike(t *testing.T) {
	tests := []struct {
		name    string
		actor   string
		target  string
		inRound map[string]bool
		active  bool
		wantErr bool
	}{
		{
			name: "girl likes boy", actor: "girl", target: "boy",
			inRound: map[string]bool{"girl": true, "boy": true}, active: true,
		},
		{
			name: "same gender rejected", actor: "boy2", target: "boy",
			inRound: map[string]bool{"boy2": true, "boy": true}, active: true,
			wantErr: true,
		},
		{
			name: "self like rejected", actor: "girl", target: "girl",
			inRound: map[string]bool{"girl": true}, active: true,
			wantErr: true,
		},
		{
			name: "target not in round", actor: "girl", target: "boy",
			inRound: map[string]bool{"girl": true}, active: true,
			wantErr: true,
		},
		{
			name: "inactive round", actor: "girl", target: "boy",
			inRound: map[string]bool{"girl": true, "boy": true}, active: false,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fx := newFixture(5)
			fx.rounds.participants = tt.inRound
			fx.rounds.round.IsActive = tt.active

			_, err := fx.svc.CreateLike(context.Background(), tt.actor, "r1", tt.target)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !fx.repo.likes[likeKey("r1", tt.actor, tt.target)] {
				t.Fatal("like not recorded")
			}
		})
	}
}
