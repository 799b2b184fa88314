// AngelaMos | 2026
// service.go

package match

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/dateu/dateu-backend/internal/core"
	"github.com/dateu/dateu-backend/internal/round"
	"github.com/dateu/dateu-backend/internal/subscription"
	"github.com/dateu/dateu-backend/internal/user"
)

// TxRunner runs a function inside a database transaction. *core.Database
// satisfies it.
type TxRunner interface {
	InTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error
}

// Ledger is the transactional slice of the subscription repository the
// confirmation flow needs: lock, then burn.
type Ledger interface {
	GetActiveForUpdate(ctx context.Context, q core.DBTX, userID string) (*subscription.Subscription, error)
	ConsumeMatch(ctx context.Context, q core.DBTX, id string) (*subscription.Subscription, error)
}

// QuotaSelector gives the advisory pre-check a cheap read of the boy's
// grant target before the row lock is taken.
type QuotaSelector interface {
	SelectActive(ctx context.Context, userID string) (*subscription.Subscription, error)
}

// Rounds is the slice of the round repository used for participant
// checks and in-transaction removal.
type Rounds interface {
	GetByID(ctx context.Context, id string) (*round.Round, error)
	IsParticipant(ctx context.Context, roundID, userID string) (bool, error)
	RemoveParticipantIn(ctx context.Context, q core.DBTX, roundID, userID string) error
}

// UserDirectory resolves user records for gender checks.
type UserDirectory interface {
	GetUser(ctx context.Context, id string) (*user.User, error)
}

type Service struct {
	repo     Repository
	tx       TxRunner
	ledger   Ledger
	selector QuotaSelector
	rounds   Rounds
	users    UserDirectory
	logger   *slog.Logger
}

func NewService(
	repo Repository,
	tx TxRunner,
	ledger Ledger,
	selector QuotaSelector,
	rounds Rounds,
	users UserDirectory,
	logger *slog.Logger,
) *Service {
	return &Service{
		repo:     repo,
		tx:       tx,
		ledger:   ledger,
		selector: selector,
		rounds:   rounds,
		users:    users,
		logger:   logger,
	}
}

// CreateLike records that the caller likes another participant of the
// same round. Re-liking is a no-op.
func (s *Service) CreateLike(ctx context.Context, actorID, roundID, targetID string) (*Like, error) {
	if actorID == targetID {
		return nil, core.FailedPreconditionError("cannot like yourself")
	}

	r, err := s.rounds.GetByID(ctx, roundID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, core.NotFoundError("round not found")
		}
		return nil, err
	}
	if !r.IsActive {
		return nil, core.FailedPreconditionError("round is not active")
	}

	for _, id := range []string{actorID, targetID} {
		in, err := s.rounds.IsParticipant(ctx, roundID, id)
		if err != nil {
			return nil, err
		}
		if !in {
			return nil, core.FailedPreconditionError("both users must be participants of the round")
		}
	}

	actor, err := s.users.GetUser(ctx, actorID)
	if err != nil {
		return nil, err
	}
	target, err := s.users.GetUser(ctx, targetID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, core.NotFoundError("target user not found")
		}
		return nil, err
	}
	if !actor.HasGender() || !target.HasGender() || actor.Gender == target.Gender {
		return nil, core.FailedPreconditionError("likes must go to a participant of the opposite gender")
	}

	like := &Like{
		ID:       uuid.New().String(),
		RoundID:  roundID,
		ActorID:  actorID,
		TargetID: targetID,
	}
	if err := s.repo.CreateLike(ctx, like); err != nil {
		return nil, err
	}
	return like, nil
}

// LikesReceived lists the likes pointing at the caller within a round.
func (s *Service) LikesReceived(ctx context.Context, roundID, userID string) ([]Like, error) {
	return s.repo.ListLikesReceived(ctx, roundID, userID)
}

// MyMatches lists the matches the user is part of, newest first,
// optionally scoped to one round.
func (s *Service) MyMatches(ctx context.Context, userID, roundID string) ([]Match, error) {
	return s.repo.ListMatchesByUser(ctx, userID, roundID)
}

// ConfirmMatch lets a boy confirm a girl who liked him, spending one
// unit of his match quota. Replaying a confirmation returns the existing
// match without spending anything.
func (s *Service) ConfirmMatch(ctx context.Context, boyID string, req ConfirmMatchRequest) (*ConfirmResult, error) {
	boy, err := s.users.GetUser(ctx, boyID)
	if err != nil {
		return nil, err
	}
	if boy.Gender != user.GenderMale {
		return nil, core.ForbiddenError("only male participants confirm matches")
	}

	girl, err := s.users.GetUser(ctx, req.GirlUID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, core.NotFoundError("user not found")
		}
		return nil, err
	}
	if girl.Gender != user.GenderFemale {
		return nil, core.FailedPreconditionError("selected user is not a female participant")
	}

	liked, err := s.repo.LikeExists(ctx, req.RoundID, req.GirlUID, boyID)
	if err != nil {
		return nil, err
	}
	if !liked {
		return nil, core.FailedPreconditionError("this user has not liked you in this round")
	}

	// Advisory read before taking the row lock. The authoritative check
	// happens again inside the transaction.
	sub, err := s.selector.SelectActive(ctx, boyID)
	if err != nil {
		return nil, err
	}
	if sub == nil || !sub.HasRemaining() {
		return nil, core.FailedPreconditionError("no remaining matches, purchase a plan to continue")
	}

	return s.confirmTx(ctx, req.RoundID, boyID, req.GirlUID)
}

// Promote creates a match on behalf of a pair without requiring a like,
// but still spends the boy's quota through the same transaction.
func (s *Service) Promote(ctx context.Context, req PromoteMatchRequest) (*ConfirmResult, error) {
	boy, err := s.users.GetUser(ctx, req.BoyUID)
	if err != nil {
		return nil, err
	}
	if boy.Gender != user.GenderMale {
		return nil, core.FailedPreconditionError("boyUid must refer to a male user")
	}

	girl, err := s.users.GetUser(ctx, req.GirlUID)
	if err != nil {
		return nil, err
	}
	if girl.Gender != user.GenderFemale {
		return nil, core.FailedPreconditionError("girlUid must refer to a female user")
	}

	return s.confirmTx(ctx, req.RoundID, req.BoyUID, req.GirlUID)
}

// confirmTx is the transactional core shared by confirm and promote:
// lock the boy's subscription, re-check everything under the lock, and
// only then write.
func (s *Service) confirmTx(ctx context.Context, roundID, boyID, girlID string) (*ConfirmResult, error) {
	var result *ConfirmResult

	err := s.tx.InTx(ctx, func(tx *sqlx.Tx) error {
		sub, err := s.ledger.GetActiveForUpdate(ctx, tx, boyID)
		if err != nil {
			if errors.Is(err, core.ErrNotFound) {
				return core.FailedPreconditionError("no active subscription")
			}
			return err
		}

		existing, err := s.repo.GetMatchIn(ctx, tx, roundID, boyID, girlID)
		if err == nil {
			result = &ConfirmResult{
				Match:            ToMatchResponse(existing),
				AlreadyConfirmed: true,
				RemainingMatches: sub.RemainingMatches,
			}
			return nil
		}
		if !errors.Is(err, core.ErrNotFound) {
			return err
		}

		if !sub.HasRemaining() {
			return core.FailedPreconditionError("no remaining matches, purchase a plan to continue")
		}

		m := &Match{
			ID:      uuid.New().String(),
			RoundID: roundID,
			BoyID:   boyID,
			GirlID:  girlID,
			Status:  StatusConfirmed,
		}
		if err := s.repo.CreateMatchIn(ctx, tx, m); err != nil {
			return err
		}

		updated, err := s.ledger.ConsumeMatch(ctx, tx, sub.ID)
		if err != nil {
			return err
		}
		if updated.RemainingMatches <= 0 {
			if err := s.rounds.RemoveParticipantIn(ctx, tx, roundID, boyID); err != nil {
				return err
			}
		}

		result = &ConfirmResult{
			Match:            ToMatchResponse(m),
			AlreadyConfirmed: false,
			RemainingMatches: updated.RemainingMatches,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("match recorded",
		"round_id", roundID,
		"boy_id", boyID,
		"girl_id", girlID,
		"already_confirmed", result.AlreadyConfirmed,
		"remaining", result.RemainingMatches)

	return result, nil
}
