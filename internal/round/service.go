// AngelaMos | 2026
// service.go

package round

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/dateu/dateu-backend/internal/core"
	"github.com/dateu/dateu-backend/internal/user"
)

// UserDirectory is the slice of the user service round enrollment needs.
type UserDirectory interface {
	GetUser(ctx context.Context, id string) (*user.User, error)
}

type Service struct {
	repo  Repository
	users UserDirectory
}

func NewService(repo Repository, users UserDirectory) *Service {
	return &Service{repo: repo, users: users}
}

func (s *Service) CreateRound(
	ctx context.Context,
	req CreateRoundRequest,
) (*Round, error) {
	round := &Round{
		ID:   uuid.New().String(),
		Name: req.Name,
	}

	if err := s.repo.Create(ctx, round); err != nil {
		return nil, err
	}

	return round, nil
}

func (s *Service) ActivateRound(ctx context.Context, id string) error {
	return s.repo.ActivateExclusive(ctx, id)
}

func (s *Service) DeactivateRound(ctx context.Context, id string) error {
	return s.repo.Deactivate(ctx, id)
}

func (s *Service) ListRounds(ctx context.Context) ([]Round, error) {
	return s.repo.List(ctx)
}

// ActiveRound returns the single active round, or nil when none is active.
func (s *Service) ActiveRound(ctx context.Context) (*Round, error) {
	round, err := s.repo.GetActive(ctx)
	if errors.Is(err, core.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return round, nil
}

func (s *Service) GetRoundDetail(
	ctx context.Context,
	id string,
) (*RoundDetailResponse, error) {
	round, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	males, err := s.repo.ListParticipants(ctx, id, user.GenderMale)
	if err != nil {
		return nil, err
	}

	females, err := s.repo.ListParticipants(ctx, id, user.GenderFemale)
	if err != nil {
		return nil, err
	}

	if males == nil {
		males = []string{}
	}
	if females == nil {
		females = []string{}
	}

	return &RoundDetailResponse{
		RoundResponse:        ToRoundResponse(round),
		ParticipatingMales:   males,
		ParticipatingFemales: females,
	}, nil
}

// JoinRound enrolls the caller in roundID. The round must be the currently
// active one and the caller's gender must be set; enrolling twice is a no-op.
func (s *Service) JoinRound(
	ctx context.Context,
	roundID, userID string,
) error {
	round, err := s.repo.GetByID(ctx, roundID)
	if err != nil {
		return err
	}

	if !round.IsActive {
		return fmt.Errorf(
			"join round: round is not active: %w",
			core.ErrFailedPrecondition,
		)
	}

	u, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return err
	}

	if !u.HasGender() {
		return fmt.Errorf(
			"join round: gender not set on profile: %w",
			core.ErrFailedPrecondition,
		)
	}

	return s.repo.AddParticipant(ctx, roundID, userID, u.Gender)
}

// Enroll adds userID to the active round if one exists. Used by subscription
// provisioning as a best-effort step; reports whether enrollment happened.
func (s *Service) Enroll(ctx context.Context, userID string) (bool, error) {
	round, err := s.ActiveRound(ctx)
	if err != nil {
		return false, err
	}
	if round == nil {
		return false, nil
	}

	u, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return false, err
	}

	if !u.HasGender() {
		return false, fmt.Errorf(
			"enroll: gender not set on profile: %w",
			core.ErrFailedPrecondition,
		)
	}

	if err := s.repo.AddParticipant(ctx, round.ID, userID, u.Gender); err != nil {
		return false, err
	}

	return true, nil
}
