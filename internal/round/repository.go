// AngelaMos | 2026
// repository.go

package round

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dateu/dateu-backend/internal/core"
)

type Repository interface {
	Create(ctx context.Context, round *Round) error
	GetByID(ctx context.Context, id string) (*Round, error)
	// GetActive returns the most recently activated active round, or
	// core.ErrNotFound when none is active.
	GetActive(ctx context.Context) (*Round, error)
	List(ctx context.Context) ([]Round, error)
	// ActivateExclusive activates one round and deactivates every other in a
	// single statement, so two rounds can never be active at once.
	ActivateExclusive(ctx context.Context, id string) error
	Deactivate(ctx context.Context, id string) error

	AddParticipant(ctx context.Context, roundID, userID, gender string) error
	RemoveParticipant(ctx context.Context, roundID, userID string) error
	// RemoveParticipantIn is RemoveParticipant on a caller-supplied
	// executor, so it can join an open transaction.
	RemoveParticipantIn(ctx context.Context, q core.DBTX, roundID, userID string) error
	IsParticipant(ctx context.Context, roundID, userID string) (bool, error)
	ListParticipants(
		ctx context.Context,
		roundID, gender string,
	) ([]string, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, round *Round) error {
	query := `
		INSERT INTO rounds (id, name, is_active)
		VALUES ($1, $2, false)
		RETURNING created_at, updated_at`

	err := r.db.GetContext(ctx, round, query, round.ID, round.Name)
	if err != nil {
		return fmt.Errorf("create round: %w", err)
	}

	return nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*Round, error) {
	query := `
		SELECT id, name, is_active, activated_at, created_at, updated_at
		FROM rounds
		WHERE id = $1`

	var round Round
	err := r.db.GetContext(ctx, &round, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get round: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get round: %w", err)
	}

	return &round, nil
}

func (r *repository) GetActive(ctx context.Context) (*Round, error) {
	query := `
		SELECT id, name, is_active, activated_at, created_at, updated_at
		FROM rounds
		WHERE is_active = true
		ORDER BY activated_at DESC NULLS LAST
		LIMIT 1`

	var round Round
	err := r.db.GetContext(ctx, &round, query)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get active round: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get active round: %w", err)
	}

	return &round, nil
}

func (r *repository) List(ctx context.Context) ([]Round, error) {
	query := `
		SELECT id, name, is_active, activated_at, created_at, updated_at
		FROM rounds
		ORDER BY created_at DESC`

	var rounds []Round
	if err := r.db.SelectContext(ctx, &rounds, query); err != nil {
		return nil, fmt.Errorf("list rounds: %w", err)
	}

	return rounds, nil
}

func (r *repository) ActivateExclusive(ctx context.Context, id string) error {
	query := `
		WITH deactivated AS (
			UPDATE rounds
			SET is_active = false, updated_at = NOW()
			WHERE is_active = true AND id <> $1
		)
		UPDATE rounds
		SET is_active = true, activated_at = NOW(), updated_at = NOW()
		WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("activate round: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("activate round: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("activate round: %w", core.ErrNotFound)
	}

	return nil
}

func (r *repository) Deactivate(ctx context.Context, id string) error {
	query := `
		UPDATE rounds
		SET is_active = false, updated_at = NOW()
		WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("deactivate round: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("deactivate round: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("deactivate round: %w", core.ErrNotFound)
	}

	return nil
}

// AddParticipant is idempotent: enrolling an already-enrolled user is a no-op,
// matching set-union semantics on the participant list.
func (r *repository) AddParticipant(
	ctx context.Context,
	roundID, userID, gender string,
) error {
	query := `
		INSERT INTO round_participants (round_id, user_id, gender)
		VALUES ($1, $2, $3)
		ON CONFLICT (round_id, user_id) DO NOTHING`

	if _, err := r.db.ExecContext(ctx, query, roundID, userID, gender); err != nil {
		return fmt.Errorf("add participant: %w", err)
	}

	return nil
}

func (r *repository) RemoveParticipant(
	ctx context.Context,
	roundID, userID string,
) error {
	return r.RemoveParticipantIn(ctx, r.db, roundID, userID)
}

func (r *repository) RemoveParticipantIn(
	ctx context.Context,
	q core.DBTX,
	roundID, userID string,
) error {
	query := `
		DELETE FROM round_participants
		WHERE round_id = $1 AND user_id = $2`

	if _, err := q.ExecContext(ctx, query, roundID, userID); err != nil {
		return fmt.Errorf("remove participant: %w", err)
	}

	return nil
}

func (r *repository) IsParticipant(
	ctx context.Context,
	roundID, userID string,
) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM round_participants
			WHERE round_id = $1 AND user_id = $2
		)`

	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, roundID, userID); err != nil {
		return false, fmt.Errorf("check participant: %w", err)
	}

	return exists, nil
}

func (r *repository) ListParticipants(
	ctx context.Context,
	roundID, gender string,
) ([]string, error) {
	query := `
		SELECT user_id FROM round_participants
		WHERE round_id = $1`

	args := []any{roundID}
	if gender != "" {
		query += ` AND gender = $2`
		args = append(args, gender)
	}
	query += ` ORDER BY created_at ASC`

	var ids []string
	if err := r.db.SelectContext(ctx, &ids, query, args...); err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}

	return ids, nil
}
