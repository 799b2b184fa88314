// AngelaMos | 2026
// service.go

package user

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/dateu/dateu-backend/internal/auth"
	"github.com/dateu/dateu-backend/internal/core"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) GetByID(
	ctx context.Context,
	id string,
) (*auth.UserInfo, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	return toUserInfo(user), nil
}

func (s *Service) GetByEmail(
	ctx context.Context,
	email string,
) (*auth.UserInfo, error) {
	user, err := s.repo.GetByEmail(ctx, strings.ToLower(email))
	if err != nil {
		return nil, err
	}

	return toUserInfo(user), nil
}

func (s *Service) Create(
	ctx context.Context,
	email, passwordHash, name, gender string,
) (*auth.UserInfo, error) {
	if gender != GenderMale && gender != GenderFemale {
		return nil, fmt.Errorf(
			"create user: invalid gender %q: %w",
			gender,
			core.ErrInvalidInput,
		)
	}

	user := &User{
		ID:           uuid.New().String(),
		Email:        strings.ToLower(email),
		PasswordHash: passwordHash,
		Name:         name,
		Gender:       gender,
		Role:         RoleUser,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}

	return toUserInfo(user), nil
}

func (s *Service) IncrementTokenVersion(
	ctx context.Context,
	userID string,
) error {
	return s.repo.IncrementTokenVersion(ctx, userID)
}

func (s *Service) UpdatePassword(
	ctx context.Context,
	userID, passwordHash string,
) error {
	return s.repo.UpdatePassword(ctx, userID, passwordHash)
}

func (s *Service) GetUser(ctx context.Context, id string) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) UpdateUser(
	ctx context.Context,
	id string,
	req UpdateUserRequest,
) (*User, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		user.Name = *req.Name
	}
	if req.Gender != nil {
		user.Gender = *req.Gender
	}
	if req.Bio != nil {
		user.Bio = *req.Bio
	}
	if req.College != nil {
		user.College = *req.College
	}

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

func (s *Service) UpdateUserRole(
	ctx context.Context,
	id, role string,
) (*User, error) {
	if role != RoleUser && role != RoleAdmin {
		return nil, fmt.Errorf(
			"update role: invalid role %q: %w",
			role,
			core.ErrInvalidInput,
		)
	}

	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	user.Role = role

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

// DeactivateUser soft-deletes an account. Hard deletion only happens
// through an approved deletion request.
func (s *Service) DeactivateUser(ctx context.Context, id string) error {
	target, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if target.IsAdmin() {
		return fmt.Errorf("cannot delete admin accounts: %w", core.ErrForbidden)
	}

	return s.repo.SoftDelete(ctx, id)
}

func (s *Service) ListUsers(
	ctx context.Context,
	params ListUsersParams,
) ([]User, int, error) {
	return s.repo.List(ctx, params)
}

func (s *Service) GetMe(ctx context.Context, userID string) (*User, error) {
	if userID == "" {
		return nil, fmt.Errorf("get me: %w", core.ErrUnauthorized)
	}

	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	return user, nil
}

func (s *Service) UpdateMe(
	ctx context.Context,
	userID string,
	req UpdateUserRequest,
) (*User, error) {
	if userID == "" {
		return nil, fmt.Errorf("update me: %w", core.ErrUnauthorized)
	}

	return s.UpdateUser(ctx, userID, req)
}

// RequestDeletion files a deletion request. Accounts are never hard-deleted
// directly; an admin decision on the request is required.
func (s *Service) RequestDeletion(
	ctx context.Context,
	userID, reason string,
) (*DeletionRequest, error) {
	if userID == "" {
		return nil, fmt.Errorf("request deletion: %w", core.ErrUnauthorized)
	}

	pending, err := s.repo.PendingDeletionRequestExists(ctx, userID)
	if err != nil {
		return nil, err
	}
	if pending {
		return nil, fmt.Errorf("request deletion: %w", core.ErrDuplicateKey)
	}

	req := &DeletionRequest{
		ID:     uuid.New().String(),
		UserID: userID,
		Reason: reason,
		Status: DeletionPending,
	}

	if err := s.repo.CreateDeletionRequest(ctx, req); err != nil {
		return nil, err
	}

	return req, nil
}

func (s *Service) ListDeletionRequests(
	ctx context.Context,
	status string,
) ([]DeletionRequest, error) {
	return s.repo.ListDeletionRequests(ctx, status)
}

// ApproveDeletion marks the request approved and hard-deletes the account.
func (s *Service) ApproveDeletion(
	ctx context.Context,
	requestID, adminID string,
) error {
	req, err := s.repo.GetDeletionRequest(ctx, requestID)
	if err != nil {
		return err
	}

	target, err := s.repo.GetByID(ctx, req.UserID)
	if err != nil {
		return err
	}

	if target.IsAdmin() {
		return fmt.Errorf("cannot delete admin accounts: %w", core.ErrForbidden)
	}

	if err := s.repo.DecideDeletionRequest(
		ctx,
		requestID,
		DeletionApproved,
		adminID,
	); err != nil {
		return err
	}

	return s.repo.HardDelete(ctx, req.UserID)
}

func (s *Service) RejectDeletion(
	ctx context.Context,
	requestID, adminID string,
) error {
	return s.repo.DecideDeletionRequest(
		ctx,
		requestID,
		DeletionRejected,
		adminID,
	)
}

func toUserInfo(u *User) *auth.UserInfo {
	return &auth.UserInfo{
		ID:           u.ID,
		Email:        u.Email,
		Name:         u.Name,
		PasswordHash: u.PasswordHash,
		Role:         u.Role,
		Gender:       u.Gender,
		TokenVersion: u.TokenVersion,
	}
}

var _ auth.UserProvider = (*Service)(nil)
