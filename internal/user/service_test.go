// AngelaMos | 2026
// service_test.go

package user

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dateu/dateu-backend/internal/core"
)

type fakeRepo struct {
	users       map[string]*User
	requests    map[string]*DeletionRequest
	hardDeleted []string
}

func newFakeRepo(users ...*User) *fakeRepo {
	m := make(map[string]*User, len(users))
	for _, u := range users {
		m[u.ID] = u
	}
	return &fakeRepo{users: m, requests: map[string]*DeletionRequest{}}
}

func (f *fakeRepo) Create(_ context.Context, u *User) error {
	for _, existing := range f.users {
		if existing.Email == u.Email {
			return core.ErrDuplicateKey
		}
	}
	f.users[u.ID] = u
	return nil
}

func (f *fakeRepo) GetByID(_ context.Context, id string) (*User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	return u, nil
}

func (f *fakeRepo) GetByEmail(_ context.Context, email string) (*User, error) {
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, core.ErrNotFound
}

func (f *fakeRepo) Update(_ context.Context, u *User) error {
	if _, ok := f.users[u.ID]; !ok {
		return core.ErrNotFound
	}
	f.users[u.ID] = u
	return nil
}

func (f *fakeRepo) UpdatePassword(_ context.Context, id, hash string) error {
	u, ok := f.users[id]
	if !ok {
		return core.ErrNotFound
	}
	u.PasswordHash = hash
	return nil
}

func (f *fakeRepo) IncrementTokenVersion(_ context.Context, id string) error {
	u, ok := f.users[id]
	if !ok {
		return core.ErrNotFound
	}
	u.TokenVersion++
	return nil
}

func (f *fakeRepo) SoftDelete(_ context.Context, id string) error {
	u, ok := f.users[id]
	if !ok {
		return core.ErrNotFound
	}
	now := time.Now()
	u.DeletedAt = &now
	return nil
}

func (f *fakeRepo) HardDelete(_ context.Context, id string) error {
	delete(f.users, id)
	f.hardDeleted = append(f.hardDeleted, id)
	return nil
}

func (f *fakeRepo) List(_ context.Context, _ ListUsersParams) ([]User, int, error) {
	out := []User{}
	for _, u := range f.users {
		out = append(out, *u)
	}
	return out, len(out), nil
}

func (f *fakeRepo) CreateDeletionRequest(_ context.Context, req *DeletionRequest) error {
	f.requests[req.ID] = req
	return nil
}

func (f *fakeRepo) GetDeletionRequest(_ context.Context, id string) (*DeletionRequest, error) {
	req, ok := f.requests[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	return req, nil
}

func (f *fakeRepo) PendingDeletionRequestExists(_ context.Context, userID string) (bool, error) {
	for _, req := range f.requests {
		if req.UserID == userID && req.Status == DeletionPending {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeRepo) ListDeletionRequests(_ context.Context, status string) ([]DeletionRequest, error) {
	out := []DeletionRequest{}
	for _, req := range f.requests {
		if status == "" || req.Status == status {
			out = append(out, *req)
		}
	}
	return out, nil
}

func (f *fakeRepo) DecideDeletionRequest(_ context.Context, id, status, adminID string) error {
	req, ok := f.requests[id]
	if !ok || req.Status != DeletionPending {
		return core.ErrNotFound
	}
	req.Status = status
	req.DecidedBy = &adminID
	return nil
}

func TestCreateValidatesGender(t *testing.T) {
	svc := NewService(newFakeRepo())

	_, err := svc.Create(context.Background(), "a@b.edu", "hash", "A", "other")
	if !errors.Is(err, core.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}

	info, err := svc.Create(context.Background(), "A@B.edu", "hash", "A", GenderFemale)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if info.Email != "a@b.edu" {
		t.Fatalf("email not normalized: %q", info.Email)
	}
	if info.Gender != GenderFemale {
		t.Fatalf("gender not carried: %q", info.Gender)
	}
}

func TestRequestDeletionRejectsDuplicatePending(t *testing.T) {
	repo := newFakeRepo(&User{ID: "u1", Role: RoleUser})
	svc := NewService(repo)

	if _, err := svc.RequestDeletion(context.Background(), "u1", "leaving"); err != nil {
		t.Fatalf("first request: %v", err)
	}
	_, err := svc.RequestDeletion(context.Background(), "u1", "again")
	if !errors.Is(err, core.ErrDuplicateKey) {
		t.Fatalf("expected duplicate error, got %v", err)
	}
}

func TestApproveDeletionHardDeletes(t *testing.T) {
	repo := newFakeRepo(&User{ID: "u1", Role: RoleUser})
	svc := NewService(repo)

	req, err := svc.RequestDeletion(context.Background(), "u1", "leaving")
	if err != nil {
		t.Fatalf("request: %v", err)
	}

	if err := svc.ApproveDeletion(context.Background(), req.ID, "admin1"); err != nil {
		t.Fatalf("approve: %v", err)
	}

	if len(repo.hardDeleted) != 1 || repo.hardDeleted[0] != "u1" {
		t.Fatalf("account not deleted: %v", repo.hardDeleted)
	}
	if repo.requests[req.ID].Status != DeletionApproved {
		t.Fatal("request not marked approved")
	}
}

func TestApproveDeletionProtectsAdmins(t *testing.T) {
	repo := newFakeRepo(&User{ID: "a1", Role: RoleAdmin})
	svc := NewService(repo)

	req, err := svc.RequestDeletion(context.Background(), "a1", "bye")
	if err != nil {
		t.Fatalf("request: %v", err)
	}

	err = svc.ApproveDeletion(context.Background(), req.ID, "a2")
	if !errors.Is(err, core.ErrForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
	if len(repo.hardDeleted) != 0 {
		t.Fatal("admin account must not be deleted")
	}
}

func TestUpdateUserRoleValidates(t *testing.T) {
	repo := newFakeRepo(&User{ID: "u1", Role: RoleUser})
	svc := NewService(repo)

	if _, err := svc.UpdateUserRole(context.Background(), "u1", "root"); !errors.Is(err, core.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}

	updated, err := svc.UpdateUserRole(context.Background(), "u1", RoleAdmin)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Role != RoleAdmin {
		t.Fatalf("role not updated: %q", updated.Role)
	}
}

func TestDeactivateUserProtectsAdmins(t *testing.T) {
	repo := newFakeRepo(
		&User{ID: "u1", Role: RoleUser},
		&User{ID: "a1", Role: RoleAdmin},
	)
	svc := NewService(repo)

	if err := svc.DeactivateUser(context.Background(), "a1"); !errors.Is(err, core.ErrForbidden) {
		t.Fatalf("expected forbidden for admin target, got %v", err)
	}
	if repo.users["a1"].IsDeleted() {
		t.Fatal("admin account must not be touched")
	}

	if err := svc.DeactivateUser(context.Background(), "u1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !repo.users["u1"].IsDeleted() {
		t.Fatal("user must be soft-deleted")
	}
}
