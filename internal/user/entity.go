// AngelaMos | 2026
// entity.go

package user

import (
	"time"
)

type User struct {
	ID           string     `db:"id"`
	Email        string     `db:"email"`
	PasswordHash string     `db:"password_hash"`
	Name         string     `db:"name"`
	Gender       string     `db:"gender"`
	Role         string     `db:"role"`
	Bio          string     `db:"bio"`
	College      string     `db:"college"`
	TokenVersion int        `db:"token_version"`
	CreatedAt    time.Time  `db:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at"`
	DeletedAt    *time.Time `db:"deleted_at"`
}

func (u *User) IsDeleted() bool {
	return u.DeletedAt != nil
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// HasGender reports whether the profile is far enough along for round
// enrollment, which is gender-keyed.
func (u *User) HasGender() bool {
	return u.Gender == GenderMale || u.Gender == GenderFemale
}

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

const (
	GenderMale   = "male"
	GenderFemale = "female"
)

// DeletionRequest is the only path to a hard delete: the user files one, an
// admin approves or rejects it.
type DeletionRequest struct {
	ID        string     `db:"id"`
	UserID    string     `db:"user_id"`
	Reason    string     `db:"reason"`
	Status    string     `db:"status"`
	DecidedBy *string    `db:"decided_by"`
	DecidedAt *time.Time `db:"decided_at"`
	CreatedAt time.Time  `db:"created_at"`
	UpdatedAt time.Time  `db:"updated_at"`
}

const (
	DeletionPending  = "pending"
	DeletionApproved = "approved"
	DeletionRejected = "rejected"
)
