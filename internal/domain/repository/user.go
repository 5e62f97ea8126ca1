package repository

import (
	"context"
	"time"
)

// UserStatus is the lifecycle state of a local account.
type UserStatus string

const (
	UserStatusActive    UserStatus = "ACTIVE"
	UserStatusSuspended UserStatus = "SUSPENDED"
	UserStatusWithdrawn UserStatus = "WITHDRAWN"
)

// User is a local identity record. Phone is the cross-provider matching key:
// at most one user per canonical phone number is considered linkable.
type User struct {
	ID          int64
	Email       string
	Phone       string
	Nickname    string
	Status      UserStatus
	Role        string
	LastLoginAt *time.Time
	DeletedAt   *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// CreateUserInput carries the fields needed to register a user from a
// canonical social profile.
type CreateUserInput struct {
	Email     string
	Phone     string
	Nickname  string
	BirthYear string
	Birthday  string
	Gender    string
}

// UserRepository persists User records.
type UserRepository interface {
	GetByID(ctx context.Context, id int64) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	// GetByPhone looks up by canonical phone representation.
	GetByPhone(ctx context.Context, phone string) (*User, error)
	Create(ctx context.Context, in CreateUserInput) (*User, error)
	UpdateLastLogin(ctx context.Context, id int64, at time.Time) error
	// Withdraw flips the user to WITHDRAWN and stamps DeletedAt. The row is
	// kept (soft delete) while social account rows still reference it.
	Withdraw(ctx context.Context, id int64, at time.Time) error
}
