package repository

import (
	"context"
	"time"
)

// PermanentDeadline is the sentinel used for suspensions with no expiry.
// Far enough in the future to never be treated as expired; date arithmetic
// stays within time.Time's range.
var PermanentDeadline = time.Date(9999, 12, 31, 0, 0, 0, 0, time.UTC)

// UserSuspension is an append-only record created by administrative action
// (out of scope here). A user is currently suspended iff a row exists with
// LiftedAt == nil and Deadline in the future (or the permanent sentinel);
// the most recent such row by creation time is authoritative.
type UserSuspension struct {
	ID        int64
	UserID    int64
	Reason    string
	Deadline  time.Time
	AdminID   int64
	LiftedAt  *time.Time
	CreatedAt time.Time
}

// Permanent reports whether this suspension never expires.
func (s *UserSuspension) Permanent() bool {
	return !s.Deadline.Before(PermanentDeadline)
}

// SuspensionRepository reads suspension state.
type SuspensionRepository interface {
	// GetActive returns the most recent non-lifted suspension whose deadline
	// is after now, or ErrNotFound when none applies.
	GetActive(ctx context.Context, userID int64, now time.Time) (*UserSuspension, error)
}
