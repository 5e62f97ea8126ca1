package sso

import (
	"context"
	"fmt"
	"time"

	"github.com/greenmarket/sso/internal/domain/repository"
)

// Standing is the suspension gate's verdict.
type Standing int

const (
	StandingAllowed Standing = iota
	StandingSuspended
	StandingInactive
)

// SuspensionGate checks account standing before a login completes.
type SuspensionGate struct {
	store repository.Store
	now   func() time.Time
}

// NewSuspensionGate creates a gate over the given store.
func NewSuspensionGate(store repository.Store) *SuspensionGate {
	return &SuspensionGate{store: store, now: time.Now}
}

// Check returns the user's standing. Suspended verdicts carry the
// authoritative suspension row; lifted rows never win over an active one,
// and the permanent sentinel deadline is never treated as expired.
func (g *SuspensionGate) Check(ctx context.Context, user *repository.User) (Standing, *repository.UserSuspension, error) {
	if user.Status == repository.UserStatusWithdrawn || user.DeletedAt != nil {
		return StandingInactive, nil, nil
	}

	susp, err := g.store.Repos().Suspends.GetActive(ctx, user.ID, g.now().UTC())
	switch {
	case err == nil:
		return StandingSuspended, susp, nil
	case repository.IsNotFound(err):
		return StandingAllowed, nil, nil
	default:
		return StandingAllowed, nil, fmt.Errorf("lookup suspension: %w", err)
	}
}
