// Package sso implements the identity-linking core: resolving a canonical
// social profile against local records, managing link rows transactionally,
// and gating logins on account standing.
package sso

import (
	"context"
	"fmt"

	"github.com/greenmarket/sso/internal/domain/repository"
	"github.com/greenmarket/sso/internal/observability/logger"
	"github.com/greenmarket/sso/internal/provider"
)

// State is the outcome of identity resolution. These three states are the
// only valid transitions; anything else is a logic error, never a silent
// fallthrough.
type State int

const (
	// StateAuthenticated: the (provider, externalId) pair is already linked;
	// the owning user logs in.
	StateAuthenticated State = iota

	// StatePendingSignup: nothing matched; the caller proceeds to
	// pre-registration with a signup token.
	StatePendingSignup

	// StateRequiresLink: an unlinked local account matched by phone; the
	// caller must link explicitly while authenticated.
	StateRequiresLink
)

func (s State) String() string {
	switch s {
	case StateAuthenticated:
		return "authenticated"
	case StatePendingSignup:
		return "pending_signup"
	case StateRequiresLink:
		return "requires_link"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Resolution is the resolver's verdict plus whatever records backed it.
type Resolution struct {
	State   State
	User    *repository.User          // Authenticated and RequiresLink
	Account *repository.SocialAccount // Authenticated only
}

// Resolver decides which of the three states a canonical profile lands in.
type Resolver struct {
	store repository.Store
}

// NewResolver creates a resolver over the given store.
func NewResolver(store repository.Store) *Resolver {
	return &Resolver{store: store}
}

// Resolve runs the lookup order: linked pair first, then canonical phone.
// On the authenticated path the stored tokens are refreshed as a side
// effect, outside any broader transaction.
func (r *Resolver) Resolve(ctx context.Context, prof *provider.CanonicalProfile) (*Resolution, error) {
	log := logger.From(ctx).With(logger.Component("sso.resolver"), logger.Provider(prof.Provider))
	repos := r.store.Repos()

	acct, err := repos.Social.GetByProviderID(ctx, prof.Provider, prof.ExternalID)
	switch {
	case err == nil:
		user, uerr := repos.Users.GetByID(ctx, acct.UserID)
		if uerr != nil {
			return nil, fmt.Errorf("load link owner %d: %w", acct.UserID, uerr)
		}
		if terr := repos.Social.UpdateTokens(ctx, acct.ID, prof.AccessToken, prof.RefreshToken); terr != nil {
			// Token refresh is best-effort; the login itself proceeds.
			log.Warn("stored token refresh failed", logger.AccountID(acct.ID), logger.Err(terr))
		} else {
			acct.AccessToken = &prof.AccessToken
			acct.RefreshToken = &prof.RefreshToken
		}
		log.Debug("resolved to linked user", logger.UserID(user.ID))
		return &Resolution{State: StateAuthenticated, User: user, Account: acct}, nil

	case !repository.IsNotFound(err):
		return nil, fmt.Errorf("lookup link: %w", err)
	}

	if prof.Phone != "" {
		user, perr := repos.Users.GetByPhone(ctx, prof.Phone)
		switch {
		case perr == nil:
			log.Debug("phone matched unlinked local account", logger.UserID(user.ID))
			return &Resolution{State: StateRequiresLink, User: user}, nil
		case !repository.IsNotFound(perr):
			return nil, fmt.Errorf("lookup by phone: %w", perr)
		}
	}

	log.Debug("no match, pending signup")
	return &Resolution{State: StatePendingSignup}, nil
}
