package sso

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/greenmarket/sso/internal/domain/repository"
	"github.com/greenmarket/sso/internal/observability/logger"
	"github.com/greenmarket/sso/internal/provider"
)

// LinkManager owns the create/update/delete of link rows and the
// provider-side revoke calls around them.
type LinkManager struct {
	store    repository.Store
	registry *provider.Registry
	now      func() time.Time
}

// NewLinkManager creates a link manager.
func NewLinkManager(store repository.Store, registry *provider.Registry) *LinkManager {
	return &LinkManager{store: store, registry: registry, now: time.Now}
}

// Link performs an explicit link for an authenticated user: exchange the
// code, normalize, then insert the link row transactionally. If any
// precondition fails after the exchange already happened, the exchanged
// tokens are simply discarded.
//
// Preconditions enforced inside the transaction:
//   - the (provider, externalId) pair is not owned by a different user
//   - the caller has no link for this provider pointing at a different
//     external account
//
// Re-linking the exact same external account refreshes the stored tokens
// instead of creating a duplicate row.
func (m *LinkManager) Link(ctx context.Context, userID int64, providerName, code string) (*repository.SocialAccount, error) {
	log := logger.From(ctx).With(
		logger.Component("sso.link"),
		logger.Provider(providerName),
		logger.UserID(userID),
	)

	client, err := m.registry.Get(providerName)
	if err != nil {
		return nil, err
	}
	tok, err := client.ExchangeCode(ctx, code)
	if err != nil {
		return nil, err
	}
	raw, err := client.FetchProfile(ctx, tok.AccessToken)
	if err != nil {
		return nil, err
	}
	prof, err := client.Normalize(raw)
	if err != nil {
		return nil, err
	}

	var linked *repository.SocialAccount
	err = m.store.RunTx(ctx, func(r repository.Repos) error {
		existing, gerr := r.Social.GetByProviderID(ctx, providerName, prof.ExternalID)
		switch {
		case gerr == nil && existing.UserID != userID:
			return fmt.Errorf("pair owned by another user: %w", repository.ErrConflict)
		case gerr == nil:
			// Same user, same external account: token refresh only.
			if uerr := r.Social.UpdateTokens(ctx, existing.ID, tok.AccessToken, tok.RefreshToken); uerr != nil {
				return uerr
			}
			existing.AccessToken = &tok.AccessToken
			existing.RefreshToken = &tok.RefreshToken
			linked = existing
			return nil
		case !repository.IsNotFound(gerr):
			return gerr
		}

		if _, merr := r.Social.GetByUserAndProvider(ctx, userID, providerName); merr == nil {
			return fmt.Errorf("provider already linked for user: %w", repository.ErrConflict)
		} else if !repository.IsNotFound(merr) {
			return merr
		}

		created, cerr := r.Social.Create(ctx, repository.LinkInput{
			UserID:         userID,
			Provider:       providerName,
			ProviderUserID: prof.ExternalID,
			AccessToken:    tok.AccessToken,
			RefreshToken:   tok.RefreshToken,
		})
		if cerr != nil {
			return cerr
		}
		linked = created
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info("social account linked", logger.AccountID(linked.ID))
	return linked, nil
}

// Unlink severs a single link: provider-side revoke first (with the
// refresh-and-retry policy), then clear tokens and delete the row in one
// transaction. A revoke that still fails after the retry is fatal for this
// account.
func (m *LinkManager) Unlink(ctx context.Context, userID int64, providerName string) error {
	log := logger.From(ctx).With(
		logger.Component("sso.link"),
		logger.Provider(providerName),
		logger.UserID(userID),
	)

	acct, err := m.store.Repos().Social.GetByUserAndProvider(ctx, userID, providerName)
	if err != nil {
		return err
	}
	client, err := m.registry.Get(providerName)
	if err != nil {
		return err
	}

	if err := m.revokeWithRefresh(ctx, client, acct); err != nil {
		return fmt.Errorf("revoke %s link: %w", providerName, err)
	}

	err = m.store.RunTx(ctx, func(r repository.Repos) error {
		if cerr := r.Social.ClearTokens(ctx, acct.ID); cerr != nil {
			return cerr
		}
		return r.Social.Delete(ctx, acct.ID)
	})
	if err != nil {
		return err
	}

	log.Info("social account unlinked", logger.AccountID(acct.ID))
	return nil
}

// RevokeOutcome is the per-account result of a withdrawal fan-out.
type RevokeOutcome struct {
	Account repository.SocialAccount
	Err     error
}

// WithdrawResult summarizes a withdrawal.
type WithdrawResult struct {
	Outcomes []RevokeOutcome
	Revoked  int
	Failed   int
}

// Withdraw revokes every linked account concurrently, waits for all
// attempts to resolve, then — in a single transaction — clears tokens on
// the successfully revoked accounts and flips the user to WITHDRAWN. The
// user's withdrawal never blocks on a provider outage: failed revokes are
// logged per account and reported in the result, not escalated.
func (m *LinkManager) Withdraw(ctx context.Context, userID int64) (*WithdrawResult, error) {
	log := logger.From(ctx).With(logger.Component("sso.link"), logger.UserID(userID))
	repos := m.store.Repos()

	user, err := repos.Users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.Status == repository.UserStatusWithdrawn {
		return nil, fmt.Errorf("already withdrawn: %w", repository.ErrConflict)
	}

	accounts, err := repos.Social.GetByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	// Fan out the revokes; every goroutine records its own outcome and
	// returns nil, so the join waits for all attempts instead of
	// short-circuiting on the first failure.
	outcomes := make([]RevokeOutcome, len(accounts))
	g, gctx := errgroup.WithContext(ctx)
	for i := range accounts {
		i := i
		g.Go(func() error {
			acct := accounts[i]
			client, cerr := m.registry.Get(acct.Provider)
			if cerr == nil {
				cerr = m.revokeWithRefresh(gctx, client, &acct)
			}
			outcomes[i] = RevokeOutcome{Account: acct, Err: cerr}
			return nil
		})
	}
	_ = g.Wait()

	result := &WithdrawResult{Outcomes: outcomes}
	for _, o := range outcomes {
		if o.Err != nil {
			result.Failed++
			log.Warn("provider revoke failed, withdrawing anyway",
				logger.Provider(o.Account.Provider),
				logger.AccountID(o.Account.ID),
				logger.Err(o.Err),
			)
		} else {
			result.Revoked++
		}
	}

	// The authoritative mutation starts only after every revoke attempt has
	// resolved, so the token audit stays accurate.
	err = m.store.RunTx(ctx, func(r repository.Repos) error {
		for _, o := range outcomes {
			if o.Err != nil {
				continue
			}
			if cerr := r.Social.ClearTokens(ctx, o.Account.ID); cerr != nil {
				return cerr
			}
		}
		return r.Users.Withdraw(ctx, userID, m.now().UTC())
	})
	if err != nil {
		return nil, err
	}

	log.Info("user withdrawn",
		logger.Count(len(accounts)),
		logger.String("revoked", fmt.Sprintf("%d/%d", result.Revoked, len(accounts))),
	)
	return result, nil
}

// revokeWithRefresh calls the provider revoke, and on an expired-token
// response refreshes the access token, persists it on the account row
// (single-row update outside any broader transaction, so it survives a
// later rollback), and retries the revoke exactly once.
func (m *LinkManager) revokeWithRefresh(ctx context.Context, client provider.Client, acct *repository.SocialAccount) error {
	grant := provider.RevokeGrant{
		ProviderUserID: acct.ProviderUserID,
	}
	if acct.AccessToken != nil {
		grant.AccessToken = *acct.AccessToken
	}

	err := client.RevokeLink(ctx, grant)
	if err == nil || !errors.Is(err, provider.ErrTokenExpired) {
		return err
	}
	if acct.RefreshToken == nil || *acct.RefreshToken == "" {
		return err
	}

	fresh, rerr := client.RefreshAccessToken(ctx, *acct.RefreshToken)
	if rerr != nil {
		return fmt.Errorf("refresh for retry: %w", rerr)
	}
	if perr := m.store.Repos().Social.UpdateTokens(ctx, acct.ID, fresh, *acct.RefreshToken); perr != nil {
		return fmt.Errorf("persist refreshed token: %w", perr)
	}
	acct.AccessToken = &fresh

	grant.AccessToken = fresh
	return client.RevokeLink(ctx, grant)
}
