package sso

import (
	"context"
	"time"

	"github.com/greenmarket/sso/internal/domain/repository"
	"github.com/greenmarket/sso/internal/observability/logger"
	"github.com/greenmarket/sso/internal/provider"
	"github.com/greenmarket/sso/internal/token"
)

// LoginResult is the caller-facing outcome of a social login.
type LoginResult struct {
	IsNewUser bool

	// Pre-registration (IsNewUser true)
	SignupToken string
	Profile     *provider.CanonicalProfile

	// Post-registration (IsNewUser false)
	SessionToken string
	User         *repository.User
}

// LoginService orchestrates the full callback flow:
// exchange -> fetch -> normalize -> resolve -> gate -> issue.
type LoginService struct {
	registry *provider.Registry
	resolver *Resolver
	gate     *SuspensionGate
	issuer   *token.Issuer
	store    repository.Store
	now      func() time.Time
}

// NewLoginService wires the login flow.
func NewLoginService(registry *provider.Registry, resolver *Resolver, gate *SuspensionGate, issuer *token.Issuer, store repository.Store) *LoginService {
	return &LoginService{
		registry: registry,
		resolver: resolver,
		gate:     gate,
		issuer:   issuer,
		store:    store,
		now:      time.Now,
	}
}

// Login exchanges the authorization code and resolves the identity.
// storeCtx is optional caller context carried into the session token.
//
// Outcomes map 1:1 onto resolver states:
//   - PendingSignup  -> LoginResult{IsNewUser: true, SignupToken, Profile}
//   - Authenticated  -> gate check, then LoginResult{SessionToken, User}
//   - RequiresLink   -> ErrRequiresLink after best-effort cleanup of the
//     transient grant the exchange just created
func (s *LoginService) Login(ctx context.Context, providerName, code, storeCtx string) (*LoginResult, error) {
	log := logger.From(ctx).With(logger.Component("sso.login"), logger.Provider(providerName))

	client, err := s.registry.Get(providerName)
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
	prof.AccessToken = tok.AccessToken
	prof.RefreshToken = tok.RefreshToken

	res, err := s.resolver.Resolve(ctx, prof)
	if err != nil {
		return nil, err
	}

	switch res.State {
	case StatePendingSignup:
		signupToken, terr := s.issuer.IssueSignupToken(prof)
		if terr != nil {
			return nil, terr
		}
		log.Info("pending signup", logger.String("external_id", prof.ExternalID))
		return &LoginResult{IsNewUser: true, SignupToken: signupToken, Profile: prof}, nil

	case StateAuthenticated:
		standing, susp, gerr := s.gate.Check(ctx, res.User)
		if gerr != nil {
			return nil, gerr
		}
		switch standing {
		case StandingSuspended:
			log.Info("login blocked by suspension", logger.UserID(res.User.ID))
			return nil, &SuspendedError{
				Reason:    susp.Reason,
				Deadline:  susp.Deadline,
				Permanent: susp.Permanent(),
			}
		case StandingInactive:
			return nil, ErrInactiveAccount
		}

		if lerr := s.store.Repos().Users.UpdateLastLogin(ctx, res.User.ID, s.now().UTC()); lerr != nil {
			log.Warn("last login update failed", logger.UserID(res.User.ID), logger.Err(lerr))
		}
		session, terr := s.issuer.IssueSessionToken(res.User, storeCtx)
		if terr != nil {
			return nil, terr
		}
		log.Info("login ok", logger.UserID(res.User.ID))
		return &LoginResult{IsNewUser: false, SessionToken: session, User: res.User}, nil

	case StateRequiresLink:
		// The exchange just minted a grant nobody will keep. Revoke it
		// best-effort so the provider side doesn't accumulate dangling
		// authorizations; the verdict stands either way.
		rerr := client.RevokeLink(ctx, provider.RevokeGrant{
			AccessToken:    tok.AccessToken,
			ProviderUserID: prof.ExternalID,
		})
		if rerr != nil {
			log.Warn("transient grant cleanup failed", logger.Err(rerr))
		}
		log.Info("explicit link required", logger.UserID(res.User.ID))
		return nil, ErrRequiresLink
	}

	// The resolver only produces the three states above.
	panic("sso: unreachable resolver state " + res.State.String())
}
