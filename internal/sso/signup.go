package sso

import (
	"context"
	"fmt"
	"time"

	"github.com/greenmarket/sso/internal/cache"
	"github.com/greenmarket/sso/internal/domain/repository"
	"github.com/greenmarket/sso/internal/observability/logger"
	"github.com/greenmarket/sso/internal/token"
)

// SignupService completes registration from a signup token: one transaction
// creating the user and the first link row, then a session token.
type SignupService struct {
	store  repository.Store
	issuer *token.Issuer
	cache  cache.Client
}

// NewSignupService wires the signup completion flow.
func NewSignupService(store repository.Store, issuer *token.Issuer, c cache.Client) *SignupService {
	return &SignupService{store: store, issuer: issuer, cache: c}
}

// SignupInput carries the caller's registration choices on top of the
// profile embedded in the signup token.
type SignupInput struct {
	SignupToken string
	Nickname    string // optional override of the provider-reported name
}

// Complete verifies the signup token, consumes its jti (one-shot), and
// creates the User plus SocialAccount atomically. A profile whose pair or
// phone got claimed between token issue and completion yields Conflict.
func (s *SignupService) Complete(ctx context.Context, in SignupInput) (*LoginResult, error) {
	log := logger.From(ctx).With(logger.Component("sso.signup"))

	payload, err := s.issuer.VerifySignupToken(in.SignupToken)
	if err != nil {
		return nil, err
	}
	prof := payload.Profile

	// One-shot: the jti burns on first use and stays burned until the token
	// would have expired anyway.
	ok, err := s.cache.SetNX(ctx, "signup:jti:"+payload.JTI, "1", token.SignupTTL)
	if err != nil {
		return nil, fmt.Errorf("signup jti guard: %w", err)
	}
	if !ok {
		return nil, token.ErrInvalid
	}

	nickname := in.Nickname
	if nickname == "" {
		nickname = prof.Name
	}

	var user *repository.User
	err = s.store.RunTx(ctx, func(r repository.Repos) error {
		if _, gerr := r.Social.GetByProviderID(ctx, prof.Provider, prof.ExternalID); gerr == nil {
			return fmt.Errorf("pair already linked: %w", repository.ErrConflict)
		} else if !repository.IsNotFound(gerr) {
			return gerr
		}
		if prof.Phone != "" {
			if _, perr := r.Users.GetByPhone(ctx, prof.Phone); perr == nil {
				return fmt.Errorf("phone already registered: %w", repository.ErrConflict)
			} else if !repository.IsNotFound(perr) {
				return perr
			}
		}

		created, cerr := r.Users.Create(ctx, repository.CreateUserInput{
			Email:     prof.Email,
			Phone:     prof.Phone,
			Nickname:  nickname,
			BirthYear: prof.BirthYear,
			Birthday:  prof.Birthday,
			Gender:    prof.Gender,
		})
		if cerr != nil {
			return cerr
		}
		if _, lerr := r.Social.Create(ctx, repository.LinkInput{
			UserID:         created.ID,
			Provider:       prof.Provider,
			ProviderUserID: prof.ExternalID,
			AccessToken:    prof.AccessToken,
			RefreshToken:   prof.RefreshToken,
		}); lerr != nil {
			return lerr
		}
		user = created
		return nil
	})
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if lerr := s.store.Repos().Users.UpdateLastLogin(ctx, user.ID, now); lerr != nil {
		log.Warn("last login update failed", logger.UserID(user.ID), logger.Err(lerr))
	}

	session, err := s.issuer.IssueSessionToken(user, "")
	if err != nil {
		return nil, err
	}

	log.Info("signup completed", logger.UserID(user.ID), logger.Provider(prof.Provider))
	return &LoginResult{IsNewUser: false, SessionToken: session, User: user}, nil
}
