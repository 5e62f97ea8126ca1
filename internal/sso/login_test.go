package sso

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/greenmarket/sso/internal/domain/repository"
	"github.com/greenmarket/sso/internal/provider"
	"github.com/greenmarket/sso/internal/token"
)

func testIssuer() *token.Issuer {
	return token.NewIssuer("sso-test", []byte("0123456789abcdef0123456789abcdef"), time.Hour)
}

func newLoginService(store *memStore, clients ...*fakeClient) *LoginService {
	return NewLoginService(
		registryWith(clients...),
		NewResolver(store),
		NewSuspensionGate(store),
		testIssuer(),
		store,
	)
}

func TestLoginUnknownProvider(t *testing.T) {
	svc := newLoginService(newMemStore())
	_, err := svc.Login(context.Background(), "facebook", "code", "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, provider.ErrUnknownProvider))
}

func TestLoginNewUserGetsSignupToken(t *testing.T) {
	store := newMemStore()
	client := &fakeClient{name: "kakao", norm: func(provider.RawProfile) (*provider.CanonicalProfile, error) {
		return &provider.CanonicalProfile{
			Provider: "kakao", ExternalID: "k-1", Name: "민수", Phone: "01012345678",
		}, nil
	}}
	svc := newLoginService(store, client)

	result, err := svc.Login(context.Background(), "kakao", "code-1", "")
	require.NoError(t, err)
	assert.True(t, result.IsNewUser)
	assert.NotEmpty(t, result.SignupToken)
	require.NotNil(t, result.Profile)
	assert.Equal(t, "k-1", result.Profile.ExternalID)
	// The exchanged tokens ride inside the profile and the signup token.
	assert.Equal(t, "at-code-1", result.Profile.AccessToken)

	payload, err := testIssuer().VerifySignupToken(result.SignupToken)
	require.NoError(t, err)
	assert.Equal(t, "01012345678", payload.Profile.Phone)
}

func TestLoginLinkedUserGetsSession(t *testing.T) {
	store := newMemStore()
	user := store.addUser(repository.User{Phone: "01012345678", Nickname: "mina"})
	store.addAccount(repository.SocialAccount{UserID: user.ID, Provider: "kakao", ProviderUserID: "k-1"})

	client := &fakeClient{name: "kakao", norm: func(provider.RawProfile) (*provider.CanonicalProfile, error) {
		return &provider.CanonicalProfile{Provider: "kakao", ExternalID: "k-1"}, nil
	}}
	svc := newLoginService(store, client)

	result, err := svc.Login(context.Background(), "kakao", "code-1", "web")
	require.NoError(t, err)
	assert.False(t, result.IsNewUser)
	assert.NotEmpty(t, result.SessionToken)
	assert.Equal(t, user.ID, result.User.ID)
	assert.NotNil(t, store.users[user.ID].LastLoginAt)

	session, err := testIssuer().VerifySessionToken(result.SessionToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, session.UserID)
	assert.Equal(t, "web", session.Store)
}

func TestLoginSuspendedUserBlocked(t *testing.T) {
	store := newMemStore()
	user := store.addUser(repository.User{Phone: "01012345678"})
	store.addAccount(repository.SocialAccount{UserID: user.ID, Provider: "kakao", ProviderUserID: "k-1"})
	store.addSuspension(repository.UserSuspension{
		UserID: user.ID, Reason: "abuse", Deadline: repository.PermanentDeadline,
	})

	client := &fakeClient{name: "kakao", norm: func(provider.RawProfile) (*provider.CanonicalProfile, error) {
		return &provider.CanonicalProfile{Provider: "kakao", ExternalID: "k-1"}, nil
	}}
	svc := newLoginService(store, client)

	_, err := svc.Login(context.Background(), "kakao", "code-1", "")
	var suspended *SuspendedError
	require.ErrorAs(t, err, &suspended)
	assert.True(t, suspended.Permanent)
	assert.Equal(t, "abuse", suspended.Reason)
	assert.Nil(t, store.users[user.ID].LastLoginAt, "no login side effects when blocked")
}

func TestLoginPhoneMatchRequiresLinkAndCleansUpGrant(t *testing.T) {
	store := newMemStore()
	store.addUser(repository.User{Phone: "01012345678"})

	client := &fakeClient{name: "naver", norm: func(provider.RawProfile) (*provider.CanonicalProfile, error) {
		return &provider.CanonicalProfile{Provider: "naver", ExternalID: "n-1", Phone: "01012345678"}, nil
	}}
	svc := newLoginService(store, client)

	_, err := svc.Login(context.Background(), "naver", "code-1", "")
	require.ErrorIs(t, err, ErrRequiresLink)
	// The just-minted grant is revoked so nothing dangles provider-side.
	assert.Equal(t, 1, client.revokeCount())
	assert.Equal(t, "at-code-1", client.revokeCalls[0].AccessToken)
}

func TestLoginGrantCleanupFailureStillRequiresLink(t *testing.T) {
	store := newMemStore()
	store.addUser(repository.User{Phone: "01012345678"})

	client := &fakeClient{
		name: "naver",
		norm: func(provider.RawProfile) (*provider.CanonicalProfile, error) {
			return &provider.CanonicalProfile{Provider: "naver", ExternalID: "n-1", Phone: "01012345678"}, nil
		},
		revoke: func(context.Context, provider.RevokeGrant) error { return provider.ErrProtocol },
	}
	svc := newLoginService(store, client)

	_, err := svc.Login(context.Background(), "naver", "code-1", "")
	require.ErrorIs(t, err, ErrRequiresLink)
}

func TestLoginExchangeFailurePropagates(t *testing.T) {
	store := newMemStore()
	client := &fakeClient{name: "kakao", exchange: func(context.Context, string) (*provider.TokenSet, error) {
		return nil, provider.ErrProtocol
	}}
	svc := newLoginService(store, client)

	_, err := svc.Login(context.Background(), "kakao", "bad-code", "")
	require.ErrorIs(t, err, provider.ErrProtocol)
}
