package sso

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/greenmarket/sso/internal/cache"
	"github.com/greenmarket/sso/internal/domain/repository"
	"github.com/greenmarket/sso/internal/provider"
	"github.com/greenmarket/sso/internal/token"
)

func issueSignup(t *testing.T, prof *provider.CanonicalProfile) string {
	t.Helper()
	raw, err := testIssuer().IssueSignupToken(prof)
	require.NoError(t, err)
	return raw
}

func TestSignupCreatesUserAndLink(t *testing.T) {
	store := newMemStore()
	svc := NewSignupService(store, testIssuer(), cache.NewMemory("t1:"))

	raw := issueSignup(t, &provider.CanonicalProfile{
		Provider: "kakao", ExternalID: "k-1", Name: "민수",
		Phone: "01012345678", AccessToken: "at", RefreshToken: "rt",
	})

	result, err := svc.Complete(context.Background(), SignupInput{SignupToken: raw, Nickname: "minsu"})
	require.NoError(t, err)
	assert.NotEmpty(t, result.SessionToken)
	assert.Equal(t, "minsu", result.User.Nickname)

	acct, err := store.Repos().Social.GetByProviderID(context.Background(), "kakao", "k-1")
	require.NoError(t, err)
	assert.Equal(t, result.User.ID, acct.UserID)
	require.NotNil(t, acct.AccessToken)
	assert.Equal(t, "at", *acct.AccessToken)
}

func TestSignupDefaultsNicknameToProfileName(t *testing.T) {
	store := newMemStore()
	svc := NewSignupService(store, testIssuer(), cache.NewMemory("t2:"))

	raw := issueSignup(t, &provider.CanonicalProfile{
		Provider: "naver", ExternalID: "n-1", Name: "지우",
	})

	result, err := svc.Complete(context.Background(), SignupInput{SignupToken: raw})
	require.NoError(t, err)
	assert.Equal(t, "지우", result.User.Nickname)
}

func TestSignupTokenIsOneShot(t *testing.T) {
	store := newMemStore()
	svc := NewSignupService(store, testIssuer(), cache.NewMemory("t3:"))

	raw := issueSignup(t, &provider.CanonicalProfile{Provider: "kakao", ExternalID: "k-1"})

	_, err := svc.Complete(context.Background(), SignupInput{SignupToken: raw})
	require.NoError(t, err)

	_, err = svc.Complete(context.Background(), SignupInput{SignupToken: raw})
	require.ErrorIs(t, err, token.ErrInvalid, "replay burns on the jti")
}

func TestSignupGarbageTokenRejected(t *testing.T) {
	svc := NewSignupService(newMemStore(), testIssuer(), cache.NewMemory("t4:"))
	_, err := svc.Complete(context.Background(), SignupInput{SignupToken: "not-a-jwt"})
	require.ErrorIs(t, err, token.ErrInvalid)
}

func TestSignupPairClaimedMeanwhileConflicts(t *testing.T) {
	store := newMemStore()
	svc := NewSignupService(store, testIssuer(), cache.NewMemory("t5:"))

	raw := issueSignup(t, &provider.CanonicalProfile{Provider: "kakao", ExternalID: "k-1"})

	// Someone links the same pair between token issue and completion.
	other := store.addUser(repository.User{Phone: "01099990000"})
	store.addAccount(repository.SocialAccount{UserID: other.ID, Provider: "kakao", ProviderUserID: "k-1"})

	_, err := svc.Complete(context.Background(), SignupInput{SignupToken: raw})
	require.ErrorIs(t, err, repository.ErrConflict)
}

func TestSignupPhoneClaimedMeanwhileConflicts(t *testing.T) {
	store := newMemStore()
	svc := NewSignupService(store, testIssuer(), cache.NewMemory("t6:"))

	raw := issueSignup(t, &provider.CanonicalProfile{
		Provider: "kakao", ExternalID: "k-1", Phone: "01012345678",
	})
	store.addUser(repository.User{Phone: "01012345678"})

	_, err := svc.Complete(context.Background(), SignupInput{SignupToken: raw})
	require.ErrorIs(t, err, repository.ErrConflict)
}
