package naver

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/greenmarket/sso/internal/provider"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := Factory(provider.Config{ClientID: "cid", ClientSecret: "sec"})
	require.NoError(t, err)
	nc := c.(*Client)
	nc.tokenEndpoint = srv.URL + "/oauth2.0/token"
	nc.profileEndpoint = srv.URL + "/v1/nid/me"
	return nc
}

func TestExchangeCodeQueryParamsAndStringExpiry(t *testing.T) {
	var gotQuery map[string]string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		gotQuery = map[string]string{
			"grant_type":    q.Get("grant_type"),
			"client_id":     q.Get("client_id"),
			"client_secret": q.Get("client_secret"),
			"code":          q.Get("code"),
		}
		// expires_in comes back as a string on this endpoint.
		_, _ = w.Write([]byte(`{"access_token":"AT","refresh_token":"RT","token_type":"bearer","expires_in":"3600"}`))
	}))

	ts, err := c.ExchangeCode(context.Background(), "auth-code")
	require.NoError(t, err)
	assert.Equal(t, "AT", ts.AccessToken)
	assert.Equal(t, 3600, ts.ExpiresIn)
	assert.Equal(t, map[string]string{
		"grant_type":    "authorization_code",
		"client_id":     "cid",
		"client_secret": "sec",
		"code":          "auth-code",
	}, gotQuery)
}

func TestNormalizeResponseEnvelope(t *testing.T) {
	c := &Client{}
	prof, err := c.Normalize(provider.RawProfile{
		"resultcode": "00",
		"message":    "success",
		"response": map[string]any{
			"id":        "naver-uid-1",
			"name":      "지우",
			"email":     "jiwoo@example.com",
			"mobile":    "010-1234-5678",
			"birthyear": "1992",
			"birthday":  "11-22",
			"gender":    "F",
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "naver", prof.Provider)
	assert.Equal(t, "naver-uid-1", prof.ExternalID)
	assert.Equal(t, "지우", prof.Name)
	assert.Equal(t, "01012345678", prof.Phone, "dashes stripped")
	assert.Equal(t, "F", prof.Gender)
}

func TestNormalizeFallsBackToNickname(t *testing.T) {
	c := &Client{}
	prof, err := c.Normalize(provider.RawProfile{
		"response": map[string]any{"id": "n-1", "nickname": "jw"},
	})
	require.NoError(t, err)
	assert.Equal(t, "jw", prof.Name)
}

func TestNormalizeMissingEnvelope(t *testing.T) {
	c := &Client{}
	_, err := c.Normalize(provider.RawProfile{"resultcode": "00"})
	require.ErrorIs(t, err, provider.ErrProtocol)
}

func TestRevokeLinkGrantTypeDelete(t *testing.T) {
	var gotQuery map[string]string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		gotQuery = map[string]string{
			"grant_type":       q.Get("grant_type"),
			"access_token":     q.Get("access_token"),
			"service_provider": q.Get("service_provider"),
		}
		_, _ = w.Write([]byte(`{"access_token":"AT","result":"success"}`))
	}))

	err := c.RevokeLink(context.Background(), provider.RevokeGrant{AccessToken: "live-at"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"grant_type":       "delete",
		"access_token":     "live-at",
		"service_provider": "NAVER",
	}, gotQuery)
}

func TestRevokeLinkStaleTokenClassifiedExpired(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"error":"invalid_token","error_description":"token expired"}`))
	}))

	err := c.RevokeLink(context.Background(), provider.RevokeGrant{AccessToken: "stale"})
	require.ErrorIs(t, err, provider.ErrTokenExpired)
}

func TestRevokeLinkUnexpectedResult(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"result":"fail"}`))
	}))

	err := c.RevokeLink(context.Background(), provider.RevokeGrant{AccessToken: "at"})
	require.ErrorIs(t, err, provider.ErrProtocol)
}
