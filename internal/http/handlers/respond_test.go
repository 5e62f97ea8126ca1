package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/greenmarket/sso/internal/domain/repository"
	"github.com/greenmarket/sso/internal/provider"
	"github.com/greenmarket/sso/internal/sso"
	"github.com/greenmarket/sso/internal/token"
)

func mapError(t *testing.T, err error) (int, map[string]any) {
	t.Helper()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/v1/auth/social/login", nil)
	writeDomainError(rec, req, err)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec.Code, body
}

func TestDomainErrorMapping(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"requires link", sso.ErrRequiresLink, http.StatusConflict, "LINK_REQUIRED"},
		{"inactive", sso.ErrInactiveAccount, http.StatusForbidden, "ACCOUNT_INACTIVE"},
		{"unknown provider", fmt.Errorf("get: %w", provider.ErrUnknownProvider), http.StatusBadRequest, "UNKNOWN_PROVIDER"},
		{"protocol", provider.ProtocolErrf("kakao", "token http 500"), http.StatusBadGateway, "PROVIDER_PROTOCOL"},
		{"provider token expired", fmt.Errorf("x: %w", provider.ErrTokenExpired), http.StatusBadGateway, "PROVIDER_PROTOCOL"},
		{"token expired", token.ErrExpired, http.StatusUnauthorized, "TOKEN_EXPIRED"},
		{"token invalid", token.ErrInvalid, http.StatusUnauthorized, "TOKEN_INVALID"},
		{"conflict", fmt.Errorf("pair: %w", repository.ErrConflict), http.StatusConflict, "LINK_CONFLICT"},
		{"not found", repository.ErrNotFound, http.StatusNotFound, "NOT_FOUND"},
		{"invalid input", repository.ErrInvalidInput, http.StatusBadRequest, "BAD_REQUEST"},
		{"unexpected", errors.New("boom"), http.StatusInternalServerError, "INTERNAL_SERVER_ERROR"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, body := mapError(t, tc.err)
			assert.Equal(t, tc.wantStatus, status)
			assert.Equal(t, tc.wantCode, body["code"])
		})
	}
}

func TestSuspendedErrorCarriesDetails(t *testing.T) {
	deadline := time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC)
	status, body := mapError(t, &sso.SuspendedError{
		Reason: "fraud review", Deadline: deadline, Permanent: false,
	})

	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "ACCOUNT_SUSPENDED", body["code"])
	susp, ok := body["suspension"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "fraud review", susp["reason"])
	assert.Equal(t, false, susp["permanent"])
	assert.Contains(t, susp["deadline"], "2026-09-15")
}

func TestSuspendedPermanentOmitsDeadline(t *testing.T) {
	_, body := mapError(t, &sso.SuspendedError{
		Reason: "banned", Deadline: repository.PermanentDeadline, Permanent: true,
	})

	susp := body["suspension"].(map[string]any)
	assert.Equal(t, true, susp["permanent"])
	_, hasDeadline := susp["deadline"]
	assert.False(t, hasDeadline)
}
