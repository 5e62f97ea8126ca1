// Package google implements the Google OAuth 2.0 provider.
package google

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/greenmarket/sso/internal/provider"
)

const ProviderName = "google"

const (
	defaultTokenEndpoint   = "https://oauth2.googleapis.com/token"
	defaultProfileEndpoint = "https://openidconnect.googleapis.com/v1/userinfo"
	defaultRevokeEndpoint  = "https://oauth2.googleapis.com/revoke"
)

// Client is the Google protocol adapter.
type Client struct {
	clientID     string
	clientSecret string
	redirectURI  string

	tokenEndpoint   string
	profileEndpoint string
	revokeEndpoint  string

	http *http.Client
}

// Factory creates a configured Google client.
func Factory(cfg provider.Config) (provider.Client, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, fmt.Errorf("google: client_id and client_secret required")
	}
	return &Client{
		clientID:        cfg.ClientID,
		clientSecret:    cfg.ClientSecret,
		redirectURI:     cfg.RedirectURI,
		tokenEndpoint:   defaultTokenEndpoint,
		profileEndpoint: defaultProfileEndpoint,
		revokeEndpoint:  defaultRevokeEndpoint,
		http:            &http.Client{Timeout: 10 * time.Second},
	}, nil
}

func (c *Client) Name() string { return ProviderName }

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
	TokenType    string `json:"token_type"`
	Error        string `json:"error,omitempty"`
	ErrorDesc    string `json:"error_description,omitempty"`
}

func (c *Client) postToken(ctx context.Context, form url.Values) (*tokenResponse, error) {
	req, err := http.NewRequestWithContext(ctx, "POST", c.tokenEndpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("google: token request: %w", err)
	}
	defer resp.Body.Close()

	var tr tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return nil, provider.ProtocolErrf(ProviderName, "decode token response: %v", err)
	}
	if tr.Error != "" {
		return nil, provider.ProtocolErrf(ProviderName, "token endpoint error: %s %s", tr.Error, tr.ErrorDesc)
	}
	if resp.StatusCode/100 != 2 {
		return nil, provider.ProtocolErrf(ProviderName, "token http %d", resp.StatusCode)
	}
	if tr.AccessToken == "" {
		return nil, provider.ProtocolErrf(ProviderName, "no access_token in response")
	}
	return &tr, nil
}

// ExchangeCode exchanges an authorization code for tokens.
func (c *Client) ExchangeCode(ctx context.Context, code string) (*provider.TokenSet, error) {
	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)
	form.Set("client_id", c.clientID)
	form.Set("client_secret", c.clientSecret)
	form.Set("redirect_uri", c.redirectURI)

	tr, err := c.postToken(ctx, form)
	if err != nil {
		return nil, err
	}
	return &provider.TokenSet{
		AccessToken:  tr.AccessToken,
		RefreshToken: tr.RefreshToken,
		ExpiresIn:    tr.ExpiresIn,
		TokenType:    tr.TokenType,
	}, nil
}

// RefreshAccessToken obtains a fresh access token from a refresh token.
func (c *Client) RefreshAccessToken(ctx context.Context, refreshToken string) (string, error) {
	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", refreshToken)
	form.Set("client_id", c.clientID)
	form.Set("client_secret", c.clientSecret)

	tr, err := c.postToken(ctx, form)
	if err != nil {
		return "", err
	}
	return tr.AccessToken, nil
}

// FetchProfile retrieves the raw userinfo payload for the access token.
func (c *Client) FetchProfile(ctx context.Context, accessToken string) (provider.RawProfile, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", c.profileEndpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("google: userinfo request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, fmt.Errorf("google: userinfo http 401: %w", provider.ErrTokenExpired)
	}
	if resp.StatusCode/100 != 2 {
		return nil, provider.ProtocolErrf(ProviderName, "userinfo http %d", resp.StatusCode)
	}

	var raw provider.RawProfile
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, provider.ProtocolErrf(ProviderName, "decode userinfo: %v", err)
	}
	return raw, nil
}

// Normalize maps the userinfo payload into the canonical profile. Google
// reports no phone or birth fields through the basic scopes; those stay
// empty.
func (c *Client) Normalize(raw provider.RawProfile) (*provider.CanonicalProfile, error) {
	id := provider.Str(raw, "sub")
	if id == "" {
		return nil, provider.ProtocolErrf(ProviderName, "userinfo missing sub")
	}
	return &provider.CanonicalProfile{
		Provider:   ProviderName,
		ExternalID: id,
		Name:       provider.Str(raw, "name"),
		Email:      provider.Str(raw, "email"),
		Gender:     provider.Str(raw, "gender"),
	}, nil
}

// RevokeLink revokes the grant using the bearer access token.
func (c *Client) RevokeLink(ctx context.Context, grant provider.RevokeGrant) error {
	form := url.Values{}
	form.Set("token", grant.AccessToken)

	req, err := http.NewRequestWithContext(ctx, "POST", c.revokeEndpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("google: revoke request: %w", err)
	}
	defer resp.Body.Close()

	// Google answers 400 invalid_token for stale tokens; treat it like a 401
	// so the caller refreshes and retries.
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusBadRequest {
		return fmt.Errorf("google: revoke http %d: %w", resp.StatusCode, provider.ErrTokenExpired)
	}
	if resp.StatusCode/100 != 2 {
		return provider.ProtocolErrf(ProviderName, "revoke http %d", resp.StatusCode)
	}
	return nil
}
