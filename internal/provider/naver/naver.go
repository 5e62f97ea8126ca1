// Package naver implements the Naver OAuth 2.0 provider. Naver wraps the
// profile under a "response" envelope and revokes grants through the token
// endpoint with grant_type=delete using the user's access token.
package naver

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/greenmarket/sso/internal/provider"
)

const ProviderName = "naver"

const (
	defaultTokenEndpoint   = "https://nid.naver.com/oauth2.0/token"
	defaultProfileEndpoint = "https://openapi.naver.com/v1/nid/me"
)

// Client is the Naver protocol adapter.
type Client struct {
	clientID     string
	clientSecret string

	tokenEndpoint   string
	profileEndpoint string

	http *http.Client
}

// Factory creates a configured Naver client.
func Factory(cfg provider.Config) (provider.Client, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, fmt.Errorf("naver: client_id and client_secret required")
	}
	return &Client{
		clientID:        cfg.ClientID,
		clientSecret:    cfg.ClientSecret,
		tokenEndpoint:   defaultTokenEndpoint,
		profileEndpoint: defaultProfileEndpoint,
		http:            &http.Client{Timeout: 10 * time.Second},
	}, nil
}

func (c *Client) Name() string { return ProviderName }

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    string `json:"expires_in"` // Naver returns this as a string
	Error        string `json:"error,omitempty"`
	ErrorDesc    string `json:"error_description,omitempty"`
	Result       string `json:"result,omitempty"` // "success" on delete
}

// Naver's token endpoint takes everything as query parameters.
func (c *Client) callToken(ctx context.Context, params url.Values) (*tokenResponse, error) {
	params.Set("client_id", c.clientID)
	params.Set("client_secret", c.clientSecret)

	req, err := http.NewRequestWithContext(ctx, "GET", c.tokenEndpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("naver: token request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, fmt.Errorf("naver: token http 401: %w", provider.ErrTokenExpired)
	}
	if resp.StatusCode/100 != 2 {
		return nil, provider.ProtocolErrf(ProviderName, "token http %d", resp.StatusCode)
	}

	var tr tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return nil, provider.ProtocolErrf(ProviderName, "decode token response: %v", err)
	}
	if tr.Error != "" {
		// invalid_token on delete means the access token is stale, not a
		// broken exchange
		if tr.Error == "invalid_token" {
			return nil, fmt.Errorf("naver: %s: %w", tr.ErrorDesc, provider.ErrTokenExpired)
		}
		return nil, provider.ProtocolErrf(ProviderName, "token endpoint error: %s %s", tr.Error, tr.ErrorDesc)
	}
	return &tr, nil
}

// ExchangeCode exchanges an authorization code for tokens.
func (c *Client) ExchangeCode(ctx context.Context, code string) (*provider.TokenSet, error) {
	params := url.Values{}
	params.Set("grant_type", "authorization_code")
	params.Set("code", code)

	tr, err := c.callToken(ctx, params)
	if err != nil {
		return nil, err
	}
	if tr.AccessToken == "" {
		return nil, provider.ProtocolErrf(ProviderName, "no access_token in response")
	}
	expires := 0
	fmt.Sscanf(tr.ExpiresIn, "%d", &expires)
	return &provider.TokenSet{
		AccessToken:  tr.AccessToken,
		RefreshToken: tr.RefreshToken,
		ExpiresIn:    expires,
		TokenType:    tr.TokenType,
	}, nil
}

// RefreshAccessToken obtains a fresh access token from a refresh token.
func (c *Client) RefreshAccessToken(ctx context.Context, refreshToken string) (string, error) {
	params := url.Values{}
	params.Set("grant_type", "refresh_token")
	params.Set("refresh_token", refreshToken)

	tr, err := c.callToken(ctx, params)
	if err != nil {
		return "", err
	}
	if tr.AccessToken == "" {
		return "", provider.ProtocolErrf(ProviderName, "no access_token in refresh response")
	}
	return tr.AccessToken, nil
}

// FetchProfile retrieves the raw Naver profile for the access token.
func (c *Client) FetchProfile(ctx context.Context, accessToken string) (provider.RawProfile, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", c.profileEndpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("naver: profile request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, fmt.Errorf("naver: profile http 401: %w", provider.ErrTokenExpired)
	}
	if resp.StatusCode/100 != 2 {
		return nil, provider.ProtocolErrf(ProviderName, "profile http %d", resp.StatusCode)
	}

	var raw provider.RawProfile
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, provider.ProtocolErrf(ProviderName, "decode profile: %v", err)
	}
	return raw, nil
}

// Normalize maps the Naver payload into the canonical profile.
func (c *Client) Normalize(raw provider.RawProfile) (*provider.CanonicalProfile, error) {
	res := provider.Sub(raw, "response")
	id := provider.Str(res, "id")
	if id == "" {
		return nil, provider.ProtocolErrf(ProviderName, "profile missing response.id")
	}

	name := provider.Str(res, "name")
	if name == "" {
		name = provider.Str(res, "nickname")
	}

	return &provider.CanonicalProfile{
		Provider:   ProviderName,
		ExternalID: id,
		Name:       name,
		Email:      provider.Str(res, "email"),
		Phone:      provider.CanonicalPhone(provider.Str(res, "mobile")),
		BirthYear:  provider.Str(res, "birthyear"),
		Birthday:   provider.Str(res, "birthday"),
		Gender:     provider.Str(res, "gender"),
	}, nil
}

// RevokeLink deletes the grant via grant_type=delete with the user's access
// token. A stale token surfaces as ErrTokenExpired so the caller can refresh
// and retry once.
func (c *Client) RevokeLink(ctx context.Context, grant provider.RevokeGrant) error {
	params := url.Values{}
	params.Set("grant_type", "delete")
	params.Set("access_token", grant.AccessToken)
	params.Set("service_provider", "NAVER")

	tr, err := c.callToken(ctx, params)
	if err != nil {
		return err
	}
	if tr.Result != "success" {
		return provider.ProtocolErrf(ProviderName, "unlink result %q", tr.Result)
	}
	return nil
}
