// Package kakao implements the Kakao OAuth 2.0 provider. Kakao reports the
// external id as a number and nests account fields under kakao_account;
// unlink goes through the admin API authenticated with a service-level key.
package kakao

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/greenmarket/sso/internal/provider"
)

const ProviderName = "kakao"

const (
	defaultTokenEndpoint   = "https://kauth.kakao.com/oauth/token"
	defaultProfileEndpoint = "https://kapi.kakao.com/v2/user/me"
	defaultUnlinkEndpoint  = "https://kapi.kakao.com/v1/user/unlink"
)

// Client is the Kakao protocol adapter.
type Client struct {
	clientID     string
	clientSecret string
	redirectURI  string
	adminKey     string

	tokenEndpoint   string
	profileEndpoint string
	unlinkEndpoint  string

	http *http.Client
}

// Factory creates a configured Kakao client.
func Factory(cfg provider.Config) (provider.Client, error) {
	if cfg.ClientID == "" {
		return nil, fmt.Errorf("kakao: client_id required")
	}
	if cfg.AdminKey == "" {
		return nil, fmt.Errorf("kakao: admin_key required for unlink")
	}
	return &Client{
		clientID:        cfg.ClientID,
		clientSecret:    cfg.ClientSecret,
		redirectURI:     cfg.RedirectURI,
		adminKey:        cfg.AdminKey,
		tokenEndpoint:   defaultTokenEndpoint,
		profileEndpoint: defaultProfileEndpoint,
		unlinkEndpoint:  defaultUnlinkEndpoint,
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

// ExchangeCode exchanges an authorization code for tokens.
func (c *Client) ExchangeCode(ctx context.Context, code string) (*provider.TokenSet, error) {
	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("client_id", c.clientID)
	form.Set("client_secret", c.clientSecret)
	form.Set("redirect_uri", c.redirectURI)
	form.Set("code", code)

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
	form.Set("client_id", c.clientID)
	form.Set("client_secret", c.clientSecret)
	form.Set("refresh_token", refreshToken)

	tr, err := c.postToken(ctx, form)
	if err != nil {
		return "", err
	}
	return tr.AccessToken, nil
}

func (c *Client) postToken(ctx context.Context, form url.Values) (*tokenResponse, error) {
	req, err := http.NewRequestWithContext(ctx, "POST", c.tokenEndpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded;charset=utf-8")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("kakao: token request: %w", err)
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

// FetchProfile retrieves the raw Kakao profile for the access token.
func (c *Client) FetchProfile(ctx context.Context, accessToken string) (provider.RawProfile, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", c.profileEndpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("kakao: profile request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, fmt.Errorf("kakao: profile http 401: %w", provider.ErrTokenExpired)
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

// Normalize maps the Kakao payload into the canonical profile. Absent
// optional fields become empty; a missing id is a protocol error.
func (c *Client) Normalize(raw provider.RawProfile) (*provider.CanonicalProfile, error) {
	id := externalID(raw["id"])
	if id == "" {
		return nil, provider.ProtocolErrf(ProviderName, "profile missing id")
	}

	account := provider.Sub(raw, "kakao_account")
	prof := provider.Sub(account, "profile")

	return &provider.CanonicalProfile{
		Provider:   ProviderName,
		ExternalID: id,
		Name:       provider.Str(prof, "nickname"),
		Email:      provider.Str(account, "email"),
		Phone:      provider.CanonicalPhone(provider.Str(account, "phone_number")),
		BirthYear:  provider.Str(account, "birthyear"),
		Birthday:   provider.Str(account, "birthday"),
		Gender:     provider.Str(account, "gender"),
	}, nil
}

// RevokeLink severs the grant via the admin API. The admin key never
// expires, but Kakao still answers 401 when the key is rejected; that is
// classified like any other expired-credential response so the caller's
// retry policy stays uniform.
func (c *Client) RevokeLink(ctx context.Context, grant provider.RevokeGrant) error {
	form := url.Values{}
	form.Set("target_id_type", "user_id")
	form.Set("target_id", grant.ProviderUserID)

	req, err := http.NewRequestWithContext(ctx, "POST", c.unlinkEndpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded;charset=utf-8")
	req.Header.Set("Authorization", "KakaoAK "+c.adminKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("kakao: unlink request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return fmt.Errorf("kakao: unlink http 401: %w", provider.ErrTokenExpired)
	}
	if resp.StatusCode/100 != 2 {
		return provider.ProtocolErrf(ProviderName, "unlink http %d", resp.StatusCode)
	}
	return nil
}

// externalID renders the numeric Kakao id as a string. JSON numbers decode
// to float64; ids fit in int64 without precision loss in practice, but both
// shapes are accepted.
func externalID(v any) string {
	switch n := v.(type) {
	case float64:
		return strconv.FormatInt(int64(n), 10)
	case json.Number:
		return n.String()
	case string:
		return n
	default:
		return ""
	}
}
