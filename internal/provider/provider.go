// Package provider defines the uniform SSO provider contract.
//
// Every provider implements the same four-operation capability set
// (exchange, profile fetch, token refresh, link revoke) plus profile
// normalization. Provider selection is a pure registry lookup, so adding a
// provider never touches resolver or link-manager code.
package provider

import "context"

// RawProfile is the provider's profile payload as decoded JSON, before
// normalization.
type RawProfile map[string]any

// TokenSet contains tokens received from the provider's token endpoint.
type TokenSet struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    int
	TokenType    string
}

// RevokeGrant carries the credential material for a provider-side unlink.
// Bearer-class providers use AccessToken; admin-key-class providers key off
// the external user id.
type RevokeGrant struct {
	AccessToken    string
	ProviderUserID string
}

// Client is the per-provider protocol adapter.
type Client interface {
	Name() string

	// ExchangeCode trades an authorization code for provider tokens.
	// A missing access token, a non-2xx status or a malformed body yields
	// an error wrapping ErrProtocol.
	ExchangeCode(ctx context.Context, code string) (*TokenSet, error)

	// FetchProfile retrieves the raw profile for the access token.
	FetchProfile(ctx context.Context, accessToken string) (RawProfile, error)

	// Normalize maps the raw payload into the canonical shape. It never
	// fails on absent optional fields; a missing external id wraps
	// ErrProtocol.
	Normalize(raw RawProfile) (*CanonicalProfile, error)

	// RefreshAccessToken obtains a fresh access token from a refresh token.
	RefreshAccessToken(ctx context.Context, refreshToken string) (string, error)

	// RevokeLink severs the provider-side authorization grant. An HTTP
	// 401-equivalent response yields an error wrapping ErrTokenExpired so
	// the caller can refresh and retry exactly once.
	RevokeLink(ctx context.Context, grant RevokeGrant) error
}

// Config is the per-provider configuration injected at construction.
// Credentials live in the config file, never in code or ambient globals.
type Config struct {
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	RedirectURI  string `yaml:"redirect_uri"`
	// AdminKey is used by providers whose unlink API authenticates with a
	// service-level key instead of the user's access token.
	AdminKey string `yaml:"admin_key"`
}
