package repository

import (
	"context"
	"time"
)

// SocialAccount joins exactly one User to one (provider, provider_user_id)
// pair. The pair is globally unique. Tokens become nil once the provider-side
// grant has been revoked; the row itself is deleted only on explicit unlink.
type SocialAccount struct {
	ID             int64
	UserID         int64
	Provider       string
	ProviderUserID string
	AccessToken    *string
	RefreshToken   *string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// LinkInput carries the fields for creating a social account row.
type LinkInput struct {
	UserID         int64
	Provider       string
	ProviderUserID string
	AccessToken    string
	RefreshToken   string
}

// SocialAccountRepository persists SocialAccount records.
type SocialAccountRepository interface {
	// GetByProviderID resolves the (provider, provider_user_id) pair.
	GetByProviderID(ctx context.Context, provider, providerUserID string) (*SocialAccount, error)
	GetByUser(ctx context.Context, userID int64) ([]SocialAccount, error)
	GetByUserAndProvider(ctx context.Context, userID int64, provider string) (*SocialAccount, error)
	// Create inserts a new link. A duplicate pair yields ErrConflict.
	Create(ctx context.Context, in LinkInput) (*SocialAccount, error)
	// UpdateTokens replaces the stored tokens for an existing link.
	UpdateTokens(ctx context.Context, id int64, accessToken, refreshToken string) error
	// ClearTokens nulls both tokens after a successful provider-side revoke.
	ClearTokens(ctx context.Context, id int64) error
	Delete(ctx context.Context, id int64) error
}
