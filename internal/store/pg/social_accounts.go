package pg

import (
	"context"

	"github.com/greenmarket/sso/internal/domain/repository"
)

type socialAccountRepo struct {
	q querier
}

const socialColumns = `id, user_id, provider, provider_user_id, access_token, refresh_token, created_at, updated_at`

func scanSocial(row interface{ Scan(dest ...any) error }) (*repository.SocialAccount, error) {
	var a repository.SocialAccount
	err := row.Scan(
		&a.ID, &a.UserID, &a.Provider, &a.ProviderUserID,
		&a.AccessToken, &a.RefreshToken, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, mapErr(err)
	}
	return &a, nil
}

func (r *socialAccountRepo) GetByProviderID(ctx context.Context, provider, providerUserID string) (*repository.SocialAccount, error) {
	return scanSocial(r.q.QueryRow(ctx,
		`SELECT `+socialColumns+` FROM social_accounts WHERE provider = $1 AND provider_user_id = $2`,
		provider, providerUserID))
}

func (r *socialAccountRepo) GetByUser(ctx context.Context, userID int64) ([]repository.SocialAccount, error) {
	rows, err := r.q.Query(ctx,
		`SELECT `+socialColumns+` FROM social_accounts WHERE user_id = $1 ORDER BY created_at`, userID)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	var accounts []repository.SocialAccount
	for rows.Next() {
		a, err := scanSocial(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, *a)
	}
	return accounts, rows.Err()
}

func (r *socialAccountRepo) GetByUserAndProvider(ctx context.Context, userID int64, provider string) (*repository.SocialAccount, error) {
	return scanSocial(r.q.QueryRow(ctx,
		`SELECT `+socialColumns+` FROM social_accounts WHERE user_id = $1 AND provider = $2`,
		userID, provider))
}

func (r *socialAccountRepo) Create(ctx context.Context, in repository.LinkInput) (*repository.SocialAccount, error) {
	// The unique index on (provider, provider_user_id) turns a duplicate
	// pair into ErrConflict via mapErr.
	return scanSocial(r.q.QueryRow(ctx, `
		INSERT INTO social_accounts (user_id, provider, provider_user_id, access_token, refresh_token)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+socialColumns,
		in.UserID, in.Provider, in.ProviderUserID, in.AccessToken, in.RefreshToken,
	))
}

func (r *socialAccountRepo) UpdateTokens(ctx context.Context, id int64, accessToken, refreshToken string) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE social_accounts SET access_token = $2, refresh_token = $3, updated_at = NOW()
		WHERE id = $1`, id, accessToken, refreshToken)
	if err != nil {
		return mapErr(err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *socialAccountRepo) ClearTokens(ctx context.Context, id int64) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE social_accounts SET access_token = NULL, refresh_token = NULL, updated_at = NOW()
		WHERE id = $1`, id)
	if err != nil {
		return mapErr(err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *socialAccountRepo) Delete(ctx context.Context, id int64) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM social_accounts WHERE id = $1`, id)
	if err != nil {
		return mapErr(err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}
