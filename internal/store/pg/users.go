package pg

import (
	"context"
	"time"

	"github.com/greenmarket/sso/internal/domain/repository"
)

type userRepo struct {
	q querier
}

const userColumns = `id, email, phone, nickname, status, role, last_login_at, deleted_at, created_at, updated_at`

func (r *userRepo) scanUser(row interface{ Scan(dest ...any) error }) (*repository.User, error) {
	var u repository.User
	err := row.Scan(
		&u.ID, &u.Email, &u.Phone, &u.Nickname, &u.Status, &u.Role,
		&u.LastLoginAt, &u.DeletedAt, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, mapErr(err)
	}
	return &u, nil
}

func (r *userRepo) GetByID(ctx context.Context, id int64) (*repository.User, error) {
	return r.scanUser(r.q.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (*repository.User, error) {
	return r.scanUser(r.q.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1`, email))
}

func (r *userRepo) GetByPhone(ctx context.Context, phone string) (*repository.User, error) {
	// Withdrawn users are not linkable; the canonical-phone invariant only
	// covers live rows.
	return r.scanUser(r.q.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE phone = $1 AND status <> 'WITHDRAWN'`, phone))
}

func (r *userRepo) Create(ctx context.Context, in repository.CreateUserInput) (*repository.User, error) {
	return r.scanUser(r.q.QueryRow(ctx, `
		INSERT INTO users (email, phone, nickname, birth_year, birthday, gender, status, role)
		VALUES ($1, $2, $3, $4, $5, $6, 'ACTIVE', 'USER')
		RETURNING `+userColumns,
		in.Email, in.Phone, in.Nickname, in.BirthYear, in.Birthday, in.Gender,
	))
}

func (r *userRepo) UpdateLastLogin(ctx context.Context, id int64, at time.Time) error {
	tag, err := r.q.Exec(ctx,
		`UPDATE users SET last_login_at = $2, updated_at = NOW() WHERE id = $1`, id, at)
	if err != nil {
		return mapErr(err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *userRepo) Withdraw(ctx context.Context, id int64, at time.Time) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE users SET status = 'WITHDRAWN', deleted_at = $2, updated_at = NOW()
		WHERE id = $1 AND status <> 'WITHDRAWN'`, id, at)
	if err != nil {
		return mapErr(err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}
