// Package pg is the PostgreSQL adapter for the repository contracts.
package pg

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/greenmarket/sso/internal/domain/repository"
)

// querier is the subset of pgx shared by *pgxpool.Pool and pgx.Tx, so the
// same repo code serves both pooled and transactional access.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Config tunes the connection pool.
type Config struct {
	DSN             string
	MaxConns        int32
	ConnMaxLifetime time.Duration
}

// Store implements repository.Store on a pgx pool.
type Store struct {
	pool *pgxpool.Pool
}

// Connect opens a pool and verifies connectivity.
func Connect(ctx context.Context, cfg Config) (*Store, error) {
	pcfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		pcfg.MaxConns = cfg.MaxConns
	}
	if cfg.ConnMaxLifetime > 0 {
		pcfg.MaxConnLifetime = cfg.ConnMaxLifetime
	}
	pool, err := pgxpool.NewWithConfig(ctx, pcfg)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return &Store{pool: pool}, nil
}

// NewStore wraps an existing pool (tests, shared pools).
func NewStore(pool *pgxpool.Pool) *Store { return &Store{pool: pool} }

// Pool exposes the underlying pool for migrations and health checks.
func (s *Store) Pool() *pgxpool.Pool { return s.pool }

// Close releases the pool.
func (s *Store) Close() { s.pool.Close() }

func reposFor(q querier) repository.Repos {
	return repository.Repos{
		Users:    &userRepo{q: q},
		Social:   &socialAccountRepo{q: q},
		Suspends: &suspensionRepo{q: q},
	}
}

// Repos returns pool-backed repositories (auto-commit semantics).
func (s *Store) Repos() repository.Repos { return reposFor(s.pool) }

// RunTx runs fn inside a single transaction. Writes through the passed repos
// become visible only on commit.
func (s *Store) RunTx(ctx context.Context, fn func(r repository.Repos) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := fn(reposFor(tx)); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// mapErr translates pgx errors into repository sentinels.
func mapErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return repository.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return repository.ErrConflict
	}
	return err
}
