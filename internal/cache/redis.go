package cache

import (
	"context"
	"errors"
	"time"

	rdb "github.com/redis/go-redis/v9"
)

// Redis is the shared backend, backed by go-redis.
type Redis struct {
	prefix string
	c      *rdb.Client
}

// NewRedis creates a redis cache client.
func NewRedis(addr string, db int, prefix string) *Redis {
	return &Redis{
		prefix: prefix,
		c:      rdb.NewClient(&rdb.Options{Addr: addr, DB: db}),
	}
}

func (r *Redis) key(k string) string { return r.prefix + k }

func (r *Redis) Get(ctx context.Context, key string) (string, error) {
	v, err := r.c.Get(ctx, r.key(key)).Result()
	if errors.Is(err, rdb.Nil) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return v, nil
}

func (r *Redis) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return r.c.Set(ctx, r.key(key), value, ttl).Err()
}

func (r *Redis) SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	return r.c.SetNX(ctx, r.key(key), value, ttl).Result()
}

func (r *Redis) Delete(ctx context.Context, key string) error {
	return r.c.Del(ctx, r.key(key)).Err()
}

func (r *Redis) Close() error { return r.c.Close() }
