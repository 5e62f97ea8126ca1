package cache

import (
	"context"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Memory is the in-process backend, backed by go-cache.
type Memory struct {
	mu     sync.Mutex
	prefix string
	c      *gocache.Cache
}

// NewMemory creates a memory cache with a 1m janitor.
func NewMemory(prefix string) *Memory {
	return &Memory{
		prefix: prefix,
		c:      gocache.New(gocache.NoExpiration, time.Minute),
	}
}

func (m *Memory) key(k string) string { return m.prefix + k }

func (m *Memory) Get(_ context.Context, key string) (string, error) {
	v, ok := m.c.Get(m.key(key))
	if !ok {
		return "", ErrNotFound
	}
	s, _ := v.(string)
	return s, nil
}

func (m *Memory) Set(_ context.Context, key, value string, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = gocache.NoExpiration
	}
	m.c.Set(m.key(key), value, ttl)
	return nil
}

func (m *Memory) SetNX(_ context.Context, key, value string, ttl time.Duration) (bool, error) {
	if ttl <= 0 {
		ttl = gocache.NoExpiration
	}
	// go-cache's Add is already add-if-absent; the mutex keeps SetNX atomic
	// with respect to concurrent SetNX callers on the same key.
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.c.Add(m.key(key), value, ttl); err != nil {
		return false, nil
	}
	return true, nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.c.Delete(m.key(key))
	return nil
}

func (m *Memory) Close() error { return nil }
