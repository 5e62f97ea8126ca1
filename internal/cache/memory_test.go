package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryGetSet(t *testing.T) {
	m := NewMemory("t:")
	ctx := context.Background()

	_, err := m.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, m.Set(ctx, "k", "v", time.Minute))
	v, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", v)

	require.NoError(t, m.Delete(ctx, "k"))
	_, err = m.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemorySetNXOneShot(t *testing.T) {
	m := NewMemory("t:")
	ctx := context.Background()

	ok, err := m.SetNX(ctx, "jti-1", "1", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = m.SetNX(ctx, "jti-1", "1", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok, "second claim loses")
}

func TestMemorySetNXConcurrentSingleWinner(t *testing.T) {
	m := NewMemory("t:")
	ctx := context.Background()

	const n = 32
	var wg sync.WaitGroup
	wins := make(chan struct{}, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := m.SetNX(ctx, "contended", "1", time.Minute)
			assert.NoError(t, err)
			if ok {
				wins <- struct{}{}
			}
		}()
	}
	wg.Wait()
	close(wins)

	count := 0
	for range wins {
		count++
	}
	assert.Equal(t, 1, count)
}

func TestMemorySetNXExpiredKeyReclaimable(t *testing.T) {
	m := NewMemory("t:")
	ctx := context.Background()

	ok, err := m.SetNX(ctx, "short", "1", 10*time.Millisecond)
	require.NoError(t, err)
	require.True(t, ok)

	time.Sleep(30 * time.Millisecond)

	ok, err = m.SetNX(ctx, "short", "1", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok, "expired key can be claimed again")
}

func TestMemoryPrefixIsolation(t *testing.T) {
	a := NewMemory("a:")
	b := NewMemory("b:")
	ctx := context.Background()

	require.NoError(t, a.Set(ctx, "k", "from-a", 0))
	_, err := b.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestNewSelectsDriver(t *testing.T) {
	c := New(Config{Driver: "memory"})
	_, ok := c.(*Memory)
	assert.True(t, ok)

	c = New(Config{Driver: "unknown"})
	_, ok = c.(*Memory)
	assert.True(t, ok, "unknown drivers fall back to memory")

	c = New(Config{Driver: "redis", Addr: "localhost:0"})
	_, ok = c.(*Redis)
	assert.True(t, ok)
	_ = c.Close()
}
