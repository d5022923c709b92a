package kv_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/bxsite/pkg/kv"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newStore(t *testing.T, opts ...kv.MemoryOption) *kv.Memory {
	t.Helper()

	s := kv.NewMemory(append([]kv.MemoryOption{kv.WithCleanupInterval(0)}, opts...)...)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestMemory_GetSetDelete(t *testing.T) {
	t.Parallel()

	t.Run("missing key returns ErrNotFound", func(t *testing.T) {
		t.Parallel()

		_, err := newStore(t).Get(context.Background(), "missing")
		require.ErrorIs(t, err, kv.ErrNotFound)
	})

	t.Run("round trip", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		s := newStore(t)
		require.NoError(t, s.Set(ctx, "k", []byte("v"), 0))

		got, err := s.Get(ctx, "k")
		require.NoError(t, err)
		require.Equal(t, []byte("v"), got)

		require.NoError(t, s.Delete(ctx, "k"))
		_, err = s.Get(ctx, "k")
		require.ErrorIs(t, err, kv.ErrNotFound)
	})

	t.Run("expired key is gone", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		clock := newFakeClock()
		s := newStore(t, kv.WithClock(clock.Now))
		require.NoError(t, s.Set(ctx, "k", []byte("v"), time.Second))

		clock.Advance(time.Second)

		_, err := s.Get(ctx, "k")
		require.ErrorIs(t, err, kv.ErrNotFound)
	})

	t.Run("delete missing key is not an error", func(t *testing.T) {
		t.Parallel()

		require.NoError(t, newStore(t).Delete(context.Background(), "nope"))
	})
}

func TestMemory_Hit(t *testing.T) {
	t.Parallel()

	t.Run("hits age out individually", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		clock := newFakeClock()
		s := newStore(t, kv.WithClock(clock.Now))

		ok, _, err := s.Hit(ctx, "w", 2, time.Minute)
		require.NoError(t, err)
		require.True(t, ok)

		clock.Advance(30 * time.Second)
		ok, _, err = s.Hit(ctx, "w", 2, time.Minute)
		require.NoError(t, err)
		require.True(t, ok)

		ok, retryAfter, err := s.Hit(ctx, "w", 2, time.Minute)
		require.NoError(t, err)
		require.False(t, ok)
		require.Equal(t, 30*time.Second, retryAfter)

		clock.Advance(30 * time.Second)
		ok, _, err = s.Hit(ctx, "w", 2, time.Minute)
		require.NoError(t, err)
		require.True(t, ok, "first hit is exactly one window old")

		ok, retryAfter, err = s.Hit(ctx, "w", 2, time.Minute)
		require.NoError(t, err)
		require.False(t, ok)
		require.Equal(t, 30*time.Second, retryAfter)
	})

	t.Run("log expires after the last hit", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		clock := newFakeClock()
		s := newStore(t, kv.WithClock(clock.Now))

		_, _, err := s.Hit(ctx, "w", 5, time.Minute)
		require.NoError(t, err)

		var keys []string
		require.NoError(t, s.Scan(ctx, "w", func(k string) error { keys = append(keys, k); return nil }))
		require.Equal(t, []string{"w"}, keys)

		clock.Advance(time.Minute)
		keys = nil
		require.NoError(t, s.Scan(ctx, "w", func(k string) error { keys = append(keys, k); return nil }))
		require.Empty(t, keys)
	})

	t.Run("concurrent hits respect the limit", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		s := newStore(t)

		var (
			wg       sync.WaitGroup
			mu       sync.Mutex
			accepted int
		)
		for range 50 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if ok, _, _ := s.Hit(ctx, "w", 10, time.Minute); ok {
					mu.Lock()
					accepted++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()

		require.Equal(t, 10, accepted)
	})

	t.Run("type and argument errors", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		s := newStore(t)
		require.NoError(t, s.SAdd(ctx, "set", "a"))

		_, _, err := s.Hit(ctx, "set", 1, time.Minute)
		require.ErrorIs(t, err, kv.ErrWrongType)

		_, _, err = s.Hit(ctx, "w", 0, time.Minute)
		require.ErrorIs(t, err, kv.ErrInvalidWindow)

		_, _, err = s.Hit(ctx, "w", 1, time.Minute)
		require.NoError(t, err)
		_, err = s.Get(ctx, "w")
		require.ErrorIs(t, err, kv.ErrWrongType)
	})
}

func TestMemory_Sets(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := newStore(t)

	members, err := s.SMembers(ctx, "owners")
	require.NoError(t, err)
	require.Empty(t, members)

	require.NoError(t, s.SAdd(ctx, "owners", "a", "b", "a"))
	members, err = s.SMembers(ctx, "owners")
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"a", "b"}, members)

	require.NoError(t, s.SRem(ctx, "owners", "a", "b"))
	members, err = s.SMembers(ctx, "owners")
	require.NoError(t, err)
	require.Empty(t, members)

	require.NoError(t, s.Set(ctx, "plain", []byte("x"), 0))
	_, err = s.SMembers(ctx, "plain")
	require.ErrorIs(t, err, kv.ErrWrongType)
}

func TestMemory_Scan(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := newStore(t)
	require.NoError(t, s.Set(ctx, "site:b", []byte("1"), 0))
	require.NoError(t, s.Set(ctx, "site:a", []byte("1"), 0))
	require.NoError(t, s.Set(ctx, "domain:x.com", []byte("a"), 0))

	var keys []string
	err := s.Scan(ctx, "site:", func(key string) error {
		keys = append(keys, key)
		// Mutating during scan must not deadlock.
		return s.Delete(ctx, key)
	})
	require.NoError(t, err)
	require.Equal(t, []string{"site:a", "site:b"}, keys)
}

func TestMemory_JSONHelpers(t *testing.T) {
	t.Parallel()

	type record struct {
		Name string `json:"name"`
	}

	ctx := context.Background()
	s := newStore(t)
	require.NoError(t, kv.SetJSON(ctx, s, "r", record{Name: "n"}, 0))

	var got record
	require.NoError(t, kv.GetJSON(ctx, s, "r", &got))
	require.Equal(t, "n", got.Name)

	require.NoError(t, s.Set(ctx, "bad", []byte("{"), 0))
	require.ErrorIs(t, kv.GetJSON(ctx, s, "bad", &got), kv.ErrUnmarshal)
}

func TestMemory_Closed(t *testing.T) {
	t.Parallel()

	s := kv.NewMemory()
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	require.ErrorIs(t, s.Set(context.Background(), "k", nil, 0), kv.ErrClosed)
}
