package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestOpen_Validation(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("empty URL", func(t *testing.T) {
		t.Parallel()

		client, err := Open(ctx, Config{})
		require.ErrorIs(t, err, ErrEmptyConnectionURL)
		require.Nil(t, client)
	})

	tests := []struct {
		name string
		url  string
	}{
		{name: "http scheme", url: "http://localhost:6379"},
		{name: "no scheme", url: "localhost:6379"},
		{name: "invalid port", url: "redis://localhost:notaport"},
		{name: "invalid database", url: "redis://localhost:6379/notanumber"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			client, err := Open(ctx, Config{URL: tt.url})
			require.ErrorIs(t, err, ErrFailedToParseURL)
			require.Nil(t, client)
		})
	}
}

func TestOpen_ConnectionFailure(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	// Port 1 is reserved; the dial is refused immediately.
	client, err := Open(ctx, Config{
		URL:           "redis://127.0.0.1:1/0",
		RetryAttempts: 2,
		RetryInterval: 10 * time.Millisecond,
		DialTimeout:   100 * time.Millisecond,
	})
	require.ErrorIs(t, err, ErrConnectionFailed)
	require.Nil(t, client)
}

func TestConfig_WithDefaults(t *testing.T) {
	t.Parallel()

	cfg := Config{URL: "redis://localhost:6379/0"}.withDefaults()
	require.Equal(t, 10, cfg.PoolSize)
	require.Equal(t, 1, cfg.RetryAttempts)
	require.Equal(t, 3*time.Second, cfg.ReadTimeout)
}

func TestHealthcheck_NilClient(t *testing.T) {
	t.Parallel()

	err := Healthcheck(nil)(context.Background())
	require.True(t, errors.Is(err, ErrHealthcheckFailed))
}

type closer struct{ closed bool }

func (c *closer) Close() error {
	c.closed = true
	return nil
}

func TestShutdown(t *testing.T) {
	t.Parallel()

	c := &closer{}
	require.NoError(t, Shutdown(c)(context.Background()))
	require.True(t, c.closed)
}
