package config_test

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/bxsite/internal/config"
)

// These tests mutate the process environment and cannot run in parallel.

func missing(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "absent.env")
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("AUTH_JWT_SECRET", "0123456789abcdef0123456789abcdef")

	cfg, err := config.Load(missing(t))
	require.NoError(t, err)

	assert.Equal(t, "bxsite.com", cfg.PlatformDomain)
	assert.Equal(t, config.StoreRedis, cfg.StoreBackend)
	assert.Empty(t, cfg.SweepSchedule)
	assert.False(t, cfg.DebugRoutes)
	assert.Equal(t, ":8080", cfg.HTTP.Address)
	assert.Equal(t, 20*time.Second, cfg.HTTP.RequestTimeout)
	assert.Equal(t, 5*time.Second, cfg.DNS.AttemptTimeout)
	assert.Equal(t, 15*time.Second, cfg.DNS.Timeout)
	assert.True(t, cfg.DNS.UseDoH)
	assert.Equal(t, 5, cfg.Limits.MaxSitesPerAccount)
	assert.Equal(t, 10, cfg.Limits.WritesPerWindow)
	assert.Equal(t, time.Minute, cfg.Limits.WriteWindow)
	assert.Equal(t, "redis://localhost:6379/0", cfg.Redis.URL)
	assert.Equal(t, slog.LevelInfo, cfg.Log.Level)
	assert.Equal(t, slog.LevelWarn, cfg.Log.Sentry.MinLevel)
	assert.Equal(t, "https://api.vercel.com", cfg.Vercel.BaseURL)
	assert.False(t, cfg.Vercel.Configured())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("AUTH_JWT_SECRET", "secret")
	t.Setenv("PLATFORM_DOMAIN", "pages.example.net")
	t.Setenv("STORE_BACKEND", "memory")
	t.Setenv("SWEEP_SCHEDULE", "*/10 * * * *")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("MAX_SITES_PER_ACCOUNT", "3")
	t.Setenv("VERCEL_TOKEN", "tok")
	t.Setenv("VERCEL_PROJECT_ID", "prj")

	cfg, err := config.Load(missing(t))
	require.NoError(t, err)

	assert.Equal(t, "pages.example.net", cfg.PlatformDomain)
	assert.Equal(t, config.StoreMemory, cfg.StoreBackend)
	assert.Equal(t, "*/10 * * * *", cfg.SweepSchedule)
	assert.Equal(t, slog.LevelDebug, cfg.Log.Level)
	assert.Equal(t, 3, cfg.Limits.MaxSitesPerAccount)
	assert.True(t, cfg.Vercel.Configured())
}

func TestLoadEnvFile(t *testing.T) {
	t.Setenv("AUTH_JWT_SECRET", "secret")

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("DNS_ATTEMPT_TIMEOUT=2s\nDEBUG_ROUTES=true\n"), 0o600))
	t.Cleanup(func() {
		_ = os.Unsetenv("DNS_ATTEMPT_TIMEOUT")
		_ = os.Unsetenv("DEBUG_ROUTES")
	})

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2*time.Second, cfg.DNS.AttemptTimeout)
	assert.True(t, cfg.DebugRoutes)
}

func TestLoadRejects(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr error
	}{
		{
			name:    "missing jwt secret",
			env:     map[string]string{"AUTH_JWT_SECRET": ""},
			wantErr: config.ErrInvalid,
		},
		{
			name:    "unknown store backend",
			env:     map[string]string{"AUTH_JWT_SECRET": "s", "STORE_BACKEND": "etcd"},
			wantErr: config.ErrInvalid,
		},
		{
			name:    "bad sweep schedule",
			env:     map[string]string{"AUTH_JWT_SECRET": "s", "SWEEP_SCHEDULE": "every minute"},
			wantErr: config.ErrInvalid,
		},
		{
			name:    "six field sweep schedule",
			env:     map[string]string{"AUTH_JWT_SECRET": "s", "SWEEP_SCHEDULE": "0 */5 * * * *"},
			wantErr: config.ErrInvalid,
		},
		{
			name:    "overall dns timeout below attempt timeout",
			env:     map[string]string{"AUTH_JWT_SECRET": "s", "DNS_ATTEMPT_TIMEOUT": "10s", "DNS_TIMEOUT": "1s"},
			wantErr: config.ErrInvalid,
		},
		{
			name:    "malformed duration",
			env:     map[string]string{"AUTH_JWT_SECRET": "s", "WRITE_WINDOW": "soon"},
			wantErr: config.ErrParse,
		},
		{
			name:    "platform domain not a hostname",
			env:     map[string]string{"AUTH_JWT_SECRET": "s", "PLATFORM_DOMAIN": "not a domain"},
			wantErr: config.ErrInvalid,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := config.Load(missing(t))
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestDevSkipAuthWithoutSecret(t *testing.T) {
	t.Setenv("AUTH_JWT_SECRET", "")
	t.Setenv("BXSITE_DEV_SKIP_AUTH", "1")

	cfg, err := config.Load(missing(t))
	require.NoError(t, err)
	assert.True(t, cfg.Auth.DevSkipAuth)
	assert.Empty(t, cfg.Auth.JWTSecret)
}
