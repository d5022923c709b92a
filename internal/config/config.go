// Package config loads the service configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/dmitrymomot/bxsite/internal/sweeper"
	"github.com/dmitrymomot/bxsite/pkg/logger"
	"github.com/dmitrymomot/bxsite/pkg/redis"
	"github.com/dmitrymomot/bxsite/pkg/vercel"
)

// Store backends.
const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
)

var (
	ErrLoadEnvFile = errors.New("config: failed to load env file")
	ErrParse       = errors.New("config: failed to parse environment")
	ErrInvalid     = errors.New("config: invalid configuration")
)

// Config is the full service configuration.
type Config struct {
	Redis  redis.Config
	Log    logger.Config
	Vercel vercel.Config
	HTTP   HTTPConfig
	Auth   AuthConfig
	DNS    DNSConfig
	Limits LimitsConfig

	// PlatformDomain is the apex whose subdomains serve tenant sites.
	PlatformDomain string `env:"PLATFORM_DOMAIN" envDefault:"bxsite.com" validate:"required,fqdn"`
	StoreBackend   string `env:"STORE_BACKEND" envDefault:"redis" validate:"oneof=memory redis"`

	// SweepSchedule is a five-field cron spec. Empty disables the sweep.
	SweepSchedule string `env:"SWEEP_SCHEDULE" validate:"omitempty,cronspec"`

	// DebugRoutes mounts /api/debug/domain.
	DebugRoutes bool `env:"DEBUG_ROUTES" envDefault:"false"`
}

// HTTPConfig configures the HTTP server.
type HTTPConfig struct {
	Address         string        `env:"HTTP_ADDR" envDefault:":8080" validate:"required"`
	ReadTimeout     time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"15s"`
	WriteTimeout    time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"30s"`
	IdleTimeout     time.Duration `env:"HTTP_IDLE_TIMEOUT" envDefault:"120s"`
	RequestTimeout  time.Duration `env:"HTTP_REQUEST_TIMEOUT" envDefault:"20s"`
	ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"30s"`
}

// AuthConfig configures caller identity.
type AuthConfig struct {
	JWTSecret string `env:"AUTH_JWT_SECRET" validate:"required_without=DevSkipAuth"`
	Issuer    string `env:"AUTH_JWT_ISSUER"`
	// DevSkipAuth treats anonymous callers as the dev account with
	// ownership checks disabled. Never enable in production.
	DevSkipAuth bool `env:"BXSITE_DEV_SKIP_AUTH"`
}

// DNSConfig bounds ownership verification lookups.
type DNSConfig struct {
	AttemptTimeout time.Duration `env:"DNS_ATTEMPT_TIMEOUT" envDefault:"5s" validate:"gt=0"`
	Timeout        time.Duration `env:"DNS_TIMEOUT" envDefault:"15s" validate:"gtefield=AttemptTimeout"`
	// UseDoH appends the Google and Cloudflare DNS-over-HTTPS resolvers
	// after the system resolver.
	UseDoH bool `env:"DNS_USE_DOH" envDefault:"true"`
}

// LimitsConfig holds per-account quotas.
type LimitsConfig struct {
	MaxSitesPerAccount int           `env:"MAX_SITES_PER_ACCOUNT" envDefault:"5" validate:"gt=0"`
	WritesPerWindow    int           `env:"WRITES_PER_WINDOW" envDefault:"10" validate:"gt=0"`
	WriteWindow        time.Duration `env:"WRITE_WINDOW" envDefault:"60s" validate:"gt=0"`
	InfraTimeout       time.Duration `env:"INFRA_TIMEOUT" envDefault:"15s" validate:"gt=0"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	err := v.RegisterValidation("cronspec", func(fl validator.FieldLevel) bool {
		_, err := sweeper.Parser.Parse(fl.Field().String())
		return err == nil
	})
	if err != nil {
		panic(fmt.Sprintf("config: register cronspec rule: %v", err))
	}
	return v
}

// Load reads the optional env files, then parses and validates the
// environment. Without arguments it reads ".env" from the working
// directory. Missing files are skipped.
func Load(files ...string) (*Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, errors.Join(ErrLoadEnvFile, fmt.Errorf("%s: %w", f, err))
		}
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, errors.Join(ErrParse, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks struct rules.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return errors.Join(ErrInvalid, err)
	}
	return nil
}
