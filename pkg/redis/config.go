package redis

import "time"

// Config holds Redis connection parameters.
// Embed it in the application config for env parsing with caarlos0/env.
type Config struct {
	// Connection URL, redis:// or rediss:// (TLS).
	URL string `env:"REDIS_URL" envDefault:"redis://localhost:6379/0" validate:"required"`

	// Pool sizing. The index store issues at most two round trips per
	// routed request, so a small pool goes a long way.
	PoolSize     int `env:"REDIS_POOL_SIZE" envDefault:"10"`
	MinIdleConns int `env:"REDIS_MIN_IDLE_CONNS" envDefault:"2"`

	MaxIdleTime   time.Duration `env:"REDIS_MAX_IDLE_TIME" envDefault:"10m"`
	MaxActiveTime time.Duration `env:"REDIS_MAX_ACTIVE_TIME" envDefault:"30m"`

	ReadTimeout  time.Duration `env:"REDIS_READ_TIMEOUT" envDefault:"3s"`
	WriteTimeout time.Duration `env:"REDIS_WRITE_TIMEOUT" envDefault:"3s"`
	DialTimeout  time.Duration `env:"REDIS_DIAL_TIMEOUT" envDefault:"5s"`

	// Startup retry with linear backoff (attempt * interval).
	RetryAttempts int           `env:"REDIS_RETRY_ATTEMPTS" envDefault:"3"`
	RetryInterval time.Duration `env:"REDIS_RETRY_INTERVAL" envDefault:"2s"`
}

// withDefaults fills zero fields so a Config built in code behaves like
// one parsed from the environment.
func (c Config) withDefaults() Config {
	if c.PoolSize <= 0 {
		c.PoolSize = 10
	}
	if c.MinIdleConns < 0 {
		c.MinIdleConns = 0
	}
	if c.MaxIdleTime == 0 {
		c.MaxIdleTime = 10 * time.Minute
	}
	if c.MaxActiveTime == 0 {
		c.MaxActiveTime = 30 * time.Minute
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = 3 * time.Second
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = 3 * time.Second
	}
	if c.DialTimeout == 0 {
		c.DialTimeout = 5 * time.Second
	}
	if c.RetryAttempts <= 0 {
		c.RetryAttempts = 1
	}
	return c
}
