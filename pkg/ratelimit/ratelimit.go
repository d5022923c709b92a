package ratelimit

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dmitrymomot/bxsite/pkg/kv"
)

const (
	DefaultLimit  = 10
	DefaultWindow = 60 * time.Second
	DefaultPrefix = "ratelimit-writes:"
)

// Limiter allows at most limit hits per key in any rolling window.
type Limiter struct {
	log     kv.Window
	limit   int
	window  time.Duration
	prefix  string
}

// Option configures a Limiter.
type Option func(*Limiter)

// WithLimit sets the number of hits allowed per window.
func WithLimit(n int) Option {
	return func(l *Limiter) {
		if n > 0 {
			l.limit = n
		}
	}
}

// WithWindow sets the window length.
func WithWindow(d time.Duration) Option {
	return func(l *Limiter) {
		if d > 0 {
			l.window = d
		}
	}
}

// WithPrefix sets the hit log key prefix.
func WithPrefix(p string) Option {
	return func(l *Limiter) {
		l.prefix = p
	}
}

// New creates a Limiter backed by log.
func New(log kv.Window, opts ...Option) *Limiter {
	l := &Limiter{
		log:     log,
		limit:   DefaultLimit,
		window:  DefaultWindow,
		prefix:  DefaultPrefix,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Allow records one hit for key. It returns a *LimitedError when limit
// hits already fall within the trailing window; the rejected hit is not
// counted.
func (l *Limiter) Allow(ctx context.Context, key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return ErrEmptyKey
	}

	ok, retryAfter, err := l.log.Hit(ctx, l.prefix+key, l.limit, l.window)
	if err != nil {
		return errors.Join(ErrCounterFailed, err)
	}
	if ok {
		return nil
	}

	return &LimitedError{Limit: l.limit, RetryAfter: roundUp(retryAfter, l.window)}
}

// Limit returns the configured hits per window.
func (l *Limiter) Limit() int { return l.limit }

// Window returns the configured window length.
func (l *Limiter) Window() time.Duration { return l.window }

// roundUp returns d rounded up to whole seconds, at least one second and
// at most window.
func roundUp(d, window time.Duration) time.Duration {
	if d <= 0 {
		return time.Second
	}
	return min((d+time.Second-1).Truncate(time.Second), window)
}
