package middlewares

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/dmitrymomot/bxsite/pkg/logger"
)

// DefaultTimeout is the default request timeout.
const DefaultTimeout = 30 * time.Second

// TimeoutConfig configures the timeout middleware.
type TimeoutConfig struct {
	Logger    *slog.Logger
	OnTimeout func(w http.ResponseWriter, r *http.Request, te *TimeoutError)
	Timeout   time.Duration
}

// TimeoutOption configures TimeoutConfig.
type TimeoutOption func(*TimeoutConfig)

// WithTimeoutLogger sets the logger used to report timeouts.
func WithTimeoutLogger(l *slog.Logger) TimeoutOption {
	return func(cfg *TimeoutConfig) {
		if l != nil {
			cfg.Logger = l
		}
	}
}

// WithTimeoutHandler sets the function that writes the response when the
// deadline passes before the handler wrote anything. The default writes 504.
func WithTimeoutHandler(fn func(w http.ResponseWriter, r *http.Request, te *TimeoutError)) TimeoutOption {
	return func(cfg *TimeoutConfig) {
		if fn != nil {
			cfg.OnTimeout = fn
		}
	}
}

// Timeout returns middleware that bounds the request context.
//
// The handler runs on the request goroutine and must watch ctx.Done().
// If it returns after the deadline without writing a response, the
// timeout handler writes one.
// Request ID is automatically included via RequestIDExtractor() if configured.
func Timeout(timeout time.Duration, opts ...TimeoutOption) func(http.Handler) http.Handler {
	cfg := &TimeoutConfig{
		Timeout: timeout,
		Logger:  logger.NewNope(),
		OnTimeout: func(w http.ResponseWriter, _ *http.Request, _ *TimeoutError) {
			http.Error(w, http.StatusText(http.StatusGatewayTimeout), http.StatusGatewayTimeout)
		},
	}

	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), cfg.Timeout)
			defer cancel()

			tw := &trackingWriter{ResponseWriter: w}
			next.ServeHTTP(tw, r.WithContext(ctx))

			if errors.Is(ctx.Err(), context.DeadlineExceeded) && !tw.wrote {
				cfg.Logger.WarnContext(ctx, "request timeout", slog.String("timeout", cfg.Timeout.String()))
				cfg.OnTimeout(w, r, &TimeoutError{Duration: cfg.Timeout})
			}
		})
	}
}

// trackingWriter records whether a response has been started.
type trackingWriter struct {
	http.ResponseWriter
	wrote bool
}

func (tw *trackingWriter) WriteHeader(code int) {
	tw.wrote = true
	tw.ResponseWriter.WriteHeader(code)
}

func (tw *trackingWriter) Write(b []byte) (int, error) {
	tw.wrote = true
	return tw.ResponseWriter.Write(b)
}

func (tw *trackingWriter) Unwrap() http.ResponseWriter {
	return tw.ResponseWriter
}
