package httpapi

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dmitrymomot/bxsite/middlewares"
	"github.com/dmitrymomot/bxsite/pkg/health"
	"github.com/dmitrymomot/bxsite/pkg/logger"
)

// RouteRegistrar declares routes on a chi router.
type RouteRegistrar interface {
	Routes(r chi.Router)
}

// RouterConfig holds everything the application handler is built from.
type RouterConfig struct {
	// Logger is used by the recover and timeout middlewares.
	Logger *slog.Logger

	// HostRouting rewrites tenant hosts to content paths. It runs before
	// route matching.
	HostRouting func(http.Handler) http.Handler

	// Identity resolves the caller. See middlewares.AuthIdentity.
	Identity func(http.Handler) http.Handler

	// Health holds the readiness checks.
	Health        health.Checks
	HealthOptions []health.Option

	// Handlers register the API and content routes.
	Handlers []RouteRegistrar

	RequestTimeout time.Duration
}

// NewRouter builds the application handler.
//
// Middleware order: request id, recover, timeout, host routing, identity.
func NewRouter(cfg RouterConfig) http.Handler {
	l := cfg.Logger
	if l == nil {
		l = logger.NewNope()
	}

	r := chi.NewRouter()
	r.Use(
		middlewares.RequestID(),
		middlewares.Recover(
			middlewares.WithRecoverLogger(l),
			middlewares.WithRecoverHandler(RecoverHandler),
		),
		middlewares.Timeout(cfg.RequestTimeout,
			middlewares.WithTimeoutLogger(l),
			middlewares.WithTimeoutHandler(TimeoutHandler),
		),
	)
	if cfg.HostRouting != nil {
		r.Use(cfg.HostRouting)
	}
	if cfg.Identity != nil {
		r.Use(cfg.Identity)
	}

	health.Mount(r, cfg.Health, cfg.HealthOptions...)
	r.Handle("/metrics", promhttp.Handler())

	for _, h := range cfg.Handlers {
		h.Routes(r)
	}

	return r
}
