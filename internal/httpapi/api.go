package httpapi

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/bxsite/internal/lifecycle"
	"github.com/dmitrymomot/bxsite/internal/sites"
	"github.com/dmitrymomot/bxsite/middlewares"
	"github.com/dmitrymomot/bxsite/pkg/logger"
)

// Service is the site lifecycle behind the API. *lifecycle.Manager
// satisfies it.
type Service interface {
	Publish(ctx context.Context, actor lifecycle.Actor, in lifecycle.PublishInput) (*lifecycle.PublishResult, error)
	Verify(ctx context.Context, actor lifecycle.Actor, identifier string) (*lifecycle.VerifyResult, error)
	Get(ctx context.Context, actor lifecycle.Actor, identifier string) (*sites.Site, error)
	MySites(ctx context.Context, actor lifecycle.Actor) ([]string, error)
	Delete(ctx context.Context, actor lifecycle.Actor, identifier string) error
	Inspect(ctx context.Context, domain string) (*lifecycle.DomainStatus, error)
}

// handlerFunc is a route handler that reports failures by returning them.
type handlerFunc func(w http.ResponseWriter, r *http.Request) error

// API serves the JSON endpoints under /api.
type API struct {
	svc    Service
	logger *slog.Logger
	debug  bool
}

// Option configures an API.
type Option func(*API)

// WithLogger sets the logger used for failed requests.
func WithLogger(l *slog.Logger) Option {
	return func(a *API) {
		if l != nil {
			a.logger = l
		}
	}
}

// WithDebugRoutes mounts the domain inspection endpoint.
func WithDebugRoutes(enabled bool) Option {
	return func(a *API) {
		a.debug = enabled
	}
}

// New creates an API.
func New(svc Service, opts ...Option) *API {
	a := &API{svc: svc, logger: logger.NewNope()}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Routes registers the API routes on r.
func (a *API) Routes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.NotFound(a.wrap(func(http.ResponseWriter, *http.Request) error {
			return NewHTTPError(http.StatusNotFound, "Not found", WithErrorCode("not_found"))
		}))
		r.MethodNotAllowed(a.wrap(func(http.ResponseWriter, *http.Request) error {
			return NewHTTPError(http.StatusMethodNotAllowed, "Method not allowed", WithErrorCode("method_not_allowed"))
		}))
		r.Route("/sites", func(r chi.Router) {
			r.Post("/", a.wrap(a.publish))
			r.Get("/", a.wrap(a.mySites))
			r.Get("/{identifier}", a.wrap(a.getSite))
			r.Delete("/{identifier}", a.wrap(a.deleteSite))
			r.Post("/{identifier}/verify-domain", a.wrap(a.verifyDomain))
		})
		if a.debug {
			r.Get("/debug/domain", a.wrap(a.inspectDomain))
		}
	})
}

// wrap converts a handlerFunc to an http.HandlerFunc that renders returned
// errors.
func (a *API) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := h(w, r); err != nil {
			a.handleError(w, r, err)
		}
	}
}

func (a *API) handleError(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()
	e := AsHTTPError(err)
	e.RequestID = middlewares.GetRequestID(ctx)

	if e.Code >= http.StatusInternalServerError {
		a.logger.ErrorContext(ctx, "request failed",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", e.Code),
			slog.Any("error", err))
	} else {
		a.logger.DebugContext(ctx, "request rejected",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", e.Code),
			slog.String("code", e.ErrorCode))
	}

	if werr := writeError(w, e); werr != nil {
		a.logger.WarnContext(ctx, "failed to write error response", slog.Any("error", werr))
	}
}

// RecoverHandler renders a recovered panic as a JSON 500.
func RecoverHandler(w http.ResponseWriter, r *http.Request, _ *middlewares.PanicError) {
	e := ErrInternal()
	e.RequestID = middlewares.GetRequestID(r.Context())
	_ = writeError(w, e)
}

// TimeoutHandler renders an expired request deadline as a JSON 504.
func TimeoutHandler(w http.ResponseWriter, r *http.Request, _ *middlewares.TimeoutError) {
	e := NewHTTPError(http.StatusGatewayTimeout, "Request timed out", WithErrorCode("timeout"))
	e.RequestID = middlewares.GetRequestID(r.Context())
	_ = writeError(w, e)
}
