// Package routing maps inbound hosts to tenant content.
//
// Platform subdomains route to the site named by their leftmost label.
// Custom domains route only when the mapped site is verified and still
// claims the requested host. Everything else passes through untouched.
package routing

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/dmitrymomot/bxsite/internal/metrics"
	"github.com/dmitrymomot/bxsite/internal/sites"
	"github.com/dmitrymomot/bxsite/pkg/hostrouter"
	"github.com/dmitrymomot/bxsite/pkg/logger"
)

// ContentPrefix is the path prefix tenant requests are rewritten under.
const ContentPrefix = "/content/"

// SiteLookup resolves a custom domain to its site. *sites.Index satisfies it.
type SiteLookup interface {
	GetSiteByDomain(ctx context.Context, domain string) (*sites.Site, error)
}

// Outcome labels a routing decision.
type Outcome string

const (
	OutcomePlatform   Outcome = "platform"
	OutcomeSubdomain  Outcome = "subdomain"
	OutcomeCustom     Outcome = "custom"
	OutcomeUnverified Outcome = "unverified"
	OutcomeUnknown    Outcome = "unknown"
	OutcomeError      Outcome = "error"
)

// Decision is the result of resolving one host.
type Decision struct {
	Outcome Outcome
	Host    string
	// Identifier is set when the request should be served as tenant content.
	Identifier string
}

// Routed reports whether the request is rewritten to tenant content.
func (d Decision) Routed() bool {
	return d.Identifier != ""
}

// ServesContent reports whether a request carrying d may reach the content
// route. Custom hosts that did not resolve to a verified site never do.
func (d Decision) ServesContent() bool {
	return d.Routed() || d.Outcome == OutcomePlatform
}

type decisionKey struct{}

// FromContext returns the decision Middleware made for the request.
func FromContext(ctx context.Context) (Decision, bool) {
	d, ok := ctx.Value(decisionKey{}).(Decision)
	return d, ok
}

// Router rewrites tenant requests to /content/<identifier>.
type Router struct {
	lookup   SiteLookup
	logger   *slog.Logger
	platform string
}

// Option configures a Router.
type Option func(*Router)

// WithLogger sets the logger used for lookup failures.
func WithLogger(l *slog.Logger) Option {
	return func(r *Router) {
		if l != nil {
			r.logger = l
		}
	}
}

// New creates a Router for platformDomain.
func New(lookup SiteLookup, platformDomain string, opts ...Option) *Router {
	r := &Router{
		lookup:   lookup,
		logger:   logger.NewNope(),
		platform: hostrouter.Normalize(platformDomain),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve decides where a request for host goes. It performs at most one
// mapping lookup and one record lookup, and nothing is cached, so a
// detached domain stops routing on the next request.
func (r *Router) Resolve(ctx context.Context, host string) Decision {
	m := hostrouter.Classify(host, r.platform)
	d := Decision{Host: m.Host}

	switch m.Kind {
	case hostrouter.KindPlatform:
		d.Outcome = OutcomePlatform
		return d
	case hostrouter.KindSubdomain:
		d.Outcome = OutcomeSubdomain
		d.Identifier = m.Label
		return d
	}

	if m.Host == "" {
		d.Outcome = OutcomeUnknown
		return d
	}

	site, err := r.lookup.GetSiteByDomain(ctx, m.Host)
	switch {
	case errors.Is(err, sites.ErrSiteNotFound):
		d.Outcome = OutcomeUnknown
	case err != nil:
		d.Outcome = OutcomeError
		r.logger.WarnContext(ctx, "custom domain lookup failed",
			slog.String("host", m.Host),
			slog.Any("error", err))
	case !site.Verified || site.CustomDomain != m.Host:
		d.Outcome = OutcomeUnverified
	default:
		d.Outcome = OutcomeCustom
		d.Identifier = site.Identifier
	}
	return d
}

// Middleware rewrites the path of tenant requests and passes every other
// request through with its path unchanged. The decision is stored in the
// request context for FromContext.
func (r *Router) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		d := r.Resolve(req.Context(), hostrouter.GetDomain(req))
		metrics.RoutedRequestsTotal.WithLabelValues(string(d.Outcome)).Inc()
		req = req.WithContext(context.WithValue(req.Context(), decisionKey{}, d))

		if !d.Routed() {
			next.ServeHTTP(w, req)
			return
		}
		next.ServeHTTP(w, rewrite(req, ContentPrefix+d.Identifier))
	})
}

func rewrite(req *http.Request, path string) *http.Request {
	r2 := new(http.Request)
	*r2 = *req
	r2.URL = new(url.URL)
	*r2.URL = *req.URL
	r2.URL.Path = path
	r2.URL.RawPath = ""
	r2.RequestURI = r2.URL.RequestURI()
	return r2
}
