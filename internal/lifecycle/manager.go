package lifecycle

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/bxsite/internal/sites"
	"github.com/dmitrymomot/bxsite/pkg/dnsverify"
	"github.com/dmitrymomot/bxsite/pkg/logger"
)

const (
	DefaultMaxSitesPerAccount = 5
	DefaultInfraTimeout       = 15 * time.Second
)

// Verifier proves domain ownership. *dnsverify.Verifier satisfies it.
type Verifier interface {
	Verify(ctx context.Context, domain, token string) dnsverify.Result
}

// Limiter admits or rejects one write for an account.
// *ratelimit.Limiter satisfies it.
type Limiter interface {
	Allow(ctx context.Context, key string) error
}

// Infra attaches and detaches domains at the hosting provider.
// *vercel.Client satisfies it. Both calls must be idempotent.
type Infra interface {
	Attach(ctx context.Context, domain string) error
	Detach(ctx context.Context, domain string) error
}

// Actor is the caller of an operation.
type Actor struct {
	AccountID string
	// Bypass skips ownership checks. Only set in local development.
	Bypass bool
}

func (a Actor) owns(s *sites.Site) bool {
	return a.Bypass || s.OwnerID == a.AccountID
}

// Manager runs the site and custom domain lifecycle on top of the tenant
// index. It holds no per-site state; every operation is sequenced against
// the index so that a domain mapping never outlives the site's claim on
// the domain.
type Manager struct {
	index          *sites.Index
	verifier       Verifier
	limiter        Limiter
	infra          Infra
	logger         *slog.Logger
	now            func() time.Time
	newToken       func() string
	platformDomain string
	infraTimeout   time.Duration
	maxSites       int
	wg             sync.WaitGroup
}

// Option configures a Manager.
type Option func(*Manager)

// WithLimiter sets the per-account write limiter. Without it writes are
// not limited.
func WithLimiter(l Limiter) Option {
	return func(m *Manager) {
		if l != nil {
			m.limiter = l
		}
	}
}

// WithInfra sets the hosting provider client.
func WithInfra(i Infra) Option {
	return func(m *Manager) {
		if i != nil {
			m.infra = i
		}
	}
}

// WithPlatformDomain sets the platform domain rejected as a custom domain.
func WithPlatformDomain(domain string) Option {
	return func(m *Manager) {
		m.platformDomain = dnsverify.NormalizeDomain(domain)
	}
}

// WithMaxSites sets the per-account site quota.
func WithMaxSites(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.maxSites = n
		}
	}
}

// WithInfraTimeout bounds each detached hosting provider call.
func WithInfraTimeout(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.infraTimeout = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithClock replaces the time source used for UpdatedAt.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// WithTokenGenerator replaces the verification token generator.
func WithTokenGenerator(gen func() string) Option {
	return func(m *Manager) {
		if gen != nil {
			m.newToken = gen
		}
	}
}

// New creates a Manager.
func New(index *sites.Index, verifier Verifier, opts ...Option) *Manager {
	m := &Manager{
		index:        index,
		verifier:     verifier,
		limiter:      noLimit{},
		infra:        noInfra{},
		logger:       logger.NewNope(),
		now:          time.Now,
		newToken:     uuid.NewString,
		infraTimeout: DefaultInfraTimeout,
		maxSites:     DefaultMaxSitesPerAccount,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Wait blocks until detached hosting provider calls finish or ctx is done.
func (m *Manager) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Shutdown returns a shutdown hook that waits for detached calls.
func (m *Manager) Shutdown() func(context.Context) error {
	return m.Wait
}

func (m *Manager) timestamp() time.Time {
	return m.now().UTC().Truncate(time.Millisecond)
}

// loadOwned fetches a site and checks that actor may act on it.
func (m *Manager) loadOwned(ctx context.Context, actor Actor, identifier string) (*sites.Site, error) {
	if actor.AccountID == "" {
		return nil, errNotAuthenticated()
	}
	identifier = sites.NormalizeIdentifier(identifier)
	if !sites.ValidIdentifier(identifier) {
		return nil, errInvalidIdentifier()
	}

	site, err := m.index.GetSite(ctx, identifier)
	if err != nil {
		if errors.Is(err, sites.ErrSiteNotFound) {
			return nil, errSiteNotFound()
		}
		return nil, internalError("get site", err)
	}
	if !actor.owns(site) {
		return nil, errForbidden()
	}
	return site, nil
}

// domainHolder returns the identifier of the site that currently holds the
// mapping for domain. A mapping whose site no longer claims the domain is
// stale and reported as unheld.
func (m *Manager) domainHolder(ctx context.Context, domain string) (string, error) {
	site, err := m.index.GetSiteByDomain(ctx, domain)
	if err != nil {
		if errors.Is(err, sites.ErrSiteNotFound) {
			return "", nil
		}
		return "", err
	}
	if site.CustomDomain != domain {
		return "", nil
	}
	return site.Identifier, nil
}

// releaseMapping removes the mapping for domain if it points at identifier.
func (m *Manager) releaseMapping(ctx context.Context, domain, identifier string) error {
	mapped, err := m.index.DomainMapping(ctx, domain)
	if errors.Is(err, sites.ErrDomainNotMapped) {
		return nil
	}
	if err != nil {
		return err
	}
	if mapped != identifier {
		return nil
	}
	return m.index.RemoveDomainMapping(ctx, domain)
}

type noLimit struct{}

func (noLimit) Allow(context.Context, string) error { return nil }

type noInfra struct{}

func (noInfra) Attach(context.Context, string) error { return nil }
func (noInfra) Detach(context.Context, string) error { return nil }
