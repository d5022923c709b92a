package lifecycle_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/bxsite/internal/lifecycle"
	"github.com/dmitrymomot/bxsite/internal/sites"
	"github.com/dmitrymomot/bxsite/pkg/dnsverify"
	"github.com/dmitrymomot/bxsite/pkg/kv"
	"github.com/dmitrymomot/bxsite/pkg/ratelimit"
)

const platform = "bxsite.com"

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// zone is a fake DNS zone holding TXT records per host.
type zone struct {
	records map[string][]string
	mu      sync.Mutex
	down    bool
}

func (z *zone) set(host string, values ...string) {
	z.mu.Lock()
	defer z.mu.Unlock()
	z.records[host] = values
}

func (z *zone) setDown(down bool) {
	z.mu.Lock()
	defer z.mu.Unlock()
	z.down = down
}

func (z *zone) resolver() dnsverify.Resolver {
	return dnsverify.ResolverFunc{
		ID: "fake",
		Fn: func(_ context.Context, host string) ([]string, error) {
			z.mu.Lock()
			defer z.mu.Unlock()
			if z.down {
				return nil, errors.Join(dnsverify.ErrRetryable, errors.New("servfail"))
			}
			return z.records[host], nil
		},
	}
}

type infraRecorder struct {
	err   error
	calls []string
	mu    sync.Mutex
}

func (r *infraRecorder) record(op, domain string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, op+":"+domain)
	return r.err
}

func (r *infraRecorder) Attach(_ context.Context, domain string) error {
	return r.record("attach", domain)
}

func (r *infraRecorder) Detach(_ context.Context, domain string) error {
	return r.record("detach", domain)
}

func (r *infraRecorder) Calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

type fixture struct {
	m     *lifecycle.Manager
	idx   *sites.Index
	store *kv.Memory
	zone  *zone
	infra *infraRecorder
	clock *clock
}

func newFixture(t *testing.T, opts ...lifecycle.Option) *fixture {
	t.Helper()

	c := &clock{now: time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)}
	store := kv.NewMemory(kv.WithCleanupInterval(0), kv.WithClock(c.Now))
	t.Cleanup(func() { _ = store.Close() })

	z := &zone{records: map[string][]string{}}
	infra := &infraRecorder{}
	idx := sites.NewIndex(store)

	var seq atomic.Int64
	base := []lifecycle.Option{
		lifecycle.WithPlatformDomain(platform),
		lifecycle.WithLimiter(ratelimit.New(store)),
		lifecycle.WithInfra(infra),
		lifecycle.WithClock(c.Now),
		lifecycle.WithTokenGenerator(func() string {
			return fmt.Sprintf("tok-%d", seq.Add(1))
		}),
	}

	verifier := dnsverify.New(dnsverify.WithResolvers(z.resolver()))
	m := lifecycle.New(idx, verifier, append(base, opts...)...)

	return &fixture{m: m, idx: idx, store: store, zone: z, infra: infra, clock: c}
}

// publishTXT publishes the expected verification record for a site.
func (f *fixture) publishTXT(t *testing.T, identifier string) {
	t.Helper()

	s, err := f.idx.GetSite(context.Background(), identifier)
	require.NoError(t, err)
	f.zone.set(dnsverify.TXTHost(s.CustomDomain), dnsverify.TXTValue(s.VerificationToken))
}

func (f *fixture) waitInfra(t *testing.T) []string {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, f.m.Wait(ctx))
	return f.infra.Calls()
}

func (f *fixture) site(t *testing.T, identifier string) *sites.Site {
	t.Helper()

	s, err := f.idx.GetSite(context.Background(), identifier)
	require.NoError(t, err)
	return s
}

// checkInvariant verifies that every mapping points at a site claiming the
// domain, and every verified site is reachable through its mapping.
func checkInvariant(ctx context.Context, store kv.Store, idx *sites.Index) error {
	err := store.Scan(ctx, sites.DomainPrefix, func(key string) error {
		domain := strings.TrimPrefix(key, sites.DomainPrefix)
		mapped, err := idx.DomainMapping(ctx, domain)
		if err != nil {
			return err
		}
		s, err := idx.GetSite(ctx, mapped)
		if err != nil {
			return fmt.Errorf("mapping %s -> %s dangles: %w", domain, mapped, err)
		}
		if s.CustomDomain != domain {
			return fmt.Errorf("mapping %s -> %s but site claims %q", domain, mapped, s.CustomDomain)
		}
		return nil
	})
	if err != nil {
		return err
	}

	return idx.ScanSites(ctx, func(s *sites.Site) error {
		if s.CustomDomain != "" && s.VerificationToken == "" {
			return fmt.Errorf("site %s has domain %s without token", s.Identifier, s.CustomDomain)
		}
		if !s.Verified {
			return nil
		}
		mapped, err := idx.DomainMapping(ctx, s.CustomDomain)
		if err != nil {
			return fmt.Errorf("verified site %s has no mapping for %s: %w", s.Identifier, s.CustomDomain, err)
		}
		if mapped != s.Identifier {
			return fmt.Errorf("verified site %s but %s maps to %s", s.Identifier, s.CustomDomain, mapped)
		}
		return nil
	})
}

func alice() lifecycle.Actor { return lifecycle.Actor{AccountID: "alice"} }
func bob() lifecycle.Actor   { return lifecycle.Actor{AccountID: "bob"} }
