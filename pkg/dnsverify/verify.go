package dnsverify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"
)

// Reason classifies a verification outcome.
type Reason string

const (
	ReasonVerified      Reason = "verified"
	ReasonNotConfigured Reason = "not_configured"
	ReasonMismatch      Reason = "mismatch"
	ReasonLookupFailed  Reason = "lookup_failed"
	ReasonInvalidInput  Reason = "invalid_input"
)

const (
	DefaultAttemptTimeout = 5 * time.Second
	DefaultTimeout        = 15 * time.Second
)

// Result is the outcome of one verification.
type Result struct {
	Verified bool
	Reason   Reason
	// Message is user facing, names the domain, and is phrased as retryable.
	Message string
	// Expected is the TXT value that was searched for.
	Expected string
	// Host is the queried TXT host.
	Host string
	// Records holds the cleaned records returned by the authoritative resolver.
	Records []string
	// Source names the resolver that produced Records.
	Source string
	// Cause is the underlying lookup error for ReasonLookupFailed.
	Cause error
}

// Err converts the result to a sentinel error. It returns nil when verified.
func (r Result) Err() error {
	switch r.Reason {
	case ReasonVerified:
		return nil
	case ReasonNotConfigured:
		return ErrTXTRecordNotFound
	case ReasonMismatch:
		return ErrDomainNotVerified
	case ReasonInvalidInput:
		return ErrInvalidInput
	default:
		if r.Cause != nil {
			return errors.Join(ErrDNSLookupFailed, r.Cause)
		}
		return ErrDNSLookupFailed
	}
}

// Verifier checks domain ownership through a chain of resolvers.
// It is safe for concurrent use.
type Verifier struct {
	resolvers      []Resolver
	attemptTimeout time.Duration
	timeout        time.Duration
	logger         *slog.Logger
	group          singleflight.Group
}

// Option configures a Verifier.
type Option func(*Verifier)

// WithResolvers replaces the resolver chain. Resolvers are tried in order.
func WithResolvers(resolvers ...Resolver) Option {
	return func(v *Verifier) {
		v.resolvers = resolvers
	}
}

// WithAttemptTimeout bounds each resolver attempt.
func WithAttemptTimeout(d time.Duration) Option {
	return func(v *Verifier) {
		if d > 0 {
			v.attemptTimeout = d
		}
	}
}

// WithTimeout bounds a whole Verify call.
func WithTimeout(d time.Duration) Option {
	return func(v *Verifier) {
		if d > 0 {
			v.timeout = d
		}
	}
}

// WithLogger sets the logger used for fallback diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(v *Verifier) {
		if l != nil {
			v.logger = l
		}
	}
}

// DefaultResolvers returns the system resolver followed by the Google and
// Cloudflare DoH providers.
func DefaultResolvers(client *http.Client) []Resolver {
	return []Resolver{&SystemResolver{}, Google(client), Cloudflare(client)}
}

// New creates a Verifier. Without WithResolvers it uses DefaultResolvers.
func New(opts ...Option) *Verifier {
	v := &Verifier{
		attemptTimeout: DefaultAttemptTimeout,
		timeout:        DefaultTimeout,
		logger:         slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(v)
	}
	if len(v.resolvers) == 0 {
		v.resolvers = DefaultResolvers(nil)
	}
	return v
}

// Verify checks that the TXT record for token is published for domain.
// It never returns an error; every failure is described by the Result.
func (v *Verifier) Verify(ctx context.Context, domain, token string) Result {
	domain = NormalizeDomain(domain)
	token = strings.TrimSpace(token)
	if domain == "" || token == "" {
		return Result{
			Reason:  ReasonInvalidInput,
			Message: "Domain and verification token are required.",
		}
	}

	res := Result{
		Host:     TXTHost(domain),
		Expected: TXTValue(token),
	}

	out := v.lookup(ctx, res.Host)
	res.Source = out.source

	if out.err != nil {
		res.Reason = ReasonLookupFailed
		res.Cause = out.err
		if out.exhausted {
			res.Message = fmt.Sprintf("Domain %s is not yet verified. Please ensure the TXT record is added and wait a few minutes for DNS propagation.", domain)
		} else {
			res.Message = fmt.Sprintf("Domain %s is not yet verified. Please check your DNS configuration and try again.", domain)
		}
		return res
	}

	res.Records = make([]string, 0, len(out.records))
	for _, r := range out.records {
		res.Records = append(res.Records, cleanRecord(r))
	}

	switch {
	case len(res.Records) == 0:
		res.Reason = ReasonNotConfigured
		res.Message = fmt.Sprintf("Domain %s is not yet verified. Please add the TXT record and wait a few minutes for DNS propagation.", domain)
	case Match(out.records, res.Expected):
		res.Verified = true
		res.Reason = ReasonVerified
		res.Message = fmt.Sprintf("Domain %s is verified.", domain)
	default:
		res.Reason = ReasonMismatch
		res.Message = fmt.Sprintf("Domain %s is not yet verified. The TXT record value does not match. Please verify the record value is exactly: %s", domain, res.Expected)
	}
	return res
}

type lookupOutcome struct {
	records   []string
	source    string
	err       error
	exhausted bool
}

// lookup shares one resolver chain run among concurrent callers for host.
// The shared run is detached from any single caller's cancellation.
func (v *Verifier) lookup(ctx context.Context, host string) lookupOutcome {
	ch := v.group.DoChan(host, func() (any, error) {
		runCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), v.timeout)
		defer cancel()
		return v.runChain(runCtx, host), nil
	})

	select {
	case <-ctx.Done():
		return lookupOutcome{err: errors.Join(ErrDNSLookupFailed, ctx.Err()), exhausted: true}
	case r := <-ch:
		return r.Val.(lookupOutcome)
	}
}

func (v *Verifier) runChain(ctx context.Context, host string) lookupOutcome {
	var errs []error

	for _, r := range v.resolvers {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		attemptCtx, cancel := context.WithTimeout(ctx, v.attemptTimeout)
		records, err := r.LookupTXT(attemptCtx, host)
		cancel()

		if err == nil {
			return lookupOutcome{records: records, source: r.Name()}
		}
		if !errors.Is(err, ErrRetryable) {
			v.logger.WarnContext(ctx, "txt lookup failed",
				slog.String("host", host),
				slog.String("resolver", r.Name()),
				slog.Any("error", err))
			return lookupOutcome{err: err, source: r.Name()}
		}

		v.logger.DebugContext(ctx, "txt lookup unavailable, trying next resolver",
			slog.String("host", host),
			slog.String("resolver", r.Name()),
			slog.Any("error", err))
		errs = append(errs, err)
	}

	if len(errs) == 0 {
		errs = append(errs, ErrDNSLookupFailed)
	}
	return lookupOutcome{err: errors.Join(errs...), exhausted: true}
}
