package dnsverify

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// Resolver looks up the TXT records published at host.
//
// A nil error with zero records is an authoritative "no records" answer.
// Errors joined with [ErrRetryable] tell the [Verifier] to try the next
// resolver; any other error stops the chain.
type Resolver interface {
	LookupTXT(ctx context.Context, host string) ([]string, error)
	Name() string
}

// ResolverFunc adapts a function to the Resolver interface.
type ResolverFunc struct {
	ID string
	Fn func(ctx context.Context, host string) ([]string, error)
}

func (f ResolverFunc) LookupTXT(ctx context.Context, host string) ([]string, error) {
	return f.Fn(ctx, host)
}

func (f ResolverFunc) Name() string { return f.ID }

// SystemResolver queries the operating system resolver.
type SystemResolver struct {
	// Resolver is the underlying net.Resolver. Nil uses net.DefaultResolver.
	Resolver *net.Resolver
}

var _ Resolver = (*SystemResolver)(nil)

func (s *SystemResolver) Name() string { return "system" }

// LookupTXT returns one string per record with its segments concatenated.
// Not-found, no-data, timeout and server failures are retryable.
func (s *SystemResolver) LookupTXT(ctx context.Context, host string) ([]string, error) {
	r := s.Resolver
	if r == nil {
		r = net.DefaultResolver
	}

	records, err := r.LookupTXT(ctx, host)
	if err == nil {
		return records, nil
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) && (dnsErr.IsNotFound || dnsErr.IsTimeout || dnsErr.IsTemporary || isServerFailure(dnsErr)) {
		return nil, errors.Join(ErrRetryable, ErrDNSLookupFailed, err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return nil, errors.Join(ErrRetryable, ErrDNSLookupFailed, err)
	}
	return nil, errors.Join(ErrDNSLookupFailed, fmt.Errorf("system resolver: %w", err))
}

func isServerFailure(e *net.DNSError) bool {
	return e.Err == "server misbehaving" || e.Err == "no such host" || e.Err == "no answer from DNS server"
}
