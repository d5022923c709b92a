package dnsverify

import "errors"

var (
	ErrDNSLookupFailed   = errors.New("dnsverify: dns lookup failed")
	ErrDomainNotVerified = errors.New("dnsverify: domain not verified")
	ErrTXTRecordNotFound = errors.New("dnsverify: txt record not found")
	ErrInvalidInput      = errors.New("dnsverify: invalid domain or token")

	ErrEmptyDomain    = errors.New("dnsverify: domain cannot be empty")
	ErrInvalidDomain  = errors.New("dnsverify: invalid domain format")
	ErrPlatformDomain = errors.New("dnsverify: cannot use the platform domain or its subdomains")
	ErrPrivateDomain  = errors.New("dnsverify: cannot use local or private IP addresses")

	// ErrRetryable marks a resolver failure after which the next resolver
	// in the chain should be tried.
	ErrRetryable = errors.New("dnsverify: resolver unavailable")
)
