// Package dnsverify provides DNS-based domain ownership verification.
//
// A domain owner proves control by publishing a TXT record at a well-known
// host below the domain:
//
//	_bxsite-verify.example.com. TXT "bxsite-verify=<token>"
//
// [TXTHost] and [TXTValue] build the expected host and value.
//
// # Basic Usage
//
//	v := dnsverify.New()
//	res := v.Verify(ctx, "example.com", token)
//	if !res.Verified {
//		// res.Reason classifies the failure, res.Message is user facing.
//	}
//
// [Result.Err] maps a failed result to a sentinel error.
//
// # Resolver Chain
//
// The default chain queries the system resolver first. When it fails with
// a resolver-level error (not found, no data, timeout, server failure) the
// [Verifier] falls back to DNS-over-HTTPS providers in order: Google, then
// Cloudflare. The first resolver that answers without error is
// authoritative, including an empty answer. A DoH NXDOMAIN status counts
// as zero records.
//
// Each attempt is bounded by [DefaultAttemptTimeout] and the whole call by
// [DefaultTimeout]. Concurrent calls for the same host share one lookup.
//
// Custom chains can be built from any [Resolver]:
//
//	v := dnsverify.New(
//		dnsverify.WithResolvers(dnsverify.Cloudflare(httpClient)),
//		dnsverify.WithAttemptTimeout(2*time.Second),
//	)
//
// # Matching
//
// Records are cleaned of quotes and escape backslashes. The expected value
// matches when it is a substring of any single record or of all records
// joined by a space.
//
// # Domain Validation
//
// [ValidateDomain] is a synchronous gate run before any lookup. It rejects
// malformed names, the platform domain and its subdomains, and
// local or private-network literals. The private check is substring and
// prefix based, so it also refuses public names like mylocalhost.dev or
// 10.example.com. Both this and the joined-record TXT match are known
// permissive heuristics.
//
// # Error Handling
//
//   - ErrInvalidInput: domain or token is empty
//   - ErrTXTRecordNotFound: no TXT records found for the host
//   - ErrDNSLookupFailed: every resolver failed, or one failed hard
//   - ErrDomainNotVerified: TXT records exist but none contains the value
//   - ErrEmptyDomain, ErrInvalidDomain, ErrPlatformDomain, ErrPrivateDomain:
//     returned by ValidateDomain
package dnsverify
