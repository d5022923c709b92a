package dnsverify

import (
	"regexp"
	"strings"
)

var domainPattern = regexp.MustCompile(`^([a-z0-9]([a-z0-9-]{0,61}[a-z0-9])?\.)+[a-z]{2,}$`)

// NormalizeDomain lowercases the domain, trims surrounding whitespace and
// strips a single trailing dot.
func NormalizeDomain(domain string) string {
	domain = strings.ToLower(strings.TrimSpace(domain))
	return strings.TrimSuffix(domain, ".")
}

// ValidateDomain checks that domain is a syntactically valid public domain
// that can be attached to a site. It performs no network calls.
// The platform domain (apex and subdomains) is rejected so tenants cannot
// shadow the platform's own hosts.
//
// The private-name check is textual and over-matches: any name containing
// "localhost", "127.0.0.1" or "0.0.0.0", or starting with "10.", "127.",
// "192.168." or a 172.16-31 pair, is refused. Public names such as
// mylocalhost.dev and 10.example.com are therefore rejected too. Like the
// joined-record TXT match in [Match], this is a known permissive edge kept
// for compatibility with existing sites.
func ValidateDomain(domain, platformDomain string) error {
	d := NormalizeDomain(domain)
	if d == "" {
		return ErrEmptyDomain
	}
	if !domainPattern.MatchString(d) {
		return ErrInvalidDomain
	}

	if p := NormalizeDomain(platformDomain); p != "" {
		if d == p || strings.HasSuffix(d, "."+p) {
			return ErrPlatformDomain
		}
	}

	if isPrivate(d) {
		return ErrPrivateDomain
	}
	return nil
}

func isPrivate(d string) bool {
	for _, s := range []string{"localhost", "127.0.0.1", "0.0.0.0"} {
		if strings.Contains(d, s) {
			return true
		}
	}
	for _, p := range []string{"10.", "127.", "192.168."} {
		if strings.HasPrefix(d, p) {
			return true
		}
	}
	return isPrivate172(d)
}

// isPrivate172 reports whether d starts with a 172.16.0.0/12 octet pair.
func isPrivate172(d string) bool {
	rest, ok := strings.CutPrefix(d, "172.")
	if !ok {
		return false
	}
	octet, _, _ := strings.Cut(rest, ".")
	if len(octet) != 2 {
		return false
	}
	return octet >= "16" && octet <= "31"
}
