package hostrouter

import "strings"

// Kind tells how a host relates to the platform domain.
type Kind int

const (
	// KindPlatform is the platform apex or its www alias.
	KindPlatform Kind = iota
	// KindSubdomain is a tenant subdomain of the platform.
	KindSubdomain
	// KindCustom is any host outside the platform domain.
	KindCustom
)

func (k Kind) String() string {
	switch k {
	case KindPlatform:
		return "platform"
	case KindSubdomain:
		return "subdomain"
	default:
		return "custom"
	}
}

// Match is the classification of a single host.
type Match struct {
	Kind Kind
	// Host is the normalized host.
	Host string
	// Label is the leftmost label for KindSubdomain, empty otherwise.
	Label string
}

// Classify normalizes host and classifies it against platformDomain.
//
// Examples with platform "bxsite.com":
//
//	"bxsite.com"             -> KindPlatform
//	"www.bxsite.com"         -> KindPlatform
//	"myslug.bxsite.com:443"  -> KindSubdomain, Label "myslug"
//	"a.b.bxsite.com"         -> KindSubdomain, Label "a"
//	"blog.example.com"       -> KindCustom
func Classify(host, platformDomain string) Match {
	h := Normalize(host)
	base := Normalize(platformDomain)

	if base != "" && (h == base || h == "www."+base) {
		return Match{Kind: KindPlatform, Host: h}
	}

	sub := Subdomain(h, base)
	if sub == "" {
		return Match{Kind: KindCustom, Host: h}
	}

	label, _, _ := strings.Cut(sub, ".")
	return Match{Kind: KindSubdomain, Host: h, Label: label}
}

// Normalize strips the port and a trailing dot and converts to lowercase.
// IPv6 literals keep their brackets.
func Normalize(host string) string {
	host = strings.TrimSpace(host)
	if idx := strings.LastIndex(host, ":"); idx != -1 {
		// Check it's not an IPv6 address
		if !strings.Contains(host[idx:], "]") {
			host = host[:idx]
		}
	}
	return strings.TrimSuffix(strings.ToLower(host), ".")
}
