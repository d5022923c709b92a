// Package hostrouter classifies request hosts against a platform domain.
//
// Every inbound Host header is one of three kinds:
//
//   - KindPlatform: the platform apex or www alias, served by the platform itself
//   - KindSubdomain: "<label>.<platform>", where the leftmost label names a tenant
//   - KindCustom: any other host, resolved through the domain index
//
// # Usage
//
//	m := hostrouter.Classify(r.Host, "bxsite.com")
//	switch m.Kind {
//	case hostrouter.KindSubdomain:
//		serveTenant(m.Label)
//	case hostrouter.KindCustom:
//		lookupDomain(m.Host)
//	}
//
// Host matching is case-insensitive, and ports and trailing dots are
// stripped before matching.
//
// # IPv6 Support
//
// IPv6 addresses are supported. Addresses with ports like "[::1]:8080"
// keep their brackets during normalization.
package hostrouter
