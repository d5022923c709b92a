// Package sites is the tenant index: site records keyed by identifier, the
// domain mapping secondary index, and per-account ownership sets.
//
// Key layout in the underlying kv.Store:
//
//	site:<identifier>          JSON encoded Site
//	domain:<domain>            identifier that owns the verified domain
//	sites-by-owner:<ownerId>   set of identifiers
//
// The store has no multi-key transactions. Index only offers single-key
// mutators; keeping the mapping in lockstep with Site.CustomDomain is the
// caller's job (see internal/lifecycle).
package sites
