// Package lifecycle orchestrates sites and their custom domains:
// publish (create, update, attach, detach), verify, delete, and the
// diagnostics built on them.
//
// A site's domain moves through three states derived from the record:
//
//	no_domain -> pending_verification -> verified
//
// Attaching stores the domain with a fresh token but no mapping. Verify
// installs the mapping, then marks the record verified. Detaching and
// re-attaching remove the old mapping before the record changes, so two
// live domains never point at one site.
//
// Hosting provider calls run detached after the index writes; their
// failures are logged and never change an operation's result.
package lifecycle
