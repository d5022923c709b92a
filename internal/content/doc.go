// Package content renders published sites.
//
// Markdown is converted with goldmark (GitHub flavored, hard line breaks),
// raw HTML in the source is dropped, and the output is sanitized with the
// markdown policy from pkg/sanitizer before it reaches the page template.
//
// Page metadata follows these rules:
//
//   - Title is the first "# " heading, or the identifier in title case.
//   - Description is the first prose line with inline markup removed,
//     capped at 160 characters, or "View <identifier> on bxsite".
//   - Canonical URL is https://<custom domain> once verified, otherwise
//     https://<identifier>.<platform domain>.
package content
