// Package sanitizer cleans untrusted HTML with bluemonday policies.
//
// StripHTML removes all markup for page descriptions. SanitizeMarkdownHTML
// keeps the full set of elements a GFM renderer produces while dropping
// scripts, event handlers and unsafe URLs.
package sanitizer
