// Package httpapi exposes the site lifecycle as a JSON API and assembles
// the application handler.
//
// Every handler returns an error instead of writing failures itself. Errors
// from the lifecycle keep their stable message and map their kind to a
// status code. Internal failures render a generic "Unexpected error" and
// are logged with their cause.
//
// A pending domain verification is not an error response: the verify
// endpoint answers 200 with verified set to false, the reason, and a hint.
package httpapi
