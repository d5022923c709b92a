package hostrouter

import (
	"net/http"
	"strings"
)

// GetDomain returns the normalized domain from the request Host header.
// Strips port, handles IPv6, and converts to lowercase.
//
// Examples:
//
//	"example.com:8080" -> "example.com"
//	"[::1]:8080" -> "[::1]"
//	"Example.COM." -> "example.com"
func GetDomain(r *http.Request) string {
	return Normalize(r.Host)
}

// Subdomain returns the part of a normalized host before ".base".
func Subdomain(host, base string) string {
	if base == "" || host == base {
		return ""
	}
	suffix := "." + base
	if !strings.HasSuffix(host, suffix) {
		return ""
	}
	return strings.TrimSuffix(host, suffix)
}
