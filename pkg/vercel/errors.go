package vercel

import (
	"errors"
	"fmt"
)

var (
	ErrNotConfigured = errors.New("vercel: token or project not configured")
	ErrInvalidDomain = errors.New("vercel: domain cannot be empty")
	ErrRequestFailed = errors.New("vercel: request failed")
)

// APIError is a non-success response from the Vercel API.
type APIError struct {
	Code       string
	Message    string
	StatusCode int
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("vercel: %s (status %d, code %q)", e.Message, e.StatusCode, e.Code)
	}
	return fmt.Sprintf("vercel: unexpected status %d", e.StatusCode)
}
