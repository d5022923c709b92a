package health

import "errors"

// Sentinel errors for the health package.
var (
	// ErrCheckTimeout is joined to a check error when the check ran past the
	// shared timeout.
	ErrCheckTimeout = errors.New("health: check timeout")
)
