package ratelimit

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrLimited       = errors.New("ratelimit: too many requests")
	ErrEmptyKey      = errors.New("ratelimit: empty key")
	ErrCounterFailed = errors.New("ratelimit: hit log unavailable")
)

// LimitedError is returned when a key has exhausted its window.
// It matches ErrLimited with errors.Is.
type LimitedError struct {
	Limit      int
	RetryAfter time.Duration
}

func (e *LimitedError) Error() string {
	return fmt.Sprintf("ratelimit: limit of %d exceeded, retry after %s", e.Limit, e.RetryAfter)
}

func (e *LimitedError) Is(target error) bool {
	return target == ErrLimited
}
