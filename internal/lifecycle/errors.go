package lifecycle

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrymomot/bxsite/pkg/dnsverify"
)

// Kind classifies a rejected operation.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindConflict
	KindUnauthenticated
	KindForbidden
	KindQuota
	KindRateLimit
	KindNotFound
	KindVerificationPending
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindConflict:
		return "conflict"
	case KindUnauthenticated:
		return "unauthenticated"
	case KindForbidden:
		return "forbidden"
	case KindQuota:
		return "quota"
	case KindRateLimit:
		return "rate_limit"
	case KindNotFound:
		return "not_found"
	case KindVerificationPending:
		return "verification_pending"
	default:
		return "internal"
	}
}

// Sentinels matched by errors.Is against an *Error of the same kind.
var (
	ErrInternal            = errors.New("lifecycle: internal error")
	ErrValidation          = errors.New("lifecycle: validation failed")
	ErrConflict            = errors.New("lifecycle: conflict")
	ErrUnauthenticated     = errors.New("lifecycle: not authenticated")
	ErrForbidden           = errors.New("lifecycle: forbidden")
	ErrQuota               = errors.New("lifecycle: quota exceeded")
	ErrRateLimited         = errors.New("lifecycle: rate limited")
	ErrNotFound            = errors.New("lifecycle: not found")
	ErrVerificationPending = errors.New("lifecycle: verification pending")
)

var kindSentinels = map[Kind]error{
	KindInternal:            ErrInternal,
	KindValidation:          ErrValidation,
	KindConflict:            ErrConflict,
	KindUnauthenticated:     ErrUnauthenticated,
	KindForbidden:           ErrForbidden,
	KindQuota:               ErrQuota,
	KindRateLimit:           ErrRateLimited,
	KindNotFound:            ErrNotFound,
	KindVerificationPending: ErrVerificationPending,
}

// Error is a rejected operation. Message is stable and safe to show to the
// caller; Err is the cause and is only meant for logs.
type Error struct {
	Err        error
	Message    string
	Hint       string
	Reason     dnsverify.Reason
	RetryAfter time.Duration
	Kind       Kind
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	return kindSentinels[e.Kind] == target
}

// Retryable reports whether repeating the same call later may succeed.
func (e *Error) Retryable() bool {
	return e.Kind == KindRateLimit || e.Kind == KindVerificationPending
}

// AsError extracts an *Error from err.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// KindOf returns the kind of err, or KindInternal for foreign errors.
func KindOf(err error) Kind {
	if e, ok := AsError(err); ok {
		return e.Kind
	}
	return KindInternal
}

const msgUnexpected = "Unexpected error"

func newError(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

func internalError(op string, err error) *Error {
	return &Error{Kind: KindInternal, Message: msgUnexpected, Err: fmt.Errorf("%s: %w", op, err)}
}

func errNotAuthenticated() *Error { return newError(KindUnauthenticated, "Not authenticated") }

// errForbidden never says who owns the site.
func errForbidden() *Error { return newError(KindForbidden, "Forbidden") }

func errSiteNotFound() *Error { return newError(KindNotFound, "Not found") }

func errInvalidIdentifier() *Error {
	return newError(KindValidation, "Invalid identifier. Use a-z, 0-9, hyphens, 3-30 chars.")
}
