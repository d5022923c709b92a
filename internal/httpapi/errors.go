package httpapi

import (
	"errors"
	"net/http"
	"time"

	"github.com/dmitrymomot/bxsite/internal/lifecycle"
)

// Sentinel errors for request decoding.
var (
	ErrInvalidBody   = errors.New("httpapi: invalid request body")
	ErrBodyTooLarge  = errors.New("httpapi: request body too large")
	ErrInvalidFields = errors.New("httpapi: request validation failed")
)

// HTTPError is an error with everything needed to render a JSON error
// response.
type HTTPError struct {
	// Err is the underlying error, for logging only.
	Err error

	// Message is the user-facing error message.
	Message string

	// Hint tells the caller how to fix the problem.
	Hint string

	// ErrorCode is a stable machine-readable code.
	ErrorCode string

	// RequestID is the request tracking ID.
	RequestID string

	// RetryAfter is sent as the Retry-After header when positive.
	RetryAfter time.Duration

	// Code is the HTTP status code.
	Code int
}

func (e *HTTPError) Error() string {
	return e.Message
}

func (e *HTTPError) Unwrap() error {
	return e.Err
}

func (e *HTTPError) StatusCode() int {
	return e.Code
}

// HTTPErrorOption configures an HTTPError.
type HTTPErrorOption func(*HTTPError)

// NewHTTPError creates an HTTPError with the given status code and message.
func NewHTTPError(code int, message string, opts ...HTTPErrorOption) *HTTPError {
	e := &HTTPError{Code: code, Message: message}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func WithHint(hint string) HTTPErrorOption {
	return func(e *HTTPError) {
		e.Hint = hint
	}
}

func WithErrorCode(code string) HTTPErrorOption {
	return func(e *HTTPError) {
		e.ErrorCode = code
	}
}

func WithError(err error) HTTPErrorOption {
	return func(e *HTTPError) {
		e.Err = err
	}
}

func WithRetryAfter(d time.Duration) HTTPErrorOption {
	return func(e *HTTPError) {
		e.RetryAfter = d
	}
}

func ErrBadRequest(message string, opts ...HTTPErrorOption) *HTTPError {
	return NewHTTPError(http.StatusBadRequest, message, append([]HTTPErrorOption{WithErrorCode("bad_request")}, opts...)...)
}

func ErrInternal(opts ...HTTPErrorOption) *HTTPError {
	return NewHTTPError(http.StatusInternalServerError, "Unexpected error", append([]HTTPErrorOption{WithErrorCode("internal")}, opts...)...)
}

// AsHTTPError converts any error into an HTTPError. Lifecycle errors keep
// their message and map their kind to a status code; anything else becomes
// a generic 500.
func AsHTTPError(err error) *HTTPError {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr
	}

	le, ok := lifecycle.AsError(err)
	if !ok || le.Kind == lifecycle.KindInternal {
		return ErrInternal(WithError(err))
	}

	return NewHTTPError(statusFor(le.Kind), le.Message,
		WithErrorCode(le.Kind.String()),
		WithHint(le.Hint),
		WithRetryAfter(le.RetryAfter),
		WithError(le.Err),
	)
}

func statusFor(kind lifecycle.Kind) int {
	switch kind {
	case lifecycle.KindValidation:
		return http.StatusBadRequest
	case lifecycle.KindConflict:
		return http.StatusConflict
	case lifecycle.KindUnauthenticated:
		return http.StatusUnauthorized
	case lifecycle.KindForbidden, lifecycle.KindQuota:
		return http.StatusForbidden
	case lifecycle.KindRateLimit:
		return http.StatusTooManyRequests
	case lifecycle.KindNotFound:
		return http.StatusNotFound
	case lifecycle.KindVerificationPending:
		// A pending proof is a normal outcome, rendered by the verify
		// handler. Reaching here means it escaped that path.
		return http.StatusOK
	default:
		return http.StatusInternalServerError
	}
}
