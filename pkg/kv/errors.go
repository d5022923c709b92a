package kv

import "errors"

// Sentinel errors for store operations.
var (
	// ErrNotFound is returned when a key does not exist or has expired.
	ErrNotFound = errors.New("kv: key not found")

	// ErrClosed is returned when an operation is attempted on a closed store.
	ErrClosed = errors.New("kv: store closed")

	// ErrWrongType is returned when a key holds a value of another kind
	// (e.g. SMembers on a plain value).
	ErrWrongType = errors.New("kv: wrong value type for key")

	// ErrInvalidWindow is returned by Hit for a non-positive limit or window.
	ErrInvalidWindow = errors.New("kv: invalid rate window")

	// ErrMarshal is returned when value serialization fails.
	ErrMarshal = errors.New("kv: failed to marshal value")

	// ErrUnmarshal is returned when value deserialization fails.
	ErrUnmarshal = errors.New("kv: failed to unmarshal value")
)
