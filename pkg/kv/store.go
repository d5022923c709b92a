package kv

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// Store is the index store contract.
//
// TTL semantics for Set:
//   - Positive duration: the key expires after this duration
//   - Zero or negative: the key never expires
type Store interface {
	// Get returns the raw value stored at key.
	// Returns ErrNotFound if the key does not exist or has expired.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value at key, replacing any previous value.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	Window

	// SAdd adds members to the set stored at key.
	SAdd(ctx context.Context, key string, members ...string) error

	// SRem removes members from the set stored at key.
	SRem(ctx context.Context, key string, members ...string) error

	// SMembers returns all members of the set stored at key.
	// A missing key yields an empty slice.
	SMembers(ctx context.Context, key string) ([]string, error)

	// Scan calls fn for every key starting with prefix.
	// Iteration stops at the first error returned by fn.
	Scan(ctx context.Context, prefix string, fn func(key string) error) error

	// Close releases resources held by the store.
	Close() error
}

// Window is the rolling-window primitive used for rate limits. It keeps a
// log of hit times per key.
type Window interface {
	// Hit records one hit for key unless limit hits already fall within the
	// trailing window. A hit counts while it is younger than window.
	// Rejected hits are not recorded. When ok is false, retryAfter is the
	// time until the oldest counted hit leaves the window.
	Hit(ctx context.Context, key string, limit int, window time.Duration) (ok bool, retryAfter time.Duration, err error)
}

// GetJSON loads the value at key and decodes it into dst.
func GetJSON(ctx context.Context, s Store, key string, dst any) error {
	data, err := s.Get(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return errors.Join(ErrUnmarshal, err)
	}
	return nil
}

// SetJSON encodes v and stores it at key.
func SetJSON(ctx context.Context, s Store, key string, v any, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return errors.Join(ErrMarshal, err)
	}
	return s.Set(ctx, key, data, ttl)
}
