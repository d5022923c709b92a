package kv

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"
	"time"
)

// MemoryOption configures the in-memory store.
type MemoryOption func(*Memory)

// WithCleanupInterval sets how often expired keys are purged by the
// background janitor. Zero disables the janitor; expired keys are then
// only dropped when touched.
// Default: 1 minute.
func WithCleanupInterval(d time.Duration) MemoryOption {
	return func(m *Memory) {
		m.cleanupInterval = d
	}
}

// WithClock replaces the time source. Intended for tests that need to
// move past a TTL without sleeping.
func WithClock(now func() time.Time) MemoryOption {
	return func(m *Memory) {
		if now != nil {
			m.now = now
		}
	}
}

type memEntry struct {
	expiresAt time.Time // zero value = never expires
	set       map[string]struct{}
	value     []byte
	hits      []time.Time // oldest first
}

func (e *memEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}

// Memory is an in-process Store. All operations are serialized by one
// mutex, which gives the single-key atomicity the Store contract requires.
type Memory struct {
	items           map[string]*memEntry
	now             func() time.Time
	done            chan struct{}
	cleanupInterval time.Duration
	mu              sync.Mutex
	closed          bool
}

// NewMemory creates an in-memory store.
//
// Example:
//
//	store := kv.NewMemory(kv.WithCleanupInterval(30 * time.Second))
//	defer store.Close()
func NewMemory(opts ...MemoryOption) *Memory {
	m := &Memory{
		items:           make(map[string]*memEntry),
		now:             time.Now,
		done:            make(chan struct{}),
		cleanupInterval: time.Minute,
	}
	for _, opt := range opts {
		opt(m)
	}

	if m.cleanupInterval > 0 {
		go m.janitor()
	}

	return m
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, err := m.lookup(key)
	if err != nil {
		return nil, err
	}
	if e.set != nil || e.hits != nil {
		return nil, ErrWrongType
	}
	return slices.Clone(e.value), nil
}

func (m *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}

	m.items[key] = &memEntry{
		value:     slices.Clone(value),
		expiresAt: m.expiry(ttl),
	}
	return nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}

	delete(m.items, key)
	return nil
}

func (m *Memory) Hit(_ context.Context, key string, limit int, window time.Duration) (bool, time.Duration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if limit <= 0 || window <= 0 {
		return false, 0, ErrInvalidWindow
	}

	now := m.now()
	e, err := m.lookup(key)
	switch {
	case errors.Is(err, ErrNotFound):
		m.items[key] = &memEntry{hits: []time.Time{now}, expiresAt: now.Add(window)}
		return true, 0, nil
	case err != nil:
		return false, 0, err
	case e.hits == nil:
		return false, 0, ErrWrongType
	}

	cutoff := now.Add(-window)
	i := 0
	for i < len(e.hits) && !e.hits[i].After(cutoff) {
		i++
	}
	e.hits = e.hits[i:]

	if len(e.hits) >= limit {
		return false, e.hits[0].Add(window).Sub(now), nil
	}
	e.hits = append(e.hits, now)
	e.expiresAt = now.Add(window)
	return true, 0, nil
}

func (m *Memory) SAdd(_ context.Context, key string, members ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}
	if len(members) == 0 {
		return nil
	}

	e, err := m.lookup(key)
	if errors.Is(err, ErrNotFound) {
		e = &memEntry{set: make(map[string]struct{}, len(members))}
		m.items[key] = e
	} else if err != nil {
		return err
	} else if e.set == nil {
		return ErrWrongType
	}

	for _, member := range members {
		e.set[member] = struct{}{}
	}
	return nil
}

func (m *Memory) SRem(_ context.Context, key string, members ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}

	e, err := m.lookup(key)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if e.set == nil {
		return ErrWrongType
	}

	for _, member := range members {
		delete(e.set, member)
	}
	// Redis drops empty sets; mirror that.
	if len(e.set) == 0 {
		delete(m.items, key)
	}
	return nil
}

func (m *Memory) SMembers(_ context.Context, key string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, err := m.lookup(key)
	if errors.Is(err, ErrNotFound) {
		return []string{}, nil
	}
	if err != nil {
		return nil, err
	}
	if e.set == nil {
		return nil, ErrWrongType
	}

	out := make([]string, 0, len(e.set))
	for member := range e.set {
		out = append(out, member)
	}
	return out, nil
}

// Scan snapshots matching keys before calling fn, so fn may mutate the store.
func (m *Memory) Scan(ctx context.Context, prefix string, fn func(key string) error) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrClosed
	}
	now := m.now()
	keys := make([]string, 0)
	for k, e := range m.items {
		if strings.HasPrefix(k, prefix) && !e.expired(now) {
			keys = append(keys, k)
		}
	}
	m.mu.Unlock()

	slices.Sort(keys)
	for _, k := range keys {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(k); err != nil {
			return err
		}
	}
	return nil
}

// Close stops the janitor and marks the store closed. Close is idempotent.
func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil
	}
	m.closed = true
	close(m.done)
	return nil
}

// lookup returns the live entry for key, dropping it if expired.
// Caller must hold the mutex.
func (m *Memory) lookup(key string) (*memEntry, error) {
	if m.closed {
		return nil, ErrClosed
	}
	e, ok := m.items[key]
	if !ok {
		return nil, ErrNotFound
	}
	if e.expired(m.now()) {
		delete(m.items, key)
		return nil, ErrNotFound
	}
	return e, nil
}

func (m *Memory) expiry(ttl time.Duration) time.Time {
	if ttl <= 0 {
		return time.Time{}
	}
	return m.now().Add(ttl)
}

func (m *Memory) janitor() {
	ticker := time.NewTicker(m.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
			m.deleteExpired()
		}
	}
}

func (m *Memory) deleteExpired() {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	for k, e := range m.items {
		if e.expired(now) {
			delete(m.items, k)
		}
	}
}

var _ Store = (*Memory)(nil)
