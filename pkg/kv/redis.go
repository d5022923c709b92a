package kv

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisOption configures the Redis store.
type RedisOption func(*Redis)

// WithKeyPrefix namespaces every key as "{prefix}:{key}".
// Useful when several deployments share one Redis database.
func WithKeyPrefix(prefix string) RedisOption {
	return func(r *Redis) {
		r.prefix = strings.TrimSuffix(prefix, ":")
	}
}

// WithScanCount sets the COUNT hint passed to SCAN.
// Default: 100.
func WithScanCount(n int64) RedisOption {
	return func(r *Redis) {
		if n > 0 {
			r.scanCount = n
		}
	}
}

// Redis is a Store backed by Redis.
type Redis struct {
	client    redis.UniversalClient
	prefix    string
	scanCount int64
}

// NewRedis creates a Redis-backed store.
// The client lifecycle is owned by the caller (see pkg/redis.Shutdown).
func NewRedis(client redis.UniversalClient, opts ...RedisOption) *Redis {
	r := &Redis{
		client:    client,
		scanCount: 100,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Redis) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := r.client.Get(ctx, r.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return data, nil
}

func (r *Redis) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	// Redis treats 0 as "no expiration".
	return r.client.Set(ctx, r.key(key), value, max(ttl, 0)).Err()
}

func (r *Redis) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, r.key(key)).Err()
}

// hitScript trims the sorted-set hit log, then adds the new hit if the
// log is under the limit. Scores are server milliseconds from TIME, so
// clock skew between app instances does not matter.
// Returns {1, 0} when recorded and {0, retryAfterMs} when rejected.
var hitScript = redis.NewScript(`
local t = redis.call('TIME')
local now = tonumber(t[1]) * 1000 + math.floor(tonumber(t[2]) / 1000)
local window = tonumber(ARGV[1])
local limit = tonumber(ARGV[2])
redis.call('ZREMRANGEBYSCORE', KEYS[1], '-inf', now - window)
if redis.call('ZCARD', KEYS[1]) < limit then
	redis.call('ZADD', KEYS[1], now, now .. '-' .. ARGV[3])
	redis.call('PEXPIRE', KEYS[1], window)
	return {1, 0}
end
local oldest = redis.call('ZRANGE', KEYS[1], 0, 0, 'WITHSCORES')
return {0, tonumber(oldest[2]) + window - now}
`)

// Hit runs the rolling-window check as one Lua script. The key holds a
// sorted set of hit times; members carry a UUID so hits in the same
// millisecond are kept apart.
func (r *Redis) Hit(ctx context.Context, key string, limit int, window time.Duration) (bool, time.Duration, error) {
	if limit <= 0 || window < time.Millisecond {
		return false, 0, ErrInvalidWindow
	}

	res, err := hitScript.Run(ctx, r.client, []string{r.key(key)},
		window.Milliseconds(), limit, uuid.NewString()).Int64Slice()
	if err != nil {
		if strings.Contains(err.Error(), "WRONGTYPE") {
			return false, 0, errors.Join(ErrWrongType, err)
		}
		return false, 0, err
	}
	if len(res) != 2 {
		return false, 0, fmt.Errorf("kv: unexpected hit script reply %v", res)
	}
	if res[0] == 1 {
		return true, 0, nil
	}
	return false, time.Duration(res[1]) * time.Millisecond, nil
}

func (r *Redis) SAdd(ctx context.Context, key string, members ...string) error {
	if len(members) == 0 {
		return nil
	}
	return r.client.SAdd(ctx, r.key(key), toAny(members)...).Err()
}

func (r *Redis) SRem(ctx context.Context, key string, members ...string) error {
	if len(members) == 0 {
		return nil
	}
	return r.client.SRem(ctx, r.key(key), toAny(members)...).Err()
}

func (r *Redis) SMembers(ctx context.Context, key string) ([]string, error) {
	members, err := r.client.SMembers(ctx, r.key(key)).Result()
	if err != nil {
		if strings.HasPrefix(err.Error(), "WRONGTYPE") {
			return nil, errors.Join(ErrWrongType, err)
		}
		return nil, err
	}
	return members, nil
}

// Scan walks keys with SCAN, which does not block the server.
func (r *Redis) Scan(ctx context.Context, prefix string, fn func(key string) error) error {
	pattern := r.key(prefix) + "*"
	var cursor uint64

	for {
		keys, next, err := r.client.Scan(ctx, cursor, pattern, r.scanCount).Result()
		if err != nil {
			return err
		}
		for _, k := range keys {
			if err := fn(r.unkey(k)); err != nil {
				return err
			}
		}
		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}

// Close is a no-op; the client is closed through pkg/redis.Shutdown.
func (r *Redis) Close() error {
	return nil
}

func (r *Redis) key(key string) string {
	if r.prefix == "" {
		return key
	}
	return r.prefix + ":" + key
}

func (r *Redis) unkey(key string) string {
	if r.prefix == "" {
		return key
	}
	return strings.TrimPrefix(key, r.prefix+":")
}

func toAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

var _ Store = (*Redis)(nil)
