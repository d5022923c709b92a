// Package kv provides the key-value index store used by bxsite.
//
// The store exposes only the primitives the tenant index needs: atomic
// single-key get/set/delete, an atomic rolling-window hit log for rate
// limits, set membership operations, and a prefix scan. No multi-key atomicity is
// offered; callers sequence their writes.
//
// # Backends
//
// Two implementations are provided:
//
//   - [Redis] wraps a [github.com/redis/go-redis/v9] client obtained from
//     pkg/redis.Open.
//   - [Memory] is an in-process store with TTL support, used in tests and
//     for local development without Redis.
//
// # Usage
//
//	client := redis.MustOpen(ctx, os.Getenv("REDIS_URL"))
//	store := kv.NewRedis(client, kv.WithKeyPrefix("bxsite"))
//
//	if err := kv.SetJSON(ctx, store, "site:hello", site, 0); err != nil {
//		return err
//	}
//
//	var out Site
//	if err := kv.GetJSON(ctx, store, "site:hello", &out); errors.Is(err, kv.ErrNotFound) {
//		// absent
//	}
//
// # Rolling windows
//
// [Window.Hit] trims hits older than the window, then records the new hit
// only if fewer than limit remain. The check and the insert are one atomic
// step in both backends; Redis runs them in a Lua script over a sorted set.
//
//	ok, retryAfter, err := store.Hit(ctx, "ratelimit-writes:user-1", 10, time.Minute)
//
// # Error Handling
//
//   - [ErrNotFound] - key does not exist or has expired
//   - [ErrClosed] - operation on a closed memory store
//   - [ErrMarshal] / [ErrUnmarshal] - JSON helper failures
//   - [ErrWrongType] - key holds a value of a different kind
package kv
