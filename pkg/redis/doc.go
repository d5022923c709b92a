// Package redis opens and supervises the Redis connection that backs the
// bxsite index store.
//
// It wraps [github.com/redis/go-redis/v9] with env-driven [Config], startup
// retries, a readiness check, and a shutdown hook.
//
//	client, err := redis.Open(ctx, cfg.Redis)
//	if err != nil {
//		return err
//	}
//	store := kv.NewRedis(client)
//
//	server.Run(handler,
//		server.WithReadinessCheck("redis", redis.Healthcheck(client)),
//		server.WithShutdownHook(redis.Shutdown(client)),
//	)
//
// Errors:
//
//   - [ErrEmptyConnectionURL] - empty URL
//   - [ErrFailedToParseURL] - bad scheme or malformed URL
//   - [ErrConnectionFailed] - PING failed after all retry attempts
//   - [ErrHealthcheckFailed] - readiness PING failed
package redis
