// Package ratelimit limits write operations per account with a rolling
// window kept in a [kv.Window] hit log.
//
// A hit is accepted only while fewer than the limit of earlier accepted hits
// are younger than the window, so no span of that length ever holds more
// than the limit. Once the limit is reached, [Limiter.Allow] returns a
// [*LimitedError] carrying the time until the oldest counted hit ages out.
//
//	limiter := ratelimit.New(store) // 10 hits per 60s, "ratelimit-writes:" prefix
//	if err := limiter.Allow(ctx, accountID); err != nil {
//		var le *ratelimit.LimitedError
//		if errors.As(err, &le) {
//			w.Header().Set("Retry-After", strconv.Itoa(int(le.RetryAfter.Seconds())))
//		}
//	}
package ratelimit
