package redis

import "errors"

// Errors returned by Open, Connect and Healthcheck. Callers match them
// with errors.Is; the underlying driver error is joined.
var (
	ErrEmptyConnectionURL = errors.New("redis: REDIS_URL is empty")
	ErrFailedToParseURL   = errors.New("redis: REDIS_URL is not a valid redis:// or rediss:// URL")
	ErrConnectionFailed   = errors.New("redis: server did not answer PING")
	ErrHealthcheckFailed  = errors.New("redis: store healthcheck failed")
)
