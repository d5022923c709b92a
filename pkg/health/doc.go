// Package health provides HTTP handlers for health probes.
//
// [LivenessHandler] always answers OK while the process runs.
// [ReadinessHandler] runs a set of named [Checks] in parallel under a shared
// timeout and reports the aggregate.
//
// Checks named with [WithOptional] only degrade the service: the probe still
// answers 200, with status "degraded", so an unreachable DNS-over-HTTPS
// provider does not pull the instance out of rotation the way a lost Redis
// connection does.
//
//	health.Mount(r, health.Checks{
//	    "redis": redis.Healthcheck(client),
//	    "dns":   dnsCheck,
//	}, health.WithOptional("dns"), health.WithLogger(log))
//
// # Response Formats
//
// Handlers respond with plain text by default. Request JSON with
// Accept: application/json or ?format=json:
//
//	{
//	  "status": "degraded",
//	  "checks": {
//	    "redis": {"status": "healthy"},
//	    "dns": {"status": "degraded", "error": "lookup timed out"}
//	  }
//	}
//
// Plain text responses:
//   - 200 OK: "OK" or "Degraded"
//   - 503 Service Unavailable: "Service Unavailable"
package health
