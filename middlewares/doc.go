// Package middlewares provides the net/http middleware stack of the bxsite
// server.
//
// # Request ID
//
// RequestID assigns a unique ID to each request for tracing and debugging.
// It reuses an incoming X-Request-ID (or a configured header) or generates a
// UUID. Use RequestIDExtractor with logger.New for automatic request_id in
// all logs:
//
//	log := logger.New(nil, middlewares.RequestIDExtractor(), middlewares.AccountExtractor())
//	r := chi.NewRouter()
//	r.Use(middlewares.RequestID())
//
// # Recover
//
// Recover catches panics, logs them with a stack trace and hands a
// PanicError to a response callback:
//
//	r.Use(middlewares.Recover(
//	    middlewares.WithRecoverLogger(log),
//	    middlewares.WithRecoverHandler(func(w http.ResponseWriter, r *http.Request, pe *middlewares.PanicError) {
//	        http.Error(w, "Unexpected error", http.StatusInternalServerError)
//	    }),
//	))
//
// # Timeout
//
// Timeout bounds the request context. Handlers must honor ctx.Done(); when
// one returns after the deadline without writing, a 504 is written.
//
// # Identity
//
// AuthIdentity resolves the caller from an HS256 bearer token whose sub
// claim is the account identifier. It never rejects requests; handlers read
// GetIdentity and decide. WithDevBypass turns anonymous callers into the
// "dev" account with ownership checks lifted, for local development only.
package middlewares
