// Package middleware provides HTTP middleware for the CRC portal API.
//
// # Available Middleware
//
//   - RequestID: assigns or propagates X-Request-ID
//   - Logger: structured request logging via slog
//   - Recovery: turns panics into a problem+json 500
//   - CORS: origin allow-list for the admin frontend
//   - RateLimit: per-client token bucket on write requests
//   - Idempotency: replays responses for a repeated Idempotency-Key
//   - Compress: gzip for everything except event streams
//
// Middleware is composed with Chain, outermost first:
//
//	handler := middleware.Chain(mux,
//		middleware.RequestID,
//		middleware.Logger,
//		middleware.Recovery,
//	)
package middleware
