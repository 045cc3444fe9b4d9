// Package middleware provides the gin middleware stack of the AstraTerm server.
//
// Middleware stack includes:
//   - RequestID: ULID request ids, echoed in the X-Request-ID header
//   - Recovery: Panic recovery with a JSON 500 response
//   - AccessLog: One zap entry per request
//   - CORS: Cross-origin resource sharing for browser front-ends
//   - RateLimit: Per-IP token bucket rate limiting with idle cleanup
//
// Example Usage:
//
//	router.Use(middleware.RequestID())
//	router.Use(middleware.Recovery(logger))
//	router.Use(middleware.AccessLog(logger))
//	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
//	router.Use(middleware.RateLimit(middleware.DefaultRateLimitConfig()))
package middleware
