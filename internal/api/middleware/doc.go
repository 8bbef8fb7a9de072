// Package middleware provides the HTTP middleware of the gateway.
//
// Middleware stack includes:
//   - RequestID: Correlation ID per request (X-Request-ID)
//   - AccessLog: One structured log line per request
//   - CORS: Cross-origin access limited to localhost origins
//   - RateLimit: Global token bucket in front of every command
//
// Example Usage:
//
//	router.Use(middleware.RequestID())
//	router.Use(middleware.AccessLog(logger))
//	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
//	router.Use(middleware.GlobalRateLimit(middleware.DefaultRateLimitConfig()))
package middleware
