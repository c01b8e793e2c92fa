// Package middleware provides the gin middleware used by the operator
// HTTP endpoint.
//
//   - CORS: lets browser dashboards read /status and /metrics
//   - RateLimit: per-client token bucket, idle clients are evicted
//   - GlobalRateLimit: one bucket shared by every client, used to pace
//     fault injection
//
// Example Usage:
//
//	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
//	router.Use(middleware.RateLimit(middleware.DefaultRateLimitConfig()))
package middleware
