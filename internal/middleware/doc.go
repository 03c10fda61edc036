// Package middleware provides the HTTP middleware of the terminal server.
//
// CORS wraps gin-contrib/cors. The defaults let any origin list and close
// sessions and read the X-Trace-ID and X-Span-ID response headers;
// credentials are never sent.
//
// RateLimit keeps one token bucket per client IP and forgets clients
// that have been idle for IdleTTL. GlobalRateLimit shares one bucket
// across every client. Both answer 429 with a JSON error when the bucket
// is empty.
//
//	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
//	router.Use(middleware.RateLimit(middleware.DefaultRateLimitConfig()))
package middleware
