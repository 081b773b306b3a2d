// Package middleware provides the HTTP middleware of the graph service.
//
// The middleware package is organized into separate files by concern:
//
//   - recovery.go: Panic recovery middleware
//   - logging.go: Structured request logging
//   - cors.go: Cross-Origin Resource Sharing, backed by go-chi/cors
//   - security_headers.go: Security headers for the API and viewer page
//   - body_limit.go: Request body size limiting
//   - request_id.go: Request ID generation and propagation
//   - ratelimit.go: Per-client rate limiting with x/time/rate buckets
//   - trusted_proxy.go: Client address resolution behind proxies
//   - metrics.go: HTTP metrics collection
//
// All middleware follows the standard pattern: func(http.Handler) http.Handler
// so it plugs straight into chi's Use:
//
//	r := chi.NewRouter()
//	r.Use(middleware.PanicRecovery(logger))
//	r.Use(middleware.RequestID())
//	r.Use(middleware.Logging(logger))
//	r.Use(middleware.CORS(origins))
package middleware
