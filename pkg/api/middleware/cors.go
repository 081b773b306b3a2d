package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
)

// CORSMaxAge is the preflight cache duration in seconds.
const CORSMaxAge = 86400

// CORS creates middleware that handles Cross-Origin Resource Sharing for
// the listed origins. An empty list disables cross-origin access; "*"
// allows every origin.
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	if len(allowedOrigins) == 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	return cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type", RequestIDHeader},
		ExposedHeaders:   []string{RequestIDHeader},
		AllowCredentials: false,
		MaxAge:           CORSMaxAge,
	})
}
