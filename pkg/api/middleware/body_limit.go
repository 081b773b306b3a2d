package middleware

import (
	"net/http"
)

// BodySizeLimit creates middleware that rejects request bodies larger than
// maxBytes. Declared lengths are refused up front; chunked bodies are cut
// off by http.MaxBytesReader while the handler reads them.
func BodySizeLimit(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > maxBytes {
				http.Error(w, "Request body too large", http.StatusRequestEntityTooLarge)
				return
			}
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)
		})
	}
}
