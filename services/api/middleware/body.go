package middleware

import "net/http"

// MaxBodySize caps request bodies at limit bytes. Reads past the limit fail
// the request with 413 via http.MaxBytesReader.
func MaxBodySize(limit int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Body = http.MaxBytesReader(w, r.Body, limit)
			next.ServeHTTP(w, r)
		})
	}
}
