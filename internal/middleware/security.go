package middleware

import "net/http"

// Security sets a baseline set of response headers against content-sniffing
// and clickjacking. The x402/A2A payment headers are handled separately by
// CORSOptions.
func Security(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "no-referrer")
		next.ServeHTTP(w, r)
	})
}
