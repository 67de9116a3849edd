package middleware

import (
	"encoding/json"
	"net/http"
	"runtime/debug"

	"github.com/jhaveripatric/x402-agent-gateway/internal/logx"
)

// Recovery recovers from panics and returns 500 error.
func Recovery(logger logx.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					reqID := GetRequestID(r.Context())
					logger.Error("panic recovered", map[string]any{
						"requestId": reqID,
						"panic":     err,
						"stack":     string(debug.Stack()),
					})

					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					json.NewEncoder(w).Encode(map[string]string{
						"error":      "internal server error",
						"request_id": reqID,
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
