package middleware

import (
	"net/http"
	"time"

	"github.com/jhaveripatric/x402-agent-gateway/internal/logx"
)

// Logging logs one structured entry per request via the given logger.
func Logging(logger logx.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)
			logger.Info("request", map[string]any{
				"requestId": GetRequestID(r.Context()),
				"method":    r.Method,
				"path":      r.URL.Path,
				"status":    rec.status,
				"durationMs": time.Since(start).Milliseconds(),
			})
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
