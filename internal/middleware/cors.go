package middleware

import (
	"github.com/go-chi/cors"
)

// CORSOptions returns the gateway's CORS configuration. §6.1 asks for a
// permissive wildcard origin and the x402/A2A-specific header set on top of
// the teacher's baseline options.
func CORSOptions(allowedOrigins []string) cors.Options {
	origins := allowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	return cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{
			"Accept", "Authorization", "Content-Type", "X-Request-ID",
			"X-Payment", "X-Payment-Response", "Payment-Signature",
			"Payment-Required", "X-A2A-Extensions",
		},
		ExposedHeaders: []string{
			"X-Request-ID", "X-Payment-Response", "Payment-Response",
			"Payment-Required", "X-A2A-Extensions",
		},
		AllowCredentials: true,
		MaxAge:           300,
	}
}
