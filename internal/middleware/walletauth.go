package middleware

import (
	"net/http"

	"github.com/jhaveripatric/x402-agent-gateway/internal/auth"
)

// WalletAuth verifies an optional bearer wallet-assertion JWT and injects
// its claims into the request context. A missing or invalid token is never
// fatal here: the session-bypass path simply falls back to the
// unauthenticated sessionWallet metadata hint (§4.6 rule 6).
func WalletAuth(verifier *auth.Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if verifier != nil && verifier.HasKeys() {
				if token, err := auth.ExtractToken(r); err == nil {
					if claims, err := verifier.Verify(token); err == nil {
						r = r.WithContext(auth.WithClaims(r.Context(), claims))
					}
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
