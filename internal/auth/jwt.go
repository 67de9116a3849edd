package auth

import (
	"crypto/ecdsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"os"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is a wallet-assertion JWT: it lets a caller prove ownership of a
// wallet address instead of asserting it unauthenticated in request
// metadata, for use with the session-bypass path (§4.6 rule 6). The /stats
// view is gated by its shared API key, not by these claims.
type Claims struct {
	Wallet string `json:"wallet"`
	jwt.RegisteredClaims
}

// Verifier validates wallet-assertion JWTs using ES256 public keys, keyed
// by kid, the same shape as the teacher's verifier.
type Verifier struct {
	publicKeys map[string]*ecdsa.PublicKey // kid -> key
	issuer     string
	audience   string
}

// NewVerifier creates a new JWT verifier.
func NewVerifier(issuer, audience string) *Verifier {
	return &Verifier{
		publicKeys: make(map[string]*ecdsa.PublicKey),
		issuer:     issuer,
		audience:   audience,
	}
}

// LoadPublicKey loads a public key from a PEM file under the given kid.
func (v *Verifier) LoadPublicKey(keyID, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read public key: %w", err)
	}

	block, _ := pem.Decode(data)
	if block == nil {
		return fmt.Errorf("no PEM block found")
	}

	pub, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return fmt.Errorf("parse public key: %w", err)
	}

	ecdsaPub, ok := pub.(*ecdsa.PublicKey)
	if !ok {
		return fmt.Errorf("not an ECDSA public key")
	}

	v.publicKeys[keyID] = ecdsaPub
	return nil
}

// HasKeys returns true if any public keys are loaded. When it is false, the
// wallet-assertion path is simply unavailable and callers fall back to the
// unauthenticated sessionWallet metadata hint.
func (v *Verifier) HasKeys() bool {
	return len(v.publicKeys) > 0
}

// Verify validates a JWT and returns its wallet-assertion claims.
func (v *Verifier) Verify(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if token.Method.Alg() != "ES256" {
			return nil, fmt.Errorf("unexpected algorithm: %s", token.Method.Alg())
		}

		kid, ok := token.Header["kid"].(string)
		if !ok {
			return nil, fmt.Errorf("missing kid in header")
		}

		key, ok := v.publicKeys[kid]
		if !ok {
			return nil, fmt.Errorf("unknown kid: %s", kid)
		}

		return key, nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}

	if v.issuer != "" && claims.Issuer != v.issuer {
		return nil, fmt.Errorf("invalid issuer: %s", claims.Issuer)
	}

	if v.audience != "" {
		hasAudience := false
		for _, aud := range claims.Audience {
			if aud == v.audience {
				hasAudience = true
				break
			}
		}
		if !hasAudience {
			return nil, fmt.Errorf("invalid audience")
		}
	}

	return claims, nil
}
