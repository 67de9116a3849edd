package auth

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func writeTestKey(t *testing.T) (*ecdsa.PrivateKey, string) {
	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	der, err := x509.MarshalPKIXPublicKey(&priv.PublicKey)
	require.NoError(t, err)
	block := &pem.Block{Type: "PUBLIC KEY", Bytes: der}

	path := filepath.Join(t.TempDir(), "key.pem")
	require.NoError(t, os.WriteFile(path, pem.EncodeToMemory(block), 0o600))
	return priv, path
}

func signToken(t *testing.T, priv *ecdsa.PrivateKey, kid string, claims Claims) string {
	token := jwt.NewWithClaims(jwt.SigningMethodES256, claims)
	token.Header["kid"] = kid
	signed, err := token.SignedString(priv)
	require.NoError(t, err)
	return signed
}

func TestVerifierAcceptsValidToken(t *testing.T) {
	priv, path := writeTestKey(t)
	v := NewVerifier("gateway", "wallet-clients")
	require.NoError(t, v.LoadPublicKey("kid-1", path))

	claims := Claims{
		Wallet: "0xABC",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "gateway",
			Audience:  jwt.ClaimStrings{"wallet-clients"},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	signed := signToken(t, priv, "kid-1", claims)

	got, err := v.Verify(signed)
	require.NoError(t, err)
	require.Equal(t, "0xABC", got.Wallet)
}

func TestVerifierRejectsUnknownKid(t *testing.T) {
	priv, _ := writeTestKey(t)
	v := NewVerifier("gateway", "")
	signed := signToken(t, priv, "missing-kid", Claims{Wallet: "0xABC"})

	_, err := v.Verify(signed)
	require.Error(t, err)
}

func TestVerifierRejectsWrongIssuer(t *testing.T) {
	priv, path := writeTestKey(t)
	v := NewVerifier("gateway", "")
	require.NoError(t, v.LoadPublicKey("kid-1", path))

	claims := Claims{
		Wallet:            "0xABC",
		RegisteredClaims: jwt.RegisteredClaims{Issuer: "someone-else"},
	}
	signed := signToken(t, priv, "kid-1", claims)

	_, err := v.Verify(signed)
	require.Error(t, err)
}

func TestHasKeysReflectsLoadedState(t *testing.T) {
	v := NewVerifier("", "")
	require.False(t, v.HasKeys())

	_, path := writeTestKey(t)
	require.NoError(t, v.LoadPublicKey("kid-1", path))
	require.True(t, v.HasKeys())
}
