package middleware

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/jhaveripatric/x402-agent-gateway/internal/auth"
)

func writeTestKey(t *testing.T) (*ecdsa.PrivateKey, string) {
	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	der, err := x509.MarshalPKIXPublicKey(&priv.PublicKey)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "key.pem")
	require.NoError(t, os.WriteFile(path, pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der}), 0o600))
	return priv, path
}

func TestWalletAuthInjectsClaimsOnValidToken(t *testing.T) {
	priv, path := writeTestKey(t)
	v := auth.NewVerifier("", "")
	require.NoError(t, v.LoadPublicKey("kid-1", path))

	var gotWallet string
	handler := WalletAuth(v)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if claims := auth.GetClaims(r.Context()); claims != nil {
			gotWallet = claims.Wallet
		}
	}))

	token := jwt.NewWithClaims(jwt.SigningMethodES256, auth.Claims{Wallet: "0xABC"})
	token.Header["kid"] = "kid-1"
	signed, err := token.SignedString(priv)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, "0xABC", gotWallet)
}

func TestWalletAuthIsNonFatalWithoutToken(t *testing.T) {
	v := auth.NewVerifier("", "")
	called := false
	handler := WalletAuth(v)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		require.Nil(t, auth.GetClaims(r.Context()))
	}))

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.True(t, called)
}

func TestWalletAuthIsNonFatalWithInvalidToken(t *testing.T) {
	_, path := writeTestKey(t)
	v := auth.NewVerifier("", "")
	require.NoError(t, v.LoadPublicKey("kid-1", path))

	called := false
	handler := WalletAuth(v)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		require.Nil(t, auth.GetClaims(r.Context()))
	}))

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set("Authorization", "Bearer not-a-real-token")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.True(t, called)
}
