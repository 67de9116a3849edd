package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExtractTokenRequiresBearerScheme(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")

	_, err := ExtractToken(req)
	require.Error(t, err)
}

func TestExtractTokenReturnsBearerValue(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer abc.def.ghi")

	token, err := ExtractToken(req)
	require.NoError(t, err)
	require.Equal(t, "abc.def.ghi", token)
}

func TestExtractTokenRequiresHeader(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	_, err := ExtractToken(req)
	require.Error(t, err)
}
