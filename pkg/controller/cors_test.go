package controller_test

import (
	"lending/pkg/controller"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func serveCORS(t *testing.T, method, origin string, allowed ...string) (*http.Response, bool) {
	t.Helper()

	called := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusAccepted)
	})

	req := httptest.NewRequest(method, "/v1/applications", nil)
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	rec := httptest.NewRecorder()
	controller.WithCORS(next, allowed...).ServeHTTP(rec, req)

	return rec.Result(), called
}

func TestWithCORS_Preflight(t *testing.T) {
	res, called := serveCORS(t, http.MethodOptions, "https://app.example.com")

	require.False(t, called)
	require.Equal(t, http.StatusNoContent, res.StatusCode)
	require.Equal(t, "*", res.Header.Get("Access-Control-Allow-Origin"))
	require.Empty(t, res.Header.Get("Access-Control-Allow-Credentials"))
	require.Contains(t, res.Header.Get("Access-Control-Allow-Headers"), "Authorization")
	require.Equal(t, "POST, OPTIONS, GET", res.Header.Get("Access-Control-Allow-Methods"))
}

func TestWithCORS_AnyOrigin(t *testing.T) {
	res, called := serveCORS(t, http.MethodPost, "")

	require.True(t, called)
	require.Equal(t, http.StatusAccepted, res.StatusCode)
	require.Equal(t, "*", res.Header.Get("Access-Control-Allow-Origin"))
	require.Equal(t, "X-Request-Id", res.Header.Get("Access-Control-Expose-Headers"))
}

func TestWithCORS_AllowedOrigin(t *testing.T) {
	res, called := serveCORS(t, http.MethodGet, "https://app.example.com",
		"https://admin.example.com", "https://app.example.com")

	require.True(t, called)
	require.Equal(t, "https://app.example.com", res.Header.Get("Access-Control-Allow-Origin"))
	require.Equal(t, "true", res.Header.Get("Access-Control-Allow-Credentials"))
	require.Equal(t, "Origin", res.Header.Get("Vary"))
}

func TestWithCORS_ForeignOrigin(t *testing.T) {
	res, called := serveCORS(t, http.MethodGet, "https://evil.example.com", "https://app.example.com")

	require.True(t, called, "same-origin policy is left to the browser")
	require.Empty(t, res.Header.Get("Access-Control-Allow-Origin"))
	require.Empty(t, res.Header.Get("Access-Control-Allow-Methods"))
}
