package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthMiddleware(t *testing.T) {
	cases := []struct {
		name   string
		apiKey string
		method string
		path   string
		auth   string
		want   int
	}{
		{"no key configured", "", http.MethodGet, "/v1/commands/current", "", http.StatusOK},
		{"health bypass", "secret123", http.MethodGet, "/health", "", http.StatusOK},
		{"preflight bypass", "secret123", http.MethodOptions, "/v1/commands/current", "", http.StatusOK},
		{"missing header", "secret123", http.MethodGet, "/v1/commands/current", "", http.StatusUnauthorized},
		{"wrong key", "secret123", http.MethodGet, "/v1/commands/current", "Bearer wrong_key", http.StatusUnauthorized},
		{"valid key", "secret123", http.MethodDelete, "/v1/commands/current", "Bearer secret123", http.StatusOK},
		{"malformed bearer", "secret123", http.MethodGet, "/v1/commands/current", "Basic secret123", http.StatusUnauthorized},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := &Server{apiKey: tc.apiKey}
			req := httptest.NewRequest(tc.method, tc.path, nil)
			if tc.auth != "" {
				req.Header.Set("Authorization", tc.auth)
			}
			rr := httptest.NewRecorder()
			s.authMiddleware(okHandler()).ServeHTTP(rr, req)
			assert.Equal(t, tc.want, rr.Code)
		})
	}
}

func TestParseLimit(t *testing.T) {
	cases := []struct {
		query    string
		deflt    int
		expected int
	}{
		{"", 100, 100},
		{"?limit=50", 100, 50},
		{"?limit=0", 100, 100},
		{"?limit=-5", 100, 100},
		{"?limit=abc", 100, 100},
		{"?limit=2000", 100, maxQueryLimit},
		{"?limit=1000", 100, 1000},
		{"?limit=1", 50, 1},
	}

	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/test"+tc.query, nil)
		assert.Equal(t, tc.expected, parseLimit(req, tc.deflt), "parseLimit(%q, %d)", tc.query, tc.deflt)
	}
}

func TestCorsMiddleware_Headers(t *testing.T) {
	handler := corsMiddleware(okHandler(), "https://myapp.example.com")

	req := httptest.NewRequest(http.MethodGet, "/v1/commands/current", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, "https://myapp.example.com", rr.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rr.Header().Get("Access-Control-Allow-Headers"), "Authorization")
	assert.Contains(t, rr.Header().Get("Access-Control-Allow-Methods"), "DELETE")
}

func TestCorsMiddleware_Preflight(t *testing.T) {
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("inner handler should not be called for OPTIONS")
	})
	handler := corsMiddleware(inner, "*")

	req := httptest.NewRequest(http.MethodOptions, "/v1/commands/current", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
}
