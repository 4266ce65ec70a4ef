package httpx

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

// TestSecureHeadersMiddleware ensures the security headers are consistently applied.
func TestSecureHeadersMiddleware(t *testing.T) {
	h := &Handler{}
	final := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
	})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rw := httptest.NewRecorder()
	h.secureHeaders(final).ServeHTTP(rw, req)
	res := rw.Result()
	checks := map[string]string{
		"X-Content-Type-Options":  "nosniff",
		"Referrer-Policy":         "no-referrer",
		"Cache-Control":           "no-store",
		"Pragma":                  "no-cache",
		"Content-Security-Policy": "default-src 'none'; frame-ancestors 'none'; base-uri 'none'",
	}
	for k, expect := range checks {
		got := res.Header.Get(k)
		if got == "" {
			t.Fatalf("missing header %s", k)
		}
		if got != expect {
			t.Fatalf("header %s mismatch\nexpected: %s\nactual:   %s", k, expect, got)
		}
	}
}

// TestRouterAppliesMiddleware checks both middlewares wrap every route.
func TestRouterAppliesMiddleware(t *testing.T) {
	h := New(nil, 0, nil)
	rw := httptest.NewRecorder()
	h.Router().ServeHTTP(rw, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rw.Code != http.StatusOK {
		t.Fatalf("health status %d", rw.Code)
	}
	if rw.Header().Get(CorrelationIDHeader) == "" {
		t.Fatalf("missing correlation header")
	}
	if rw.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Fatalf("missing security headers")
	}
}
