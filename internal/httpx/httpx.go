// Package httpx contains the HTTP delivery layer (net/http handlers) for the oid
// service. It maps requests onto the application service, applies security and
// correlation headers, and translates service errors into JSON responses.
// Handlers are split across files (ids.go, health.go, errors.go).
package httpx

import (
	"context"
	"net/http"

	"github.com/haukened/oid/internal/app"
	"github.com/haukened/oid/internal/domain"
)

// ServicePort abstracts the subset of app.Service used by the HTTP layer.
// It is satisfied by *app.Service in production and mocked in tests.
type ServicePort interface {
	Mint(ctx context.Context, n int) ([]domain.ObjectID, error)
	Inspect(ctx context.Context, raw string) (app.Inspection, error)
	Compare(a, b string) (int, error)
}

// Handler wires HTTP endpoints to the application service.
// It is safe for concurrent use. Zero-value is not valid; construct via New.
type Handler struct {
	Service   ServicePort
	MaxBatch  int                         // upper bound for ?n= on mint requests (0 disables)
	Readiness func(context.Context) error // optional readiness probe
	Metrics   http.Handler                // optional /metrics handler
}

// New returns a configured Handler.
// svc: application service port implementation.
// maxBatch: largest accepted mint batch (0 leaves the check to the service).
// readiness: optional probe function for /readyz (nil => always ready).
func New(svc ServicePort, maxBatch int, readiness func(context.Context) error) *Handler {
	return &Handler{Service: svc, MaxBatch: maxBatch, Readiness: readiness}
}

// Router constructs and returns an http.Handler with all routes mounted and
// the correlation and security header middleware applied.
func (h *Handler) Router() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/ids", h.handleMint)
	mux.HandleFunc("GET /api/ids/{id}", h.handleInspect)
	mux.HandleFunc("GET /api/compare", h.handleCompare)
	mux.HandleFunc("GET /healthz", h.handleHealth)
	mux.HandleFunc("GET /readyz", h.handleReady)
	if h.Metrics != nil {
		mux.Handle("GET /metrics", h.Metrics)
	}
	return CorrelationIDMiddleware(h.secureHeaders(mux))
}

// secureHeaders middleware adds standard security & cache control headers.
func (h *Handler) secureHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("Referrer-Policy", "no-referrer")
		// Every mint response is unique; nothing here may be cached.
		w.Header().Set("Cache-Control", "no-store")
		w.Header().Set("Pragma", "no-cache")
		w.Header().Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'; base-uri 'none'")
		next.ServeHTTP(w, r)
	})
}
