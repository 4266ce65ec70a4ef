package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/haukened/oid/internal/app"
	"github.com/haukened/oid/internal/domain"
)

// writeError writes a JSON error body with given status code.
func (h *Handler) writeError(ctx context.Context, w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(struct {
		Error string `json:"error"`
	}{Error: msg})
	if cid, ok := GetCorrelationID(ctx); ok {
		slog.Debug("wrote error response", "cid", cid, "status", code, "msg", msg)
	}
}

// mapServiceError maps domain/store/service errors to HTTP responses.
func (h *Handler) mapServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	cid, _ := GetCorrelationID(ctx)
	switch {
	case errors.Is(err, domain.ErrInvalidArgument):
		slog.Warn("service error", "cid", cid, "code", "invalid_id")
		h.writeError(ctx, w, http.StatusBadRequest, "invalid id")
	case errors.Is(err, app.ErrBatchInvalid):
		slog.Warn("service error", "cid", cid, "code", "batch_invalid")
		h.writeError(ctx, w, http.StatusBadRequest, "batch invalid")
	case errors.Is(err, app.ErrNotFound):
		slog.Info("service error", "cid", cid, "code", "not_found")
		h.writeError(ctx, w, http.StatusNotFound, "not found")
	case errors.Is(err, context.Canceled):
		slog.Info("request canceled", "cid", cid)
		h.writeError(ctx, w, http.StatusServiceUnavailable, "canceled")
	default:
		slog.Error("unhandled service error", "cid", cid, "code", "unhandled", "err", err)
		h.writeError(ctx, w, http.StatusInternalServerError, "internal")
	}
}
