package httpx

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/haukened/oid/internal/domain"
)

// handleMint implements POST /api/ids?n=N.
func (h *Handler) handleMint(w http.ResponseWriter, r *http.Request) {
	n := 1
	if raw := r.URL.Query().Get("n"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v <= 0 {
			h.writeError(r.Context(), w, http.StatusBadRequest, "invalid n")
			return
		}
		n = v
	}
	if h.MaxBatch > 0 && n > h.MaxBatch {
		h.writeError(r.Context(), w, http.StatusBadRequest, "batch too large")
		return
	}
	ids, err := h.Service.Mint(r.Context(), n)
	if err != nil {
		h.mapServiceError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusCreated, struct {
		IDs []domain.ObjectID `json:"ids"`
	}{IDs: ids})
}

// handleInspect implements GET /api/ids/{id}.
func (h *Handler) handleInspect(w http.ResponseWriter, r *http.Request) {
	out, err := h.Service.Inspect(r.Context(), r.PathValue("id"))
	if err != nil {
		h.mapServiceError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// handleCompare implements GET /api/compare?a=..&b=..
func (h *Handler) handleCompare(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	res, err := h.Service.Compare(q.Get("a"), q.Get("b"))
	if err != nil {
		h.mapServiceError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Result int `json:"result"`
	}{Result: res})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
