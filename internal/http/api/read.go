package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"goflare.io/broker/internal/models"
)

type errorResponse struct {
	Error string `json:"error"`
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	kind, ok := h.kindParam(w, r)
	if !ok {
		return
	}

	result, err := h.reader.Get(r.Context(), kind, getQueryLimit(r.URL.Query(), 0))
	h.writeResult(w, r, result, err)
}

func (h *Handler) handleLookup(w http.ResponseWriter, r *http.Request) {
	kind, ok := h.kindParam(w, r)
	if !ok {
		return
	}

	result, err := h.reader.Lookup(r.Context(), kind, r.PathValue("id"))
	h.writeResult(w, r, result, err)
}

func (h *Handler) handleRefresh(w http.ResponseWriter, r *http.Request) {
	kind, ok := h.kindParam(w, r)
	if !ok {
		return
	}

	result, err := h.reader.Refresh(r.Context(), kind, getQueryLimit(r.URL.Query(), 0))
	h.writeResult(w, r, result, err)
}

func (h *Handler) kindParam(w http.ResponseWriter, r *http.Request) (models.Kind, bool) {
	kind, err := models.ParseKind(r.PathValue("kind"))
	if err != nil {
		h.writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
		return "", false
	}
	return kind, true
}

func (h *Handler) writeResult(w http.ResponseWriter, r *http.Request, result models.Result, err error) {
	if err != nil {
		if errors.Is(err, models.ErrUnknownKind) {
			h.writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
			return
		}
		h.logger.Error("Failed to read records", zap.String("path", r.URL.Path), zap.Error(err))
		h.writeJSON(w, http.StatusInternalServerError, errorResponse{Error: http.StatusText(http.StatusInternalServerError)})
		return
	}

	// unavailable is a normal answer the page knows how to render
	h.writeJSON(w, http.StatusOK, result)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("Failed to encode response", zap.Error(err))
	}
}
