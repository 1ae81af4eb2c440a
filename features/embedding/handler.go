package embedding

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"chatdocs/backend/internal/model"
)

// Service is the embedding model surface the handler needs.
type Service interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Readiness() model.Readiness
}

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// The /embed and /health bodies are a fixed wire contract consumed by the
// ingestion pipeline and external health checks, so errors are flat JSON
// rather than the envelope used by the /api surface.

type embedRequest struct {
	Text string `json:"text"`
}

type embedResponse struct {
	Embedding []float32 `json:"embedding"`
	Dimension int       `json:"dimension"`
}

func (h *Handler) Embed(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req embedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{"error": "invalid request body"})
		return
	}

	vec, err := h.service.Embed(ctx, req.Text)
	if err != nil {
		var notReady *model.NotReadyError
		switch {
		case errors.Is(err, model.ErrInvalidInput):
			writeJSON(w, http.StatusBadRequest, map[string]interface{}{"error": "text field is required"})
		case errors.As(err, &notReady):
			writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
				"error":   notReady.Error(),
				"loading": notReady.Loading,
			})
		default:
			slog.ErrorContext(ctx, "embedding failed", "error", err)
			writeJSON(w, http.StatusInternalServerError, map[string]interface{}{"error": err.Error()})
		}
		return
	}

	writeJSON(w, http.StatusOK, embedResponse{Embedding: vec, Dimension: len(vec)})
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	readiness := h.service.Readiness()

	switch readiness.State {
	case model.StateReady:
		writeJSON(w, http.StatusOK, map[string]interface{}{"status": "ready", "model": readiness.Model})
	case model.StateLoading:
		writeJSON(w, http.StatusOK, map[string]interface{}{"status": "loading", "model": readiness.Model})
	default:
		writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{"status": "not_ready", "model": readiness.Model})
	}
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}
