package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/kiranshivaraju/vintra/internal/api/response"
	"github.com/kiranshivaraju/vintra/internal/status"
)

// StatusReader returns the latest snapshot for a job.
type StatusReader interface {
	Get(ctx context.Context, jobID string) (status.Status, error)
}

// NewStatusHandler returns an http.HandlerFunc for GET /api/status/{id}.
// Unknown ids report {status: "not_found", progress: 0} with 200.
func NewStatusHandler(reader StatusReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(chi.URLParam(r, "id"))
		if id == "" {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "consultation id is required", nil)
			return
		}

		s, err := reader.Get(r.Context(), id)
		if err != nil {
			slog.Error("status lookup failed", "consultation_id", id, "error", err)
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
				"Failed to read status", nil)
			return
		}
		response.OK(w, s)
	}
}
