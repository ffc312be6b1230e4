package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/kiranshivaraju/vintra/internal/api/response"
	"github.com/kiranshivaraju/vintra/internal/store"
	"github.com/kiranshivaraju/vintra/pkg/models"
)

// ConsultationReader loads persisted consultations.
type ConsultationReader interface {
	GetConsultation(ctx context.Context, id uuid.UUID) (*models.Consultation, error)
}

// NewConsultationHandler returns an http.HandlerFunc for
// GET /api/consultations/{id}.
func NewConsultationHandler(reader ConsultationReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "consultation id must be a UUID", nil)
			return
		}

		c, err := reader.GetConsultation(r.Context(), id)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				response.Error(w, http.StatusNotFound, "NOT_FOUND", "Consultation not found", nil)
				return
			}
			slog.Error("load consultation failed", "consultation_id", id, "error", err)
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
				"Failed to load consultation", nil)
			return
		}

		response.OK(w, struct {
			Success      bool                 `json:"success"`
			Consultation *models.Consultation `json:"consultation"`
		}{Success: true, Consultation: c})
	}
}
