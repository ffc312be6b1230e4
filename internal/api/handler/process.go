package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/kiranshivaraju/vintra/internal/api/response"
	"github.com/kiranshivaraju/vintra/internal/diarize"
	"github.com/kiranshivaraju/vintra/internal/generate"
	"github.com/kiranshivaraju/vintra/internal/pipeline"
	"github.com/kiranshivaraju/vintra/pkg/models"
)

// ArtifactSaver persists standalone artifacts. Optional.
type ArtifactSaver interface {
	SaveArtifact(ctx context.Context, a *models.Artifact) error
}

type processRequest struct {
	Transcription  json.RawMessage `json:"transcription"`
	DocumentType   string          `json:"documentType"`
	PatientContext string          `json:"patientContext"`
}

type processResponse struct {
	Success  bool                    `json:"success"`
	ID       string                  `json:"id"`
	Content  string                  `json:"content"`
	Metadata models.ArtifactMetadata `json:"metadata"`
}

var errInvalidTranscription = errors.New("transcription must be a string or an array of segments")

// maxProcessBody caps the JSON body of a process request.
const maxProcessBody = 5 << 20

// NewProcessHandler returns an http.HandlerFunc for POST /api/process, which
// generates a document from an existing transcript. saver may be nil.
func NewProcessHandler(gen pipeline.Generator, saver ArtifactSaver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxProcessBody)

		var req processRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				response.Error(w, http.StatusBadRequest, "REQUEST_TOO_LARGE",
					fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit), nil)
				return
			}
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
			return
		}

		segments, err := parseTranscription(req.Transcription)
		if err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), nil)
			return
		}
		if len(segments) == 0 {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "transcription is required", nil)
			return
		}
		if strings.TrimSpace(req.DocumentType) == "" {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "documentType is required", nil)
			return
		}

		artifact, err := gen.Generate(r.Context(), segments, req.DocumentType, req.PatientContext)
		if err != nil {
			slog.Error("document generation failed", "document_type", req.DocumentType, "error", err)
			code := "GENERATION_FAILED"
			switch {
			case errors.Is(err, generate.ErrGenerationTimeout):
				code = "GENERATION_TIMEOUT"
			case errors.Is(err, generate.ErrProviderUnavailable):
				code = "PROVIDER_UNAVAILABLE"
			}
			response.Error(w, http.StatusInternalServerError, code, err.Error(), nil)
			return
		}

		if saver != nil {
			if err := saver.SaveArtifact(context.WithoutCancel(r.Context()), &artifact); err != nil {
				slog.Warn("persist artifact failed", "artifact_id", artifact.ID, "error", err)
			}
		}

		response.OK(w, processResponse{
			Success:  true,
			ID:       artifact.ID.String(),
			Content:  artifact.Content,
			Metadata: artifact.Metadata,
		})
	}
}

// parseTranscription accepts either plain text with "Dr:"/"Paciente:" line
// prefixes or an array of {speaker, text} segments.
func parseTranscription(raw json.RawMessage) ([]models.Segment, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}

	switch raw[0] {
	case '"':
		var text string
		if err := json.Unmarshal(raw, &text); err != nil {
			return nil, errInvalidTranscription
		}
		return diarize.FromPrefixed(diarize.SplitLines(text)), nil
	case '[':
		var segments []models.Segment
		if err := json.Unmarshal(raw, &segments); err != nil {
			return nil, errInvalidTranscription
		}
		for i := range segments {
			if segments[i].Speaker == "" {
				segments[i].Speaker = models.SpeakerUnknown
			}
		}
		return segments, nil
	default:
		return nil, errInvalidTranscription
	}
}
