package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/kiranshivaraju/vintra/internal/api/response"
	"github.com/kiranshivaraju/vintra/internal/audio"
	"github.com/kiranshivaraju/vintra/internal/pipeline"
	"github.com/kiranshivaraju/vintra/pkg/models"
)

// multipartOverhead is the slack allowed above the audio limit for form
// boundaries and the options field.
const multipartOverhead = 1 << 20

// Processor runs the consultation pipeline for one upload.
type Processor interface {
	Process(ctx context.Context, asset *audio.Asset, opts pipeline.Options) (*pipeline.Result, error)
}

// AssetStore writes uploads to scratch storage.
type AssetStore interface {
	Store(r io.Reader, mimeType string) (*audio.Asset, error)
}

type transcribeResponse struct {
	Success              bool             `json:"success"`
	ConsultationID       string           `json:"consultationId"`
	Transcription        []models.Segment `json:"transcription"`
	InitialAnalysis      *string          `json:"initialAnalysis,omitempty"`
	VintraAnalysis       json.RawMessage  `json:"vintraAnalysis,omitempty"`
	UsedSecondaryBackend bool             `json:"usedSecondaryBackend,omitempty"`
}

// NewTranscribeHandler returns an http.HandlerFunc for POST /api/transcribe.
// The request is multipart with an "audio" file and an optional "options"
// JSON string.
func NewTranscribeHandler(proc Processor, assets AssetStore, limits audio.Limits) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if limits.MaxSizeBytes > 0 {
			r.Body = http.MaxBytesReader(w, r.Body, limits.MaxSizeBytes+multipartOverhead)
		}
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				response.Error(w, http.StatusBadRequest, "AUDIO_TOO_LARGE",
					"Audio file exceeds the maximum allowed size", nil)
				return
			}
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST",
				"Request must be multipart/form-data", nil)
			return
		}
		defer r.MultipartForm.RemoveAll()

		file, header, err := r.FormFile("audio")
		if err != nil {
			response.Error(w, http.StatusBadRequest, "NO_AUDIO", "audio file is required", nil)
			return
		}
		defer file.Close()

		mimeType := header.Header.Get("Content-Type")
		if err := audio.Validate(header.Size, mimeType, limits); err != nil {
			writeAudioError(w, err)
			return
		}

		opts, err := pipeline.ParseOptions(r.FormValue("options"))
		if err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_OPTIONS", err.Error(), nil)
			return
		}

		asset, err := assets.Store(file, mimeType)
		if err != nil {
			slog.Error("store upload failed", "error", err)
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
				"Failed to store audio", nil)
			return
		}

		result, err := proc.Process(r.Context(), asset, opts)
		if err != nil {
			writePipelineError(w, err)
			return
		}

		resp := transcribeResponse{
			Success:              true,
			ConsultationID:       result.ConsultationID,
			Transcription:        result.Segments,
			VintraAnalysis:       result.VintraAnalysis,
			UsedSecondaryBackend: result.UsedSecondaryBackend,
		}
		if result.InitialAnalysis != nil {
			content := result.InitialAnalysis.Content
			resp.InitialAnalysis = &content
		}
		response.OK(w, resp)
	}
}

func writeAudioError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, audio.ErrNoAudio):
		response.Error(w, http.StatusBadRequest, "NO_AUDIO", err.Error(), nil)
	case errors.Is(err, audio.ErrTooLarge):
		response.Error(w, http.StatusBadRequest, "AUDIO_TOO_LARGE", err.Error(), nil)
	case errors.Is(err, audio.ErrUnsupportedType):
		response.Error(w, http.StatusBadRequest, "UNSUPPORTED_AUDIO_TYPE", err.Error(), nil)
	default:
		response.Error(w, http.StatusBadRequest, "INVALID_AUDIO", err.Error(), nil)
	}
}

func writePipelineError(w http.ResponseWriter, err error) {
	if errors.Is(err, pipeline.ErrInvalidAudio) {
		response.Error(w, http.StatusBadRequest, "NO_AUDIO", "audio file is empty", nil)
		return
	}

	var details map[string]string
	var failure *pipeline.Failure
	if errors.As(err, &failure) {
		details = map[string]string{
			"consultationId": failure.ConsultationID,
			"stage":          failure.Stage,
		}
	}

	code := "PROCESSING_FAILED"
	if errors.Is(err, pipeline.ErrProviderTimeout) {
		code = "PROVIDER_TIMEOUT"
	}
	response.Error(w, http.StatusInternalServerError, code, err.Error(), details)
}
