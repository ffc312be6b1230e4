// Package transcribe selects the speech-to-text provider used by the pipeline.
package transcribe

import (
	"context"
	"fmt"

	"github.com/kiranshivaraju/vintra/internal/config"
	"github.com/kiranshivaraju/vintra/internal/transcribe/google"
	"github.com/kiranshivaraju/vintra/internal/transcribe/mock"
	"github.com/kiranshivaraju/vintra/pkg/models"
)

// NewTranscriber constructs the transcription provider selected in config.
// Called once at server startup; callers must Close the result.
func NewTranscriber(ctx context.Context, cfg config.SpeechConfig) (models.Transcriber, error) {
	switch cfg.Provider {
	case "google":
		return google.NewTranscriber(ctx, cfg)
	case "mock":
		return mock.NewMockTranscriber(), nil
	default:
		return nil, fmt.Errorf("unknown speech provider %q: must be one of google, mock", cfg.Provider)
	}
}
