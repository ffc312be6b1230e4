// Package generate turns speaker-labeled transcripts into clinical documents.
package generate

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/kiranshivaraju/vintra/pkg/models"
	"github.com/kiranshivaraju/vintra/pkg/prompt"
)

// Service builds prompts and delegates text generation to a provider.
// It performs no retries; callers own the retry policy.
type Service struct {
	provider models.GenerationProvider
	builder  prompt.Builder
	now      func() time.Time
}

// NewService creates a Service backed by provider.
func NewService(provider models.GenerationProvider) *Service {
	return &Service{
		provider: provider,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Provider returns the underlying generation provider.
func (s *Service) Provider() models.GenerationProvider {
	return s.provider
}

// Generate produces a document of documentType from segments. Unknown types
// fall back to the general template. segments is not modified.
func (s *Service) Generate(ctx context.Context, segments []models.Segment, documentType, patientContext string) (models.Artifact, error) {
	docType := s.builder.Resolve(documentType)
	text := s.builder.Build(prompt.Params{
		Segments:       segments,
		DocumentType:   docType,
		PatientContext: patientContext,
	})

	content, err := s.provider.Generate(ctx, text)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, ErrGenerationTimeout) {
			err = fmt.Errorf("%w: %w", ErrGenerationTimeout, err)
		}
		return models.Artifact{}, fmt.Errorf("generating %s document with %s: %w", docType, s.provider.Name(), err)
	}

	return models.Artifact{
		ID:      uuid.New(),
		Type:    docType,
		Content: content,
		Metadata: models.ArtifactMetadata{
			Model:         s.provider.Model(),
			Type:          docType,
			RequestedType: documentType,
			Timestamp:     s.now(),
			InputSize:     utf8.RuneCountInString(s.builder.Transcript(segments)),
		},
	}, nil
}
