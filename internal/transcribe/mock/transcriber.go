package mock

import (
	"context"
	"strings"

	"github.com/kiranshivaraju/vintra/pkg/models"
)

// MockTranscriber satisfies models.Transcriber for testing and local runs.
type MockTranscriber struct {
	Name_          string
	TranscribeFunc func(ctx context.Context, req models.TranscriptionRequest) ([]models.Word, error)
}

func (m *MockTranscriber) Name() string { return m.Name_ }
func (m *MockTranscriber) Close() error { return nil }

func (m *MockTranscriber) Transcribe(ctx context.Context, req models.TranscriptionRequest) ([]models.Word, error) {
	if m.TranscribeFunc != nil {
		return m.TranscribeFunc(ctx, req)
	}
	return []models.Word{}, nil
}

// Words builds untimed words from text, all tagged with tag.
func Words(tag int, text string) []models.Word {
	var out []models.Word
	for _, w := range strings.Fields(text) {
		out = append(out, models.Word{Text: w, SpeakerTag: tag})
	}
	return out
}

// NewMockTranscriber returns a MockTranscriber producing a short two-speaker exchange.
func NewMockTranscriber() *MockTranscriber {
	words := append(Words(1, "Bom dia"), Words(2, "Estou com dor")...)
	return NewWordsTranscriber(words)
}

// NewWordsTranscriber returns a MockTranscriber that always yields words.
func NewWordsTranscriber(words []models.Word) *MockTranscriber {
	return &MockTranscriber{
		Name_: "mock",
		TranscribeFunc: func(_ context.Context, _ models.TranscriptionRequest) ([]models.Word, error) {
			out := make([]models.Word, len(words))
			copy(out, words)
			return out, nil
		},
	}
}

// NewFailingTranscriber returns a MockTranscriber that always returns the given error.
func NewFailingTranscriber(err error) *MockTranscriber {
	return &MockTranscriber{
		Name_: "mock-failing",
		TranscribeFunc: func(_ context.Context, _ models.TranscriptionRequest) ([]models.Word, error) {
			return nil, err
		},
	}
}

// NewTimeoutTranscriber returns a MockTranscriber that blocks until context is cancelled.
func NewTimeoutTranscriber() *MockTranscriber {
	return &MockTranscriber{
		Name_: "mock-timeout",
		TranscribeFunc: func(ctx context.Context, _ models.TranscriptionRequest) ([]models.Word, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		},
	}
}

var _ models.Transcriber = (*MockTranscriber)(nil)
