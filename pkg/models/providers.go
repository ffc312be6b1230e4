// Package models contains shared data models used across the VINTRA service.
package models

import "context"

// GenerationProvider is the interface every generative-text integration implements.
// Never call a specific provider directly; always inject this interface.
type GenerationProvider interface {
	// Generate returns the provider's text completion for prompt.
	Generate(ctx context.Context, prompt string) (string, error)
	// Name returns the provider identifier (e.g., "vertex", "mock").
	Name() string
	// Model returns the model identifier recorded in artifact metadata.
	Model() string
}

// Transcriber converts consultation audio into diarized words.
type Transcriber interface {
	Transcribe(ctx context.Context, req TranscriptionRequest) ([]Word, error)
	Name() string
	Close() error
}

// TranscriptionRequest is the input to a transcription call.
type TranscriptionRequest struct {
	Audio    []byte
	MIMEType string
}
