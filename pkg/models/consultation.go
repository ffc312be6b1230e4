package models

import (
	"time"

	"github.com/google/uuid"
)

// Consultation job states, in pipeline order. Failed is reachable from any
// non-terminal state; completed and failed are terminal.
const (
	StatusInitializing    = "initializing"
	StatusAudioProcessing = "audio_processing"
	StatusTranscribing    = "transcribing"
	StatusDiarizing       = "diarizing"
	StatusAnalyzing       = "analyzing"
	StatusCompleted       = "completed"
	StatusFailed          = "failed"

	// StatusNotFound is reported to pollers for unknown job ids. It is never stored.
	StatusNotFound = "not_found"
)

// Consultation is the durable record of one audio pipeline run. The client
// polls GET /api/status/{id} while the job runs; the record is written once the
// job reaches a terminal state.
type Consultation struct {
	ID           uuid.UUID  `db:"id"            json:"id"`
	Status       string     `db:"status"        json:"status"`
	Progress     int        `db:"progress"      json:"progress"`
	ErrorMessage *string    `db:"error_message" json:"error,omitempty"`
	Segments     []Segment  `db:"segments"      json:"transcription"`
	CreatedAt    time.Time  `db:"created_at"    json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at"    json:"updated_at"`
	CompletedAt  *time.Time `db:"completed_at"  json:"completed_at,omitempty"`

	Artifacts []Artifact `db:"-" json:"artifacts,omitempty"`
}
