package models

import (
	"time"

	"github.com/google/uuid"
)

// Document types understood by the generation adapter.
const (
	DocumentSOAP      = "soap"
	DocumentVintra    = "vintra"
	DocumentIpsissima = "ipsissima"
	DocumentGeneral   = "general"
)

// Artifact is a generated clinical document. It is immutable once created;
// regenerating produces a new artifact.
type Artifact struct {
	ID             uuid.UUID        `db:"id"              json:"id"`
	ConsultationID *uuid.UUID       `db:"consultation_id" json:"consultation_id,omitempty"`
	Type           string           `db:"type"            json:"type"`
	Content        string           `db:"content"         json:"content"`
	Metadata       ArtifactMetadata `db:"-"               json:"metadata"`
}

// ArtifactMetadata describes how an artifact was produced. Type is the
// template actually used; RequestedType is what the caller asked for, so a
// fallback to the general template is visible.
type ArtifactMetadata struct {
	Model         string    `json:"model"`
	Type          string    `json:"type"`
	RequestedType string    `json:"requested_type"`
	Timestamp     time.Time `json:"timestamp"`
	InputSize     int       `json:"input_size"`
}
