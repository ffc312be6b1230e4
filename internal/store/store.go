package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/kiranshivaraju/vintra/pkg/models"
)

var ErrNotFound = errors.New("resource not found")
var ErrDuplicateKey = errors.New("duplicate key violation")

// Store is the data access interface. All database operations go through here.
type Store interface {
	Ping(ctx context.Context) error

	GetAPIKeyByPrefix(ctx context.Context, prefix string) ([]*models.APIKey, error)
	UpdateAPIKeyLastUsed(ctx context.Context, id uuid.UUID) error
	CreateAPIKey(ctx context.Context, key *models.APIKey) error
	ListAPIKeys(ctx context.Context) ([]*models.APIKey, error)
	RevokeAPIKey(ctx context.Context, id uuid.UUID) error

	SaveConsultation(ctx context.Context, c *models.Consultation) error
	GetConsultation(ctx context.Context, id uuid.UUID) (*models.Consultation, error)

	SaveArtifact(ctx context.Context, a *models.Artifact) error
	ListArtifacts(ctx context.Context, consultationID uuid.UUID) ([]models.Artifact, error)
}
