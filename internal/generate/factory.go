package generate

import (
	"context"
	"fmt"

	"github.com/kiranshivaraju/vintra/internal/config"
	"github.com/kiranshivaraju/vintra/internal/generate/mock"
	"github.com/kiranshivaraju/vintra/internal/generate/vertex"
	"github.com/kiranshivaraju/vintra/pkg/models"
)

// NewProvider constructs the generation provider selected in config.
// Called once at server startup.
func NewProvider(ctx context.Context, cfg config.GenerationConfig) (models.GenerationProvider, error) {
	switch cfg.Provider {
	case "vertex":
		p, err := vertex.NewProvider(ctx, cfg.Vertex)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrProviderUnavailable, err)
		}
		return p, nil
	case "mock":
		return mock.NewMockProvider(), nil
	default:
		return nil, fmt.Errorf("unknown generation provider %q: must be one of vertex, mock", cfg.Provider)
	}
}
