package mock_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kiranshivaraju/vintra/internal/generate/mock"
	"github.com/kiranshivaraju/vintra/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- NewMockProvider ---

func TestNewMockProvider_Identity(t *testing.T) {
	p := mock.NewMockProvider()
	assert.Equal(t, "mock", p.Name())
	assert.Equal(t, "mock-v1", p.Model())
}

func TestNewMockProvider_Generate(t *testing.T) {
	p := mock.NewMockProvider()
	out, err := p.Generate(context.Background(), "qualquer prompt")

	require.NoError(t, err)
	assert.NotEmpty(t, out)
}

// --- NewEchoProvider ---

func TestNewEchoProvider_ReturnsPrompt(t *testing.T) {
	out, err := mock.NewEchoProvider().Generate(context.Background(), "eco")
	require.NoError(t, err)
	assert.Equal(t, "eco", out)
}

// --- NewFailingProvider ---

func TestNewFailingProvider_Generate(t *testing.T) {
	customErr := errors.New("quota exceeded")
	p := mock.NewFailingProvider(customErr)

	assert.Equal(t, "mock-failing", p.Name())
	_, err := p.Generate(context.Background(), "prompt")
	assert.ErrorIs(t, err, customErr)
}

// --- NewTimeoutProvider ---

func TestNewTimeoutProvider_Generate(t *testing.T) {
	p := mock.NewTimeoutProvider()
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := p.Generate(ctx, "prompt")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

// --- Zero-value MockProvider ---

func TestMockProvider_NilFunc(t *testing.T) {
	p := &mock.MockProvider{Name_: "bare"}

	out, err := p.Generate(context.Background(), "prompt")
	assert.NoError(t, err)
	assert.Equal(t, "", out)
}

// --- Interface compliance ---

func TestMockProvider_ImplementsGenerationProvider(t *testing.T) {
	var _ models.GenerationProvider = mock.NewMockProvider()
	var _ models.GenerationProvider = mock.NewFailingProvider(nil)
	var _ models.GenerationProvider = mock.NewTimeoutProvider()
}
