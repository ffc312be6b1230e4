package mock

import (
	"context"

	"github.com/kiranshivaraju/vintra/pkg/models"
)

// MockProvider satisfies models.GenerationProvider for testing and local runs.
type MockProvider struct {
	Name_        string
	Model_       string
	GenerateFunc func(ctx context.Context, prompt string) (string, error)
}

func (m *MockProvider) Name() string  { return m.Name_ }
func (m *MockProvider) Model() string { return m.Model_ }

func (m *MockProvider) Generate(ctx context.Context, prompt string) (string, error) {
	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, prompt)
	}
	return "", nil
}

// NewMockProvider returns a MockProvider with a canned document response.
func NewMockProvider() *MockProvider {
	return &MockProvider{
		Name_:  "mock",
		Model_: "mock-v1",
		GenerateFunc: func(_ context.Context, _ string) (string, error) {
			return "Documento simulado gerado pelo provedor mock.", nil
		},
	}
}

// NewEchoProvider returns a MockProvider that responds with the prompt itself.
func NewEchoProvider() *MockProvider {
	return &MockProvider{
		Name_:  "mock-echo",
		Model_: "mock-v1",
		GenerateFunc: func(_ context.Context, prompt string) (string, error) {
			return prompt, nil
		},
	}
}

// NewFailingProvider returns a MockProvider that always returns the given error.
func NewFailingProvider(err error) *MockProvider {
	return &MockProvider{
		Name_:  "mock-failing",
		Model_: "mock-v1",
		GenerateFunc: func(_ context.Context, _ string) (string, error) {
			return "", err
		},
	}
}

// NewTimeoutProvider returns a MockProvider that blocks until context is cancelled.
func NewTimeoutProvider() *MockProvider {
	return &MockProvider{
		Name_:  "mock-timeout",
		Model_: "mock-v1",
		GenerateFunc: func(ctx context.Context, _ string) (string, error) {
			<-ctx.Done()
			return "", ctx.Err()
		},
	}
}

// Compile-time check that MockProvider implements GenerationProvider.
var _ models.GenerationProvider = (*MockProvider)(nil)
