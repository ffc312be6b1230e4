// Package vertex implements models.GenerationProvider on Vertex AI Gemini.
package vertex

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cloud.google.com/go/vertexai/genai"
	"github.com/kiranshivaraju/vintra/internal/config"
	"github.com/kiranshivaraju/vintra/pkg/models"
	"google.golang.org/api/option"
)

// ErrEmptyResponse is returned when the model produced no text.
var ErrEmptyResponse = errors.New("vertex: empty response")

// Sampling parameters are fixed; they are not user-tunable.
const (
	temperature     = 0.4
	topP            = 0.8
	topK            = 40
	maxOutputTokens = 8192
)

type contentGenerator interface {
	GenerateContent(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

// Provider generates documents with a Gemini model on Vertex AI.
type Provider struct {
	client *genai.Client
	model  contentGenerator
	name   string
}

// NewProvider connects to Vertex AI in cfg.ProjectID/cfg.Location.
func NewProvider(ctx context.Context, cfg config.VertexConfig) (*Provider, error) {
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	c, err := genai.NewClient(ctx, cfg.ProjectID, cfg.Location, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating vertex client: %w", err)
	}

	m := c.GenerativeModel(cfg.Model)
	m.SetTemperature(temperature)
	m.SetTopP(topP)
	m.SetTopK(topK)
	m.SetMaxOutputTokens(maxOutputTokens)

	return &Provider{client: c, model: m, name: cfg.Model}, nil
}

func (p *Provider) Name() string  { return "vertex" }
func (p *Provider) Model() string { return p.name }

// Close releases the underlying client.
func (p *Provider) Close() error {
	if p.client == nil {
		return nil
	}
	return p.client.Close()
}

func (p *Provider) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := p.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("vertex generate: %w", err)
	}
	text := extractText(resp)
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

// extractText concatenates the text parts of the first candidate with content.
func extractText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	for _, cand := range resp.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		var sb strings.Builder
		for _, part := range cand.Content.Parts {
			if t, ok := part.(genai.Text); ok {
				sb.WriteString(string(t))
			}
		}
		if sb.Len() > 0 {
			return sb.String()
		}
	}
	return ""
}

var _ models.GenerationProvider = (*Provider)(nil)
