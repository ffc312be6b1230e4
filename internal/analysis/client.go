// Package analysis is the HTTP client for the secondary VINTRA analysis backend.
package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"
)

// Sentinel errors for analysis backend failures.
var (
	ErrBackendUnreachable = errors.New("analysis backend unreachable")
	ErrBackendError       = errors.New("analysis backend error")
	ErrBackendTimeout     = errors.New("analysis backend timeout")
	ErrNotConfigured      = errors.New("analysis backend not configured")
)

const healthTimeout = 5 * time.Second

// Client is the interface for the VINTRA dimensional analysis backend.
type Client interface {
	Analyze(ctx context.Context, req Request) (json.RawMessage, error)
	Health(ctx context.Context) error
}

// Request is the body of a dimensional analysis call.
type Request struct {
	Transcript     string `json:"transcricao"`
	PatientContext string `json:"contexto_paciente,omitempty"`
	SessionID      string `json:"sessao_id,omitempty"`
}

// HTTPClient implements Client over the backend's REST API.
type HTTPClient struct {
	baseURL string
	client  *http.Client
}

// NewHTTPClient creates a client for the backend at baseURL.
// An empty baseURL yields a client whose calls fail with ErrNotConfigured.
func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// Analyze posts the flattened transcript and returns the backend's analysis
// document unmodified.
func (c *HTTPClient) Analyze(ctx context.Context, req Request) (json.RawMessage, error) {
	if c.baseURL == "" {
		return nil, ErrNotConfigured
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/vintra/analisar", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, classifyError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: status %d", ErrBackendError, resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, classifyError(err)
	}
	if !json.Valid(raw) {
		return nil, fmt.Errorf("%w: response is not valid JSON", ErrBackendError)
	}

	return json.RawMessage(raw), nil
}

// Health reports nil when the backend answers {"status":"healthy"}.
func (c *HTTPClient) Health(ctx context.Context) error {
	if c.baseURL == "" {
		return ErrNotConfigured
	}

	ctx, cancel := context.WithTimeout(ctx, healthTimeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return classifyError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", ErrBackendUnreachable, resp.StatusCode)
	}

	var health struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		return fmt.Errorf("%w: decoding health response: %v", ErrBackendUnreachable, err)
	}
	if health.Status != "healthy" {
		return fmt.Errorf("%w: reported status %q", ErrBackendUnreachable, health.Status)
	}

	return nil
}

// classifyError maps transport-level errors to sentinel errors.
func classifyError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %v", ErrBackendTimeout, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %v", ErrBackendTimeout, err)
	}

	return fmt.Errorf("%w: %v", ErrBackendUnreachable, err)
}

// Compile-time check that HTTPClient implements Client.
var _ Client = (*HTTPClient)(nil)
