package handler

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/kiranshivaraju/vintra/internal/api/response"
)

const healthCheckTimeout = 5 * time.Second

// Check probes one dependency. A nil error means healthy.
type Check func(ctx context.Context) error

type healthResponse struct {
	Status    string          `json:"status"`
	Timestamp string          `json:"timestamp"`
	Services  map[string]bool `json:"services"`
}

// NewHealthHandler returns an http.HandlerFunc for GET /api/health. Checks run
// concurrently, each under its own timeout; any failure reports "degraded"
// with 503.
func NewHealthHandler(checks map[string]Check) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		services := make(map[string]bool, len(checks))
		var (
			mu sync.Mutex
			wg sync.WaitGroup
		)
		for name, check := range checks {
			wg.Add(1)
			go func(name string, check Check) {
				defer wg.Done()
				ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
				defer cancel()
				err := check(ctx)
				if err != nil {
					slog.Warn("health check failed", "service", name, "error", err)
				}
				mu.Lock()
				services[name] = err == nil
				mu.Unlock()
			}(name, check)
		}
		wg.Wait()

		resp := healthResponse{
			Status:    "ok",
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Services:  services,
		}
		code := http.StatusOK
		for _, ok := range services {
			if !ok {
				resp.Status = "degraded"
				code = http.StatusServiceUnavailable
				break
			}
		}
		response.JSON(w, code, resp)
	}
}
