package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	mw "github.com/kiranshivaraju/vintra/internal/api/middleware"
	"github.com/kiranshivaraju/vintra/internal/api/response"
)

// Scopes checked on protected routes when authentication is enabled.
const (
	ScopeTranscribe = "transcribe"
	ScopeProcess    = "process"
	ScopeRead       = "read"
)

// Dependencies holds all handler and middleware dependencies for the router.
// A nil Auth leaves every route public; a nil handler answers 501.
type Dependencies struct {
	Auth      *mw.Auth
	RateLimit *mw.RateLimit

	HealthHandler       http.HandlerFunc
	TranscribeHandler   http.HandlerFunc
	ProcessHandler      http.HandlerFunc
	StatusHandler       http.HandlerFunc
	ConsultationHandler http.HandlerFunc
}

// NewRouter builds the Chi router with middleware stack and all routes.
func NewRouter(deps Dependencies) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(mw.Logger)
	r.Use(mw.Recovery)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		response.Error(w, http.StatusNotFound, "NOT_FOUND", "Route not found", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		response.Error(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
	})

	// Public health check
	r.Get("/api/health", orNotImplemented(deps.HealthHandler))

	r.Group(func(r chi.Router) {
		if deps.Auth != nil {
			r.Use(deps.Auth.Authenticate)
		}

		r.With(scope(deps.Auth, ScopeTranscribe), deps.RateLimit.Limit).
			Post("/api/transcribe", orNotImplemented(deps.TranscribeHandler))
		r.With(scope(deps.Auth, ScopeProcess), deps.RateLimit.Limit).
			Post("/api/process", orNotImplemented(deps.ProcessHandler))

		r.Group(func(r chi.Router) {
			r.Use(scope(deps.Auth, ScopeRead))

			r.Get("/api/status/{id}", orNotImplemented(deps.StatusHandler))
			r.Get("/api/status", missingID)
			r.Get("/api/status/", missingID)
			r.Get("/api/consultations/{id}", orNotImplemented(deps.ConsultationHandler))
		})
	})

	return r
}

func scope(auth *mw.Auth, name string) func(http.Handler) http.Handler {
	if auth == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	return auth.RequireScope(name)
}

func missingID(w http.ResponseWriter, _ *http.Request) {
	response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "consultation id is required", nil)
}

// orNotImplemented returns the handler if non-nil, or a 501 placeholder.
func orNotImplemented(h http.HandlerFunc) http.HandlerFunc {
	if h != nil {
		return h
	}
	return func(w http.ResponseWriter, r *http.Request) {
		response.Error(w, http.StatusNotImplemented, "NOT_IMPLEMENTED", "Endpoint not yet implemented", nil)
	}
}
