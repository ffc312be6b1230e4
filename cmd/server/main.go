// Package main is the entrypoint for the VINTRA consultation server.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/kiranshivaraju/vintra/internal/analysis"
	"github.com/kiranshivaraju/vintra/internal/api"
	"github.com/kiranshivaraju/vintra/internal/api/handler"
	mw "github.com/kiranshivaraju/vintra/internal/api/middleware"
	"github.com/kiranshivaraju/vintra/internal/audio"
	"github.com/kiranshivaraju/vintra/internal/cache"
	"github.com/kiranshivaraju/vintra/internal/config"
	"github.com/kiranshivaraju/vintra/internal/diarize"
	"github.com/kiranshivaraju/vintra/internal/generate"
	"github.com/kiranshivaraju/vintra/internal/pipeline"
	"github.com/kiranshivaraju/vintra/internal/status"
	"github.com/kiranshivaraju/vintra/internal/store"
	"github.com/kiranshivaraju/vintra/internal/transcribe"
)

const shutdownTimeout = 30 * time.Second

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := run(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load .env when present, then config; fail fast on invalid config
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("could not read .env", "error", err)
	}
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	slog.Info("config loaded",
		"env", cfg.Server.Env,
		"speech_provider", cfg.Speech.Provider,
		"generation_provider", cfg.Generation.Provider,
		"status_backend", cfg.Status.Backend,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Optional database
	var (
		pgStore  *store.PostgresStore
		dbPinger pinger
	)
	if cfg.Database.URL != "" {
		pool, err := store.Connect(ctx, cfg.Database)
		if err != nil {
			return fmt.Errorf("connect database: %w", err)
		}
		defer pool.Close()
		slog.Info("database connected")

		if err := store.RunMigrations(cfg.Database.URL, cfg.Database.MigrationsDir); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
		slog.Info("database migrations applied")

		pgStore = store.NewPostgresStore(pool)
		dbPinger = pgStore
	}

	// 3. Optional Redis
	var redisCache cache.Cache
	if cfg.Redis.URL != "" {
		rc, err := cache.NewRedisCache(cfg.Redis.URL, cache.WithNamespace(cfg.Redis.KeyPrefix))
		if err != nil {
			return fmt.Errorf("create redis cache: %w", err)
		}
		defer rc.Close()

		if err := rc.Ping(ctx); err != nil {
			return fmt.Errorf("ping redis: %w", err)
		}
		slog.Info("redis connected")
		redisCache = rc
	}

	tracker := status.NewTracker(newStatusStore(cfg.Status, redisCache))

	// 4. Providers
	roles, err := diarize.ParseRoles(cfg.Speech.SpeakerRoles)
	if err != nil {
		return fmt.Errorf("parse speaker roles: %w", err)
	}

	transcriber, err := transcribe.NewTranscriber(ctx, cfg.Speech)
	if err != nil {
		return fmt.Errorf("create transcriber: %w", err)
	}
	defer transcriber.Close()
	slog.Info("transcriber initialized", "provider", transcriber.Name())

	provider, err := generate.NewProvider(ctx, cfg.Generation)
	if err != nil {
		return fmt.Errorf("create generation provider: %w", err)
	}
	if c, ok := provider.(io.Closer); ok {
		defer c.Close()
	}
	slog.Info("generation provider initialized", "provider", provider.Name(), "model", provider.Model())
	generator := generate.NewService(provider)

	var backend analysis.Client
	if cfg.Analysis.BaseURL != "" {
		backend = analysis.NewHTTPClient(cfg.Analysis.BaseURL, cfg.Analysis.Timeout)
		slog.Info("secondary analysis backend configured", "url", cfg.Analysis.BaseURL)
	}

	var archiver audio.Archiver
	if cfg.Audio.ArchiveBucket != "" {
		gcs, err := audio.NewGCSArchiver(ctx, cfg.Audio.ArchiveBucket, cfg.Speech.CredentialsFile)
		if err != nil {
			return fmt.Errorf("create audio archiver: %w", err)
		}
		defer gcs.Close()
		archiver = gcs
		slog.Info("audio archive enabled", "bucket", cfg.Audio.ArchiveBucket)
	}

	// 5. Orchestrator
	pcfg := pipeline.Config{
		Transcriber: transcriber,
		Generator:   generator,
		Analysis:    backend,
		Tracker:     tracker,
		Roles:       roles,
		Archiver:    archiver,
		Retry: pipeline.RetryPolicy{
			Timeout:    cfg.Pipeline.ProviderTimeout,
			MaxRetries: cfg.Pipeline.MaxRetries,
			BaseDelay:  cfg.Pipeline.RetryBaseDelay,
		},
	}
	if pgStore != nil {
		pcfg.Recorder = pgStore
	}
	orchestrator := pipeline.New(pcfg)

	// 6. Build router with dependencies
	deps := api.Dependencies{
		HealthHandler: handler.NewHealthHandler(healthChecks(dbPinger, redisCache, backend)),
		TranscribeHandler: handler.NewTranscribeHandler(orchestrator, audio.NewScratch(cfg.Audio.ScratchDir), audio.Limits{
			MaxSizeBytes: cfg.Audio.MaxSizeBytes,
			AllowedTypes: cfg.Audio.AllowedTypes,
		}),
		StatusHandler: handler.NewStatusHandler(tracker),
	}
	if pgStore != nil {
		deps.ProcessHandler = handler.NewProcessHandler(generator, pgStore)
		deps.ConsultationHandler = handler.NewConsultationHandler(pgStore)
	} else {
		deps.ProcessHandler = handler.NewProcessHandler(generator, nil)
	}
	if cfg.Auth.Enabled {
		deps.Auth = mw.NewAuth(pgStore)
	}
	if redisCache != nil {
		deps.RateLimit = mw.NewRateLimit(redisCache, cfg.Server.RateLimitPerMinute)
	}

	router := api.NewRouter(deps)

	// 7. Start HTTP server
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: writeTimeout(cfg.Pipeline),
		IdleTimeout:  60 * time.Second,
	}

	// Start server in background
	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// Wait for shutdown signal or server error
	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		slog.Info("shutdown signal received, draining connections...")
	}

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped gracefully")
	return nil
}

func newStatusStore(cfg config.StatusConfig, c cache.Cache) status.Store {
	if cfg.Backend == "redis" && c != nil {
		return status.NewRedisStore(c, cfg.TTL)
	}
	return status.NewMemoryStore()
}

type pinger interface {
	Ping(ctx context.Context) error
}

// healthChecks builds the probes reported by /api/health. Optional
// dependencies that are not configured are omitted.
func healthChecks(db, redis pinger, backend analysis.Client) map[string]handler.Check {
	checks := map[string]handler.Check{}
	if db != nil {
		checks["database"] = db.Ping
	}
	if redis != nil {
		checks["redis"] = redis.Ping
	}
	if backend != nil {
		checks["analysis_backend"] = backend.Health
	}
	return checks
}

// writeTimeout covers the slowest synchronous upload: three provider calls,
// each retried, plus slack for the upload itself.
func writeTimeout(p config.PipelineConfig) time.Duration {
	attempts := time.Duration(p.MaxRetries + 1)
	return 3*attempts*p.ProviderTimeout + 30*time.Second
}
