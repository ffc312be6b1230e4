package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the VINTRA server.
type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	Status     StatusConfig
	Audio      AudioConfig
	Speech     SpeechConfig
	Generation GenerationConfig
	Analysis   AnalysisConfig
	Pipeline   PipelineConfig
	Auth       AuthConfig
}

type ServerConfig struct {
	Port               int
	Env                string
	RateLimitPerMinute int
}

// DatabaseConfig is optional; an empty URL disables persistence and auth.
type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	MigrationsDir   string
}

type RedisConfig struct {
	URL string
	// KeyPrefix namespaces every key, so instances can share a Redis database.
	KeyPrefix string
}

type StatusConfig struct {
	Backend string
	TTL     time.Duration
}

type AudioConfig struct {
	MaxSizeBytes  int64
	AllowedTypes  []string
	ScratchDir    string
	ArchiveBucket string
}

type SpeechConfig struct {
	Provider        string
	Encoding        string
	SampleRateHertz int
	Language        string
	Model           string
	SpeakerCount    int
	SpeakerRoles    string
	CredentialsFile string
}

type GenerationConfig struct {
	Provider string
	Vertex   VertexConfig
}

type VertexConfig struct {
	ProjectID       string
	Location        string
	Model           string
	CredentialsFile string
}

// AnalysisConfig points at the optional secondary VINTRA analysis backend.
type AnalysisConfig struct {
	BaseURL string
	Timeout time.Duration
}

type PipelineConfig struct {
	ProviderTimeout time.Duration
	MaxRetries      int
	RetryBaseDelay  time.Duration
}

type AuthConfig struct {
	Enabled bool
}

var validStatusBackends = map[string]bool{
	"memory": true,
	"redis":  true,
}

var validSpeechProviders = map[string]bool{
	"google": true,
	"mock":   true,
}

var validGenerationProviders = map[string]bool{
	"vertex": true,
	"mock":   true,
}

const mb = 1024 * 1024

// Load reads configuration from environment variables and returns a validated Config.
// Returns an error with a descriptive message if any required value is missing or invalid.
func Load() (*Config, error) {
	credentials := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS")

	cfg := &Config{
		Server: ServerConfig{
			Port:               envInt("PORT", 5000),
			Env:                envString("VINTRA_ENV", "development"),
			RateLimitPerMinute: envInt("RATE_LIMIT_PER_MINUTE", 30),
		},
		Database: LoadDatabase(),
		Redis: RedisConfig{
			URL:       os.Getenv("REDIS_URL"),
			KeyPrefix: envString("REDIS_KEY_PREFIX", "vintra"),
		},
		Status: StatusConfig{
			Backend: envString("STATUS_BACKEND", "memory"),
			TTL:     envDuration("STATUS_TTL", 24*time.Hour),
		},
		Audio: AudioConfig{
			MaxSizeBytes: int64(envInt("MAX_AUDIO_SIZE_MB", 30)) * mb,
			AllowedTypes: envList("ALLOWED_AUDIO_TYPES",
				[]string{"audio/wav", "audio/mpeg", "audio/mp4", "audio/webm"}),
			ScratchDir:    envString("AUDIO_SCRATCH_DIR", filepath.Join(os.TempDir(), "vintra-uploads")),
			ArchiveBucket: os.Getenv("AUDIO_ARCHIVE_BUCKET"),
		},
		Speech: SpeechConfig{
			Provider:        envString("SPEECH_PROVIDER", "google"),
			Encoding:        envString("SPEECH_ENCODING", "WEBM_OPUS"),
			SampleRateHertz: envInt("SPEECH_SAMPLE_RATE", 48000),
			Language:        envString("SPEECH_LANGUAGE", "pt-BR"),
			Model:           envString("SPEECH_RECOGNITION_MODEL", "medical_conversation"),
			SpeakerCount:    envInt("SPEECH_SPEAKER_COUNT", 2),
			SpeakerRoles:    envString("SPEAKER_ROLES", "1=doctor,*=patient"),
			CredentialsFile: credentials,
		},
		Generation: GenerationConfig{
			Provider: envString("GENERATION_PROVIDER", "vertex"),
			Vertex: VertexConfig{
				ProjectID:       os.Getenv("GOOGLE_CLOUD_PROJECT"),
				Location:        envString("VERTEX_AI_LOCATION", "us-central1"),
				Model:           envString("VERTEX_AI_MODEL", "gemini-1.5-pro"),
				CredentialsFile: credentials,
			},
		},
		Analysis: AnalysisConfig{
			BaseURL: os.Getenv("ANALYSIS_BACKEND_URL"),
			Timeout: envDurationSecs("ANALYSIS_BACKEND_TIMEOUT_SECS", 30*time.Second),
		},
		Pipeline: PipelineConfig{
			ProviderTimeout: envDurationSecs("PROVIDER_TIMEOUT_SECS", 60*time.Second),
			MaxRetries:      envInt("PROVIDER_MAX_RETRIES", 1),
			RetryBaseDelay:  envDuration("PROVIDER_RETRY_BASE_DELAY", 500*time.Millisecond),
		},
		Auth: AuthConfig{
			Enabled: envBool("AUTH_ENABLED", false),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadDatabase reads only the database settings. Tools that need nothing else
// use it to avoid provider validation.
func LoadDatabase() DatabaseConfig {
	return DatabaseConfig{
		URL:             os.Getenv("DATABASE_URL"),
		MaxOpenConns:    envInt("DATABASE_MAX_OPEN_CONNS", 25),
		MaxIdleConns:    envInt("DATABASE_MAX_IDLE_CONNS", 5),
		ConnMaxLifetime: envDuration("DATABASE_CONN_MAX_LIFETIME", 5*time.Minute),
		MigrationsDir:   envString("DATABASE_MIGRATIONS_DIR", "migrations"),
	}
}

func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535, got %d", c.Server.Port)
	}

	if !validStatusBackends[c.Status.Backend] {
		return fmt.Errorf("STATUS_BACKEND must be one of memory, redis; got %q", c.Status.Backend)
	}
	if c.Status.Backend == "redis" && c.Redis.URL == "" {
		return fmt.Errorf("REDIS_URL is required when STATUS_BACKEND is redis")
	}

	if c.Audio.MaxSizeBytes <= 0 {
		return fmt.Errorf("MAX_AUDIO_SIZE_MB must be positive")
	}
	if len(c.Audio.AllowedTypes) == 0 {
		return fmt.Errorf("ALLOWED_AUDIO_TYPES must list at least one MIME type")
	}

	if !validSpeechProviders[c.Speech.Provider] {
		return fmt.Errorf("SPEECH_PROVIDER must be one of google, mock; got %q", c.Speech.Provider)
	}
	if c.Speech.SampleRateHertz <= 0 {
		return fmt.Errorf("SPEECH_SAMPLE_RATE must be positive, got %d", c.Speech.SampleRateHertz)
	}
	if c.Speech.SpeakerCount < 1 {
		return fmt.Errorf("SPEECH_SPEAKER_COUNT must be at least 1, got %d", c.Speech.SpeakerCount)
	}

	if !validGenerationProviders[c.Generation.Provider] {
		return fmt.Errorf("GENERATION_PROVIDER must be one of vertex, mock; got %q", c.Generation.Provider)
	}
	if c.Generation.Provider == "vertex" && c.Generation.Vertex.ProjectID == "" {
		return fmt.Errorf("GOOGLE_CLOUD_PROJECT is required when GENERATION_PROVIDER is vertex")
	}

	if c.Analysis.BaseURL != "" &&
		!strings.HasPrefix(c.Analysis.BaseURL, "http://") && !strings.HasPrefix(c.Analysis.BaseURL, "https://") {
		return fmt.Errorf("ANALYSIS_BACKEND_URL must start with http:// or https://, got %q", c.Analysis.BaseURL)
	}

	if c.Pipeline.ProviderTimeout <= 0 {
		return fmt.Errorf("PROVIDER_TIMEOUT_SECS must be positive")
	}
	if c.Pipeline.MaxRetries < 0 {
		return fmt.Errorf("PROVIDER_MAX_RETRIES must not be negative, got %d", c.Pipeline.MaxRetries)
	}

	if c.Auth.Enabled && c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required when AUTH_ENABLED is true")
	}

	return nil
}

func envString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func envBool(key string, defaultVal bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return defaultVal
	}
	return b
}

// envList splits a comma-separated value, dropping blanks.
func envList(key string, defaultVal []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, strings.ToLower(item))
		}
	}
	return out
}

func envDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}

func envDurationSecs(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	secs, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return time.Duration(secs) * time.Second
}
