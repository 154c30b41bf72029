// Package config provides application configuration management with
// multi-source priority.
//
// Configuration sources (highest to lowest priority):
//  1. Environment variables (runtime override)
//  2. Config file (~/.orbis/config.yaml or ./config.yaml)
//  3. Default values
//
// A .env file, when present, is loaded into the process environment before
// anything else so that local development matches the deployed environment.
//
// Security: sensitive fields (passwords, API keys) are masked in
// MarshalJSON; the config directory uses 0750 permissions.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	// DefaultEmbedderModel is the default Gemini embedder model.
	// gemini-embedding-001 outputs 3072 dimensions by default but supports
	// truncation; the pgvector schema stores EmbeddingDimensions values.
	DefaultEmbedderModel = "gemini-embedding-001"

	// EmbeddingDimensions is the vector width stored in pgvector columns.
	// Changing this requires a schema migration re-embedding every row.
	EmbeddingDimensions = 768

	// DefaultGeminiModel is the default generation model.
	DefaultGeminiModel = "gemini-2.0-flash-lite"

	// DefaultOpenAIModel is the default fallback generation model.
	DefaultOpenAIModel = "gpt-4o-mini"
)

// Config stores application configuration.
// SECURITY: sensitive fields are explicitly masked in MarshalJSON. When
// adding new sensitive fields update MarshalJSON as well.
type Config struct {
	// Generation configuration
	GeminiModel string `mapstructure:"gemini_model" json:"gemini_model"`
	OpenAIModel string `mapstructure:"openai_model" json:"openai_model"`

	// API keys. GEMINI_API_KEY and OPENAI_API_KEY env vars only, never the
	// config file.
	GeminiAPIKey string `mapstructure:"gemini_api_key" json:"gemini_api_key"` // SENSITIVE: masked in MarshalJSON
	OpenAIAPIKey string `mapstructure:"openai_api_key" json:"openai_api_key"` // SENSITIVE: masked in MarshalJSON

	// Embedding configuration
	EmbedderModel string `mapstructure:"embedder_model" json:"embedder_model"`

	// Storage configuration (see storage.go)
	PostgresHost     string `mapstructure:"postgres_host" json:"postgres_host"`
	PostgresPort     int    `mapstructure:"postgres_port" json:"postgres_port"`
	PostgresUser     string `mapstructure:"postgres_user" json:"postgres_user"`
	PostgresPassword string `mapstructure:"postgres_password" json:"postgres_password"` // SENSITIVE: masked in MarshalJSON
	PostgresDBName   string `mapstructure:"postgres_db_name" json:"postgres_db_name"`
	PostgresSSLMode  string `mapstructure:"postgres_ssl_mode" json:"postgres_ssl_mode"`

	// HTTP server configuration
	ListenAddr  string   `mapstructure:"listen_addr" json:"listen_addr"`
	CORSOrigins []string `mapstructure:"cors_origins" json:"cors_origins"`
	RatePerSec  float64  `mapstructure:"rate_per_sec" json:"rate_per_sec"`
	RateBurst   int      `mapstructure:"rate_burst" json:"rate_burst"`

	// Retrieval configuration
	SearchLimit  int `mapstructure:"search_limit" json:"search_limit"`
	ChunkSize    int `mapstructure:"chunk_size" json:"chunk_size"`
	ChunkOverlap int `mapstructure:"chunk_overlap" json:"chunk_overlap"`

	// Observability configuration (OTLP trace export, optional)
	Otel OtelConfig `mapstructure:"otel" json:"otel"`
}

// OtelConfig configures OTLP HTTP trace export. Export is disabled when
// Endpoint is empty.
type OtelConfig struct {
	Endpoint    string `mapstructure:"endpoint" json:"endpoint"`
	ServiceName string `mapstructure:"service_name" json:"service_name"`
	Environment string `mapstructure:"environment" json:"environment"`
}

// Load loads configuration.
// Priority: environment variables > configuration file > default values.
func Load() (*Config, error) {
	// .env first, so env bindings below observe its values. Missing file is
	// the normal production case.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Debug("no .env file loaded", "error", err)
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("getting user home directory: %w", err)
	}

	configDir := filepath.Join(home, ".orbis")
	if err := os.MkdirAll(configDir, 0o750); err != nil {
		return nil, fmt.Errorf("creating config directory: %w", err)
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configDir)
	v.AddConfigPath(".")

	setDefaults(v)
	bindEnvVariables(v)

	if err := v.ReadInConfig(); err != nil {
		// Missing config file is not an error, defaults apply.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		slog.Debug("configuration file not found, using defaults",
			"search_paths", []string{configDir, "."})
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing configuration: %w", err)
	}

	// DATABASE_URL overrides individual postgres_* settings.
	if err := cfg.parseDatabaseURL(); err != nil {
		return nil, fmt.Errorf("parsing DATABASE_URL: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets all default configuration values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("gemini_model", DefaultGeminiModel)
	v.SetDefault("openai_model", DefaultOpenAIModel)
	v.SetDefault("embedder_model", DefaultEmbedderModel)

	// PostgreSQL defaults (matching docker-compose.yml)
	v.SetDefault("postgres_host", "localhost")
	v.SetDefault("postgres_port", 5432)
	v.SetDefault("postgres_user", "orbis")
	v.SetDefault("postgres_password", "orbis_dev_password")
	v.SetDefault("postgres_db_name", "orbisdb")
	v.SetDefault("postgres_ssl_mode", "disable")

	// HTTP defaults (CORS default covers the Vite dev server)
	v.SetDefault("listen_addr", "127.0.0.1:8000")
	v.SetDefault("cors_origins", []string{"http://localhost:5173"})
	v.SetDefault("rate_per_sec", 10.0)
	v.SetDefault("rate_burst", 20)

	// Retrieval defaults
	v.SetDefault("search_limit", 5)
	v.SetDefault("chunk_size", 150)
	v.SetDefault("chunk_overlap", 20)

	// Observability defaults (disabled until an endpoint is configured)
	v.SetDefault("otel.endpoint", "")
	v.SetDefault("otel.service_name", "orbis")
	v.SetDefault("otel.environment", "dev")
}

// bindEnvVariables binds environment variables explicitly.
func bindEnvVariables(v *viper.Viper) {
	// Hardcoded keys cannot fail to bind; a panic here is a bug, not a
	// runtime error.
	mustBind := func(key, envVar string) {
		if err := v.BindEnv(key, envVar); err != nil {
			panic(fmt.Sprintf("BUG: failed to bind %q to %q: %v", key, envVar, err))
		}
	}

	mustBind("gemini_api_key", "GEMINI_API_KEY")
	mustBind("openai_api_key", "OPENAI_API_KEY")
	mustBind("gemini_model", "ORBIS_GEMINI_MODEL")
	mustBind("openai_model", "ORBIS_OPENAI_MODEL")
	mustBind("embedder_model", "ORBIS_EMBEDDER_MODEL")
	mustBind("listen_addr", "ORBIS_LISTEN_ADDR")
	mustBind("cors_origins", "ORBIS_CORS_ORIGINS")
	mustBind("otel.endpoint", "OTEL_EXPORTER_OTLP_ENDPOINT")
}

// maskedValue is the placeholder for masked sensitive data.
const maskedValue = "********"

// MarshalJSON masks sensitive fields so a Config can be logged safely.
func (c Config) MarshalJSON() ([]byte, error) {
	type alias Config // drop methods to avoid recursion
	masked := alias(c)
	if masked.PostgresPassword != "" {
		masked.PostgresPassword = maskedValue
	}
	if masked.GeminiAPIKey != "" {
		masked.GeminiAPIKey = maskedValue
	}
	if masked.OpenAIAPIKey != "" {
		masked.OpenAIAPIKey = maskedValue
	}
	return json.Marshal(masked)
}
