// Package config provides application configuration management with
// multi-source priority.
//
// Configuration sources (highest to lowest priority):
//  1. Environment variables (runtime override)
//  2. Config file (~/.tahoebot/config.yaml or ./config.yaml)
//  3. Default values
//
// Main configuration categories:
//   - AI: generation model, grounding model, embedder model and dimension
//   - RAG: chunk size/overlap, document and web top-k, history window
//   - Storage: PostgreSQL connection (see storage.go)
//   - Serve: HTTP listen address, rate limiting
//
// Sensitive values (the PostgreSQL password) are masked in MarshalJSON and
// String. Validation is comprehensive and fail-fast; see validation.go.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Sentinel errors for configuration validation, checked with errors.Is.
var (
	// ErrConfigNil indicates the configuration is nil.
	ErrConfigNil = errors.New("configuration is nil")

	// ErrMissingAPIKey indicates GEMINI_API_KEY is not set.
	ErrMissingAPIKey = errors.New("missing API key")

	// ErrInvalidChunking indicates chunk size/overlap values are unusable.
	ErrInvalidChunking = errors.New("invalid chunking configuration")

	// ErrInvalidTopK indicates a non-positive retrieval count.
	ErrInvalidTopK = errors.New("invalid top-k")

	// ErrInvalidDimension indicates a non-positive embedding dimension.
	ErrInvalidDimension = errors.New("invalid embedding dimension")

	// ErrInvalidModelName indicates an empty model identifier.
	ErrInvalidModelName = errors.New("invalid model name")

	// ErrInvalidMaxTurns indicates a non-positive conversation bound.
	ErrInvalidMaxTurns = errors.New("invalid max turns")

	// ErrInvalidPostgresHost indicates the PostgreSQL host is invalid.
	ErrInvalidPostgresHost = errors.New("invalid PostgreSQL host")

	// ErrInvalidPostgresPort indicates the PostgreSQL port is out of range.
	ErrInvalidPostgresPort = errors.New("invalid PostgreSQL port")

	// ErrInvalidPostgresDBName indicates the PostgreSQL database name is invalid.
	ErrInvalidPostgresDBName = errors.New("invalid PostgreSQL database name")
)

const (
	// DefaultGenerationModel is the Gemini model used for answer generation.
	DefaultGenerationModel = "gemini-2.5-flash"

	// DefaultGroundingModel is the Gemini model used for Google Search
	// grounded web lookups.
	DefaultGroundingModel = "gemini-3-flash-preview"

	// DefaultEmbedderModel is the default Gemini embedder model.
	DefaultEmbedderModel = "gemini-embedding-001"

	// DefaultEmbeddingDim matches the gemini-embedding-001 output width.
	// Changing this triggers a destructive documents-table migration on the
	// next startup; see the database package.
	DefaultEmbeddingDim = 3072
)

// Config stores application configuration.
// Sensitive fields are masked in MarshalJSON; when adding new secrets,
// update MarshalJSON as well.
type Config struct {
	// AI model configuration
	GenerationModel string  `mapstructure:"generation_model" json:"generation_model"`
	GroundingModel  string  `mapstructure:"grounding_model" json:"grounding_model"`
	EmbedderModel   string  `mapstructure:"embedder_model" json:"embedder_model"`
	EmbeddingDim    int     `mapstructure:"embedding_dim" json:"embedding_dim"`
	Temperature     float32 `mapstructure:"temperature" json:"temperature"`

	// RAG configuration
	ChunkSize     int `mapstructure:"chunk_size" json:"chunk_size"`
	ChunkOverlap  int `mapstructure:"chunk_overlap" json:"chunk_overlap"`
	TopK          int `mapstructure:"top_k" json:"top_k"`
	WebTopK       int `mapstructure:"web_top_k" json:"web_top_k"`
	MaxTurns      int `mapstructure:"max_turns" json:"max_turns"`
	HistoryWindow int `mapstructure:"history_window" json:"history_window"`

	// Web search adapter timeout in seconds. The web sub-path degrades
	// silently, so it must never be allowed to hang a request.
	WebSearchTimeoutSec int `mapstructure:"web_search_timeout_sec" json:"web_search_timeout_sec"`

	// Ingestion source directory
	DataDir string `mapstructure:"data_dir" json:"data_dir"`

	// Storage configuration (see storage.go)
	PostgresHost     string `mapstructure:"postgres_host" json:"postgres_host"`
	PostgresPort     int    `mapstructure:"postgres_port" json:"postgres_port"`
	PostgresUser     string `mapstructure:"postgres_user" json:"postgres_user"`
	PostgresPassword string `mapstructure:"postgres_password" json:"postgres_password"` // SENSITIVE: masked in MarshalJSON
	PostgresDBName   string `mapstructure:"postgres_db_name" json:"postgres_db_name"`
	PostgresSSLMode  string `mapstructure:"postgres_ssl_mode" json:"postgres_ssl_mode"`

	// Serve configuration
	ListenAddr     string  `mapstructure:"listen_addr" json:"listen_addr"`
	RateLimitRPS   float64 `mapstructure:"rate_limit_rps" json:"rate_limit_rps"`
	RateLimitBurst int     `mapstructure:"rate_limit_burst" json:"rate_limit_burst"`
}

// Load loads configuration.
// Priority: environment variables > configuration file > default values.
func Load() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("getting user home directory: %w", err)
	}

	configDir := filepath.Join(home, ".tahoebot")
	if err := os.MkdirAll(configDir, 0o750); err != nil {
		return nil, fmt.Errorf("creating config directory: %w", err)
	}

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(configDir)
	viper.AddConfigPath(".")

	setDefaults()
	bindEnvVariables()

	if err := viper.ReadInConfig(); err != nil {
		// A missing config file is fine, defaults apply.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		slog.Debug("configuration file not found, using default values",
			"search_paths", []string{configDir, "."})
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing configuration: %w", err)
	}

	// DATABASE_URL has highest priority for PostgreSQL settings.
	if err := cfg.parseDatabaseURL(); err != nil {
		return nil, fmt.Errorf("parsing DATABASE_URL: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets all default configuration values.
func setDefaults() {
	// AI defaults
	viper.SetDefault("generation_model", DefaultGenerationModel)
	viper.SetDefault("grounding_model", DefaultGroundingModel)
	viper.SetDefault("embedder_model", DefaultEmbedderModel)
	viper.SetDefault("embedding_dim", DefaultEmbeddingDim)
	viper.SetDefault("temperature", 0.2)

	// RAG defaults (matching the deployed chunking/retrieval parameters)
	viper.SetDefault("chunk_size", 1000)
	viper.SetDefault("chunk_overlap", 150)
	viper.SetDefault("top_k", 5)
	viper.SetDefault("web_top_k", 3)
	viper.SetDefault("max_turns", 10)
	viper.SetDefault("history_window", 6)
	viper.SetDefault("web_search_timeout_sec", 15)
	viper.SetDefault("data_dir", "data")

	// PostgreSQL defaults (matching docker-compose.yml)
	viper.SetDefault("postgres_host", "localhost")
	viper.SetDefault("postgres_port", 5432)
	viper.SetDefault("postgres_user", "tahoebot")
	viper.SetDefault("postgres_password", "tahoebot_dev_password")
	viper.SetDefault("postgres_db_name", "tahoebot")
	viper.SetDefault("postgres_ssl_mode", "disable")

	// Serve defaults
	viper.SetDefault("listen_addr", ":8080")
	viper.SetDefault("rate_limit_rps", 5)
	viper.SetDefault("rate_limit_burst", 20)
}

// bindEnvVariables binds environment overrides explicitly.
// GEMINI_API_KEY is read directly by Genkit and the genai client, not via
// Viper; Validate only checks its presence when required.
func bindEnvVariables() {
	mustBind := func(key, envVar string) {
		if err := viper.BindEnv(key, envVar); err != nil {
			panic(fmt.Sprintf("BUG: failed to bind %q to %q: %v", key, envVar, err))
		}
	}

	mustBind("generation_model", "TAHOEBOT_GENERATION_MODEL")
	mustBind("grounding_model", "TAHOEBOT_GROUNDING_MODEL")
	mustBind("embedder_model", "TAHOEBOT_EMBEDDER_MODEL")
	mustBind("embedding_dim", "TAHOEBOT_EMBEDDING_DIM")
	mustBind("chunk_size", "TAHOEBOT_CHUNK_SIZE")
	mustBind("chunk_overlap", "TAHOEBOT_CHUNK_OVERLAP")
	mustBind("top_k", "TAHOEBOT_TOP_K")
	mustBind("web_top_k", "TAHOEBOT_WEB_TOP_K")
	mustBind("max_turns", "TAHOEBOT_MAX_TURNS")
	mustBind("data_dir", "TAHOEBOT_DATA_DIR")
	mustBind("listen_addr", "TAHOEBOT_LISTEN_ADDR")
	mustBind("postgres_password", "TAHOEBOT_POSTGRES_PASSWORD")
}

// HasAPIKey reports whether the Gemini API key is available in the
// environment. The key itself is consumed by Genkit and the genai client.
func HasAPIKey() bool {
	return os.Getenv("GEMINI_API_KEY") != "" || os.Getenv("GOOGLE_API_KEY") != ""
}

// maskedValue is the placeholder for masked sensitive data.
const maskedValue = "████████"

// maskSecret masks a secret string for safe logging. Secrets of 8 characters
// or fewer are fully masked to prevent substring matching.
func maskSecret(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 8 {
		return maskedValue
	}
	return s[:2] + "<" + maskedValue + ">" + s[len(s)-2:]
}

// MarshalJSON implements json.Marshaler with sensitive field masking.
func (c Config) MarshalJSON() ([]byte, error) {
	type alias Config
	a := alias(c)
	a.PostgresPassword = maskSecret(a.PostgresPassword)
	data, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	return data, nil
}

// String implements Stringer to prevent accidental printing of secrets.
func (c Config) String() string {
	data, err := c.MarshalJSON()
	if err != nil {
		return fmt.Sprintf("Config{error: %v}", err)
	}
	return string(data)
}

// FullGenerationModel returns the provider-qualified generation model name
// for Genkit, e.g. "googleai/gemini-2.5-flash".
func (c *Config) FullGenerationModel() string {
	return qualifyModel(c.GenerationModel)
}

// FullEmbedderModel returns the provider-qualified embedder model name.
func (c *Config) FullEmbedderModel() string {
	return qualifyModel(c.EmbedderModel)
}

func qualifyModel(name string) string {
	for _, r := range name {
		if r == '/' {
			return name
		}
	}
	return "googleai/" + name
}
