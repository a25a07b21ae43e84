package config

import (
	"fmt"
	"net/url"

	"github.com/ilyakaznacheev/cleanenv"
)

// Providers accepted by the inference.provider setting.
const (
	ProviderGemini    = "gemini"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// Config holds all configuration for cropmind-engine.
// Configuration can come from YAML file (config.yaml) or environment variables.
// Environment variables always override YAML values for fields that support both.
// Secrets (passwords, API keys) must only come from environment variables.
type Config struct {
	// Server configuration
	BindAddr string `yaml:"bind_addr" env:"BIND_ADDR" env-default:"127.0.0.1"`
	Port     string `yaml:"port" env:"PORT" env-default:"8080"`
	Env      string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	BaseURL  string `yaml:"base_url" env:"BASE_URL" env-default:""` // Auto-derived from Port if empty
	Version  string `yaml:"-"`                                      // Set at load time, not from config

	// Database configuration (PostgreSQL)
	Database DatabaseConfig `yaml:"database"`

	// Uploaded image handling
	Uploads UploadsConfig `yaml:"uploads"`

	// External multimodal inference provider
	Inference InferenceConfig `yaml:"inference"`
}

// DatabaseConfig holds PostgreSQL database configuration.
type DatabaseConfig struct {
	Host           string `yaml:"host" env:"PGHOST" env-default:"localhost"`
	Port           int    `yaml:"port" env:"PGPORT" env-default:"5432"`
	User           string `yaml:"user" env:"PGUSER" env-default:"cropmind"`
	Password       string `yaml:"-" env:"PGPASSWORD"` // Secret - not in YAML
	Database       string `yaml:"database" env:"PGDATABASE" env-default:"cropmind_engine"`
	MaxConnections int32  `yaml:"max_connections" env:"PGMAX_CONNECTIONS" env-default:"25"`
	SSLMode        string `yaml:"ssl_mode" env:"PGSSLMODE" env-default:"disable"`
}

// UploadsConfig holds settings for uploaded image staging and storage.
type UploadsConfig struct {
	// Dir is where retained upload binaries are written.
	Dir string `yaml:"dir" env:"UPLOADS_DIR" env-default:"./uploads"`
	// BaseURL is the public path prefix under which Dir is served.
	BaseURL string `yaml:"base_url" env:"UPLOADS_BASE_URL" env-default:"/uploads"`
	// MaxBytes caps the accepted upload size. 0 disables the cap.
	MaxBytes int64 `yaml:"max_bytes" env:"UPLOADS_MAX_BYTES" env-default:"10485760"`
	// InMemory stages analysis uploads in a buffer instead of a temp file.
	InMemory bool `yaml:"in_memory" env:"UPLOADS_IN_MEMORY" env-default:"false"`
}

// InferenceConfig holds the external multimodal provider settings.
// APIKey is the single process-wide credential injected into the client;
// no other component reads it.
type InferenceConfig struct {
	Provider string `yaml:"provider" env:"INFERENCE_PROVIDER" env-default:"gemini"`
	Endpoint string `yaml:"endpoint" env:"INFERENCE_ENDPOINT" env-default:"https://generativelanguage.googleapis.com/v1beta/models"`
	Model    string `yaml:"model" env:"INFERENCE_MODEL" env-default:"gemini-1.5-flash"`
	APIKey   string `yaml:"-" env:"INFERENCE_API_KEY"` // Secret - not in YAML
	// MaxTokens bounds the generated report length for providers that require it.
	MaxTokens int `yaml:"max_tokens" env:"INFERENCE_MAX_TOKENS" env-default:"1024"`
	// TimeoutSeconds is the outbound HTTP client timeout. 0 inherits the
	// transport default; the pipeline itself never retries.
	TimeoutSeconds int `yaml:"timeout_seconds" env:"INFERENCE_TIMEOUT_SECONDS" env-default:"0"`
}

// Load reads configuration from config.yaml with environment variable overrides.
// The version parameter is injected at build time and set on the returned Config.
func Load(version string) (*Config, error) {
	cfg := &Config{
		Version: version,
	}

	if err := cleanenv.ReadConfig("config.yaml", cfg); err != nil {
		return nil, fmt.Errorf("failed to read config.yaml: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	// Auto-derive BaseURL from Port if not explicitly set
	if cfg.BaseURL == "" {
		cfg.BaseURL = (&url.URL{
			Scheme: "http",
			Host:   "localhost:" + cfg.Port,
		}).String()
	}

	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Inference.Provider {
	case ProviderGemini, ProviderOpenAI, ProviderAnthropic:
	default:
		return fmt.Errorf("unknown inference provider %q (want %q, %q or %q)",
			c.Inference.Provider, ProviderGemini, ProviderOpenAI, ProviderAnthropic)
	}

	if c.Uploads.Dir == "" {
		return fmt.Errorf("uploads.dir must not be empty")
	}
	if c.Uploads.MaxBytes < 0 {
		return fmt.Errorf("uploads.max_bytes must not be negative")
	}

	return nil
}

// ConnectionString returns a PostgreSQL connection string.
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}
