package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

var ErrMissingRequired = errors.New("missing required configuration")

type Config struct {
	// Embedding model
	ModelProvider string `envconfig:"MODEL_PROVIDER" default:"ollama"`
	ModelName     string `envconfig:"MODEL_NAME" default:"nomic-embed-text"`
	OllamaURL     string `envconfig:"OLLAMA_URL" default:"http://localhost:11434/v1"`
	GeminiAPIKey  string `envconfig:"GEMINI_API_KEY"`

	// Ingestion status polling defaults, used by the bundled SDK client
	PollIntervalMS int `envconfig:"POLL_INTERVAL_MS" default:"1000"`
	MaxAttempts    int `envconfig:"MAX_ATTEMPTS" default:"60"`

	// Job store backend: "memory" (transient) or "postgres" (durable)
	JobStore string `envconfig:"JOB_STORE" default:"memory"`

	DBHost string `envconfig:"DB_HOST" default:"postgres"`
	DBPort int    `envconfig:"DB_PORT" default:"5432"`
	DBUser string `envconfig:"DB_USER" default:"chatdocs"`
	DBPass string `envconfig:"DB_PASS" default:"password"`
	DBName string `envconfig:"DB_NAME" default:"chatdocs"`

	WeaviateHost   string `envconfig:"WEAVIATE_HOST" default:"localhost:8080"`
	WeaviateScheme string `envconfig:"WEAVIATE_SCHEME" default:"http"`

	NSQLookupd string `envconfig:"NSQ_LOOKUPD" default:"nsqlookupd:4161"`
	NSQDHost   string `envconfig:"NSQD_HOST" default:"nsqd:4150"`
	NSQDHTTP   string `envconfig:"NSQD_HTTP" default:"nsqd:4151"`

	// Server
	ServerPort      int    `envconfig:"PORT" default:"8085"`
	UploadDir       string `envconfig:"UPLOAD_DIR" default:"./uploads"`
	MaxUploadSizeMB int64  `envconfig:"MAX_UPLOAD_SIZE_MB" default:"50"`
	MigrationPath   string `envconfig:"MIGRATION_PATH" default:"file://migrations"`

	// Resilience
	BootstrapRetryAttempts     int `envconfig:"BOOTSTRAP_RETRY_ATTEMPTS" default:"10"`
	BootstrapRetryDelaySeconds int `envconfig:"BOOTSTRAP_RETRY_DELAY_SECONDS" default:"2"`
}

func Load() (*Config, error) {
	// .env files are optional; env vars may be set in the shell.
	_ = godotenv.Load(".env")

	cwd, _ := os.Getwd()
	_ = godotenv.Load(filepath.Join(cwd, "../.env"))

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.ModelName == "" {
		return fmt.Errorf("%w: MODEL_NAME", ErrMissingRequired)
	}
	if c.ModelProvider != "ollama" && c.ModelProvider != "gemini" {
		return fmt.Errorf("unknown MODEL_PROVIDER %q", c.ModelProvider)
	}
	if c.ModelProvider == "gemini" && c.GeminiAPIKey == "" {
		return fmt.Errorf("%w: GEMINI_API_KEY", ErrMissingRequired)
	}
	if c.JobStore != "memory" && c.JobStore != "postgres" {
		return fmt.Errorf("unknown JOB_STORE %q", c.JobStore)
	}
	if c.PollIntervalMS <= 0 {
		return fmt.Errorf("POLL_INTERVAL_MS must be positive, got %d", c.PollIntervalMS)
	}
	if c.MaxAttempts <= 0 {
		return fmt.Errorf("MAX_ATTEMPTS must be positive, got %d", c.MaxAttempts)
	}
	return nil
}
