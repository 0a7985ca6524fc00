package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
type Config struct {
	APIPort   string     `env:"API_PORT" envDefault:"9000"`
	LogLevel  slog.Level `env:"LOG_LEVEL" envDefault:"INFO"`
	LogFormat string     `env:"LOG_FORMAT" envDefault:"text"`

	// StoreBackend selects sqlite (with Qdrant for vectors) or postgres (pgvector + tsvector).
	StoreBackend string `env:"STORE_BACKEND" envDefault:"sqlite"`
	DBPath       string `env:"DB_PATH" envDefault:"./data/contrackt.db"`
	DatabaseURL  string `env:"DATABASE_URL"`

	QdrantURL        string `env:"QDRANT_URL" envDefault:"http://localhost:6333"`
	QdrantCollection string `env:"QDRANT_COLLECTION" envDefault:"contract_chunks"`
	VectorSize       int    `env:"VECTOR_SIZE" envDefault:"1024"`

	LLM   LLMConfig   `envPrefix:"LLM_"`
	Azure AzureConfig `envPrefix:"AZURE_OPENAI_"`

	EmbeddingBaseURL   string `env:"EMBEDDING_BASE_URL" envDefault:"http://localhost:8081"`
	EmbeddingModelName string `env:"EMBEDDING_MODEL_NAME" envDefault:"text-embedding-3-large"`

	Blob BlobConfig

	Retrieval RetrievalConfig

	MaxUploadMB        int64   `env:"MAX_UPLOAD_MB" envDefault:"50"`
	OTLPEndpoint       string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	OTelServiceName    string  `env:"OTEL_SERVICE_NAME" envDefault:"contrackt-ai"`
	TraceSamplingRatio float64 `env:"OTEL_SAMPLING_RATIO" envDefault:"1.0"`
}

// LLMConfig configures the chat model used for planning, answering and date extraction.
type LLMConfig struct {
	Provider     string        `env:"PROVIDER" envDefault:"openai"`
	BaseURL      string        `env:"BASE_URL" envDefault:"http://localhost:8080"`
	APIKey       string        `env:"API_KEY" envDefault:"dummy-key"`
	Model        string        `env:"MODEL" envDefault:"gpt-4o"`
	Timeout      time.Duration `env:"TIMEOUT" envDefault:"120s"`
	DepthTimeout time.Duration `env:"DEPTH_TIMEOUT" envDefault:"15s"`
	Retry        RetryConfig   `envPrefix:"RETRY_"`
}

// AzureConfig is only read when LLM_PROVIDER=azure.
type AzureConfig struct {
	Endpoint            string `env:"ENDPOINT"`
	APIKey              string `env:"API_KEY"`
	APIVersion          string `env:"API_VERSION" envDefault:"2024-12-01-preview"`
	Deployment          string `env:"DEPLOYMENT"`
	EmbeddingDeployment string `env:"EMBEDDING_DEPLOYMENT"`
}

// BlobConfig selects where uploaded PDFs are kept.
type BlobConfig struct {
	Backend       string        `env:"BLOB_BACKEND" envDefault:"disk"`
	Dir           string        `env:"BLOB_DIR" envDefault:"./data/files"`
	PublicBaseURL string        `env:"PUBLIC_BASE_URL" envDefault:"http://localhost:9000"`
	S3Bucket      string        `env:"S3_BUCKET"`
	AWSRegion     string        `env:"AWS_REGION" envDefault:"us-east-1"`
	PresignTTL    time.Duration `env:"PRESIGN_TTL" envDefault:"1h"`
}

// RetrievalConfig holds the tunables of the hybrid retrieval pipeline.
type RetrievalConfig struct {
	ContextBudget int `env:"CONTEXT_BUDGET" envDefault:"50000"`
	Oversample    int `env:"OVERSAMPLE" envDefault:"20"`
	MaxTopK       int `env:"MAX_TOP_K" envDefault:"1000"`
}

// RetryConfig controls retries of transient model failures.
type RetryConfig struct {
	Attempts uint          `env:"ATTEMPTS" envDefault:"3"`
	Delay    time.Duration `env:"DELAY" envDefault:"500ms"`
	MaxDelay time.Duration `env:"MAX_DELAY" envDefault:"5s"`
}

// ToRetryOptions converts the config to retry-go options.
func (rc RetryConfig) ToRetryOptions() []retry.Option {
	return []retry.Option{
		retry.Attempts(rc.Attempts),
		retry.Delay(rc.Delay),
		retry.MaxDelay(rc.MaxDelay),
	}
}

// Load reads configuration from environment variables and returns a Config struct.
// If a .env file exists in the current directory or up to five parents, it is loaded first.
// Environment variables already set take precedence over .env file values.
func Load() (*Config, error) {
	_ = godotenv.Load()

	wd, err := os.Getwd()
	if err == nil {
		dir := wd
		for i := 0; i < 5; i++ {
			envPath := filepath.Join(dir, ".env")
			if _, err := os.Stat(envPath); err == nil {
				_ = godotenv.Load(envPath)
				break
			}
			parent := filepath.Dir(dir)
			if parent == dir {
				break
			}
			dir = parent
		}
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.StoreBackend == "sqlite" {
		if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	return cfg, nil
}

// Validate checks cross-field constraints that struct tags cannot express.
func (c *Config) Validate() error {
	var problems []string

	switch c.StoreBackend {
	case "sqlite":
	case "postgres":
		if c.DatabaseURL == "" {
			problems = append(problems, "DATABASE_URL is required when STORE_BACKEND=postgres")
		}
	default:
		problems = append(problems, fmt.Sprintf("STORE_BACKEND must be sqlite or postgres, got %q", c.StoreBackend))
	}

	switch c.LLM.Provider {
	case "openai":
	case "azure":
		if c.Azure.Endpoint == "" || c.Azure.APIKey == "" {
			problems = append(problems, "AZURE_OPENAI_ENDPOINT and AZURE_OPENAI_API_KEY are required when LLM_PROVIDER=azure")
		}
		if c.Azure.Deployment == "" {
			problems = append(problems, "AZURE_OPENAI_DEPLOYMENT is required when LLM_PROVIDER=azure")
		}
	default:
		problems = append(problems, fmt.Sprintf("LLM_PROVIDER must be openai or azure, got %q", c.LLM.Provider))
	}

	switch c.Blob.Backend {
	case "disk":
	case "s3":
		if c.Blob.S3Bucket == "" {
			problems = append(problems, "S3_BUCKET is required when BLOB_BACKEND=s3")
		}
	default:
		problems = append(problems, fmt.Sprintf("BLOB_BACKEND must be disk or s3, got %q", c.Blob.Backend))
	}

	if c.VectorSize <= 0 {
		problems = append(problems, "VECTOR_SIZE must be greater than 0")
	}
	if c.Retrieval.ContextBudget <= 0 {
		problems = append(problems, "CONTEXT_BUDGET must be greater than 0")
	}
	if c.Retrieval.Oversample <= 0 {
		problems = append(problems, "OVERSAMPLE must be greater than 0")
	}
	if c.Retrieval.MaxTopK < 5 {
		problems = append(problems, "MAX_TOP_K must be at least 5")
	}
	if c.MaxUploadMB <= 0 {
		problems = append(problems, "MAX_UPLOAD_MB must be greater than 0")
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}
