// Package config provides configuration loading for ragd.
//
// Configuration comes from an optional YAML file overridden by environment
// variables. Every section carries defaults so an empty configuration plus
// the two API credentials is enough to run.
package config

import (
	"fmt"
	"time"
)

// Config is the root configuration for the daemon and CLI.
type Config struct {
	Server     ServerConfig     `koanf:"server"`
	Logging    LoggingConfig    `koanf:"logging"`
	Storage    StorageConfig    `koanf:"storage"`
	Embeddings EmbeddingsConfig `koanf:"embeddings"`
	LLM        LLMConfig        `koanf:"llm"`
	Retrieval  RetrievalConfig  `koanf:"retrieval"`
	Guardrail  GuardrailConfig  `koanf:"guardrail"`
	Ingest     IngestConfig     `koanf:"ingest"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	// Port is the HTTP listen port.
	Port int `koanf:"port"`

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout Duration `koanf:"shutdown_timeout"`
}

// LoggingConfig configures the structured logger.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, or error.
	Level string `koanf:"level"`

	// Format is "json" or "console".
	Format string `koanf:"format"`
}

// StorageConfig configures the vector store backend.
type StorageConfig struct {
	// Backend selects the store implementation: "mongo" or "memory".
	Backend string `koanf:"backend"`

	// URI is the MongoDB connection string. It may embed credentials, so
	// it is a Secret and never logged.
	URI Secret `koanf:"uri"`

	// Database is the MongoDB database name.
	Database string `koanf:"database"`

	// Collection is the MongoDB collection holding the records.
	Collection string `koanf:"collection"`
}

// EmbeddingsConfig configures the embedding client.
type EmbeddingsConfig struct {
	BaseURL string `koanf:"base_url"`
	Model   string `koanf:"model"`
	APIKey  Secret `koanf:"api_key"`

	// Timeout bounds each embedding request.
	Timeout Duration `koanf:"timeout"`

	// RequestsPerSecond limits the outbound embedding request rate.
	RequestsPerSecond float64 `koanf:"requests_per_second"`

	// MaxRetries is the retry budget per request.
	MaxRetries int `koanf:"max_retries"`
}

// LLMConfig configures the chat completion client.
type LLMConfig struct {
	BaseURL string `koanf:"base_url"`
	Model   string `koanf:"model"`
	APIKey  Secret `koanf:"api_key"`

	// Timeout bounds each completion request.
	Timeout Duration `koanf:"timeout"`

	// SystemMessage overrides the default answer instruction.
	SystemMessage string `koanf:"system_message"`
}

// RetrievalConfig configures ranking and selection.
type RetrievalConfig struct {
	// Threshold is the strict minimum relevance score.
	Threshold float64 `koanf:"threshold"`

	// TopK is the maximum number of chunks returned per query.
	TopK int `koanf:"top_k"`
}

// GuardrailConfig configures the topic denylist.
type GuardrailConfig struct {
	// Denylist is the list of denied topic terms. An empty list keeps the
	// built-in default; set Disabled to turn the filter off entirely.
	Denylist []string `koanf:"denylist"`

	// Disabled turns the guardrail off.
	Disabled bool `koanf:"disabled"`
}

// IngestConfig configures the offline ingestion pipeline.
type IngestConfig struct {
	// MinChunkLength is the minimum chunk length in characters.
	MinChunkLength int `koanf:"min_chunk_length"`

	// Workers bounds ingestion concurrency. 1 is strictly sequential.
	Workers int `koanf:"workers"`
}

// applyDefaults fills in defaults for every unset field.
func applyDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 3000
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = Duration(10 * time.Second)
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = "mongo"
	}
	if cfg.Storage.Database == "" {
		cfg.Storage.Database = "ragd"
	}
	if cfg.Storage.Collection == "" {
		cfg.Storage.Collection = "vectors"
	}
	if cfg.Embeddings.Model == "" {
		cfg.Embeddings.Model = "text-embedding-3-small"
	}
	if cfg.Embeddings.Timeout == 0 {
		cfg.Embeddings.Timeout = Duration(30 * time.Second)
	}
	if cfg.Embeddings.RequestsPerSecond == 0 {
		cfg.Embeddings.RequestsPerSecond = 5
	}
	if cfg.Embeddings.MaxRetries == 0 {
		cfg.Embeddings.MaxRetries = 3
	}
	if cfg.LLM.Model == "" {
		cfg.LLM.Model = "gpt-4o-mini"
	}
	if cfg.LLM.Timeout == 0 {
		cfg.LLM.Timeout = Duration(60 * time.Second)
	}
	if cfg.Retrieval.Threshold == 0 {
		cfg.Retrieval.Threshold = 0.75
	}
	if cfg.Retrieval.TopK == 0 {
		cfg.Retrieval.TopK = 3
	}
	if cfg.Ingest.MinChunkLength == 0 {
		cfg.Ingest.MinChunkLength = 20
	}
	if cfg.Ingest.Workers == 0 {
		cfg.Ingest.Workers = 1
	}
}

// Validate checks cross-field constraints. Credential presence is validated
// by the components that need them, so read-only commands can run without.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server port must be in [1, 65535], got %d", c.Server.Port)
	}
	if c.Retrieval.TopK <= 0 {
		return fmt.Errorf("retrieval top_k must be positive, got %d", c.Retrieval.TopK)
	}
	if c.Retrieval.Threshold < -1 || c.Retrieval.Threshold > 1 {
		return fmt.Errorf("retrieval threshold must be in [-1, 1], got %v", c.Retrieval.Threshold)
	}
	if c.Storage.Backend != "mongo" && c.Storage.Backend != "memory" {
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}
	if c.Storage.Backend == "mongo" && !c.Storage.URI.IsSet() {
		return fmt.Errorf("storage uri required for mongo backend")
	}
	if c.Ingest.Workers < 1 {
		return fmt.Errorf("ingest workers must be at least 1, got %d", c.Ingest.Workers)
	}
	return nil
}
