package vectorstore

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Backend identifiers accepted by the factory.
const (
	BackendMongo  = "mongo"
	BackendMemory = "memory"
)

// Config selects and configures a store backend.
type Config struct {
	// Backend is the store implementation to use: "mongo" or "memory".
	// Default: "mongo"
	Backend string

	// Mongo configures the MongoDB backend. Ignored for "memory".
	Mongo MongoConfig
}

// ApplyDefaults sets default values for unset fields.
func (c *Config) ApplyDefaults() {
	if c.Backend == "" {
		c.Backend = BackendMongo
	}
	c.Mongo.ApplyDefaults()
}

// New creates a Store for the configured backend.
//
// The memory backend needs no infrastructure and is intended for tests and
// local development; production deployments use MongoDB.
func New(ctx context.Context, cfg Config, logger *zap.Logger) (Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg.ApplyDefaults()

	switch cfg.Backend {
	case BackendMongo:
		return NewMongoStore(ctx, cfg.Mongo, logger)
	case BackendMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("%w: unknown backend %q", ErrInvalidConfig, cfg.Backend)
	}
}
