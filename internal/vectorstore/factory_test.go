package vectorstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_MemoryBackend(t *testing.T) {
	store, err := New(context.Background(), Config{Backend: BackendMemory}, nil)
	require.NoError(t, err)
	require.NotNil(t, store)

	_, ok := store.(*MemoryStore)
	assert.True(t, ok)
}

func TestNew_UnknownBackend(t *testing.T) {
	_, err := New(context.Background(), Config{Backend: "redis"}, nil)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestConfig_ApplyDefaults(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()

	assert.Equal(t, BackendMongo, cfg.Backend)
	assert.Equal(t, "ragd", cfg.Mongo.Database)
	assert.Equal(t, "vectors", cfg.Mongo.Collection)
}

func TestMongoConfig_Validate(t *testing.T) {
	cfg := MongoConfig{}
	cfg.ApplyDefaults()

	err := cfg.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidConfig)

	cfg.URI = "mongodb://localhost:27017"
	assert.NoError(t, cfg.Validate())
}
