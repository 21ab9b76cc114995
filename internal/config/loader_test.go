package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout.Duration())
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "mongo", cfg.Storage.Backend)
	assert.Equal(t, "ragd", cfg.Storage.Database)
	assert.Equal(t, "vectors", cfg.Storage.Collection)
	assert.Equal(t, "text-embedding-3-small", cfg.Embeddings.Model)
	assert.Equal(t, "gpt-4o-mini", cfg.LLM.Model)
	assert.Equal(t, 0.75, cfg.Retrieval.Threshold)
	assert.Equal(t, 3, cfg.Retrieval.TopK)
	assert.Equal(t, 20, cfg.Ingest.MinChunkLength)
	assert.Equal(t, 1, cfg.Ingest.Workers)
}

func TestLoad_YAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
server:
  port: 8080
retrieval:
  threshold: 0.5
  top_k: 5
storage:
  backend: memory
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 0.5, cfg.Retrieval.Threshold)
	assert.Equal(t, 5, cfg.Retrieval.TopK)
	assert.Equal(t, "memory", cfg.Storage.Backend)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 8080\n"), 0o600))

	t.Setenv("RAGD_SERVER_PORT", "9090")
	t.Setenv("RAGD_RETRIEVAL_TOP_K", "7")
	t.Setenv("RAGD_EMBEDDINGS_API_KEY", "env-secret")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 7, cfg.Retrieval.TopK)
	assert.Equal(t, "env-secret", cfg.Embeddings.APIKey.Value())
}

func TestLoad_MissingFileIsNotAnError(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 3000, cfg.Server.Port)
}

func TestLoad_MalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [not: valid"), 0o600))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestTransformEnvKey(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"RAGD_SERVER_PORT", "server.port"},
		{"RAGD_STORAGE_URI", "storage.uri"},
		{"RAGD_EMBEDDINGS_API_KEY", "embeddings.api_key"},
		{"RAGD_RETRIEVAL_TOP_K", "retrieval.top_k"},
		{"RAGD_LOGGING_LEVEL", "logging.level"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, transformEnvKey(tt.in))
		})
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg, err := Load("")
		require.NoError(t, err)
		cfg.Storage.URI = "mongodb://localhost:27017"
		return cfg
	}

	t.Run("valid config", func(t *testing.T) {
		assert.NoError(t, valid().Validate())
	})

	t.Run("port out of range", func(t *testing.T) {
		cfg := valid()
		cfg.Server.Port = 70000
		assert.Error(t, cfg.Validate())
	})

	t.Run("mongo backend requires uri", func(t *testing.T) {
		cfg := valid()
		cfg.Storage.URI = ""
		assert.Error(t, cfg.Validate())
	})

	t.Run("memory backend needs no uri", func(t *testing.T) {
		cfg := valid()
		cfg.Storage.Backend = "memory"
		cfg.Storage.URI = ""
		assert.NoError(t, cfg.Validate())
	})

	t.Run("unknown backend", func(t *testing.T) {
		cfg := valid()
		cfg.Storage.Backend = "redis"
		assert.Error(t, cfg.Validate())
	})

	t.Run("threshold out of range", func(t *testing.T) {
		cfg := valid()
		cfg.Retrieval.Threshold = 1.5
		assert.Error(t, cfg.Validate())
	})

	t.Run("non-positive top_k", func(t *testing.T) {
		cfg := valid()
		cfg.Retrieval.TopK = -1
		assert.Error(t, cfg.Validate())
	})
}
