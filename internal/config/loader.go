package config

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

const (
	// envPrefix namespaces the daemon's environment variables.
	envPrefix = "RAGD_"

	// maxConfigFileSize caps how much config we will read.
	maxConfigFileSize = 1024 * 1024 // 1MB
)

// Load loads configuration from an optional YAML file, then overrides with
// environment variables.
//
// Precedence (highest to lowest):
//  1. Environment variables (RAGD_SERVER_PORT, RAGD_EMBEDDINGS_API_KEY, ...)
//  2. YAML config file (path argument; missing file is not an error)
//  3. Hardcoded defaults
//
// Environment variables map to config keys by stripping the RAGD_ prefix,
// lowercasing, and splitting on the first underscore:
//
//	RAGD_SERVER_PORT            -> server.port
//	RAGD_STORAGE_URI            -> storage.uri
//	RAGD_EMBEDDINGS_API_KEY     -> embeddings.api_key
//	RAGD_RETRIEVAL_TOP_K        -> retrieval.top_k
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	if configPath != "" {
		if err := loadFile(k, configPath); err != nil {
			return nil, err
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", transformEnvKey), nil); err != nil {
		return nil, fmt.Errorf("loading environment variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

// loadFile loads the YAML file into k. A missing file is silently skipped
// so a plain env-only deployment needs no file at all.
func loadFile(k *koanf.Koanf, path string) error {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("opening config file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat config file: %w", err)
	}
	if info.Size() > maxConfigFileSize {
		return fmt.Errorf("config file %s exceeds %d bytes", path, maxConfigFileSize)
	}

	content, err := io.ReadAll(f)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}

	if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return nil
}

// transformEnvKey maps RAGD_SECTION_FIELD_NAME to section.field_name.
// The split happens on the first underscore only; underscores inside the
// field name are preserved (RAGD_RETRIEVAL_TOP_K -> retrieval.top_k).
func transformEnvKey(s string) string {
	lower := strings.ToLower(strings.TrimPrefix(s, envPrefix))
	parts := strings.SplitN(lower, "_", 2)
	if len(parts) == 1 {
		return lower
	}
	return parts[0] + "." + parts[1]
}
