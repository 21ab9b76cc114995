// Ragd is a retrieval-augmented answering daemon.
//
// It serves questions over an ingested dataset: each query is embedded,
// scored against every stored chunk, and answered by a chat model grounded
// on the best matches. A topic denylist rejects off-dataset questions before
// any model call.
//
// Configuration is loaded from an optional YAML file overridden by RAGD_*
// environment variables. See internal/config for details.
//
// Usage:
//
//	# Start with defaults (MongoDB on storage.uri, port 3000)
//	RAGD_STORAGE_URI=mongodb://localhost:27017 RAGD_EMBEDDINGS_API_KEY=... RAGD_LLM_API_KEY=... ragd
//
//	# Start with a config file
//	ragd -config /etc/ragd/config.yaml
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/doxsylabs/ragd/internal/config"
	"github.com/doxsylabs/ragd/internal/embeddings"
	"github.com/doxsylabs/ragd/internal/guardrail"
	ragdhttp "github.com/doxsylabs/ragd/internal/http"
	"github.com/doxsylabs/ragd/internal/llm"
	"github.com/doxsylabs/ragd/internal/logging"
	"github.com/doxsylabs/ragd/internal/retriever"
	"github.com/doxsylabs/ragd/internal/vectorstore"
)

// Version information (set via ldflags during build)
var (
	version   = "dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	flag.Parse()
	args := flag.Args()

	if len(args) > 0 {
		switch args[0] {
		case "version":
			printVersion()
			os.Exit(0)
		default:
			fmt.Fprintf(os.Stderr, "Unknown command: %s\n", args[0])
			fmt.Fprintf(os.Stderr, "\nUsage:\n")
			fmt.Fprintf(os.Stderr, "  ragd           Start the ragd daemon\n")
			fmt.Fprintf(os.Stderr, "  ragd version   Show version information\n")
			os.Exit(1)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		log.Printf("Received signal %v, shutting down gracefully...", sig)
		cancel()
	}()

	if err := run(ctx, *configPath); err != nil {
		log.Fatalf("Server error: %v", err)
	}

	log.Println("Server shutdown complete")
}

func printVersion() {
	fmt.Printf("ragd by Doxsy Labs\n")
	fmt.Printf("Version:    %s\n", version)
	fmt.Printf("Commit:     %s\n", gitCommit)
	fmt.Printf("Build Date: %s\n", buildDate)
}

// run starts the daemon and blocks until ctx is cancelled.
//
// Initialization order: configuration, logger, vector store, embedding
// client, guardrail, retriever, completion client, HTTP server. Shutdown
// closes the store after the server has drained.
func run(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := logging.New(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	if err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	logger.Info("starting ragd",
		zap.String("version", version),
		zap.Int("port", cfg.Server.Port),
		zap.String("storage_backend", cfg.Storage.Backend))

	deps, err := initDependencies(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("initializing dependencies: %w", err)
	}
	defer deps.Close(logger)

	ret, err := retriever.New(deps.store, deps.embedder, deps.guard, retriever.Config{
		Threshold: cfg.Retrieval.Threshold,
		TopK:      cfg.Retrieval.TopK,
	}, logger)
	if err != nil {
		return fmt.Errorf("creating retriever: %w", err)
	}

	srv, err := ragdhttp.NewServer(ret, deps.completer, ragdhttp.Config{
		Port:            cfg.Server.Port,
		ShutdownTimeout: time.Duration(cfg.Server.ShutdownTimeout),
	}, logger)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	return srv.Start(ctx)
}

// dependencies holds the external clients owned by the daemon.
type dependencies struct {
	store     vectorstore.Store
	embedder  embeddings.Embedder
	guard     *guardrail.Filter
	completer *llm.Client
}

// initDependencies connects the store and builds the API clients.
func initDependencies(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*dependencies, error) {
	store, err := vectorstore.New(ctx, vectorstore.Config{
		Backend: cfg.Storage.Backend,
		Mongo: vectorstore.MongoConfig{
			URI:        cfg.Storage.URI.Value(),
			Database:   cfg.Storage.Database,
			Collection: cfg.Storage.Collection,
		},
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("creating vector store: %w", err)
	}

	embedder, err := embeddings.NewOpenAI(embeddings.Config{
		BaseURL:           cfg.Embeddings.BaseURL,
		Model:             cfg.Embeddings.Model,
		APIKey:            cfg.Embeddings.APIKey.Value(),
		Timeout:           time.Duration(cfg.Embeddings.Timeout),
		RequestsPerSecond: cfg.Embeddings.RequestsPerSecond,
		MaxRetries:        cfg.Embeddings.MaxRetries,
	}, logger)
	if err != nil {
		store.Close(ctx)
		return nil, fmt.Errorf("creating embedder: %w", err)
	}

	completer, err := llm.New(llm.Config{
		BaseURL: cfg.LLM.BaseURL,
		Model:   cfg.LLM.Model,
		APIKey:  cfg.LLM.APIKey.Value(),
		Timeout: time.Duration(cfg.LLM.Timeout),
	}, logger)
	if err != nil {
		store.Close(ctx)
		return nil, fmt.Errorf("creating completion client: %w", err)
	}

	var guard *guardrail.Filter
	if !cfg.Guardrail.Disabled {
		terms := cfg.Guardrail.Denylist
		if len(terms) == 0 {
			terms = guardrail.DefaultDenylist()
		}
		guard = guardrail.New(terms)
	}

	return &dependencies{
		store:     store,
		embedder:  embedder,
		guard:     guard,
		completer: completer,
	}, nil
}

// Close releases the store connection. Called after the server has drained.
func (d *dependencies) Close(logger *zap.Logger) {
	closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := d.store.Close(closeCtx); err != nil {
		logger.Warn("closing vector store", zap.Error(err))
	}
}
