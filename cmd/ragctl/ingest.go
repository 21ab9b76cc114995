package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/ledongthuc/pdf"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/doxsylabs/ragd/internal/config"
	"github.com/doxsylabs/ragd/internal/embeddings"
	"github.com/doxsylabs/ragd/internal/ingest"
	"github.com/doxsylabs/ragd/internal/logging"
	"github.com/doxsylabs/ragd/internal/vectorstore"
)

var ingestWorkers int

// ingestCmd ingests a document into the vector store
var ingestCmd = &cobra.Command{
	Use:   "ingest <file>",
	Short: "Ingest a document into the vector store",
	Long: `Ingest a document: split it into chunks, embed each chunk, and store
the records. PDF files are converted to plain text first; everything else is
read as-is. Use - to read plain text from stdin.

Ingestion talks to storage and the embedding API directly, not through the
ragd server, so it needs the same configuration the server runs with.

Examples:
  # Ingest a PDF
  RAGD_STORAGE_URI=mongodb://localhost:27017 RAGD_EMBEDDINGS_API_KEY=... ragctl ingest faq.pdf

  # Ingest plain text from stdin
  cat notes.txt | ragctl ingest -

  # Ingest with a config file and 4 concurrent embeddings
  ragctl ingest --config ragd.yaml --workers 4 faq.pdf`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().IntVar(&ingestWorkers, "workers", 0, "concurrent embedding workers (0 uses the configured value)")
}

// runIngest handles the ingest command
func runIngest(cmd *cobra.Command, args []string) error {
	text, err := extractText(args[0])
	if err != nil {
		return err
	}
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("no text to ingest")
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if ingestWorkers > 0 {
		cfg.Ingest.Workers = ingestWorkers
	}

	logger, err := logging.New(logging.Config{
		Level:  cfg.Logging.Level,
		Format: "console",
	})
	if err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store, err := vectorstore.New(ctx, vectorstore.Config{
		Backend: cfg.Storage.Backend,
		Mongo: vectorstore.MongoConfig{
			URI:        cfg.Storage.URI.Value(),
			Database:   cfg.Storage.Database,
			Collection: cfg.Storage.Collection,
		},
	}, logger)
	if err != nil {
		return fmt.Errorf("creating vector store: %w", err)
	}
	defer func() {
		closeCtx, closeCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer closeCancel()
		if err := store.Close(closeCtx); err != nil {
			logger.Warn("closing vector store", zap.Error(err))
		}
	}()

	embedder, err := embeddings.NewOpenAI(embeddings.Config{
		BaseURL:           cfg.Embeddings.BaseURL,
		Model:             cfg.Embeddings.Model,
		APIKey:            cfg.Embeddings.APIKey.Value(),
		Timeout:           time.Duration(cfg.Embeddings.Timeout),
		RequestsPerSecond: cfg.Embeddings.RequestsPerSecond,
		MaxRetries:        cfg.Embeddings.MaxRetries,
	}, logger)
	if err != nil {
		return fmt.Errorf("creating embedder: %w", err)
	}

	pipeline, err := ingest.New(ingest.Config{
		MinChunkLength: cfg.Ingest.MinChunkLength,
		Workers:        cfg.Ingest.Workers,
	}, embedder, store, logger)
	if err != nil {
		return fmt.Errorf("creating pipeline: %w", err)
	}

	report, err := pipeline.Run(ctx, text)
	if err != nil {
		return fmt.Errorf("ingestion failed after %d insert(s): %w", report.Inserted, err)
	}

	fmt.Printf("Ingested %d chunk(s)", report.Inserted)
	if len(report.Skipped) > 0 {
		fmt.Printf(", skipped %d below minimum length", len(report.Skipped))
	}
	fmt.Println()

	if total, err := store.Count(ctx); err == nil {
		fmt.Printf("Store now holds %d record(s)\n", total)
	}
	return nil
}

// extractText reads the document and returns its plain text. PDFs go through
// text extraction; - reads plain text from stdin.
func extractText(path string) (string, error) {
	if path == "-" {
		content, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read from stdin: %w", err)
		}
		return string(content), nil
	}

	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		return extractPDF(path)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read file %s: %w", path, err)
	}
	return string(content), nil
}

// extractPDF extracts the plain text of every page.
func extractPDF(path string) (string, error) {
	f, rdr, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open pdf %s: %w", path, err)
	}
	defer f.Close()

	b, err := rdr.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("failed to extract pdf text: %w", err)
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, b); err != nil {
		return "", fmt.Errorf("failed to read pdf text: %w", err)
	}
	return buf.String(), nil
}
