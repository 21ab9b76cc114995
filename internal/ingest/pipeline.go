// Package ingest implements the offline ingestion pipeline.
//
// Ingestion chunks a document, embeds each chunk, and inserts each
// (chunk, embedding) record into the vector store. Every insert is atomic
// and independent: a failure partway through a batch leaves all prior
// inserts intact and rolls nothing back. Re-running ingestion appends; the
// store is append-only.
package ingest

import (
	"context"
	"fmt"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/doxsylabs/ragd/internal/chunker"
	"github.com/doxsylabs/ragd/internal/embeddings"
	"github.com/doxsylabs/ragd/internal/vectorstore"
)

// Config holds ingestion configuration.
type Config struct {
	// MinChunkLength is the minimum chunk length in characters.
	// Default: chunker.DefaultMinLength
	MinChunkLength int

	// Workers bounds ingestion concurrency. 1 means strictly sequential:
	// no chunk is embedded before the previous chunk's insert completes,
	// which keeps the load on the embedding service minimal.
	// Default: 1
	Workers int
}

// ApplyDefaults sets default values for unset fields.
func (c *Config) ApplyDefaults() {
	if c.MinChunkLength <= 0 {
		c.MinChunkLength = chunker.DefaultMinLength
	}
	if c.Workers <= 0 {
		c.Workers = 1
	}
}

// Report summarizes one ingestion run.
type Report struct {
	// Inserted is the number of records written to the store.
	Inserted int

	// Skipped lists chunk candidates dropped for being below the minimum
	// length.
	Skipped []string
}

// Pipeline runs chunking, embedding, and storage for one document at a time.
type Pipeline struct {
	splitter *chunker.Splitter
	embedder embeddings.Embedder
	store    vectorstore.Store
	workers  int
	logger   *zap.Logger
}

// New creates an ingestion Pipeline.
func New(cfg Config, embedder embeddings.Embedder, store vectorstore.Store, logger *zap.Logger) (*Pipeline, error) {
	if embedder == nil {
		return nil, fmt.Errorf("embedder is required")
	}
	if store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	cfg.ApplyDefaults()

	return &Pipeline{
		splitter: chunker.New(cfg.MinChunkLength),
		embedder: embedder,
		store:    store,
		workers:  cfg.Workers,
		logger:   logger,
	}, nil
}

// Run ingests one document's extracted text.
//
// On error the returned Report still reflects the inserts that completed
// before the failure; those records remain in the store.
func (p *Pipeline) Run(ctx context.Context, text string) (Report, error) {
	split := p.splitter.Split(text)
	report := Report{Skipped: split.Skipped}

	p.logger.Info("ingestion started",
		zap.Int("chunks", len(split.Chunks)),
		zap.Int("skipped", len(split.Skipped)),
		zap.Int("workers", p.workers))

	if len(split.Chunks) == 0 {
		return report, nil
	}

	var err error
	if p.workers == 1 {
		report.Inserted, err = p.runSequential(ctx, split.Chunks)
	} else {
		report.Inserted, err = p.runBounded(ctx, split.Chunks)
	}

	if err != nil {
		p.logger.Error("ingestion failed",
			zap.Int("inserted", report.Inserted),
			zap.Error(err))
		return report, err
	}

	p.logger.Info("ingestion complete", zap.Int("inserted", report.Inserted))
	return report, nil
}

// runSequential embeds and inserts one chunk at a time.
func (p *Pipeline) runSequential(ctx context.Context, chunks []chunker.Chunk) (int, error) {
	inserted := 0
	for _, c := range chunks {
		if err := p.ingestOne(ctx, c); err != nil {
			return inserted, err
		}
		inserted++
	}
	return inserted, nil
}

// runBounded embeds and inserts chunks with at most p.workers in flight.
// Per-chunk atomicity is unchanged; only the interleaving differs.
func (p *Pipeline) runBounded(ctx context.Context, chunks []chunker.Chunk) (int, error) {
	var inserted atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)

	for _, c := range chunks {
		g.Go(func() error {
			if err := p.ingestOne(gctx, c); err != nil {
				return err
			}
			inserted.Add(1)
			return nil
		})
	}

	err := g.Wait()
	return int(inserted.Load()), err
}

// ingestOne embeds one chunk and writes its record.
func (p *Pipeline) ingestOne(ctx context.Context, c chunker.Chunk) error {
	vectors, err := p.embedder.EmbedDocuments(ctx, []string{c.Text})
	if err != nil {
		return fmt.Errorf("embedding chunk %d: %w", c.Ordinal, err)
	}
	if len(vectors) == 0 {
		return fmt.Errorf("embedding chunk %d: no vector returned", c.Ordinal)
	}

	id, err := p.store.Insert(ctx, vectorstore.Record{
		Chunk:     c.Text,
		Embedding: vectors[0],
	})
	if err != nil {
		return fmt.Errorf("inserting chunk %d: %w", c.Ordinal, err)
	}

	p.logger.Debug("chunk inserted",
		zap.String("id", id),
		zap.Int("ordinal", c.Ordinal),
		zap.Int("length", len(c.Text)))
	return nil
}
