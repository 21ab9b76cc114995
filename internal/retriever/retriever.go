// Package retriever implements similarity-based context retrieval.
//
// A retrieval embeds the query, scores it against every stored record with
// cosine similarity, and returns the top-K chunks above a strict relevance
// threshold. The scan is a deliberate brute-force pass over the whole
// corpus: at the corpus sizes this service targets the linear cost is
// negligible, and exact scoring avoids the recall gap of an approximate
// index. An index can replace the scan later without changing this
// package's contract.
package retriever

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/doxsylabs/ragd/internal/embeddings"
	"github.com/doxsylabs/ragd/internal/guardrail"
	"github.com/doxsylabs/ragd/internal/vectorstore"
)

// ErrEmptyQuery is returned for an empty or missing query.
var ErrEmptyQuery = errors.New("empty query")

// Defaults for retrieval configuration.
const (
	// DefaultThreshold is the minimum cosine similarity for a chunk to be
	// considered relevant. The comparison is strict: a score exactly equal
	// to the threshold is excluded.
	DefaultThreshold = 0.75

	// DefaultTopK is the maximum number of chunks returned per query.
	DefaultTopK = 3
)

// Config holds retrieval configuration.
type Config struct {
	// Threshold is the strict lower bound on relevance scores.
	// Default: 0.75
	Threshold float64

	// TopK is the maximum number of chunks to return.
	// Default: 3
	TopK int
}

// ApplyDefaults sets default values for unset fields.
func (c *Config) ApplyDefaults() {
	if c.Threshold == 0 {
		c.Threshold = DefaultThreshold
	}
	if c.TopK == 0 {
		c.TopK = DefaultTopK
	}
}

// Validate validates the configuration.
func (c Config) Validate() error {
	if c.TopK <= 0 {
		return fmt.Errorf("top_k must be positive, got %d", c.TopK)
	}
	if c.Threshold < -1 || c.Threshold > 1 {
		return fmt.Errorf("threshold must be in [-1, 1], got %v", c.Threshold)
	}
	return nil
}

// ScoredChunk pairs a chunk text with its relevance score for one query.
// It exists only for the duration of a retrieval call.
type ScoredChunk struct {
	Chunk string
	Score float64
}

// Result is the outcome of one retrieval.
//
// Blocked and NoMatch are alternate success paths, not errors: the caller
// answers them with fixed messages instead of fabricating content. A
// storage or embedding failure is returned as an error and never collapsed
// into NoMatch, so an outage cannot masquerade as an empty corpus.
type Result struct {
	// Chunks are the selected chunk texts, highest score first. At most
	// TopK entries; every entry scored strictly above the threshold.
	Chunks []string

	// Blocked is true when the guardrail rejected the query before any
	// embedding or storage access.
	Blocked bool

	// NoMatch is true when no stored chunk cleared the threshold.
	NoMatch bool
}

// Retriever orchestrates guardrail, embedding, scan, scoring, and selection.
type Retriever struct {
	store    vectorstore.Store
	embedder embeddings.Embedder
	guard    *guardrail.Filter
	cfg      Config
	logger   *zap.Logger
}

// New creates a Retriever. The guard may be nil to disable the denylist.
func New(store vectorstore.Store, embedder embeddings.Embedder, guard *guardrail.Filter, cfg Config, logger *zap.Logger) (*Retriever, error) {
	if store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if embedder == nil {
		return nil, fmt.Errorf("embedder is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &Retriever{
		store:    store,
		embedder: embedder,
		guard:    guard,
		cfg:      cfg,
		logger:   logger,
	}, nil
}

// Retrieve returns the most relevant chunks for the query.
//
// Retrieval is idempotent for identical inputs against an unchanged corpus:
// scoring is deterministic and ties keep their scan order.
func (r *Retriever) Retrieve(ctx context.Context, query string) (Result, error) {
	if query == "" {
		return Result{}, ErrEmptyQuery
	}

	// The guardrail runs before anything that costs money or touches
	// storage. A blocked query performs zero embedding calls and zero scans.
	if r.guard != nil && r.guard.Blocked(query) {
		r.logger.Info("query blocked by guardrail")
		return Result{Blocked: true}, nil
	}

	queryEmbedding, err := r.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return Result{}, fmt.Errorf("embedding query: %w", err)
	}

	records, err := r.store.ScanAll(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("scanning store: %w", err)
	}

	scored, err := r.scoreRecords(queryEmbedding, records)
	if err != nil {
		return Result{}, err
	}

	// Stable sort keeps scan order for equal scores, making selection
	// deterministic and testable.
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	chunks := make([]string, 0, r.cfg.TopK)
	for _, sc := range scored {
		if sc.Score <= r.cfg.Threshold {
			break
		}
		chunks = append(chunks, sc.Chunk)
		if len(chunks) == r.cfg.TopK {
			break
		}
	}

	if len(chunks) == 0 {
		r.logger.Info("no relevant chunks found",
			zap.Int("corpus_size", len(records)),
			zap.Float64("threshold", r.cfg.Threshold))
		return Result{NoMatch: true}, nil
	}

	r.logger.Debug("chunks selected",
		zap.Int("selected", len(chunks)),
		zap.Int("corpus_size", len(records)))

	return Result{Chunks: chunks}, nil
}

// scoreRecords computes one score per record.
//
// A degenerate (zero-norm) record scores 0, which always fails the strict
// positive threshold; a dimension mismatch is a configuration fault and
// aborts the retrieval.
func (r *Retriever) scoreRecords(query []float32, records []vectorstore.StoredRecord) ([]ScoredChunk, error) {
	scored := make([]ScoredChunk, 0, len(records))
	for _, rec := range records {
		score, err := vectorstore.CosineSimilarity(query, rec.Embedding)
		switch {
		case errors.Is(err, vectorstore.ErrDegenerateVector):
			score = 0
		case errors.Is(err, vectorstore.ErrDimensionMismatch):
			return nil, fmt.Errorf("record %s: %w", rec.ID, err)
		case err != nil:
			return nil, fmt.Errorf("scoring record %s: %w", rec.ID, err)
		}
		scored = append(scored, ScoredChunk{Chunk: rec.Chunk, Score: score})
	}
	return scored, nil
}
