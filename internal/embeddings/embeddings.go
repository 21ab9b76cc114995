// Package embeddings provides embedding generation for chunks and queries.
//
// The embedding capability is an external, fallible, rate-limited remote
// service. This package wraps the OpenAI-compatible embeddings API behind a
// small interface so the retriever and ingestion pipeline can be tested
// with deterministic fakes.
package embeddings

import (
	"context"
	"errors"
)

var (
	// ErrEmptyInput indicates empty or nil input texts.
	ErrEmptyInput = errors.New("empty or nil input texts")

	// ErrInvalidConfig indicates invalid configuration.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrEmbeddingFailed indicates the remote embedding call failed.
	ErrEmbeddingFailed = errors.New("failed to generate embeddings")
)

// Embedder generates vector embeddings from text.
//
// All vectors produced by one Embedder instance have the same fixed
// dimensionality, determined by the model.
type Embedder interface {
	// EmbedDocuments generates embeddings for multiple texts.
	// Returns one embedding per input text, in input order.
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)

	// EmbedQuery generates an embedding for a single query.
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}
