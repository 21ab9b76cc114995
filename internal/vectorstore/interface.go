// Package vectorstore defines the interface for vector storage operations.
//
// A store is an append-only collection of (chunk, embedding) records. It
// supports exactly two data operations: atomic per-record insert and full
// scan. Ranking and filtering live in the retriever, not here, so a store
// backend can be swapped without touching retrieval semantics.
package vectorstore

import (
	"context"
	"errors"
)

// Sentinel errors for vector store operations.
var (
	// ErrStorageUnavailable is returned when the backing persistence
	// cannot be reached for an insert or scan.
	ErrStorageUnavailable = errors.New("vector storage unavailable")

	// ErrDimensionMismatch is returned when an embedding's length does not
	// match the store's established dimensionality. Mixed dimensions are an
	// invariant violation, never silently scored.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrInvalidRecord indicates a record with an empty chunk or embedding.
	ErrInvalidRecord = errors.New("invalid record")

	// ErrInvalidConfig indicates invalid store configuration.
	ErrInvalidConfig = errors.New("invalid configuration")
)

// Record is a (chunk, embedding) pair to be inserted. The two fields are
// written atomically as one record; a failed insert leaves neither behind.
type Record struct {
	// Chunk is the retrievable text.
	Chunk string

	// Embedding is the chunk's vector representation.
	Embedding []float32
}

// StoredRecord is a Record as read back from the store.
type StoredRecord struct {
	// ID is the backend-assigned record identifier.
	ID string

	// Chunk is the retrievable text.
	Chunk string

	// Embedding is the chunk's vector representation.
	Embedding []float32
}

// Store is the interface for vector storage backends.
//
// Implementations must be safe for concurrent readers during concurrent
// writers: a scan racing an insert may or may not observe the newest
// record, but must never observe a torn one.
type Store interface {
	// Insert appends one record and returns its identifier.
	// The insert is atomic per record; there is no cross-record transaction.
	Insert(ctx context.Context, rec Record) (string, error)

	// ScanAll materializes every stored record. Order is not significant;
	// the retriever re-sorts by score.
	ScanAll(ctx context.Context) ([]StoredRecord, error)

	// Count returns the number of stored records.
	Count(ctx context.Context) (int64, error)

	// Close releases the backend connection.
	Close(ctx context.Context) error
}

// validateRecord checks the insert preconditions shared by all backends.
func validateRecord(rec Record) error {
	if rec.Chunk == "" {
		return errors.Join(ErrInvalidRecord, errors.New("empty chunk"))
	}
	if len(rec.Embedding) == 0 {
		return errors.Join(ErrInvalidRecord, errors.New("empty embedding"))
	}
	return nil
}
