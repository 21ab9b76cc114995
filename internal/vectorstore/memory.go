package vectorstore

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore is an in-process Store implementation.
//
// It exists for tests and for running the daemon without external
// infrastructure. Records live in a slice guarded by an RWMutex, so scans
// never observe a half-written record.
type MemoryStore struct {
	mu      sync.RWMutex
	records []StoredRecord
	dim     int
	closed  bool
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Insert appends one record. The first insert establishes the store's
// dimensionality; later inserts with a different dimension are rejected.
func (s *MemoryStore) Insert(_ context.Context, rec Record) (string, error) {
	if err := validateRecord(rec); err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return "", fmt.Errorf("%w: store closed", ErrStorageUnavailable)
	}
	if s.dim == 0 {
		s.dim = len(rec.Embedding)
	} else if len(rec.Embedding) != s.dim {
		return "", fmt.Errorf("%w: got %d, store holds %d", ErrDimensionMismatch, len(rec.Embedding), s.dim)
	}

	embedding := make([]float32, len(rec.Embedding))
	copy(embedding, rec.Embedding)

	id := uuid.NewString()
	s.records = append(s.records, StoredRecord{
		ID:        id,
		Chunk:     rec.Chunk,
		Embedding: embedding,
	})
	return id, nil
}

// ScanAll returns a snapshot of every stored record. Embeddings are copied
// so callers cannot mutate stored state.
func (s *MemoryStore) ScanAll(_ context.Context) ([]StoredRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, fmt.Errorf("%w: store closed", ErrStorageUnavailable)
	}

	out := make([]StoredRecord, len(s.records))
	for i, rec := range s.records {
		embedding := make([]float32, len(rec.Embedding))
		copy(embedding, rec.Embedding)
		out[i] = StoredRecord{
			ID:        rec.ID,
			Chunk:     rec.Chunk,
			Embedding: embedding,
		}
	}
	return out, nil
}

// Count returns the number of stored records.
func (s *MemoryStore) Count(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return 0, fmt.Errorf("%w: store closed", ErrStorageUnavailable)
	}
	return int64(len(s.records)), nil
}

// Close marks the store closed. Further operations fail with
// ErrStorageUnavailable.
func (s *MemoryStore) Close(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
