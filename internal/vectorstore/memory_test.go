package vectorstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_InsertAndScan(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	id1, err := store.Insert(ctx, Record{Chunk: "first chunk", Embedding: []float32{1, 0}})
	require.NoError(t, err)
	require.NotEmpty(t, id1)

	id2, err := store.Insert(ctx, Record{Chunk: "second chunk", Embedding: []float32{0, 1}})
	require.NoError(t, err)
	assert.NotEqual(t, id1, id2)

	records, err := store.ScanAll(ctx)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "first chunk", records[0].Chunk)
	assert.Equal(t, []float32{1, 0}, records[0].Embedding)
	assert.Equal(t, "second chunk", records[1].Chunk)

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestMemoryStore_ValidatesRecords(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	_, err := store.Insert(ctx, Record{Chunk: "", Embedding: []float32{1}})
	assert.ErrorIs(t, err, ErrInvalidRecord)

	_, err = store.Insert(ctx, Record{Chunk: "text", Embedding: nil})
	assert.ErrorIs(t, err, ErrInvalidRecord)

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestMemoryStore_DimensionInvariant(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	_, err := store.Insert(ctx, Record{Chunk: "establishes dimension", Embedding: []float32{1, 2, 3}})
	require.NoError(t, err)

	_, err = store.Insert(ctx, Record{Chunk: "wrong dimension", Embedding: []float32{1, 2}})
	assert.ErrorIs(t, err, ErrDimensionMismatch)

	// The store is unchanged after the rejected insert.
	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestMemoryStore_ScanReturnsCopies(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	_, err := store.Insert(ctx, Record{Chunk: "chunk", Embedding: []float32{1, 2}})
	require.NoError(t, err)

	records, err := store.ScanAll(ctx)
	require.NoError(t, err)
	records[0].Embedding[0] = 99

	again, err := store.ScanAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 2}, again[0].Embedding)
}

func TestMemoryStore_InsertCopiesEmbedding(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	embedding := []float32{1, 2}
	_, err := store.Insert(ctx, Record{Chunk: "chunk", Embedding: embedding})
	require.NoError(t, err)

	embedding[0] = 99

	records, err := store.ScanAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, float32(1), records[0].Embedding[0])
}

func TestMemoryStore_Closed(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Close(ctx))

	_, err := store.Insert(ctx, Record{Chunk: "chunk", Embedding: []float32{1}})
	assert.ErrorIs(t, err, ErrStorageUnavailable)

	_, err = store.ScanAll(ctx)
	assert.ErrorIs(t, err, ErrStorageUnavailable)

	_, err = store.Count(ctx)
	assert.ErrorIs(t, err, ErrStorageUnavailable)
}

func TestMemoryStore_EmptyScan(t *testing.T) {
	records, err := NewMemoryStore().ScanAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, records)
}
