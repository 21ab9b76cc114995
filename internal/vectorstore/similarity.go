package vectorstore

import (
	"errors"
	"math"
)

// ErrDegenerateVector is returned when either input to CosineSimilarity has
// zero norm. Cosine similarity is mathematically undefined for such vectors;
// surfacing the condition here keeps NaN out of ranking entirely. Callers
// decide the fallback (the retriever scores degenerate records as 0, which
// always fails the strict relevance threshold).
var ErrDegenerateVector = errors.New("degenerate zero-norm vector")

// CosineSimilarity computes the cosine of the angle between two vectors
// of equal length.
//
// Formula: cos(θ) = (A · B) / (||A|| * ||B||)
// The result is in [-1, 1] where 1 = identical direction, 0 = orthogonal,
// -1 = opposite.
//
// Returns ErrDimensionMismatch for vectors of unequal length and
// ErrDegenerateVector when either norm is zero. O(D) per call.
func CosineSimilarity(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, ErrDimensionMismatch
	}
	if len(a) == 0 {
		return 0, ErrDegenerateVector
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0, ErrDegenerateVector
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB)), nil
}
