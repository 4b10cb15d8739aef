// Package scoring implements the candidate dissimilarity metrics: cosine
// distance over pooled embeddings and RMSD after optimal rigid superposition.
// All functions are pure; errors wrap domain.ErrInvalidInput.
package scoring

import (
	"fmt"
	"math"

	"github.com/paulogallotti/sample-protein-engineering-with-genai-on-aws/internal/domain"
)

// Pooling selects how a per-residue embedding is reduced to one fixed-length
// vector before comparison.
type Pooling string

const (
	// PoolingMean averages across sequence positions, excluding the first and
	// last positions (boundary tokens). This is what makes sequences of
	// different lengths comparable.
	PoolingMean Pooling = "mean"
)

// MeanPool reduces a per-residue embedding along the sequence axis, excluding
// the boundary tokens at positions 0 and L-1.
func MeanPool(e domain.ResidueEmbedding) ([]float64, error) {
	if e.Len() < 3 {
		return nil, fmt.Errorf(
			"%w: mean pooling needs at least 3 positions (2 boundary tokens + 1 residue), got %d",
			domain.ErrInvalidInput, e.Len(),
		)
	}
	pooled := make([]float64, e.Dim())
	for i := 1; i < e.Len()-1; i++ {
		for j, v := range e.Row(i) {
			pooled[j] += v
		}
	}
	n := float64(e.Len() - 2)
	for j := range pooled {
		pooled[j] /= n
	}
	return pooled, nil
}

// CosineDistance returns 1 minus the cosine similarity of two vectors.
// Range [0, 2]: 0 identical direction, 1 orthogonal, 2 opposite.
func CosineDistance(a, b []float64) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf(
			"%w: cosine distance dimension mismatch: %d vs %d",
			domain.ErrInvalidInput, len(a), len(b),
		)
	}
	if len(a) == 0 {
		return 0, fmt.Errorf("%w: cosine distance on empty vectors", domain.ErrInvalidInput)
	}

	var dot, na2, nb2 float64
	for i := range a {
		dot += a[i] * b[i]
		na2 += a[i] * a[i]
		nb2 += b[i] * b[i]
	}
	if na2 == 0 || nb2 == 0 {
		return 0, fmt.Errorf("%w: cosine distance with zero-magnitude vector", domain.ErrInvalidInput)
	}

	sim := dot / (math.Sqrt(na2) * math.Sqrt(nb2))
	// Floating-point noise can push |sim| slightly past 1.
	sim = math.Max(-1, math.Min(1, sim))
	return 1 - sim, nil
}

// EmbeddingDistance pools candidate and reference per-residue embeddings and
// returns the cosine distance between the pooled vectors. The two sequence
// lengths may differ arbitrarily; the hidden dimensions must match.
func EmbeddingDistance(candidate, reference domain.ResidueEmbedding, pooling Pooling) (float64, error) {
	if pooling != PoolingMean {
		return 0, fmt.Errorf("%w: unsupported pooling %q", domain.ErrInvalidInput, pooling)
	}

	cv, err := MeanPool(candidate)
	if err != nil {
		return 0, fmt.Errorf("pool candidate: %w", err)
	}
	rv, err := MeanPool(reference)
	if err != nil {
		return 0, fmt.Errorf("pool reference: %w", err)
	}

	dist, err := CosineDistance(cv, rv)
	if err != nil {
		return 0, err
	}
	return dist, nil
}
