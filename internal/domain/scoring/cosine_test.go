package scoring

import (
	"errors"
	"math"
	"testing"

	"github.com/paulogallotti/sample-protein-engineering-with-genai-on-aws/internal/domain"
)

const eps = 1e-9

func makeEmbedding(t *testing.T, rows [][]float64) domain.ResidueEmbedding {
	t.Helper()
	e, err := domain.NewResidueEmbedding(rows)
	if err != nil {
		t.Fatalf("NewResidueEmbedding: %v", err)
	}
	return e
}

// constantEmbedding builds an L x dim embedding where every position is the
// same vector.
func constantEmbedding(t *testing.T, l, dim int, fill float64) domain.ResidueEmbedding {
	t.Helper()
	rows := make([][]float64, l)
	for i := range rows {
		row := make([]float64, dim)
		for j := range row {
			row[j] = fill
		}
		rows[i] = row
	}
	return makeEmbedding(t, rows)
}

func TestCosineDistance_SelfIsZero(t *testing.T) {
	v := []float64{0.3, -1.2, 4.5, 0.01}
	d, err := CosineDistance(v, v)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(d) > eps {
		t.Errorf("distance(v, v) = %g, want 0", d)
	}
}

func TestCosineDistance_Symmetric(t *testing.T) {
	a := []float64{1, 2, 3}
	b := []float64{-0.5, 4, 0.25}
	d1, err := CosineDistance(a, b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	d2, err := CosineDistance(b, a)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(d1-d2) > eps {
		t.Errorf("distance not symmetric: %g vs %g", d1, d2)
	}
}

func TestCosineDistance_Bounds(t *testing.T) {
	orthA := []float64{1, 0}
	orthB := []float64{0, 1}
	d, err := CosineDistance(orthA, orthB)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(d-1) > eps {
		t.Errorf("orthogonal vectors: distance = %g, want 1", d)
	}

	opp := []float64{-1, 0}
	d, err = CosineDistance(orthA, opp)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(d-2) > eps {
		t.Errorf("opposite vectors: distance = %g, want 2", d)
	}
	if d < 0 || d > 2 {
		t.Errorf("distance %g out of [0, 2]", d)
	}
}

func TestCosineDistance_ZeroMagnitude(t *testing.T) {
	_, err := CosineDistance([]float64{0, 0, 0}, []float64{1, 2, 3})
	if err == nil {
		t.Fatal("expected error for zero-magnitude vector")
	}
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestCosineDistance_DimensionMismatch(t *testing.T) {
	_, err := CosineDistance([]float64{1, 2}, []float64{1, 2, 3})
	if err == nil {
		t.Fatal("expected error for dimension mismatch")
	}
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestMeanPool_ExcludesBoundaryTokens(t *testing.T) {
	// Boundary rows carry extreme values that must not leak into the pool.
	e := makeEmbedding(t, [][]float64{
		{1000, -1000},
		{1, 2},
		{3, 4},
		{-1000, 1000},
	})
	pooled, err := MeanPool(e)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []float64{2, 3}
	for i := range want {
		if math.Abs(pooled[i]-want[i]) > eps {
			t.Errorf("pooled[%d] = %g, want %g", i, pooled[i], want[i])
		}
	}
}

func TestMeanPool_TooShort(t *testing.T) {
	e := makeEmbedding(t, [][]float64{{1, 2}, {3, 4}})
	_, err := MeanPool(e)
	if err == nil {
		t.Fatal("expected error for embedding with only boundary tokens")
	}
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestEmbeddingDistance_DifferentLengths(t *testing.T) {
	// Reference shaped (1, 5, 4), candidate shaped (1, 7, 4): pooling makes
	// them comparable regardless of sequence length.
	ref := constantEmbedding(t, 5, 4, 1.0)
	cand := constantEmbedding(t, 7, 4, 2.0)

	d, err := EmbeddingDistance(cand, ref, PoolingMean)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d < 0 || d > 2 {
		t.Errorf("distance %g out of [0, 2]", d)
	}
	// Same direction, different magnitude: cosine distance 0.
	if math.Abs(d) > eps {
		t.Errorf("parallel pooled vectors: distance = %g, want 0", d)
	}
}

func TestEmbeddingDistance_UnsupportedPooling(t *testing.T) {
	ref := constantEmbedding(t, 5, 4, 1.0)
	_, err := EmbeddingDistance(ref, ref, Pooling("max"))
	if err == nil {
		t.Fatal("expected error for unsupported pooling")
	}
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestEmbeddingDistance_ZeroEmbedding(t *testing.T) {
	ref := constantEmbedding(t, 5, 4, 1.0)
	zero := constantEmbedding(t, 5, 4, 0.0)
	_, err := EmbeddingDistance(zero, ref, PoolingMean)
	if err == nil {
		t.Fatal("expected error for zero-magnitude pooled vector")
	}
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}
