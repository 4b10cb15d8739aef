package domain

import (
	"context"
	"fmt"
)

// ResidueEmbedding is the per-residue representation of a single sequence as
// produced by a protein language model: L rows (sequence positions, including
// the boundary tokens at either end) by D columns (hidden dimension).
type ResidueEmbedding struct {
	rows [][]float64
}

// NewResidueEmbedding validates and wraps a rectangular L x D matrix.
func NewResidueEmbedding(rows [][]float64) (ResidueEmbedding, error) {
	if len(rows) == 0 {
		return ResidueEmbedding{}, fmt.Errorf("%w: embedding has no positions", ErrInvalidInput)
	}
	dim := len(rows[0])
	if dim == 0 {
		return ResidueEmbedding{}, fmt.Errorf("%w: embedding has zero hidden dimension", ErrInvalidInput)
	}
	for i, row := range rows {
		if len(row) != dim {
			return ResidueEmbedding{}, fmt.Errorf(
				"%w: ragged embedding: row %d has %d values, want %d",
				ErrInvalidInput, i, len(row), dim,
			)
		}
	}
	return ResidueEmbedding{rows: rows}, nil
}

// Len returns the number of sequence positions L.
func (e ResidueEmbedding) Len() int { return len(e.rows) }

// Dim returns the hidden dimension D, or 0 for a zero value.
func (e ResidueEmbedding) Dim() int {
	if len(e.rows) == 0 {
		return 0
	}
	return len(e.rows[0])
}

// Row returns the embedding vector at position i. The returned slice must not
// be modified.
func (e ResidueEmbedding) Row(i int) []float64 { return e.rows[i] }

// ResidueEmbedder produces per-residue embeddings from a remote inference
// endpoint.
type ResidueEmbedder interface {
	EmbedResidues(ctx context.Context, sequence string) (ResidueEmbedding, error)
}

// VectorProvider produces one fixed-length vector per sequence, either by
// pooling a per-residue embedding or from a provider that pools server-side.
type VectorProvider interface {
	SequenceVector(ctx context.Context, sequence string) ([]float64, error)
}

// Folder predicts a 3D structure for a sequence and returns it as raw
// PDB-format bytes. Implementations block until the remote job reaches a
// terminal state.
type Folder interface {
	Fold(ctx context.Context, sequence string) ([]byte, error)
}
