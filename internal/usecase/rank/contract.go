package rank

import "context"

// VectorProvider produces one comparable fixed-length vector per sequence.
type VectorProvider interface {
	SequenceVector(ctx context.Context, sequence string) ([]float64, error)
}

// Folder predicts a structure for a sequence, returning raw PDB bytes.
type Folder interface {
	Fold(ctx context.Context, sequence string) ([]byte, error)
}
