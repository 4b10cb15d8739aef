package proteinrank

import "context"

// VectorProvider supplies one pooled vector per sequence.
type VectorProvider interface {
	SequenceVector(ctx context.Context, sequence string) ([]float64, error)
}

// ResidueEmbedder supplies a per-token embedding matrix per sequence,
// boundary tokens included. The SDK mean-pools it internally.
type ResidueEmbedder interface {
	EmbedResidues(ctx context.Context, sequence string) ([][]float64, error)
}

// Folder predicts a structure for a sequence and returns raw PDB bytes.
type Folder interface {
	Fold(ctx context.Context, sequence string) ([]byte, error)
}

type clientConfig struct {
	vectors  VectorProvider
	embedder ResidueEmbedder
	folder   Folder
}

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

// WithVectorProvider sets a pooled-vector embedding provider.
// Takes precedence over WithResidueEmbedder.
func WithVectorProvider(p VectorProvider) Option {
	return optionFunc(func(c *clientConfig) { c.vectors = p })
}

// WithResidueEmbedder sets a per-residue embedding provider.
func WithResidueEmbedder(e ResidueEmbedder) Option {
	return optionFunc(func(c *clientConfig) { c.embedder = e })
}

// WithFolder sets a structure prediction provider, enabling RMSD ranking
// for candidates without attached structures.
func WithFolder(f Folder) Option {
	return optionFunc(func(c *clientConfig) { c.folder = f })
}
