package rank

import (
	"context"
	"fmt"

	"github.com/paulogallotti/sample-protein-engineering-with-genai-on-aws/internal/domain"
	"github.com/paulogallotti/sample-protein-engineering-with-genai-on-aws/internal/domain/scoring"
)

// MeanPooledProvider adapts a per-residue embedder into a VectorProvider by
// mean-pooling each embedding (boundary tokens excluded).
type MeanPooledProvider struct {
	inner domain.ResidueEmbedder
}

// NewMeanPooledProvider creates the pooling adapter.
func NewMeanPooledProvider(inner domain.ResidueEmbedder) *MeanPooledProvider {
	return &MeanPooledProvider{inner: inner}
}

// SequenceVector embeds the sequence and pools it to a single vector.
func (p *MeanPooledProvider) SequenceVector(ctx context.Context, sequence string) ([]float64, error) {
	emb, err := p.inner.EmbedResidues(ctx, sequence)
	if err != nil {
		return nil, fmt.Errorf("embed residues: %w", err)
	}
	vec, err := scoring.MeanPool(emb)
	if err != nil {
		return nil, fmt.Errorf("pool embedding: %w", err)
	}
	return vec, nil
}
