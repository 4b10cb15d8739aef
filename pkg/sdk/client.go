// Package proteinrank is the embedded SDK: it wires the ranking service
// in-process, without the HTTP server.
package proteinrank

import (
	"context"
	"fmt"

	"github.com/paulogallotti/sample-protein-engineering-with-genai-on-aws/internal/domain"
	"github.com/paulogallotti/sample-protein-engineering-with-genai-on-aws/internal/pdb"
	rankuc "github.com/paulogallotti/sample-protein-engineering-with-genai-on-aws/internal/usecase/rank"
)

// Candidate is a sequence record to score. Embedding (per-residue matrix,
// boundary tokens included) and PDB (raw structure bytes) are optional;
// when absent, the configured providers are used.
type Candidate struct {
	ID          string
	Sequence    string
	Description string
	Embedding   [][]float64
	PDB         []byte
}

// Ranked is a scored candidate, ascending by score.
type Ranked struct {
	ID          string
	Description string
	Score       float64
	Metric      string
}

// Client is the proteinrank SDK entry point.
type Client struct {
	svc *rankuc.Service
}

// New creates a Client. A vector provider is required for embedding-based
// ranking; a folder is required for RMSD ranking of candidates without
// attached structures.
func New(opts ...Option) (*Client, error) {
	cfg := &clientConfig{}
	for _, o := range opts {
		o.apply(cfg)
	}

	var vectors rankuc.VectorProvider
	switch {
	case cfg.vectors != nil:
		vectors = cfg.vectors
	case cfg.embedder != nil:
		vectors = rankuc.NewMeanPooledProvider(&embedderAdapter{inner: cfg.embedder})
	default:
		vectors = &noopVectors{}
	}

	svc := rankuc.New(vectors)
	if cfg.folder != nil {
		svc = svc.WithFolder(cfg.folder)
	}

	return &Client{svc: svc}, nil
}

// RankByEmbedding ranks candidates by cosine distance to the reference and
// returns the k best in ascending order.
func (c *Client) RankByEmbedding(
	ctx context.Context, reference Candidate, candidates []Candidate, k int,
) ([]Ranked, error) {
	ref, cands, err := convert(reference, candidates)
	if err != nil {
		return nil, err
	}

	ranked, err := c.svc.RankByEmbedding(ctx, ref, cands, k)
	if err != nil {
		return nil, err
	}
	return toRanked(ranked), nil
}

// RankByStructure ranks candidates by RMSD after optimal superposition onto
// the reference structure and returns the k best in ascending order.
func (c *Client) RankByStructure(
	ctx context.Context, reference Candidate, candidates []Candidate, k int,
) ([]Ranked, error) {
	ref, cands, err := convert(reference, candidates)
	if err != nil {
		return nil, err
	}

	ranked, err := c.svc.RankByStructure(ctx, ref, cands, k)
	if err != nil {
		return nil, err
	}
	return toRanked(ranked), nil
}

func convert(reference Candidate, candidates []Candidate) (domain.Candidate, []domain.Candidate, error) {
	ref, err := toDomain(reference)
	if err != nil {
		return domain.Candidate{}, nil, fmt.Errorf("reference: %w", err)
	}

	cands := make([]domain.Candidate, 0, len(candidates))
	for _, c := range candidates {
		dc, err := toDomain(c)
		if err != nil {
			return domain.Candidate{}, nil, fmt.Errorf("candidate %q: %w", c.ID, err)
		}
		cands = append(cands, dc)
	}
	return ref, cands, nil
}

func toDomain(c Candidate) (domain.Candidate, error) {
	dc, err := domain.NewCandidate(c.ID, c.Sequence, c.Description)
	if err != nil {
		return domain.Candidate{}, err
	}
	if len(c.Embedding) > 0 {
		emb, err := domain.NewResidueEmbedding(c.Embedding)
		if err != nil {
			return domain.Candidate{}, err
		}
		dc = dc.WithEmbedding(emb)
	}
	if len(c.PDB) > 0 {
		st, err := pdb.Parse(c.PDB)
		if err != nil {
			return domain.Candidate{}, err
		}
		dc = dc.WithStructure(st)
	}
	return dc, nil
}

func toRanked(candidates []domain.Candidate) []Ranked {
	out := make([]Ranked, len(candidates))
	for i, c := range candidates {
		score, kind, _ := c.Score()
		out[i] = Ranked{
			ID:          c.ID(),
			Description: c.Description(),
			Score:       score,
			Metric:      string(kind),
		}
	}
	return out
}

// embedderAdapter wraps the public ResidueEmbedder to satisfy the internal contract.
type embedderAdapter struct {
	inner ResidueEmbedder
}

func (a *embedderAdapter) EmbedResidues(ctx context.Context, sequence string) (domain.ResidueEmbedding, error) {
	rows, err := a.inner.EmbedResidues(ctx, sequence)
	if err != nil {
		return domain.ResidueEmbedding{}, fmt.Errorf("embed residues: %w", err)
	}
	emb, err := domain.NewResidueEmbedding(rows)
	if err != nil {
		return domain.ResidueEmbedding{}, fmt.Errorf("embed residues: %w", err)
	}
	return emb, nil
}

// noopVectors returns an error on call (used when no provider configured).
type noopVectors struct{}

func (noopVectors) SequenceVector(_ context.Context, _ string) ([]float64, error) {
	return nil, fmt.Errorf(
		"%w: vector provider not configured (use WithVectorProvider or WithResidueEmbedder)",
		domain.ErrInvalidInput,
	)
}
