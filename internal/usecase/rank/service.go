package rank

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/paulogallotti/sample-protein-engineering-with-genai-on-aws/internal/domain"
	"github.com/paulogallotti/sample-protein-engineering-with-genai-on-aws/internal/domain/scoring"
	"github.com/paulogallotti/sample-protein-engineering-with-genai-on-aws/internal/domain/structure"
	"github.com/paulogallotti/sample-protein-engineering-with-genai-on-aws/internal/logger"
	"github.com/paulogallotti/sample-protein-engineering-with-genai-on-aws/internal/pdb"
)

// Service ranks candidate sequences against a reference by embedding distance
// or structural RMSD. Candidates are scored independently and sequentially;
// the first scoring failure aborts the run and surfaces to the caller.
type Service struct {
	vectors VectorProvider
	folder  Folder
}

// New creates a ranking service.
func New(vectors VectorProvider) *Service {
	return &Service{vectors: vectors}
}

// WithFolder attaches a structure prediction provider, enabling RMSD ranking
// for candidates without a pre-attached structure.
func (s *Service) WithFolder(f Folder) *Service {
	s.folder = f
	return s
}

// RankByEmbedding scores every candidate by cosine distance to the reference
// and returns the k best in ascending order. A candidate carrying a
// pre-attached per-residue embedding is pooled locally; otherwise the vector
// provider is called. A candidate sharing the reference id is skipped (the
// reference is never scored against itself).
func (s *Service) RankByEmbedding(
	ctx context.Context, reference domain.Candidate, candidates []domain.Candidate, k int,
) ([]domain.Candidate, error) {
	log := logger.FromContext(ctx)

	refVec, err := s.sequenceVector(ctx, reference)
	if err != nil {
		return nil, fmt.Errorf("reference %q: %w", reference.ID(), err)
	}

	scored := make([]domain.Candidate, 0, len(candidates))
	for _, c := range candidates {
		if c.ID() == reference.ID() {
			log.Debug("skipping reference among candidates", zap.String("id", c.ID()))
			continue
		}

		vec, err := s.sequenceVector(ctx, c)
		if err != nil {
			return nil, fmt.Errorf("candidate %q: %w", c.ID(), err)
		}

		dist, err := scoring.CosineDistance(vec, refVec)
		if err != nil {
			return nil, fmt.Errorf("candidate %q: %w", c.ID(), err)
		}

		log.Debug("scored candidate",
			zap.String("id", c.ID()),
			zap.String("metric", string(domain.ScoreCosine)),
			zap.Float64("score", dist),
		)
		scored = append(scored, c.WithScore(dist, domain.ScoreCosine))
	}

	return SelectTopK(scored, domain.ScoreCosine, k)
}

// RankByStructure scores every candidate by RMSD after optimal superposition
// onto the reference structure and returns the k best in ascending order.
// Candidates (and the reference) without an attached structure are folded via
// the configured provider.
func (s *Service) RankByStructure(
	ctx context.Context, reference domain.Candidate, candidates []domain.Candidate, k int,
) ([]domain.Candidate, error) {
	log := logger.FromContext(ctx)

	refStruct, err := s.structureFor(ctx, reference)
	if err != nil {
		return nil, fmt.Errorf("reference %q: %w", reference.ID(), err)
	}

	scored := make([]domain.Candidate, 0, len(candidates))
	for _, c := range candidates {
		if c.ID() == reference.ID() {
			log.Debug("skipping reference among candidates", zap.String("id", c.ID()))
			continue
		}

		candStruct, err := s.structureFor(ctx, c)
		if err != nil {
			return nil, fmt.Errorf("candidate %q: %w", c.ID(), err)
		}

		sp, err := scoring.ScoreStructures(candStruct, refStruct)
		if err != nil {
			return nil, fmt.Errorf("candidate %q: %w", c.ID(), err)
		}

		log.Debug("scored candidate",
			zap.String("id", c.ID()),
			zap.String("metric", string(domain.ScoreRMSD)),
			zap.Float64("rmsd_before", sp.RMSDBefore),
			zap.Float64("rmsd_after", sp.RMSDAfter),
		)
		scored = append(scored, c.WithStructure(candStruct.Transformed(sp.Transform)).
			WithScore(sp.RMSDAfter, domain.ScoreRMSD))
	}

	return SelectTopK(scored, domain.ScoreRMSD, k)
}

func (s *Service) sequenceVector(ctx context.Context, c domain.Candidate) ([]float64, error) {
	if emb, ok := c.Embedding(); ok {
		vec, err := scoring.MeanPool(emb)
		if err != nil {
			return nil, fmt.Errorf("pool attached embedding: %w", err)
		}
		return vec, nil
	}
	vec, err := s.vectors.SequenceVector(ctx, c.Sequence())
	if err != nil {
		return nil, fmt.Errorf("sequence vector: %w", err)
	}
	return vec, nil
}

func (s *Service) structureFor(ctx context.Context, c domain.Candidate) (structure.Structure, error) {
	if st, ok := c.Structure(); ok {
		return st, nil
	}
	if s.folder == nil {
		return structure.Structure{}, fmt.Errorf(
			"%w: candidate has no structure and no folding provider is configured",
			domain.ErrInvalidInput,
		)
	}
	raw, err := s.folder.Fold(ctx, c.Sequence())
	if err != nil {
		return structure.Structure{}, fmt.Errorf("fold: %w", err)
	}
	st, err := pdb.Parse(raw)
	if err != nil {
		return structure.Structure{}, fmt.Errorf("parse predicted structure: %w", err)
	}
	return st, nil
}
