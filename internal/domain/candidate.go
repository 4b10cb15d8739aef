package domain

import (
	"fmt"
	"strings"

	"github.com/paulogallotti/sample-protein-engineering-with-genai-on-aws/internal/domain/structure"
)

// ScoreKind identifies the dissimilarity metric a score was computed with.
type ScoreKind string

const (
	// ScoreCosine is cosine distance between pooled embeddings, range [0, 2].
	ScoreCosine ScoreKind = "cosine"
	// ScoreRMSD is RMSD after optimal rigid superposition, in Angstroms.
	ScoreRMSD ScoreKind = "rmsd"
)

// ParseScoreKind converts a string to a ScoreKind.
func ParseScoreKind(s string) (ScoreKind, error) {
	switch ScoreKind(strings.ToLower(s)) {
	case ScoreCosine:
		return ScoreCosine, nil
	case ScoreRMSD:
		return ScoreRMSD, nil
	default:
		return "", fmt.Errorf("%w: unknown score kind %q", ErrInvalidInput, s)
	}
}

// Candidate is a protein sequence under evaluation against a reference.
// Values are immutable: embedding, structure, and score are attached by
// constructing a new Candidate, never by mutating an existing one.
type Candidate struct {
	id          string
	sequence    string
	description string

	embedding *ResidueEmbedding
	structure *structure.Structure

	score     float64
	scoreKind ScoreKind
	scored    bool
}

// NewCandidate creates a candidate from a sequence record.
func NewCandidate(id, sequence, description string) (Candidate, error) {
	if id == "" {
		return Candidate{}, fmt.Errorf("%w: candidate id is empty", ErrInvalidInput)
	}
	if sequence == "" {
		return Candidate{}, fmt.Errorf("%w: candidate %q has empty sequence", ErrInvalidInput, id)
	}
	return Candidate{id: id, sequence: sequence, description: description}, nil
}

// ID returns the batch-unique identifier.
func (c Candidate) ID() string { return c.id }

// Sequence returns the residue sequence.
func (c Candidate) Sequence() string { return c.sequence }

// Description returns the free-text annotation.
func (c Candidate) Description() string { return c.description }

// Embedding returns the per-residue embedding, if one has been attached.
func (c Candidate) Embedding() (ResidueEmbedding, bool) {
	if c.embedding == nil {
		return ResidueEmbedding{}, false
	}
	return *c.embedding, true
}

// Structure returns the predicted structure, if one has been attached.
func (c Candidate) Structure() (structure.Structure, bool) {
	if c.structure == nil {
		return structure.Structure{}, false
	}
	return *c.structure, true
}

// Score returns the score and its kind. ok is false for an unscored candidate.
func (c Candidate) Score() (value float64, kind ScoreKind, ok bool) {
	return c.score, c.scoreKind, c.scored
}

// HasScore reports whether the candidate carries a score of the given kind.
func (c Candidate) HasScore(kind ScoreKind) bool {
	return c.scored && c.scoreKind == kind
}

// WithEmbedding returns a copy with the per-residue embedding attached.
func (c Candidate) WithEmbedding(e ResidueEmbedding) Candidate {
	c.embedding = &e
	return c
}

// WithStructure returns a copy with the predicted structure attached.
func (c Candidate) WithStructure(s structure.Structure) Candidate {
	c.structure = &s
	return c
}

// WithScore returns a copy carrying the given score. Re-scoring replaces the
// previous score and kind.
func (c Candidate) WithScore(value float64, kind ScoreKind) Candidate {
	c.score = value
	c.scoreKind = kind
	c.scored = true
	return c
}
