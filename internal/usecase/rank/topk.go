package rank

import (
	"fmt"
	"sort"

	"github.com/paulogallotti/sample-protein-engineering-with-genai-on-aws/internal/domain"
)

// SelectTopK returns the k lowest-scored candidates in ascending score order
// (lower = more similar to the reference for both metrics). The sort is
// stable: equal scores keep their input order. k larger than the candidate
// count returns all candidates. The function fails with ErrUnscored if any
// candidate lacks a score of the requested kind, and never mutates its input.
func SelectTopK(candidates []domain.Candidate, kind domain.ScoreKind, k int) ([]domain.Candidate, error) {
	if k < 0 {
		return nil, fmt.Errorf("%w: negative k (%d)", domain.ErrInvalidInput, k)
	}

	for _, c := range candidates {
		if !c.HasScore(kind) {
			return nil, fmt.Errorf("%w: candidate %q has no %s score", domain.ErrUnscored, c.ID(), kind)
		}
	}

	out := make([]domain.Candidate, len(candidates))
	copy(out, candidates)

	sort.SliceStable(out, func(i, j int) bool {
		si, _, _ := out[i].Score()
		sj, _, _ := out[j].Score()
		return si < sj
	})

	if len(out) > k {
		out = out[:k]
	}
	return out, nil
}
