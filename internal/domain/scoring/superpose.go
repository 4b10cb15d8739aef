package scoring

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/paulogallotti/sample-protein-engineering-with-genai-on-aws/internal/domain"
	"github.com/paulogallotti/sample-protein-engineering-with-genai-on-aws/internal/domain/structure"
)

// collinearTol is the threshold on the second singular value of the covariance
// matrix below which the point sets are treated as collinear (rotation
// ill-defined).
const collinearTol = 1e-10

// Superposition is the result of rigidly aligning a candidate point set onto a
// reference. The transform maps candidate-frame points into the reference
// frame and can be reapplied to the full (non-truncated) candidate structure.
type Superposition struct {
	RMSDBefore float64
	RMSDAfter  float64
	Transform  structure.RigidTransform
}

// RMSD returns the root-mean-square Euclidean distance between corresponding
// points of two equal-length sets, with no transform applied.
func RMSD(a, b []structure.Point) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: RMSD length mismatch: %d vs %d", domain.ErrInvalidInput, len(a), len(b))
	}
	if len(a) == 0 {
		return 0, fmt.Errorf("%w: RMSD on empty point sets", domain.ErrInvalidInput)
	}
	var sum float64
	for i := range a {
		dx := a[i][0] - b[i][0]
		dy := a[i][1] - b[i][1]
		dz := a[i][2] - b[i][2]
		sum += dx*dx + dy*dy + dz*dz
	}
	return math.Sqrt(sum / float64(len(a))), nil
}

// Superpose computes the least-squares rigid transform (Kabsch) aligning the
// candidate points onto the reference points, and the RMSD before and after
// applying it. Requires at least 3 non-collinear points; by construction
// RMSDAfter <= RMSDBefore.
func Superpose(candidate, reference []structure.Point) (Superposition, error) {
	if len(candidate) != len(reference) {
		return Superposition{}, fmt.Errorf(
			"%w: superposition length mismatch: %d vs %d",
			domain.ErrInvalidInput, len(candidate), len(reference),
		)
	}
	if len(candidate) < 3 {
		return Superposition{}, fmt.Errorf(
			"%w: superposition needs at least 3 points, got %d",
			domain.ErrInvalidInput, len(candidate),
		)
	}

	before, err := RMSD(candidate, reference)
	if err != nil {
		return Superposition{}, err
	}

	candCentroid := centroid(candidate)
	refCentroid := centroid(reference)

	// Covariance of the centered point sets: H[j][k] = sum_i c_i[j] * r_i[k].
	h := mat.NewDense(3, 3, nil)
	for i := range candidate {
		for j := 0; j < 3; j++ {
			cj := candidate[i][j] - candCentroid[j]
			for k := 0; k < 3; k++ {
				rk := reference[i][k] - refCentroid[k]
				h.Set(j, k, h.At(j, k)+cj*rk)
			}
		}
	}

	var svd mat.SVD
	if ok := svd.Factorize(h, mat.SVDFull); !ok {
		return Superposition{}, fmt.Errorf("%w: SVD of covariance matrix failed", domain.ErrInvalidInput)
	}
	if vals := svd.Values(nil); vals[1] < collinearTol {
		return Superposition{}, fmt.Errorf(
			"%w: degenerate superposition: points are collinear", domain.ErrInvalidInput,
		)
	}

	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)

	// Correct for reflection: R = V * diag(1, 1, sign(det(V U^T))) * U^T.
	var vut mat.Dense
	vut.Mul(&v, u.T())
	sign := 1.0
	if mat.Det(&vut) < 0 {
		sign = -1.0
	}
	d := mat.NewDense(3, 3, []float64{1, 0, 0, 0, 1, 0, 0, 0, sign})

	var vd, r mat.Dense
	vd.Mul(&v, d)
	r.Mul(&vd, u.T())

	transform := structure.RigidTransform{}
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			transform.Rotation[i][j] = r.At(i, j)
		}
	}
	// t = refCentroid - R * candCentroid, so Apply(p) = R*p + t.
	rc := transform.Apply(candCentroid)
	for i := 0; i < 3; i++ {
		transform.Translation[i] = refCentroid[i] - rc[i]
	}

	after, err := RMSD(transform.ApplyAll(candidate), reference)
	if err != nil {
		return Superposition{}, err
	}

	return Superposition{RMSDBefore: before, RMSDAfter: after, Transform: transform}, nil
}

// ScoreStructures extracts the alpha-carbon subsets of both structures in file
// order, truncates both to the shorter length (prefix, positional
// correspondence assumed), and superposes the candidate onto the reference.
func ScoreStructures(candidate, reference structure.Structure) (Superposition, error) {
	candCA := candidate.AlphaCarbons()
	refCA := reference.AlphaCarbons()

	if len(candCA) == 0 {
		return Superposition{}, fmt.Errorf("%w: candidate structure has no CA atoms", domain.ErrInvalidInput)
	}
	if len(refCA) == 0 {
		return Superposition{}, fmt.Errorf("%w: reference structure has no CA atoms", domain.ErrInvalidInput)
	}

	n := len(candCA)
	if len(refCA) < n {
		n = len(refCA)
	}
	return Superpose(candCA[:n], refCA[:n])
}

func centroid(pts []structure.Point) structure.Point {
	var c structure.Point
	for _, p := range pts {
		c[0] += p[0]
		c[1] += p[1]
		c[2] += p[2]
	}
	n := float64(len(pts))
	c[0] /= n
	c[1] /= n
	c[2] /= n
	return c
}
