package structure

// RigidTransform is a rotation followed by a translation. It maps points from
// the moving structure's frame into the reference frame and never scales or
// reflects.
type RigidTransform struct {
	Rotation    [3][3]float64
	Translation Point
}

// Identity returns the no-op transform.
func Identity() RigidTransform {
	return RigidTransform{
		Rotation: [3][3]float64{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}},
	}
}

// Apply maps a single point: R*p + t.
func (t RigidTransform) Apply(p Point) Point {
	var out Point
	for i := 0; i < 3; i++ {
		out[i] = t.Rotation[i][0]*p[0] + t.Rotation[i][1]*p[1] + t.Rotation[i][2]*p[2] + t.Translation[i]
	}
	return out
}

// ApplyAll maps a point set without modifying the input.
func (t RigidTransform) ApplyAll(pts []Point) []Point {
	out := make([]Point, len(pts))
	for i, p := range pts {
		out[i] = t.Apply(p)
	}
	return out
}
