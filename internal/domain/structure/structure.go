// Package structure holds atomic coordinate values extracted from PDB files
// and the rigid transforms used to superpose them.
package structure

// AlphaCarbon is the backbone atom name used for reduced structural comparison.
const AlphaCarbon = "CA"

// Point is a 3D coordinate in Angstroms.
type Point [3]float64

// Atom is a single atom record in file order.
type Atom struct {
	Name         string
	ResidueIndex int
	Coord        Point
}

// Structure is an ordered list of atom records from a single model.
type Structure struct {
	atoms []Atom
}

// New creates a structure from atom records, preserving file order.
func New(atoms []Atom) Structure {
	return Structure{atoms: atoms}
}

// Len returns the number of atom records.
func (s Structure) Len() int { return len(s.atoms) }

// Atoms returns the atom records in file order. The returned slice must not
// be modified.
func (s Structure) Atoms() []Atom { return s.atoms }

// AlphaCarbons returns the coordinates of all CA atoms in file order.
// Positional correspondence between two structures' CA lists is assumed by
// the callers, not verified against residue indices.
func (s Structure) AlphaCarbons() []Point {
	var pts []Point
	for _, a := range s.atoms {
		if a.Name == AlphaCarbon {
			pts = append(pts, a.Coord)
		}
	}
	return pts
}

// Transformed returns a copy of the structure with every coordinate mapped
// through t. Used to bring a full candidate structure into the reference frame
// after a CA-only superposition.
func (s Structure) Transformed(t RigidTransform) Structure {
	atoms := make([]Atom, len(s.atoms))
	for i, a := range s.atoms {
		a.Coord = t.Apply(a.Coord)
		atoms[i] = a
	}
	return Structure{atoms: atoms}
}
