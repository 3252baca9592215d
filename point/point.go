package point

import "slices"

// Point is a fixed-length coordinate vector plus a mutable weight.
//
// Coordinates are immutable after construction. The weight represents the
// multiplicity of the point (1 for one observed instance) and should be
// changed through a WeightPolicy when the point is handled by an engine.
type Point struct {
	coords []float64
	weight float64
}

// New creates a point with weight 1. The coordinates are copied.
func New(coords ...float64) *Point {
	return &Point{coords: slices.Clone(coords), weight: 1}
}

// NewWeighted creates a point with the given weight. The coordinates are copied.
func NewWeighted(coords []float64, weight float64) *Point {
	return &Point{coords: slices.Clone(coords), weight: weight}
}

// Dimension returns the number of coordinates.
func (p *Point) Dimension() int { return len(p.coords) }

// At returns coordinate i.
func (p *Point) At(i int) float64 { return p.coords[i] }

// Coordinates returns a copy of the coordinate vector.
func (p *Point) Coordinates() []float64 { return slices.Clone(p.coords) }

// Weight returns the point's weight.
func (p *Point) Weight() float64 { return p.weight }

// SetWeight replaces the point's weight.
func (p *Point) SetWeight(w float64) { p.weight = w }

// View returns the backing coordinate slice of p without copying.
// The engine uses it on the insert hot path; the slice must be treated as
// read-only.
func View(p *Point) []float64 { return p.coords }
