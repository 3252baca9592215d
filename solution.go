package bico

import (
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/hupe1980/bico/point"
)

// Solution is a weighted coreset extracted from an Engine. It is fully
// detached from the engine and stays valid after the engine is closed.
type Solution struct {
	dim     int
	weights []float64
	coords  []float64 // row-major, len(weights)*dim
	total   float64
	count   uint64
	elapsed time.Duration
	policy  point.WeightPolicy
}

// NewSolution assembles a solution from row-major coordinates and per-row
// weights, for example when loading an exported coreset.
func NewSolution(dim int, weights, coords []float64) (*Solution, error) {
	if dim < 1 {
		return nil, &ErrInvalidParameter{Name: "dimension", Value: dim, Reason: "must be at least 1"}
	}
	if len(coords) != len(weights)*dim {
		return nil, fmt.Errorf("%w: %d coordinates for %d rows of dimension %d",
			ErrInvalidInput, len(coords), len(weights), dim)
	}

	s := &Solution{
		dim:     dim,
		weights: slices.Clone(weights),
		coords:  slices.Clone(coords),
		policy:  point.DefaultWeightPolicy{},
	}
	for i, w := range weights {
		if !(w > 0) || math.IsInf(w, 1) {
			return nil, &ErrInvalidPoint{Row: i, Reason: fmt.Sprintf("weight must be positive and finite, got %v", w)}
		}
		s.total += w
	}
	return s, nil
}

// Size returns the number of coreset points.
func (s *Solution) Size() int { return len(s.weights) }

// Dimension returns the dimensionality of the coreset points.
func (s *Solution) Dimension() int { return s.dim }

// TotalWeight returns the sum of all coreset weights. It equals the total
// weight inserted into the engine.
func (s *Solution) TotalWeight() float64 { return s.total }

// Count returns the number of original observations summarized. It is zero
// for solutions built with NewSolution.
func (s *Solution) Count() uint64 { return s.count }

// Elapsed returns how long extraction took.
func (s *Solution) Elapsed() time.Duration { return s.elapsed }

func (s *Solution) check(i int) error {
	if i < 0 || i >= len(s.weights) {
		return &ErrIndexOutOfRange{Index: i, Size: len(s.weights)}
	}
	return nil
}

// Weight returns the weight of coreset point i.
func (s *Solution) Weight(i int) (float64, error) {
	if err := s.check(i); err != nil {
		return 0, err
	}
	return s.weights[i], nil
}

// Coordinates returns a copy of the coordinates of coreset point i.
func (s *Solution) Coordinates(i int) ([]float64, error) {
	if err := s.check(i); err != nil {
		return nil, err
	}
	return slices.Clone(s.row(i)), nil
}

// Point materializes coreset point i, writing its weight through the
// engine's WeightPolicy.
func (s *Solution) Point(i int) (*point.Point, error) {
	if err := s.check(i); err != nil {
		return nil, err
	}
	p := point.New(s.row(i)...)
	s.policy.SetWeight(p, s.weights[i])
	return p, nil
}

// Weights returns a copy of all weights in coreset order.
func (s *Solution) Weights() []float64 { return slices.Clone(s.weights) }

// Flat returns a copy of all coordinates, row-major.
func (s *Solution) Flat() []float64 { return slices.Clone(s.coords) }

func (s *Solution) row(i int) []float64 {
	return s.coords[i*s.dim : (i+1)*s.dim]
}
