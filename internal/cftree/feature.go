package cftree

import (
	"slices"

	"github.com/hupe1980/bico/distance"
	"gonum.org/v1/gonum/floats"
)

// Feature is the sufficient statistic of a set of weighted points.
type Feature struct {
	// Count is the number of original points folded in.
	Count uint64
	// Weight is the total weight of those points.
	Weight float64
	// Sum is the coordinate-wise sum of the points scaled by their weights.
	Sum []float64
	// Spread is the weighted sum of squared Euclidean distances between the
	// points and their centroid (the k-means cost of the feature).
	Spread float64
}

// NewFeature returns a feature holding a single point.
func NewFeature(coords []float64, weight float64) Feature {
	f := Feature{Sum: make([]float64, len(coords))}
	f.set(coords, weight)
	return f
}

func (f *Feature) set(coords []float64, weight float64) {
	f.Count = 1
	f.Weight = weight
	f.Spread = 0
	floats.ScaleTo(f.Sum, weight, coords)
}

// Centroid writes the weighted centroid into dst and returns it. A nil dst is
// allocated.
func (f *Feature) Centroid(dst []float64) []float64 {
	if dst == nil {
		dst = make([]float64, len(f.Sum))
	}
	if f.Weight == 0 {
		clear(dst)
		return dst
	}
	floats.ScaleTo(dst, 1/f.Weight, f.Sum)
	return dst
}

// Clone returns a deep copy of f.
func (f *Feature) Clone() Feature {
	c := *f
	c.Sum = slices.Clone(f.Sum)
	return c
}

// mergedSpread returns the spread of the union of f and o. rep and orep are
// their centroids.
func (f *Feature) mergedSpread(rep []float64, o *Feature, orep []float64) float64 {
	w := f.Weight + o.Weight
	if w == 0 {
		return 0
	}
	return f.Spread + o.Spread + f.Weight*o.Weight/w*distance.SquaredL2(rep, orep)
}

// merge folds o into f.
func (f *Feature) merge(rep []float64, o *Feature, orep []float64) {
	f.Spread = f.mergedSpread(rep, o, orep)
	f.Count += o.Count
	f.Weight += o.Weight
	floats.Add(f.Sum, o.Sum)
}
