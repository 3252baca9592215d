package kmeans

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/hupe1980/bico/distance"
	"gonum.org/v1/gonum/floats"
)

const (
	// DefaultMaxIter is used when Config.MaxIter is unset.
	DefaultMaxIter = 300
	// DefaultTolerance is used when Config.Tolerance is unset.
	DefaultTolerance = 1e-4
)

var (
	// ErrInvalidConfig is returned for out-of-range parameters or
	// inconsistent input shapes.
	ErrInvalidConfig = errors.New("kmeans: invalid config")
	// ErrTooFewPoints is returned when there are fewer points than clusters.
	ErrTooFewPoints = errors.New("kmeans: fewer points than clusters")
)

// Config configures Train.
type Config struct {
	K       int
	MaxIter int
	// Tolerance stops the iteration once no center moves by more than this
	// squared distance.
	Tolerance float64
	Seed      uint64
}

// Result holds trained centers and the final assignment.
type Result struct {
	Centers    []float64 // k * dim, row-major
	Labels     []int
	Inertia    float64 // weighted sum of squared distances to the assigned center
	Iterations int
	Converged  bool
}

// Train clusters n = len(weights) points stored row-major in vectors.
// A nil weights slice gives every point weight 1.
func Train(ctx context.Context, vectors, weights []float64, dim int, cfg Config) (*Result, error) {
	if dim < 1 || len(vectors)%dim != 0 {
		return nil, fmt.Errorf("%w: %d values do not form rows of dimension %d", ErrInvalidConfig, len(vectors), dim)
	}
	n := len(vectors) / dim
	if weights == nil {
		weights = make([]float64, n)
		for i := range weights {
			weights[i] = 1
		}
	}
	if len(weights) != n {
		return nil, fmt.Errorf("%w: %d weights for %d rows", ErrInvalidConfig, len(weights), n)
	}
	if cfg.K < 1 {
		return nil, fmt.Errorf("%w: k must be at least 1, got %d", ErrInvalidConfig, cfg.K)
	}
	if n < cfg.K {
		return nil, fmt.Errorf("%w: %d points, k=%d", ErrTooFewPoints, n, cfg.K)
	}
	if cfg.MaxIter <= 0 {
		cfg.MaxIter = DefaultMaxIter
	}
	if cfg.Tolerance <= 0 {
		cfg.Tolerance = DefaultTolerance
	}

	rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x2545f4914f6cdd1d)) //nolint:gosec // reproducible seeding
	k := cfg.K
	centers := seed(rng, vectors, weights, dim, k)

	labels := make([]int, n)
	for i := range labels {
		labels[i] = -1
	}
	sums := make([]float64, k*dim)
	mass := make([]float64, k)
	res := &Result{Labels: labels}

	for iter := 0; iter < cfg.MaxIter; iter++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		res.Iterations = iter + 1

		// Assignment step
		changed := false
		for i := 0; i < n; i++ {
			best, _ := Assign(vectors[i*dim:(i+1)*dim], centers, dim)
			if labels[i] != best {
				labels[i] = best
				changed = true
			}
		}
		if !changed {
			res.Converged = true
			break
		}

		// Update step
		for i := range sums {
			sums[i] = 0
		}
		for i := range mass {
			mass[i] = 0
		}
		for i := 0; i < n; i++ {
			c := labels[i]
			floats.AddScaled(sums[c*dim:(c+1)*dim], weights[i], vectors[i*dim:(i+1)*dim])
			mass[c] += weights[i]
		}

		shift := 0.0
		for c := 0; c < k; c++ {
			center := centers[c*dim : (c+1)*dim]
			if mass[c] == 0 {
				// Re-seed an empty cluster with the point that currently
				// contributes the most cost.
				far := farthest(vectors, weights, centers, labels, dim)
				copy(center, vectors[far*dim:(far+1)*dim])
				labels[far] = c
				shift = math.Inf(1)
				continue
			}
			next := sums[c*dim : (c+1)*dim]
			floats.Scale(1/mass[c], next)
			shift = math.Max(shift, distance.SquaredL2(center, next))
			copy(center, next)
		}
		if shift <= cfg.Tolerance {
			res.Converged = true
			break
		}
	}

	res.Inertia = 0
	for i := 0; i < n; i++ {
		best, d := Assign(vectors[i*dim:(i+1)*dim], centers, dim)
		labels[i] = best
		res.Inertia += weights[i] * d
	}
	res.Centers = centers
	return res, nil
}

// seed picks k initial centers with weighted k-means++.
func seed(rng *rand.Rand, vectors, weights []float64, dim, k int) []float64 {
	n := len(weights)
	centers := make([]float64, k*dim)

	first := sample(rng, weights)
	copy(centers[:dim], vectors[first*dim:(first+1)*dim])

	// Distance to the nearest chosen center, scaled by weight.
	cost := make([]float64, n)
	for i := 0; i < n; i++ {
		cost[i] = weights[i] * distance.SquaredL2(vectors[i*dim:(i+1)*dim], centers[:dim])
	}

	for c := 1; c < k; c++ {
		idx := sample(rng, cost)
		center := centers[c*dim : (c+1)*dim]
		copy(center, vectors[idx*dim:(idx+1)*dim])
		for i := 0; i < n; i++ {
			if d := weights[i] * distance.SquaredL2(vectors[i*dim:(i+1)*dim], center); d < cost[i] {
				cost[i] = d
			}
		}
	}
	return centers
}

// sample draws an index with probability proportional to w. When all
// entries are zero it falls back to a uniform draw.
func sample(rng *rand.Rand, w []float64) int {
	total := floats.Sum(w)
	if !(total > 0) || math.IsInf(total, 1) {
		return rng.IntN(len(w))
	}
	target := rng.Float64() * total
	cum := 0.0
	for i, v := range w {
		cum += v
		if cum >= target {
			return i
		}
	}
	return len(w) - 1
}

func farthest(vectors, weights, centers []float64, labels []int, dim int) int {
	best, bestCost := 0, -1.0
	for i := range weights {
		c := labels[i]
		d := weights[i] * distance.SquaredL2(vectors[i*dim:(i+1)*dim], centers[c*dim:(c+1)*dim])
		if d > bestCost {
			best, bestCost = i, d
		}
	}
	return best
}

// Assign returns the index of the center closest to vec and the squared
// Euclidean distance to it. The first center is returned when no distance is
// finite.
func Assign(vec, centers []float64, dim int) (int, float64) {
	k := len(centers) / dim
	best, bestDist := -1, math.Inf(1)
	for j := 0; j < k; j++ {
		if d := distance.SquaredL2(vec, centers[j*dim:(j+1)*dim]); best < 0 || d < bestDist {
			best, bestDist = j, d
		}
	}
	return best, bestDist
}
