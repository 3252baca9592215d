package bico

import (
	"context"
	"fmt"

	"github.com/hupe1980/bico/internal/kmeans"
)

type clusterOptions struct {
	maxIter   int
	tolerance float64
	seed      uint64
}

// ClusterOption configures Solution.Cluster and Engine.Fit.
type ClusterOption func(*clusterOptions)

// WithMaxIterations bounds the number of Lloyd iterations.
func WithMaxIterations(n int) ClusterOption {
	return func(o *clusterOptions) {
		o.maxIter = n
	}
}

// WithTolerance sets the squared center movement below which iteration
// stops.
func WithTolerance(tol float64) ClusterOption {
	return func(o *clusterOptions) {
		o.tolerance = tol
	}
}

// WithClusterSeed sets the seed of the k-means++ initialization.
func WithClusterSeed(seed uint64) ClusterOption {
	return func(o *clusterOptions) {
		o.seed = seed
	}
}

// Clustering is the result of weighted k-means on a coreset.
type Clustering struct {
	Centers    [][]float64
	Labels     []int   // center index per coreset point
	Inertia    float64 // weighted k-means cost of the coreset
	Iterations int
	Converged  bool
}

// Predict returns the index of the center closest to coords.
func (c *Clustering) Predict(coords []float64) (int, error) {
	if len(c.Centers) == 0 {
		return 0, &ErrIndexOutOfRange{Index: 0, Size: 0}
	}
	dim := len(c.Centers[0])
	if len(coords) != dim {
		return 0, &ErrDimensionMismatch{Expected: dim, Actual: len(coords)}
	}
	flat := make([]float64, 0, len(c.Centers)*dim)
	for _, center := range c.Centers {
		flat = append(flat, center...)
	}
	idx, _ := kmeans.Assign(coords, flat, dim)
	return idx, nil
}

// Cluster runs weighted k-means with k centers over the coreset points.
func (s *Solution) Cluster(ctx context.Context, k int, optFns ...ClusterOption) (*Clustering, error) {
	var opts clusterOptions
	for _, fn := range optFns {
		if fn != nil {
			fn(&opts)
		}
	}

	if k < 1 {
		return nil, &ErrInvalidParameter{Name: "k", Value: k, Reason: "cluster count must be at least 1"}
	}
	if k > s.Size() {
		return nil, &ErrInvalidParameter{Name: "k", Value: k, Reason: fmt.Sprintf("exceeds coreset size %d", s.Size())}
	}

	res, err := kmeans.Train(ctx, s.coords, s.weights, s.dim, kmeans.Config{
		K:         k,
		MaxIter:   opts.maxIter,
		Tolerance: opts.tolerance,
		Seed:      opts.seed,
	})
	if err != nil {
		return nil, fmt.Errorf("bico: cluster coreset: %w", err)
	}

	c := &Clustering{
		Centers:    make([][]float64, k),
		Labels:     res.Labels,
		Inertia:    res.Inertia,
		Iterations: res.Iterations,
		Converged:  res.Converged,
	}
	for i := range c.Centers {
		c.Centers[i] = res.Centers[i*s.dim : (i+1)*s.dim]
	}
	return c, nil
}

// Fit computes the current coreset and clusters it into K centers. The
// engine seed is used for initialization unless WithClusterSeed is given.
func (e *Engine) Fit(ctx context.Context, optFns ...ClusterOption) (*Clustering, error) {
	s, err := e.Compute()
	if err != nil {
		return nil, err
	}
	return s.Cluster(ctx, e.k, append([]ClusterOption{WithClusterSeed(e.seed)}, optFns...)...)
}
