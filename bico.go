package bico

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/hupe1980/bico/distance"
	"github.com/hupe1980/bico/internal/cftree"
	"github.com/hupe1980/bico/point"
)

// RebuildEvent describes a completed threshold-doubling rebuild.
type RebuildEvent = cftree.RebuildEvent

// DefaultSummarySize returns the node budget used when none is configured:
// 200 nodes per requested cluster.
func DefaultSummarySize(k int) int {
	return 200 * k
}

// Stats is a point-in-time summary of an Engine.
type Stats struct {
	Dimension  int
	K          int
	MaxNodes   int
	Candidates int
	Metric     string

	Nodes     int     // live nodes, including buffered points
	Leaves    int     // leaf nodes, one per buffered point before bootstrap
	Depth     int     // deepest level below the root
	Pending   int     // points buffered before the first threshold is known
	Threshold float64 // base threshold T
	Rebuilds  int
	Points    uint64  // observations summarized
	Weight    float64 // total weight summarized
}

// Engine summarizes a stream of points into a weighted coreset whose size
// never exceeds its node budget.
//
// An Engine is not safe for concurrent use. Callers that feed it from
// several goroutines must serialize access.
type Engine struct {
	dim        int
	k          int
	candidates int
	maxNodes   int
	seed       uint64
	metric     string

	weights point.WeightPolicy
	tree    *cftree.Tree
	closed  bool

	metricsCollector MetricsCollector
	logger           *Logger
}

// New creates an engine for d-dimensional points targeting k clusters.
//
// p is the number of candidate children evaluated with the distance function
// per level, m is the hard bound on live tree nodes and thus on the coreset
// size, and seed makes the random projections reproducible.
func New(d, k, p, m int, seed uint64, optFns ...Option) (*Engine, error) {
	opts := applyOptions(optFns)

	switch {
	case d < 1:
		return nil, &ErrInvalidParameter{Name: "d", Value: d, Reason: "dimension must be at least 1"}
	case k < 1:
		return nil, &ErrInvalidParameter{Name: "k", Value: k, Reason: "cluster count must be at least 1"}
	case p < 1:
		return nil, &ErrInvalidParameter{Name: "p", Value: p, Reason: "candidate count must be at least 1"}
	case m < 1:
		return nil, &ErrInvalidParameter{Name: "m", Value: m, Reason: "summary size must be at least 1"}
	case opts.projections < 0:
		return nil, &ErrInvalidParameter{Name: "projections", Value: opts.projections, Reason: "must not be negative"}
	case opts.maxDepth < 0:
		return nil, &ErrInvalidParameter{Name: "max_depth", Value: opts.maxDepth, Reason: "must not be negative"}
	}

	dist := opts.distanceFunc
	metricName := "custom"
	costBound := false
	if dist == nil {
		fn, err := distance.Provider(opts.metric)
		if err != nil {
			return nil, &ErrInvalidParameter{Name: "metric", Value: opts.metric, Reason: err.Error()}
		}
		dist = fn
		metricName = opts.metric.String()
		costBound = opts.metric.IsSquaredEuclidean()
	}

	e := &Engine{
		dim:              d,
		k:                k,
		candidates:       p,
		maxNodes:         m,
		seed:             seed,
		metric:           metricName,
		weights:          opts.weightPolicy,
		metricsCollector: opts.metricsCollector,
		logger:           opts.logger.WithDimension(d).WithK(k).WithMaxNodes(m),
	}

	tree, err := cftree.New(cftree.Config{
		Dim:         d,
		MaxNodes:    m,
		Candidates:  p,
		Projections: opts.projections,
		MaxDepth:    opts.maxDepth,
		Seed:        seed,
		Distance:    dist,
		CostBound:   costBound,
		OnRebuild:   e.onRebuild,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfiguration, err)
	}
	e.tree = tree

	return e, nil
}

// NewWithDefaults creates an engine with p = d, m = DefaultSummarySize(k) and
// a time-based seed.
func NewWithDefaults(d, k int, optFns ...Option) (*Engine, error) {
	return New(d, k, d, DefaultSummarySize(k), uint64(time.Now().UnixNano()), optFns...) //nolint:gosec // seed
}

func (e *Engine) onRebuild(ev RebuildEvent) {
	e.metricsCollector.RecordRebuild(ev)
	e.logger.LogRebuild(context.Background(), ev)
}

// Dimension returns the dimensionality of accepted points.
func (e *Engine) Dimension() int { return e.dim }

// K returns the target cluster count.
func (e *Engine) K() int { return e.k }

// Seed returns the seed of the random projections.
func (e *Engine) Seed() uint64 { return e.seed }

// Insert adds one point. The point's weight is read through the engine's
// WeightPolicy; the point itself is not retained.
//
// Points with the wrong dimensionality, non-finite coordinates or a weight
// that is not a positive finite number are rejected with an error matching
// ErrInvalidInput, and the engine is left unchanged.
func (e *Engine) Insert(p *point.Point) error {
	if e.closed {
		return ErrClosed
	}

	start := time.Now()
	err := e.insert(p, -1)
	e.metricsCollector.RecordInsert(time.Since(start), err)
	if err != nil {
		e.logger.LogInsertRejected(context.Background(), err)
	}
	return err
}

func (e *Engine) insert(p *point.Point, row int) error {
	if p == nil {
		return &ErrInvalidPoint{Row: row, Reason: "nil point"}
	}
	coords := point.View(p)
	w := e.weights.Weight(p)
	if err := e.validate(coords, w, row); err != nil {
		return err
	}
	e.tree.Insert(coords, w)
	return nil
}

func (e *Engine) validate(coords []float64, weight float64, row int) error {
	if len(coords) != e.dim {
		return &ErrDimensionMismatch{Expected: e.dim, Actual: len(coords)}
	}
	for j, c := range coords {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return &ErrInvalidPoint{Row: row, Reason: fmt.Sprintf("coordinate %d is %v", j, c)}
		}
	}
	if !(weight > 0) || math.IsInf(weight, 1) {
		return &ErrInvalidPoint{Row: row, Reason: fmt.Sprintf("weight must be positive and finite, got %v", weight)}
	}
	return nil
}

// Compute extracts the current coreset. It never modifies the summary, so
// insertion may continue afterwards.
func (e *Engine) Compute() (*Solution, error) {
	if e.closed {
		return nil, ErrClosed
	}

	start := time.Now()
	leaves := e.tree.Leaves()

	s := &Solution{
		dim:     e.dim,
		weights: make([]float64, len(leaves)),
		coords:  make([]float64, len(leaves)*e.dim),
		policy:  e.weights,
	}
	for i, l := range leaves {
		s.weights[i] = l.Weight
		copy(s.coords[i*e.dim:], l.Centroid)
		s.total += l.Weight
		s.count += l.Count
	}
	s.elapsed = time.Since(start)

	e.metricsCollector.RecordCompute(len(leaves), s.elapsed)
	e.logger.LogCompute(context.Background(), len(leaves), s.count, s.elapsed)
	return s, nil
}

// Stats returns a summary of the engine. After Close only the configuration
// fields are populated.
func (e *Engine) Stats() Stats {
	s := Stats{
		Dimension:  e.dim,
		K:          e.k,
		MaxNodes:   e.maxNodes,
		Candidates: e.candidates,
		Metric:     e.metric,
	}
	if e.closed {
		return s
	}
	ts := e.tree.Stats()
	s.Nodes = ts.Nodes
	s.Leaves = ts.Leaves
	s.Depth = ts.Depth
	s.Pending = ts.Pending
	s.Threshold = ts.Threshold
	s.Rebuilds = ts.Rebuilds
	s.Points = ts.Points
	s.Weight = ts.Weight
	return s
}
