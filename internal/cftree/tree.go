package cftree

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"slices"
	"time"

	"github.com/hupe1980/bico/distance"
	"gonum.org/v1/gonum/floats"
)

// DefaultMaxDepth bounds the height of the tree when Config.MaxDepth is unset.
const DefaultMaxDepth = 32

// ErrInvalidConfig is returned by New for out-of-range configuration values.
var ErrInvalidConfig = errors.New("cftree: invalid config")

// Config configures a Tree.
type Config struct {
	// Dim is the dimensionality of every inserted point.
	Dim int
	// MaxNodes is the hard bound on live (non-root) nodes.
	MaxNodes int
	// Candidates is the maximum number of children evaluated with the
	// distance function per matching step.
	Candidates int
	// Projections is the number of random directions used to estimate the
	// initial threshold. Defaults to Dim.
	Projections int
	// MaxDepth bounds the number of levels below the root.
	MaxDepth int
	// Seed drives the random projection directions.
	Seed uint64
	// Distance matches points against node representatives.
	// Defaults to distance.SquaredL2.
	Distance distance.Func
	// CostBound limits the k-means spread of a leaf to the base threshold.
	// Only meaningful when Distance is squared Euclidean.
	CostBound bool
	// OnRebuild, when set, is called after every rebuild.
	OnRebuild func(RebuildEvent)
}

func (c *Config) normalize() error {
	if c.Dim < 1 {
		return fmt.Errorf("%w: dimension must be at least 1, got %d", ErrInvalidConfig, c.Dim)
	}
	if c.MaxNodes < 1 {
		return fmt.Errorf("%w: max nodes must be at least 1, got %d", ErrInvalidConfig, c.MaxNodes)
	}
	if c.Candidates < 1 {
		return fmt.Errorf("%w: candidates must be at least 1, got %d", ErrInvalidConfig, c.Candidates)
	}
	if c.Projections <= 0 {
		c.Projections = c.Dim
	}
	if c.MaxDepth <= 0 {
		c.MaxDepth = DefaultMaxDepth
	}
	if c.Distance == nil {
		c.Distance = distance.SquaredL2
	}
	return nil
}

// RebuildEvent describes a completed rebuild.
type RebuildEvent struct {
	ThresholdBefore float64
	ThresholdAfter  float64
	NodesBefore     int
	NodesAfter      int
	Rounds          int
	Duration        time.Duration
}

// Leaf is a detached copy of a leaf feature.
type Leaf struct {
	Count    uint64
	Weight   float64
	Centroid []float64
}

// Stats is a point-in-time summary of a Tree.
type Stats struct {
	Nodes     int
	Leaves    int
	Depth     int
	Pending   int
	Threshold float64
	Rebuilds  int
	Points    uint64
	Weight    float64
}

type node struct {
	feature  Feature
	rep      []float64 // centroid of feature
	key      float64   // projection of rep onto the primary direction
	level    int
	children []int32 // sorted by key
}

type entry struct {
	feature Feature
	rep     []float64
}

// Tree is an arena-backed clustering feature tree with a hard node bound.
type Tree struct {
	cfg  Config
	dist distance.Func
	dirs [][]float64

	nodes     []node // nodes[0] is the root sentinel
	live      int
	threshold float64
	rebuilds  int

	bootstrapped bool
	pending      []entry

	probe    Feature
	probeRep []float64
}

// New creates an empty tree.
func New(cfg Config) (*Tree, error) {
	if err := cfg.normalize(); err != nil {
		return nil, err
	}

	t := &Tree{
		cfg:      cfg,
		dist:     cfg.Distance,
		dirs:     randomDirections(cfg.Seed, cfg.Projections, cfg.Dim),
		probe:    Feature{Sum: make([]float64, cfg.Dim)},
		probeRep: make([]float64, cfg.Dim),
	}
	t.reset()
	return t, nil
}

// randomDirections draws n unit vectors of dimension dim from a seeded source.
func randomDirections(seed uint64, n, dim int) [][]float64 {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	dirs := make([][]float64, n)
	for i := range dirs {
		v := make([]float64, dim)
		for {
			for j := range v {
				v[j] = rng.NormFloat64()
			}
			if norm := floats.Norm(v, 2); norm > 0 {
				floats.Scale(1/norm, v)
				break
			}
		}
		dirs[i] = v
	}
	return dirs
}

func (t *Tree) reset() {
	if cap(t.nodes) == 0 {
		t.nodes = make([]node, 1, t.cfg.MaxNodes+3)
	} else {
		clear(t.nodes)
		t.nodes = t.nodes[:1]
	}
	t.nodes[0] = node{
		feature: Feature{Sum: make([]float64, t.cfg.Dim)},
		rep:     make([]float64, t.cfg.Dim),
	}
	t.live = 0
}

// Threshold returns the base threshold T. It is zero until the tree has
// bootstrapped.
func (t *Tree) Threshold() float64 { return t.threshold }

// LevelThreshold returns the matching threshold of the given level (>= 1).
// It halves with every level, so deeper nodes are tighter; it is
// non-decreasing over time because T only grows. See "Level thresholds" in
// DESIGN.md.
func (t *Tree) LevelThreshold(level int) float64 {
	return math.Ldexp(t.threshold, 1-level)
}

// Nodes returns the number of live nodes, including buffered points.
func (t *Tree) Nodes() int {
	if !t.bootstrapped {
		return len(t.pending)
	}
	return t.live
}

// Insert adds a weighted point. Coordinates are copied; the caller keeps
// ownership of coords.
func (t *Tree) Insert(coords []float64, weight float64) {
	if !t.bootstrapped {
		t.pending = append(t.pending, entry{
			feature: NewFeature(coords, weight),
			rep:     slices.Clone(coords),
		})
		if len(t.pending) > t.cfg.MaxNodes {
			t.bootstrap()
		}
		return
	}

	t.probe.set(coords, weight)
	copy(t.probeRep, coords)
	t.insert(&t.probe, t.probeRep, false)

	if t.live > t.cfg.MaxNodes {
		t.rebuild()
	}
}

func (t *Tree) bootstrap() {
	pending := t.pending
	t.pending = nil
	t.bootstrapped = true
	t.threshold = t.estimateThreshold(pending)

	for i := range pending {
		t.insert(&pending[i].feature, pending[i].rep, true)
	}
	if t.live > t.cfg.MaxNodes {
		t.rebuild()
	}
}

// Leaves returns detached copies of all leaf features in depth-first order.
// It does not modify the tree, also while points are still buffered.
func (t *Tree) Leaves() []Leaf {
	if !t.bootstrapped {
		if len(t.pending) == 0 {
			return nil
		}
		return t.scratch().Leaves()
	}

	var leaves []Leaf
	t.walk(func(n *node) {
		if len(n.children) == 0 {
			leaves = append(leaves, Leaf{
				Count:    n.feature.Count,
				Weight:   n.feature.Weight,
				Centroid: slices.Clone(n.rep),
			})
		}
	})
	return leaves
}

// scratch returns a bootstrapped copy of a tree that is still buffering.
func (t *Tree) scratch() *Tree {
	s := &Tree{
		cfg:      t.cfg,
		dist:     t.dist,
		dirs:     t.dirs,
		probe:    Feature{Sum: make([]float64, t.cfg.Dim)},
		probeRep: make([]float64, t.cfg.Dim),
	}
	s.cfg.OnRebuild = nil
	s.reset()

	s.pending = make([]entry, len(t.pending))
	for i, e := range t.pending {
		s.pending[i] = entry{feature: e.feature.Clone(), rep: slices.Clone(e.rep)}
	}
	s.bootstrap()
	return s
}

// walk visits every non-root node in depth-first order.
func (t *Tree) walk(fn func(n *node)) {
	stack := make([]int32, 0, 64)
	root := t.nodes[0].children
	for i := len(root) - 1; i >= 0; i-- {
		stack = append(stack, root[i])
	}
	for len(stack) > 0 {
		idx := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		n := &t.nodes[idx]
		fn(n)
		for i := len(n.children) - 1; i >= 0; i-- {
			stack = append(stack, n.children[i])
		}
	}
}

// Stats returns a summary of the tree.
func (t *Tree) Stats() Stats {
	s := Stats{
		Threshold: t.threshold,
		Rebuilds:  t.rebuilds,
		Pending:   len(t.pending),
	}
	if !t.bootstrapped {
		s.Nodes = len(t.pending)
		s.Leaves = len(t.pending)
		if len(t.pending) > 0 {
			s.Depth = 1
		}
		for i := range t.pending {
			s.Points += t.pending[i].feature.Count
			s.Weight += t.pending[i].feature.Weight
		}
		return s
	}

	s.Nodes = t.live
	s.Points = t.nodes[0].feature.Count
	s.Weight = t.nodes[0].feature.Weight
	t.walk(func(n *node) {
		if len(n.children) == 0 {
			s.Leaves++
		}
		if n.level > s.Depth {
			s.Depth = n.level
		}
	})
	return s
}
