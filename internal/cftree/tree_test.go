package cftree

import (
	"math"
	"testing"

	"github.com/hupe1980/bico/distance"
	"github.com/hupe1980/bico/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTree(t *testing.T, cfg Config) *Tree {
	t.Helper()
	if cfg.Candidates == 0 {
		cfg.Candidates = 4
	}
	cfg.CostBound = true
	tree, err := New(cfg)
	require.NoError(t, err)
	return tree
}

// checkInvariants verifies the structural invariants of a bootstrapped tree.
func checkInvariants(t *testing.T, tree *Tree) {
	t.Helper()
	if !tree.bootstrapped {
		return
	}

	live := 0
	var leafWeight float64
	var leafCount uint64
	tree.walk(func(n *node) {
		live++
		if len(n.children) == 0 {
			leafWeight += n.feature.Weight
			leafCount += n.feature.Count
			return
		}
		var w float64
		for i, c := range n.children {
			w += tree.nodes[c].feature.Weight
			assert.Equal(t, n.level+1, tree.nodes[c].level)
			if i > 0 {
				assert.LessOrEqual(t, tree.nodes[n.children[i-1]].key, tree.nodes[c].key)
			}
		}
		assert.InDelta(t, n.feature.Weight, w, 1e-9*math.Max(1, w))
	})

	assert.Equal(t, tree.live, live)
	assert.LessOrEqual(t, live, tree.cfg.MaxNodes)
	assert.InDelta(t, tree.nodes[0].feature.Weight, leafWeight, 1e-9*math.Max(1, leafWeight))
	assert.Equal(t, tree.nodes[0].feature.Count, leafCount)
}

func sumWeights(leaves []Leaf) float64 {
	var w float64
	for _, l := range leaves {
		w += l.Weight
	}
	return w
}

func TestNew_InvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"ZeroDim", Config{Dim: 0, MaxNodes: 1, Candidates: 1}},
		{"ZeroNodes", Config{Dim: 1, MaxNodes: 0, Candidates: 1}},
		{"ZeroCandidates", Config{Dim: 1, MaxNodes: 1, Candidates: 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.cfg)
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestNew_Defaults(t *testing.T) {
	tree, err := New(Config{Dim: 3, MaxNodes: 10, Candidates: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, tree.cfg.Projections)
	assert.Equal(t, DefaultMaxDepth, tree.cfg.MaxDepth)
	assert.NotNil(t, tree.cfg.Distance)
	assert.Len(t, tree.dirs, 3)
	for _, d := range tree.dirs {
		var n float64
		for _, v := range d {
			n += v * v
		}
		assert.InDelta(t, 1.0, n, 1e-9)
	}
}

func TestEmptyTree(t *testing.T) {
	tree := newTestTree(t, Config{Dim: 2, MaxNodes: 4})
	assert.Nil(t, tree.Leaves())
	assert.Equal(t, 0, tree.Nodes())
	assert.Equal(t, Stats{}, tree.Stats())
}

func TestTwoPairs(t *testing.T) {
	tree := newTestTree(t, Config{Dim: 2, MaxNodes: 4, Seed: 42, Candidates: 2})
	tree.Insert([]float64{0, 0}, 1)
	tree.Insert([]float64{0.01, 0}, 1)
	tree.Insert([]float64{10, 10}, 1)
	tree.Insert([]float64{10.01, 10}, 1)

	leaves := tree.Leaves()
	require.Len(t, leaves, 2)

	// Buffered points are untouched by Leaves.
	assert.Equal(t, 4, tree.Stats().Pending)
	assert.False(t, tree.bootstrapped)

	byX := map[bool]Leaf{}
	for _, l := range leaves {
		assert.Equal(t, 2.0, l.Weight)
		assert.Equal(t, uint64(2), l.Count)
		byX[l.Centroid[0] > 5] = l
	}
	assert.InDelta(t, 0.005, byX[false].Centroid[0], 1e-9)
	assert.InDelta(t, 0.0, byX[false].Centroid[1], 1e-9)
	assert.InDelta(t, 10.005, byX[true].Centroid[0], 1e-9)
	assert.InDelta(t, 10.0, byX[true].Centroid[1], 1e-9)
}

func TestSinglePoint(t *testing.T) {
	tree := newTestTree(t, Config{Dim: 3, MaxNodes: 8})
	tree.Insert([]float64{1, 2, 3}, 1)

	leaves := tree.Leaves()
	require.Len(t, leaves, 1)
	assert.Equal(t, 1.0, leaves[0].Weight)
	assert.Equal(t, []float64{1, 2, 3}, leaves[0].Centroid)
}

func TestInsertCopiesCoordinates(t *testing.T) {
	tree := newTestTree(t, Config{Dim: 2, MaxNodes: 1})
	a := []float64{1, 1}
	tree.Insert(a, 1)
	a[0] = 100
	b := []float64{1.5, 1}
	tree.Insert(b, 1)
	b[0] = -100

	leaves := tree.Leaves()
	require.Len(t, leaves, 1)
	assert.InDelta(t, 1.25, leaves[0].Centroid[0], 1e-12)
}

func TestMemoryBoundAndConservation(t *testing.T) {
	rng := testutil.NewRNG(11)
	centers := [][]float64{{0, 0, 0}, {5, 5, 5}, {-5, 5, 0}, {20, -3, 1}}
	points := rng.Shuffle(rng.Blobs(centers, 500, 0.7))

	for _, m := range []int{1, 2, 7, 32, 128} {
		tree := newTestTree(t, Config{Dim: 3, MaxNodes: m, Seed: 5, Candidates: 3})

		var prev float64
		for i, p := range points {
			tree.Insert(p, 1)
			require.LessOrEqual(t, tree.Nodes(), m, "m=%d after %d inserts", m, i+1)
			require.GreaterOrEqual(t, tree.Threshold(), prev)
			prev = tree.Threshold()
		}

		checkInvariants(t, tree)
		leaves := tree.Leaves()
		assert.LessOrEqual(t, len(leaves), m)
		assert.InDelta(t, float64(len(points)), sumWeights(leaves), 1e-6)

		stats := tree.Stats()
		assert.Equal(t, uint64(len(points)), stats.Points)
		assert.Equal(t, len(leaves), stats.Leaves)
		assert.Positive(t, stats.Rebuilds)
	}
}

func TestWeightedInsertConservation(t *testing.T) {
	rng := testutil.NewRNG(2)
	points := rng.UniformPoints(400, 2)

	tree := newTestTree(t, Config{Dim: 2, MaxNodes: 16, Seed: 9})
	var total float64
	for i, p := range points {
		w := float64(i%5) + 0.5
		total += w
		tree.Insert(p, w)
	}

	checkInvariants(t, tree)
	assert.InDelta(t, total, sumWeights(tree.Leaves()), 1e-6)
}

func TestLevelThresholdHalvesPerLevel(t *testing.T) {
	tree := newTestTree(t, Config{Dim: 1, MaxNodes: 2})
	tree.threshold = 8
	assert.Equal(t, 8.0, tree.LevelThreshold(1))
	assert.Equal(t, 4.0, tree.LevelThreshold(2))
	assert.Equal(t, 1.0, tree.LevelThreshold(4))
}

func TestRebuildDoublesThreshold(t *testing.T) {
	var events []RebuildEvent
	tree := newTestTree(t, Config{
		Dim:       1,
		MaxNodes:  3,
		OnRebuild: func(ev RebuildEvent) { events = append(events, ev) },
	})

	for _, x := range []float64{0, 1, 3, 7, 15, 31, 63} {
		tree.Insert([]float64{x}, 1)
	}

	require.NotEmpty(t, events)
	for _, ev := range events {
		assert.GreaterOrEqual(t, ev.ThresholdAfter, 2*ev.ThresholdBefore)
		assert.LessOrEqual(t, ev.NodesAfter, 3)
		assert.Greater(t, ev.NodesBefore, 3)
		assert.Positive(t, ev.Rounds)
	}
	assert.InDelta(t, 7.0, sumWeights(tree.Leaves()), 1e-12)
	checkInvariants(t, tree)
}

func TestRebuildFromZeroThreshold(t *testing.T) {
	tree := newTestTree(t, Config{Dim: 1, MaxNodes: 2})

	// Identical points give no positive bootstrap distance.
	tree.Insert([]float64{1}, 1)
	tree.Insert([]float64{1}, 1)
	tree.Insert([]float64{1}, 1)
	assert.Equal(t, 0.0, tree.Threshold())
	require.Len(t, tree.Leaves(), 1)

	tree.Insert([]float64{2}, 1)
	tree.Insert([]float64{4}, 1)
	assert.Positive(t, tree.Threshold())
	assert.LessOrEqual(t, tree.Nodes(), 2)
	assert.InDelta(t, 5.0, sumWeights(tree.Leaves()), 1e-12)
	checkInvariants(t, tree)
}

func TestDeterminism(t *testing.T) {
	rng := testutil.NewRNG(21)
	points := rng.UniformPoints(1000, 4)

	run := func(seed uint64) []Leaf {
		tree := newTestTree(t, Config{Dim: 4, MaxNodes: 40, Seed: seed, Candidates: 2})
		for _, p := range points {
			tree.Insert(p, 1)
		}
		return tree.Leaves()
	}

	assert.Equal(t, run(3), run(3))
}

func TestPermutationKeepsBounds(t *testing.T) {
	rng := testutil.NewRNG(8)
	points := rng.Blobs([][]float64{{0, 0}, {3, 3}}, 300, 0.5)

	for i := range 5 {
		shuffled := rng.Shuffle(points)
		tree := newTestTree(t, Config{Dim: 2, MaxNodes: 25, Seed: uint64(i)})
		for _, p := range shuffled {
			tree.Insert(p, 1)
		}
		leaves := tree.Leaves()
		assert.LessOrEqual(t, len(leaves), 25)
		assert.InDelta(t, 600.0, sumWeights(leaves), 1e-9)
		checkInvariants(t, tree)
	}
}

func TestCandidatesLimit(t *testing.T) {
	rng := testutil.NewRNG(4)
	points := rng.UniformPoints(500, 2)

	for _, p := range []int{1, 2, 64} {
		tree := newTestTree(t, Config{Dim: 2, MaxNodes: 50, Seed: 1, Candidates: p})
		for _, x := range points {
			tree.Insert(x, 1)
		}
		checkInvariants(t, tree)
		assert.InDelta(t, 500.0, sumWeights(tree.Leaves()), 1e-9)
	}
}

func TestCostBoundSplitsLeaves(t *testing.T) {
	tree := newTestTree(t, Config{Dim: 1, MaxNodes: 16, Candidates: 8})
	tree.bootstrapped = true
	tree.threshold = 1

	// Within the level-1 radius but the merged spread exceeds T.
	tree.Insert([]float64{0}, 10)
	tree.Insert([]float64{0.9}, 10)

	stats := tree.Stats()
	assert.Equal(t, 3, stats.Nodes)
	assert.Equal(t, 2, stats.Leaves)
	assert.Equal(t, 2, stats.Depth)
	checkInvariants(t, tree)
}

func TestMaxDepthStopsSplitting(t *testing.T) {
	tree := newTestTree(t, Config{Dim: 1, MaxNodes: 16, Candidates: 8, MaxDepth: 1})
	tree.bootstrapped = true
	tree.threshold = 1

	tree.Insert([]float64{0}, 10)
	tree.Insert([]float64{0.9}, 10)

	stats := tree.Stats()
	assert.Equal(t, 1, stats.Nodes)
	assert.Equal(t, 1, stats.Depth)
}

func TestNonSquaredMetricWithoutCostBound(t *testing.T) {
	tree, err := New(Config{Dim: 2, MaxNodes: 10, Candidates: 3, Distance: distance.L1})
	require.NoError(t, err)

	rng := testutil.NewRNG(5)
	for _, p := range rng.UniformPoints(300, 2) {
		tree.Insert(p, 1)
	}
	assert.LessOrEqual(t, tree.Nodes(), 10)
	assert.InDelta(t, 300.0, sumWeights(tree.Leaves()), 1e-9)
	checkInvariants(t, tree)
}

func TestEstimateThreshold(t *testing.T) {
	tree := newTestTree(t, Config{Dim: 1, MaxNodes: 10, Projections: 2})
	entries := []entry{
		{feature: NewFeature([]float64{0}, 1), rep: []float64{0}},
		{feature: NewFeature([]float64{4}, 1), rep: []float64{4}},
		{feature: NewFeature([]float64{1}, 1), rep: []float64{1}},
		{feature: NewFeature([]float64{1}, 1), rep: []float64{1}},
	}
	// In one dimension every projection preserves order; the closest
	// distinct pair is (0, 1) at squared distance 1.
	assert.Equal(t, 2.0, tree.estimateThreshold(entries))
	assert.Equal(t, 0.0, tree.estimateThreshold(entries[:1]))
	assert.Equal(t, 0.0, tree.estimateThreshold(entries[2:]))
}

func TestOverflowingDistancesKeepBound(t *testing.T) {
	tests := []struct {
		name     string
		maxNodes int
		points   []float64
	}{
		{name: "at bootstrap", maxNodes: 1, points: []float64{1e200, -1e200, 3}},
		{name: "after bootstrap", maxNodes: 2, points: []float64{0, 1, 2, 1e200, -1e200, 5}},
		{name: "large budget", maxNodes: 3, points: []float64{-1e200, 1e200, -1e200, 1e200, 0, 7}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree := newTestTree(t, Config{Dim: 1, MaxNodes: tt.maxNodes, Seed: 7})
			for i, x := range tt.points {
				tree.Insert([]float64{x}, 1)
				require.LessOrEqual(t, tree.Nodes(), tt.maxNodes, "after insert %d", i)
			}

			leaves := tree.Leaves()
			assert.LessOrEqual(t, len(leaves), tt.maxNodes)
			assert.InDelta(t, float64(len(tt.points)), sumWeights(leaves), 1e-12)
			assert.Equal(t, uint64(len(tt.points)), tree.Stats().Points)
		})
	}
}

func TestNearestFallsBackOnInfiniteDistance(t *testing.T) {
	tree := newTestTree(t, Config{Dim: 1, MaxNodes: 4, Distance: func(_, _ []float64) float64 { return math.Inf(1) }})
	tree.bootstrapped = true
	tree.threshold = 1
	tree.insert(&Feature{Count: 1, Weight: 1, Sum: []float64{0}}, []float64{0}, false)

	pos, child, d := tree.nearest(0, []float64{5}, 5)
	assert.Equal(t, 0, pos)
	assert.Equal(t, int32(1), child)
	assert.True(t, math.IsInf(d, 1))
}

func TestEstimateThresholdOverflow(t *testing.T) {
	tree := newTestTree(t, Config{Dim: 1, MaxNodes: 10})
	entries := []entry{
		{feature: NewFeature([]float64{-1e200}, 1), rep: []float64{-1e200}},
		{feature: NewFeature([]float64{1e200}, 1), rep: []float64{1e200}},
	}
	assert.True(t, math.IsInf(tree.estimateThreshold(entries), 1))
}
