package cftree

import (
	"math"
	"slices"
	"time"

	"gonum.org/v1/gonum/floats"
)

// rebuild doubles the base threshold and re-inserts every leaf feature until
// the live node count is back within MaxNodes. Total weight is preserved
// exactly: leaf features are only merged, never dropped.
func (t *Tree) rebuild() {
	start := time.Now()
	before := t.threshold
	nodesBefore := t.live
	rounds := 0

	for t.live > t.cfg.MaxNodes {
		entries := t.collectLeaves()

		switch {
		case t.threshold == 0:
			t.threshold = t.estimateThreshold(entries)
			if t.threshold == 0 {
				t.threshold = math.SmallestNonzeroFloat64
			}
		default:
			t.threshold *= 2
		}

		t.reset()
		for i := range entries {
			t.insert(&entries[i].feature, entries[i].rep, true)
		}
		rounds++

		if math.IsInf(t.threshold, 1) && t.live > t.cfg.MaxNodes {
			// Distances overflowed; nothing is left to double.
			t.collapse(t.collectLeaves())
		}
	}

	t.rebuilds++
	if t.cfg.OnRebuild != nil {
		t.cfg.OnRebuild(RebuildEvent{
			ThresholdBefore: before,
			ThresholdAfter:  t.threshold,
			NodesBefore:     nodesBefore,
			NodesAfter:      t.live,
			Rounds:          rounds,
			Duration:        time.Since(start),
		})
	}
}

// collectLeaves moves the leaf features out of the arena in depth-first order.
func (t *Tree) collectLeaves() []entry {
	entries := make([]entry, 0, t.live)
	t.walk(func(n *node) {
		if len(n.children) == 0 {
			entries = append(entries, entry{feature: n.feature, rep: n.rep})
		}
	})
	return entries
}

// collapse replaces the tree with a single leaf holding all entries.
func (t *Tree) collapse(entries []entry) {
	f := entries[0].feature.Clone()
	rep := slices.Clone(entries[0].rep)
	for i := 1; i < len(entries); i++ {
		f.merge(rep, &entries[i].feature, entries[i].rep)
		f.Centroid(rep)
	}
	t.reset()
	t.insert(&f, rep, true)
}

// estimateThreshold returns twice the smallest positive distance between
// representatives that are adjacent along one of the random projections, or
// zero when all representatives coincide. It is +Inf when every positive
// distance overflows.
func (t *Tree) estimateThreshold(entries []entry) float64 {
	if len(entries) < 2 {
		return 0
	}

	best := math.Inf(1)
	overflow := false
	keys := make([]float64, len(entries))
	order := make([]int, len(entries))
	for _, dir := range t.dirs {
		for i := range entries {
			keys[i] = floats.Dot(dir, entries[i].rep)
			order[i] = i
		}
		slices.SortStableFunc(order, func(a, b int) int {
			switch {
			case keys[a] < keys[b]:
				return -1
			case keys[a] > keys[b]:
				return 1
			default:
				return 0
			}
		})
		for j := 1; j < len(order); j++ {
			d := t.dist(entries[order[j-1]].rep, entries[order[j]].rep)
			switch {
			case math.IsInf(d, 1):
				overflow = true
			case d > 0 && d < best:
				best = d
			}
		}
	}

	if math.IsInf(best, 1) {
		if overflow {
			return best
		}
		return 0
	}
	return 2 * best
}
