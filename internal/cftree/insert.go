package cftree

import (
	"math"
	"slices"
	"sort"

	"gonum.org/v1/gonum/floats"
)

func (t *Tree) project(v []float64) float64 {
	return floats.Dot(t.dirs[0], v)
}

// insert places f (with centroid rep) into the tree. When owned is true the
// tree may keep f.Sum and rep instead of copying them.
func (t *Tree) insert(f *Feature, rep []float64, owned bool) {
	key := t.project(rep)

	root := &t.nodes[0]
	root.feature.merge(root.rep, f, rep)
	root.feature.Centroid(root.rep)

	parent := int32(0)
	for level := 1; ; level++ {
		pos, child, d := t.nearest(parent, rep, key)
		if child < 0 || d > t.LevelThreshold(level) {
			t.addLeaf(parent, level, f, rep, key, owned)
			return
		}

		n := &t.nodes[child]
		if len(n.children) > 0 {
			t.absorb(parent, pos, f, rep)
			parent = child
			continue
		}

		if !t.cfg.CostBound || level >= t.cfg.MaxDepth ||
			n.feature.mergedSpread(n.rep, f, rep) <= t.threshold {
			t.absorb(parent, pos, f, rep)
			return
		}

		t.split(parent, pos, level, f, rep, key, owned)
		return
	}
}

// nearest returns the position within the parent's children, the arena index
// and the distance of the best matching child among at most Candidates
// children closest to key. child is -1 when the parent has no children; the
// first child considered wins when no distance is finite.
func (t *Tree) nearest(parent int32, rep []float64, key float64) (pos int, child int32, dist float64) {
	children := t.nodes[parent].children
	pos, child, dist = -1, -1, math.Inf(1)
	if len(children) == 0 {
		return pos, child, dist
	}

	consider := func(i int) {
		idx := children[i]
		if d := t.dist(rep, t.nodes[idx].rep); child < 0 || d < dist {
			pos, child, dist = i, idx, d
		}
	}

	if len(children) <= t.cfg.Candidates {
		for i := range children {
			consider(i)
		}
		return pos, child, dist
	}

	// Children are ordered by projection; expand outwards from key.
	hi := sort.Search(len(children), func(i int) bool {
		return t.nodes[children[i]].key >= key
	})
	lo := hi - 1
	for taken := 0; taken < t.cfg.Candidates; taken++ {
		switch {
		case lo < 0:
			consider(hi)
			hi++
		case hi >= len(children):
			consider(lo)
			lo--
		case key-t.nodes[children[lo]].key <= t.nodes[children[hi]].key-key:
			consider(lo)
			lo--
		default:
			consider(hi)
			hi++
		}
	}
	return pos, child, dist
}

// absorb merges f into the child at pos of parent and restores the
// projection order of the parent's children.
func (t *Tree) absorb(parent int32, pos int, f *Feature, rep []float64) {
	idx := t.nodes[parent].children[pos]
	n := &t.nodes[idx]
	n.feature.merge(n.rep, f, rep)
	n.feature.Centroid(n.rep)
	n.key = t.project(n.rep)
	t.reorder(parent, pos)
}

func (t *Tree) reorder(parent int32, pos int) {
	children := t.nodes[parent].children
	for pos > 0 && t.nodes[children[pos-1]].key > t.nodes[children[pos]].key {
		children[pos-1], children[pos] = children[pos], children[pos-1]
		pos--
	}
	for pos < len(children)-1 && t.nodes[children[pos+1]].key < t.nodes[children[pos]].key {
		children[pos+1], children[pos] = children[pos], children[pos+1]
		pos++
	}
}

func (t *Tree) alloc(n node) int32 {
	t.nodes = append(t.nodes, n)
	t.live++
	return int32(len(t.nodes) - 1) //nolint:gosec // bounded by MaxNodes
}

func (t *Tree) addLeaf(parent int32, level int, f *Feature, rep []float64, key float64, owned bool) {
	leaf := node{feature: *f, rep: rep, key: key, level: level}
	if !owned {
		leaf.feature = f.Clone()
		leaf.rep = slices.Clone(rep)
	}
	idx := t.alloc(leaf)

	children := t.nodes[parent].children
	at := sort.Search(len(children), func(i int) bool {
		return t.nodes[children[i]].key > key
	})
	t.nodes[parent].children = slices.Insert(children, at, idx)
}

// split turns the full leaf at pos into an internal node. Its points move to
// a new child leaf and f opens a sibling leaf next to it.
func (t *Tree) split(parent int32, pos int, level int, f *Feature, rep []float64, key float64, owned bool) {
	idx := t.nodes[parent].children[pos]
	full := &t.nodes[idx]
	moved := node{
		feature: full.feature.Clone(),
		rep:     slices.Clone(full.rep),
		key:     full.key,
		level:   level + 1,
	}
	movedIdx := t.alloc(moved)
	t.nodes[idx].children = []int32{movedIdx}

	t.absorb(parent, pos, f, rep)
	t.addLeaf(idx, level+1, f, rep, key, owned)
}
