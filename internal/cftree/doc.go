// Package cftree implements the bounded-memory clustering feature tree that
// backs the streaming coreset engine.
//
// Every node summarizes the points of its subtree as a Feature (count, total
// weight, weighted coordinate sum and k-means spread). Leaves partition the
// inserted points and form the coreset; internal nodes only route inserts.
//
// # Levels and thresholds
//
// A node at level l (the root's children are level 1) accepts a point when the
// distance to its representative is at most T / 2^(l-1), where T is the tree's
// base threshold. When the number of live nodes exceeds the memory bound, the
// tree is rebuilt: T doubles (so every level threshold doubles) and all leaf
// features are re-inserted, merging those that now fall within reach.
//
// # Bootstrap
//
// The first MaxNodes points are buffered. When the buffer overflows, the
// initial T is estimated from the closest pair among projection-adjacent
// buffered points, so early inserts neither all collapse into one node nor all
// stay apart.
//
// # Concurrency
//
// A Tree is not safe for concurrent use.
package cftree
