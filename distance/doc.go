// Package distance provides the pluggable distance functions used to match
// points against clustering features.
//
// # Supported Metrics
//
//   - MetricSquaredL2: Squared Euclidean distance (default, the k-means setting)
//   - MetricL2: Euclidean distance
//   - MetricL1: Manhattan distance
//   - MetricChebyshev: Maximum coordinate difference
//
// # Usage
//
//	dist := distance.SquaredL2(a, b)
//	fn, _ := distance.Provider(distance.MetricL1)
//	d := fn(a, b)
package distance
