package distance

import (
	"fmt"
	"math"
	"strings"

	"github.com/viterin/vek"
	"gonum.org/v1/gonum/floats"
)

// SquaredL2 calculates the squared L2 (Euclidean) distance between two vectors.
// Assumes vectors are the same length (caller's responsibility).
//
// Squared L2 does not satisfy the triangle inequality. The coreset tree
// tolerates this; the level thresholds are expressed in the same squared units.
func SquaredL2(a, b []float64) float64 {
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}

// L2 calculates the Euclidean distance between two vectors.
// Assumes vectors are the same length (caller's responsibility).
func L2(a, b []float64) float64 {
	return vek.Distance(a, b)
}

// L1 calculates the Manhattan distance between two vectors.
func L1(a, b []float64) float64 {
	return floats.Distance(a, b, 1)
}

// Chebyshev calculates the maximum absolute coordinate difference.
func Chebyshev(a, b []float64) float64 {
	return floats.Distance(a, b, math.Inf(1))
}

// Metric represents the distance metric used for point comparison.
type Metric int

const (
	MetricSquaredL2 Metric = iota
	MetricL2
	MetricL1
	MetricChebyshev
)

func (m Metric) String() string {
	switch m {
	case MetricSquaredL2:
		return "SquaredL2"
	case MetricL2:
		return "L2"
	case MetricL1:
		return "L1"
	case MetricChebyshev:
		return "Chebyshev"
	default:
		return fmt.Sprintf("Unknown(%d)", m)
	}
}

// IsSquaredEuclidean reports whether distances produced by m are in the same
// units as the k-means cost of a clustering feature.
func (m Metric) IsSquaredEuclidean() bool {
	return m == MetricSquaredL2
}

// ParseMetric returns the metric with the given (case-insensitive) name.
func ParseMetric(name string) (Metric, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "squaredl2", "squared_l2", "sql2", "kmeans":
		return MetricSquaredL2, nil
	case "l2", "euclidean":
		return MetricL2, nil
	case "l1", "manhattan":
		return MetricL1, nil
	case "chebyshev", "linf", "max":
		return MetricChebyshev, nil
	default:
		return 0, fmt.Errorf("unknown metric %q", name)
	}
}

// Func is a function type for distance calculation.
//
// Implementations must be stateless: the same function value is shared by
// every insert of an engine.
type Func func(a, b []float64) float64

// Provider returns the distance function for the given metric.
func Provider(m Metric) (Func, error) {
	switch m {
	case MetricSquaredL2:
		return SquaredL2, nil
	case MetricL2:
		return L2, nil
	case MetricL1:
		return L1, nil
	case MetricChebyshev:
		return Chebyshev, nil
	default:
		return nil, fmt.Errorf("unsupported metric: %v", m)
	}
}
