package testutil

import (
	"math/rand"
	"sync"
)

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)), //nolint:gosec // test data
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Float64 returns a pseudo-random number in [0.0,1.0).
func (r *RNG) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Float64()
}

// UniformPoints generates num points with coordinates in [0, 1).
// Uses a single backing array for efficiency.
func (r *RNG) UniformPoints(num int, dimensions int) [][]float64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	data := make([]float64, num*dimensions)
	points := make([][]float64, num)
	for i := range num {
		p := data[i*dimensions : (i+1)*dimensions]
		for j := range p {
			p[j] = r.rand.Float64()
		}
		points[i] = p
	}
	return points
}

// Blobs generates perCenter points around each center, drawn from an
// isotropic Gaussian with the given standard deviation. Points are emitted
// center by center.
func (r *RNG) Blobs(centers [][]float64, perCenter int, stddev float64) [][]float64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(centers) == 0 {
		return nil
	}
	dimensions := len(centers[0])
	data := make([]float64, len(centers)*perCenter*dimensions)
	points := make([][]float64, 0, len(centers)*perCenter)

	off := 0
	for _, c := range centers {
		for range perCenter {
			p := data[off : off+dimensions]
			for j := range p {
				p[j] = c[j] + r.rand.NormFloat64()*stddev
			}
			points = append(points, p)
			off += dimensions
		}
	}
	return points
}

// Shuffle returns a shuffled copy of points (the rows are shared).
func (r *RNG) Shuffle(points [][]float64) [][]float64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([][]float64, len(points))
	copy(out, points)
	r.rand.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}

// Flatten concatenates points row-major into a single slice.
func Flatten(points [][]float64) []float64 {
	if len(points) == 0 {
		return nil
	}
	out := make([]float64, 0, len(points)*len(points[0]))
	for _, p := range points {
		out = append(out, p...)
	}
	return out
}
