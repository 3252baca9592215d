package bico_test

import (
	"testing"

	"github.com/hupe1980/bico"
	"github.com/hupe1980/bico/point"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type doubledWeightPolicy struct{}

func (doubledWeightPolicy) Weight(p *point.Point) float64 { return p.Weight() }
func (doubledWeightPolicy) SetWeight(p *point.Point, w float64) { p.SetWeight(2 * w) }

func TestSolutionOutOfRange(t *testing.T) {
	e := newEngine(t, 2, 1, 2, 4, 1)
	require.NoError(t, e.Insert(point.New(1, 2)))
	sol, err := e.Compute()
	require.NoError(t, err)

	for _, idx := range []int{-1, 1, 100} {
		_, err := sol.Weight(idx)
		assert.ErrorIs(t, err, bico.ErrOutOfRange)

		_, err = sol.Coordinates(idx)
		assert.ErrorIs(t, err, bico.ErrOutOfRange)

		_, err = sol.Point(idx)
		var ie *bico.ErrIndexOutOfRange
		require.ErrorAs(t, err, &ie)
		assert.Equal(t, idx, ie.Index)
		assert.Equal(t, 1, ie.Size)
	}
}

func TestSolutionEmptyIndex(t *testing.T) {
	e := newEngine(t, 2, 1, 2, 4, 1)
	sol, err := e.Compute()
	require.NoError(t, err)

	_, err = sol.Weight(0)
	assert.ErrorIs(t, err, bico.ErrOutOfRange)
}

func TestSolutionPointUsesWeightPolicy(t *testing.T) {
	e := newEngine(t, 2, 1, 2, 4, 1, bico.WithWeightPolicy(doubledWeightPolicy{}))
	require.NoError(t, e.Insert(point.NewWeighted([]float64{3, 4}, 1.5)))

	sol, err := e.Compute()
	require.NoError(t, err)

	p, err := sol.Point(0)
	require.NoError(t, err)
	assert.Equal(t, []float64{3, 4}, p.Coordinates())
	assert.Equal(t, 3.0, p.Weight())
}

func TestSolutionDetached(t *testing.T) {
	e := newEngine(t, 2, 1, 2, 4, 1)
	require.NoError(t, e.Insert(point.New(1, 1)))
	sol, err := e.Compute()
	require.NoError(t, err)

	c, err := sol.Coordinates(0)
	require.NoError(t, err)
	c[0] = 99

	again, err := sol.Coordinates(0)
	require.NoError(t, err)
	assert.Equal(t, 1.0, again[0])

	require.NoError(t, e.Insert(point.New(5, 5)))
	require.NoError(t, e.Close())
	assert.Equal(t, 1, sol.Size())
	assert.GreaterOrEqual(t, int64(sol.Elapsed()), int64(0))
}

func TestNewSolution(t *testing.T) {
	sol, err := bico.NewSolution(2, []float64{1, 3}, []float64{0, 0, 1, 1})
	require.NoError(t, err)
	assert.Equal(t, 2, sol.Size())
	assert.Equal(t, 4.0, sol.TotalWeight())
	assert.Equal(t, uint64(0), sol.Count())

	c, err := sol.Coordinates(1)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 1}, c)

	tests := []struct {
		name    string
		dim     int
		weights []float64
		coords  []float64
		kind    error
	}{
		{"zero dim", 0, nil, nil, bico.ErrInvalidConfiguration},
		{"shape", 2, []float64{1}, []float64{1, 2, 3}, bico.ErrInvalidInput},
		{"zero weight", 1, []float64{0}, []float64{1}, bico.ErrInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := bico.NewSolution(tt.dim, tt.weights, tt.coords)
			assert.ErrorIs(t, err, tt.kind)
		})
	}
}
