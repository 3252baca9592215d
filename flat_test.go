package bico_test

import (
	"math"
	"testing"

	"github.com/hupe1980/bico"
	"github.com/hupe1980/bico/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddDataTwoPairs(t *testing.T) {
	e := newEngine(t, 2, 1, 2, 4, 42)
	require.NoError(t, e.AddData([]float64{0, 0, 0.01, 0, 10, 10, 10.01, 10}, 4))

	weights := make([]float64, 4)
	points := make([]float64, 8)
	n, err := e.ComputeInto(weights, points)
	require.NoError(t, err)
	require.Equal(t, 2, n)
	assert.InDelta(t, 2.0, weights[0], 1e-12)
	assert.InDelta(t, 2.0, weights[1], 1e-12)

	xs := []float64{points[0], points[2]}
	assert.InDelta(t, 10.01, xs[0]+xs[1], 1e-9)
}

func TestAddDataValidatesWholeBatch(t *testing.T) {
	tests := []struct {
		name string
		data []float64
		n    int
		kind any
	}{
		{"short", []float64{1, 2, 3}, 2, &bico.ErrDimensionMismatch{}},
		{"long", []float64{1, 2, 3, 4, 5}, 2, &bico.ErrDimensionMismatch{}},
		{"negative n", nil, -1, &bico.ErrInvalidPoint{}},
		{"nan in last row", []float64{1, 2, 3, 4, 5, math.NaN()}, 3, &bico.ErrInvalidPoint{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEngine(t, 2, 1, 1, 4, 1)
			err := e.AddData(tt.data, tt.n)
			require.Error(t, err)
			assert.ErrorIs(t, err, bico.ErrInvalidInput)
			assert.IsType(t, tt.kind, err)
			assert.Equal(t, 0, e.Stats().Nodes)
			assert.Equal(t, uint64(0), e.Stats().Points)
		})
	}
}

func TestAddDataRowInError(t *testing.T) {
	e := newEngine(t, 2, 1, 1, 4, 1)
	err := e.AddData([]float64{1, 2, 3, math.Inf(1)}, 2)

	var ip *bico.ErrInvalidPoint
	require.ErrorAs(t, err, &ip)
	assert.Equal(t, 1, ip.Row)
}

func TestAddDataEmpty(t *testing.T) {
	e := newEngine(t, 2, 1, 1, 4, 1)
	require.NoError(t, e.AddData(nil, 0))
	assert.Equal(t, 0, e.Stats().Nodes)
}

func TestAddPoint(t *testing.T) {
	e := newEngine(t, 3, 1, 1, 4, 1)
	require.NoError(t, e.AddPoint([]float64{1, 2, 3}))

	err := e.AddPoint([]float64{1, 2})
	assert.ErrorIs(t, err, bico.ErrInvalidInput)
	assert.Equal(t, uint64(1), e.Stats().Points)
}

func TestComputeIntoBufferTooSmall(t *testing.T) {
	rng := testutil.NewRNG(1)
	e := newEngine(t, 2, 1, 2, 8, 1)
	require.NoError(t, e.AddData(testutil.Flatten(rng.UniformPoints(5, 2)), 5))

	sol, err := e.Compute()
	require.NoError(t, err)
	size := sol.Size()
	require.Positive(t, size)

	t.Run("weights", func(t *testing.T) {
		weights := make([]float64, size-1)
		points := make([]float64, size*2)
		_, err := e.ComputeInto(weights, points)
		var bt *bico.ErrBufferTooSmall
		require.ErrorAs(t, err, &bt)
		assert.Equal(t, "weights", bt.Buffer)
		assert.Equal(t, size, bt.Need)
		assert.ErrorIs(t, err, bico.ErrOutOfRange)
		assert.Equal(t, make([]float64, size*2), points)
	})

	t.Run("points", func(t *testing.T) {
		weights := make([]float64, size)
		points := make([]float64, size*2-1)
		_, err := e.ComputeInto(weights, points)
		var bt *bico.ErrBufferTooSmall
		require.ErrorAs(t, err, &bt)
		assert.Equal(t, "points", bt.Buffer)
		assert.Equal(t, make([]float64, size), weights)
	})

	t.Run("oversized", func(t *testing.T) {
		weights := make([]float64, size+3)
		points := make([]float64, size*2+6)
		n, err := e.ComputeInto(weights, points)
		require.NoError(t, err)
		assert.Equal(t, size, n)
		assert.Equal(t, sol.Weights(), weights[:n])
		assert.Equal(t, sol.Flat(), points[:n*2])
	})
}
