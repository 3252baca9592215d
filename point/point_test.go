package point

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew(t *testing.T) {
	coords := []float64{1, 2, 3}
	p := New(coords...)

	assert.Equal(t, 3, p.Dimension())
	assert.Equal(t, 1.0, p.Weight())
	assert.Equal(t, 2.0, p.At(1))

	// Construction copies the input.
	coords[0] = 42
	assert.Equal(t, 1.0, p.At(0))
}

func TestCoordinatesIsCopy(t *testing.T) {
	p := New(1, 2)
	c := p.Coordinates()
	c[0] = 99
	assert.Equal(t, []float64{1, 2}, p.Coordinates())
}

func TestNewWeighted(t *testing.T) {
	p := NewWeighted([]float64{0.5}, 3)
	assert.Equal(t, 3.0, p.Weight())

	p.SetWeight(7)
	assert.Equal(t, 7.0, p.Weight())
}

func TestWeightPolicies(t *testing.T) {
	p := NewWeighted([]float64{0}, 4)

	var def WeightPolicy = DefaultWeightPolicy{}
	assert.Equal(t, 4.0, def.Weight(p))
	def.SetWeight(p, 5)
	assert.Equal(t, 5.0, p.Weight())

	var unit WeightPolicy = UnitWeightPolicy{}
	assert.Equal(t, 1.0, unit.Weight(p))
	unit.SetWeight(p, 9)
	assert.Equal(t, 9.0, p.Weight())
}

func TestView(t *testing.T) {
	p := New(1, 2)
	assert.Equal(t, []float64{1, 2}, View(p))
}
