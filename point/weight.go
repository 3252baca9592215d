package point

// WeightPolicy reads and writes the scalar weight of a point.
//
// Policies are stateless strategy objects selected once when an engine is
// created. They must not hold per-call mutable state.
type WeightPolicy interface {
	Weight(p *Point) float64
	SetWeight(p *Point, w float64)
}

// DefaultWeightPolicy stores the weight on the point itself.
type DefaultWeightPolicy struct{}

// Weight implements WeightPolicy.
func (DefaultWeightPolicy) Weight(p *Point) float64 { return p.Weight() }

// SetWeight implements WeightPolicy.
func (DefaultWeightPolicy) SetWeight(p *Point, w float64) { p.SetWeight(w) }

// UnitWeightPolicy treats every point as a single observation and ignores
// weights stored on the point. SetWeight still records the value so that
// solution points carry their aggregated weight.
type UnitWeightPolicy struct{}

// Weight implements WeightPolicy.
func (UnitWeightPolicy) Weight(*Point) float64 { return 1 }

// SetWeight implements WeightPolicy.
func (UnitWeightPolicy) SetWeight(p *Point, w float64) { p.SetWeight(w) }
