package particle

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// DimensionController owns the particle population of one state dimension:
// N scalar hypotheses plus N weights. Implementations hide the topology of
// the dimension (a bounded line or a wrap-around circle).
//
// The value and weight slices always have the same length, fixed at
// construction.
type DimensionController interface {
	// Len returns the particle count N.
	Len() int
	// Bounds returns the closed range of valid values. Circular controllers
	// return [0, 360].
	Bounds() (min, max float64)

	// Values returns a copy of the particle values.
	Values() []float64
	// SetValues replaces every particle value.
	SetValues(values []float64) error
	// ValueAt returns the value of particle i.
	ValueAt(i int) float64
	// SetValueAt replaces the value of particle i.
	SetValueAt(i int, v float64) error

	// Weights returns a copy of the particle weights.
	Weights() []float64
	// SetWeights replaces every weight.
	SetWeights(weights []float64) error
	// WeightAt returns the weight of particle i.
	WeightAt(i int) float64
	// SetWeightAt replaces the weight of particle i.
	SetWeightAt(i int, w float64) error
	// MultiplyWeightAt scales the weight of particle i by f.
	MultiplyWeightAt(i int, f float64)
	// ResetWeights sets every weight to 1.
	ResetWeights()
	// WeightSum returns Σ weights.
	WeightSum() float64
	// NormalizeWeights divides every weight by Σ weights. It fails with
	// ErrDivideByZero when the sum is below WeightEpsilon.
	NormalizeWeights() error

	// AddToValues adds delta[i] to particle i, keeping results in range.
	AddToValues(delta []float64) error
	// DistanceToValue returns, per particle, the signed difference from the
	// particle value to target.
	DistanceToValue(target float64) []float64
	// WeightedAverage returns the weight-averaged particle value.
	WeightedAverage() float64
}

// population holds the parallel value and weight arrays shared by both
// controller variants. It knows nothing about topology.
type population struct {
	values  []float64
	weights []float64
}

func newPopulation(n int) (population, error) {
	if n <= 0 {
		return population{}, fmt.Errorf("%w: particle count must be positive, got %d", ErrConfiguration, n)
	}
	p := population{
		values:  make([]float64, n),
		weights: make([]float64, n),
	}
	p.ResetWeights()
	return p, nil
}

func (p *population) Len() int { return len(p.values) }

func (p *population) Values() []float64 {
	out := make([]float64, len(p.values))
	copy(out, p.values)
	return out
}

func (p *population) ValueAt(i int) float64 { return p.values[i] }

func (p *population) Weights() []float64 {
	out := make([]float64, len(p.weights))
	copy(out, p.weights)
	return out
}

func (p *population) SetWeights(weights []float64) error {
	if len(weights) != len(p.weights) {
		return fmt.Errorf("%w: got %d weights for %d particles", ErrConfiguration, len(weights), len(p.weights))
	}
	for i, w := range weights {
		if w < 0 || math.IsNaN(w) {
			return fmt.Errorf("%w: weight %d is %v", ErrRange, i, w)
		}
	}
	copy(p.weights, weights)
	return nil
}

func (p *population) WeightAt(i int) float64 { return p.weights[i] }

func (p *population) SetWeightAt(i int, w float64) error {
	if w < 0 || math.IsNaN(w) {
		return fmt.Errorf("%w: weight %d is %v", ErrRange, i, w)
	}
	p.weights[i] = w
	return nil
}

func (p *population) MultiplyWeightAt(i int, f float64) {
	p.weights[i] *= f
}

func (p *population) ResetWeights() {
	for i := range p.weights {
		p.weights[i] = 1
	}
}

func (p *population) WeightSum() float64 {
	return floats.Sum(p.weights)
}

func (p *population) NormalizeWeights() error {
	sum := floats.Sum(p.weights)
	if sum < WeightEpsilon || math.IsNaN(sum) {
		return fmt.Errorf("%w: sum %g", ErrDivideByZero, sum)
	}
	floats.Scale(1/sum, p.weights)
	return nil
}

// uniformValue reports whether every particle holds the same value.
func (p *population) uniformValue() (float64, bool) {
	v := p.values[0]
	for _, x := range p.values[1:] {
		if x != v {
			return 0, false
		}
	}
	return v, true
}

func (p *population) checkLen(n int, what string) error {
	if n != len(p.values) {
		return fmt.Errorf("%w: got %d %s for %d particles", ErrConfiguration, n, what, len(p.values))
	}
	return nil
}
