package particle

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// LinearController is a DimensionController over the closed interval
// [Min, Max]. Values that would leave the interval are clamped.
type LinearController struct {
	population
	min, max float64
}

// NewLinearController creates n particles on [min, max] initialised from
// values. values may be nil, in which case every particle starts at min.
func NewLinearController(n int, min, max float64, values []float64) (*LinearController, error) {
	if !(min < max) {
		return nil, fmt.Errorf("%w: invalid linear range [%v, %v]", ErrConfiguration, min, max)
	}
	p, err := newPopulation(n)
	if err != nil {
		return nil, err
	}
	c := &LinearController{population: p, min: min, max: max}
	if values == nil {
		for i := range c.values {
			c.values[i] = min
		}
		return c, nil
	}
	if err := c.SetValues(values); err != nil {
		return nil, err
	}
	return c, nil
}

// Bounds returns [Min, Max].
func (c *LinearController) Bounds() (float64, float64) { return c.min, c.max }

// SetValues replaces every particle value. Any value outside [Min, Max]
// rejects the whole assignment with ErrRange.
func (c *LinearController) SetValues(values []float64) error {
	if err := c.checkLen(len(values), "values"); err != nil {
		return err
	}
	for i, v := range values {
		if !c.inRange(v) {
			return fmt.Errorf("%w: value %d = %v outside [%v, %v]", ErrRange, i, v, c.min, c.max)
		}
	}
	copy(c.values, values)
	return nil
}

// SetValueAt replaces the value of particle i.
func (c *LinearController) SetValueAt(i int, v float64) error {
	if !c.inRange(v) {
		return fmt.Errorf("%w: value %v outside [%v, %v]", ErrRange, v, c.min, c.max)
	}
	c.values[i] = v
	return nil
}

// AddToValues adds delta pointwise and clamps into [Min, Max].
func (c *LinearController) AddToValues(delta []float64) error {
	if err := c.checkLen(len(delta), "deltas"); err != nil {
		return err
	}
	for i, d := range delta {
		c.values[i] = c.clamp(c.values[i] + d)
	}
	return nil
}

// DistanceToValue returns target - value for every particle.
func (c *LinearController) DistanceToValue(target float64) []float64 {
	out := make([]float64, len(c.values))
	for i, v := range c.values {
		out[i] = target - v
	}
	return out
}

// WeightedAverage returns Σ value·weight. Weights are expected to be
// normalised.
func (c *LinearController) WeightedAverage() float64 {
	if v, ok := c.uniformValue(); ok {
		return v
	}
	return floats.Dot(c.values, c.weights)
}

func (c *LinearController) inRange(v float64) bool {
	return v >= c.min && v <= c.max
}

func (c *LinearController) clamp(v float64) float64 {
	if math.IsNaN(v) {
		return c.min
	}
	return math.Max(c.min, math.Min(c.max, v))
}
