package particle

import (
	"fmt"
	"math"
)

// degenerateResultant is the resultant length below which opposing angles
// are considered to cancel out.
const degenerateResultant = 1e-9

// CircularController is a DimensionController over angles in degrees. Values
// live in [0, 360) and wrap around.
type CircularController struct {
	population
}

// NewCircularController creates n angular particles initialised from values
// (wrapped into [0, 360)). values may be nil, in which case every particle
// starts at 0.
func NewCircularController(n int, values []float64) (*CircularController, error) {
	p, err := newPopulation(n)
	if err != nil {
		return nil, err
	}
	c := &CircularController{population: p}
	if values != nil {
		if err := c.SetValues(values); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Bounds returns [0, 360].
func (c *CircularController) Bounds() (float64, float64) { return 0, 360 }

// SetValues replaces every particle value, wrapping each into [0, 360).
func (c *CircularController) SetValues(values []float64) error {
	if err := c.checkLen(len(values), "values"); err != nil {
		return err
	}
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: value %d is %v", ErrRange, i, v)
		}
	}
	for i, v := range values {
		c.values[i] = WrapDegrees(v)
	}
	return nil
}

// SetValueAt replaces the value of particle i, wrapping it into [0, 360).
func (c *CircularController) SetValueAt(i int, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("%w: value %v", ErrRange, v)
	}
	c.values[i] = WrapDegrees(v)
	return nil
}

// AddToValues adds delta pointwise and wraps into [0, 360).
func (c *CircularController) AddToValues(delta []float64) error {
	if err := c.checkLen(len(delta), "deltas"); err != nil {
		return err
	}
	for i, d := range delta {
		c.values[i] = WrapDegrees(c.values[i] + d)
	}
	return nil
}

// DistanceToValue returns the signed shortest arc from every particle to
// target, in (-180, 180].
func (c *CircularController) DistanceToValue(target float64) []float64 {
	out := make([]float64, len(c.values))
	for i, v := range c.values {
		out[i] = AngleDiff(v, target)
	}
	return out
}

// WeightedAverage sums the particles as weight-scaled unit vectors and
// returns the angle of the resultant. It returns NaN when the resultant
// vanishes, e.g. two equally weighted particles 180° apart.
func (c *CircularController) WeightedAverage() float64 {
	if v, ok := c.uniformValue(); ok {
		return v
	}
	return circularMean(c.values, c.weights)
}

func circularMean(angles, weights []float64) float64 {
	var sx, sy, total float64
	for i, a := range angles {
		w := 1.0
		if weights != nil {
			w = weights[i]
		}
		rad := a * math.Pi / 180
		sx += w * math.Cos(rad)
		sy += w * math.Sin(rad)
		total += w
	}
	if total <= 0 || math.Hypot(sx, sy) < degenerateResultant*total {
		return math.NaN()
	}
	return WrapDegrees(math.Atan2(sy, sx) * 180 / math.Pi)
}
