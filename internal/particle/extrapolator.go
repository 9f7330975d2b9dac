package particle

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
)

// minExtrapolationPoints is the history length below which predictions are
// zero.
const minExtrapolationPoints = 3

// Extrapolator fits a least-squares line through a bounded history of
// (timestamp, value) pairs and predicts values at other times. Circular
// extrapolators unwrap angles as they arrive so the fit never sees a jump
// across 0°/360°.
type Extrapolator struct {
	capacity int
	circular bool

	origin int64 // timestamp of the first sample, keeps regression inputs small
	xs     []float64
	ys     []float64
}

// NewExtrapolator returns a linear-value extrapolator keeping up to capacity
// samples.
func NewExtrapolator(capacity int) (*Extrapolator, error) {
	return newExtrapolator(capacity, false)
}

// NewCircularExtrapolator returns an extrapolator for angles in degrees.
func NewCircularExtrapolator(capacity int) (*Extrapolator, error) {
	return newExtrapolator(capacity, true)
}

func newExtrapolator(capacity int, circular bool) (*Extrapolator, error) {
	if capacity < minExtrapolationPoints {
		return nil, fmt.Errorf("%w: extrapolator capacity must be at least %d, got %d",
			ErrConfiguration, minExtrapolationPoints, capacity)
	}
	return &Extrapolator{capacity: capacity, circular: circular}, nil
}

// Len returns the number of retained samples.
func (e *Extrapolator) Len() int { return len(e.xs) }

// AddData records value at timestamp. NaN values are ignored.
func (e *Extrapolator) AddData(timestamp int64, value float64) {
	if math.IsNaN(value) {
		return
	}
	if len(e.xs) == 0 {
		e.origin = timestamp
	}
	if e.circular && len(e.ys) > 0 {
		prev := e.ys[len(e.ys)-1]
		value = prev + AngleDiff(prev, value)
	}
	e.xs = append(e.xs, float64(timestamp-e.origin))
	e.ys = append(e.ys, value)
	if len(e.xs) > e.capacity {
		e.xs = e.xs[1:]
		e.ys = e.ys[1:]
	}
}

// PredictValueAt returns the fitted value at timestamp, or 0 while fewer
// than three samples are held. Circular predictions are wrapped into
// [0, 360).
func (e *Extrapolator) PredictValueAt(timestamp int64) float64 {
	v, ok := e.predict(timestamp)
	if !ok {
		return 0
	}
	if e.circular {
		return WrapDegrees(v)
	}
	return v
}

// PredictChange returns the fitted change between from and to, or 0 while
// fewer than three samples are held.
func (e *Extrapolator) PredictChange(from, to int64) float64 {
	a, ok := e.predict(from)
	if !ok {
		return 0
	}
	b, _ := e.predict(to)
	return b - a
}

// Reset drops the history.
func (e *Extrapolator) Reset() {
	e.xs = e.xs[:0]
	e.ys = e.ys[:0]
}

func (e *Extrapolator) predict(timestamp int64) (float64, bool) {
	if len(e.xs) < minExtrapolationPoints {
		return 0, false
	}
	alpha, beta := stat.LinearRegression(e.xs, e.ys, nil, false)
	if math.IsNaN(alpha) || math.IsNaN(beta) {
		return 0, false
	}
	return alpha + beta*float64(timestamp-e.origin), true
}
