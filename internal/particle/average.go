package particle

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// AveragingFunc reduces a series of scalar samples to one value.
type AveragingFunc func(values []float64) float64

// Mean is the arithmetic mean of the non-NaN samples, or NaN if there are
// none.
func Mean(values []float64) float64 {
	finite := dropNaN(values)
	if len(finite) == 0 {
		return math.NaN()
	}
	return stat.Mean(finite, nil)
}

// CircularMean is the mean direction, in degrees within [0, 360), of the
// non-NaN samples. It returns NaN when there are none or they cancel out.
func CircularMean(values []float64) float64 {
	finite := dropNaN(values)
	if len(finite) == 0 {
		return math.NaN()
	}
	return circularMean(finite, nil)
}

func dropNaN(values []float64) []float64 {
	out := values[:0:0]
	for _, v := range values {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}
