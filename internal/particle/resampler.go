package particle

import (
	"fmt"
	"math"
	"math/rand/v2"
	"sort"

	"gonum.org/v1/gonum/floats"
)

// Resampler turns a weighted population into an unweighted one whose
// density matches the weights.
type Resampler interface {
	// Resample replaces the controller's particles with a weight-proportional
	// selection of themselves and resets every weight to 1.
	Resample(c DimensionController) error
	// Select returns len(weights) source indices drawn in proportion to
	// weights. Joint filters use it to move whole particle rows at once.
	Select(weights []float64) ([]int, error)
}

// SystematicResampler draws N evenly spaced pointers with a single random
// offset. It has the lowest variance of the supported schemes.
type SystematicResampler struct {
	rng *rand.Rand
}

// NewSystematicResampler returns a systematic resampler drawing from rng.
func NewSystematicResampler(rng *rand.Rand) *SystematicResampler {
	return &SystematicResampler{rng: rng}
}

// Select implements Resampler.
func (r *SystematicResampler) Select(weights []float64) ([]int, error) {
	n := len(weights)
	if n == 0 {
		return nil, fmt.Errorf("%w: empty population", ErrConfiguration)
	}
	step := 1 / float64(n)
	offset := r.rng.Float64() * step
	pointers := make([]float64, n)
	for i := range pointers {
		pointers[i] = offset + float64(i)*step
	}
	return selectByPointers(weights, pointers)
}

// Resample implements Resampler.
func (r *SystematicResampler) Resample(c DimensionController) error {
	return resampleWith(r, c)
}

// MultinomialResampler draws N independent uniform pointers.
type MultinomialResampler struct {
	rng *rand.Rand
}

// NewMultinomialResampler returns a multinomial resampler drawing from rng.
func NewMultinomialResampler(rng *rand.Rand) *MultinomialResampler {
	return &MultinomialResampler{rng: rng}
}

// Select implements Resampler.
func (r *MultinomialResampler) Select(weights []float64) ([]int, error) {
	n := len(weights)
	if n == 0 {
		return nil, fmt.Errorf("%w: empty population", ErrConfiguration)
	}
	pointers := make([]float64, n)
	for i := range pointers {
		pointers[i] = r.rng.Float64()
	}
	sort.Float64s(pointers)
	return selectByPointers(weights, pointers)
}

// Resample implements Resampler.
func (r *MultinomialResampler) Resample(c DimensionController) error {
	return resampleWith(r, c)
}

func resampleWith(r Resampler, c DimensionController) error {
	idx, err := r.Select(c.Weights())
	if err != nil {
		return err
	}
	src := c.Values()
	next := make([]float64, len(src))
	for i, j := range idx {
		next[i] = src[j]
	}
	if err := c.SetValues(next); err != nil {
		return err
	}
	c.ResetWeights()
	return nil
}

// selectByPointers walks the cumulative weight sum once. pointers must be
// ascending and lie in [0, 1); they are scaled by the total weight, so the
// weights need not be normalised.
//
// The cursor never moves past the last particle with a positive weight:
// rounding can leave the final cumulative value fractionally below the last
// pointer, and a trailing zero-weight particle must never be duplicated.
func selectByPointers(weights, pointers []float64) ([]int, error) {
	n := len(weights)
	cum := make([]float64, n)
	floats.CumSum(cum, weights)
	total := cum[n-1]
	if total < WeightEpsilon || math.IsNaN(total) || math.IsInf(total, 0) {
		return nil, fmt.Errorf("%w: cannot resample, sum %g", ErrDivideByZero, total)
	}

	last := n - 1
	for last > 0 && weights[last] <= 0 {
		last--
	}

	out := make([]int, len(pointers))
	cursor := 0
	for i, p := range pointers {
		target := p * total
		for cursor < last && cum[cursor] <= target {
			cursor++
		}
		out[i] = cursor
	}
	return out, nil
}
