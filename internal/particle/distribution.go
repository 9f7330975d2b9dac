package particle

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// DistributionKind tags the noise model of a measurement.
type DistributionKind string

const (
	Gaussian DistributionKind = "gaussian"
	Uniform  DistributionKind = "uniform"
)

// Distribution is a zero-centred error model for a measurement.
type Distribution interface {
	// CDF returns the probability mass between x1 and x2.
	CDF(x1, x2 float64) float64
	// Kind returns the distribution tag.
	Kind() DistributionKind
}

// GaussianDistribution is a normal error model N(0, σ²).
type GaussianDistribution struct {
	normal distuv.Normal
}

// NewGaussian returns a Gaussian error model with the given standard
// deviation.
func NewGaussian(stddev float64) GaussianDistribution {
	return GaussianDistribution{normal: distuv.Normal{Mu: 0, Sigma: stddev}}
}

// CDF returns P(x1 <= X <= x2).
func (g GaussianDistribution) CDF(x1, x2 float64) float64 {
	if x2 < x1 {
		x1, x2 = x2, x1
	}
	return g.normal.CDF(x2) - g.normal.CDF(x1)
}

// Kind returns Gaussian.
func (GaussianDistribution) Kind() DistributionKind { return Gaussian }

// UniformDistribution is a flat error model whose standard deviation matches
// the one it was built from, i.e. half-width σ·√3.
type UniformDistribution struct {
	uniform distuv.Uniform
}

// NewUniform returns a uniform error model with the given standard deviation.
func NewUniform(stddev float64) UniformDistribution {
	half := stddev * math.Sqrt(3)
	return UniformDistribution{uniform: distuv.Uniform{Min: -half, Max: half}}
}

// CDF returns P(x1 <= X <= x2).
func (u UniformDistribution) CDF(x1, x2 float64) float64 {
	if x2 < x1 {
		x1, x2 = x2, x1
	}
	return u.uniform.CDF(x2) - u.uniform.CDF(x1)
}

// Kind returns Uniform.
func (UniformDistribution) Kind() DistributionKind { return Uniform }

// NewDistribution builds the error model named by kind.
func NewDistribution(kind DistributionKind, stddev float64) (Distribution, error) {
	if stddev <= 0 || math.IsNaN(stddev) || math.IsInf(stddev, 0) {
		return nil, fmt.Errorf("%w: stddev must be positive, got %v", ErrConfiguration, stddev)
	}
	switch kind {
	case Gaussian, "":
		return NewGaussian(stddev), nil
	case Uniform:
		return NewUniform(stddev), nil
	default:
		return nil, fmt.Errorf("%w: unknown distribution %q", ErrConfiguration, kind)
	}
}

// Likelihood approximates the density of d at diff by the probability mass
// in [diff-margin, diff+margin]. Both models are symmetric, so the interval
// is mirrored into the lower tail where the CDF keeps its precision.
func Likelihood(d Distribution, diff, margin float64) float64 {
	x := -math.Abs(diff)
	return d.CDF(x-margin, x+margin)
}
