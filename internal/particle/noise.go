package particle

import (
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"
)

// NoiseGenerator perturbs every particle by independent bounded jitter.
// Perturbations go through AddToValues so the controller clamps or wraps the
// results.
type NoiseGenerator interface {
	GenerateNoise(magnitude float64, c DimensionController) error
}

// UniformNoise draws jitter uniformly from [-magnitude, magnitude].
type UniformNoise struct {
	rng *rand.Rand
}

// NewUniformNoise returns a uniform noise generator drawing from rng.
func NewUniformNoise(rng *rand.Rand) *UniformNoise {
	return &UniformNoise{rng: rng}
}

// GenerateNoise implements NoiseGenerator.
func (g *UniformNoise) GenerateNoise(magnitude float64, c DimensionController) error {
	if err := checkMagnitude(magnitude); err != nil || magnitude == 0 {
		return err
	}
	delta := make([]float64, c.Len())
	for i := range delta {
		delta[i] = (2*g.rng.Float64() - 1) * magnitude
	}
	return c.AddToValues(delta)
}

// maxGaussianRedraws bounds rejection sampling before falling back to a clamp.
const maxGaussianRedraws = 8

// GaussianNoise draws jitter from N(0, (magnitude/2)²) truncated to
// [-magnitude, magnitude].
type GaussianNoise struct {
	rng *rand.Rand
}

// NewGaussianNoise returns a Gaussian noise generator drawing from rng.
func NewGaussianNoise(rng *rand.Rand) *GaussianNoise {
	return &GaussianNoise{rng: rng}
}

// GenerateNoise implements NoiseGenerator.
func (g *GaussianNoise) GenerateNoise(magnitude float64, c DimensionController) error {
	if err := checkMagnitude(magnitude); err != nil || magnitude == 0 {
		return err
	}
	normal := distuv.Normal{Mu: 0, Sigma: magnitude / 2, Src: g.rng}
	delta := make([]float64, c.Len())
	for i := range delta {
		d := normal.Rand()
		for k := 0; k < maxGaussianRedraws && math.Abs(d) > magnitude; k++ {
			d = normal.Rand()
		}
		delta[i] = math.Max(-magnitude, math.Min(magnitude, d))
	}
	return c.AddToValues(delta)
}

func checkMagnitude(m float64) error {
	if m < 0 || math.IsNaN(m) || math.IsInf(m, 0) {
		return fmt.Errorf("%w: noise magnitude must be non-negative, got %v", ErrConfiguration, m)
	}
	return nil
}
