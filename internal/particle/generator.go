package particle

import (
	"fmt"
	"math/rand/v2"
)

// ParticleGenerator samples initial particle values. It is used only when a
// filter is built.
type ParticleGenerator interface {
	// Generate returns count values spanning [min, max).
	Generate(count int, min, max float64) ([]float64, error)
}

// RandomGenerator draws values uniformly at random.
type RandomGenerator struct {
	rng *rand.Rand
}

// NewRandomGenerator returns a generator drawing from rng.
func NewRandomGenerator(rng *rand.Rand) *RandomGenerator {
	return &RandomGenerator{rng: rng}
}

// Generate returns count uniform samples from [min, max).
func (g *RandomGenerator) Generate(count int, min, max float64) ([]float64, error) {
	if err := checkGenerate(count, min, max); err != nil {
		return nil, err
	}
	out := make([]float64, count)
	for i := range out {
		out[i] = min + g.rng.Float64()*(max-min)
	}
	return out, nil
}

// EvenGenerator spreads values evenly, one at the centre of each of count
// equal cells.
type EvenGenerator struct{}

// Generate returns count evenly spaced values in [min, max).
func (EvenGenerator) Generate(count int, min, max float64) ([]float64, error) {
	if err := checkGenerate(count, min, max); err != nil {
		return nil, err
	}
	step := (max - min) / float64(count)
	out := make([]float64, count)
	for i := range out {
		out[i] = min + (float64(i)+0.5)*step
	}
	return out, nil
}

func checkGenerate(count int, min, max float64) error {
	if count <= 0 {
		return fmt.Errorf("%w: particle count must be positive, got %d", ErrConfiguration, count)
	}
	if !(min < max) {
		return fmt.Errorf("%w: invalid range [%v, %v]", ErrConfiguration, min, max)
	}
	return nil
}
