package filter

import (
	"fmt"
	"math/rand/v2"

	"github.com/banshee-data/anchor-pose/internal/config"
	"github.com/banshee-data/anchor-pose/internal/particle"
)

// Stream identifiers for the per-strategy random sources derived from one
// seed.
const (
	streamGenerator uint64 = iota + 1
	streamResampler
	streamNoise
)

// StrategiesFromTuning resolves the strategy names in cfg. Every strategy
// draws from its own PCG stream seeded by cfg's seed.
func StrategiesFromTuning(cfg *config.TuningConfig) (Strategies, error) {
	seed := cfg.GetSeed()
	newRand := func(stream uint64) *rand.Rand {
		return rand.New(rand.NewPCG(seed, stream))
	}

	var s Strategies
	switch name := cfg.GetGenerator(); name {
	case config.GeneratorRandom:
		s.Generator = particle.NewRandomGenerator(newRand(streamGenerator))
	case config.GeneratorEven:
		s.Generator = particle.EvenGenerator{}
	default:
		return Strategies{}, fmt.Errorf("%w: unknown generator %q", particle.ErrConfiguration, name)
	}

	switch name := cfg.GetResampler(); name {
	case config.ResamplerSystematic:
		s.Resampler = particle.NewSystematicResampler(newRand(streamResampler))
	case config.ResamplerMultinomial:
		s.Resampler = particle.NewMultinomialResampler(newRand(streamResampler))
	default:
		return Strategies{}, fmt.Errorf("%w: unknown resampler %q", particle.ErrConfiguration, name)
	}

	switch name := cfg.GetNoise(); name {
	case config.NoiseUniform:
		s.Noise = particle.NewUniformNoise(newRand(streamNoise))
	case config.NoiseGaussian:
		s.Noise = particle.NewGaussianNoise(newRand(streamNoise))
	default:
		return Strategies{}, fmt.Errorf("%w: unknown noise generator %q", particle.ErrConfiguration, name)
	}

	smoother, err := particle.NewWindowSmoother(cfg.GetSmoothingWindow().Milliseconds(), 0)
	if err != nil {
		return Strategies{}, err
	}
	s.Smoother = smoother
	return s, nil
}

// PoseConfigFromTuning builds a PoseConfig from a loaded TuningConfig.
func PoseConfigFromTuning(cfg *config.TuningConfig) PoseConfig {
	f := cfg.GetField()
	return PoseConfig{
		Field: FieldSize{
			XMin: f.XMin, XMax: f.XMax,
			YMin: f.YMin, YMax: f.YMax,
			ZMin: f.ZMin, ZMax: f.ZMax,
		},
		Particles: cfg.GetParticleCount(),
		PositionOptions: Options{
			ResampleNoise:    cfg.GetPositionResampleNoise(),
			WeightMargin:     cfg.GetWeightMargin(),
			EnablePrediction: cfg.GetEnablePrediction(),
			HistorySize:      cfg.GetHistorySize(),
		},
		OrientationOptions: Options{
			ResampleNoise:    cfg.GetOrientationResampleNoise(),
			WeightMargin:     cfg.GetWeightMargin(),
			EnablePrediction: cfg.GetEnablePrediction(),
			HistorySize:      cfg.GetHistorySize(),
		},
	}
}

// NewFromTuning builds the Estimator selected by cfg's fusion mode.
func NewFromTuning(cfg *config.TuningConfig) (Estimator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", particle.ErrConfiguration, err)
	}
	s, err := StrategiesFromTuning(cfg)
	if err != nil {
		return nil, err
	}
	pc := PoseConfigFromTuning(cfg)

	switch mode := cfg.GetFusionMode(); mode {
	case config.FusionJoint:
		Opsf("building joint filter: particles=%d field=%+v", pc.Particles, pc.Field)
		jf, err := NewJointFilter(pc, s)
		if err != nil {
			return nil, err
		}
		return jf, nil
	case config.FusionIndependent:
		Opsf("building pose filter: particles=%d field=%+v prediction=%v", pc.Particles, pc.Field, pc.PositionOptions.EnablePrediction)
		pf, err := NewPoseFilter(pc, s)
		if err != nil {
			return nil, err
		}
		return pf, nil
	default:
		return nil, fmt.Errorf("%w: unknown fusion mode %q", particle.ErrConfiguration, mode)
	}
}
