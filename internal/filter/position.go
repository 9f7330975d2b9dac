package filter

import (
	"fmt"

	"github.com/banshee-data/anchor-pose/internal/particle"
)

// Strategies bundles the pluggable pieces a concrete filter is built from.
type Strategies struct {
	Generator particle.ParticleGenerator
	Resampler particle.Resampler
	Noise     particle.NoiseGenerator
	Smoother  particle.Smoother
}

func (s Strategies) validate() error {
	if s.Generator == nil || s.Resampler == nil || s.Noise == nil || s.Smoother == nil {
		return fmt.Errorf("%w: generator, resampler, noise and smoother are all required", particle.ErrConfiguration)
	}
	return nil
}

// PositionFilter estimates x/y/z inside a bounded field from absolute
// position readings and relative displacement readings.
type PositionFilter struct {
	*Filter
	field         FieldSize
	positions     []Source
	displacements []Source
}

// NewPositionFilter builds a filter of n particles per axis spread over
// field.
func NewPositionFilter(field FieldSize, n int, s Strategies, opts Options) (*PositionFilter, error) {
	if err := field.Validate(); err != nil {
		return nil, err
	}
	if err := s.validate(); err != nil {
		return nil, err
	}
	opts = opts.withDefaults()

	var dims [3]particle.DimensionController
	var extrapolators [3]*particle.Extrapolator
	for d := 0; d < 3; d++ {
		min, max := field.Axis(d)
		values, err := s.Generator.Generate(n, min, max)
		if err != nil {
			return nil, fmt.Errorf("position axis %d: %w", d, err)
		}
		c, err := particle.NewLinearController(n, min, max, values)
		if err != nil {
			return nil, fmt.Errorf("position axis %d: %w", d, err)
		}
		dims[d] = c
		if extrapolators[d], err = particle.NewExtrapolator(opts.HistorySize); err != nil {
			return nil, err
		}
	}

	f, err := newFilter("position", s.Resampler, s.Noise, dims, extrapolators, s.Smoother, particle.Mean, opts)
	if err != nil {
		return nil, err
	}
	pf := &PositionFilter{Filter: f, field: field}
	f.retriever = pf
	return pf, nil
}

// Field returns the bounds the filter was built with.
func (pf *PositionFilter) Field() FieldSize { return pf.field }

// AddPositionSource registers a source of absolute positions.
func (pf *PositionFilter) AddPositionSource(s Source) {
	pf.positions = append(pf.positions, s)
}

// AddDisplacementSource registers a source of displacements measured since
// the previous estimate.
func (pf *PositionFilter) AddDisplacementSource(s Source) {
	pf.displacements = append(pf.displacements, s)
}

// RetrieveMeasurements returns the position readings closest to current in
// [previous, current]. Once an estimate exists, the closest displacement
// readings are added too, offset by that estimate.
func (pf *PositionFilter) RetrieveMeasurements(previous, current int64) []particle.VectorMeasurement {
	out := closestFrom(pf.positions, previous, current)
	if pf.cycles == 0 || pf.lastResult.HasNaN() {
		return out
	}
	for _, m := range closestFrom(pf.displacements, previous, current) {
		out = append(out, particle.Offset(m, pf.lastResult))
	}
	return out
}
