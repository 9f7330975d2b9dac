package filter

import (
	"fmt"

	"github.com/banshee-data/anchor-pose/internal/particle"
)

// OrientationFilter estimates pitch/yaw/roll in degrees from absolute angle
// readings.
type OrientationFilter struct {
	*Filter
	orientations []Source
}

// NewOrientationFilter builds a filter of n particles per angle spread over
// the full circle.
func NewOrientationFilter(n int, s Strategies, opts Options) (*OrientationFilter, error) {
	if err := s.validate(); err != nil {
		return nil, err
	}
	opts = opts.withDefaults()

	var dims [3]particle.DimensionController
	var extrapolators [3]*particle.Extrapolator
	for d := 0; d < 3; d++ {
		values, err := s.Generator.Generate(n, 0, 360)
		if err != nil {
			return nil, fmt.Errorf("orientation axis %d: %w", d, err)
		}
		c, err := particle.NewCircularController(n, values)
		if err != nil {
			return nil, fmt.Errorf("orientation axis %d: %w", d, err)
		}
		dims[d] = c
		if extrapolators[d], err = particle.NewCircularExtrapolator(opts.HistorySize); err != nil {
			return nil, err
		}
	}

	f, err := newFilter("orientation", s.Resampler, s.Noise, dims, extrapolators, s.Smoother, particle.CircularMean, opts)
	if err != nil {
		return nil, err
	}
	of := &OrientationFilter{Filter: f}
	f.retriever = of
	return of, nil
}

// AddOrientationSource registers a source of absolute angles.
func (of *OrientationFilter) AddOrientationSource(s Source) {
	of.orientations = append(of.orientations, s)
}

// RetrieveMeasurements returns the angle readings closest to current in
// [previous, current].
func (of *OrientationFilter) RetrieveMeasurements(previous, current int64) []particle.VectorMeasurement {
	return closestFrom(of.orientations, previous, current)
}
