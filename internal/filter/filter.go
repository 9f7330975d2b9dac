package filter

import (
	"fmt"
	"math"

	"github.com/banshee-data/anchor-pose/internal/particle"
)

// Default option values.
const (
	DefaultWeightMargin = 0.01
	DefaultHistorySize  = 10
)

// Options tunes a Filter cycle.
type Options struct {
	// ResampleNoise is the jitter magnitude applied after resampling and
	// when reseeding a degenerate dimension (metres or degrees).
	ResampleNoise float64
	// WeightMargin is the half-width of the CDF interval used to weight a
	// particle, as a fraction of the measurement's standard deviation.
	WeightMargin float64
	// EnablePrediction shifts the population by the extrapolated change
	// since the previous cycle before resampling.
	EnablePrediction bool
	// HistorySize is the number of per-dimension estimates the
	// extrapolators retain.
	HistorySize int
}

func (o Options) withDefaults() Options {
	if o.WeightMargin == 0 {
		o.WeightMargin = DefaultWeightMargin
	}
	if o.HistorySize == 0 {
		o.HistorySize = DefaultHistorySize
	}
	return o
}

func (o Options) validate() error {
	if o.ResampleNoise < 0 || math.IsNaN(o.ResampleNoise) {
		return fmt.Errorf("%w: resample noise must be non-negative, got %v", particle.ErrConfiguration, o.ResampleNoise)
	}
	if o.WeightMargin <= 0 || math.IsNaN(o.WeightMargin) {
		return fmt.Errorf("%w: weight margin must be positive, got %v", particle.ErrConfiguration, o.WeightMargin)
	}
	return nil
}

// Filter runs the per-cycle particle filter algorithm over three dimension
// controllers. Concrete filters supply the controllers, the averaging
// function and a Retriever.
type Filter struct {
	name          string
	resampler     particle.Resampler
	noise         particle.NoiseGenerator
	dims          [3]particle.DimensionController
	extrapolators [3]*particle.Extrapolator
	smoother      particle.Smoother
	average       particle.AveragingFunc
	retriever     Retriever
	opts          Options

	previousTimestamp int64
	currentTimestamp  int64
	cycles            int
	reseeds           int
	lastRaw           particle.Vector3
	lastResult        particle.Vector3
}

func newFilter(
	name string,
	resampler particle.Resampler,
	noise particle.NoiseGenerator,
	dims [3]particle.DimensionController,
	extrapolators [3]*particle.Extrapolator,
	smoother particle.Smoother,
	average particle.AveragingFunc,
	opts Options,
) (*Filter, error) {
	opts = opts.withDefaults()
	if err := opts.validate(); err != nil {
		return nil, err
	}
	if resampler == nil || noise == nil || smoother == nil || average == nil {
		return nil, fmt.Errorf("%w: %s filter needs a resampler, noise generator, smoother and averaging function",
			particle.ErrConfiguration, name)
	}
	n := dims[0].Len()
	for d := range dims {
		if dims[d] == nil || dims[d].Len() != n {
			return nil, fmt.Errorf("%w: %s filter dimensions must share one particle count", particle.ErrConfiguration, name)
		}
	}
	return &Filter{
		name:          name,
		resampler:     resampler,
		noise:         noise,
		dims:          dims,
		extrapolators: extrapolators,
		smoother:      smoother,
		average:       average,
		opts:          opts,
	}, nil
}

// Calculate runs one filter cycle at timestamp (Unix millis) and returns the
// smoothed estimate. timestamp must be greater than the previous call's.
//
// A cycle never fails because of the measurements themselves: a dimension
// whose weights all underflow is reseeded. Errors are reserved for ordering
// and configuration faults.
func (f *Filter) Calculate(timestamp int64) (particle.Vector3, error) {
	if f.cycles > 0 && timestamp <= f.currentTimestamp {
		return particle.Vector3{}, fmt.Errorf("%w: %s filter got %d after %d",
			particle.ErrOrdering, f.name, timestamp, f.currentTimestamp)
	}
	f.previousTimestamp = f.currentTimestamp
	f.currentTimestamp = timestamp

	var measurements []particle.VectorMeasurement
	if f.retriever != nil {
		measurements = f.retriever.RetrieveMeasurements(f.previousTimestamp, f.currentTimestamp)
	}

	if f.cycles > 0 {
		if f.opts.EnablePrediction {
			if err := f.predict(); err != nil {
				return particle.Vector3{}, err
			}
		}
		for d, c := range f.dims {
			if err := f.resampler.Resample(c); err != nil {
				return particle.Vector3{}, fmt.Errorf("%s filter dimension %d resample: %w", f.name, d, err)
			}
			if err := f.noise.GenerateNoise(f.opts.ResampleNoise, c); err != nil {
				return particle.Vector3{}, fmt.Errorf("%s filter dimension %d noise: %w", f.name, d, err)
			}
		}
	}

	for _, c := range f.dims {
		c.ResetWeights()
	}
	for _, m := range measurements {
		f.weigh(m)
	}

	var raw particle.Vector3
	for d, c := range f.dims {
		if !(c.WeightSum() >= particle.WeightEpsilon) {
			if err := f.reseed(d); err != nil {
				return particle.Vector3{}, err
			}
		}
		if err := c.NormalizeWeights(); err != nil {
			return particle.Vector3{}, fmt.Errorf("%s filter dimension %d: %w", f.name, d, err)
		}
		raw[d] = c.WeightedAverage()
		if e := f.extrapolators[d]; e != nil {
			e.AddData(f.currentTimestamp, raw[d])
		}
	}

	result := f.smoother.GetSmoothedResult(raw, f.currentTimestamp, f.average)
	f.cycles++
	f.lastRaw = raw
	f.lastResult = result
	Tracef("%s t=%d measurements=%d raw=%.4f smoothed=%.4f", f.name, timestamp, len(measurements), raw, result)
	return result, nil
}

// weigh multiplies every particle weight by the likelihood of m, per
// dimension. Sources and dimensions are treated as conditionally
// independent.
func (f *Filter) weigh(m particle.VectorMeasurement) {
	if m.Distribution == nil {
		return
	}
	margin := f.opts.WeightMargin * m.StdDev
	for d, c := range f.dims {
		target := m.Data[d]
		if math.IsNaN(target) {
			continue
		}
		for i, diff := range c.DistanceToValue(target) {
			c.MultiplyWeightAt(i, particle.Likelihood(m.Distribution, diff, margin))
		}
	}
}

// reseed recovers a dimension whose weights collapsed: fresh noise, uniform
// weights.
func (f *Filter) reseed(d int) error {
	f.reseeds++
	Diagf("%s filter dimension %d degenerate at t=%d, reseeding", f.name, d, f.currentTimestamp)
	c := f.dims[d]
	if err := f.noise.GenerateNoise(f.opts.ResampleNoise, c); err != nil {
		return fmt.Errorf("%s filter dimension %d reseed: %w", f.name, d, err)
	}
	c.ResetWeights()
	return nil
}

// predict nudges each dimension by the change its extrapolator expects
// between the previous and the current timestamp.
func (f *Filter) predict() error {
	for d, c := range f.dims {
		e := f.extrapolators[d]
		if e == nil {
			continue
		}
		delta := e.PredictChange(f.previousTimestamp, f.currentTimestamp)
		if delta == 0 || math.IsNaN(delta) {
			continue
		}
		shift := make([]float64, c.Len())
		for i := range shift {
			shift[i] = delta
		}
		if err := c.AddToValues(shift); err != nil {
			return fmt.Errorf("%s filter dimension %d predict: %w", f.name, d, err)
		}
	}
	return nil
}

// Dimensions returns the filter's controllers.
func (f *Filter) Dimensions() [3]particle.DimensionController { return f.dims }

// Cycles returns the number of completed cycles.
func (f *Filter) Cycles() int { return f.cycles }

// Reseeds returns how many times a degenerate dimension was reseeded.
func (f *Filter) Reseeds() int { return f.reseeds }

// LastRaw returns the unsmoothed estimate of the latest cycle.
func (f *Filter) LastRaw() particle.Vector3 { return f.lastRaw }

// LastResult returns the smoothed estimate of the latest cycle.
func (f *Filter) LastResult() particle.Vector3 { return f.lastResult }

// Timestamps returns the previous and current cycle timestamps.
func (f *Filter) Timestamps() (previous, current int64) {
	return f.previousTimestamp, f.currentTimestamp
}
