package filter

import (
	"fmt"
	"math"

	"github.com/banshee-data/anchor-pose/internal/particle"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// jointDims is the width of a joint particle: x, y, z, pitch, yaw, roll.
const jointDims = 6

// JointFilter fuses position and orientation in one population of 6-D
// particles. Each particle carries a single weight, the product of its
// likelihoods across every source and dimension, so resampling keeps rows
// intact. With prediction enabled the population is shifted between cycles
// by the linear pose delta of the last two estimates.
type JointFilter struct {
	dims       [jointDims]particle.DimensionController
	weights    []float64
	likelihood *mat.Dense

	resampler        particle.Resampler
	noise            particle.NoiseGenerator
	positionSmoother particle.Smoother
	angleSmoother    particle.Smoother
	positionOpts     Options
	orientationOpts  Options
	field            FieldSize

	positions     []Source
	orientations  []Source
	displacements []Source

	previousTimestamp int64
	currentTimestamp  int64
	cycles            int
	reseeds           int
	lastRaw           [jointDims]float64
	priorRaw          [jointDims]float64
	priorDt           int64
	lastPose          Pose
}

// NewJointFilter builds a joint filter from the same configuration and
// strategies as a PoseFilter.
func NewJointFilter(cfg PoseConfig, s Strategies) (*JointFilter, error) {
	if err := cfg.Field.Validate(); err != nil {
		return nil, err
	}
	if err := s.validate(); err != nil {
		return nil, err
	}
	posOpts := cfg.PositionOptions.withDefaults()
	angOpts := cfg.OrientationOptions.withDefaults()
	if err := posOpts.validate(); err != nil {
		return nil, err
	}
	if err := angOpts.validate(); err != nil {
		return nil, err
	}

	n := cfg.Particles
	jf := &JointFilter{
		resampler:        s.Resampler,
		noise:            s.Noise,
		positionSmoother: s.Smoother,
		angleSmoother:    s.Smoother.Clone(),
		positionOpts:     posOpts,
		orientationOpts:  angOpts,
		field:            cfg.Field,
	}
	for d := 0; d < 3; d++ {
		min, max := cfg.Field.Axis(d)
		values, err := s.Generator.Generate(n, min, max)
		if err != nil {
			return nil, fmt.Errorf("joint axis %d: %w", d, err)
		}
		if jf.dims[d], err = particle.NewLinearController(n, min, max, values); err != nil {
			return nil, fmt.Errorf("joint axis %d: %w", d, err)
		}
	}
	for d := 3; d < jointDims; d++ {
		values, err := s.Generator.Generate(n, 0, 360)
		if err != nil {
			return nil, fmt.Errorf("joint axis %d: %w", d, err)
		}
		if jf.dims[d], err = particle.NewCircularController(n, values); err != nil {
			return nil, fmt.Errorf("joint axis %d: %w", d, err)
		}
	}
	jf.weights = make([]float64, n)
	jf.likelihood = mat.NewDense(n, jointDims, nil)
	return jf, nil
}

// AddPositionSource implements Estimator.
func (jf *JointFilter) AddPositionSource(s Source) { jf.positions = append(jf.positions, s) }

// AddOrientationSource implements Estimator.
func (jf *JointFilter) AddOrientationSource(s Source) {
	jf.orientations = append(jf.orientations, s)
}

// AddDisplacementSource implements Estimator.
func (jf *JointFilter) AddDisplacementSource(s Source) {
	jf.displacements = append(jf.displacements, s)
}

// CalculatePose implements Estimator.
func (jf *JointFilter) CalculatePose(timestamp int64) (Pose, error) {
	if jf.cycles > 0 && timestamp <= jf.currentTimestamp {
		return Pose{}, fmt.Errorf("%w: joint filter got %d after %d",
			particle.ErrOrdering, timestamp, jf.currentTimestamp)
	}
	jf.previousTimestamp = jf.currentTimestamp
	jf.currentTimestamp = timestamp

	positions := closestFrom(jf.positions, jf.previousTimestamp, jf.currentTimestamp)
	if jf.cycles > 0 && !jf.lastPose.Position.HasNaN() {
		for _, m := range closestFrom(jf.displacements, jf.previousTimestamp, jf.currentTimestamp) {
			positions = append(positions, particle.Offset(m, jf.lastPose.Position))
		}
	}
	orientations := closestFrom(jf.orientations, jf.previousTimestamp, jf.currentTimestamp)

	if jf.cycles > 0 {
		if err := jf.predict(); err != nil {
			return Pose{}, err
		}
		if err := jf.resample(); err != nil {
			return Pose{}, err
		}
	}

	jf.likelihood.Apply(func(_, _ int, _ float64) float64 { return 1 }, jf.likelihood)
	for _, m := range positions {
		jf.weigh(m, 0, jf.positionOpts.WeightMargin)
	}
	for _, m := range orientations {
		jf.weigh(m, 3, jf.orientationOpts.WeightMargin)
	}
	for i := range jf.weights {
		jf.weights[i] = floats.Prod(jf.likelihood.RawRowView(i))
	}

	if sum := floats.Sum(jf.weights); !(sum >= particle.WeightEpsilon) {
		if err := jf.reseed(); err != nil {
			return Pose{}, err
		}
	}
	floats.Scale(1/floats.Sum(jf.weights), jf.weights)

	var raw [jointDims]float64
	for d, c := range jf.dims {
		if err := c.SetWeights(jf.weights); err != nil {
			return Pose{}, fmt.Errorf("joint filter dimension %d: %w", d, err)
		}
		raw[d] = c.WeightedAverage()
	}

	now := jf.currentTimestamp
	pose := Pose{
		Position:    jf.positionSmoother.GetSmoothedResult(particle.Vector3{raw[0], raw[1], raw[2]}, now, particle.Mean),
		Orientation: jf.angleSmoother.GetSmoothedResult(particle.Vector3{raw[3], raw[4], raw[5]}, now, particle.CircularMean),
	}

	jf.priorRaw = jf.lastRaw
	jf.priorDt = jf.currentTimestamp - jf.previousTimestamp
	jf.lastRaw = raw
	jf.lastPose = pose
	jf.cycles++
	Tracef("joint t=%d positions=%d orientations=%d pose=%+v", timestamp, len(positions), len(orientations), pose)
	return pose, nil
}

// weigh multiplies the likelihood columns [offset, offset+3) by the
// per-dimension likelihood of m.
func (jf *JointFilter) weigh(m particle.VectorMeasurement, offset int, marginFraction float64) {
	if m.Distribution == nil {
		return
	}
	margin := marginFraction * m.StdDev
	for k := 0; k < 3; k++ {
		if math.IsNaN(m.Data[k]) {
			continue
		}
		col := offset + k
		for i, diff := range jf.dims[col].DistanceToValue(m.Data[k]) {
			jf.likelihood.Set(i, col, jf.likelihood.At(i, col)*particle.Likelihood(m.Distribution, diff, margin))
		}
	}
}

// predict shifts every particle by the last estimated pose delta, scaled to
// the current cycle length. It needs two completed cycles and runs only for
// the halves whose options enable prediction.
func (jf *JointFilter) predict() error {
	if jf.cycles < 2 || jf.priorDt <= 0 {
		return nil
	}
	scale := float64(jf.currentTimestamp-jf.previousTimestamp) / float64(jf.priorDt)
	for d, c := range jf.dims {
		var delta float64
		if d < 3 {
			if !jf.positionOpts.EnablePrediction {
				continue
			}
			delta = jf.lastRaw[d] - jf.priorRaw[d]
		} else {
			if !jf.orientationOpts.EnablePrediction {
				continue
			}
			delta = particle.AngleDiff(jf.priorRaw[d], jf.lastRaw[d])
		}
		delta *= scale
		if delta == 0 || math.IsNaN(delta) {
			continue
		}
		shift := make([]float64, c.Len())
		for i := range shift {
			shift[i] = delta
		}
		if err := c.AddToValues(shift); err != nil {
			return fmt.Errorf("joint filter dimension %d predict: %w", d, err)
		}
	}
	return nil
}

// resample selects whole particle rows by joint weight, then jitters each
// dimension.
func (jf *JointFilter) resample() error {
	idx, err := jf.resampler.Select(jf.weights)
	if err != nil {
		return fmt.Errorf("joint filter resample: %w", err)
	}
	for d, c := range jf.dims {
		src := c.Values()
		next := make([]float64, len(src))
		for i, j := range idx {
			next[i] = src[j]
		}
		if err := c.SetValues(next); err != nil {
			return fmt.Errorf("joint filter dimension %d resample: %w", d, err)
		}
		if err := jf.noise.GenerateNoise(jf.magnitude(d), c); err != nil {
			return fmt.Errorf("joint filter dimension %d noise: %w", d, err)
		}
	}
	return nil
}

func (jf *JointFilter) reseed() error {
	jf.reseeds++
	Diagf("joint filter degenerate at t=%d, reseeding", jf.currentTimestamp)
	for d, c := range jf.dims {
		if err := jf.noise.GenerateNoise(jf.magnitude(d), c); err != nil {
			return fmt.Errorf("joint filter dimension %d reseed: %w", d, err)
		}
	}
	for i := range jf.weights {
		jf.weights[i] = 1
	}
	return nil
}

func (jf *JointFilter) magnitude(d int) float64 {
	if d < 3 {
		return jf.positionOpts.ResampleNoise
	}
	return jf.orientationOpts.ResampleNoise
}

// Particles returns an N×6 snapshot of the population, one row per particle.
func (jf *JointFilter) Particles() *mat.Dense {
	n := len(jf.weights)
	out := mat.NewDense(n, jointDims, nil)
	for d, c := range jf.dims {
		out.SetCol(d, c.Values())
	}
	return out
}

// Weights returns a copy of the joint particle weights.
func (jf *JointFilter) Weights() []float64 {
	out := make([]float64, len(jf.weights))
	copy(out, jf.weights)
	return out
}

// Cycles returns the number of completed cycles.
func (jf *JointFilter) Cycles() int { return jf.cycles }

// Reseeds returns how many times the population was reseeded.
func (jf *JointFilter) Reseeds() int { return jf.reseeds }
