// Package sim provides synthetic pose sources for tests and the simulator.
// Each source computes its reading at the requested timestamp, so it never
// runs out of data however the filter is ticked.
package sim

import (
	"math"
	"math/rand/v2"

	"github.com/banshee-data/anchor-pose/internal/particle"
)

// Trajectory maps a Unix-millis timestamp to a ground-truth value.
type Trajectory func(t int64) particle.Vector3

// Constant returns a trajectory that never moves.
func Constant(v particle.Vector3) Trajectory {
	return func(int64) particle.Vector3 { return v }
}

// Oscillate returns a trajectory that holds base except on axis, which
// follows base[axis] + amplitude·sin(t / divisorMillis).
func Oscillate(base particle.Vector3, axis int, amplitude, divisorMillis float64) Trajectory {
	return func(t int64) particle.Vector3 {
		v := base
		v[axis] += amplitude * math.Sin(float64(t)/divisorMillis)
		return v
	}
}

// Signal reports a trajectory with an error model. When Rng is set each
// reading is perturbed by Gaussian noise of StdDev; otherwise readings are
// exact and only tagged with StdDev.
type Signal struct {
	Trajectory Trajectory
	StdDev     float64
	Kind       particle.DistributionKind
	Rng        *rand.Rand
	// Wrap maps every component into [0, 360), as an angle sensor would.
	Wrap bool
}

// Static returns an exact source reporting v with the given stddev.
func Static(v particle.Vector3, stddev float64) *Signal {
	return &Signal{Trajectory: Constant(v), StdDev: stddev, Kind: particle.Gaussian}
}

// Closest returns one reading at target when target is in [from, to].
func (s *Signal) Closest(target, from, to int64) []particle.VectorMeasurement {
	if target < from || target > to {
		return nil
	}
	return []particle.VectorMeasurement{s.reading(target)}
}

// Between returns one reading at to when from < to.
func (s *Signal) Between(from, to int64) []particle.VectorMeasurement {
	if to <= from {
		return nil
	}
	return []particle.VectorMeasurement{s.reading(to)}
}

func (s *Signal) reading(t int64) particle.VectorMeasurement {
	v := s.Trajectory(t)
	if s.Rng != nil {
		for d := range v {
			v[d] += s.Rng.NormFloat64() * s.StdDev
		}
	}
	if s.Wrap {
		for d := range v {
			v[d] = particle.WrapDegrees(v[d])
		}
	}
	return particle.VectorMeasurement{
		Data:         v,
		Timestamp:    t,
		StdDev:       s.StdDev,
		Distribution: distribution(s.Kind, s.StdDev),
	}
}

// Displacement reports how far a trajectory moved between the previous
// cycle and the current one, like an odometry or visual-inertial delta.
type Displacement struct {
	Trajectory Trajectory
	StdDev     float64
}

// Closest returns the displacement from from to target.
func (d *Displacement) Closest(target, from, to int64) []particle.VectorMeasurement {
	if target < from || target > to || target == from {
		return nil
	}
	return []particle.VectorMeasurement{d.reading(from, target)}
}

// Between returns the displacement from from to to.
func (d *Displacement) Between(from, to int64) []particle.VectorMeasurement {
	if to <= from {
		return nil
	}
	return []particle.VectorMeasurement{d.reading(from, to)}
}

func (d *Displacement) reading(from, to int64) particle.VectorMeasurement {
	return particle.VectorMeasurement{
		Data:         d.Trajectory(to).Sub(d.Trajectory(from)),
		Timestamp:    to,
		StdDev:       d.StdDev,
		Distribution: particle.NewGaussian(d.StdDev),
	}
}

// Outlier wraps a source and replaces its reading at one timestamp.
type Outlier struct {
	Source interface {
		Closest(target, from, to int64) []particle.VectorMeasurement
		Between(from, to int64) []particle.VectorMeasurement
	}
	At    int64
	Value particle.Vector3
}

// Closest implements the source contract, substituting Value at At.
func (o *Outlier) Closest(target, from, to int64) []particle.VectorMeasurement {
	return o.substitute(o.Source.Closest(target, from, to))
}

// Between implements the source contract, substituting Value at At.
func (o *Outlier) Between(from, to int64) []particle.VectorMeasurement {
	return o.substitute(o.Source.Between(from, to))
}

func (o *Outlier) substitute(in []particle.VectorMeasurement) []particle.VectorMeasurement {
	for i := range in {
		if in[i].Timestamp == o.At {
			in[i].Data = o.Value
		}
	}
	return in
}

func distribution(kind particle.DistributionKind, stddev float64) particle.Distribution {
	if kind == particle.Uniform {
		return particle.NewUniform(stddev)
	}
	return particle.NewGaussian(stddev)
}
