package main

import (
	"fmt"
	"math/rand/v2"

	"github.com/banshee-data/anchor-pose/internal/filter"
	"github.com/banshee-data/anchor-pose/internal/particle"
	"github.com/banshee-data/anchor-pose/internal/sim"
	"github.com/banshee-data/anchor-pose/internal/sources"
)

// Scenario names accepted by -scenario.
const (
	ScenarioStatic    = "static"
	ScenarioOscillate = "oscillate"
	ScenarioOutlier   = "outlier"
)

// outlierTick is the tick at which the outlier scenario injects a bad
// position reading.
const outlierTick = 10

// rig emulates the sensor glue of a tracked device: every tick it polls
// simulated sensors and pushes their readings into buffers that the filter
// queries.
type rig struct {
	position    sim.Trajectory
	orientation sim.Trajectory

	positionSensor    *sim.Signal
	orientationSensor *sim.Signal
	displacementSD    float64

	posBuf, rotBuf, dispBuf *sources.Buffer

	tick     int
	lastTS   int64
	outlier  bool
	outlierV particle.Vector3
}

// newRig builds the trajectories and sensors for scenario inside field.
func newRig(scenario string, field filter.FieldSize, seed uint64) (*rig, error) {
	center := particle.Vector3{
		(field.XMin + field.XMax) / 2,
		(field.YMin + field.YMax) / 2,
		(field.ZMin + field.ZMax) / 2,
	}
	heading := particle.Vector3{30, 200, 330}

	r := &rig{
		position:    sim.Constant(center),
		orientation: sim.Constant(heading),
		posBuf:      sources.NewBuffer("position", 0),
		rotBuf:      sources.NewBuffer("orientation", 0),
	}

	switch scenario {
	case ScenarioStatic:
	case ScenarioOscillate:
		r.position = sim.Oscillate(center, 0, (field.XMax-field.XMin)/4, 2000)
		r.orientation = sim.Oscillate(heading, 2, 30, 2000)
		r.displacementSD = 0.02
		r.dispBuf = sources.NewBuffer("displacement", 0)
	case ScenarioOutlier:
		r.outlier = true
		r.outlierV = particle.Vector3{field.XMax, field.YMax, field.ZMax}
	default:
		return nil, fmt.Errorf("unknown scenario %q", scenario)
	}

	r.positionSensor = &sim.Signal{
		Trajectory: r.position,
		StdDev:     0.1,
		Kind:       particle.Gaussian,
		Rng:        rand.New(rand.NewPCG(seed, 11)),
	}
	r.orientationSensor = &sim.Signal{
		Trajectory: r.orientation,
		StdDev:     3,
		Kind:       particle.Gaussian,
		Rng:        rand.New(rand.NewPCG(seed, 12)),
		Wrap:       true,
	}
	return r, nil
}

// Sources returns the buffers the filter should query, keyed by role.
func (r *rig) Sources() (position, orientation, displacement *sources.Buffer) {
	return r.posBuf, r.rotBuf, r.dispBuf
}

// Poll pushes one reading per sensor at ts.
func (r *rig) Poll(ts int64) {
	pos := r.positionSensor.Closest(ts, ts, ts)
	if r.outlier && r.tick == outlierTick {
		filter.Diagf("injecting position outlier %v at t=%d", r.outlierV, ts)
		for i := range pos {
			pos[i].Data = r.outlierV
		}
	}
	for _, m := range pos {
		r.posBuf.Push(m)
	}
	for _, m := range r.orientationSensor.Closest(ts, ts, ts) {
		r.rotBuf.Push(m)
	}
	if r.dispBuf != nil && r.tick > 0 {
		d := &sim.Displacement{Trajectory: r.position, StdDev: r.displacementSD}
		for _, m := range d.Between(r.lastTS, ts) {
			r.dispBuf.Push(m)
		}
	}
	r.tick++
	r.lastTS = ts
}

// Truth returns the true pose at ts with angles wrapped into [0, 360).
func (r *rig) Truth(ts int64) filter.Pose {
	o := r.orientation(ts)
	for i := range o {
		o[i] = particle.WrapDegrees(o[i])
	}
	return filter.Pose{Position: r.position(ts), Orientation: o}
}

// polledEstimator polls the rig before every estimate, the way a device
// loop reads its sensors and then runs the filter.
type polledEstimator struct {
	filter.Estimator
	rig *rig
}

func (p *polledEstimator) CalculatePose(ts int64) (filter.Pose, error) {
	p.rig.Poll(ts)
	return p.Estimator.CalculatePose(ts)
}
