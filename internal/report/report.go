// Package report collects the estimates of a run and renders them against
// ground truth as PNG plots and an interactive HTML page.
package report

import (
	"context"
	"math"
	"sync"

	"github.com/banshee-data/anchor-pose/internal/filter"
	"github.com/banshee-data/anchor-pose/internal/particle"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// TruthFunc returns the true pose at a timestamp (Unix millis).
type TruthFunc func(timestamp int64) filter.Pose

// Sample pairs an estimate with the true pose, when known.
type Sample struct {
	Estimate filter.Estimate
	Truth    *filter.Pose
}

// Recorder accumulates estimates in memory. It is safe for concurrent use.
type Recorder struct {
	mu      sync.Mutex
	truth   TruthFunc
	samples []Sample
}

// NewRecorder creates a Recorder. truth may be nil when the true pose is
// not known, e.g. when running against real sensors.
func NewRecorder(truth TruthFunc) *Recorder {
	return &Recorder{truth: truth}
}

// RecordEstimate stores e.
func (r *Recorder) RecordEstimate(_ context.Context, e filter.Estimate) error {
	s := Sample{Estimate: e}
	if r.truth != nil {
		t := r.truth(e.Timestamp)
		s.Truth = &t
	}
	r.mu.Lock()
	r.samples = append(r.samples, s)
	r.mu.Unlock()
	return nil
}

// Samples returns a copy of everything recorded so far.
func (r *Recorder) Samples() []Sample {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Sample(nil), r.samples...)
}

// Summary describes estimation error over a run. Error fields are NaN when
// no sample had both a finite estimate and a truth.
type Summary struct {
	Samples int `json:"samples"`
	Invalid int `json:"invalid"`
	// PositionRMSE is the root mean square of the Euclidean position error.
	PositionRMSE float64 `json:"position_rmse"`
	// PositionMax is the largest Euclidean position error.
	PositionMax float64 `json:"position_max"`
	// OrientationMean is the mean absolute per-axis angular error in degrees.
	OrientationMean float64 `json:"orientation_mean"`
	// OrientationMax is the largest per-axis angular error in degrees.
	OrientationMax float64 `json:"orientation_max"`
}

// Summarize computes error statistics. Samples before skip are ignored so
// the convergence phase does not dominate.
func Summarize(samples []Sample, skip int) Summary {
	sum := Summary{Samples: len(samples)}
	var posSq, posErr, rotErr []float64
	for i, s := range samples {
		if !s.Estimate.Validation.Valid {
			sum.Invalid++
		}
		if i < skip || s.Truth == nil {
			continue
		}
		est := s.Estimate.Pose
		if !est.Position.HasNaN() {
			d := est.Position.Sub(s.Truth.Position).Norm()
			posErr = append(posErr, d)
			posSq = append(posSq, d*d)
		}
		if !est.Orientation.HasNaN() {
			for k := 0; k < 3; k++ {
				rotErr = append(rotErr, math.Abs(particle.AngleDiff(est.Orientation[k], s.Truth.Orientation[k])))
			}
		}
	}

	sum.PositionRMSE, sum.PositionMax = math.NaN(), math.NaN()
	if len(posErr) > 0 {
		sum.PositionRMSE = math.Sqrt(stat.Mean(posSq, nil))
		sum.PositionMax = floats.Max(posErr)
	}
	sum.OrientationMean, sum.OrientationMax = math.NaN(), math.NaN()
	if len(rotErr) > 0 {
		sum.OrientationMean = stat.Mean(rotErr, nil)
		sum.OrientationMax = floats.Max(rotErr)
	}
	return sum
}

var axisNames = [3]string{"x", "y", "z"}

// series splits samples into per-axis estimate and truth columns. pick
// selects position or orientation.
func series(samples []Sample, pick func(filter.Pose) particle.Vector3) (ts []int64, est, truth [3][]float64, hasTruth bool) {
	ts = make([]int64, len(samples))
	for k := range est {
		est[k] = make([]float64, len(samples))
		truth[k] = make([]float64, len(samples))
	}
	for i, s := range samples {
		ts[i] = s.Estimate.Timestamp
		e := pick(s.Estimate.Pose)
		t := particle.Vector3{math.NaN(), math.NaN(), math.NaN()}
		if s.Truth != nil {
			t = pick(*s.Truth)
			hasTruth = true
		}
		for k := 0; k < 3; k++ {
			est[k][i] = e[k]
			truth[k][i] = t[k]
		}
	}
	return ts, est, truth, hasTruth
}

func position(p filter.Pose) particle.Vector3    { return p.Position }
func orientation(p filter.Pose) particle.Vector3 { return p.Orientation }
