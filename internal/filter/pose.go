package filter

import (
	"fmt"

	"github.com/banshee-data/anchor-pose/internal/particle"
)

// Pose is a position in metres plus an orientation (pitch, yaw, roll) in
// degrees.
type Pose struct {
	Position    particle.Vector3 `json:"position"`
	Orientation particle.Vector3 `json:"orientation"`
}

// Estimator is the surface the host application drives once per tick.
type Estimator interface {
	// CalculatePose runs one cycle at timestamp (Unix millis). Timestamps
	// must strictly increase.
	CalculatePose(timestamp int64) (Pose, error)
	AddPositionSource(s Source)
	AddOrientationSource(s Source)
	AddDisplacementSource(s Source)
}

// PoseFilter runs independent position and orientation filters side by
// side. It is the canonical Estimator. Both halves are advanced only by
// CalculatePose so their timestamps stay in lockstep.
type PoseFilter struct {
	position    *PositionFilter
	orientation *OrientationFilter
}

// PoseConfig holds the construction parameters of a PoseFilter.
type PoseConfig struct {
	Field              FieldSize
	Particles          int
	PositionOptions    Options
	OrientationOptions Options
}

// NewPoseFilter builds a PoseFilter. The orientation filter gets its own
// copy of the smoother.
func NewPoseFilter(cfg PoseConfig, s Strategies) (*PoseFilter, error) {
	if err := s.validate(); err != nil {
		return nil, err
	}
	pos, err := NewPositionFilter(cfg.Field, cfg.Particles, s, cfg.PositionOptions)
	if err != nil {
		return nil, fmt.Errorf("position filter: %w", err)
	}
	angular := s
	angular.Smoother = s.Smoother.Clone()
	orient, err := NewOrientationFilter(cfg.Particles, angular, cfg.OrientationOptions)
	if err != nil {
		return nil, fmt.Errorf("orientation filter: %w", err)
	}
	return &PoseFilter{position: pos, orientation: orient}, nil
}

// CalculatePose implements Estimator. An out-of-order timestamp is rejected
// before either half runs.
func (p *PoseFilter) CalculatePose(timestamp int64) (Pose, error) {
	if p.position.Cycles() > 0 {
		if _, current := p.position.Timestamps(); timestamp <= current {
			return Pose{}, fmt.Errorf("%w: pose filter got %d after %d",
				particle.ErrOrdering, timestamp, current)
		}
	}
	position, err := p.position.Calculate(timestamp)
	if err != nil {
		return Pose{}, err
	}
	orientation, err := p.orientation.Calculate(timestamp)
	if err != nil {
		return Pose{}, err
	}
	return Pose{Position: position, Orientation: orientation}, nil
}

// AddPositionSource implements Estimator.
func (p *PoseFilter) AddPositionSource(s Source) { p.position.AddPositionSource(s) }

// AddOrientationSource implements Estimator.
func (p *PoseFilter) AddOrientationSource(s Source) { p.orientation.AddOrientationSource(s) }

// AddDisplacementSource implements Estimator.
func (p *PoseFilter) AddDisplacementSource(s Source) { p.position.AddDisplacementSource(s) }

// Cycles returns the number of completed pose cycles.
func (p *PoseFilter) Cycles() int { return p.orientation.Cycles() }

// Reseeds returns the reseed count summed over both halves.
func (p *PoseFilter) Reseeds() int { return p.position.Reseeds() + p.orientation.Reseeds() }

// PoseValidationResult contains the result of pose validation.
type PoseValidationResult struct {
	Valid  bool     `json:"valid"`
	Issues []string `json:"issues"`
}

// ValidatePose checks that every component is a number and that the
// position lies inside field.
func ValidatePose(pose Pose, field FieldSize) PoseValidationResult {
	result := PoseValidationResult{Issues: make([]string, 0)}
	if pose.Position.HasNaN() {
		result.Issues = append(result.Issues, "position is NaN")
	} else if !field.Contains(pose.Position) {
		result.Issues = append(result.Issues, fmt.Sprintf("position %.3f outside field", pose.Position))
	}
	if pose.Orientation.HasNaN() {
		// Opposing particles cancel in the circular mean; usable but flagged.
		result.Issues = append(result.Issues, "orientation is NaN")
	}
	result.Valid = len(result.Issues) == 0
	return result
}

// Estimate is the output of one cycle as handed to sinks: the pose, the
// cycle timestamp and the validation verdict against the field.
type Estimate struct {
	Timestamp  int64                `json:"timestamp"` // Unix millis
	Pose       Pose                 `json:"pose"`
	Validation PoseValidationResult `json:"validation"`
}
